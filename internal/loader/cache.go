package loader

import (
	"encoding/gob"
	"fmt"
	"os"
	"strings"

	"retail-dashboard/internal/models"
)

const cacheVersion = "v1"

func (l *Loader) cacheFilename(csvPath string) string {
	return fmt.Sprintf("%s/%s_%s.gob", l.cacheDir, strings.ReplaceAll(csvPath, "/", "_"), cacheVersion)
}

func (l *Loader) saveToCache(ds *models.Dataset) error {
	if l.cacheDir == "" {
		return nil
	}
	if err := os.MkdirAll(l.cacheDir, 0755); err != nil {
		return err
	}

	file, err := os.Create(l.cacheFilename(ds.SourcePath))
	if err != nil {
		return err
	}
	defer file.Close()

	return gob.NewEncoder(file).Encode(ds)
}

func (l *Loader) loadFromCache(csvPath string) (*models.Dataset, error) {
	if l.cacheDir == "" {
		return nil, fmt.Errorf("cache disabled")
	}
	file, err := os.Open(l.cacheFilename(csvPath))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var ds models.Dataset
	if err := gob.NewDecoder(file).Decode(&ds); err != nil {
		return nil, err
	}
	return &ds, nil
}
