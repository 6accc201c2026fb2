package handlers

import (
	"net/http"
	"strings"
	"time"

	"retail-dashboard/internal/errors"
	"retail-dashboard/internal/services"
)

const filterDateLayout = "2006-01-02"

// parseFilter reads the shared filter query parameters: from and to as
// inclusive YYYY-MM-DD dates, and country repeated or comma-separated.
func parseFilter(r *http.Request) (services.Filter, error) {
	q := r.URL.Query()
	var f services.Filter

	if v := q.Get("from"); v != "" {
		t, err := time.Parse(filterDateLayout, v)
		if err != nil {
			return f, errors.ValidationWrap(err, "invalid 'from' date, want YYYY-MM-DD")
		}
		f.From = t
	}

	if v := q.Get("to"); v != "" {
		t, err := time.Parse(filterDateLayout, v)
		if err != nil {
			return f, errors.ValidationWrap(err, "invalid 'to' date, want YYYY-MM-DD")
		}
		f.To = t
	}

	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return f, errors.Validation("'to' date is before 'from' date")
	}

	for _, raw := range q["country"] {
		for _, c := range strings.Split(raw, ",") {
			if c = strings.TrimSpace(c); c != "" {
				f.Countries = append(f.Countries, c)
			}
		}
	}

	return f, nil
}
