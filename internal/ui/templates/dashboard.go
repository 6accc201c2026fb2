package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Dashboard is the single-page analytics view. Widgets load through the
// datastar SSE endpoints; filter changes re-fetch everything via
// /sse/refresh-all.
func Dashboard() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, dashboardPage)
		return err
	})
}

const dashboardPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8"/>
<meta name="viewport" content="width=device-width, initial-scale=1"/>
<title>Retail Analytics Dashboard</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@main/bundles/datastar.js"></script>
<script src="https://cdn.jsdelivr.net/npm/chart.js@4"></script>
<style>
:root { color-scheme: dark; }
body { margin: 0; font-family: system-ui, sans-serif; background: #11151c; color: #e6e8eb; }
header { padding: 24px 32px 8px; }
header h1 { margin: 0; font-size: 1.6rem; }
header p { margin: 4px 0 0; color: #9aa3ad; }
main { padding: 16px 32px 48px; }
section { margin-bottom: 32px; }
section h2 { font-size: 1.1rem; border-bottom: 1px solid #2a313b; padding-bottom: 8px; }
.filter-bar { display: flex; gap: 12px; align-items: end; flex-wrap: wrap; background: #171c25; padding: 16px; border-radius: 10px; }
.filter-bar label { display: flex; flex-direction: column; gap: 4px; font-size: 0.8rem; color: #9aa3ad; }
.filter-bar input, .filter-bar select { background: #11151c; color: #e6e8eb; border: 1px solid #2a313b; border-radius: 6px; padding: 6px 10px; }
.filter-bar button { background: #3b82f6; color: #fff; border: 0; border-radius: 6px; padding: 8px 16px; cursor: pointer; }
.kpi-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(200px, 1fr)); gap: 16px; }
.metric-card { background: #171c25; padding: 20px; border-radius: 10px; text-align: center; display: flex; flex-direction: column; gap: 6px; }
.metric-card strong { font-size: 1.5rem; }
.metric-label { color: #9aa3ad; font-size: 0.8rem; text-transform: uppercase; letter-spacing: 0.05em; }
.chart-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(380px, 1fr)); gap: 16px; }
.chart-box { background: #171c25; border-radius: 10px; padding: 16px; }
.modern-table { width: 100%; border-collapse: collapse; }
.modern-table th, .modern-table td { text-align: left; padding: 8px 12px; border-bottom: 1px solid #2a313b; }
.modern-table th { color: #9aa3ad; font-size: 0.8rem; text-transform: uppercase; }
</style>
</head>
<body data-signals="{from: '', to: '', country: '', monthlyData: [], countryData: [], productsByQty: [], productsByRevenue: [], hourlyData: [], orderSizeData: []}"
      data-on-load="@get('/sse/refresh-all')">

<header>
<h1>Retail Analytics Dashboard</h1>
<p>E-commerce sales analysis over the loaded transaction set</p>
</header>

<main>
<section>
<div class="filter-bar">
<label>From <input type="date" data-bind-from/></label>
<label>To <input type="date" data-bind-to/></label>
<label>Country <input type="text" placeholder="e.g. United Kingdom,France" data-bind-country/></label>
<button data-on-click="@get('/sse/refresh-all?from=' + $from + '&to=' + $to + '&country=' + $country)">Apply Filters</button>
</div>
</section>

<section>
<h2>Key Performance Indicators</h2>
<div id="kpi-content" class="kpi-grid"></div>
</section>

<section>
<h2>Sales Trends Over Time</h2>
<div class="chart-grid">
<div class="chart-box" data-effect="renderMonthly($monthlyData)"><canvas id="monthly-revenue-chart"></canvas></div>
<div class="chart-box"><canvas id="monthly-orders-chart"></canvas></div>
</div>
</section>

<section>
<h2>Geographic Analysis</h2>
<div class="chart-grid">
<div class="chart-box" data-effect="renderCountries($countryData)"><canvas id="country-chart"></canvas></div>
<div class="chart-box" id="country-content"></div>
</div>
</section>

<section>
<h2>Product Performance</h2>
<div class="chart-grid">
<div class="chart-box" data-effect="renderProducts($productsByQty, $productsByRevenue)"><canvas id="products-qty-chart"></canvas></div>
<div class="chart-box"><canvas id="products-revenue-chart"></canvas></div>
</div>
</section>

<section>
<h2>Purchase Patterns</h2>
<div class="chart-grid">
<div class="chart-box" data-effect="renderPatterns($hourlyData, $orderSizeData)"><canvas id="hourly-chart"></canvas></div>
<div class="chart-box"><canvas id="order-size-chart"></canvas></div>
</div>
</section>
</main>

<script>
const charts = {};

function drawChart(id, type, labels, values, label, color) {
	const el = document.getElementById(id);
	if (!el) return;
	if (charts[id]) charts[id].destroy();
	charts[id] = new Chart(el, {
		type: type,
		data: { labels: labels, datasets: [{ label: label, data: values, backgroundColor: color, borderColor: color, tension: 0.3 }] },
		options: { responsive: true, plugins: { legend: { labels: { color: '#e6e8eb' } } } }
	});
}

function renderMonthly(monthly) {
	if (!monthly || !monthly.length) return;
	drawChart('monthly-revenue-chart', 'line', monthly.map(m => m.month), monthly.map(m => m.revenue), 'Monthly Revenue', '#3b82f6');
	drawChart('monthly-orders-chart', 'bar', monthly.map(m => m.month), monthly.map(m => m.orders), 'Monthly Orders', '#7fb3d5');
}

function renderCountries(countries) {
	if (!countries || !countries.length) return;
	const top = countries.slice(0, 10);
	drawChart('country-chart', 'bar', top.map(c => c.country), top.map(c => c.revenue), 'Revenue by Country', '#f4a3b8');
}

function renderProducts(byQty, byRevenue) {
	if (byQty && byQty.length) {
		drawChart('products-qty-chart', 'bar', byQty.map(p => p.description), byQty.map(p => p.quantity), 'Top Products by Quantity', '#9adbb3');
	}
	if (byRevenue && byRevenue.length) {
		drawChart('products-revenue-chart', 'bar', byRevenue.map(p => p.description), byRevenue.map(p => p.revenue), 'Top Products by Revenue', '#f4c27a');
	}
}

function renderPatterns(hourly, orderSizes) {
	if (hourly && hourly.length) {
		drawChart('hourly-chart', 'line', hourly.map(h => h.hour), hourly.map(h => h.orders), 'Orders by Hour of Day', '#ff7f0e');
	}
	if (orderSizes && orderSizes.length) {
		drawChart('order-size-chart', 'bar', orderSizes.map(b => b.orders), orderSizes.map(b => b.customers), 'Customer Order Distribution', '#b49ddb');
	}
}
</script>
</body>
</html>
`
