// Package analytics derives admin dashboard figures from order, product and
// user snapshots. Every function is pure: callers pass in now.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/DrewGalowayDev/Awesome/internal/orders"
)

// Period selects the revenue bucketing.
type Period string

const (
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// ParsePeriod validates a period name.
func ParsePeriod(s string) (Period, bool) {
	switch p := Period(s); p {
	case PeriodToday, PeriodWeek, PeriodMonth, PeriodYear:
		return p, true
	}
	return "", false
}

// Point is one bucket of a series.
type Point struct {
	Label   string  `json:"label"`
	Revenue float64 `json:"revenue"`
	Orders  int     `json:"orders"`
}

var (
	todayLabels = []string{"Morning", "Afternoon", "Evening"}
	weekLabels  = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	monthLabels = []string{"Week 1", "Week 2", "Week 3", "Week 4"}
	yearLabels  = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
)

// Revenue buckets paid orders for period relative to now. Calendar
// boundaries use now's location. An unknown period yields an empty series.
//
//   - today: Morning (<12h), Afternoon (<18h), Evening, same calendar day
//   - week: Mon..Sun of the Monday-started week containing now
//   - month: days 1-7, 8-14, 15-21, 22-28 of now's month; days 29-31 are not counted
//   - year: Jan..Dec of now's year
func Revenue(list []orders.Order, period Period, now time.Time) []Point {
	labels, bucket := bucketer(period, now)
	if labels == nil {
		return []Point{}
	}
	series := make([]Point, len(labels))
	for i, l := range labels {
		series[i].Label = l
	}
	for _, o := range list {
		if !o.Paid() {
			continue
		}
		i := bucket(o.CreatedAt.In(now.Location()))
		if i < 0 || i >= len(series) {
			continue
		}
		series[i].Revenue += o.TotalAmount
		series[i].Orders++
	}
	return series
}

func bucketer(period Period, now time.Time) ([]string, func(time.Time) int) {
	y, m, d := now.Date()
	loc := now.Location()

	switch period {
	case PeriodToday:
		return todayLabels, func(t time.Time) int {
			ty, tm, td := t.Date()
			if ty != y || tm != m || td != d {
				return -1
			}
			switch h := t.Hour(); {
			case h < 12:
				return 0
			case h < 18:
				return 1
			default:
				return 2
			}
		}
	case PeriodWeek:
		offset := (int(now.Weekday()) + 6) % 7 // days since Monday
		monday := time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
		return weekLabels, func(t time.Time) int {
			ty, tm, td := t.Date()
			day := time.Date(ty, tm, td, 0, 0, 0, 0, loc)
			if day.Before(monday) {
				return -1
			}
			return int(math.Round(day.Sub(monday).Hours() / 24))
		}
	case PeriodMonth:
		return monthLabels, func(t time.Time) int {
			ty, tm, td := t.Date()
			if ty != y || tm != m {
				return -1
			}
			return (td - 1) / 7
		}
	case PeriodYear:
		return yearLabels, func(t time.Time) int {
			if t.Year() != y {
				return -1
			}
			return int(t.Month()) - 1
		}
	}
	return nil, nil
}

// StatusCounts counts orders per known status. Unknown statuses are ignored;
// every known status is present.
func StatusCounts(list []orders.Order) map[string]int {
	counts := make(map[string]int, len(orders.Statuses))
	for _, s := range orders.Statuses {
		counts[s] = 0
	}
	for _, o := range list {
		if _, ok := counts[o.Status]; ok {
			counts[o.Status]++
		}
	}
	return counts
}

// DefaultTopN is the number of best sellers reported.
const DefaultTopN = 5

// ProductStat is units sold and revenue per product.
type ProductStat struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Revenue   float64 `json:"revenue"`
}

// TopProducts ranks products by units across all orders regardless of status
// or payment. Ties keep first-appearance order. n <= 0 means DefaultTopN.
func TopProducts(list []orders.Order, n int) []ProductStat {
	if n <= 0 {
		n = DefaultTopN
	}
	index := map[string]int{}
	var stats []ProductStat
	for _, o := range list {
		for _, it := range o.Items {
			i, ok := index[it.ProductID]
			if !ok {
				i = len(stats)
				index[it.ProductID] = i
				stats = append(stats, ProductStat{ProductID: it.ProductID, Name: it.ProductName})
			}
			stats[i].Quantity += it.Quantity
			stats[i].Revenue += it.Price * float64(it.Quantity)
		}
	}
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].Quantity > stats[j].Quantity })
	if len(stats) > n {
		stats = stats[:n]
	}
	if stats == nil {
		stats = []ProductStat{}
	}
	return stats
}

// Report is the analytics page payload.
type Report struct {
	Period       Period         `json:"period"`
	Revenue      []Point        `json:"revenue"`
	TotalRevenue float64        `json:"total_revenue"`
	StatusCounts map[string]int `json:"status_counts"`
	TopProducts  []ProductStat  `json:"top_products"`
}

// Aggregate computes the full analytics report.
func Aggregate(list []orders.Order, period Period, now time.Time) Report {
	r := Report{
		Period:       period,
		Revenue:      Revenue(list, period, now),
		StatusCounts: StatusCounts(list),
		TopProducts:  TopProducts(list, DefaultTopN),
	}
	for _, p := range r.Revenue {
		r.TotalRevenue += p.Revenue
	}
	return r
}
