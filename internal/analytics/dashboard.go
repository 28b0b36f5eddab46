package analytics

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/DrewGalowayDev/Awesome/internal/accounts"
	"github.com/DrewGalowayDev/Awesome/internal/catalog"
	"github.com/DrewGalowayDev/Awesome/internal/orders"
)

// DefaultCategoryColor is used for categories without a color.
const DefaultCategoryColor = catalog.DefaultCategoryColor

// RecentOrdersLimit is how many orders the dashboard lists.
const RecentOrdersLimit = 5

// Sources fetch the dashboard's inputs. A nil source counts as a failure.
type Sources struct {
	Products   func(ctx context.Context) ([]catalog.Product, error)
	Orders     func(ctx context.Context) ([]orders.Order, error)
	Users      func(ctx context.Context) ([]accounts.User, error)
	Categories func(ctx context.Context) ([]catalog.Category, error)
}

// Totals are the dashboard's headline figures.
type Totals struct {
	Products  int     `json:"totalProducts"`
	Orders    int     `json:"totalOrders"`
	Customers int     `json:"totalCustomers"`
	Sales     float64 `json:"totalSales"`
}

// CategoryCount is one slice of the category chart.
type CategoryCount struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Count int    `json:"count"`
}

// DashboardReport is the admin home page payload.
type DashboardReport struct {
	Totals       Totals          `json:"totals"`
	SalesTrend   []Point         `json:"sales_trend"`
	Categories   []CategoryCount `json:"categories"`
	RecentOrders []orders.Order  `json:"recent_orders"`
	TopProducts  []ProductStat   `json:"top_products"`
	Warnings     []string        `json:"warnings,omitempty"`
}

// Dashboard fetches every source concurrently and computes the report. A
// failing source contributes an empty list and a warning; it never fails the
// whole report.
func Dashboard(ctx context.Context, src Sources, now time.Time) DashboardReport {
	var (
		wg         sync.WaitGroup
		products   []catalog.Product
		orderList  []orders.Order
		users      []accounts.User
		categories []catalog.Category
		errs       [4]error
	)
	wg.Add(4)
	go func() { defer wg.Done(); products, errs[0] = fetch(ctx, src.Products) }()
	go func() { defer wg.Done(); orderList, errs[1] = fetch(ctx, src.Orders) }()
	go func() { defer wg.Done(); users, errs[2] = fetch(ctx, src.Users) }()
	go func() { defer wg.Done(); categories, errs[3] = fetch(ctx, src.Categories) }()
	wg.Wait()

	var warnings []string
	for i, name := range []string{"products", "orders", "users", "categories"} {
		if errs[i] != nil {
			warnings = append(warnings, fmt.Sprintf("%s unavailable: %v", name, errs[i]))
		}
	}

	r := BuildDashboard(products, orderList, users, categories, now)
	r.Warnings = warnings
	return r
}

func fetch[T any](ctx context.Context, f func(context.Context) ([]T, error)) ([]T, error) {
	if f == nil {
		return []T{}, fmt.Errorf("no source configured")
	}
	list, err := f(ctx)
	if err != nil {
		return []T{}, err
	}
	return list, nil
}

// BuildDashboard computes the report from already fetched snapshots.
func BuildDashboard(products []catalog.Product, list []orders.Order, users []accounts.User, categories []catalog.Category, now time.Time) DashboardReport {
	r := DashboardReport{
		SalesTrend:   WeeklySales(list, now),
		Categories:   CategoryCounts(categories, products),
		RecentOrders: RecentOrders(list, RecentOrdersLimit),
		TopProducts:  TopProducts(list, DefaultTopN),
	}
	r.Totals.Products = len(products)
	r.Totals.Orders = len(list)
	for _, u := range users {
		if u.IsCustomer() {
			r.Totals.Customers++
		}
	}
	for _, o := range list {
		if o.Paid() {
			r.Totals.Sales += o.TotalAmount
		}
	}
	return r
}

// WeeklySales sums paid orders over the four 7-day windows before now,
// oldest first, labelled Week 1..Week 4.
func WeeklySales(list []orders.Order, now time.Time) []Point {
	out := make([]Point, 4)
	for i := 3; i >= 0; i-- {
		start := now.AddDate(0, 0, -(i+1)*7)
		end := start.AddDate(0, 0, 7)
		p := &out[3-i]
		p.Label = fmt.Sprintf("Week %d", 4-i)
		for _, o := range list {
			if !o.Paid() || o.CreatedAt.Before(start) || !o.CreatedAt.Before(end) {
				continue
			}
			p.Revenue += o.TotalAmount
			p.Orders++
		}
	}
	return out
}

// CategoryCounts counts products per known category, in category order.
// Products in unknown categories are not counted.
func CategoryCounts(categories []catalog.Category, products []catalog.Product) []CategoryCount {
	out := make([]CategoryCount, 0, len(categories))
	index := map[string]int{}
	for _, c := range categories {
		index[c.ID] = len(out)
		color := c.Color
		if color == "" {
			color = DefaultCategoryColor
		}
		out = append(out, CategoryCount{ID: c.ID, Name: c.Name, Color: color})
	}
	for _, p := range products {
		if i, ok := index[p.CategoryID]; ok {
			out[i].Count++
		}
	}
	return out
}

// RecentOrders returns the n newest orders.
func RecentOrders(list []orders.Order, n int) []orders.Order {
	sorted := make([]orders.Order, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.After(sorted[j].CreatedAt) })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
