package analytics

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/DrewGalowayDev/Awesome/internal/accounts"
	"github.com/DrewGalowayDev/Awesome/internal/catalog"
	"github.com/DrewGalowayDev/Awesome/internal/orders"
)

// Customer tiers
const (
	TierVIP    = "VIP"
	TierActive = "Active"
	TierNew    = "New"
)

// Tier classifies a customer by number of orders.
func Tier(orderCount int) string {
	switch {
	case orderCount > 5:
		return TierVIP
	case orderCount > 2:
		return TierActive
	default:
		return TierNew
	}
}

// CustomerSummary is one row of the customers page.
type CustomerSummary struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	Orders       int        `json:"orders"`
	TotalSpent   float64    `json:"totalSpent"`
	AverageOrder float64    `json:"averageOrder"`
	LastOrder    *time.Time `json:"lastOrder"`
	Tier         string     `json:"tier"`
	Joined       time.Time  `json:"joined"`
}

// Customers summarizes every customer-role user. Orders counts every order,
// cancelled included. TotalSpent counts paid orders only and AverageOrder
// spreads it over every order, so unpaid orders pull the average down.
func Customers(users []accounts.User, list []orders.Order) []CustomerSummary {
	byUser := map[string][]orders.Order{}
	for _, o := range list {
		byUser[o.UserID] = append(byUser[o.UserID], o)
	}

	out := []CustomerSummary{}
	for _, u := range users {
		if !u.IsCustomer() {
			continue
		}
		own := byUser[u.ID]
		c := CustomerSummary{
			ID:     u.ID,
			Name:   u.Name,
			Email:  u.Email,
			Phone:  u.Phone,
			Orders: len(own),
			Tier:   Tier(len(own)),
			Joined: u.CreatedAt,
		}
		if c.Phone == "" {
			c.Phone = "N/A"
		}
		for _, o := range own {
			if o.Paid() {
				c.TotalSpent += o.TotalAmount
			}
			if c.LastOrder == nil || o.CreatedAt.After(*c.LastOrder) {
				at := o.CreatedAt
				c.LastOrder = &at
			}
		}
		if len(own) > 0 {
			c.AverageOrder = c.TotalSpent / float64(len(own))
		}
		out = append(out, c)
	}
	return out
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format("Jan 2, 2006")
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// every cell is quoted, as spreadsheet imports of the export expect
func writeCSVRow(w *bufio.Writer, cells []string) {
	for i, c := range cells {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteByte('"')
		w.WriteString(strings.ReplaceAll(c, `"`, `""`))
		w.WriteByte('"')
	}
	w.WriteByte('\n')
}

// WriteCustomersCSV exports customer summaries.
func WriteCustomersCSV(w io.Writer, list []CustomerSummary) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("ID,Name,Email,Phone,Orders,Total Spent,Joined\n")
	for _, c := range list {
		writeCSVRow(bw, []string{
			c.ID, c.Name, c.Email, c.Phone,
			fmt.Sprintf("%d", c.Orders),
			formatAmount(c.TotalSpent),
			formatDate(c.Joined),
		})
	}
	return bw.Flush()
}

// WriteProductsCSV exports the catalog.
func WriteProductsCSV(w io.Writer, list []catalog.Product) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("ID,Name,Brand,Price,Stock,Condition\n")
	for _, p := range list {
		writeCSVRow(bw, []string{
			p.ID, p.Name, p.Brand,
			formatAmount(p.Price),
			fmt.Sprintf("%d", p.Stock),
			p.Condition,
		})
	}
	return bw.Flush()
}
