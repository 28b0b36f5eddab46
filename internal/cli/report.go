package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/DrewGalowayDev/Awesome/internal/accounts"
	"github.com/DrewGalowayDev/Awesome/internal/analytics"
	"github.com/DrewGalowayDev/Awesome/internal/orders"
)

type reportOptions struct {
	ordersFile string
	usersFile  string
	period     string
	now        string
}

func newReportCmd() *cobra.Command {
	opts := &reportOptions{}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Compute reports from exported orders",
	}
	cmd.PersistentFlags().StringVar(&opts.ordersFile, "orders", "", "Orders JSON file, as returned by /api/admin/orders (required)")
	_ = cmd.MarkPersistentFlagRequired("orders")

	revenue := &cobra.Command{
		Use:   "revenue",
		Short: "Revenue, status counts and top products for a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRevenue(cmd.OutOrStdout(), opts)
		},
	}
	revenue.Flags().StringVar(&opts.period, "period", string(analytics.PeriodMonth), "today, week, month or year")
	revenue.Flags().StringVar(&opts.now, "now", "", "Reference time in RFC3339, defaults to the current time")

	customers := &cobra.Command{
		Use:   "customers",
		Short: "Customer summary as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCustomers(cmd.OutOrStdout(), opts)
		},
	}
	customers.Flags().StringVar(&opts.usersFile, "users", "", "Users JSON file (required)")
	_ = customers.MarkFlagRequired("users")

	cmd.AddCommand(revenue, customers)
	return cmd
}

// readJSONList accepts a bare array or an object holding the array under key,
// which is how the admin endpoints wrap their lists.
func readJSONList[T any](path, key string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var list []T
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	raw, ok := wrapped[key]
	if !ok {
		return nil, fmt.Errorf("decode %s: no %q list", path, key)
	}
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return list, nil
}

func runRevenue(out io.Writer, opts *reportOptions) error {
	period, ok := analytics.ParsePeriod(opts.period)
	if !ok {
		return fmt.Errorf("unknown period %q", opts.period)
	}
	now := time.Now()
	if opts.now != "" {
		t, err := time.Parse(time.RFC3339, opts.now)
		if err != nil {
			return fmt.Errorf("parse --now: %w", err)
		}
		now = t
	}
	list, err := readJSONList[orders.Order](opts.ordersFile, "orders")
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(analytics.Aggregate(list, period, now))
}

func runCustomers(out io.Writer, opts *reportOptions) error {
	list, err := readJSONList[orders.Order](opts.ordersFile, "orders")
	if err != nil {
		return err
	}
	users, err := readJSONList[accounts.User](opts.usersFile, "users")
	if err != nil {
		return err
	}
	return analytics.WriteCustomersCSV(out, analytics.Customers(users, list))
}
