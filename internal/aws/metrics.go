package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// DefaultMetricsNamespace is used when no namespace is configured.
const DefaultMetricsNamespace = "Awesome/Storefront"

// Metrics publishes storefront counters to CloudWatch.
type Metrics struct {
	CloudWatch CloudWatchAPI
	Namespace  string
	nowFunc    func() time.Time
}

// NewMetrics returns a Metrics publisher for the namespace.
func NewMetrics(client CloudWatchAPI, namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultMetricsNamespace
	}
	return &Metrics{
		CloudWatch: client,
		Namespace:  namespace,
		nowFunc:    time.Now,
	}
}

// OrderNotified records one notified order and its value.
func (m *Metrics) OrderNotified(ctx context.Context, paymentMethod string, amount float64) error {
	now := m.nowFunc()
	dims := []cwtypes.Dimension{
		{Name: awsString("PaymentMethod"), Value: awsString(orUnknown(paymentMethod))},
	}
	input := &cloudwatch.PutMetricDataInput{
		Namespace: awsString(m.Namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: awsString("OrdersNotified"),
				Dimensions: dims,
				Timestamp:  &now,
				Unit:       cwtypes.StandardUnitCount,
				Value:      float64Ptr(1),
			},
			{
				MetricName: awsString("OrderValue"),
				Dimensions: dims,
				Timestamp:  &now,
				Unit:       cwtypes.StandardUnitNone,
				Value:      float64Ptr(amount),
			},
		},
	}
	if _, err := m.CloudWatch.PutMetricData(ctx, input); err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func float64Ptr(v float64) *float64 { return &v }
