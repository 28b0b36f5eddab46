package awstest

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
)

// CloudWatch records metric puts.
type CloudWatch struct {
	mu   sync.Mutex
	Puts []*cloudwatch.PutMetricDataInput
	Err  error
}

func (m *CloudWatch) PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	m.Puts = append(m.Puts, in)
	return &cloudwatch.PutMetricDataOutput{}, nil
}
