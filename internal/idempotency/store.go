package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/DrewGalowayDev/Awesome/internal/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// DefaultTTL is how long keys are remembered when no window is configured.
const DefaultTTL = 48 * time.Hour

// ErrConditionFailed is returned when the record to update does not exist.
var ErrConditionFailed = errors.New("conditional check failed")

// Store keeps idempotency records in a DynamoDB table keyed by
// idempotency_key. Records expire through the table's TTL on expires_at.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	ttlWindow time.Duration
	nowFunc   func() time.Time
}

// NewStore returns a Store over tableName. A ttlWindow <= 0 uses DefaultTTL.
func NewStore(client aws.DynamoDBAPI, tableName string, ttlWindow time.Duration) *Store {
	if ttlWindow <= 0 {
		ttlWindow = DefaultTTL
	}
	return &Store{client: client, tableName: tableName, ttlWindow: ttlWindow, nowFunc: time.Now}
}

func (s *Store) TableName() string { return s.tableName }

func (s *Store) TTL() time.Duration { return s.ttlWindow }

// HashRequest fingerprints a request body.
func HashRequest(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// NewRecord returns an IN_PROGRESS record stamped with the store clock.
func (s *Store) NewRecord(key, scope, requestHash, orderID string) Record {
	now := s.nowFunc()
	return Record{
		IdempotencyKey: key,
		Status:         StatusInProgress,
		Scope:          scope,
		RequestHash:    requestHash,
		OrderID:        orderID,
		CreatedAt:      now,
		UpdatedAt:      now,
		ExpiresAt:      now.Add(s.ttlWindow).Unix(),
	}
}

// CreateIfNotExists claims rec's key. It reports false with a nil error when
// the key is already taken; callers Get the record to decide what to replay.
func (s *Store) CreateIfNotExists(ctx context.Context, rec Record) (bool, error) {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return false, fmt.Errorf("marshal idempotency record %s: %w", rec.IdempotencyKey, err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(idempotency_key)"),
	})
	if isConditionFailed(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("claim idempotency key %s: %w", rec.IdempotencyKey, err)
	}
	return true, nil
}

// Get returns the record for key, or (nil, nil) when there is none.
func (s *Store) Get(ctx context.Context, key string) (*Record, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName:      &s.tableName,
		Key:            recordKey(key),
		ConsistentRead: awsBool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("read idempotency key %s: %w", key, err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec Record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("decode idempotency record %s: %w", key, err)
	}
	return &rec, nil
}

// MarkDone completes the key and stores the response replayed to retries.
// Only an existing record can be marked; otherwise ErrConditionFailed.
func (s *Store) MarkDone(ctx context.Context, key, responseBody string, responseStatus int) error {
	return s.transition(ctx, key, StatusDone, []field{
		{name: "response_body", value: &types.AttributeValueMemberS{Value: responseBody}},
		{name: "response_status", value: &types.AttributeValueMemberN{Value: strconv.Itoa(responseStatus)}},
	})
}

// MarkFailed records why the request behind key did not complete. A retry
// with the same key sees the FAILED record and may start over.
func (s *Store) MarkFailed(ctx context.Context, key, note string) error {
	return s.transition(ctx, key, StatusFailed, []field{
		{name: "note", value: &types.AttributeValueMemberS{Value: note}},
	})
}

type field struct {
	name  string
	value types.AttributeValue
}

// transition sets status, updated_at and fields on an existing record.
func (s *Store) transition(ctx context.Context, key, status string, fields []field) error {
	values := map[string]types.AttributeValue{
		":status":  &types.AttributeValueMemberS{Value: status},
		":updated": &types.AttributeValueMemberS{Value: s.nowFunc().Format(time.RFC3339)},
	}
	sets := []string{"#s = :status", "updated_at = :updated"}
	for i, f := range fields {
		placeholder := fmt.Sprintf(":f%d", i)
		sets = append(sets, f.name+" = "+placeholder)
		values[placeholder] = f.value
	}

	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:                 &s.tableName,
		Key:                       recordKey(key),
		UpdateExpression:          awsString("SET " + strings.Join(sets, ", ")),
		ConditionExpression:       awsString("attribute_exists(idempotency_key)"),
		ExpressionAttributeNames:  map[string]string{"#s": "status"},
		ExpressionAttributeValues: values,
	})
	if isConditionFailed(err) {
		return ErrConditionFailed
	}
	if err != nil {
		return fmt.Errorf("idempotency %s -> %s: %w", key, status, err)
	}
	return nil
}

func isConditionFailed(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException"
}

func recordKey(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"idempotency_key": &types.AttributeValueMemberS{Value: key},
	}
}

func awsString(s string) *string { return &s }
func awsBool(b bool) *bool { return &b }
