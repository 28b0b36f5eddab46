package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/DrewGalowayDev/Awesome/internal/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// UserIndex is the GSI used to list a customer's orders newest first.
const UserIndex = "user_id-created_at-index"

var (
	// ErrNotFound is returned by conditional updates when the order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrStatusMismatch is returned when the order is not in a state that allows the change.
	ErrStatusMismatch = errors.New("status mismatch/conditional failed")
	// ErrAlreadyNotified is returned when a notification was already recorded.
	ErrAlreadyNotified = errors.New("order already notified")
	// ErrIdempotencyConflict is returned when the checkout key was already used.
	ErrIdempotencyConflict = errors.New("idempotency key already exists")
)

// Store encapsulates operations on the orders table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new orders Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// CreateWithIdempotencyTransaction writes the checkout's idempotency record
// and the order in one transaction. Either both land or neither does, so a
// retried checkout can never leave an order without its key or the reverse.
//
// idempotencyItem must marshal to a map containing idempotency_key; when it
// has no expires_at one is derived from ttlWindow. order.OrderID must be set.
// A cancelled transaction means the key (or order id) is taken and is
// reported as ErrIdempotencyConflict.
func (s *Store) CreateWithIdempotencyTransaction(ctx context.Context, idempotencyTable string, idempotencyItem any, order Order, ttlWindow time.Duration) error {
	now := s.nowFunc()

	keyItem, err := attributevalue.MarshalMap(idempotencyItem)
	if err != nil {
		return fmt.Errorf("encode idempotency record for order %s: %w", order.OrderID, err)
	}
	if _, ok := keyItem["expires_at"]; !ok && ttlWindow > 0 {
		keyItem["expires_at"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Add(ttlWindow).Unix(), 10)}
	}

	orderItem, err := attributevalue.MarshalMap(withDefaults(order, now))
	if err != nil {
		return fmt.Errorf("encode order %s: %w", order.OrderID, err)
	}

	_, err = s.client.TransactWriteItems(ctx, &dyn.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			putIfAbsent(idempotencyTable, keyItem, "idempotency_key"),
			putIfAbsent(s.tableName, orderItem, "order_id"),
		},
	})
	var cancelled *types.TransactionCanceledException
	if errors.As(err, &cancelled) {
		return fmt.Errorf("%w: %w", ErrIdempotencyConflict, err)
	}
	if err != nil {
		return fmt.Errorf("create order %s: %w", order.OrderID, err)
	}
	return nil
}

// withDefaults stamps timestamps and initial states on a new order.
func withDefaults(o Order, now time.Time) Order {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	if o.Status == "" {
		o.Status = StatusPending
	}
	if o.PaymentStatus == "" {
		o.PaymentStatus = PaymentUnpaid
	}
	return o
}

func putIfAbsent(table string, item map[string]types.AttributeValue, keyAttr string) types.TransactWriteItem {
	return types.TransactWriteItem{Put: &types.Put{
		TableName:           awsString(table),
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(" + keyAttr + ")"),
	}}
}

// Get fetches an order by order_id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, orderID string) (*Order, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key:       orderKey(orderID),
	})
	if err != nil {
		return nil, fmt.Errorf("read order %s: %w", orderID, err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var o Order
	if err := attributevalue.UnmarshalMap(out.Item, &o); err != nil {
		return nil, fmt.Errorf("decode order %s: %w", orderID, err)
	}
	return &o, nil
}

// ListByUser returns a user's orders, newest first.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	var (
		result []Order
		start  map[string]types.AttributeValue
	)
	for {
		out, err := s.client.Query(ctx, &dyn.QueryInput{
			TableName:              &s.tableName,
			IndexName:              awsString(UserIndex),
			KeyConditionExpression: awsString("user_id = :u"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":u": &types.AttributeValueMemberS{Value: userID},
			},
			ScanIndexForward:  awsBool(false),
			ExclusiveStartKey: start,
		})
		if err != nil {
			return nil, fmt.Errorf("query orders by user: %w", err)
		}
		page, err := unmarshalOrders(out.Items)
		if err != nil {
			return nil, err
		}
		result = append(result, page...)
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		start = out.LastEvaluatedKey
	}
	sortNewestFirst(result)
	return result, nil
}

// ListAll scans every order, newest first. Intended for admin views.
func (s *Store) ListAll(ctx context.Context) ([]Order, error) {
	var (
		result []Order
		start  map[string]types.AttributeValue
	)
	for {
		out, err := s.client.Scan(ctx, &dyn.ScanInput{
			TableName:         &s.tableName,
			ExclusiveStartKey: start,
		})
		if err != nil {
			return nil, fmt.Errorf("scan orders: %w", err)
		}
		page, err := unmarshalOrders(out.Items)
		if err != nil {
			return nil, err
		}
		result = append(result, page...)
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		start = out.LastEvaluatedKey
	}
	sortNewestFirst(result)
	return result, nil
}

// UpdateStatus sets the order status. Returns ErrNotFound if the order does not exist.
func (s *Store) UpdateStatus(ctx context.Context, orderID, status string) (*Order, error) {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName:                &s.tableName,
		Key:                      orderKey(orderID),
		UpdateExpression:         awsString("SET #s = :new, updated_at = :ua"),
		ConditionExpression:      awsString("attribute_exists(order_id)"),
		ExpressionAttributeNames: map[string]string{"#s": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":new": &types.AttributeValueMemberS{Value: status},
			":ua":  &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
		ReturnValues: types.ReturnValueAllNew,
	}
	return s.update(ctx, input, ErrNotFound)
}

// Cancel moves the caller's own order to cancelled. Only pending or
// processing orders can be cancelled; any other case returns ErrStatusMismatch.
func (s *Store) Cancel(ctx context.Context, orderID, userID string) (*Order, error) {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName:                &s.tableName,
		Key:                      orderKey(orderID),
		UpdateExpression:         awsString("SET #s = :new, updated_at = :ua"),
		ConditionExpression:      awsString("user_id = :uid AND #s IN (:pending, :processing)"),
		ExpressionAttributeNames: map[string]string{"#s": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":new":        &types.AttributeValueMemberS{Value: StatusCancelled},
			":ua":         &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
			":uid":        &types.AttributeValueMemberS{Value: userID},
			":pending":    &types.AttributeValueMemberS{Value: StatusPending},
			":processing": &types.AttributeValueMemberS{Value: StatusProcessing},
		},
		ReturnValues: types.ReturnValueAllNew,
	}
	return s.update(ctx, input, ErrStatusMismatch)
}

// MarkPaid confirms payment for an order. Status is left untouched.
func (s *Store) MarkPaid(ctx context.Context, orderID, reference string) (*Order, error) {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName:           &s.tableName,
		Key:                 orderKey(orderID),
		UpdateExpression:    awsString("SET payment_status = :paid, payment_reference = :ref, updated_at = :ua"),
		ConditionExpression: awsString("attribute_exists(order_id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":paid": &types.AttributeValueMemberS{Value: PaymentPaid},
			":ref":  &types.AttributeValueMemberS{Value: reference},
			":ua":   &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
		ReturnValues: types.ReturnValueAllNew,
	}
	return s.update(ctx, input, ErrNotFound)
}

// RecordNotification stores the notification deep link once. A second call
// for the same order returns ErrAlreadyNotified.
func (s *Store) RecordNotification(ctx context.Context, orderID, link string) error {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName:           &s.tableName,
		Key:                 orderKey(orderID),
		UpdateExpression:    awsString("SET notification_link = :l, notified_at = :na, updated_at = :ua"),
		ConditionExpression: awsString("attribute_exists(order_id) AND attribute_not_exists(notified_at)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":l":  &types.AttributeValueMemberS{Value: link},
			":na": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
			":ua": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
	}
	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		if isConditionalFailure(err) {
			return ErrAlreadyNotified
		}
		return fmt.Errorf("update item (record notification): %w", err)
	}
	return nil
}

func (s *Store) update(ctx context.Context, input *dyn.UpdateItemInput, condErr error) (*Order, error) {
	out, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		if isConditionalFailure(err) {
			return nil, condErr
		}
		return nil, fmt.Errorf("update item: %w", err)
	}
	var o Order
	if err := attributevalue.UnmarshalMap(out.Attributes, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

func isConditionalFailure(err error) bool {
	var ae smithy.APIError
	return errors.As(err, &ae) && ae.ErrorCode() == "ConditionalCheckFailedException"
}

func unmarshalOrders(items []map[string]types.AttributeValue) ([]Order, error) {
	out := make([]Order, 0, len(items))
	if err := attributevalue.UnmarshalListOfMaps(items, &out); err != nil {
		return nil, fmt.Errorf("unmarshal orders: %w", err)
	}
	return out, nil
}

func sortNewestFirst(list []Order) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}

func orderKey(orderID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"order_id": &types.AttributeValueMemberS{Value: orderID},
	}
}

func awsString(s string) *string { return &s }

func awsBool(b bool) *bool { return &b }
