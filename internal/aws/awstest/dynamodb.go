// Package awstest provides in-memory stand-ins for the AWS client interfaces.
package awstest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// KeyAttributes are the partition key names, in lookup order. Idempotency
// records also carry order_id, so their own key is checked first.
var KeyAttributes = []string{"idempotency_key", "order_id"}

// DynamoDB is an in-memory mock of aws.DynamoDBAPI. It understands the small
// expression subset used by the stores: SET a = :v lists, and conditions made
// of attribute_exists, attribute_not_exists, equality and IN joined by AND.
type DynamoDB struct {
	mu     sync.Mutex
	Tables map[string]map[string]map[string]types.AttributeValue

	// PageSize splits Query and Scan results when > 0.
	PageSize int
	// Err, when set, is returned by every call.
	Err error

	PutCalls      int
	GetCalls      int
	UpdateCalls   int
	QueryCalls    int
	ScanCalls     int
	TransactCalls int
}

// NewDynamoDB returns an empty mock.
func NewDynamoDB() *DynamoDB {
	return &DynamoDB{Tables: map[string]map[string]map[string]types.AttributeValue{}}
}

// Seed stores item in table, bypassing conditions.
func (m *DynamoDB) Seed(table string, item map[string]types.AttributeValue) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk, err := keyOf(item)
	if err != nil {
		panic(err)
	}
	m.table(table)[pk] = clone(item)
}

// Item returns a copy of the stored item or nil.
func (m *DynamoDB) Item(table, pk string) map[string]types.AttributeValue {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.table(table)[pk]
	if !ok {
		return nil
	}
	return clone(item)
}

func (m *DynamoDB) table(name string) map[string]map[string]types.AttributeValue {
	t, ok := m.Tables[name]
	if !ok {
		t = map[string]map[string]types.AttributeValue{}
		m.Tables[name] = t
	}
	return t
}

func (m *DynamoDB) PutItem(ctx context.Context, in *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PutCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	pk, err := keyOf(in.Item)
	if err != nil {
		return nil, err
	}
	tbl := m.table(*in.TableName)
	ok, err := evalCondition(in.ConditionExpression, tbl[pk], in.ExpressionAttributeNames, in.ExpressionAttributeValues)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &types.ConditionalCheckFailedException{}
	}
	tbl[pk] = clone(in.Item)
	return &dyn.PutItemOutput{}, nil
}

func (m *DynamoDB) GetItem(ctx context.Context, in *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	pk, err := keyOf(in.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.table(*in.TableName)[pk]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: clone(item)}, nil
}

func (m *DynamoDB) UpdateItem(ctx context.Context, in *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	pk, err := keyOf(in.Key)
	if err != nil {
		return nil, err
	}
	tbl := m.table(*in.TableName)
	current := tbl[pk]
	ok, err := evalCondition(in.ConditionExpression, current, in.ExpressionAttributeNames, in.ExpressionAttributeValues)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &types.ConditionalCheckFailedException{}
	}

	next := clone(current)
	if next == nil {
		next = clone(in.Key)
	}
	if in.UpdateExpression != nil {
		if err := applySet(*in.UpdateExpression, next, in.ExpressionAttributeNames, in.ExpressionAttributeValues); err != nil {
			return nil, err
		}
	}
	tbl[pk] = next

	out := &dyn.UpdateItemOutput{}
	if in.ReturnValues == types.ReturnValueAllNew {
		out.Attributes = clone(next)
	}
	return out, nil
}

func (m *DynamoDB) Query(ctx context.Context, in *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QueryCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	var matched []map[string]types.AttributeValue
	for _, item := range m.sorted(*in.TableName) {
		ok, err := evalCondition(in.KeyConditionExpression, item, in.ExpressionAttributeNames, in.ExpressionAttributeValues)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, item)
		}
	}
	items, last := m.page(matched, in.ExclusiveStartKey)
	return &dyn.QueryOutput{Items: items, LastEvaluatedKey: last, Count: int32(len(items))}, nil
}

func (m *DynamoDB) Scan(ctx context.Context, in *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ScanCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	items, last := m.page(m.sorted(*in.TableName), in.ExclusiveStartKey)
	return &dyn.ScanOutput{Items: items, LastEvaluatedKey: last, Count: int32(len(items))}, nil
}

func (m *DynamoDB) TransactWriteItems(ctx context.Context, in *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TransactCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	// all conditions are checked before anything is written
	for _, it := range in.TransactItems {
		p := it.Put
		if p == nil {
			return nil, errors.New("awstest: only Put is supported in transactions")
		}
		pk, err := keyOf(p.Item)
		if err != nil {
			return nil, err
		}
		ok, err := evalCondition(p.ConditionExpression, m.table(*p.TableName)[pk], p.ExpressionAttributeNames, p.ExpressionAttributeValues)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &types.TransactionCanceledException{Message: awsString("ConditionalCheckFailed")}
		}
	}
	for _, it := range in.TransactItems {
		pk, _ := keyOf(it.Put.Item)
		m.table(*it.Put.TableName)[pk] = clone(it.Put.Item)
	}
	return &dyn.TransactWriteItemsOutput{}, nil
}

func (m *DynamoDB) sorted(table string) []map[string]types.AttributeValue {
	tbl := m.table(table)
	keys := make([]string, 0, len(tbl))
	for k := range tbl {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]map[string]types.AttributeValue, 0, len(keys))
	for _, k := range keys {
		out = append(out, clone(tbl[k]))
	}
	return out
}

func (m *DynamoDB) page(items []map[string]types.AttributeValue, start map[string]types.AttributeValue) ([]map[string]types.AttributeValue, map[string]types.AttributeValue) {
	if len(start) > 0 {
		startKey, _ := keyOf(start)
		for i, it := range items {
			if k, _ := keyOf(it); k == startKey {
				items = items[i+1:]
				break
			}
		}
	}
	if m.PageSize <= 0 || len(items) <= m.PageSize {
		return items, nil
	}
	items = items[:m.PageSize]
	last := items[len(items)-1]
	for _, name := range KeyAttributes {
		if v, ok := last[name]; ok {
			return items, map[string]types.AttributeValue{name: v}
		}
	}
	return items, nil
}

func keyOf(item map[string]types.AttributeValue) (string, error) {
	for _, name := range KeyAttributes {
		if v, ok := item[name]; ok {
			if s, ok := v.(*types.AttributeValueMemberS); ok {
				return s.Value, nil
			}
		}
	}
	return "", errors.New("awstest: no primary key attribute")
}

func evalCondition(expr *string, item map[string]types.AttributeValue, names map[string]string, values map[string]types.AttributeValue) (bool, error) {
	if expr == nil || *expr == "" {
		return true, nil
	}
	for _, clause := range strings.Split(*expr, " AND ") {
		ok, err := evalClause(strings.TrimSpace(clause), item, names, values)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func evalClause(clause string, item map[string]types.AttributeValue, names map[string]string, values map[string]types.AttributeValue) (bool, error) {
	switch {
	case strings.HasPrefix(clause, "attribute_not_exists("):
		attr := resolve(strings.TrimSuffix(strings.TrimPrefix(clause, "attribute_not_exists("), ")"), names)
		_, exists := item[attr]
		return !exists, nil
	case strings.HasPrefix(clause, "attribute_exists("):
		attr := resolve(strings.TrimSuffix(strings.TrimPrefix(clause, "attribute_exists("), ")"), names)
		_, exists := item[attr]
		return exists, nil
	case strings.Contains(clause, " IN ("):
		parts := strings.SplitN(clause, " IN (", 2)
		attr := resolve(strings.TrimSpace(parts[0]), names)
		current, ok := item[attr]
		if !ok {
			return false, nil
		}
		for _, ph := range strings.Split(strings.TrimSuffix(parts[1], ")"), ",") {
			if scalar(current) == scalar(values[strings.TrimSpace(ph)]) {
				return true, nil
			}
		}
		return false, nil
	case strings.Contains(clause, " = "):
		parts := strings.SplitN(clause, " = ", 2)
		attr := resolve(strings.TrimSpace(parts[0]), names)
		current, ok := item[attr]
		if !ok {
			return false, nil
		}
		return scalar(current) == scalar(values[strings.TrimSpace(parts[1])]), nil
	}
	return false, fmt.Errorf("awstest: unsupported condition %q", clause)
}

func applySet(expr string, item map[string]types.AttributeValue, names map[string]string, values map[string]types.AttributeValue) error {
	if !strings.HasPrefix(expr, "SET ") {
		return fmt.Errorf("awstest: unsupported update %q", expr)
	}
	for _, assign := range strings.Split(strings.TrimPrefix(expr, "SET "), ",") {
		parts := strings.SplitN(assign, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("awstest: bad assignment %q", assign)
		}
		v, ok := values[strings.TrimSpace(parts[1])]
		if !ok {
			return fmt.Errorf("awstest: missing value %q", parts[1])
		}
		item[resolve(strings.TrimSpace(parts[0]), names)] = v
	}
	return nil
}

func resolve(attr string, names map[string]string) string {
	if strings.HasPrefix(attr, "#") {
		if n, ok := names[attr]; ok {
			return n
		}
	}
	return attr
}

func scalar(v types.AttributeValue) string {
	switch t := v.(type) {
	case *types.AttributeValueMemberS:
		return "S:" + t.Value
	case *types.AttributeValueMemberN:
		return "N:" + t.Value
	case *types.AttributeValueMemberBOOL:
		return fmt.Sprintf("B:%t", t.Value)
	}
	return fmt.Sprintf("%T", v)
}

func clone(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	if item == nil {
		return nil
	}
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

func awsString(s string) *string { return &s }
