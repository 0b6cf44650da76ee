package dynamo

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeClient is an in-memory table that understands the key, condition and filter
// expressions issued by Store. Scans return small pages to exercise pagination.
type fakeClient struct {
	mu       sync.Mutex
	items    map[string]map[string]types.AttributeValue
	hasTable bool
	pageSize int
	scans    int
	putErr   error
}

func newFakeClient() *fakeClient {
	return &fakeClient{items: make(map[string]map[string]types.AttributeValue), hasTable: true, pageSize: 2}
}

func (f *fakeClient) GetItem(
	_ context.Context,
	in *dynamodb.GetItemInput,
	_ ...func(*dynamodb.Options),
) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: f.items[str(in.Key[attrID])]}, nil
}

func (f *fakeClient) PutItem(
	_ context.Context,
	in *dynamodb.PutItemInput,
	_ ...func(*dynamodb.Options),
) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return nil, f.putErr
	}

	id := str(in.Item[attrID])
	current, exists := f.items[id]
	switch aws.ToString(in.ConditionExpression) {
	case conditionNew:
		if exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("exists")}
		}
	case conditionVersion:
		expected := in.ExpressionAttributeValues[":expected"].(*types.AttributeValueMemberN).Value
		if !exists || current[attrVersion].(*types.AttributeValueMemberN).Value != expected {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("version")}
		}
	}
	f.items[id] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeClient) Scan(
	_ context.Context,
	in *dynamodb.ScanInput,
	_ ...func(*dynamodb.Options),
) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans++

	keys := make([]string, 0, len(f.items))
	for k := range f.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	start := 0
	if in.ExclusiveStartKey != nil {
		last := str(in.ExclusiveStartKey[attrID])
		start = sort.SearchStrings(keys, last) + 1
	}

	end := min(start+f.pageSize, len(keys))
	out := &dynamodb.ScanOutput{}
	for _, k := range keys[start:end] {
		if f.matches(in, f.items[k]) {
			out.Items = append(out.Items, f.items[k])
		}
	}
	if end < len(keys) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{attrID: f.items[keys[end-1]][attrID]}
	}
	return out, nil
}

func (f *fakeClient) matches(in *dynamodb.ScanInput, item map[string]types.AttributeValue) bool {
	values := in.ExpressionAttributeValues
	switch aws.ToString(in.FilterExpression) {
	case "":
		return true
	case filterByUser:
		return str(item[attrUserID]) == str(values[":user_id"])
	case filterByID:
		return strings.Contains(str(item[attrSearchKey]), str(values[":query"]))
	case filterByPending:
		return str(item[attrStatus]) == str(values[":status"]) &&
			str(item[attrCreatedAt]) < str(values[":cutoff"])
	}
	panic("unsupported filter " + aws.ToString(in.FilterExpression))
}

func (f *fakeClient) DescribeTable(
	_ context.Context,
	in *dynamodb.DescribeTableInput,
	_ ...func(*dynamodb.Options),
) (*dynamodb.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.hasTable {
		return nil, &types.ResourceNotFoundException{Message: aws.String("no table")}
	}
	return &dynamodb.DescribeTableOutput{Table: &types.TableDescription{
		TableName:   in.TableName,
		TableStatus: types.TableStatusActive,
	}}, nil
}

func (f *fakeClient) CreateTable(
	_ context.Context,
	in *dynamodb.CreateTableInput,
	_ ...func(*dynamodb.Options),
) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hasTable {
		return nil, &types.ResourceInUseException{Message: aws.String("exists")}
	}
	if len(in.KeySchema) != 1 || aws.ToString(in.KeySchema[0].AttributeName) != attrID {
		return nil, errors.New("unexpected key schema")
	}
	f.hasTable = true
	return &dynamodb.CreateTableOutput{}, nil
}

func str(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}
