package ddb

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeClient keeps items per table in insertion order and understands the
// small expression subset the repository emits: equality key conditions on
// an index, plain projections, SET updates and key-equality conditions.
// Like DynamoDB, UpdateItem without a condition upserts and DeleteItem
// without a condition succeeds on a missing key.
type fakeClient struct {
	mu       sync.Mutex
	tables   map[string][]map[string]types.AttributeValue
	indexKey map[string]string // index name -> partition attribute
	pageSize int
	failOn   map[string]error // "<Op>:<table>" -> error
	calls    []string
	updates  []*dynamodb.UpdateItemInput
	deletes  []*dynamodb.DeleteItemInput
	queries  []*dynamodb.QueryInput
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		tables: map[string][]map[string]types.AttributeValue{},
		indexKey: map[string]string{
			"UserIdIndex": "userId",
			"TodoIdIndex": "todoId",
		},
		failOn: map[string]error{},
	}
}

func (f *fakeClient) fail(op, table string, err error) {
	f.failOn[op+":"+table] = err
}

func (f *fakeClient) record(op, table string) error {
	f.calls = append(f.calls, op+":"+table)
	return f.failOn[op+":"+table]
}

func (f *fakeClient) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	table := aws.ToString(in.TableName)
	if err := f.record("PutItem", table); err != nil {
		return nil, err
	}
	item := copyItem(in.Item)
	if i := f.find(table, item); i >= 0 {
		f.tables[table][i] = item
	} else {
		f.tables[table] = append(f.tables[table], item)
	}
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeClient) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	table := aws.ToString(in.TableName)
	if err := f.record("UpdateItem", table); err != nil {
		return nil, err
	}
	f.updates = append(f.updates, in)
	i := f.find(table, in.Key)
	if i < 0 {
		if in.ConditionExpression != nil {
			return nil, conditionFailed()
		}
		f.tables[table] = append(f.tables[table], copyItem(in.Key))
		i = len(f.tables[table]) - 1
	}
	clause := strings.TrimSpace(aws.ToString(in.UpdateExpression))
	clause = strings.TrimPrefix(clause, "SET ")
	for _, assignment := range strings.Split(clause, ",") {
		parts := strings.SplitN(strings.TrimSpace(assignment), " = ", 2)
		if len(parts) != 2 {
			continue
		}
		f.tables[table][i][in.ExpressionAttributeNames[parts[0]]] = in.ExpressionAttributeValues[parts[1]]
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeClient) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	table := aws.ToString(in.TableName)
	if err := f.record("DeleteItem", table); err != nil {
		return nil, err
	}
	f.deletes = append(f.deletes, in)
	i := f.find(table, in.Key)
	if i < 0 {
		if in.ConditionExpression != nil {
			return nil, conditionFailed()
		}
		return &dynamodb.DeleteItemOutput{}, nil
	}
	f.tables[table] = append(f.tables[table][:i], f.tables[table][i+1:]...)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeClient) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	table := aws.ToString(in.TableName)
	if err := f.record("Query", table); err != nil {
		return nil, err
	}
	f.queries = append(f.queries, in)

	attr := f.indexKey[aws.ToString(in.IndexName)]
	var want string
	for _, v := range in.ExpressionAttributeValues {
		want = v.(*types.AttributeValueMemberS).Value
	}

	var matched []map[string]types.AttributeValue
	for _, item := range f.tables[table] {
		if s, ok := item[attr].(*types.AttributeValueMemberS); ok && s.Value == want {
			matched = append(matched, project(item, in))
		}
	}

	start := 0
	if n, ok := in.ExclusiveStartKey["offset"].(*types.AttributeValueMemberN); ok {
		start, _ = strconv.Atoi(n.Value)
	}
	out := &dynamodb.QueryOutput{}
	end := len(matched)
	if f.pageSize > 0 && start+f.pageSize < end {
		end = start + f.pageSize
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"offset": &types.AttributeValueMemberN{Value: strconv.Itoa(end)},
		}
	}
	if start < end {
		out.Items = matched[start:end]
	}
	out.Count = int32(len(out.Items))
	return out, nil
}

func conditionFailed() error {
	return &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
}

func (f *fakeClient) find(table string, key map[string]types.AttributeValue) int {
	for i, item := range f.tables[table] {
		if sameString(item["userId"], key["userId"]) && sameString(item["todoId"], key["todoId"]) {
			return i
		}
	}
	return -1
}

func (f *fakeClient) count(table string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tables[table])
}

// conditionOn maps the attribute names and string values referenced by a
// condition expression: {"todoId": "t1", "userId": "u1"} for an ownership check.
func conditionOn(cond *string, names map[string]string, values map[string]types.AttributeValue) map[string]string {
	out := map[string]string{}
	if cond == nil {
		return out
	}
	for _, m := range comparison.FindAllStringSubmatch(aws.ToString(cond), -1) {
		if s, ok := values[m[2]].(*types.AttributeValueMemberS); ok {
			out[names[m[1]]] = s.Value
		}
	}
	return out
}

var comparison = regexp.MustCompile(`(#\w+) = (:\w+)`)

func project(item map[string]types.AttributeValue, in *dynamodb.QueryInput) map[string]types.AttributeValue {
	if in.ProjectionExpression == nil {
		return copyItem(item)
	}
	out := map[string]types.AttributeValue{}
	for _, p := range strings.Split(aws.ToString(in.ProjectionExpression), ",") {
		name := in.ExpressionAttributeNames[strings.TrimSpace(p)]
		if v, ok := item[name]; ok {
			out[name] = v
		}
	}
	return out
}

func sameString(a, b types.AttributeValue) bool {
	as, ok1 := a.(*types.AttributeValueMemberS)
	bs, ok2 := b.(*types.AttributeValueMemberS)
	return ok1 && ok2 && as.Value == bs.Value
}

func copyItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}
