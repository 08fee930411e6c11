// Package ddb implements the repository interface using AWS DynamoDB.
// This is the only layer that should have knowledge of DynamoDB specifics.
package ddb

import (
	"context"
	"errors"
	"fmt"

	"todo-backend/internal/domain"
	"todo-backend/internal/repository"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

const todoResource = "todo"

// ddbTodo represents the structure of a todo item in DynamoDB.
// AttachmentURL is stored as NULL until the attach step runs.
type ddbTodo struct {
	UserID        string  `dynamodbav:"userId"`
	TodoID        string  `dynamodbav:"todoId"`
	CreatedAt     string  `dynamodbav:"createdAt"`
	Name          string  `dynamodbav:"name"`
	DueDate       string  `dynamodbav:"dueDate"`
	Done          bool    `dynamodbav:"done"`
	AttachmentURL *string `dynamodbav:"attachmentUrl"`
}

func toItem(t domain.Todo) ddbTodo {
	return ddbTodo{
		UserID:        t.UserID,
		TodoID:        t.TodoID,
		CreatedAt:     t.CreatedAt,
		Name:          t.Name,
		DueDate:       t.DueDate,
		Done:          t.Done,
		AttachmentURL: t.AttachmentURL,
	}
}

func (d ddbTodo) toDomain() domain.Todo {
	return domain.Todo{
		UserID:        d.UserID,
		TodoID:        d.TodoID,
		CreatedAt:     d.CreatedAt,
		Name:          d.Name,
		DueDate:       d.DueDate,
		Done:          d.Done,
		AttachmentURL: d.AttachmentURL,
	}
}

// ddbRepository is the concrete implementation for DynamoDB.
type ddbRepository struct {
	dbClient DBClient
	config   repository.Config
	logger   *zap.Logger
}

// NewRepository creates a new instance of the DynamoDB repository.
// The config is defaulted and validated before use.
func NewRepository(dbClient DBClient, config repository.Config, logger *zap.Logger) (repository.TodoRepository, error) {
	config = config.WithDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid repository config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ddbRepository{
		dbClient: dbClient,
		config:   config,
		logger:   logger.Named("ddb"),
	}, nil
}

// ListByOwner queries the owner index and follows every page.
func (r *ddbRepository) ListByOwner(ctx context.Context, userID string) ([]domain.Todo, error) {
	keyCond := expression.Key("userId").Equal(expression.Value(userID))
	proj := expression.NamesList(
		expression.Name("todoId"),
		expression.Name("createdAt"),
		expression.Name("name"),
		expression.Name("dueDate"),
		expression.Name("done"),
		expression.Name("attachmentUrl"),
	)
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).WithProjection(proj).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build list expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.config.TableName),
		IndexName:                 aws.String(r.config.UserIndexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	todos := []domain.Todo{}
	paginator := dynamodb.NewQueryPaginator(r.dbClient, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query todos for user %s: %w", userID, err)
		}
		var items []ddbTodo
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal todos: %w", err)
		}
		for _, item := range items {
			todos = append(todos, item.toDomain())
		}
	}

	r.logger.Debug("listed todos", zap.String("user_id", userID), zap.Int("count", len(todos)))
	return todos, nil
}

// Create puts the todo into every configured table, in order.
func (r *ddbRepository) Create(ctx context.Context, todo domain.Todo) (domain.Todo, error) {
	item, err := attributevalue.MarshalMap(toItem(todo))
	if err != nil {
		return domain.Todo{}, fmt.Errorf("failed to marshal todo: %w", err)
	}

	err = r.eachTable("create", todo.TodoID, func(table string) error {
		_, err := r.dbClient.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(table),
			Item:      item,
		})
		return err
	})
	if err != nil {
		return domain.Todo{}, err
	}

	r.logger.Info("created todo", zap.String("todo_id", todo.TodoID), zap.String("user_id", todo.UserID))
	return todo, nil
}

// Update sets the fields present in update on a todo matching both ids.
func (r *ddbRepository) Update(ctx context.Context, update domain.TodoUpdate, todoID, userID string) error {
	if update.IsEmpty() {
		return fmt.Errorf("update of todo %s has no fields", todoID)
	}

	var set expression.UpdateBuilder
	if update.Name != nil {
		set = set.Set(expression.Name("name"), expression.Value(*update.Name))
	}
	if update.DueDate != nil {
		set = set.Set(expression.Name("dueDate"), expression.Value(*update.DueDate))
	}
	if update.Done != nil {
		set = set.Set(expression.Name("done"), expression.Value(*update.Done))
	}

	err := r.updateOwned(ctx, "update", set, todoID, userID)
	if err != nil {
		return err
	}

	r.logger.Info("updated todo", zap.String("todo_id", todoID), zap.String("user_id", userID))
	return nil
}

// AttachURL resolves the owner through the todo index, then updates the
// record keyed by that owner.
func (r *ddbRepository) AttachURL(ctx context.Context, url, todoID string) error {
	userID, err := r.resolveOwner(ctx, todoID)
	if err != nil {
		return err
	}

	set := expression.Set(expression.Name("attachmentUrl"), expression.Value(url))
	if err := r.updateOwned(ctx, "attach", set, todoID, userID); err != nil {
		return err
	}

	r.logger.Info("attached url", zap.String("todo_id", todoID), zap.String("user_id", userID), zap.String("url", url))
	return nil
}

// DeleteByKey removes the todo from every configured table.
func (r *ddbRepository) DeleteByKey(ctx context.Context, todoID, userID string) error {
	expr, err := expression.NewBuilder().WithCondition(ownedBy(todoID, userID)).Build()
	if err != nil {
		return fmt.Errorf("failed to build delete expression: %w", err)
	}

	err = r.eachTable("delete", todoID, func(table string) error {
		_, err := r.dbClient.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName:                 aws.String(table),
			Key:                       key(todoID, userID),
			ConditionExpression:       expr.Condition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		})
		return r.notFoundOnCondition(err, todoID, userID)
	})
	if err != nil {
		return err
	}

	r.logger.Info("deleted todo", zap.String("todo_id", todoID), zap.String("user_id", userID))
	return nil
}

func (r *ddbRepository) updateOwned(ctx context.Context, op string, set expression.UpdateBuilder, todoID, userID string) error {
	expr, err := expression.NewBuilder().
		WithUpdate(set).
		WithCondition(ownedBy(todoID, userID)).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build %s expression: %w", op, err)
	}

	return r.eachTable(op, todoID, func(table string) error {
		_, err := r.dbClient.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:                 aws.String(table),
			Key:                       key(todoID, userID),
			UpdateExpression:          expr.Update(),
			ConditionExpression:       expr.Condition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		})
		return r.notFoundOnCondition(err, todoID, userID)
	})
}

// resolveOwner returns the single userId that owns todoID.
func (r *ddbRepository) resolveOwner(ctx context.Context, todoID string) (string, error) {
	keyCond := expression.Key("todoId").Equal(expression.Value(todoID))
	proj := expression.NamesList(expression.Name("userId"))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).WithProjection(proj).Build()
	if err != nil {
		return "", fmt.Errorf("failed to build owner lookup expression: %w", err)
	}

	// Two owners are enough to refuse the attach.
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.config.TableName),
		IndexName:                 aws.String(r.config.TodoIndexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(2),
	}

	var first string
	owners := map[string]struct{}{}
	paginator := dynamodb.NewQueryPaginator(r.dbClient, input)
	for paginator.HasMorePages() && len(owners) < 2 {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to look up owner of todo %s: %w", todoID, err)
		}
		var items []ddbTodo
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return "", fmt.Errorf("failed to unmarshal owner lookup: %w", err)
		}
		for _, item := range items {
			if first == "" {
				first = item.UserID
			}
			owners[item.UserID] = struct{}{}
		}
	}

	switch len(owners) {
	case 0:
		return "", repository.NewNotFound(todoResource, todoID)
	case 1:
		return first, nil
	default:
		r.logger.Warn("todo id shared by several owners", zap.String("todo_id", todoID), zap.Int("owners", len(owners)))
		return "", repository.NewConflict(todoResource, todoID, fmt.Sprintf("owned by %d users", len(owners)))
	}
}

// eachTable applies fn to every configured table in order and stops at the
// first failure. Earlier successful writes stay in place.
func (r *ddbRepository) eachTable(op, todoID string, fn func(table string) error) error {
	tables := r.config.Tables()
	for i, table := range tables {
		if err := fn(table); err != nil {
			if i > 0 {
				fields := []zap.Field{
					zap.String("op", op),
					zap.String("todo_id", todoID),
					zap.String("primary_table", tables[0]),
					zap.String("table", table),
					zap.Bool("primary_applied", true),
					zap.Error(err),
				}
				if repository.IsNotFound(err) {
					r.logger.Warn("mirror record missing; primary write applied", fields...)
				} else {
					r.logger.Warn("dual write failed after primary succeeded; tables have diverged", fields...)
				}
			}
			if repository.IsNotFound(err) {
				return err
			}
			return fmt.Errorf("%s on table %s failed: %w", op, table, err)
		}
	}
	return nil
}

func (r *ddbRepository) notFoundOnCondition(err error, todoID, userID string) error {
	if err == nil {
		return nil
	}
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return repository.NewNotFoundWithUser(todoResource, todoID, userID)
	}
	return err
}

func ownedBy(todoID, userID string) expression.ConditionBuilder {
	return expression.Name("todoId").Equal(expression.Value(todoID)).
		And(expression.Name("userId").Equal(expression.Value(userID)))
}

func key(todoID, userID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: userID},
		"todoId": &types.AttributeValueMemberS{Value: todoID},
	}
}
