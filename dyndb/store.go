// dyndb/store.go
package dyndb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type dynamoStore[T any] struct {
	client DynamoDBClient
	cfg    TableConfig[T]
}

// New cria um store reutilizável
func New[T any](client DynamoDBClient, cfg TableConfig[T]) Store[T] {
	return &dynamoStore[T]{
		client: client,
		cfg:    cfg,
	}
}

// Get item por chave primária
func (s *dynamoStore[T]) Get(ctx context.Context, hashKey, sortKey any) (*T, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.cfg.TableName),
		Key:            s.key(hashKey, sortKey),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamostore: get failed: %w", err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}

	var item T
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("dynamostore: unmarshal failed: %w", err)
	}
	return &item, nil
}

// Put item (upsert, ou condicional com WithCondition)
func (s *dynamoStore[T]) Put(ctx context.Context, item T, opts ...WriteOption) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("dynamostore: marshal failed: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(s.cfg.TableName),
		Item:      av,
	}

	if o := applyWriteOptions(opts); o.condition != nil {
		expr, err := expression.NewBuilder().WithCondition(*o.condition).Build()
		if err != nil {
			return fmt.Errorf("dynamostore: invalid condition: %w", err)
		}
		input.ConditionExpression = expr.Condition()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	if _, err = s.client.PutItem(ctx, input); err != nil {
		return wrapWriteError("put", err)
	}
	return nil
}

// Update aplica uma UpdateExpression sobre o item identificado pelas chaves
func (s *dynamoStore[T]) Update(ctx context.Context, hashKey, sortKey any, update expression.UpdateBuilder, opts ...WriteOption) (*T, error) {
	builder := expression.NewBuilder().WithUpdate(update)
	if o := applyWriteOptions(opts); o.condition != nil {
		builder = builder.WithCondition(*o.condition)
	}

	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("dynamostore: invalid update expression: %w", err)
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.cfg.TableName),
		Key:                       s.key(hashKey, sortKey),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, wrapWriteError("update", err)
	}

	var item T
	if err := attributevalue.UnmarshalMap(out.Attributes, &item); err != nil {
		return nil, fmt.Errorf("dynamostore: unmarshal failed: %w", err)
	}
	return &item, nil
}

// Delete item
func (s *dynamoStore[T]) Delete(ctx context.Context, hashKey, sortKey any, opts ...WriteOption) error {
	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(s.cfg.TableName),
		Key:       s.key(hashKey, sortKey),
	}

	if o := applyWriteOptions(opts); o.condition != nil {
		expr, err := expression.NewBuilder().WithCondition(*o.condition).Build()
		if err != nil {
			return fmt.Errorf("dynamostore: invalid condition: %w", err)
		}
		input.ConditionExpression = expr.Condition()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	if _, err := s.client.DeleteItem(ctx, input); err != nil {
		return wrapWriteError("delete", err)
	}
	return nil
}

func (s *dynamoStore[T]) key(hashKey, sortKey any) map[string]types.AttributeValue {
	key := map[string]types.AttributeValue{
		s.cfg.HashKey: attr(hashKey),
	}
	if s.cfg.SortKey != "" && sortKey != nil {
		key[s.cfg.SortKey] = attr(sortKey)
	}
	return key
}

// wrapWriteError traduz ConditionalCheckFailedException para ErrConditionFailed.
// Demais erros são encapsulados preservando a cadeia original do SDK.
func wrapWriteError(op string, err error) error {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return ErrConditionFailed
	}
	return fmt.Errorf("dynamostore: %s failed: %w", op, err)
}

// attr converte qualquer valor para types.AttributeValue
func attr(v any) types.AttributeValue {
	if v == nil {
		return &types.AttributeValueMemberNULL{Value: true}
	}
	av, err := attributevalue.Marshal(v)
	if err != nil {
		return &types.AttributeValueMemberNULL{Value: true}
	}
	return av
}
