// dyndb/query.go
package dyndb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Query inicia uma Query
func (s *dynamoStore[T]) Query() *QueryBuilder[T] {
	return &QueryBuilder[T]{
		store:       s,
		scanForward: aws.Bool(true),
	}
}

// === MÉTODOS FLUENTES ===

func (qb *QueryBuilder[T]) KeyEqual(key string, value any) *QueryBuilder[T] {
	return qb.andKey(expression.KeyEqual(expression.Key(key), expression.Value(value)))
}

// ScanForward define a ordem pela sort key. false devolve a ordem decrescente.
func (qb *QueryBuilder[T]) ScanForward(forward bool) *QueryBuilder[T] {
	qb.scanForward = &forward
	return qb
}

// ConsistentRead força leitura fortemente consistente (apenas tabela base).
func (qb *QueryBuilder[T]) ConsistentRead() *QueryBuilder[T] {
	qb.consistentRead = aws.Bool(true)
	return qb
}

func (qb *QueryBuilder[T]) andKey(cond expression.KeyConditionBuilder) *QueryBuilder[T] {
	if qb.keyCond == nil {
		qb.keyCond = &cond
	} else {
		tmp := qb.keyCond.And(cond)
		qb.keyCond = &tmp
	}
	return qb
}

// All percorre todas as páginas da consulta. Nunca retorna slice nil em caso de sucesso.
func (qb *QueryBuilder[T]) All(ctx context.Context) ([]T, error) {
	input, err := qb.input()
	if err != nil {
		return nil, err
	}

	result := make([]T, 0)
	for {
		out, err := qb.store.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("dynamostore: query failed: %w", err)
		}

		items, err := unmarshalItems[T](out.Items)
		if err != nil {
			return nil, err
		}
		result = append(result, items...)

		if len(out.LastEvaluatedKey) == 0 {
			return result, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func (qb *QueryBuilder[T]) input() (*dynamodb.QueryInput, error) {
	if qb.keyCond == nil {
		return nil, fmt.Errorf("dynamostore: query requires a key condition")
	}

	expr, err := expression.NewBuilder().WithKeyCondition(*qb.keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("dynamostore: invalid query expression: %w", err)
	}

	return &dynamodb.QueryInput{
		TableName:                 aws.String(qb.store.cfg.TableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          qb.scanForward,
		ConsistentRead:            qb.consistentRead,
	}, nil
}

func unmarshalItems[T any](items []map[string]types.AttributeValue) ([]T, error) {
	result := make([]T, 0, len(items))
	for _, item := range items {
		var t T
		if err := attributevalue.UnmarshalMap(item, &t); err != nil {
			return nil, fmt.Errorf("dynamostore: unmarshal failed: %w", err)
		}
		result = append(result, t)
	}
	return result, nil
}
