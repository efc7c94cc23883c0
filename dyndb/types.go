// dyndb/types.go
package dyndb

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

var (
	// ErrNotFound – erro padrão quando o item não existe
	ErrNotFound = errors.New("dyndb: item not found")

	// ErrConditionFailed é retornado quando a ConditionExpression de uma escrita
	// condicional não é satisfeita no momento da escrita.
	ErrConditionFailed = errors.New("dyndb: condition check failed")
)

// DynamoDBClient interface para abstrair o cliente DynamoDB
type DynamoDBClient interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Store — interface principal (genérica)
type Store[T any] interface {
	Get(ctx context.Context, hashKey, sortKey any) (*T, error)
	Put(ctx context.Context, item T, opts ...WriteOption) error
	// Update aplica a UpdateExpression e devolve o item completo após a escrita (ALL_NEW).
	Update(ctx context.Context, hashKey, sortKey any, update expression.UpdateBuilder, opts ...WriteOption) (*T, error)
	Delete(ctx context.Context, hashKey, sortKey any, opts ...WriteOption) error

	Query() *QueryBuilder[T]
}

// TableConfig — configuração da tabela
type TableConfig[T any] struct {
	TableName string `env:"DYNAMODB_TABLE_NAME"`
	HashKey   string `env:"DYNAMODB_HASH_KEY"`
	SortKey   string `env:"DYNAMODB_SORT_KEY"` // opcional
}

// WriteOption customiza Put, Update e Delete.
type WriteOption func(*writeOptions)

type writeOptions struct {
	condition *expression.ConditionBuilder
}

// WithCondition torna a escrita condicional. Se a condição não for satisfeita
// a operação retorna ErrConditionFailed e nada é gravado.
func WithCondition(cond expression.ConditionBuilder) WriteOption {
	return func(o *writeOptions) {
		o.condition = &cond
	}
}

func applyWriteOptions(opts []WriteOption) writeOptions {
	var o writeOptions
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// QueryBuilder — o builder fluente
type QueryBuilder[T any] struct {
	store          *dynamoStore[T]
	keyCond        *expression.KeyConditionBuilder
	scanForward    *bool
	consistentRead *bool
}
