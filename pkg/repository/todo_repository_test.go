package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/raywall/fast-todo-service/dyndb"
	"github.com/raywall/fast-todo-service/pkg/apperr"
	"github.com/raywall/fast-todo-service/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTable = "todos-test"

func newTestRepository(t *testing.T, client *dyndb.MockDynamoClient) *TodoRepository {
	t.Helper()
	repo, err := New(client, Config{
		TableName: testTable,
		DownloadURL: func(todoID string) string {
			return "https://attachments.s3.amazonaws.com/" + todoID
		},
	})
	require.NoError(t, err)
	return repo
}

func marshalItem(t *testing.T, item models.TodoItem) map[string]types.AttributeValue {
	t.Helper()
	av, err := attributevalue.MarshalMap(item)
	require.NoError(t, err)
	return av
}

func names(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

func stringAttr(t *testing.T, m map[string]types.AttributeValue, key string) string {
	t.Helper()
	s, ok := m[key].(*types.AttributeValueMemberS)
	require.True(t, ok, "attribute %s is not a string", key)
	return s.Value
}

func TestNew_Configuration(t *testing.T) {
	_, err := New(&dyndb.MockDynamoClient{}, Config{DownloadURL: func(string) string { return "" }})
	assert.True(t, apperr.IsConfiguration(err))

	_, err = New(&dyndb.MockDynamoClient{}, Config{TableName: testTable})
	assert.True(t, apperr.IsConfiguration(err))
}

func TestListByUser(t *testing.T) {
	t.Run("queries partition descending across pages", func(t *testing.T) {
		calls := 0
		client := &dyndb.MockDynamoClient{
			QueryFn: func(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
				calls++
				assert.Equal(t, testTable, aws.ToString(in.TableName))
				assert.False(t, aws.ToBool(in.ScanIndexForward))
				assert.True(t, aws.ToBool(in.ConsistentRead))
				assert.Contains(t, names(in.ExpressionAttributeNames), "userId")

				if calls == 1 {
					return &dynamodb.QueryOutput{
						Items: []map[string]types.AttributeValue{
							marshalItem(t, models.TodoItem{UserID: "u1", TodoID: "t3", Name: "c"}),
							marshalItem(t, models.TodoItem{UserID: "u1", TodoID: "t2", Name: "b"}),
						},
						LastEvaluatedKey: map[string]types.AttributeValue{
							"userId": &types.AttributeValueMemberS{Value: "u1"},
							"todoId": &types.AttributeValueMemberS{Value: "t2"},
						},
					}, nil
				}
				require.NotNil(t, in.ExclusiveStartKey)
				return &dynamodb.QueryOutput{
					Items: []map[string]types.AttributeValue{
						marshalItem(t, models.TodoItem{UserID: "u1", TodoID: "t1", Name: "a"}),
					},
				}, nil
			},
		}

		items, err := newTestRepository(t, client).ListByUser(context.Background(), "u1")

		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, "t3", items[0].TodoID)
		assert.Equal(t, "t1", items[2].TodoID)
		assert.Equal(t, 2, calls)
	})

	t.Run("empty user gets empty slice", func(t *testing.T) {
		items, err := newTestRepository(t, &dyndb.MockDynamoClient{}).ListByUser(context.Background(), "nobody")

		require.NoError(t, err)
		assert.NotNil(t, items)
		assert.Empty(t, items)
	})

	t.Run("throttling is store unavailable", func(t *testing.T) {
		client := &dyndb.MockDynamoClient{
			QueryFn: func(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
				return nil, &smithy.GenericAPIError{Code: "ProvisionedThroughputExceededException", Message: "slow down"}
			},
		}

		_, err := newTestRepository(t, client).ListByUser(context.Background(), "u1")

		assert.True(t, apperr.IsStoreUnavailable(err))
	})
}

func TestGet(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		client := &dyndb.MockDynamoClient{
			GetItemFn: func(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
				assert.Equal(t, "u1", stringAttr(t, in.Key, "userId"))
				assert.Equal(t, "t1", stringAttr(t, in.Key, "todoId"))
				return &dynamodb.GetItemOutput{
					Item: marshalItem(t, models.TodoItem{UserID: "u1", TodoID: "t1", Name: "Buy milk"}),
				}, nil
			},
		}

		item, err := newTestRepository(t, client).Get(context.Background(), "u1", "t1")

		require.NoError(t, err)
		assert.Equal(t, "Buy milk", item.Name)
	})

	t.Run("absent is not found", func(t *testing.T) {
		_, err := newTestRepository(t, &dyndb.MockDynamoClient{}).Get(context.Background(), "u1", "t1")

		assert.True(t, apperr.IsNotFound(err))
	})
}

func TestCreate_SetsAttachmentURL(t *testing.T) {
	var written map[string]types.AttributeValue
	client := &dyndb.MockDynamoClient{
		PutItemFn: func(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
			written = in.Item
			assert.Nil(t, in.ConditionExpression)
			return &dynamodb.PutItemOutput{}, nil
		},
	}

	item, err := newTestRepository(t, client).Create(context.Background(), models.TodoItem{
		UserID:    "u1",
		TodoID:    "t1",
		CreatedAt: "2024-01-01T00:00:00.000Z",
		Name:      "Buy milk",
	})

	require.NoError(t, err)
	assert.Equal(t, "https://attachments.s3.amazonaws.com/t1", item.AttachmentURL)
	assert.Equal(t, "https://attachments.s3.amazonaws.com/t1", stringAttr(t, written, "attachmentUrl"))
	assert.Equal(t, "u1", stringAttr(t, written, "userId"))
}

func TestUpdate(t *testing.T) {
	t.Run("sets mutable fields only and returns new image", func(t *testing.T) {
		client := &dyndb.MockDynamoClient{
			UpdateItemFn: func(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
				used := names(in.ExpressionAttributeNames)
				assert.ElementsMatch(t, []string{"name", "dueDate", "done", "todoId"}, used)
				assert.NotContains(t, used, "createdAt")
				assert.NotNil(t, in.ConditionExpression)
				assert.Equal(t, types.ReturnValueAllNew, in.ReturnValues)
				assert.Equal(t, "u1", stringAttr(t, in.Key, "userId"))

				return &dynamodb.UpdateItemOutput{
					Attributes: marshalItem(t, models.TodoItem{
						UserID: "u1", TodoID: "t1", CreatedAt: "2024-01-01T00:00:00.000Z",
						Name: "Buy oat milk", Done: true,
					}),
				}, nil
			},
		}

		item, err := newTestRepository(t, client).Update(context.Background(), models.TodoItem{
			UserID: "u1", TodoID: "t1", Name: "Buy oat milk", Done: true,
		})

		require.NoError(t, err)
		assert.Equal(t, "2024-01-01T00:00:00.000Z", item.CreatedAt)
		assert.True(t, item.Done)
	})

	t.Run("condition failure is not found", func(t *testing.T) {
		client := &dyndb.MockDynamoClient{
			UpdateItemFn: func(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
				return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
			},
		}

		_, err := newTestRepository(t, client).Update(context.Background(), models.TodoItem{UserID: "u2", TodoID: "t1", Name: "x"})

		assert.True(t, apperr.IsNotFound(err))
	})
}

func TestDelete(t *testing.T) {
	t.Run("conditional on existence", func(t *testing.T) {
		client := &dyndb.MockDynamoClient{
			DeleteItemFn: func(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
				assert.NotNil(t, in.ConditionExpression)
				assert.Contains(t, names(in.ExpressionAttributeNames), "todoId")
				return &dynamodb.DeleteItemOutput{}, nil
			},
		}

		assert.NoError(t, newTestRepository(t, client).Delete(context.Background(), "u1", "t1"))
	})

	t.Run("condition failure is not found", func(t *testing.T) {
		client := &dyndb.MockDynamoClient{
			DeleteItemFn: func(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
				return nil, &types.ConditionalCheckFailedException{}
			},
		}

		err := newTestRepository(t, client).Delete(context.Background(), "u1", "t1")

		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("timeout is store unavailable", func(t *testing.T) {
		client := &dyndb.MockDynamoClient{
			DeleteItemFn: func(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
				return nil, context.DeadlineExceeded
			},
		}

		err := newTestRepository(t, client).Delete(context.Background(), "u1", "t1")

		assert.True(t, apperr.IsStoreUnavailable(err))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want failureKind
	}{
		{"throttling", &smithy.GenericAPIError{Code: "ThrottlingException"}, failureUnavailable},
		{"provisioned throughput", &smithy.GenericAPIError{Code: "ProvisionedThroughputExceededException"}, failureUnavailable},
		{"request limit", &smithy.GenericAPIError{Code: "RequestLimitExceeded"}, failureUnavailable},
		{"server fault", &smithy.GenericAPIError{Code: "SomethingNew", Fault: smithy.FaultServer}, failureUnavailable},
		{"transport", &smithy.OperationError{ServiceID: "DynamoDB", OperationName: "Query", Err: errors.New("dial tcp")}, failureUnavailable},
		{"canceled", context.Canceled, failureUnavailable},
		{"validation", &smithy.GenericAPIError{Code: "ValidationException", Fault: smithy.FaultClient}, failureRejected},
		{"wrapped validation", &smithy.OperationError{ServiceID: "DynamoDB", OperationName: "DeleteItem",
			Err: &smithy.GenericAPIError{Code: "ValidationException", Fault: smithy.FaultClient}}, failureRejected},
		{"missing table", &types.ResourceNotFoundException{}, failureMisconfigured},
		{"other client fault", &smithy.GenericAPIError{Code: "AccessDeniedException", Fault: smithy.FaultClient}, failureUnknown},
		{"plain error", errors.New("unmarshal failed"), failureUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, classify(tc.err))
		})
	}
}

func TestTranslate_ClientMistakesAreNotOutages(t *testing.T) {
	t.Run("oversized key is validation", func(t *testing.T) {
		client := &dyndb.MockDynamoClient{
			DeleteItemFn: func(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
				return nil, &smithy.GenericAPIError{Code: "ValidationException", Message: "key too large", Fault: smithy.FaultClient}
			},
		}

		err := newTestRepository(t, client).Delete(context.Background(), "u1", "t1")

		assert.True(t, apperr.IsValidation(err))
		assert.False(t, apperr.IsStoreUnavailable(err))
	})

	t.Run("missing table is configuration", func(t *testing.T) {
		client := &dyndb.MockDynamoClient{
			QueryFn: func(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
				return nil, &types.ResourceNotFoundException{Message: aws.String("table not found")}
			},
		}

		_, err := newTestRepository(t, client).ListByUser(context.Background(), "u1")

		assert.True(t, apperr.IsConfiguration(err))
	})
}
