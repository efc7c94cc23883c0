// Package repository é o store de registros de todos: a única camada que fala
// com a tabela. Toda operação é endereçada por (userId, todoId); não existe
// caminho de leitura ou escrita que atravesse partições de outro usuário.
package repository

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/smithy-go"
	"github.com/raywall/fast-todo-service/dyndb"
	"github.com/raywall/fast-todo-service/pkg/apperr"
	"github.com/raywall/fast-todo-service/pkg/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	attrUserID  = "userId"
	attrTodoID  = "todoId"
	attrName    = "name"
	attrDueDate = "dueDate"
	attrDone    = "done"

	resourceTodo = "todo"
)

// Config da tabela de todos
type Config struct {
	TableName string
	// DownloadURL deriva attachmentUrl a partir do todoId
	DownloadURL func(todoID string) string
}

// TodoRepository implementa o store de registros sobre dyndb.Store
type TodoRepository struct {
	store       dyndb.Store[models.TodoItem]
	downloadURL func(todoID string) string
	logger      zerolog.Logger
}

// New cria o repositório a partir de um cliente DynamoDB de baixo nível.
func New(client dyndb.DynamoDBClient, cfg Config) (*TodoRepository, error) {
	if cfg.TableName == "" {
		return nil, apperr.Configuration("storage.table", "todos table name is not configured")
	}
	if cfg.DownloadURL == nil {
		return nil, apperr.Configuration("storage.download_url", "attachment url builder is not configured")
	}

	store := dyndb.New(client, dyndb.TableConfig[models.TodoItem]{
		TableName: cfg.TableName,
		HashKey:   attrUserID,
		SortKey:   attrTodoID,
	})

	return &TodoRepository{
		store:       store,
		downloadURL: cfg.DownloadURL,
		logger:      log.With().Str("component", "todo_repository").Logger(),
	}, nil
}

// ListByUser devolve todos os itens do usuário em ordem decrescente de todoId.
// Leitura fortemente consistente; percorre todas as páginas e usuário sem
// itens recebe slice vazio.
func (r *TodoRepository) ListByUser(ctx context.Context, userID string) ([]models.TodoItem, error) {
	items, err := r.store.Query().
		KeyEqual(attrUserID, userID).
		ScanForward(false).
		ConsistentRead().
		All(ctx)
	if err != nil {
		return nil, r.translate("list", userID, "", err)
	}
	return items, nil
}

// Get leitura pontual (consistente)
func (r *TodoRepository) Get(ctx context.Context, userID, todoID string) (*models.TodoItem, error) {
	item, err := r.store.Get(ctx, userID, todoID)
	if err != nil {
		return nil, r.translate("get", userID, todoID, err)
	}
	return item, nil
}

// Create grava o item preenchendo attachmentUrl. A escrita é incondicional:
// quem chama garante que o todoId é novo.
func (r *TodoRepository) Create(ctx context.Context, item models.TodoItem) (models.TodoItem, error) {
	item.AttachmentURL = r.downloadURL(item.TodoID)

	if err := r.store.Put(ctx, item); err != nil {
		return models.TodoItem{}, r.translate("create", item.UserID, item.TodoID, err)
	}
	return item, nil
}

// Update altera name, dueDate e done de um item existente do usuário.
// createdAt nunca entra na expressão. Item ausente vira NotFoundError.
func (r *TodoRepository) Update(ctx context.Context, item models.TodoItem) (models.TodoItem, error) {
	update := expression.
		Set(expression.Name(attrName), expression.Value(item.Name)).
		Set(expression.Name(attrDueDate), expression.Value(item.DueDate)).
		Set(expression.Name(attrDone), expression.Value(item.Done))

	updated, err := r.store.Update(ctx, item.UserID, item.TodoID, update,
		dyndb.WithCondition(existsCondition(item.TodoID)))
	if err != nil {
		return models.TodoItem{}, r.translate("update", item.UserID, item.TodoID, err)
	}
	return *updated, nil
}

// Delete remove o item. Não é idempotente: a segunda chamada retorna NotFoundError.
func (r *TodoRepository) Delete(ctx context.Context, userID, todoID string) error {
	err := r.store.Delete(ctx, userID, todoID, dyndb.WithCondition(existsCondition(todoID)))
	if err != nil {
		return r.translate("delete", userID, todoID, err)
	}
	return nil
}

// a condição só é verdadeira se o item existe sob a chave (userId, todoId)
func existsCondition(todoID string) expression.ConditionBuilder {
	return expression.Name(attrTodoID).Equal(expression.Value(todoID))
}

// códigos de erro da API tratados como indisponibilidade do store
var unavailableCodes = map[string]bool{
	"ThrottlingException":                    true,
	"Throttling":                             true,
	"ProvisionedThroughputExceededException": true,
	"RequestLimitExceeded":                   true,
	"InternalServerError":                    true,
	"ServiceUnavailable":                     true,
}

type failureKind int

const (
	failureUnknown failureKind = iota
	failureUnavailable
	failureRejected
	failureMisconfigured
)

// translate converte erros do dyndb/SDK para a taxonomia do serviço
func (r *TodoRepository) translate(op, userID, todoID string, err error) error {
	if errors.Is(err, dyndb.ErrNotFound) || errors.Is(err, dyndb.ErrConditionFailed) {
		return apperr.NotFound(resourceTodo, todoID)
	}

	switch classify(err) {
	case failureUnavailable:
		r.logger.Warn().
			Err(err).
			Str("op", op).
			Str("user_id", userID).
			Str("todo_id", todoID).
			Msg("store unavailable")
		return apperr.StoreUnavailable(op, err)
	case failureRejected:
		// chave fora dos limites da tabela (ex.: todoId acima de 1024 bytes)
		return &apperr.ValidationError{Field: attrTodoID, Message: "rejected by the store", Err: err}
	case failureMisconfigured:
		r.logger.Error().Err(err).Str("op", op).Msg("todos table not reachable with current configuration")
		return apperr.Configuration("storage.table", err.Error())
	default:
		r.logger.Error().Err(err).Str("op", op).Msg("unexpected store error")
		return fmt.Errorf("todo repository: %s: %w", op, err)
	}
}

// classify separa falhas de infraestrutura (throttling, 5xx, timeout, rede)
// de erros causados pelo pedido ou pela configuração.
func classify(err error) failureKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return failureUnavailable
	}

	// o SDK embrulha o APIError em OperationError: o código decide primeiro
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch code := apiErr.ErrorCode(); {
		case code == "ValidationException":
			return failureRejected
		case code == "ResourceNotFoundException":
			return failureMisconfigured
		case unavailableCodes[code], apiErr.ErrorFault() == smithy.FaultServer:
			return failureUnavailable
		default:
			return failureUnknown
		}
	}

	var opErr *smithy.OperationError
	if errors.As(err, &opErr) {
		return failureUnavailable
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return failureUnavailable
	}
	return failureUnknown
}
