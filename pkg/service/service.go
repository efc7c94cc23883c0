package service

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/raywall/fast-todo-service/pkg/apperr"
	"github.com/raywall/fast-todo-service/pkg/metrics"
	"github.com/raywall/fast-todo-service/pkg/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// MetricPrefix prefixa as métricas de operação (todo.operation, todo.operation.latency)
const MetricPrefix = "todo"

// Repository é o store de registros consumido pelo serviço
type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]models.TodoItem, error)
	Get(ctx context.Context, userID, todoID string) (*models.TodoItem, error)
	Create(ctx context.Context, item models.TodoItem) (models.TodoItem, error)
	Update(ctx context.Context, item models.TodoItem) (models.TodoItem, error)
	Delete(ctx context.Context, userID, todoID string) error
}

// URLIssuer emite URLs pré-assinadas de upload
type URLIssuer interface {
	IssueUploadURL(ctx context.Context, todoID string, ttl time.Duration) (string, error)
}

// ListCache guarda o resultado de ListTodos por usuário. Version é lida antes
// da consulta ao store e Set só grava se nenhuma mutação a avançou.
type ListCache interface {
	Version(ctx context.Context, userID string) (int64, error)
	Get(ctx context.Context, userID string) ([]models.TodoItem, bool, error)
	Set(ctx context.Context, userID string, version int64, items []models.TodoItem) (bool, error)
	Invalidate(ctx context.Context, userID string) error
}

// TodoService centraliza validação, posse e orquestração das dependências.
type TodoService struct {
	valid     *validator.Validate
	repo      Repository
	issuer    URLIssuer
	cache     ListCache
	metrics   *metrics.Recorder
	now       func() time.Time
	newID     func() string
	uploadTTL time.Duration
	logger    zerolog.Logger
}

// Option customiza o TodoService
type Option func(*TodoService)

// WithCache habilita o cache de listagem
func WithCache(c ListCache) Option {
	return func(s *TodoService) { s.cache = c }
}

// WithMetrics define o provider de métricas
func WithMetrics(p metrics.Provider) Option {
	return func(s *TodoService) { s.metrics = metrics.NewRecorder(p, MetricPrefix) }
}

// WithClock substitui o relógio (testes)
func WithClock(now func() time.Time) Option {
	return func(s *TodoService) { s.now = now }
}

// WithIDGenerator substitui o gerador de todoId (testes)
func WithIDGenerator(fn func() string) Option {
	return func(s *TodoService) { s.newID = fn }
}

// WithUploadTTL define a validade das URLs de upload. Zero delega ao TTL do emissor.
func WithUploadTTL(ttl time.Duration) Option {
	return func(s *TodoService) { s.uploadTTL = ttl }
}

// New cria o serviço com validator padrão, cache noop e métricas noop.
func New(repo Repository, issuer URLIssuer, opts ...Option) (*TodoService, error) {
	if repo == nil {
		return nil, apperr.Configuration("service.repository", "repository is required")
	}
	if issuer == nil {
		return nil, apperr.Configuration("service.issuer", "url issuer is required")
	}

	s := &TodoService{
		valid:   newValidator(),
		repo:    repo,
		issuer:  issuer,
		cache:   noopCache{},
		metrics: metrics.NewRecorder(metrics.Noop{}, MetricPrefix),
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
		logger:  log.With().Str("component", "todo_service").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ListTodos devolve os itens do usuário, mais recentes primeiro.
func (s *TodoService) ListTodos(ctx context.Context, userID string) (items []models.TodoItem, err error) {
	defer s.observe("list", time.Now(), &err)

	if err = requireUser(userID); err != nil {
		return nil, err
	}

	version, cacheErr := s.cache.Version(ctx, userID)
	if cacheErr != nil {
		s.logger.Warn().Err(cacheErr).Str("user_id", userID).Msg("list cache version read failed")
	} else {
		cached, hit, getErr := s.cache.Get(ctx, userID)
		if getErr != nil {
			s.logger.Warn().Err(getErr).Str("user_id", userID).Msg("list cache read failed")
		}
		if hit {
			return cached, nil
		}
	}

	items, err = s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	// sem geração confiável não há como preencher com segurança
	if cacheErr == nil {
		stored, setErr := s.cache.Set(ctx, userID, version, items)
		if setErr != nil {
			s.logger.Warn().Err(setErr).Str("user_id", userID).Msg("list cache write failed")
		} else if !stored {
			s.logger.Debug().Str("user_id", userID).Msg("list cache fill skipped: concurrent mutation")
		}
	}
	return items, nil
}

// GetTodo lê um item do próprio usuário
func (s *TodoService) GetTodo(ctx context.Context, userID, todoID string) (item *models.TodoItem, err error) {
	defer s.observe("get", time.Now(), &err)

	if err = requireKeys(userID, todoID); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID, todoID)
}

// CreateTodo valida o pedido, gera o todoId e grava o item.
func (s *TodoService) CreateTodo(ctx context.Context, userID string, req models.CreateTodoRequest) (item models.TodoItem, err error) {
	defer s.observe("create", time.Now(), &err)

	if err = requireUser(userID); err != nil {
		return models.TodoItem{}, err
	}
	req.Normalize()
	if err = s.validate(ctx, req); err != nil {
		return models.TodoItem{}, err
	}

	item, err = s.repo.Create(ctx, models.TodoItem{
		UserID:    userID,
		TodoID:    s.newID(),
		CreatedAt: s.now().UTC().Format(models.CreatedAtLayout),
		Name:      req.Name,
		DueDate:   req.DueDate,
		Done:      false,
	})
	if err != nil {
		return models.TodoItem{}, err
	}

	s.invalidate(ctx, userID)
	s.logger.Debug().Str("user_id", userID).Str("todo_id", item.TodoID).Msg("todo created")
	return item, nil
}

// UpdateTodo aplica name, dueDate e done em um único write condicional
// sob (userId, todoId). createdAt é preservado.
func (s *TodoService) UpdateTodo(ctx context.Context, userID, todoID string, req models.UpdateTodoRequest) (item models.TodoItem, err error) {
	defer s.observe("update", time.Now(), &err)

	if err = requireKeys(userID, todoID); err != nil {
		return models.TodoItem{}, err
	}
	req.Normalize()
	if err = s.validate(ctx, req); err != nil {
		return models.TodoItem{}, err
	}

	item, err = s.repo.Update(ctx, models.TodoItem{
		UserID:  userID,
		TodoID:  todoID,
		Name:    req.Name,
		DueDate: req.DueDate,
		Done:    req.Done,
	})
	if err != nil {
		return models.TodoItem{}, err
	}

	s.invalidate(ctx, userID)
	return item, nil
}

// DeleteTodo remove o item do usuário. Não é idempotente.
func (s *TodoService) DeleteTodo(ctx context.Context, userID, todoID string) (err error) {
	defer s.observe("delete", time.Now(), &err)

	if err = requireKeys(userID, todoID); err != nil {
		return err
	}
	if err = s.repo.Delete(ctx, userID, todoID); err != nil {
		return err
	}

	s.invalidate(ctx, userID)
	return nil
}

// IssueUploadURL emite a URL de upload do anexo. Não verifica a existência
// do todo: a chave do objeto é apenas o todoId.
func (s *TodoService) IssueUploadURL(ctx context.Context, userID, todoID string) (url string, err error) {
	defer s.observe("upload_url", time.Now(), &err)

	if err = requireKeys(userID, todoID); err != nil {
		return "", err
	}
	return s.issuer.IssueUploadURL(ctx, todoID, s.uploadTTL)
}

func (s *TodoService) invalidate(ctx context.Context, userID string) {
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("list cache invalidation failed")
	}
}

// observe emite as métricas da operação. Falha de métrica só gera log.
func (s *TodoService) observe(op string, start time.Time, errp *error) {
	if err := s.metrics.Observe(op, start, *errp); err != nil {
		s.logger.Debug().Err(err).Str("op", op).Msg("metric emit failed")
	}
}

func (s *TodoService) validate(ctx context.Context, req any) error {
	err := s.valid.StructCtx(ctx, req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &apperr.ValidationError{Field: fe.Field(), Message: describe(fe), Err: err}
	}
	return &apperr.ValidationError{Message: err.Error(), Err: err}
}

func requireUser(userID string) error {
	if userID == "" {
		return apperr.Unauthorized("missing user identity", nil)
	}
	return nil
}

func requireKeys(userID, todoID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if todoID == "" {
		return apperr.Validation("todoId", "is required")
	}
	return nil
}

// newValidator usa o nome do campo JSON nas mensagens
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "failed on '" + fe.Tag() + "'"
	}
}

type noopCache struct{}

func (noopCache) Version(context.Context, string) (int64, error)                { return 0, nil }
func (noopCache) Get(context.Context, string) ([]models.TodoItem, bool, error) { return nil, false, nil }
func (noopCache) Set(context.Context, string, int64, []models.TodoItem) (bool, error) {
	return false, nil
}
func (noopCache) Invalidate(context.Context, string) error { return nil }
