package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/raywall/fast-todo-service/pkg/apperr"
	"github.com/raywall/fast-todo-service/pkg/auth"
	"github.com/raywall/fast-todo-service/pkg/models"
	"github.com/rs/zerolog/log"
)

const (
	HeaderCorrelationID = "x-correlation-id"
	HeaderLatency       = "x-latency-ms"
	HeaderAuthorization = "Authorization"
	ContextKeyCorrID    = contextKey("correlation_id")

	defaultTimeout = 30 * time.Second
)

type contextKey string

// Operações expostas (também usadas como nome das rotas no mux)
const (
	OpListTodos      = "ListTodos"
	OpCreateTodo     = "CreateTodo"
	OpGetTodo        = "GetTodo"
	OpUpdateTodo     = "UpdateTodo"
	OpDeleteTodo     = "DeleteTodo"
	OpIssueUploadURL = "IssueUploadURL"
)

type route struct {
	method string
	path   string
	op     string
}

var routes = []route{
	{http.MethodGet, "/todos", OpListTodos},
	{http.MethodPost, "/todos", OpCreateTodo},
	{http.MethodGet, "/todos/{todoId}", OpGetTodo},
	{http.MethodPatch, "/todos/{todoId}", OpUpdateTodo},
	{http.MethodDelete, "/todos/{todoId}", OpDeleteTodo},
	{http.MethodPost, "/todos/{todoId}/attachment", OpIssueUploadURL},
}

// CORS aplicado em todas as respostas, inclusive erros
var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":      "*",
	"Access-Control-Allow-Credentials": "true",
}

// TodoService é a fachada consumida pelos handlers
type TodoService interface {
	ListTodos(ctx context.Context, userID string) ([]models.TodoItem, error)
	GetTodo(ctx context.Context, userID, todoID string) (*models.TodoItem, error)
	CreateTodo(ctx context.Context, userID string, req models.CreateTodoRequest) (models.TodoItem, error)
	UpdateTodo(ctx context.Context, userID, todoID string, req models.UpdateTodoRequest) (models.TodoItem, error)
	DeleteTodo(ctx context.Context, userID, todoID string) error
	IssueUploadURL(ctx context.Context, userID, todoID string) (string, error)
}

// API executa as operações independente do runtime (HTTP ou Lambda).
type API struct {
	svc     TodoService
	authn   auth.Authenticator
	timeout time.Duration
}

func NewAPI(svc TodoService, authn auth.Authenticator, timeout time.Duration) *API {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &API{svc: svc, authn: authn, timeout: timeout}
}

// Request é a forma neutra de uma chamada
type Request struct {
	Op            string
	TodoID        string
	Authorization string
	Body          []byte
}

// Response é a forma neutra da resposta (Body nil = sem corpo)
type Response struct {
	StatusCode int
	Body       []byte
}

// Execute autentica, executa a operação e serializa a resposta.
func (a *API) Execute(ctx context.Context, req Request) Response {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	status, payload, err := a.execute(ctx, req)
	if err != nil {
		return errorResponse(ctx, req.Op, err)
	}
	if payload == nil {
		return Response{StatusCode: status}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errorResponse(ctx, req.Op, err)
	}
	return Response{StatusCode: status, Body: body}
}

func (a *API) execute(ctx context.Context, req Request) (int, any, error) {
	userID, err := a.authn.Authenticate(ctx, req.Authorization)
	if err != nil {
		return 0, nil, err
	}

	switch req.Op {
	case OpListTodos:
		items, err := a.svc.ListTodos(ctx, userID)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, models.ListTodosResponse{Items: items}, nil

	case OpCreateTodo:
		var in models.CreateTodoRequest
		if err := decodeBody(req.Body, &in); err != nil {
			return 0, nil, err
		}
		item, err := a.svc.CreateTodo(ctx, userID, in)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusCreated, models.TodoResponse{Item: item}, nil

	case OpGetTodo:
		item, err := a.svc.GetTodo(ctx, userID, req.TodoID)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, models.TodoResponse{Item: *item}, nil

	case OpUpdateTodo:
		var in models.UpdateTodoRequest
		if err := decodeBody(req.Body, &in); err != nil {
			return 0, nil, err
		}
		item, err := a.svc.UpdateTodo(ctx, userID, req.TodoID, in)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, models.TodoResponse{Item: item}, nil

	case OpDeleteTodo:
		if err := a.svc.DeleteTodo(ctx, userID, req.TodoID); err != nil {
			return 0, nil, err
		}
		return http.StatusNoContent, nil, nil

	case OpIssueUploadURL:
		url, err := a.svc.IssueUploadURL(ctx, userID, req.TodoID)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, models.UploadURLResponse{UploadURL: url}, nil
	}

	return 0, nil, errRouteNotFound
}

var errRouteNotFound = errors.New("route not found")

func decodeBody(body []byte, v any) error {
	if len(strings.TrimSpace(string(body))) == 0 {
		return apperr.Validation("body", "request body is required")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &apperr.ValidationError{Field: "body", Message: "malformed JSON", Err: err}
	}
	return nil
}

// StatusFor mapeia a taxonomia de erros para status HTTP
func StatusFor(err error) int {
	if errors.Is(err, errRouteNotFound) {
		return http.StatusNotFound
	}
	switch apperr.Code(err) {
	case apperr.CodeUnauthorized:
		return http.StatusUnauthorized
	case apperr.CodeValidation:
		return http.StatusBadRequest
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorResponse(ctx context.Context, op string, err error) Response {
	status := StatusFor(err)
	code := apperr.Code(err)
	message := err.Error()

	if errors.Is(err, errRouteNotFound) {
		code = apperr.CodeNotFound
	}

	logger := log.Ctx(ctx)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("op", op).Int("status", status).Msg("request failed")
		if code == apperr.CodeInternal || code == apperr.CodeConfiguration {
			// detalhes de infraestrutura não vazam para o cliente
			message = "internal server error"
		}
	} else {
		logger.Debug().Err(err).Str("op", op).Int("status", status).Msg("request rejected")
	}

	body, _ := json.Marshal(models.ErrorResponse{Error: code, Message: message})
	return Response{StatusCode: status, Body: body}
}

// NewRouter registra as rotas no gorilla/mux. O nome de cada rota é a operação.
func NewRouter(api *API) *mux.Router {
	router := mux.NewRouter()
	for _, rt := range routes {
		router.HandleFunc(rt.path, api.httpHandler(rt.op)).Methods(rt.method).Name(rt.op)
	}
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, errorResponse(r.Context(), "", errRouteNotFound))
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, methodNotAllowed(r.Method))
	})
	return router
}

func methodNotAllowed(method string) Response {
	body, _ := json.Marshal(models.ErrorResponse{Error: "method_not_allowed", Message: method + " not allowed"})
	return Response{StatusCode: http.StatusMethodNotAllowed, Body: body}
}

// matchRoute resolve método + path em uma operação usando o mesmo roteador do HTTP
func matchRoute(router *mux.Router, method, path string) (string, map[string]string, error) {
	req, err := http.NewRequest(method, path, nil)
	if err != nil {
		return "", nil, err
	}
	var match mux.RouteMatch
	router.Match(req, &match)
	if match.MatchErr != nil {
		return "", nil, match.MatchErr
	}
	if match.Route == nil {
		return "", nil, mux.ErrNotFound
	}
	return match.Route.GetName(), match.Vars, nil
}
