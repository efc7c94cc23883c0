package transport

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/raywall/fast-todo-service/pkg/apperr"
	"github.com/rs/zerolog/log"
)

// LambdaHandler adapta eventos do API Gateway (REST, payload 1.0) para a API
type LambdaHandler struct {
	api    *API
	router *mux.Router
}

// NewLambdaHandler cria uma nova instância do adaptador
func NewLambdaHandler(api *API) *LambdaHandler {
	return &LambdaHandler{api: api, router: NewRouter(api)}
}

// Handle processa a requisição Lambda
func (h *LambdaHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	// 1. Observabilidade (Réplica da lógica do Middleware HTTP)
	start := time.Now()

	corrID := header(req, HeaderCorrelationID)
	if corrID == "" {
		corrID = uuid.NewString()
	}

	logger := log.With().Str("correlation_id", corrID).Logger()
	ctx = logger.WithContext(ctx)
	ctx = context.WithValue(ctx, ContextKeyCorrID, corrID)

	// 2. Roteamento e execução
	resp := h.dispatch(ctx, req)

	logger.Info().
		Str("method", req.HTTPMethod).
		Str("path", req.Path).
		Int("status", resp.StatusCode).
		Int64("latency_ms", time.Since(start).Milliseconds()).
		Msg("lambda request completed")

	// 3. Headers de resposta
	headers := map[string]string{
		HeaderCorrelationID: corrID,
		HeaderLatency:       strconv.FormatInt(time.Since(start).Milliseconds(), 10),
	}
	for k, v := range corsHeaders {
		headers[k] = v
	}
	if resp.Body != nil {
		headers["Content-Type"] = "application/json"
	}

	return events.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    headers,
		Body:       string(resp.Body),
	}, nil
}

func (h *LambdaHandler) dispatch(ctx context.Context, req events.APIGatewayProxyRequest) Response {
	if req.HTTPMethod == http.MethodOptions {
		return Response{StatusCode: http.StatusNoContent}
	}

	op, vars, err := matchRoute(h.router, req.HTTPMethod, req.Path)
	if errors.Is(err, mux.ErrMethodMismatch) {
		return methodNotAllowed(req.HTTPMethod)
	}
	if err != nil {
		return errorResponse(ctx, "", errRouteNotFound)
	}

	// API Gateway já extrai os path parameters; o mux é fallback
	todoID := req.PathParameters["todoId"]
	if todoID == "" {
		todoID = vars["todoId"]
	}

	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return errorResponse(ctx, op, &apperr.ValidationError{Field: "body", Message: "invalid base64 body", Err: err})
		}
		body = decoded
	}

	return h.api.Execute(ctx, Request{
		Op:            op,
		TodoID:        todoID,
		Authorization: header(req, HeaderAuthorization),
		Body:          body,
	})
}

// header busca case-insensitive (o API Gateway não normaliza os nomes)
func header(req events.APIGatewayProxyRequest, name string) string {
	for k, v := range req.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	for k, v := range req.MultiValueHeaders {
		if strings.EqualFold(k, name) && len(v) > 0 {
			return v[0]
		}
	}
	return ""
}
