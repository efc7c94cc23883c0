package transport

import (
	"context"
	"strings"

	"github.com/raywall/fast-todo-service/pkg/apperr"
	"github.com/raywall/fast-todo-service/pkg/models"
)

// headerAuthenticator aceita "Bearer <userId>" sem verificar assinatura
type headerAuthenticator struct{}

func (headerAuthenticator) Authenticate(_ context.Context, header string) (string, error) {
	user, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || user == "" {
		return "", apperr.Unauthorized("missing bearer token", nil)
	}
	return user, nil
}

type stubService struct {
	items   map[string]models.TodoItem
	lastReq any
	err     error
}

func newStubService() *stubService {
	return &stubService{items: map[string]models.TodoItem{}}
}

func (s *stubService) key(userID, todoID string) string { return userID + "/" + todoID }

func (s *stubService) ListTodos(_ context.Context, userID string) ([]models.TodoItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	items := []models.TodoItem{}
	for _, it := range s.items {
		if it.UserID == userID {
			items = append(items, it)
		}
	}
	return items, nil
}

func (s *stubService) GetTodo(_ context.Context, userID, todoID string) (*models.TodoItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	it, ok := s.items[s.key(userID, todoID)]
	if !ok {
		return nil, apperr.NotFound("todo", todoID)
	}
	return &it, nil
}

func (s *stubService) CreateTodo(_ context.Context, userID string, req models.CreateTodoRequest) (models.TodoItem, error) {
	s.lastReq = req
	if s.err != nil {
		return models.TodoItem{}, s.err
	}
	if req.Name == "" {
		return models.TodoItem{}, apperr.Validation("name", "is required")
	}
	it := models.TodoItem{UserID: userID, TodoID: "t-1", Name: req.Name, DueDate: req.DueDate, CreatedAt: "2026-01-01T00:00:00.000Z"}
	s.items[s.key(userID, it.TodoID)] = it
	return it, nil
}

func (s *stubService) UpdateTodo(_ context.Context, userID, todoID string, req models.UpdateTodoRequest) (models.TodoItem, error) {
	s.lastReq = req
	if s.err != nil {
		return models.TodoItem{}, s.err
	}
	it, ok := s.items[s.key(userID, todoID)]
	if !ok {
		return models.TodoItem{}, apperr.NotFound("todo", todoID)
	}
	it.Name, it.DueDate, it.Done = req.Name, req.DueDate, req.Done
	s.items[s.key(userID, todoID)] = it
	return it, nil
}

func (s *stubService) DeleteTodo(_ context.Context, userID, todoID string) error {
	if s.err != nil {
		return s.err
	}
	if _, ok := s.items[s.key(userID, todoID)]; !ok {
		return apperr.NotFound("todo", todoID)
	}
	delete(s.items, s.key(userID, todoID))
	return nil
}

func (s *stubService) IssueUploadURL(_ context.Context, _ string, todoID string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "https://bucket.s3.amazonaws.com/" + todoID + "?X-Amz-Signature=abc", nil
}
