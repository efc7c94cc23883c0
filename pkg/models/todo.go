// pkg/models/todo.go
package models

import "strings"

// CreatedAtLayout é o formato ISO-8601 (UTC, milissegundos) usado em createdAt.
const CreatedAtLayout = "2006-01-02T15:04:05.000Z07:00"

// TodoItem é a única entidade persistida. Chave: userId (partition) + todoId (sort).
type TodoItem struct {
	UserID        string `json:"userId" dynamodbav:"userId"`
	TodoID        string `json:"todoId" dynamodbav:"todoId"`
	CreatedAt     string `json:"createdAt" dynamodbav:"createdAt"`
	Name          string `json:"name" dynamodbav:"name"`
	DueDate       string `json:"dueDate" dynamodbav:"dueDate"`
	Done          bool   `json:"done" dynamodbav:"done"`
	AttachmentURL string `json:"attachmentUrl,omitempty" dynamodbav:"attachmentUrl,omitempty"`
}

// CreateTodoRequest é o corpo aceito na criação
type CreateTodoRequest struct {
	Name    string `json:"name" validate:"required,max=256"`
	DueDate string `json:"dueDate,omitempty" validate:"omitempty,max=64"`
}

// Normalize remove espaços das bordas antes da validação
func (r *CreateTodoRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.DueDate = strings.TrimSpace(r.DueDate)
}

// UpdateTodoRequest é o corpo aceito na atualização
type UpdateTodoRequest struct {
	Name    string `json:"name" validate:"required,max=256"`
	DueDate string `json:"dueDate" validate:"max=64"`
	Done    bool   `json:"done"`
}

// Normalize remove espaços das bordas antes da validação
func (r *UpdateTodoRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.DueDate = strings.TrimSpace(r.DueDate)
}

// Envelopes de resposta

type ListTodosResponse struct {
	Items []TodoItem `json:"items"`
}

type TodoResponse struct {
	Item TodoItem `json:"item"`
}

type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
