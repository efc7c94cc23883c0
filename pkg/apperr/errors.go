// Package apperr define a taxonomia de erros do serviço de todos.
//
// Cada categoria é um tipo concreto, para que as camadas superiores possam
// usar errors.As sem depender de mensagens. Erros de infraestrutura carregam
// a causa original via Unwrap.
package apperr

import (
	"errors"
	"fmt"
)

// UnauthorizedError indica identidade ausente, malformada ou expirada.
type UnauthorizedError struct {
	Reason string
	Err    error
}

func (e *UnauthorizedError) Error() string {
	if e.Reason == "" {
		return "unauthorized"
	}
	return "unauthorized: " + e.Reason
}

func (e *UnauthorizedError) Unwrap() error { return e.Err }

// NotFoundError indica que o registro não existe sob a identidade do
// chamador. Registros de outro usuário caem aqui também, com a mesma mensagem.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ValidationError indica um campo obrigatório ausente ou inválido.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed on '%s': %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// StoreUnavailableError indica falha de infraestrutura do store
// (timeout, throttling, 5xx). Não é retentado dentro do core.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

// ConfigurationError indica configuração ausente ou inválida (bucket, TTL, secrets...).
type ConfigurationError struct {
	Setting string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error on %s: %s", e.Setting, e.Message)
}

// Construtores

func Unauthorized(reason string, err error) error {
	return &UnauthorizedError{Reason: reason, Err: err}
}

func NotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func StoreUnavailable(op string, err error) error {
	return &StoreUnavailableError{Op: op, Err: err}
}

func Configuration(setting, message string) error {
	return &ConfigurationError{Setting: setting, Message: message}
}

// Predicados

func IsUnauthorized(err error) bool {
	var target *UnauthorizedError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsStoreUnavailable(err error) bool {
	var target *StoreUnavailableError
	return errors.As(err, &target)
}

func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// Códigos estáveis expostos no corpo das respostas de erro
const (
	CodeUnauthorized     = "unauthorized"
	CodeNotFound         = "not_found"
	CodeValidation       = "validation_error"
	CodeStoreUnavailable = "store_unavailable"
	CodeConfiguration    = "configuration_error"
	CodeInternal         = "internal_error"
)

// Code classifica o erro em um dos códigos acima.
func Code(err error) string {
	switch {
	case IsUnauthorized(err):
		return CodeUnauthorized
	case IsValidation(err):
		return CodeValidation
	case IsNotFound(err):
		return CodeNotFound
	case IsStoreUnavailable(err):
		return CodeStoreUnavailable
	case IsConfiguration(err):
		return CodeConfiguration
	default:
		return CodeInternal
	}
}
