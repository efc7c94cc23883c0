package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ConfigValidator struct {
	validate *validator.Validate
}

// NewValidator cria uma nova instância do validador
func NewValidator() *ConfigValidator {
	return &ConfigValidator{
		validate: validator.New(),
	}
}

// Validate realiza validações estruturais (tags) e semânticas (lógica)
func (cv *ConfigValidator) Validate(cfg *Config) error {
	// 1. Validação Estrutural (Tags do struct: required, oneof, etc)
	if err := cv.validate.Struct(cfg); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			var errMsgs []string
			for _, e := range validationErrors {
				errMsgs = append(errMsgs, fmt.Sprintf("Campo '%s' falhou na regra '%s'", e.Namespace(), e.Tag()))
			}
			return fmt.Errorf("erros de validação estrutural:\n- %s", strings.Join(errMsgs, "\n- "))
		}
		return fmt.Errorf("erro de validação estrutural: %w", err)
	}

	// 2. Validação Semântica
	if err := cv.validateSemantics(cfg); err != nil {
		return fmt.Errorf("erro de validação semântica: %w", err)
	}

	return nil
}

func (cv *ConfigValidator) validateSemantics(cfg *Config) error {
	// Exatamente uma fonte de segredo, a não ser no modo sem verificação
	sources := 0
	for _, s := range []string{cfg.Auth.JWTSecret, cfg.Auth.JWTSecretID, cfg.Auth.JWTSecretParameter} {
		if s != "" {
			sources++
		}
	}
	if sources > 1 {
		return fmt.Errorf("auth: defina apenas uma fonte de segredo (jwt_secret, jwt_secret_id ou jwt_secret_parameter)")
	}
	if sources == 0 && !cfg.Auth.InsecureSkipVerify {
		return fmt.Errorf("auth: nenhuma fonte de segredo configurada e insecure_skip_verify está desligado")
	}

	// Bucket S3 é usado em endereçamento virtual-hosted: sem pontos nem maiúsculas
	bucket := cfg.Storage.AttachmentBucket
	if strings.Contains(bucket, ".") || strings.ToLower(bucket) != bucket {
		return fmt.Errorf("storage: bucket '%s' não é compatível com endereçamento virtual-hosted", bucket)
	}

	return nil
}
