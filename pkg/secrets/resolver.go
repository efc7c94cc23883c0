// Package secrets resolve valores sensíveis a partir do SSM Parameter Store,
// do Secrets Manager ou de um literal.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// DefaultJSONKey é a chave lida quando o segredo é um objeto JSON
const DefaultJSONKey = "jwtSecret"

var ErrClientNotConfigured = errors.New("secrets: aws client not configured")

// Interfaces para abstrair o SDK da AWS (Permite Mocking)
type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

type SecretsClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Source descreve de onde o valor vem. Apenas um campo deve ser preenchido;
// a precedência é SecretID, Parameter, Literal.
type Source struct {
	SecretID  string
	Parameter string
	Literal   string
	// JSONKey é a chave usada quando o segredo é JSON (default: jwtSecret)
	JSONKey string
}

// Resolver busca valores na AWS. Clientes nil tornam a fonte correspondente indisponível.
type Resolver struct {
	ssm     SSMClient
	secrets SecretsClient
}

func NewResolver(ssmClient SSMClient, secretsClient SecretsClient) *Resolver {
	return &Resolver{ssm: ssmClient, secrets: secretsClient}
}

// NewResolverFromConfig cria os clientes reais a partir de uma aws.Config
func NewResolverFromConfig(cfg aws.Config) *Resolver {
	return NewResolver(ssm.NewFromConfig(cfg), secretsmanager.NewFromConfig(cfg))
}

// Resolve devolve o valor da fonte. Fonte vazia devolve "".
func (r *Resolver) Resolve(ctx context.Context, src Source) (string, error) {
	switch {
	case src.SecretID != "":
		raw, err := r.Secret(ctx, src.SecretID)
		if err != nil {
			return "", err
		}
		key := src.JSONKey
		if key == "" {
			key = DefaultJSONKey
		}
		return extractKey(raw, key, src.SecretID)

	case src.Parameter != "":
		return r.Parameter(ctx, src.Parameter)

	default:
		return src.Literal, nil
	}
}

// Parameter lê um parâmetro do SSM (descriptografado)
func (r *Resolver) Parameter(ctx context.Context, name string) (string, error) {
	if r.ssm == nil {
		return "", ErrClientNotConfigured
	}
	out, err := r.ssm.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("erro no SSM GetParameter %s: %w", name, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("parâmetro %s sem valor", name)
	}
	return *out.Parameter.Value, nil
}

// Secret lê o SecretString bruto do Secrets Manager
func (r *Resolver) Secret(ctx context.Context, id string) (string, error) {
	if r.secrets == nil {
		return "", ErrClientNotConfigured
	}
	out, err := r.secrets.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(id),
	})
	if err != nil {
		return "", fmt.Errorf("erro no SecretsManager %s: %w", id, err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("segredo %s não possui SecretString", id)
	}
	return *out.SecretString, nil
}

// extractKey: objeto JSON devolve o campo `key`, qualquer outro conteúdo é usado como está.
func extractKey(raw, key, id string) (string, error) {
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return raw, nil
	}

	val, ok := data[key]
	if !ok {
		return "", fmt.Errorf("segredo %s não contém a chave %s", id, key)
	}
	s, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("chave %s do segredo %s não é string", key, id)
	}
	return s, nil
}
