// Package attachment emite URLs pré-assinadas de upload para anexos de todos.
//
// O Issuer depende apenas da configuração (bucket, TTL) e de um Presigner do
// S3; não conhece o store de registros. A chave do objeto é sempre o todoId,
// o que permite derivar a URL de download sem consulta (DownloadURL).
package attachment

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/raywall/fast-todo-service/pkg/apperr"
)

// Presigner interface para Mock (satisfeita por *s3.PresignClient)
type Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Config do emissor
type Config struct {
	Bucket string
	TTL    time.Duration
}

// Issuer gera URLs de upload com validade limitada. Seguro para uso concorrente.
type Issuer struct {
	presigner Presigner
	cfg       Config
}

// New valida a configuração e cria o Issuer.
func New(presigner Presigner, cfg Config) (*Issuer, error) {
	if cfg.Bucket == "" {
		return nil, apperr.Configuration("attachment.bucket", "bucket name is not configured")
	}
	if cfg.TTL <= 0 {
		return nil, apperr.Configuration("attachment.ttl", "signed url expiration must be positive")
	}
	if presigner == nil {
		return nil, apperr.Configuration("attachment.presigner", "s3 presign client is not configured")
	}
	return &Issuer{presigner: presigner, cfg: cfg}, nil
}

// IssueUploadURL devolve uma URL de PUT para o objeto `todoID`, válida por ttl.
// ttl <= 0 usa o TTL configurado. Não verifica se o todo existe.
func (i *Issuer) IssueUploadURL(ctx context.Context, todoID string, ttl time.Duration) (string, error) {
	if todoID == "" {
		return "", apperr.Validation("todoId", "is required")
	}
	if ttl <= 0 {
		ttl = i.cfg.TTL
	}

	req, err := i.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(i.cfg.Bucket),
		Key:    aws.String(todoID),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", apperr.Configuration("attachment.signing", fmt.Sprintf("could not sign upload url: %v", err))
	}
	return req.URL, nil
}

// DownloadURL deriva a URL de um objeto no formato virtual-hosted do S3
func DownloadURL(bucket, todoID string) string {
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", bucket, todoID)
}

// DownloadURLFor fixa o bucket e devolve o derivador usado pelo repositório
func DownloadURLFor(bucket string) func(todoID string) string {
	return func(todoID string) string {
		return DownloadURL(bucket, todoID)
	}
}
