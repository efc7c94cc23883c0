package transport

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SQSClient define a interface necessária para o reloader (permite Mocking)
type SQSClient interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Reloader é quem reage ao evento (ex: auth.KeyManager relendo o segredo rotacionado)
type Reloader interface {
	Reload(ctx context.Context) error
}

// SQSReloader escuta uma fila que recebe eventos de rotação do segredo de
// assinatura (Secrets Manager -> EventBridge -> SQS) e recarrega a chave.
// Só faz sentido no runtime local/container; na Lambda o refresh periódico
// do KeyManager cobre a rotação.
type SQSReloader struct {
	client     SQSClient
	queueUrl   string
	reloader   Reloader
	retryDelay time.Duration
	logger     zerolog.Logger
}

// NewSQSReloader cria uma nova instância do reloader
func NewSQSReloader(client SQSClient, queueUrl string, reloader Reloader) *SQSReloader {
	return &SQSReloader{
		client:     client,
		queueUrl:   queueUrl,
		reloader:   reloader,
		retryDelay: 5 * time.Second,
		logger:     log.With().Str("component", "sqs_reloader").Logger(),
	}
}

// Start inicia o monitoramento (bloqueante até o ctx ser cancelado)
func (s *SQSReloader) Start(ctx context.Context) {
	if s.queueUrl == "" {
		s.logger.Warn().Msg("URL da fila SQS não configurada. Rotação por evento desativada.")
		return
	}

	s.logger.Info().Str("queue", s.queueUrl).Msg("monitorando fila SQS de rotação de segredo")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("parando monitoramento SQS")
			return
		default:
		}

		out, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(s.queueUrl),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20, // Long polling
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Error().Err(err).Dur("retry_in", s.retryDelay).Msg("erro no SQS")
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.retryDelay):
			}
			continue
		}

		if len(out.Messages) == 0 {
			continue
		}

		// Várias mensagens no mesmo lote resultam em um único reload
		s.logger.Info().Int("messages", len(out.Messages)).Msg("evento de rotação recebido")
		if err := s.reloader.Reload(ctx); err != nil {
			// mensagens ficam na fila e voltam após o visibility timeout
			s.logger.Error().Err(err).Msg("falha ao recarregar chave de assinatura")
			continue
		}
		s.logger.Info().Msg("chave de assinatura recarregada")

		for _, msg := range out.Messages {
			if _, err := s.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
				QueueUrl:      aws.String(s.queueUrl),
				ReceiptHandle: msg.ReceiptHandle,
			}); err != nil {
				s.logger.Warn().Err(err).Msg("falha ao remover mensagem da fila")
			}
		}
	}
}
