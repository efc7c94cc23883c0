package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"
	"github.com/raywall/fast-todo-service/pkg/attachment"
	"github.com/raywall/fast-todo-service/pkg/auth"
	"github.com/raywall/fast-todo-service/pkg/cache"
	"github.com/raywall/fast-todo-service/pkg/config"
	"github.com/raywall/fast-todo-service/pkg/config/injector"
	"github.com/raywall/fast-todo-service/pkg/logger"
	"github.com/raywall/fast-todo-service/pkg/observability"
	"github.com/raywall/fast-todo-service/pkg/repository"
	"github.com/raywall/fast-todo-service/pkg/secrets"
	"github.com/raywall/fast-todo-service/pkg/service"
	"github.com/raywall/fast-todo-service/pkg/transport"
	"github.com/rs/zerolog/log"
)

var (
	// Variáveis injetáveis para mocking
	serverStarter = transport.StartHTTPServer
	lambdaStarter = func(h *transport.LambdaHandler) { lambda.Start(h.Handle) }
	awsLoader     = func(ctx context.Context, region string) (aws.Config, error) {
		return awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	}
)

func main() {
	// .env é opcional (execução local); variáveis já definidas não são sobrescritas
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("Falha ao ler .env")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("FATAL: configuração inválida")
	}

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("FATAL")
	}
}

// app agrupa as dependências montadas no boot
type app struct {
	api     *transport.API
	keys    *auth.KeyManager
	sqs     transport.SQSClient
	closers []func() error
}

func (a *app) close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			log.Warn().Err(err).Msg("Falha ao liberar recurso")
		}
	}
	if a.keys != nil {
		a.keys.Stop()
	}
}

// run contém a lógica principal testável
func run(ctx context.Context, cfg *config.Config) error {
	logger.Configure(cfg.Logging, cfg.Service.Name)

	a, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	// Seleciona Runtime Strategy
	switch cfg.Service.Runtime {
	case "local":
		if cfg.Auth.RotationQueueURL != "" && a.keys != nil {
			go transport.NewSQSReloader(a.sqs, cfg.Auth.RotationQueueURL, a.keys).Start(ctx)
		}
		return serverStarter(ctx, transport.NewHTTPServer(a.api, cfg.Service.Port))
	case "lambda":
		lambdaStarter(transport.NewLambdaHandler(a.api))
		return nil
	default:
		return fmt.Errorf("runtime desconhecido: %s", cfg.Service.Runtime)
	}
}

func build(ctx context.Context, cfg *config.Config) (*app, error) {
	awsCfg, err := awsLoader(ctx, cfg.Service.Region)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	// ${ssm:...}, ${secret:...} e ${env:...} nos valores carregados
	resolver := secrets.NewResolverFromConfig(awsCfg)
	if err := injector.New(resolver).Inject(ctx, cfg); err != nil {
		return nil, fmt.Errorf("config injection: %w", err)
	}

	a := &app{sqs: sqs.NewFromConfig(awsCfg)}

	// Autenticação
	var keys auth.KeySource
	if !cfg.Auth.InsecureSkipVerify {
		src := secrets.Source{
			SecretID:  cfg.Auth.JWTSecretID,
			Parameter: cfg.Auth.JWTSecretParameter,
			Literal:   cfg.Auth.JWTSecret,
		}
		a.keys = auth.NewKeyManager(auth.NewSecretFetcher(resolver, src, cfg.Auth.SecretRefresh))
		if err := a.keys.Start(ctx); err != nil {
			return nil, err
		}
		keys = a.keys
	} else {
		log.Warn().Msg("AUTH_INSECURE_SKIP_VERIFY ativo: tokens não são verificados")
	}

	authn, err := auth.NewJWTAuthenticator(keys, auth.JWTConfig{
		Issuer:             cfg.Auth.Issuer,
		Audience:           cfg.Auth.Audience,
		InsecureSkipVerify: cfg.Auth.InsecureSkipVerify,
	})
	if err != nil {
		a.close()
		return nil, err
	}

	// Persistência (o core não faz retry: falhas viram StoreUnavailable)
	ddb := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		o.RetryMaxAttempts = 1
		if endpoint := cfg.Storage.ResolvedDynamoDBEndpoint(); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	repo, err := repository.New(ddb, repository.Config{
		TableName:   cfg.Storage.TableName,
		DownloadURL: attachment.DownloadURLFor(cfg.Storage.AttachmentBucket),
	})
	if err != nil {
		a.close()
		return nil, err
	}

	presigner := s3.NewPresignClient(s3.NewFromConfig(awsCfg))
	issuer, err := attachment.New(presigner, attachment.Config{
		Bucket: cfg.Storage.AttachmentBucket,
		TTL:    cfg.Storage.SignedURLExpiration,
	})
	if err != nil {
		a.close()
		return nil, err
	}

	// Observabilidade
	provider, err := observability.SetupMetrics(cfg.Metrics, cfg.Service.Name)
	if err != nil {
		a.close()
		return nil, err
	}
	if dd, ok := provider.(*observability.DatadogProvider); ok {
		a.closers = append(a.closers, dd.Close)
	}

	opts := []service.Option{
		service.WithMetrics(provider),
		service.WithUploadTTL(cfg.Storage.SignedURLExpiration),
	}

	// Cache de listagem (opcional)
	if cfg.Cache.Enabled() {
		listCache, client := cache.NewRedisListCache(cache.Options{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
			TTL:      cfg.Cache.TTL,
		})
		a.closers = append(a.closers, client.Close)
		if err := listCache.Ping(ctx); err != nil {
			// cache é best-effort: o serviço sobe mesmo sem Redis
			log.Warn().Err(err).Str("addr", cfg.Cache.Addr).Msg("Redis indisponível no boot")
		}
		opts = append(opts, service.WithCache(listCache))
	}

	svc, err := service.New(repo, issuer, opts...)
	if err != nil {
		a.close()
		return nil, err
	}

	a.api = transport.NewAPI(svc, authn, cfg.Service.Timeout)
	return a, nil
}
