package config

import "time"

// Config representa a configuração completa do serviço de todos.
//
// Ordem de carga (ver Load): valores padrão, arquivo YAML opcional e por fim
// variáveis de ambiente, que sempre vencem.
type Config struct {
	Service ServiceDetails `yaml:"service"`
	Storage StorageConf    `yaml:"storage"`
	Auth    AuthConf       `yaml:"auth"`
	Cache   CacheConf      `yaml:"cache"`
	Logging LoggingConf    `yaml:"logging"`
	Metrics MetricsConf    `yaml:"metrics"`
}

// ServiceDetails contém os metadados e configurações de runtime do serviço.
type ServiceDetails struct {
	Name    string        `yaml:"name" env:"SERVICE_NAME" envDefault:"fast-todo-service" validate:"required,hostname_rfc1123"`
	Runtime string        `yaml:"runtime" env:"RUNTIME" envDefault:"local" validate:"required,oneof=local lambda"`
	Port    int           `yaml:"port" env:"PORT" envDefault:"8080" validate:"required_if=Runtime local,gte=0,lte=65535"` // Obrigatório apenas se local
	Timeout time.Duration `yaml:"timeout" env:"SERVICE_TIMEOUT" envDefault:"10s" validate:"gt=0"`
	Region  string        `yaml:"region" env:"AWS_REGION" envDefault:"us-east-1" validate:"required"`
}

// StorageConf agrupa tabela e bucket de anexos
type StorageConf struct {
	TableName        string `yaml:"table_name" env:"TODOS_TABLE" envRequired:"true" validate:"required"`
	DynamoDBEndpoint string `yaml:"dynamodb_endpoint" env:"DYNAMODB_ENDPOINT" validate:"omitempty,url"`
	// Offline aponta o DynamoDB para o endpoint local quando nenhum endpoint foi definido
	Offline             bool          `yaml:"offline" env:"IS_OFFLINE"`
	AttachmentBucket    string        `yaml:"attachment_bucket" env:"ATTACHMENT_S3_BUCKET" envRequired:"true" validate:"required"`
	SignedURLExpiration time.Duration `yaml:"signed_url_expiration" env:"SIGNED_URL_EXPIRATION" envDefault:"300s" validate:"gt=0"`
}

// LocalDynamoDBEndpoint é usado quando Offline está ativo
const LocalDynamoDBEndpoint = "http://localhost:8000"

// ResolvedDynamoDBEndpoint devolve o endpoint efetivo ("" usa o padrão do SDK)
func (s StorageConf) ResolvedDynamoDBEndpoint() string {
	if s.DynamoDBEndpoint != "" {
		return s.DynamoDBEndpoint
	}
	if s.Offline {
		return LocalDynamoDBEndpoint
	}
	return ""
}

// AuthConf define de onde vem o segredo de assinatura dos tokens
type AuthConf struct {
	JWTSecret          string `yaml:"jwt_secret" env:"AUTH_JWT_SECRET"`
	JWTSecretID        string `yaml:"jwt_secret_id" env:"AUTH_JWT_SECRET_ID"`
	JWTSecretParameter string `yaml:"jwt_secret_parameter" env:"AUTH_JWT_SECRET_PARAMETER"`
	Issuer             string `yaml:"issuer" env:"AUTH_ISSUER"`
	Audience           string `yaml:"audience" env:"AUTH_AUDIENCE"`
	// InsecureSkipVerify só deve ser usado offline: o token não é verificado
	InsecureSkipVerify bool `yaml:"insecure_skip_verify" env:"AUTH_INSECURE_SKIP_VERIFY"`
	// SecretRefresh relê o segredo periodicamente (rotação)
	SecretRefresh time.Duration `yaml:"secret_refresh" env:"AUTH_SECRET_REFRESH" envDefault:"15m" validate:"gte=0"`
	// RotationQueueURL é a fila SQS com eventos de rotação do segredo (opcional, runtime local)
	RotationQueueURL string `yaml:"rotation_queue_url" env:"AUTH_ROTATION_QUEUE_URL" validate:"omitempty,url"`
}

// CacheConf do cache de listagem. Addr vazio desabilita o cache.
type CacheConf struct {
	Addr     string        `yaml:"addr" env:"CACHE_REDIS_ADDR" validate:"omitempty,hostname_port"`
	Password string        `yaml:"password" env:"CACHE_REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"CACHE_REDIS_DB" validate:"gte=0"`
	TTL      time.Duration `yaml:"ttl" env:"CACHE_TTL" envDefault:"60s" validate:"gt=0"`
}

// Enabled indica se há um Redis configurado
func (c CacheConf) Enabled() bool {
	return c.Addr != ""
}

type LoggingConf struct {
	Enabled bool   `yaml:"enabled" env:"LOG_ENABLED"`
	Level   string `yaml:"level" env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	Format  string `yaml:"format" env:"LOG_FORMAT" envDefault:"json" validate:"oneof=json console"`
}

type MetricsConf struct {
	Datadog DatadogConf `yaml:"datadog"`
}

type DatadogConf struct {
	Enabled   bool   `yaml:"enabled" env:"DD_ENABLED"`
	Addr      string `yaml:"addr" env:"DD_AGENT_HOST" validate:"required_if=Enabled true"`
	Namespace string `yaml:"namespace" env:"DD_NAMESPACE" envDefault:"todo."`
}
