package observability

import (
	"fmt"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/raywall/fast-todo-service/pkg/config"
	"github.com/raywall/fast-todo-service/pkg/metrics"
)

// DatadogProvider adapta a lib oficial do Datadog para nossa interface.
type DatadogProvider struct {
	client statsd.ClientInterface
}

func (d *DatadogProvider) Count(name string, value float64, tags []string) error {
	return d.client.Count(name, int64(value), tags, 1)
}

func (d *DatadogProvider) Gauge(name string, value float64, tags []string) error {
	return d.client.Gauge(name, value, tags, 1)
}

func (d *DatadogProvider) Histogram(name string, value float64, tags []string) error {
	return d.client.Histogram(name, value, tags, 1)
}

// Close descarrega o buffer do statsd
func (d *DatadogProvider) Close() error {
	return d.client.Close()
}

// SetupMetrics inicializa o provedor correto baseado na configuração.
func SetupMetrics(cfg config.MetricsConf, serviceName string) (metrics.Provider, error) {
	if !cfg.Datadog.Enabled {
		return metrics.Noop{}, nil
	}

	// Configurações do cliente StatsD
	opts := []statsd.Option{
		statsd.WithNamespace(cfg.Datadog.Namespace),
	}
	if serviceName != "" {
		opts = append(opts, statsd.WithTags([]string{"service:" + serviceName}))
	}

	client, err := statsd.New(cfg.Datadog.Addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("falha ao conectar no datadog statsd: %w", err)
	}

	return &DatadogProvider{client: client}, nil
}
