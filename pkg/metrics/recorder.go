package metrics

import (
	"errors"
	"fmt"
	"time"
)

// Recorder emite as métricas padronizadas de cada operação do serviço:
// uma contagem e um histograma de latência, ambos com as tags op e result.
type Recorder struct {
	count    MetricDefinition
	latency  MetricDefinition
	provider Provider
}

// NewRecorder cria um Recorder com nomes derivados do prefixo
// (ex: "todo" -> "todo.operation" e "todo.operation.latency").
func NewRecorder(provider Provider, prefix string) *Recorder {
	if provider == nil {
		provider = Noop{}
	}
	return &Recorder{
		count:    MetricDefinition{Name: prefix + ".operation", Type: TypeCount},
		latency:  MetricDefinition{Name: prefix + ".operation.latency", Type: TypeHistogram},
		provider: provider,
	}
}

// CountName é o nome da métrica de contagem
func (r *Recorder) CountName() string { return r.count.Name }

// LatencyName é o nome do histograma de latência
func (r *Recorder) LatencyName() string { return r.latency.Name }

// Observe registra o resultado de uma operação iniciada em start.
func (r *Recorder) Observe(op string, start time.Time, opErr error) error {
	result := "ok"
	if opErr != nil {
		result = "error"
	}
	tags := []string{"op:" + op, "result:" + result}
	elapsedMs := float64(time.Since(start).Microseconds()) / 1000

	return errors.Join(
		r.send(r.count, 1, tags),
		r.send(r.latency, elapsedMs, tags),
	)
}

func (r *Recorder) send(def MetricDefinition, val float64, tags []string) error {
	var err error
	switch def.Type {
	case TypeCount:
		err = r.provider.Count(def.Name, val, tags)
	case TypeGauge:
		err = r.provider.Gauge(def.Name, val, tags)
	case TypeHistogram:
		err = r.provider.Histogram(def.Name, val, tags)
	default:
		return fmt.Errorf("tipo de métrica desconhecido: %s", def.Type)
	}
	if err != nil {
		return fmt.Errorf("erro ao enviar métrica %s: %w", def.Name, err)
	}
	return nil
}
