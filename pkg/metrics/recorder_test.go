package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockProvider para verificar chamadas
type MockProvider struct {
	Calls []string
	Tags  [][]string
	Err   error
}

func (m *MockProvider) Count(name string, val float64, tags []string) error {
	m.Calls = append(m.Calls, "count:"+name)
	m.Tags = append(m.Tags, tags)
	return m.Err
}

func (m *MockProvider) Gauge(name string, val float64, tags []string) error {
	m.Calls = append(m.Calls, "gauge:"+name)
	return m.Err
}

func (m *MockProvider) Histogram(name string, val float64, tags []string) error {
	m.Calls = append(m.Calls, "histogram:"+name)
	m.Tags = append(m.Tags, tags)
	return m.Err
}

func TestRecorder_Observe(t *testing.T) {
	t.Run("Deve registrar contagem e latência com tags", func(t *testing.T) {
		provider := &MockProvider{}
		rec := NewRecorder(provider, "todo")

		require.NoError(t, rec.Observe("create", time.Now(), nil))

		assert.Equal(t, []string{"count:todo.operation", "histogram:todo.operation.latency"}, provider.Calls)
		assert.Equal(t, []string{"op:create", "result:ok"}, provider.Tags[0])
	})

	t.Run("Resultado de erro", func(t *testing.T) {
		provider := &MockProvider{}
		rec := NewRecorder(provider, "todo")

		require.NoError(t, rec.Observe("delete", time.Now(), errors.New("not found")))

		assert.Equal(t, []string{"op:delete", "result:error"}, provider.Tags[0])
	})

	t.Run("Falha do provider é retornada", func(t *testing.T) {
		rec := NewRecorder(&MockProvider{Err: errors.New("udp closed")}, "todo")

		err := rec.Observe("list", time.Now(), nil)

		assert.ErrorContains(t, err, "todo.operation")
	})

	t.Run("Provider nil vira Noop", func(t *testing.T) {
		rec := NewRecorder(nil, "todo")

		assert.NoError(t, rec.Observe("list", time.Now(), nil))
		assert.Equal(t, "todo.operation", rec.CountName())
		assert.Equal(t, "todo.operation.latency", rec.LatencyName())
	})
}
