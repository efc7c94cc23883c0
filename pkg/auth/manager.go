package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/raywall/fast-todo-service/pkg/secrets"
	"github.com/rs/zerolog/log"
)

// KeyFetcher define a função que sabe como buscar a chave de assinatura atual.
// O TTL devolvido controla quando a próxima busca acontece (0 = fallback).
type KeyFetcher func(ctx context.Context) ([]byte, time.Duration, error)

// SecretResolver é a parte do secrets.Resolver usada aqui
type SecretResolver interface {
	Resolve(ctx context.Context, src secrets.Source) (string, error)
}

// KeyManager mantém a chave de assinatura em memória e a renova em background,
// o que permite rotacionar o segredo sem reiniciar o serviço.
type KeyManager struct {
	key         []byte
	mu          sync.RWMutex
	fetcher     KeyFetcher
	stopChan    chan struct{}
	stopOnce    sync.Once
	initialized bool
}

// NewKeyManager cria um gerenciador genérico.
func NewKeyManager(fetcher KeyFetcher) *KeyManager {
	return &KeyManager{
		fetcher:  fetcher,
		stopChan: make(chan struct{}),
	}
}

// Start faz a busca inicial (síncrona) e inicia o loop de renovação.
func (m *KeyManager) Start(ctx context.Context) error {
	key, ttl, err := m.fetcher(ctx)
	if err != nil {
		return fmt.Errorf("falha inicial ao obter chave de assinatura: %w", err)
	}
	if len(key) == 0 {
		return fmt.Errorf("chave de assinatura vazia")
	}

	m.mu.Lock()
	m.key = key
	m.initialized = true
	m.mu.Unlock()

	if ttl > 0 {
		go m.refreshLoop(ctx, ttl)
	}
	return nil
}

// Get retorna a chave atual de forma segura.
func (m *KeyManager) Get() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.initialized {
		return nil, fmt.Errorf("key manager não inicializado")
	}
	return m.key, nil
}

// Stop encerra o processo de renovação. Pode ser chamado mais de uma vez.
func (m *KeyManager) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

// Reload busca a chave imediatamente (ex: evento de rotação do segredo).
// Em caso de falha a chave anterior é mantida.
func (m *KeyManager) Reload(ctx context.Context) error {
	key, _, err := m.fetcher(ctx)
	if err != nil {
		return fmt.Errorf("falha ao recarregar chave de assinatura: %w", err)
	}
	if len(key) == 0 {
		return fmt.Errorf("chave de assinatura vazia")
	}

	m.mu.Lock()
	m.key = key
	m.initialized = true
	m.mu.Unlock()
	return nil
}

func (m *KeyManager) setKey(k []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.key = k
}

func (m *KeyManager) refreshLoop(ctx context.Context, initialTTL time.Duration) {
	logger := log.With().Str("component", "key_manager").Logger()
	timer := time.NewTimer(calculateWait(initialTTL))
	defer timer.Stop()

	for {
		select {
		case <-m.stopChan:
			return
		case <-ctx.Done():
			return
		case <-timer.C:
			wait := 10 * time.Second // fallback curto em caso de erro
			key, ttl, err := m.fetcher(ctx)
			switch {
			case err != nil:
				logger.Warn().Err(err).Msg("falha ao renovar chave de assinatura, mantendo a anterior")
			case len(key) == 0:
				logger.Warn().Msg("chave de assinatura renovada veio vazia, mantendo a anterior")
			default:
				m.setKey(key)
				wait = calculateWait(ttl)
			}
			timer.Reset(wait)
		}
	}
}

func calculateWait(ttl time.Duration) time.Duration {
	// Renova quando passar 80% do tempo de vida (margem de segurança)
	if ttl == 0 {
		return 5 * time.Minute
	}
	return time.Duration(float64(ttl) * 0.8)
}

// NewSecretFetcher busca a chave via secrets.Resolver. refresh define de quanto
// em quanto tempo o segredo é relido (0 = nunca).
func NewSecretFetcher(resolver SecretResolver, src secrets.Source, refresh time.Duration) KeyFetcher {
	return func(ctx context.Context) ([]byte, time.Duration, error) {
		val, err := resolver.Resolve(ctx, src)
		if err != nil {
			return nil, 0, err
		}
		return []byte(val), refresh, nil
	}
}

// StaticKey devolve um fetcher para uma chave fixa
func StaticKey(key []byte) KeyFetcher {
	return func(context.Context) ([]byte, time.Duration, error) {
		return key, 0, nil
	}
}
