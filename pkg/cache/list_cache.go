// Package cache guarda o resultado de ListTodos por usuário no Redis.
//
// O cache nunca é fonte de verdade. Cada usuário tem uma geração
// (todos:gen:<userId>) que toda mutação incrementa; uma listagem só é gravada
// se a geração lida antes da consulta ao store ainda for a atual, então uma
// leitura concorrente com uma escrita não repõe dados antigos.
// Qualquer erro aqui é tratado pelo chamador como miss.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/raywall/fast-todo-service/pkg/models"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "todos:"
	genPrefix = "todos:gen:"
)

// Key devolve a chave de listagem do usuário
func Key(userID string) string {
	return keyPrefix + userID
}

// GenerationKey devolve a chave do contador de geração do usuário
func GenerationKey(userID string) string {
	return genPrefix + userID
}

// KEYS[1]=geração, KEYS[2]=listagem; ARGV[1]=geração esperada, ARGV[2]=payload, ARGV[3]=ttl ms
var setIfGeneration = redis.NewScript(`
local current = redis.call('GET', KEYS[1]) or '0'
if current ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[2], ARGV[2])
end
return 1
`)

// RedisListCache implementa o cache de listagem sobre go-redis.
type RedisListCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// Options de conexão
type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisListCache cria o cliente Redis. A conexão é lazy: nada é feito aqui.
func NewRedisListCache(opts Options) (*RedisListCache, *redis.Client) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewRedisListCacheWithClient(client, opts.TTL), client
}

// NewRedisListCacheWithClient reaproveita um cliente existente
func NewRedisListCacheWithClient(client redis.UniversalClient, ttl time.Duration) *RedisListCache {
	return &RedisListCache{client: client, ttl: ttl}
}

// Ping verifica a conectividade
func (c *RedisListCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Version devolve a geração atual do usuário (0 quando nunca houve mutação).
func (c *RedisListCache) Version(ctx context.Context, userID string) (int64, error) {
	gen, err := c.client.Get(ctx, GenerationKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	} else if err != nil {
		return 0, fmt.Errorf("cache: get %s: %w", GenerationKey(userID), err)
	}
	return gen, nil
}

// Get devolve (itens, hit, erro). Chave ausente é miss sem erro.
func (c *RedisListCache) Get(ctx context.Context, userID string) ([]models.TodoItem, bool, error) {
	val, err := c.client.Get(ctx, Key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, fmt.Errorf("cache: get %s: %w", Key(userID), err)
	}

	items := []models.TodoItem{}
	if err := json.Unmarshal(val, &items); err != nil {
		return nil, false, fmt.Errorf("cache: payload inválido em %s: %w", Key(userID), err)
	}
	return items, true, nil
}

// Set grava a listagem com o TTL configurado, mas só se a geração do usuário
// ainda for version. Devolve false quando uma mutação aconteceu no meio.
func (c *RedisListCache) Set(ctx context.Context, userID string, version int64, items []models.TodoItem) (bool, error) {
	if items == nil {
		items = []models.TodoItem{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return false, fmt.Errorf("cache: marshal: %w", err)
	}

	stored, err := setIfGeneration.Run(ctx, c.client,
		[]string{GenerationKey(userID), Key(userID)},
		strconv.FormatInt(version, 10), payload, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("cache: set %s: %w", Key(userID), err)
	}
	return stored == 1, nil
}

// Invalidate avança a geração e remove a listagem do usuário na mesma transação
func (c *RedisListCache) Invalidate(ctx context.Context, userID string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, GenerationKey(userID))
		pipe.Del(ctx, Key(userID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache: invalidate %s: %w", Key(userID), err)
	}
	return nil
}

// NoopListCache é usado quando não há Redis configurado: sempre miss.
type NoopListCache struct{}

func (NoopListCache) Version(context.Context, string) (int64, error) { return 0, nil }
func (NoopListCache) Get(context.Context, string) ([]models.TodoItem, bool, error) {
	return nil, false, nil
}
func (NoopListCache) Set(context.Context, string, int64, []models.TodoItem) (bool, error) {
	return false, nil
}
func (NoopListCache) Invalidate(context.Context, string) error { return nil }
