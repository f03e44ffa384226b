package goldprice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"debtbook/utils"

	"github.com/redis/go-redis/v9"
)

// Cache хранит последнюю полученную котировку
type Cache interface {
	Get(ctx context.Context) (*Quote, error)
	Set(ctx context.Context, q Quote) error
}

// MemoryCache кеш в памяти процесса
type MemoryCache struct {
	mu    sync.RWMutex
	quote *Quote
}

// NewMemoryCache создает пустой кеш
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

// Get возвращает котировку или nil
func (c *MemoryCache) Get(_ context.Context) (*Quote, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.quote == nil {
		return nil, nil
	}
	q := *c.quote
	return &q, nil
}

// Set запоминает котировку
func (c *MemoryCache) Set(_ context.Context, q Quote) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quote = &q
	return nil
}

const redisKey = "debtbook:gold_price"

// RedisCache кеш котировки в Redis, общий для нескольких экземпляров
type RedisCache struct {
	client *redis.Client
	key    string
}

// NewRedisCache создает кеш поверх клиента Redis
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, key: redisKey}
}

// Get возвращает котировку или nil, если ключа нет
func (c *RedisCache) Get(ctx context.Context) (*Quote, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения цены из Redis: %w", err)
	}

	var q Quote
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("ошибка разбора цены из Redis: %w", err)
	}
	return &q, nil
}

// Set сохраняет котировку без срока жизни: она нужна как запасная при сбое фида
func (c *RedisCache) Set(ctx context.Context, q Quote) error {
	q.IsFromCache = false
	data, err := json.Marshal(q)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.key, data, 0).Err(); err != nil {
		return fmt.Errorf("ошибка записи цены в Redis: %w", err)
	}
	return nil
}

// ConnectRedis подключается к Redis. Пустой адрес отключает кеширование.
func ConnectRedis(ctx context.Context, addr, password string, db int) *redis.Client {
	if addr == "" {
		utils.LogInfo("REDIS_ADDR не установлен, цена золота кешируется в памяти")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Проверяем соединение
	if _, err := client.Ping(ctx).Result(); err != nil {
		utils.LogError("Не удалось подключиться к Redis: %v", err)
		client.Close()
		return nil
	}

	utils.LogInfo("Успешное подключение к Redis")
	return client
}
