package repository

import (
	"context"
	"time"
)

// CacheRepository определяет методы для работы с кешем
type CacheRepository interface {
	// DeleteByPrefix удаляет все ключи с указанным префиксом
	DeleteByPrefix(ctx context.Context, prefix string) error
	Increment(ctx context.Context, key string) (int64, error)
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	GetJSON(ctx context.Context, key string, dest interface{}) error
	ExpireAt(ctx context.Context, key string, expiration time.Time) error
	// TTL возвращает оставшееся время жизни ключа; отрицательное значение, если TTL не задан или ключа нет
	TTL(ctx context.Context, key string) (time.Duration, error)
}
