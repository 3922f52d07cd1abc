package service

import (
	"math/rand"
	"sync"
	"time"
)

// Clock возвращает текущее время; в тестах подменяется фиксированными часами
type Clock interface {
	Now() time.Time
}

// SystemClock — часы на основе time.Now
type SystemClock struct{}

// Now возвращает текущее время
func (SystemClock) Now() time.Time {
	return time.Now()
}

// RandomSource — источник случайных индексов для выборки вопросов
type RandomSource interface {
	// Intn возвращает число из [0, n)
	Intn(n int) int
}

// lockedRand делает *rand.Rand безопасным для конкурентных запросов
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRandomSource создает потокобезопасный источник случайных чисел с заданным seed
func NewRandomSource(seed int64) RandomSource {
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}
