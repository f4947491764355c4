package services

import (
	"context"
	"errors"
	"sync"

	"avocare/models"
)

// Ключи локального хранилища сессии
const (
	KeyToken       = "token"
	KeyLegacyToken = "jwt"
	KeyUser        = "user"
	KeyUserID      = "userId"
	KeyUsername    = "username"
)

// SessionKeys - все ключи, которые очищаются при выходе
var SessionKeys = []string{KeyToken, KeyLegacyToken, KeyUser, KeyUserID, KeyUsername}

// ErrKeyNotFound возвращается хранилищем при отсутствии ключа
var ErrKeyNotFound = models.ErrKeyNotFound

// KVStore - локальное персистентное хранилище ключ-значение.
// Блокировок между процессами нет: побеждает последняя запись.
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return v, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

// getOptional читает ключ, считая отсутствие пустым значением
func getOptional(ctx context.Context, s KVStore, key string) (string, error) {
	v, err := s.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return "", nil
	}
	return v, err
}
