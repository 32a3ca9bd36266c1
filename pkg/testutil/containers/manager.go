//go:build integration

// Package containers starts shared Postgres, Redis and Redpanda instances for
// integration tests. Each container is started once per test binary.
package containers

import (
	"sync"
	"testing"
)

// Manager lazily starts and hands out shared containers.
type Manager struct {
	mu       sync.Mutex
	postgres *PostgresContainer
	redis    *RedisContainer
	redpanda *RedpandaContainer
}

var (
	manager     *Manager
	managerOnce sync.Once
)

// GetManager returns the process-wide container manager.
func GetManager() *Manager {
	managerOnce.Do(func() {
		manager = &Manager{}
	})
	return manager
}

// GetPostgres returns a migrated Postgres container.
func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.postgres == nil {
		m.postgres = NewPostgresContainer(t)
	}
	return m.postgres
}

// GetRedis returns a Redis container.
func (m *Manager) GetRedis(t *testing.T) *RedisContainer {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.redis == nil {
		m.redis = NewRedisContainer(t)
	}
	return m.redis
}

// GetRedpanda returns a Kafka-compatible Redpanda container.
func (m *Manager) GetRedpanda(t *testing.T) *RedpandaContainer {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.redpanda == nil {
		m.redpanda = NewRedpandaContainer(t)
	}
	return m.redpanda
}
