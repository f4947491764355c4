package services

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var optimisticOps = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "avocare_optimistic_operations_total",
		Help: "Optimistic mutations by entity and outcome (committed, rolled_back, rejected, missing)",
	},
	[]string{"entity", "outcome"},
)

// Optimistic хранит локальные копии серверного состояния и проводит над ними
// оптимистичные изменения: снимок -> локальная дельта -> запрос -> ответ сервера или откат.
// На каждую сущность одновременно допускается только одно изменение.
type Optimistic[K comparable, S any] struct {
	entity string

	mu       sync.Mutex
	states   map[K]S
	inflight map[K]struct{}
}

func NewOptimistic[K comparable, S any](entity string) *Optimistic[K, S] {
	return &Optimistic[K, S]{
		entity:   entity,
		states:   make(map[K]S),
		inflight: make(map[K]struct{}),
	}
}

func (o *Optimistic[K, S]) Get(key K) (S, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.states[key]
	return s, ok
}

// Seed заменяет состояние значением с сервера. Сущности с запросом в полете не трогаются,
// их состояние определит ответ на этот запрос.
func (o *Optimistic[K, S]) Seed(key K, state S) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, busy := o.inflight[key]; busy {
		return false
	}
	o.states[key] = state
	return true
}

// SeedWith - как Seed, но новое значение вычисляется из текущего (если оно есть)
func (o *Optimistic[K, S]) SeedWith(key K, fn func(prev S, ok bool) S) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, busy := o.inflight[key]; busy {
		return false
	}
	prev, ok := o.states[key]
	o.states[key] = fn(prev, ok)
	return true
}

// Retain удаляет состояния ключей, для которых keep вернул false (кроме тех, что в полете)
func (o *Optimistic[K, S]) Retain(keep func(K) bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for k := range o.states {
		if _, busy := o.inflight[k]; busy {
			continue
		}
		if !keep(k) {
			delete(o.states, k)
		}
	}
}

func (o *Optimistic[K, S]) InFlight(key K) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, busy := o.inflight[key]
	return busy
}

// Mutate применяет apply к текущему состоянию сразу, затем вызывает commit вне блокировки.
// Успех: состояние заменяется тем, что вернул commit. Ошибка: восстанавливается снимок
// (включая отсутствие состояния, если его не было). Пока commit не завершился,
// повторный Mutate по тому же ключу возвращает ErrInFlight и ничего не меняет.
func (o *Optimistic[K, S]) Mutate(ctx context.Context, key K, apply func(S) S, commit func(ctx context.Context, optimistic S) (S, error)) (S, error) {
	return o.mutate(ctx, key, false, apply, commit)
}

// MutateExisting - как Mutate, но для ключа без состояния возвращает ErrNotFound,
// не вызывая apply и commit. Проверка и захват ключа делаются под одной блокировкой,
// поэтому параллельный Retain не может удалить состояние между ними.
func (o *Optimistic[K, S]) MutateExisting(ctx context.Context, key K, apply func(S) S, commit func(ctx context.Context, optimistic S) (S, error)) (S, error) {
	return o.mutate(ctx, key, true, apply, commit)
}

func (o *Optimistic[K, S]) mutate(ctx context.Context, key K, mustExist bool, apply func(S) S, commit func(ctx context.Context, optimistic S) (S, error)) (S, error) {
	o.mu.Lock()
	if _, busy := o.inflight[key]; busy {
		cur := o.states[key]
		o.mu.Unlock()
		optimisticOps.WithLabelValues(o.entity, "rejected").Inc()
		return cur, ErrInFlight
	}
	prev, existed := o.states[key]
	if mustExist && !existed {
		o.mu.Unlock()
		optimisticOps.WithLabelValues(o.entity, "missing").Inc()
		return prev, ErrNotFound
	}
	next := apply(prev)
	o.states[key] = next
	o.inflight[key] = struct{}{}
	o.mu.Unlock()

	confirmed, err := commit(ctx, next)

	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inflight, key)
	if err != nil {
		if existed {
			o.states[key] = prev
		} else {
			delete(o.states, key)
		}
		optimisticOps.WithLabelValues(o.entity, "rolled_back").Inc()
		return prev, err
	}
	o.states[key] = confirmed
	optimisticOps.WithLabelValues(o.entity, "committed").Inc()
	return confirmed, nil
}
