// Package tasks is the asynchronous work queue for recomputation jobs.
// Transport is a Redis list; delivery is at-least-once and handlers must be
// idempotent. When Redis is unavailable (or the circuit breaker is open) a
// scheduled task runs inline and synchronously instead — scheduling never
// fails and never blocks on queue availability.
package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/edunova/platform/internal/logging"
	"github.com/edunova/platform/internal/metrics"
)

// Payload carries a task's keyword arguments.
type Payload = map[string]string

// Handler executes one task. Handlers are re-run on redelivery and must be
// idempotent.
type Handler func(ctx context.Context, payload Payload) error

type envelope struct {
	Task    string  `json:"task"`
	Payload Payload `json:"payload"`
}

const popTimeout = 5 * time.Second

// Queue schedules and executes named tasks.
type Queue struct {
	client   *redis.Client
	key      string
	breaker  *gobreaker.CircuitBreaker
	mu       sync.RWMutex
	handlers map[string]Handler
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// New creates a queue. A nil client puts the queue in permanent inline mode:
// every Schedule call executes synchronously.
func New(client *redis.Client, key string) *Queue {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "task-queue",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		Timeout: 30 * time.Second,
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Task queue circuit breaker state changed", "from", from.String(), "to", to.String())
		},
	})

	return &Queue{
		client:   client,
		key:      key,
		breaker:  breaker,
		handlers: make(map[string]Handler),
		stopCh:   make(chan struct{}),
	}
}

// Register binds a handler to a task name. Must be called before Start.
func (q *Queue) Register(task string, h Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[task] = h
}

// Schedule enqueues a task for asynchronous execution. On enqueue failure the
// task runs inline in the caller's goroutine; the caller never sees an error.
func (q *Queue) Schedule(ctx context.Context, task string, payload Payload) {
	if q.client == nil {
		q.runInline(ctx, task, payload)
		return
	}

	body, err := json.Marshal(envelope{Task: task, Payload: payload})
	if err != nil {
		slog.Error("Failed to encode task envelope", "task", task, "error", err)
		return
	}

	_, err = q.breaker.Execute(func() (any, error) {
		return nil, q.client.LPush(ctx, q.key, body).Err()
	})
	if err != nil {
		slog.Warn("Task enqueue failed, running inline", "task", task, "error", err)
		q.runInline(ctx, task, payload)
		return
	}
	metrics.TasksEnqueued.WithLabelValues(task, "queue").Inc()
}

func (q *Queue) runInline(ctx context.Context, task string, payload Payload) {
	metrics.TasksEnqueued.WithLabelValues(task, "inline").Inc()
	metrics.QueueFallbacks.Inc()
	q.dispatch(ctx, task, payload)
}

// Start launches n worker goroutines consuming the queue. No-op when the
// queue has no Redis client.
func (q *Queue) Start(n int) {
	if q.client == nil {
		slog.Info("Task queue running in inline mode, no workers started")
		return
	}
	for i := 0; i < n; i++ {
		q.wg.Add(1)
		go q.workerLoop()
	}
	slog.Info("Task queue workers started", "workers", n, "key", q.key)
}

// Stop signals workers to finish their current task and waits for them.
func (q *Queue) Stop() {
	close(q.stopCh)
	q.wg.Wait()
}

func (q *Queue) workerLoop() {
	defer q.wg.Done()
	ctx := context.Background()

	for {
		select {
		case <-q.stopCh:
			return
		default:
		}

		result, err := q.client.BRPop(ctx, popTimeout, q.key).Result()
		if err != nil {
			if err != redis.Nil {
				slog.Warn("Task queue pop failed", "error", err)
				time.Sleep(time.Second)
			}
			continue
		}
		// BRPop returns [key, value]
		if len(result) != 2 {
			continue
		}

		var env envelope
		if err := json.Unmarshal([]byte(result[1]), &env); err != nil {
			slog.Error("Failed to decode task envelope", "error", err)
			continue
		}
		q.dispatch(ctx, env.Task, env.Payload)
	}
}

func (q *Queue) dispatch(ctx context.Context, task string, payload Payload) {
	q.mu.RLock()
	handler, ok := q.handlers[task]
	q.mu.RUnlock()

	log := logging.WithTask(task)
	if !ok {
		log.Error("No handler registered for task")
		metrics.TasksProcessed.WithLabelValues(task, "unknown").Inc()
		return
	}

	start := time.Now()
	err := handler(ctx, payload)
	metrics.TaskDuration.WithLabelValues(task).Observe(time.Since(start).Seconds())
	if err != nil {
		// At-least-once: a failed run is safe to redo, the caller may
		// re-schedule at any time.
		log.Error("Task failed", "error", err)
		metrics.TasksProcessed.WithLabelValues(task, "error").Inc()
		return
	}
	metrics.TasksProcessed.WithLabelValues(task, "ok").Inc()
}

// ProjectPayload builds the payload for project-scoped tasks.
func ProjectPayload(projectID string) Payload {
	return Payload{"project_id": projectID}
}

// UserPayload builds the payload for user-scoped tasks.
func UserPayload(userID string) Payload {
	return Payload{"user_id": userID}
}

// FromPayload extracts a required key, erroring on absence so a malformed
// envelope surfaces instead of dispatching with zero values.
func FromPayload(payload Payload, key string) (string, error) {
	value, ok := payload[key]
	if !ok || value == "" {
		return "", fmt.Errorf("payload is missing %q", key)
	}
	return value, nil
}
