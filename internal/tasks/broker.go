// Package tasks is an in-process task broker: named queues with their own
// worker pools, task routing, ETA scheduling and retries.
package tasks

import (
	"container/heap"
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultQueue receives tasks without a route
const DefaultQueue = "default"

// Kwargs are the keyword arguments of a task call
type Kwargs map[string]interface{}

// Uint64 reads an id argument. JSON decoding and direct calls produce
// different numeric types, so every integer kind is accepted.
func (k Kwargs) Uint64(key string) (uint64, error) {
	switch v := k[key].(type) {
	case uint64:
		return v, nil
	case uint:
		return uint64(v), nil
	case int:
		if v >= 0 {
			return uint64(v), nil
		}
	case int64:
		if v >= 0 {
			return uint64(v), nil
		}
	case float64:
		if v >= 0 {
			return uint64(v), nil
		}
	}
	return 0, fmt.Errorf("task argument %s: expected an id, got %v", key, k[key])
}

// Handler is the body of a task
type Handler func(ctx context.Context, kwargs Kwargs) error

// Task is a registered task
type Task struct {
	Name       string
	Handler    Handler
	MaxRetries int
	RetryDelay time.Duration
}

type retryError struct {
	err error
}

func (e *retryError) Error() string { return e.err.Error() }
func (e *retryError) Unwrap() error { return e.err }

// Retry marks err as transient: the broker runs the task again after the
// task's retry delay, up to its retry limit.
func Retry(err error) error {
	if err == nil {
		return nil
	}
	return &retryError{err: err}
}

type message struct {
	task    *Task
	kwargs  Kwargs
	eta     time.Time
	attempt int
	seq     uint64
}

// Option changes how a task call is scheduled
type Option func(*message)

// WithETA schedules the call for eta
func WithETA(eta time.Time) Option {
	return func(m *message) { m.eta = eta }
}

// WithCountdown schedules the call d from now
func WithCountdown(d time.Duration) Option {
	return func(m *message) { m.eta = time.Now().Add(d) }
}

type queue struct {
	name    string
	workers int

	mu      sync.Mutex
	pending delayHeap
	wake    chan struct{}
	ready   chan *message
}

func (q *queue) push(msg *message) {
	q.mu.Lock()
	heap.Push(&q.pending, msg)
	length := q.pending.Len()
	q.mu.Unlock()

	queueLength.WithLabelValues(q.name).Set(float64(length))
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Broker routes task calls to queues and runs them
type Broker struct {
	mu     sync.RWMutex
	tasks  map[string]*Task
	routes map[string]string
	queues map[string]*queue
	eager  bool
	seq    uint64

	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	log     *logrus.Entry
}

// BrokerOption configures a Broker
type BrokerOption func(*Broker)

// Eager makes ApplyAsync run tasks synchronously, ignoring ETAs
func Eager() BrokerOption {
	return func(b *Broker) { b.eager = true }
}

// WithLogger sets the logger
func WithLogger(logger *logrus.Logger) BrokerOption {
	return func(b *Broker) { b.log = logrus.NewEntry(logger) }
}

// NewBroker creates a broker with the default queue declared
func NewBroker(opts ...BrokerOption) *Broker {
	b := &Broker{
		tasks:  map[string]*Task{},
		routes: map[string]string{},
		queues: map[string]*queue{},
		log:    logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.WithField("component", "tasks")
	b.DeclareQueue(DefaultQueue, 1)
	return b
}

// IsEager reports whether tasks run synchronously
func (b *Broker) IsEager() bool {
	return b.eager
}

// Register adds a task
func (b *Broker) Register(task *Task) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tasks[task.Name] = task
}

// DeclareQueue adds a queue served by workers goroutines. Declaring an
// existing queue updates its worker count if the broker is not running.
func (b *Broker) DeclareQueue(name string, workers int) {
	if workers < 1 {
		workers = 1
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if q, ok := b.queues[name]; ok {
		if !b.running {
			q.workers = workers
		}
		return
	}
	b.queues[name] = &queue{
		name:    name,
		workers: workers,
		wake:    make(chan struct{}, 1),
		ready:   make(chan *message),
	}
}

// Route sends calls of taskName to queueName
func (b *Broker) Route(taskName, queueName string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.queues[queueName]; !ok {
		return fmt.Errorf("route %s: unknown queue %s", taskName, queueName)
	}
	b.routes[taskName] = queueName
	return nil
}

// QueueFor returns the queue a task is routed to
func (b *Broker) QueueFor(taskName string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if q, ok := b.routes[taskName]; ok {
		return q
	}
	return DefaultQueue
}

// ScheduledTask is a task call waiting in a queue
type ScheduledTask struct {
	Name    string
	Kwargs  Kwargs
	ETA     time.Time
	Attempt int
}

// Scheduled lists the calls waiting in queueName, earliest first. Calls
// already handed to a worker are not included.
func (b *Broker) Scheduled(queueName string) []ScheduledTask {
	b.mu.RLock()
	q, ok := b.queues[queueName]
	b.mu.RUnlock()
	if !ok {
		return nil
	}

	q.mu.Lock()
	pending := append(delayHeap(nil), q.pending...)
	q.mu.Unlock()

	sort.Slice(pending, func(i, j int) bool { return pending.Less(i, j) })
	out := make([]ScheduledTask, 0, len(pending))
	for _, msg := range pending {
		out = append(out, ScheduledTask{Name: msg.task.Name, Kwargs: msg.kwargs, ETA: msg.eta, Attempt: msg.attempt})
	}
	return out
}

// ApplyAsync schedules a call of the named task. In eager mode the task runs
// before ApplyAsync returns and its error is returned.
func (b *Broker) ApplyAsync(ctx context.Context, name string, kwargs Kwargs, opts ...Option) error {
	b.mu.Lock()
	task, ok := b.tasks[name]
	if !ok {
		b.mu.Unlock()
		return fmt.Errorf("unknown task %s", name)
	}
	b.seq++
	msg := &message{task: task, kwargs: kwargs, eta: time.Now(), seq: b.seq}
	for _, opt := range opts {
		opt(msg)
	}
	q := b.queues[b.queueForLocked(name)]
	b.mu.Unlock()

	if b.eager {
		return b.runEager(ctx, msg)
	}

	q.push(msg)
	b.log.WithFields(logrus.Fields{
		"task":  name,
		"queue": q.name,
		"eta":   msg.eta.Format(time.RFC3339Nano),
	}).Debug("task scheduled")
	return nil
}

func (b *Broker) queueForLocked(name string) string {
	if q, ok := b.routes[name]; ok {
		return q
	}
	return DefaultQueue
}

func (b *Broker) runEager(ctx context.Context, msg *message) error {
	for {
		err := b.execute(ctx, msg)
		var retry *retryError
		if err != nil && stderrors.As(err, &retry) && msg.attempt < msg.task.MaxRetries {
			msg.attempt++
			continue
		}
		return err
	}
}

// execute runs one attempt, converting panics into errors
func (b *Broker) execute(ctx context.Context, msg *message) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", msg.task.Name, r)
		}
		taskDuration.WithLabelValues(msg.task.Name).Observe(time.Since(start).Seconds())

		status := "success"
		if err != nil {
			status = "failure"
			var retry *retryError
			if stderrors.As(err, &retry) && msg.attempt < msg.task.MaxRetries {
				status = "retry"
			}
		}
		tasksProcessed.WithLabelValues(msg.task.Name, status).Inc()
	}()

	return msg.task.Handler(ctx, msg.kwargs)
}

// Start launches the scheduler and workers of every queue
func (b *Broker) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.eager {
		return nil
	}
	if b.running {
		return errors.New("broker already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.running = true

	for _, q := range b.queues {
		b.wg.Add(1)
		go b.schedule(ctx, q)
		for i := 0; i < q.workers; i++ {
			b.wg.Add(1)
			go b.work(ctx, q, i)
		}
		b.log.WithFields(logrus.Fields{"queue": q.name, "workers": q.workers}).Info("queue started")
	}
	return nil
}

// Stop cancels scheduling, waits for running tasks to finish and reports
// how many delayed tasks were dropped. Retries requested by tasks finishing
// during Stop are dropped too.
func (b *Broker) Stop() int {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return 0
	}
	b.cancel()
	b.running = false
	b.mu.Unlock()

	b.wg.Wait()

	dropped := 0
	b.mu.RLock()
	for _, q := range b.queues {
		q.mu.Lock()
		dropped += q.pending.Len()
		q.pending = nil
		q.mu.Unlock()
		queueLength.WithLabelValues(q.name).Set(0)
	}
	b.mu.RUnlock()

	if dropped > 0 {
		b.log.WithField("dropped", dropped).Warn("broker stopped with pending tasks")
	}
	return dropped
}

// schedule moves messages whose ETA has passed to the workers
func (b *Broker) schedule(ctx context.Context, q *queue) {
	defer b.wg.Done()

	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		q.mu.Lock()
		var next *message
		wait := time.Hour
		if q.pending.Len() > 0 {
			head := q.pending[0]
			if d := time.Until(head.eta); d <= 0 {
				next = heap.Pop(&q.pending).(*message)
			} else {
				wait = d
			}
		}
		length := q.pending.Len()
		q.mu.Unlock()

		if next != nil {
			queueLength.WithLabelValues(q.name).Set(float64(length))
			select {
			case q.ready <- next:
				continue
			case <-ctx.Done():
				q.push(next)
				return
			}
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-ctx.Done():
			return
		case <-q.wake:
		case <-timer.C:
		}
	}
}

// work runs messages until ctx is cancelled. Cancellation is only checked
// between messages; a running task keeps its values but not the cancellation.
func (b *Broker) work(ctx context.Context, q *queue, id int) {
	defer b.wg.Done()

	taskCtx := context.WithoutCancel(ctx)
	log := b.log.WithFields(logrus.Fields{"queue": q.name, "worker": id})
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-q.ready:
			err := b.execute(taskCtx, msg)
			if err == nil {
				continue
			}

			entry := log.WithField("task", msg.task.Name).WithField("attempt", msg.attempt).WithError(err)
			var retry *retryError
			if stderrors.As(err, &retry) && msg.attempt < msg.task.MaxRetries {
				msg.attempt++
				msg.eta = time.Now().Add(msg.task.RetryDelay)
				entry.Warn("task failed, retrying")
				q.push(msg)
				continue
			}
			entry.Error("task failed")
		}
	}
}
