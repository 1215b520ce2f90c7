package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"steelprice/server/internal/models"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

// RecordQueue is an in-memory queue of price record batches with a single
// consumer goroutine fanning each batch out to all subscribers.
type RecordQueue struct {
	items    chan []*models.PriceRecord
	done     chan struct{}
	maxSize  int
	closed   bool
	mu       sync.RWMutex
	hmu      sync.Mutex
	logger   *logrus.Logger
	handlers []func([]*models.PriceRecord) error
}

// NewRecordQueue creates a new record queue with the specified buffer size
func NewRecordQueue(bufferSize int, logger *logrus.Logger) *RecordQueue {
	return &RecordQueue{
		items:    make(chan []*models.PriceRecord, bufferSize),
		done:     make(chan struct{}),
		maxSize:  bufferSize,
		logger:   logger,
		handlers: make([]func([]*models.PriceRecord) error, 0),
	}
}

// Push adds a batch without blocking.
func (q *RecordQueue) Push(records []*models.PriceRecord) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.items <- records:
		q.logger.WithField("batch_size", len(records)).Debug("Pushed batch to queue")
		return nil
	default:
		return ErrQueueFull
	}
}

// PushWait adds a batch, waiting for free space until ctx is done.
func (q *RecordQueue) PushWait(ctx context.Context, records []*models.PriceRecord) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.items <- records:
		q.logger.WithField("batch_size", len(records)).Debug("Pushed batch to queue")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe adds a handler function that will be called for each batch
func (q *RecordQueue) Subscribe(handler func([]*models.PriceRecord) error) {
	q.hmu.Lock()
	defer q.hmu.Unlock()
	q.handlers = append(q.handlers, handler)
}

// Start begins processing items in the queue
func (q *RecordQueue) Start() {
	go q.process()
}

// process runs until the queue is closed and drained
func (q *RecordQueue) process() {
	defer close(q.done)
	for batch := range q.items {
		q.processBatch(batch)
	}
}

// processBatch sends the batch to all subscribed handlers
func (q *RecordQueue) processBatch(batch []*models.PriceRecord) {
	q.hmu.Lock()
	handlers := append([]func([]*models.PriceRecord) error(nil), q.handlers...)
	q.hmu.Unlock()

	for _, handler := range handlers {
		if err := handler(batch); err != nil {
			q.logger.WithError(err).Error("Handler failed to process batch")
		}
	}
}

// Close stops accepting batches. Batches already queued are still
// delivered; Wait blocks until that has happened.
func (q *RecordQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	q.closed = true
	close(q.items)
	return nil
}

// Wait blocks until a started queue has been closed and drained.
func (q *RecordQueue) Wait() {
	<-q.done
}

// Len returns the current number of batches in the queue
func (q *RecordQueue) Len() int {
	return len(q.items)
}

// IsClosed returns whether the queue has been closed
func (q *RecordQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
