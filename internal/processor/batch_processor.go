package processor

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"steelprice/server/config"
	"steelprice/server/internal/database"
	"steelprice/server/internal/metrics"
	"steelprice/server/internal/models"
	"steelprice/server/internal/queue"
)

// Transactor is satisfied by *gorm.DB.
type Transactor interface {
	Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
}

// BatchProcessor writes queued price record batches to the database
type BatchProcessor struct {
	db     Transactor
	logger *logrus.Logger
	config *config.Config
	queue  *queue.RecordQueue
	upsert func(tx *gorm.DB, batch []*models.PriceRecord) error
	ctx    context.Context
	cancel context.CancelFunc

	imported atomic.Int64
	failed   atomic.Int64
}

// NewBatchProcessor creates a new batch processor instance
func NewBatchProcessor(db Transactor, queue *queue.RecordQueue, config *config.Config, logger *logrus.Logger) *BatchProcessor {
	ctx, cancel := context.WithCancel(context.Background())
	return &BatchProcessor{
		db:     db,
		queue:  queue,
		config: config,
		logger: logger,
		upsert: database.UpsertPriceRecords,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start subscribes the processor to its queue
func (p *BatchProcessor) Start() {
	p.queue.Subscribe(p.processBatch)
}

// Stop aborts pending retries
func (p *BatchProcessor) Stop() {
	p.cancel()
}

// Imported returns the number of records written so far.
func (p *BatchProcessor) Imported() int64 {
	return p.imported.Load()
}

// Failed returns the number of records in batches that were given up.
func (p *BatchProcessor) Failed() int64 {
	return p.failed.Load()
}

// processBatch handles a single batch of records with transaction and retry logic
func (p *BatchProcessor) processBatch(batch []*models.PriceRecord) error {
	maxRetries := p.config.Import.MaxRetries
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			p.logger.Infof("Retrying batch import, attempt %d of %d", attempt, maxRetries)
			select {
			case <-time.After(time.Duration(p.config.Import.RetryDelay) * time.Second):
			case <-p.ctx.Done():
				p.failed.Add(int64(len(batch)))
				return fmt.Errorf("batch import cancelled: %w", p.ctx.Err())
			}
		}

		err = p.db.Transaction(func(tx *gorm.DB) error {
			if err := p.upsert(tx, batch); err != nil {
				return fmt.Errorf("failed to upsert price records batch: %w", err)
			}
			return nil
		})

		if err == nil {
			p.imported.Add(int64(len(batch)))
			metrics.RecordsImported.Add(float64(len(batch)))
			p.logger.Infof("Successfully imported batch of %d price records", len(batch))
			return nil
		}

		p.logger.Errorf("Batch import failed: %v", err)
	}

	p.failed.Add(int64(len(batch)))
	return fmt.Errorf("failed to import batch after %d attempts: %w", maxRetries+1, err)
}
