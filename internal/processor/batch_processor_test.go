package processor

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"steelprice/server/config"
	"steelprice/server/internal/database"
	"steelprice/server/internal/models"
	"steelprice/server/internal/queue"
)

// MockDB is a mock implementation of the Transactor interface
type MockDB struct {
	mock.Mock
}

func (m *MockDB) Transaction(fc func(*gorm.DB) error, opts ...*sql.TxOptions) error {
	args := m.Called(fc)
	return args.Error(0)
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Import.MaxRetries = 2
	cfg.Import.RetryDelay = 0
	return cfg
}

func TestNewBatchProcessor(t *testing.T) {
	mockDB := &MockDB{}
	logger := logrus.New()
	mockQueue := queue.NewRecordQueue(10, logger)
	cfg := testConfig()

	processor := NewBatchProcessor(mockDB, mockQueue, cfg, logger)

	assert.NotNil(t, processor)
	assert.Equal(t, mockDB, processor.db)
	assert.Equal(t, mockQueue, processor.queue)
	assert.Equal(t, cfg, processor.config)
	assert.Equal(t, logger, processor.logger)
}

func TestBatchProcessor_ProcessBatch(t *testing.T) {
	mockDB := &MockDB{}
	logger := logrus.New()
	processor := NewBatchProcessor(mockDB, queue.NewRecordQueue(10, logger), testConfig(), logger)

	batch := []*models.PriceRecord{
		{OrderNo: "B1", ArticleNo: "A1"},
		{OrderNo: "B1", ArticleNo: "A2"},
	}

	// Test successful processing
	mockDB.On("Transaction", mock.Anything).Return(nil).Once()
	err := processor.processBatch(batch)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), processor.Imported())

	// Test retry on failure
	mockDB.On("Transaction", mock.Anything).Return(errors.New("db error")).Times(3)
	err = processor.processBatch(batch)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to import batch after 3 attempts")
	assert.Equal(t, int64(2), processor.Failed())
	mockDB.AssertExpectations(t)
}

func TestBatchProcessor_RecoversOnRetry(t *testing.T) {
	mockDB := &MockDB{}
	logger := logrus.New()
	processor := NewBatchProcessor(mockDB, queue.NewRecordQueue(10, logger), testConfig(), logger)

	mockDB.On("Transaction", mock.Anything).Return(errors.New("locked")).Once()
	mockDB.On("Transaction", mock.Anything).Return(nil).Once()

	err := processor.processBatch([]*models.PriceRecord{{OrderNo: "B1", ArticleNo: "A1"}})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), processor.Imported())
	assert.Equal(t, int64(0), processor.Failed())
}

func TestBatchProcessor_StopCancelsRetries(t *testing.T) {
	mockDB := &MockDB{}
	logger := logrus.New()
	cfg := testConfig()
	cfg.Import.RetryDelay = 60
	processor := NewBatchProcessor(mockDB, queue.NewRecordQueue(10, logger), cfg, logger)

	mockDB.On("Transaction", mock.Anything).Return(errors.New("db error")).Once()
	processor.Stop()

	err := processor.processBatch([]*models.PriceRecord{{OrderNo: "B1", ArticleNo: "A1"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(1), processor.Failed())
}

func TestBatchProcessingIntegration(t *testing.T) {
	gdb, path, err := database.NewTestDB(t.TempDir())
	require.NoError(t, err)

	logger := logrus.New()
	recordQueue := queue.NewRecordQueue(4, logger)
	processor := NewBatchProcessor(gdb, recordQueue, testConfig(), logger)
	processor.Start()
	recordQueue.Start()

	batches := [][]*models.PriceRecord{
		{
			{OrderNo: "B1", ArticleNo: "A1", Description: "Rundstahl 16MnCr5", MaterialGroup: 50, SizeClass: "D50x200", Weight: 3, Quantity: 1, UnitPrice: 6, SupplierNo: "L1"},
			{OrderNo: "B1", ArticleNo: "A2", Description: "Rundstahl 16MnCr5", MaterialGroup: 50, SizeClass: "D60x200", Weight: 2, Quantity: 1, UnitPrice: 6, SupplierNo: "L1"},
		},
		{
			{OrderNo: "B2", ArticleNo: "A1", Description: "Rundstahl 16MnCr5", MaterialGroup: 50, SizeClass: "D50x200", Weight: 3, Quantity: 2, UnitPrice: 9, SupplierNo: "L2"},
		},
	}
	for _, b := range batches {
		require.NoError(t, recordQueue.PushWait(context.Background(), b))
	}
	recordQueue.Close()
	recordQueue.Wait()

	assert.Equal(t, int64(3), processor.Imported())

	var articles, orders, positions int64
	require.NoError(t, gdb.Model(&models.Article{}).Count(&articles).Error)
	require.NoError(t, gdb.Model(&models.PurchaseOrder{}).Count(&orders).Error)
	require.NoError(t, gdb.Model(&models.PricePosition{}).Count(&positions).Error)
	assert.Equal(t, int64(2), articles)
	assert.Equal(t, int64(2), orders)
	assert.Equal(t, int64(3), positions)

	db, err := database.NewDatabase("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()
	records, err := db.FetchPriceRecords(context.Background(), models.PriceQuery{
		Material: "16mncr5", StartDate: "0001-01-01", EndDate: "9999-12-31",
		MaterialGroupMin: 50, MaterialGroupMax: 54,
	})
	require.NoError(t, err)
	assert.Len(t, records, 3)
}
