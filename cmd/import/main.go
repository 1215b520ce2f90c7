// Command import loads a purchase history workbook into the price database.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/sirupsen/logrus"

	"steelprice/server/config"
	"steelprice/server/internal/database"
	"steelprice/server/internal/importer"
	"steelprice/server/internal/logging"
	"steelprice/server/internal/models"
	"steelprice/server/internal/processor"
	"steelprice/server/internal/queue"
)

func main() {
	file := flag.String("file", "", "path to the .xlsx purchase history export")
	sheet := flag.String("sheet", "", "sheet to read, defaults to the first sheet")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	logger := logging.New(cfg)

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	f, err := os.Open(*file)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open workbook")
	}
	records, rowErrors, err := importer.ReadWorkbook(f, *sheet)
	_ = f.Close()
	if err != nil {
		logger.WithError(err).Fatal("Failed to read workbook")
	}
	for _, re := range rowErrors {
		logger.WithField("row", re.Row).WithError(re.Err).Warn("Skipping row")
	}

	gdb, err := database.OpenGorm(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open database")
	}
	if err := database.MigrateSchema(gdb); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	recordQueue := queue.NewRecordQueue(cfg.Import.QueueSize, logger)
	batchProcessor := processor.NewBatchProcessor(gdb, recordQueue, cfg, logger)
	batchProcessor.Start()
	recordQueue.Start()

	ctx := context.Background()
	for start := 0; start < len(records); start += cfg.Import.BatchSize {
		end := min(start+cfg.Import.BatchSize, len(records))
		batch := make([]*models.PriceRecord, 0, end-start)
		for i := start; i < end; i++ {
			batch = append(batch, &records[i])
		}
		if err := recordQueue.PushWait(ctx, batch); err != nil {
			logger.WithError(err).Error("Failed to queue batch")
			break
		}
	}

	_ = recordQueue.Close()
	recordQueue.Wait()
	batchProcessor.Stop()

	logger.WithFields(logrus.Fields{
		"read":     len(records),
		"skipped":  len(rowErrors),
		"imported": batchProcessor.Imported(),
		"failed":   batchProcessor.Failed(),
	}).Info("Import finished")

	if batchProcessor.Failed() > 0 {
		os.Exit(1)
	}
}
