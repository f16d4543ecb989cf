package writer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/xitongsys/parquet-go/writer"

	appconfig "qshflow/config"
	"qshflow/logger"
	"qshflow/models"
)

// SnapshotParquetRecord is one depth level of one emitted book row.
type SnapshotParquetRecord struct {
	Instrument string `parquet:"name=instrument, type=BYTE_ARRAY, convertedtype=UTF8"`
	Timestamp  int64  `parquet:"name=timestamp, type=INT64"`
	Level      int32  `parquet:"name=level, type=INT32"`
	BidPrice   int64  `parquet:"name=bid_price, type=INT64"`
	BidVolume  int64  `parquet:"name=bid_volume, type=INT64"`
	AskPrice   int64  `parquet:"name=ask_price, type=INT64"`
	AskVolume  int64  `parquet:"name=ask_volume, type=INT64"`
}

type snapshotWriter struct {
	config      *appconfig.Config
	rows        chan models.SnapshotRow
	s3Client    *s3.Client
	ctx         context.Context
	wg          *sync.WaitGroup
	mu          sync.RWMutex
	running     bool
	log         *logger.Log
	buffer      map[string][]models.SnapshotRow
	flushTicker *time.Ticker
}

// SnapshotWriter buffers depth rows per instrument and flushes them as
// parquet files, locally or to S3 when storage is enabled.
type SnapshotWriter = snapshotWriter

func newSnapshotWriter(cfg *appconfig.Config) (*snapshotWriter, error) {
	log := logger.GetLogger()

	var s3Client *s3.Client
	if cfg.Storage.S3.Enabled {
		var err error
		s3Client, err = newS3Client(context.Background(), cfg)
		if err != nil {
			log.WithComponent("snapshot_writer").WithError(err).Warn("failed to build S3 client")
			return nil, err
		}
		log.WithComponent("snapshot_writer").WithFields(logger.Fields{
			"bucket":     cfg.Storage.S3.Bucket,
			"region":     cfg.Storage.S3.Region,
			"endpoint":   cfg.Storage.S3.Endpoint,
			"path_style": cfg.Storage.S3.PathStyle,
		}).Info("s3 delivery enabled")
	}

	return &snapshotWriter{
		config:   cfg,
		rows:     make(chan models.SnapshotRow, cfg.Writer.Batch.Size),
		s3Client: s3Client,
		wg:       &sync.WaitGroup{},
		log:      log,
	}, nil
}

// NewSnapshotWriter constructs a new SnapshotWriter instance.
func NewSnapshotWriter(cfg *appconfig.Config) (*SnapshotWriter, error) {
	return newSnapshotWriter(cfg)
}

// WriteRow enqueues a depth row for the next flush.
func (w *snapshotWriter) WriteRow(row models.SnapshotRow) {
	logger.RecordChannelMessage("snapshot_rows", 8*(1+len(row.Values)))
	w.rows <- row
}

func (w *snapshotWriter) start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("snapshot writer already running")
	}
	w.running = true
	w.ctx = ctx
	w.mu.Unlock()

	log := w.log.WithComponent("snapshot_writer").WithFields(logger.Fields{"operation": "start"})
	log.Info("starting snapshot writer")

	w.buffer = make(map[string][]models.SnapshotRow)
	w.flushTicker = time.NewTicker(w.config.Writer.Batch.FlushInterval)

	numWorkers := w.config.Writer.MaxWorkers
	if numWorkers < 1 {
		numWorkers = 1
	}

	log.WithFields(logger.Fields{"workers": numWorkers}).Info("starting snapshot writer workers")

	for i := 0; i < numWorkers; i++ {
		w.wg.Add(1)
		go w.worker(i)
	}

	w.wg.Add(1)
	go w.flushWorker()

	log.Info("snapshot writer started successfully")
	return nil
}

func (w *snapshotWriter) stop() {
	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}
	close(w.rows)

	w.log.WithComponent("snapshot_writer").Info("stopping snapshot writer")
	w.wg.Wait()
	w.log.WithComponent("snapshot_writer").Info("snapshot writer stopped")
}

func (w *snapshotWriter) worker(workerID int) {
	defer w.wg.Done()

	log := w.log.WithComponent("snapshot_writer").WithFields(logger.Fields{
		"worker_id": workerID,
		"worker":    "buffer",
	})
	log.Info("starting snapshot writer worker")

	for row := range w.rows {
		w.addRow(row)
	}
	log.Info("row channel closed, worker stopping")
}

func (w *snapshotWriter) addRow(row models.SnapshotRow) {
	w.mu.Lock()
	w.buffer[row.Instrument] = append(w.buffer[row.Instrument], row)
	full := len(w.buffer[row.Instrument]) >= w.config.Writer.Batch.Size
	w.mu.Unlock()
	if full {
		w.flushBuffers("batch_size")
	}
}

func (w *snapshotWriter) flushWorker() {
	defer w.wg.Done()

	log := w.log.WithComponent("snapshot_writer").WithFields(logger.Fields{"worker": "flush"})
	log.Info("starting flush worker")

	for {
		select {
		case <-w.ctx.Done():
			w.flushBuffers("shutdown")
			log.Info("flush worker stopped due to context cancellation")
			return
		case <-w.flushTicker.C:
			w.flushBuffers("interval")
		}
	}
}

// Flush forces out everything currently buffered.
func (w *snapshotWriter) Flush() {
	w.flushBuffers("manual")
}

func (w *snapshotWriter) flushBuffers(reason string) {
	w.mu.Lock()
	buffers := w.buffer
	w.buffer = make(map[string][]models.SnapshotRow)
	w.mu.Unlock()

	if len(buffers) == 0 {
		return
	}

	w.log.WithComponent("snapshot_writer").WithFields(logger.Fields{
		"flushed_buffers": len(buffers),
		"reason":          reason,
	}).Info("flushing buffers")

	for instrument, rows := range buffers {
		if len(rows) == 0 {
			continue
		}
		w.processBatch(instrument, rows)
	}
}

func (w *snapshotWriter) processBatch(instrument string, rows []models.SnapshotRow) {
	batchID := uuid.New().String()
	log := w.log.WithComponent("snapshot_writer").WithFields(logger.Fields{
		"batch_id":   batchID,
		"instrument": instrument,
		"row_count":  len(rows),
		"operation":  "process_batch",
	})
	log.Info("processing batch")

	data, err := w.createParquetFile(rows)
	if err != nil {
		log.WithError(err).Error("failed to create parquet file")
		return
	}

	key := w.batchKey(instrument, rows[0].Timestamp, batchID)
	if w.s3Client != nil {
		if err := uploadToS3(w.ctx, w.s3Client, w.config, key, data, log); err != nil {
			log.WithError(err).
				WithEnv("S3_BUCKET").
				WithFields(logger.Fields{"bucket": w.config.Storage.S3.Bucket}).
				Error("failed to upload to S3")
		}
		return
	}

	path := filepath.Join(w.config.Writer.OutputDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.WithError(err).Error("failed to create output directory")
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.WithError(err).Error("failed to write parquet file")
		return
	}
	log.WithFields(logger.Fields{"path": path, "file_size": len(data)}).Info("batch written")
}

func (w *snapshotWriter) batchKey(instrument string, unixMillis int64, batchID string) string {
	t := time.UnixMilli(unixMillis).UTC()
	return fmt.Sprintf("instrument=%s/date=%s/qshflow_snapshots_%s_%s.parquet",
		instrument, t.Format("2006-01-02"), t.Format("20060102150405"), batchID)
}

func (w *snapshotWriter) createParquetFile(rows []models.SnapshotRow) ([]byte, error) {
	fw := newMemoryFileWriter()
	pw, err := writer.NewParquetWriter(fw, new(SnapshotParquetRecord), 4)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = compressionCodec(w.config.Writer.Parquet.Compression)

	for _, row := range rows {
		depth := row.Depth()
		for level := 0; level < depth; level++ {
			rec := SnapshotParquetRecord{
				Instrument: row.Instrument,
				Timestamp:  row.Timestamp,
				Level:      int32(level + 1),
				BidPrice:   row.Values[4*level],
				BidVolume:  row.Values[4*level+1],
				AskPrice:   row.Values[4*level+2],
				AskVolume:  row.Values[4*level+3],
			}
			if err := pw.Write(rec); err != nil {
				pw.WriteStop()
				return nil, fmt.Errorf("failed to write parquet record: %w", err)
			}
		}
	}

	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("failed to finalize parquet writing: %w", err)
	}
	return fw.Bytes(), nil
}

// Start exposes the start method of snapshotWriter.
func (w *SnapshotWriter) Start(ctx context.Context) error { return w.start(ctx) }

// Stop exposes the stop method of snapshotWriter.
func (w *SnapshotWriter) Stop() { w.stop() }
