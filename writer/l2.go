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

// L2ParquetRecord is one incremental depth event.
type L2ParquetRecord struct {
	Instrument string `parquet:"name=instrument, type=BYTE_ARRAY, convertedtype=UTF8"`
	Timestamp  int64  `parquet:"name=timestamp, type=INT64"`
	Kind       string `parquet:"name=kind, type=BYTE_ARRAY, convertedtype=UTF8"`
	Side       string `parquet:"name=side, type=BYTE_ARRAY, convertedtype=UTF8"`
	Price      int64  `parquet:"name=price, type=INT64"`
	Volume     int64  `parquet:"name=volume, type=INT64"`
}

type l2Writer struct {
	config      *appconfig.Config
	instrument  string
	events      chan models.L2Event
	s3Client    *s3.Client
	ctx         context.Context
	wg          *sync.WaitGroup
	mu          sync.RWMutex
	running     bool
	log         *logger.Log
	buffer      []models.L2Event
	flushTicker *time.Ticker
}

// L2Writer buffers incremental depth events for one instrument and
// flushes them as parquet files, locally or to S3 when storage is
// enabled.
type L2Writer = l2Writer

func newL2Writer(cfg *appconfig.Config, instrument string) (*l2Writer, error) {
	log := logger.GetLogger()

	var s3Client *s3.Client
	if cfg.Storage.S3.Enabled {
		var err error
		s3Client, err = newS3Client(context.Background(), cfg)
		if err != nil {
			log.WithComponent("l2_writer").WithError(err).Warn("failed to build S3 client")
			return nil, err
		}
	}

	return &l2Writer{
		config:     cfg,
		instrument: instrument,
		events:     make(chan models.L2Event, cfg.Writer.Batch.Size),
		s3Client:   s3Client,
		wg:         &sync.WaitGroup{},
		log:        log,
	}, nil
}

// NewL2Writer constructs a new L2Writer instance.
func NewL2Writer(cfg *appconfig.Config, instrument string) (*L2Writer, error) {
	return newL2Writer(cfg, instrument)
}

// WriteEvent enqueues an incremental depth event for the next flush.
func (w *l2Writer) WriteEvent(ev models.L2Event) {
	logger.RecordChannelMessage("l2_events", 32)
	w.events <- ev
}

func (w *l2Writer) start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("l2 writer already running")
	}
	w.running = true
	w.ctx = ctx
	w.mu.Unlock()

	log := w.log.WithComponent("l2_writer").WithFields(logger.Fields{"operation": "start"})
	log.Info("starting l2 writer")

	w.flushTicker = time.NewTicker(w.config.Writer.Batch.FlushInterval)

	w.wg.Add(1)
	go w.worker()

	w.wg.Add(1)
	go w.flushWorker()

	log.Info("l2 writer started successfully")
	return nil
}

func (w *l2Writer) stop() {
	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}
	close(w.events)

	w.log.WithComponent("l2_writer").Info("stopping l2 writer")
	w.wg.Wait()
	w.log.WithComponent("l2_writer").Info("l2 writer stopped")
}

func (w *l2Writer) worker() {
	defer w.wg.Done()

	log := w.log.WithComponent("l2_writer").WithFields(logger.Fields{"worker": "buffer"})
	log.Info("starting l2 writer worker")

	for ev := range w.events {
		w.mu.Lock()
		w.buffer = append(w.buffer, ev)
		full := len(w.buffer) >= w.config.Writer.Batch.Size
		w.mu.Unlock()
		if full {
			w.flushBuffer("batch_size")
		}
	}
	w.flushBuffer("drained")
	log.Info("event channel closed, worker stopping")
}

func (w *l2Writer) flushWorker() {
	defer w.wg.Done()

	log := w.log.WithComponent("l2_writer").WithFields(logger.Fields{"worker": "flush"})
	log.Info("starting flush worker")

	for {
		select {
		case <-w.ctx.Done():
			log.Info("flush worker stopped due to context cancellation")
			return
		case <-w.flushTicker.C:
			w.flushBuffer("interval")
		}
	}
}

func (w *l2Writer) flushBuffer(reason string) {
	w.mu.Lock()
	events := w.buffer
	w.buffer = nil
	w.mu.Unlock()

	if len(events) == 0 {
		return
	}

	batchID := uuid.New().String()
	log := w.log.WithComponent("l2_writer").WithFields(logger.Fields{
		"batch_id":    batchID,
		"instrument":  w.instrument,
		"event_count": len(events),
		"reason":      reason,
	})
	log.Info("flushing l2 events")

	data, err := w.createParquetFile(events)
	if err != nil {
		log.WithError(err).Error("failed to create parquet file")
		return
	}

	t := time.UnixMilli(events[0].Timestamp).UTC()
	key := fmt.Sprintf("instrument=%s/date=%s/qshflow_l2_%s_%s.parquet",
		w.instrument, t.Format("2006-01-02"), t.Format("20060102150405"), batchID)

	if w.s3Client != nil {
		if err := uploadToS3(w.ctx, w.s3Client, w.config, key, data, log); err != nil {
			log.WithError(err).Error("failed to upload to S3")
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

func (w *l2Writer) createParquetFile(events []models.L2Event) ([]byte, error) {
	fw := newMemoryFileWriter()
	pw, err := writer.NewParquetWriter(fw, new(L2ParquetRecord), 4)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = compressionCodec(w.config.Writer.Parquet.Compression)

	for _, ev := range events {
		rec := L2ParquetRecord{
			Instrument: w.instrument,
			Timestamp:  ev.Timestamp,
			Kind:       ev.Kind.String(),
			Side:       ev.Side.String(),
			Price:      ev.Price,
			Volume:     ev.Volume,
		}
		if err := pw.Write(rec); err != nil {
			pw.WriteStop()
			return nil, fmt.Errorf("failed to write parquet record: %w", err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("failed to finalize parquet writing: %w", err)
	}
	return fw.Bytes(), nil
}

// Start exposes the start method of l2Writer.
func (w *L2Writer) Start(ctx context.Context) error { return w.start(ctx) }

// Stop exposes the stop method of l2Writer.
func (w *L2Writer) Stop() { w.stop() }
