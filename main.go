package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"qshflow/book"
	"qshflow/config"
	"qshflow/logger"
	"qshflow/models"
	"qshflow/processor"
	"qshflow/qsh"
	"qshflow/reader"
	"qshflow/writer"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", config.DefaultConfigPath, "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service": cfg.Qshflow.Name,
		"version": cfg.Qshflow.Version,
	}).Info("starting qshflow")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if strings.ToLower(cfg.Logging.Level) == "report" {
		logger.InitCloudWatch(cfg.Storage.S3.Region, cfg.Qshflow.Name, cfg.Logging.DashboardName)
		logger.StartReport(ctx, log, 30*time.Second)
	}

	snapshotWriter, err := writer.NewSnapshotWriter(cfg)
	if err != nil {
		log.WithError(err).Error("failed to create snapshot writer")
		os.Exit(1)
	}
	if err := snapshotWriter.Start(ctx); err != nil {
		log.WithError(err).Error("failed to start snapshot writer")
		os.Exit(1)
	}

	var wg sync.WaitGroup
	failed := make(chan error, len(cfg.Input.Paths))

	for _, path := range cfg.Input.Paths {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			if err := runPipeline(ctx, cfg, path, snapshotWriter, log); err != nil {
				log.WithComponent("main").WithError(err).WithFields(logger.Fields{"path": path}).Error("pipeline failed")
				failed <- err
			}
		}(path)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case sig := <-sigChan:
		log.WithFields(logger.Fields{"signal": sig.String()}).Info("shutdown signal received")
		cancel()
		<-done
	case <-done:
		select {
		case <-failed:
			exitCode = 1
		default:
		}
	}

	log.Info("starting graceful shutdown")
	cancel()
	snapshotWriter.Stop()
	log.Info("qshflow stopped")
	os.Exit(exitCode)
}

// runPipeline decodes one OrdLog capture into depth rows: open and
// decompress, read the header, then filter, group and replay the stream
// through the book.
func runPipeline(ctx context.Context, cfg *config.Config, path string, sink processor.SnapshotSink, log *logger.Log) error {
	src, err := qsh.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	r := qsh.NewReader(src)
	hdr, err := qsh.ReadHeader(r)
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	log.WithComponent("main").WithFields(logger.Fields{
		"path":       path,
		"instrument": hdr.Instrument,
		"stream":     hdr.Stream.String(),
		"recorder":   hdr.Recorder,
		"recorded":   qsh.TicksToUnix(hdr.RecordingTime),
	}).Info("decoding capture")

	if hdr.Stream != models.StreamOrderLog {
		return fmt.Errorf("stream %s cannot drive the book, OrdLog capture required", hdr.Stream)
	}

	ol := reader.NewOrderLogReader(r)
	filtered := processor.NewFilteredSource(ol, processor.SystemRecord)
	grouped := processor.NewGrouper(filtered)
	b := book.New(cfg.Book.Strict, log.WithComponent("book"))
	producer := processor.NewSnapshotProducer(grouped, b, cfg.Book.Depth, hdr.Instrument, sink, log)
	return producer.Run(ctx)
}
