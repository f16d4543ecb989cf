package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"golang.org/x/time/rate"

	"qshflow/book"
	"qshflow/config"
	"qshflow/logger"
	"qshflow/models"
	"qshflow/processor"
	"qshflow/qsh"
	"qshflow/reader"
	"qshflow/writer"
)

// pacedSink throttles event delivery to a fixed rate before forwarding
// to the real sink. With no limiter it forwards directly.
type pacedSink struct {
	sink    processor.L2Sink
	limiter *rate.Limiter
}

func (p *pacedSink) WriteEvent(ev models.L2Event) {
	if p.limiter != nil {
		if err := p.limiter.Wait(context.Background()); err != nil {
			return
		}
	}
	p.sink.WriteEvent(ev)
}

func main() {
	log := logger.GetLogger()

	in := flag.String("in", "", "OrdLog capture file to convert")
	out := flag.String("out", "out", "Output directory for parquet files")
	depth := flag.Int("depth", 5, "Number of levels per side to publish")
	eventRate := flag.Float64("rate", 0, "Throttle emission to this many events per second (0 = unpaced)")
	compression := flag.String("compression", "gzip", "Parquet compression codec (snappy, gzip, none)")
	flag.Parse()

	if *in == "" {
		fmt.Fprintln(os.Stderr, "usage: l3tol2 -in file.qsh -out dir [-depth N] [-rate R]")
		os.Exit(2)
	}

	src, err := qsh.Open(*in)
	if err != nil {
		log.WithError(err).Error("failed to open capture")
		os.Exit(1)
	}
	defer src.Close()

	r := qsh.NewReader(src)
	hdr, err := qsh.ReadHeader(r)
	if err != nil {
		log.WithError(err).Error("failed to read header")
		os.Exit(1)
	}
	if hdr.Stream != models.StreamOrderLog {
		log.WithFields(logger.Fields{"stream": hdr.Stream.String()}).Error("OrdLog capture required")
		os.Exit(1)
	}

	cfg := &config.Config{
		Qshflow: config.QshflowConfig{Name: "l3tol2", Version: "dev"},
		Writer: config.WriterConfig{
			MaxWorkers: 1,
			Batch:      config.BatchConfig{Size: 65536, FlushInterval: 30 * time.Second},
			Parquet:    config.ParquetConfig{Compression: *compression},
			OutputDir:  *out,
		},
	}

	l2w, err := writer.NewL2Writer(cfg, hdr.Instrument)
	if err != nil {
		log.WithError(err).Error("failed to create l2 writer")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := l2w.Start(ctx); err != nil {
		log.WithError(err).Error("failed to start l2 writer")
		os.Exit(1)
	}

	sink := &pacedSink{sink: l2w}
	if *eventRate > 0 {
		sink.limiter = rate.NewLimiter(rate.Limit(*eventRate), 1)
	}

	ol := reader.NewOrderLogReader(r)
	filtered := processor.NewFilteredSource(ol, processor.SystemRecord)
	grouped := processor.NewGrouper(filtered)
	b := book.New(false, log.WithComponent("book"))
	producer := processor.NewL2Producer(grouped, b, *depth, sink, log)

	runErr := producer.Run(ctx)
	cancel()
	l2w.Stop()

	if runErr != nil {
		log.WithError(runErr).Error("conversion failed")
		os.Exit(1)
	}
	log.WithFields(logger.Fields{"instrument": hdr.Instrument, "out": *out}).Info("conversion complete")
}
