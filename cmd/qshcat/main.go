package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"qshflow/logger"
	"qshflow/models"
	"qshflow/qsh"
	"qshflow/reader"
)

func main() {
	log := logger.GetLogger()

	in := flag.String("in", "", "QSH capture file to dump")
	limit := flag.Int("n", 0, "Stop after this many records (0 = all)")
	flag.Parse()

	if *in == "" {
		fmt.Fprintln(os.Stderr, "usage: qshcat -in file.qsh [-n N]")
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

	entry := log.WithComponent("qshcat")
	entry.WithFields(logger.Fields{
		"stream":     hdr.Stream.String(),
		"instrument": hdr.Instrument,
		"recorder":   hdr.Recorder,
		"comment":    hdr.Comment,
		"recorded":   qsh.TicksToUnix(hdr.RecordingTime),
	}).Info("header")

	var next func() (any, error)
	switch hdr.Stream {
	case models.StreamOrderLog:
		d := reader.NewOrderLogReader(r)
		next = func() (any, error) { return d.Next() }
	case models.StreamDeals:
		d := reader.NewDealReader(r)
		next = func() (any, error) { return d.Next() }
	case models.StreamQuotes:
		d := reader.NewQuotesReader(r)
		next = func() (any, error) { return d.Next() }
	case models.StreamAuxInfo:
		d := reader.NewAuxInfoReader(r)
		next = func() (any, error) { return d.Next() }
	}

	n := 0
	for *limit == 0 || n < *limit {
		rec, err := next()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.WithError(err).WithFields(logger.Fields{"records": n}).Error("decode failed")
			os.Exit(1)
		}
		fmt.Printf("%+v\n", rec)
		n++
	}
	entry.WithFields(logger.Fields{"records": n}).Info("done")
}
