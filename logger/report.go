package logger

import (
	"context"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aws/aws-sdk-go-v2/aws"                              //cloudwatch
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types" //cloudwatch
)

type channelStat struct {
	messages int64
	bytes    int64
}

var (
	errorsDecode   int64
	errorsBook     int64
	errorsWriter   int64
	warnsDecode    int64
	warnsBook      int64
	warnsWriter    int64
	recordsDecoded int64
	transactions   int64
	snapshots      int64
	s3Writes       int64
	channels       sync.Map // map[string]*channelStat
)

func recordWarn(component string) {
	switch {
	case strings.Contains(component, "reader") || strings.Contains(component, "decode"):
		atomic.AddInt64(&warnsDecode, 1)
	case strings.Contains(component, "book") || strings.Contains(component, "producer"):
		atomic.AddInt64(&warnsBook, 1)
	case strings.Contains(component, "writer"):
		atomic.AddInt64(&warnsWriter, 1)
	}
}

func recordError(component string) {
	switch {
	case strings.Contains(component, "reader") || strings.Contains(component, "decode"):
		atomic.AddInt64(&errorsDecode, 1)
	case strings.Contains(component, "book") || strings.Contains(component, "producer"):
		atomic.AddInt64(&errorsBook, 1)
	case strings.Contains(component, "writer"):
		atomic.AddInt64(&errorsWriter, 1)
	}
}

// IncrementRecords counts one decoded record of any stream kind.
func IncrementRecords() {
	atomic.AddInt64(&recordsDecoded, 1)
}

// IncrementTransactions counts one applied order-log transaction.
func IncrementTransactions() {
	atomic.AddInt64(&transactions, 1)
}

// IncrementSnapshots counts one emitted depth row.
func IncrementSnapshots() {
	atomic.AddInt64(&snapshots, 1)
}

// IncrementS3Write counts one uploaded object of the given size.
func IncrementS3Write(size int64) {
	atomic.AddInt64(&s3Writes, 1)
	recordChannel("s3_write", int(size))
}

func RecordChannelMessage(name string, size int) {
	recordChannel(name, size)
}

func recordChannel(name string, size int) {
	v, _ := channels.LoadOrStore(name, &channelStat{})
	cs := v.(*channelStat)
	atomic.AddInt64(&cs.messages, 1)
	atomic.AddInt64(&cs.bytes, int64(size))
}

func startReport(ctx context.Context, log *Log, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-ticker.C:
				logReport(ctx, log)
			}
		}
	}()
}

// StartReport begins periodic logging of system and pipeline statistics.
// It exposes the internal startReport function for use by other packages.
func StartReport(ctx context.Context, log *Log, interval time.Duration) {
	startReport(ctx, log, interval)
}

func logReport(ctx context.Context, log *Log) {
	cpuPercent, _ := cpu.Percent(0, false)
	memStats, _ := mem.VirtualMemory()
	diskStats, _ := disk.Usage("/")
	channelData := map[string]map[string]int64{}
	channels.Range(func(k, v any) bool {
		name := k.(string)
		cs := v.(*channelStat)
		channelData[name] = map[string]int64{
			"messages": atomic.LoadInt64(&cs.messages),
			"bytes":    atomic.LoadInt64(&cs.bytes),
		}
		return true
	})

	cpuPct := 0.0
	if len(cpuPercent) > 0 {
		cpuPct = cpuPercent[0]
	}

	fields := Fields{
		"errors_decode":   atomic.LoadInt64(&errorsDecode),
		"errors_book":     atomic.LoadInt64(&errorsBook),
		"errors_writer":   atomic.LoadInt64(&errorsWriter),
		"warns_decode":    atomic.LoadInt64(&warnsDecode),
		"warns_book":      atomic.LoadInt64(&warnsBook),
		"warns_writer":    atomic.LoadInt64(&warnsWriter),
		"records_decoded": atomic.LoadInt64(&recordsDecoded),
		"transactions":    atomic.LoadInt64(&transactions),
		"snapshots":       atomic.LoadInt64(&snapshots),
		"s3_writes":       atomic.LoadInt64(&s3Writes),
		"goroutines":      runtime.NumGoroutine(),
		"cpu_percent":     cpuPct,
		"memory_mb":       int64(memStats.Used) / 1024 / 1024,
		"disk_mb":         int64(diskStats.Used) / 1024 / 1024,
		"channels":        channelData,
	}

	log.WithComponent("report").WithFields(fields).Info("runtime report")

	var data []cwtypes.MetricDatum
	data = append(data,
		cwtypes.MetricDatum{MetricName: aws.String("Qsh-CPUPercent"), Unit: cwtypes.StandardUnitPercent, Value: aws.Float64(cpuPct)},
		cwtypes.MetricDatum{MetricName: aws.String("Qsh-MemoryMB"), Unit: cwtypes.StandardUnitMegabytes, Value: aws.Float64(float64(memStats.Used) / 1024 / 1024)},
		cwtypes.MetricDatum{MetricName: aws.String("Qsh-DiskMB"), Unit: cwtypes.StandardUnitMegabytes, Value: aws.Float64(float64(diskStats.Used) / 1024 / 1024)},
		cwtypes.MetricDatum{MetricName: aws.String("Qsh-ErrorsDecode"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["errors_decode"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("Qsh-ErrorsBook"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["errors_book"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("Qsh-ErrorsWriter"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["errors_writer"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("Qsh-WarnsDecode"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["warns_decode"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("Qsh-WarnsBook"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["warns_book"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("Qsh-WarnsWriter"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["warns_writer"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("Qsh-RecordsDecoded"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["records_decoded"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("Qsh-Transactions"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["transactions"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("Qsh-Snapshots"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["snapshots"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("Qsh-S3Writes"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["s3_writes"].(int64)))},
	)

	for name, stats := range channelData {
		data = append(data,
			cwtypes.MetricDatum{
				MetricName: aws.String("Qsh-ChannelMessages"),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{{Name: aws.String("Channel"), Value: aws.String(name)}},
				Value:      aws.Float64(float64(stats["messages"])),
			},
			cwtypes.MetricDatum{
				MetricName: aws.String("Qsh-ChannelBytes"),
				Unit:       cwtypes.StandardUnitBytes,
				Dimensions: []cwtypes.Dimension{{Name: aws.String("Channel"), Value: aws.String(name)}},
				Value:      aws.Float64(float64(stats["bytes"])),
			},
		)
	}

	publishMetrics(ctx, data)
}
