package observability

import (
	"context"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/samber/lo"
	"github.com/shirou/gopsutil/v3/process"
	otelruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	_ "go.uber.org/automaxprocs"
)

var (
	once sync.Once
)

type appStats struct {
	ctx               context.Context
	shutdownCallbacks []func(ctx context.Context) error
	goroutines        metric.Int64ObservableUpDownCounter
	processes         metric.Int64ObservableUpDownCounter
	residentMemory    metric.Int64ObservableGauge
}

func (stats *appStats) waitForShutdown() {
	if stats == nil || len(stats.shutdownCallbacks) <= 0 {
		return
	}
	go func() {
		<-stats.ctx.Done()
		for _, callback := range stats.shutdownCallbacks {
			_ = callback(context.Background())
		}
	}()
}

// InitAppStats registers process-wide gauges once per process. The
// callbacks, usually the meter provider shutdown returned by the
// exporter constructors, run after ctx is cancelled.
func InitAppStats(ctx context.Context, name string, shutdownCallbacks ...func(ctx context.Context) error) {
	once.Do(func() {
		builder := &strings.Builder{}
		builder.WriteString("xgen/app")
		if len(strings.TrimSpace(name)) > 0 {
			builder.WriteString("/")
			builder.WriteString(name)
		} else {
			builder.WriteString("/")
			builder.WriteString("default")
		}
		name = builder.String()
		proc, perr := process.NewProcess(int32(os.Getpid()))
		stats := &appStats{
			ctx:               ctx,
			shutdownCallbacks: shutdownCallbacks,
			goroutines: lo.Must[metric.Int64ObservableUpDownCounter](otel.Meter(
				name,
				metric.WithInstrumentationVersion(otelruntime.Version()),
			).Int64ObservableUpDownCounter(
				"app.core.goroutines",
				metric.WithDescription(`The application goroutines' info.`),
				metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
					ob.Observe(int64(runtime.NumGoroutine()))
					return nil
				}),
			)),
			processes: lo.Must[metric.Int64ObservableUpDownCounter](otel.Meter(
				name,
				metric.WithInstrumentationVersion(otelruntime.Version()),
			).Int64ObservableUpDownCounter(
				"app.core.processes",
				metric.WithDescription(`The application processes' info.`),
				metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
					ob.Observe(int64(runtime.GOMAXPROCS(0)))
					return nil
				}),
			)),
		}
		if perr == nil {
			stats.residentMemory = lo.Must[metric.Int64ObservableGauge](otel.Meter(
				name,
				metric.WithInstrumentationVersion(otelruntime.Version()),
			).Int64ObservableGauge(
				"app.core.rss",
				metric.WithDescription(`The application resident memory info.`),
				metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
					mem, err := proc.MemoryInfo()
					if err != nil {
						return err
					}
					ob.Observe(int64(mem.RSS))
					return nil
				}),
			))
		}
		_ = otelruntime.Start()
		stats.waitForShutdown()
	})
}
