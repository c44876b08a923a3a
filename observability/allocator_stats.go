package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xgenio/xgen/vgen"
)

var _ vgen.AllocatorStats = (*AllocatorStats)(nil)

// AllocatorStats publishes allocator events as otel counters, one
// attribute per sequence name.
type AllocatorStats struct {
	issued            metric.Int64Counter
	refills           metric.Int64Counter
	authorityFailures metric.Int64Counter
	blockSpan         metric.Int64Histogram
}

func NewAllocatorStats(scope string) (*AllocatorStats, error) {
	meter := otel.Meter("xgen/allocator/" + scope)

	issued, err := meter.Int64Counter(
		"allocator.values.issued",
		metric.WithDescription(`Values handed out from held blocks.`),
	)
	if err != nil {
		return nil, err
	}
	refills, err := meter.Int64Counter(
		"allocator.blocks.refilled",
		metric.WithDescription(`Authority round trips that installed a fresh block.`),
	)
	if err != nil {
		return nil, err
	}
	authorityFailures, err := meter.Int64Counter(
		"allocator.authority.failures",
		metric.WithDescription(`Failed block reservation round trips.`),
	)
	if err != nil {
		return nil, err
	}
	blockSpan, err := meter.Int64Histogram(
		"allocator.blocks.span",
		metric.WithDescription(`Size of installed blocks.`),
	)
	if err != nil {
		return nil, err
	}
	return &AllocatorStats{
		issued:            issued,
		refills:           refills,
		authorityFailures: authorityFailures,
		blockSpan:         blockSpan,
	}, nil
}

func (stats *AllocatorStats) OnValueIssued(seqName string) {
	stats.issued.Add(context.Background(), 1, metric.WithAttributes(attribute.String("sequence", seqName)))
}

func (stats *AllocatorStats) OnBlockRefilled(seqName string, start, limit int64) {
	attrs := metric.WithAttributes(attribute.String("sequence", seqName))
	stats.refills.Add(context.Background(), 1, attrs)
	stats.blockSpan.Record(context.Background(), limit-start, attrs)
}

func (stats *AllocatorStats) OnAuthorityFailure(seqName string) {
	stats.authorityFailures.Add(context.Background(), 1, metric.WithAttributes(attribute.String("sequence", seqName)))
}
