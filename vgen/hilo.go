package vgen

// Hi-lo block allocation. Values are claimed from the currently held
// block through a lock-free compare-and-swap loop; only block refills
// go through a mutual exclusion section and the authority round trip.

import (
	"context"
	"strconv"
	"sync/atomic"
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/sys/cpu"

	"github.com/xgenio/xgen/authority"
	"github.com/xgenio/xgen/lib/infra"
	"github.com/xgenio/xgen/xlog"
)

const cacheLinePadSize = unsafe.Sizeof(cpu.CacheLinePad{})

const casSpinCycles = 30

// sequenceWindow is the immutable (current, limit) pair over the block
// currently held by the allocator. It is replaced as a whole on every
// transition, never mutated in place, so publication stays atomic.
// current is the last value handed out, limit the exclusive upper
// bound; current+1 >= limit signals exhaustion. epoch increments on
// every refill and nothing else, which lets the slow path detect
// "already refreshed" even if two authority blocks ever shared a limit.
type sequenceWindow struct {
	current int64
	limit   int64
	epoch   uint64
}

var _ ValueGenerator = (*boundAllocator)(nil)

// BlockAllocator hands out unique int64 values for one sequence. One
// instance per sequence name is shared by all callers; sharing the
// instance is the sharing mechanism, there is no ambient registry.
type BlockAllocator struct {
	seqName   string
	blockSize int64
	logger    xlog.XLogger
	stats     AllocatorStats

	// The window pointer is the only shared mutable state. Padded to a
	// cache line so fast-path CAS traffic does not false-share with the
	// neighbouring fields.
	_      [cacheLinePadSize - unsafe.Sizeof(atomic.Pointer[sequenceWindow]{})]byte
	window atomic.Pointer[sequenceWindow]
	_      [cacheLinePadSize - unsafe.Sizeof(atomic.Pointer[sequenceWindow]{})]byte

	refill section
}

type BlockAllocatorOption func(*BlockAllocator)

func WithAllocatorLogger(logger xlog.XLogger) BlockAllocatorOption {
	return func(ba *BlockAllocator) {
		if logger != nil {
			ba.logger = logger.Named("Allocator")
		}
	}
}

func WithAllocatorStats(stats AllocatorStats) BlockAllocatorOption {
	return func(ba *BlockAllocator) {
		if stats != nil {
			ba.stats = stats
		}
	}
}

func NewBlockAllocator(seqName string, blockSize int64, opts ...BlockAllocatorOption) (*BlockAllocator, error) {
	if len(seqName) <= 0 {
		return nil, ErrEmptySequenceName
	}
	if blockSize <= 0 {
		return nil, ErrInvalidBlockSize
	}
	ba := &BlockAllocator{
		seqName:   seqName,
		blockSize: blockSize,
		stats:     nopStats{},
		refill:    newSection(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(ba)
		}
	}
	// Sentinel window, already exhausted so the first caller refills.
	ba.window.Store(&sequenceWindow{current: -1, limit: 0})
	return ba, noErr
}

func (ba *BlockAllocator) SequenceName() string { return ba.seqName }
func (ba *BlockAllocator) BlockSize() int64     { return ba.blockSize }

// Next is the blocking form of value generation.
func (ba *BlockAllocator) Next(prop PropertyDescriptor, auth authority.BlockAuthority) (GeneratedValue, error) {
	return ba.NextContext(context.Background(), prop, auth)
}

// NextContext is the suspending form. The fast path never waits; ctx is
// consulted on the refill section acquisition and the authority round
// trip only.
func (ba *BlockAllocator) NextContext(ctx context.Context, prop PropertyDescriptor, auth authority.BlockAuthority) (GeneratedValue, error) {
	if prop == nil {
		return GeneratedValue{}, ErrMissingProperty
	}
	if auth == nil {
		return GeneratedValue{}, ErrMissingAuthority
	}
	value, err := ba.nextValue(ctx, auth)
	if err != nil {
		return GeneratedValue{}, err
	}
	ba.stats.OnValueIssued(ba.seqName)
	return formatValue(prop, value), noErr
}

// nextValue runs the shared state machine of both calling conventions.
func (ba *BlockAllocator) nextValue(ctx context.Context, auth authority.BlockAuthority) (int64, error) {
	for {
		observed := ba.window.Load()
		claimed := &sequenceWindow{
			current: observed.current + 1,
			limit:   observed.limit,
			epoch:   observed.epoch,
		}
		if !ba.window.CompareAndSwap(observed, claimed) {
			// Another claimer won, reread fresh state.
			infra.ProcYield(casSpinCycles)
			continue
		}
		if claimed.current < claimed.limit {
			return claimed.current, noErr
		}

		// Exhausted. Exactly one contender performs the round trip, the
		// rest observe the bumped epoch and go back to the fast path.
		if err := ba.refill.lockContext(ctx); err != nil {
			return 0, infra.WrapErrorStack(err)
		}
		if ba.window.Load().epoch == claimed.epoch {
			start, err := auth.ReserveBlockContext(ctx, ba.seqName, ba.blockSize)
			if err != nil {
				ba.refill.unlock()
				ba.stats.OnAuthorityFailure(ba.seqName)
				return 0, infra.WrapErrorStackWithMessage(err, "reserve block for sequence "+ba.seqName)
			}
			fresh := &sequenceWindow{
				current: start - 1,
				limit:   start + ba.blockSize,
				epoch:   claimed.epoch + 1,
			}
			ba.window.Store(fresh)
			ba.stats.OnBlockRefilled(ba.seqName, start, fresh.limit)
			if ba.logger != nil {
				ba.logger.Debug("block refilled",
					zap.String("sequence", ba.seqName),
					zap.Int64("start", start),
					zap.Int64("limit", fresh.limit),
				)
			}
		}
		ba.refill.unlock()
		// The fresh block may already be drained by the time we loop,
		// expected under contention with small block sizes.
	}
}

// Generator binds an authority and yields the shared value-generator
// contract over this allocator.
func (ba *BlockAllocator) Generator(auth authority.BlockAuthority) (ValueGenerator, error) {
	if auth == nil {
		return nil, ErrMissingAuthority
	}
	return &boundAllocator{allocator: ba, auth: auth}, noErr
}

type boundAllocator struct {
	allocator *BlockAllocator
	auth      authority.BlockAuthority
}

func (ga *boundAllocator) Next(prop PropertyDescriptor) (GeneratedValue, error) {
	return ga.allocator.Next(prop, ga.auth)
}

func (ga *boundAllocator) NextContext(ctx context.Context, prop PropertyDescriptor) (GeneratedValue, error) {
	return ga.allocator.NextContext(ctx, prop, ga.auth)
}

func formatValue(prop PropertyDescriptor, value int64) GeneratedValue {
	switch prop.Kind() {
	case KindString:
		return GeneratedValue{Value: strconv.FormatInt(value, 10)}
	case KindInt64:
		fallthrough
	default:
	}
	return GeneratedValue{Value: value}
}
