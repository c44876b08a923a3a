package vgen

import (
	"go.uber.org/fx"

	"github.com/xgenio/xgen/config"
	"github.com/xgenio/xgen/xlog"
)

// AllocatorSet maps sequence names onto their shared allocator
// instances. One instance per sequence is the sharing contract, so the
// set is built once and handed to every consumer.
type AllocatorSet map[string]*BlockAllocator

func (set AllocatorSet) Get(seqName string) (*BlockAllocator, bool) {
	ba, ok := set[seqName]
	return ba, ok
}

func NewAllocatorSet(cfg *config.Config, logger xlog.XLogger) (AllocatorSet, error) {
	set := make(AllocatorSet, len(cfg.Sequences))
	for _, spec := range cfg.Sequences {
		ba, err := NewBlockAllocator(spec.Name, spec.BlockSize, WithAllocatorLogger(logger))
		if err != nil {
			return nil, err
		}
		set[spec.Name] = ba
	}
	return set, noErr
}

// Module wires the value generators for fx applications. The config
// and logger are expected from the enclosing app.
var Module = fx.Module("xgen/vgen",
	fx.Provide(
		NewPlaceholderGenerator,
		NewAllocatorSet,
	),
)
