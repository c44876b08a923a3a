package vgen

import (
	"context"

	"github.com/xgenio/xgen/lib/id"
)

var _ ValueGenerator = (*PlaceholderGenerator)(nil)

// PlaceholderGenerator hands out globally-unique opaque strings flagged
// temporary. They are meant to be discarded and replaced before the
// record is durably stored. No shared state, every call is independent.
type PlaceholderGenerator struct {
	guid id.StrGen
}

func NewPlaceholderGenerator() *PlaceholderGenerator {
	return &PlaceholderGenerator{
		guid: id.CryptoGUID(),
	}
}

func (g *PlaceholderGenerator) Next(prop PropertyDescriptor) (GeneratedValue, error) {
	if prop == nil {
		return GeneratedValue{}, ErrMissingProperty
	}
	return GeneratedValue{
		Value:     g.guid(),
		Temporary: true,
	}, noErr
}

func (g *PlaceholderGenerator) NextContext(ctx context.Context, prop PropertyDescriptor) (GeneratedValue, error) {
	// No suspension points, the blocking form already never waits.
	return g.Next(prop)
}
