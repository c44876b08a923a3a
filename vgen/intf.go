package vgen

import (
	"context"
)

// ValueKind is the target scalar type a generated value must be
// formatted to. The property descriptor carries it, nothing else about
// the property matters here.
type ValueKind uint8

const (
	KindInt64 ValueKind = iota
	KindString
)

// PropertyDescriptor is an opaque handle onto the metadata layer.
type PropertyDescriptor interface {
	Name() string
	Kind() ValueKind
}

// GeneratedValue pairs a value with the temporary flag. Temporary
// values are placeholders and must be replaced before durable storage.
type GeneratedValue struct {
	Value     any
	Temporary bool
}

// ValueGenerator produces a value for a given property. NextContext is
// the suspending form, it honors cancellation on any internal wait.
type ValueGenerator interface {
	Next(prop PropertyDescriptor) (GeneratedValue, error)
	NextContext(ctx context.Context, prop PropertyDescriptor) (GeneratedValue, error)
}

type GenErr string

const (
	ErrMissingProperty   GenErr = "missing property descriptor"
	ErrMissingAuthority  GenErr = "missing block authority"
	ErrEmptySequenceName GenErr = "empty sequence name"
	ErrInvalidBlockSize  GenErr = "non-positive block size"
)

func (err GenErr) Error() string {
	return string(err)
}

var (
	noErr error = nil
)

var _ PropertyDescriptor = (*property)(nil)

type property struct {
	name string
	kind ValueKind
}

func (prop *property) Name() string    { return prop.name }
func (prop *property) Kind() ValueKind { return prop.kind }

// NewProperty builds a minimal standalone descriptor. Real metadata
// layers supply their own PropertyDescriptor implementations.
func NewProperty(name string, kind ValueKind) PropertyDescriptor {
	return &property{name: name, kind: kind}
}

// AllocatorStats receives allocator events. Implementations must be
// safe for concurrent use; the zero-cost default is nopStats.
type AllocatorStats interface {
	OnValueIssued(seqName string)
	OnBlockRefilled(seqName string, start, limit int64)
	OnAuthorityFailure(seqName string)
}

type nopStats struct{}

func (nopStats) OnValueIssued(string)               {}
func (nopStats) OnBlockRefilled(string, int64, int64) {}
func (nopStats) OnAuthorityFailure(string)          {}
