package authority

import (
	"context"
	"time"
)

// BlockAuthority is the single source of truth for never-reused integer
// ranges. ReserveBlock returns the inclusive start of a fresh contiguous
// range of length blockSize; two calls for the same sequence name never
// observe overlapping ranges.
type BlockAuthority interface {
	ReserveBlock(seqName string, blockSize int64) (int64, error)
	ReserveBlockContext(ctx context.Context, seqName string, blockSize int64) (int64, error)
}

type RetryStrategy interface {
	Next() time.Duration
}

type AuthorityErr string

const (
	ErrReserveBlockFailed AuthorityErr = "failed to reserve sequence block"
	ErrEmptySequenceName  AuthorityErr = "empty sequence name"
	ErrInvalidBlockSize   AuthorityErr = "non-positive block size"
	ErrAuthorityNoInit    AuthorityErr = "no init the block authority"
)

func (err AuthorityErr) Error() string {
	return string(err)
}

var (
	noErr error = nil
)

func validateReserveArgs(seqName string, blockSize int64) error {
	if len(seqName) <= 0 {
		return ErrEmptySequenceName
	}
	if blockSize <= 0 {
		return ErrInvalidBlockSize
	}
	return noErr
}
