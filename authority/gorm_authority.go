package authority

// A relational rendition of the block authority. One row per sequence,
// advanced with an optimistic compare-and-swap update so it stays
// portable across dialects without row locks (sqlite has no
// SELECT ... FOR UPDATE).

import (
	"context"
	"errors"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/xgenio/xgen/lib/infra"
)

// SequenceRow is the persisted cursor of one named sequence.
// NextValue is the start of the next unreserved block.
type SequenceRow struct {
	Name      string `gorm:"column:name;primaryKey"`
	NextValue int64  `gorm:"column:next_value;not null"`
}

func (SequenceRow) TableName() string { return "xgen_sequences" }

var _ BlockAuthority = (*gormAuthority)(nil)

type gormAuthority struct {
	db            *gorm.DB
	initialValue  int64
	strategy      func() RetryStrategy
	skipMigration bool
}

type GormAuthorityOption func(*gormAuthority)

// WithGormInitialValue sets the first value handed out for sequences
// created on demand. Defaults to 0.
func WithGormInitialValue(initial int64) GormAuthorityOption {
	return func(auth *gormAuthority) { auth.initialValue = initial }
}

// WithGormRetryStrategy supplies a fresh retry strategy per reserve call
// for transient database failures.
func WithGormRetryStrategy(strategy func() RetryStrategy) GormAuthorityOption {
	return func(auth *gormAuthority) { auth.strategy = strategy }
}

// WithGormSkipMigration leaves the sequences table schema to the caller.
func WithGormSkipMigration() GormAuthorityOption {
	return func(auth *gormAuthority) { auth.skipMigration = true }
}

func NewGormAuthority(db *gorm.DB, opts ...GormAuthorityOption) (BlockAuthority, error) {
	if db == nil {
		return nil, infra.WrapErrorStack(ErrAuthorityNoInit)
	}
	auth := &gormAuthority{
		db:       db,
		strategy: DefaultExponentialBackoffRetry,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(auth)
		}
	}
	if !auth.skipMigration {
		if err := db.AutoMigrate(&SequenceRow{}); err != nil {
			return nil, infra.WrapErrorStackWithMessage(err, "migrate sequences table")
		}
	}
	return auth, nil
}

func (auth *gormAuthority) ReserveBlock(seqName string, blockSize int64) (int64, error) {
	return auth.ReserveBlockContext(context.Background(), seqName, blockSize)
}

func (auth *gormAuthority) ReserveBlockContext(ctx context.Context, seqName string, blockSize int64) (int64, error) {
	if err := validateReserveArgs(seqName, blockSize); err != nil {
		return 0, err
	}

	retry := auth.strategy()
	var (
		ticker *time.Ticker
		merr   error
	)
	for {
		start, err := auth.reserveOnce(ctx, seqName, blockSize)
		if err == nil {
			return start, noErr
		}
		merr = multierr.Append(merr, err)

		backoff := retry.Next()
		if backoff.Milliseconds() < 1 {
			return 0, infra.WrapErrorStackWithMessage(multierr.Combine(merr, ErrReserveBlockFailed), "gorm authority retry reach to max")
		}

		if ticker == nil {
			ticker = time.NewTicker(backoff)
			defer ticker.Stop() // Avoid ticker leak.
		} else {
			ticker.Reset(backoff)
		}

		select {
		case <-ctx.Done():
			return 0, infra.WrapErrorStack(multierr.Combine(merr, ctx.Err()))
		case <-ticker.C:
			// continue
		}
	}
}

func (auth *gormAuthority) reserveOnce(ctx context.Context, seqName string, blockSize int64) (int64, error) {
	db := auth.db.WithContext(ctx)
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		row := SequenceRow{}
		err := db.Take(&row, "name = ?", seqName).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			row = SequenceRow{Name: seqName, NextValue: auth.initialValue}
			if err = db.Create(&row).Error; err != nil {
				reread := SequenceRow{}
				if db.Take(&reread, "name = ?", seqName).Error == nil {
					// A racer created the row first.
					continue
				}
				return 0, err
			}
		} else if err != nil {
			return 0, err
		}

		res := db.Model(&SequenceRow{}).
			Where("name = ? AND next_value = ?", seqName, row.NextValue).
			Update("next_value", row.NextValue+blockSize)
		if res.Error != nil {
			return 0, res.Error
		}
		if res.RowsAffected < 1 {
			// Lost the compare-and-swap against a concurrent reserver.
			continue
		}
		return row.NextValue, noErr
	}
}
