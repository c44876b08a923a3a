package authority

// References:
// https://redis.io/docs/latest/commands/incrby/
// https://redis.io/docs/latest/develop/interact/programmability/eval-intro/

import (
	"context"
	_ "embed"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/xgenio/xgen/lib/infra"
)

//go:embed reserve.lua
var luaReserveBlockScript string

var luaReserveBlock = redis.NewScript(luaReserveBlockScript)

const defaultRedisKeyPrefix = "xgen:seq:"

var _ BlockAuthority = (*redisAuthority)(nil)

// redisAuthority keeps one counter key per sequence and reserves blocks
// with an atomic INCRBY, so no two callers ever observe overlapping
// ranges even across processes.
type redisAuthority struct {
	scripterLoader func() redis.Scripter
	keyPrefix      string
	initialValue   int64
}

type RedisAuthorityOption func(*redisAuthority)

func WithRedisKeyPrefix(prefix string) RedisAuthorityOption {
	return func(auth *redisAuthority) { auth.keyPrefix = prefix }
}

func WithRedisInitialValue(initial int64) RedisAuthorityOption {
	return func(auth *redisAuthority) { auth.initialValue = initial }
}

func NewRedisAuthority(scripterLoader func() redis.Scripter, opts ...RedisAuthorityOption) (BlockAuthority, error) {
	if scripterLoader == nil {
		return nil, infra.WrapErrorStack(ErrAuthorityNoInit)
	}
	auth := &redisAuthority{
		scripterLoader: scripterLoader,
		keyPrefix:      defaultRedisKeyPrefix,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(auth)
		}
	}
	return auth, nil
}

func (auth *redisAuthority) ReserveBlock(seqName string, blockSize int64) (int64, error) {
	return auth.ReserveBlockContext(context.Background(), seqName, blockSize)
}

func (auth *redisAuthority) ReserveBlockContext(ctx context.Context, seqName string, blockSize int64) (int64, error) {
	if err := validateReserveArgs(seqName, blockSize); err != nil {
		return 0, err
	}

	res, err := luaReserveBlock.Run(
		ctx,
		auth.scripterLoader(),
		[]string{auth.keyPrefix + seqName},
		blockSize, auth.initialValue,
	).Result()
	if err != nil {
		return 0, infra.WrapErrorStackWithMessage(err, "redis authority reserve block")
	}

	switch start := res.(type) {
	case int64:
		return start, noErr
	case string:
		parsed, perr := strconv.ParseInt(start, 10, 64)
		if perr != nil {
			return 0, infra.WrapErrorStackWithMessage(perr, "redis authority malformed block start")
		}
		return parsed, noErr
	default:
		return 0, infra.WrapErrorStackWithMessage(ErrReserveBlockFailed, "redis authority unexpected reply type")
	}
}
