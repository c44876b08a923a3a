package authority

// References:
// https://etcd.io/docs/v3.5/learning/api/#transaction

import (
	"context"
	"strconv"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/xgenio/xgen/lib/infra"
)

const defaultEtcdKeyPrefix = "/xgen/seq/"

var _ BlockAuthority = (*etcdAuthority)(nil)

// etcdAuthority stores one counter key per sequence and advances it with
// a mod-revision guarded transaction. Losing the transaction means a
// concurrent reserver won, so the read-compare-put cycle repeats with
// the fresh revision.
type etcdAuthority struct {
	client       *clientv3.Client
	keyPrefix    string
	initialValue int64
}

type EtcdAuthorityOption func(*etcdAuthority)

func WithEtcdKeyPrefix(prefix string) EtcdAuthorityOption {
	return func(auth *etcdAuthority) { auth.keyPrefix = prefix }
}

func WithEtcdInitialValue(initial int64) EtcdAuthorityOption {
	return func(auth *etcdAuthority) { auth.initialValue = initial }
}

func NewEtcdAuthority(client *clientv3.Client, opts ...EtcdAuthorityOption) (BlockAuthority, error) {
	if client == nil {
		return nil, infra.WrapErrorStack(ErrAuthorityNoInit)
	}
	auth := &etcdAuthority{
		client:    client,
		keyPrefix: defaultEtcdKeyPrefix,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(auth)
		}
	}
	return auth, nil
}

func (auth *etcdAuthority) ReserveBlock(seqName string, blockSize int64) (int64, error) {
	return auth.ReserveBlockContext(context.Background(), seqName, blockSize)
}

func (auth *etcdAuthority) ReserveBlockContext(ctx context.Context, seqName string, blockSize int64) (int64, error) {
	if err := validateReserveArgs(seqName, blockSize); err != nil {
		return 0, err
	}

	key := auth.keyPrefix + seqName
	for {
		if err := ctx.Err(); err != nil {
			return 0, infra.WrapErrorStack(err)
		}

		resp, err := auth.client.Get(ctx, key)
		if err != nil {
			return 0, infra.WrapErrorStackWithMessage(err, "etcd authority read sequence")
		}

		var (
			start int64
			cmp   clientv3.Cmp
		)
		if len(resp.Kvs) < 1 {
			start = auth.initialValue
			cmp = clientv3.Compare(clientv3.CreateRevision(key), "=", 0)
		} else {
			if start, err = strconv.ParseInt(string(resp.Kvs[0].Value), 10, 64); err != nil {
				return 0, infra.WrapErrorStackWithMessage(err, "etcd authority malformed sequence value")
			}
			cmp = clientv3.Compare(clientv3.ModRevision(key), "=", resp.Kvs[0].ModRevision)
		}

		txn, err := auth.client.Txn(ctx).
			If(cmp).
			Then(clientv3.OpPut(key, strconv.FormatInt(start+blockSize, 10))).
			Commit()
		if err != nil {
			return 0, infra.WrapErrorStackWithMessage(err, "etcd authority advance sequence")
		}
		if txn.Succeeded {
			return start, noErr
		}
		// Lost the revision race, go around.
	}
}
