package etcd

import (
	"context"
	"crypto/tls"
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/magiconair/properties"
	"github.com/pingcap/errors"
	"go.etcd.io/etcd/client/pkg/v3/transport"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/pingcap/go-socialbench/pkg/bench"
)

// properties
const (
	etcdEndpoints   = "etcd.endpoints"
	etcdDialTimeout = "etcd.dial_timeout"
	etcdCertFile    = "etcd.cert_file"
	etcdKeyFile     = "etcd.key_file"
	etcdCaFile      = "etcd.cacert_file"
)

const tablePrefix = "sb/tables/"

type etcdCreator struct{}

// etcdDB maps the store contract onto etcd: a record's version token is its
// ModRevision, so conditional writes become single-key transactions guarded
// by a ModRevision compare.
type etcdDB struct {
	p      *properties.Properties
	client *clientv3.Client
}

func init() {
	bench.RegisterStoreCreator("etcd", etcdCreator{})
}

func (c etcdCreator) Create(p *properties.Properties) (bench.Store, error) {
	cfg, err := getClientConfig(p)
	if err != nil {
		return nil, err
	}

	client, err := clientv3.New(*cfg)
	if err != nil {
		return nil, err
	}

	return &etcdDB{
		p:      p,
		client: client,
	}, nil
}

func getClientConfig(p *properties.Properties) (*clientv3.Config, error) {
	endpoints := p.GetString(etcdEndpoints, "localhost:2379")
	dialTimeout := p.GetDuration(etcdDialTimeout, 2*time.Second)

	var tlsConfig *tls.Config
	if strings.Contains(endpoints, "https") {
		tlsInfo := transport.TLSInfo{
			CertFile:      p.MustGetString(etcdCertFile),
			KeyFile:       p.MustGetString(etcdKeyFile),
			TrustedCAFile: p.MustGetString(etcdCaFile),
		}
		c, err := tlsInfo.ClientConfig()
		if err != nil {
			return nil, err
		}
		tlsConfig = c
	}

	return &clientv3.Config{
		Endpoints:   strings.Split(endpoints, ","),
		DialTimeout: dialTimeout,
		TLS:         tlsConfig,
	}, nil
}

func (db *etcdDB) Close() error {
	return db.client.Close()
}

func (db *etcdDB) InitThread(ctx context.Context, _ int, _ int) context.Context {
	return ctx
}

func (db *etcdDB) CleanupThread(_ context.Context) {
}

func getRowKey(table uint64, key []byte) string {
	return fmt.Sprintf("sb/r/%d/%s", table, key)
}

func (db *etcdDB) CreateTable(ctx context.Context, name string) (uint64, error) {
	// allocate the next table id, then publish it for the name unless a
	// concurrent creator won; either way return whatever the name maps to.
	for {
		id, err := db.IncrementAndGet(ctx, 0, []byte("sb/tables/next"), 1)
		if err != nil {
			return 0, err
		}
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(id))
		resp, err := db.client.Txn(ctx).
			If(clientv3.Compare(clientv3.CreateRevision(tablePrefix+name), "=", 0)).
			Then(clientv3.OpPut(tablePrefix+name, string(buf[:]))).
			Commit()
		if err != nil {
			return 0, errors.Trace(err)
		}
		if resp.Succeeded {
			return uint64(id), nil
		}
		existing, err := db.GetTableID(ctx, name)
		if err == nil {
			return existing, nil
		}
	}
}

func (db *etcdDB) GetTableID(ctx context.Context, name string) (uint64, error) {
	resp, err := db.client.Get(ctx, tablePrefix+name)
	if err != nil {
		return 0, errors.Trace(err)
	}
	if resp.Count == 0 {
		return 0, errors.Annotatef(bench.ErrNotFound, "table %s", name)
	}
	return binary.LittleEndian.Uint64(resp.Kvs[0].Value), nil
}

func (db *etcdDB) Read(ctx context.Context, table uint64, key []byte) ([]byte, bench.Version, error) {
	resp, err := db.client.Get(ctx, getRowKey(table, key))
	if err != nil {
		return nil, 0, errors.Trace(err)
	}
	if resp.Count == 0 {
		return nil, 0, bench.ErrNotFound
	}
	return resp.Kvs[0].Value, bench.Version(resp.Kvs[0].ModRevision), nil
}

func (db *etcdDB) Write(ctx context.Context, table uint64, key []byte, value []byte) error {
	_, err := db.client.Put(ctx, getRowKey(table, key), string(value))
	return errors.Trace(err)
}

func (db *etcdDB) ConditionalWrite(ctx context.Context, table uint64, key []byte, value []byte, maxVersion bench.Version) error {
	rkey := getRowKey(table, key)
	resp, err := db.client.Txn(ctx).
		If(clientv3.Compare(clientv3.ModRevision(rkey), "<", int64(maxVersion)+1)).
		Then(clientv3.OpPut(rkey, string(value))).
		Commit()
	if err != nil {
		return errors.Trace(err)
	}
	if !resp.Succeeded {
		return bench.ErrRejected
	}
	return nil
}

func (db *etcdDB) IncrementAndGet(ctx context.Context, table uint64, key []byte, delta int64) (int64, error) {
	rkey := getRowKey(table, key)
	for {
		resp, err := db.client.Get(ctx, rkey)
		if err != nil {
			return 0, errors.Trace(err)
		}

		var current, rev int64
		if resp.Count > 0 {
			kv := resp.Kvs[0]
			if len(kv.Value) != 8 {
				return 0, errors.Errorf("record is not a counter, length %d", len(kv.Value))
			}
			current = int64(binary.LittleEndian.Uint64(kv.Value))
			rev = kv.ModRevision
		}

		next := current + delta
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(next))

		txn, err := db.client.Txn(ctx).
			If(clientv3.Compare(clientv3.ModRevision(rkey), "=", rev)).
			Then(clientv3.OpPut(rkey, string(buf[:]))).
			Commit()
		if err != nil {
			return 0, errors.Trace(err)
		}
		if txn.Succeeded {
			return next, nil
		}
		// lost the race, reread and retry
	}
}

func (db *etcdDB) MultiRead(ctx context.Context, items []bench.ReadItem) ([]bench.ReadResult, error) {
	ops := make([]clientv3.Op, len(items))
	for i, item := range items {
		ops[i] = clientv3.OpGet(getRowKey(item.Table, item.Key))
	}
	resp, err := db.client.Txn(ctx).Then(ops...).Commit()
	if err != nil {
		return nil, errors.Trace(err)
	}

	results := make([]bench.ReadResult, len(items))
	for i, r := range resp.Responses {
		rr := r.GetResponseRange()
		if rr == nil || len(rr.Kvs) == 0 {
			results[i] = bench.ReadResult{Err: bench.ErrNotFound}
			continue
		}
		results[i] = bench.ReadResult{
			Value:   rr.Kvs[0].Value,
			Version: bench.Version(rr.Kvs[0].ModRevision),
		}
	}
	return results, nil
}

func (db *etcdDB) MultiWrite(ctx context.Context, items []bench.WriteItem) ([]error, error) {
	// each item carries its own precondition, so this cannot be a single
	// etcd transaction; issue them one by one and keep per-item status.
	statuses := make([]error, len(items))
	for i, item := range items {
		if item.Conditional {
			statuses[i] = db.ConditionalWrite(ctx, item.Table, item.Key, item.Value, item.MaxVersion)
		} else {
			statuses[i] = db.Write(ctx, item.Table, item.Key, item.Value)
		}
	}
	return statuses, nil
}
