package redis

import (
	"context"
	"crypto/tls"
	"fmt"
	"strconv"
	"strings"

	goredis "github.com/go-redis/redis/v9"
	"github.com/magiconair/properties"
	"github.com/pingcap/errors"

	"github.com/pingcap/go-socialbench/pkg/bench"
	"github.com/pingcap/go-socialbench/pkg/util"
)

// properties
const (
	redisMode               = "redis.mode"
	redisNetwork            = "redis.network"
	redisAddr               = "redis.addr"
	redisPassword           = "redis.password"
	redisDBNum              = "redis.db"
	redisMaxRedirects       = "redis.max_redirects"
	redisReadOnly           = "redis.read_only"
	redisRouteByLatency     = "redis.route_by_latency"
	redisRouteRandomly      = "redis.route_randomly"
	redisPoolSize           = "redis.pool_size"
	redisMinIdleConns       = "redis.min_idle_conns"
	redisTLSCA              = "redis.tls_ca"
	redisTLSCert            = "redis.tls_cert"
	redisTLSKey             = "redis.tls_key"
	redisTLSInsecureSkipVer = "redis.tls_insecure_skip_verify"

	redisModeSingle  = "single"
	redisModeCluster = "cluster"
)

const tableKey = "sb:tables"
const tableSeqKey = "sb:tables:next"

type redisCreator struct{}

// redisDB keeps each record as a hash of two fields: "v" holds the value
// bytes and "ver" a monotonically increasing write counter that serves as
// the record's version token. The scripts below bump and check "ver"
// atomically so the version a reader saw can be used as a write guard.
type redisDB struct {
	client goredis.UniversalClient
}

// KEYS[1] record; ARGV[1] value
var writeScript = goredis.NewScript(`
redis.call('HSET', KEYS[1], 'v', ARGV[1])
return redis.call('HINCRBY', KEYS[1], 'ver', 1)`)

// KEYS[1] record; ARGV[1] value, ARGV[2] max version
var condWriteScript = goredis.NewScript(`
local ver = redis.call('HGET', KEYS[1], 'ver')
if ver and tonumber(ver) > tonumber(ARGV[2]) then
  return -1
end
redis.call('HSET', KEYS[1], 'v', ARGV[1])
return redis.call('HINCRBY', KEYS[1], 'ver', 1)`)

// KEYS[1] record; ARGV[1] delta
// counters are 8-byte little-endian values inside the same record shape,
// so seeding one with a plain write and incrementing it later both work.
var incrScript = goredis.NewScript(`
local v = redis.call('HGET', KEYS[1], 'v')
local cur = 0
if v then
  if string.len(v) ~= 8 then
    return redis.error_reply('record is not a counter')
  end
  local b = {string.byte(v, 1, 8)}
  for i = 8, 1, -1 do
    cur = cur * 256 + b[i]
  end
end
local next = cur + tonumber(ARGV[1])
local out = {}
local rem = next
for i = 1, 8 do
  out[i] = rem % 256
  rem = math.floor(rem / 256)
end
redis.call('HSET', KEYS[1], 'v', string.char(unpack(out)))
redis.call('HINCRBY', KEYS[1], 'ver', 1)
return next`)

func init() {
	bench.RegisterStoreCreator("redis", redisCreator{})
}

func (c redisCreator) Create(p *properties.Properties) (bench.Store, error) {
	tlsConfig, err := getTLS(p)
	if err != nil {
		return nil, err
	}

	var client goredis.UniversalClient
	mode := p.GetString(redisMode, redisModeSingle)
	switch mode {
	case redisModeCluster:
		client = goredis.NewClusterClient(&goredis.ClusterOptions{
			Addrs:          strings.Split(p.GetString(redisAddr, "localhost:6379"), ","),
			MaxRedirects:   p.GetInt(redisMaxRedirects, 0),
			ReadOnly:       p.GetBool(redisReadOnly, false),
			RouteByLatency: p.GetBool(redisRouteByLatency, false),
			RouteRandomly:  p.GetBool(redisRouteRandomly, false),
			Password:       p.GetString(redisPassword, ""),
			PoolSize:       p.GetInt(redisPoolSize, 0),
			MinIdleConns:   p.GetInt(redisMinIdleConns, 0),
			TLSConfig:      tlsConfig,
		})
	case redisModeSingle:
		client = goredis.NewClient(&goredis.Options{
			Network:      p.GetString(redisNetwork, "tcp"),
			Addr:         p.GetString(redisAddr, "localhost:6379"),
			Password:     p.GetString(redisPassword, ""),
			DB:           p.GetInt(redisDBNum, 0),
			PoolSize:     p.GetInt(redisPoolSize, 0),
			MinIdleConns: p.GetInt(redisMinIdleConns, 0),
			TLSConfig:    tlsConfig,
		})
	default:
		return nil, errors.Errorf("invalid redis mode %s, expect single or cluster", mode)
	}

	return &redisDB{client: client}, nil
}

func getTLS(p *properties.Properties) (*tls.Config, error) {
	caPath := p.GetString(redisTLSCA, "")
	certPath := p.GetString(redisTLSCert, "")
	keyPath := p.GetString(redisTLSKey, "")
	insecureSkipVerify := p.GetBool(redisTLSInsecureSkipVer, false)
	if len(caPath) > 0 || (len(certPath) > 0 && len(keyPath) > 0) {
		return util.CreateTLSConfig(caPath, certPath, keyPath, insecureSkipVerify)
	}
	if insecureSkipVerify {
		return &tls.Config{InsecureSkipVerify: true}, nil
	}
	return nil, nil
}

func (db *redisDB) Close() error {
	return db.client.Close()
}

func (db *redisDB) InitThread(ctx context.Context, _ int, _ int) context.Context {
	return ctx
}

func (db *redisDB) CleanupThread(_ context.Context) {
}

func getRowKey(table uint64, key []byte) string {
	return fmt.Sprintf("sb:r:%d:%s", table, key)
}

func (db *redisDB) CreateTable(ctx context.Context, name string) (uint64, error) {
	id, err := db.client.Incr(ctx, tableSeqKey).Result()
	if err != nil {
		return 0, errors.Trace(err)
	}
	set, err := db.client.HSetNX(ctx, tableKey, name, id).Result()
	if err != nil {
		return 0, errors.Trace(err)
	}
	if set {
		return uint64(id), nil
	}
	return db.GetTableID(ctx, name)
}

func (db *redisDB) GetTableID(ctx context.Context, name string) (uint64, error) {
	id, err := db.client.HGet(ctx, tableKey, name).Int64()
	if err == goredis.Nil {
		return 0, errors.Annotatef(bench.ErrNotFound, "table %s", name)
	}
	if err != nil {
		return 0, errors.Trace(err)
	}
	return uint64(id), nil
}

func (db *redisDB) Read(ctx context.Context, table uint64, key []byte) ([]byte, bench.Version, error) {
	res, err := db.client.HMGet(ctx, getRowKey(table, key), "v", "ver").Result()
	if err != nil {
		return nil, 0, errors.Trace(err)
	}
	return decodeRecord(res)
}

func decodeRecord(res []interface{}) ([]byte, bench.Version, error) {
	if len(res) != 2 || res[0] == nil {
		return nil, 0, bench.ErrNotFound
	}
	value := []byte(res[0].(string))
	var ver uint64
	if res[1] != nil {
		ver, _ = strconv.ParseUint(res[1].(string), 10, 64)
	}
	return value, bench.Version(ver), nil
}

func (db *redisDB) Write(ctx context.Context, table uint64, key []byte, value []byte) error {
	err := writeScript.Run(ctx, db.client, []string{getRowKey(table, key)}, value).Err()
	return errors.Trace(err)
}

func (db *redisDB) ConditionalWrite(ctx context.Context, table uint64, key []byte, value []byte, maxVersion bench.Version) error {
	res, err := condWriteScript.Run(ctx, db.client,
		[]string{getRowKey(table, key)}, value, int64(maxVersion)).Int64()
	if err != nil {
		return errors.Trace(err)
	}
	if res < 0 {
		return bench.ErrRejected
	}
	return nil
}

func (db *redisDB) IncrementAndGet(ctx context.Context, table uint64, key []byte, delta int64) (int64, error) {
	res, err := incrScript.Run(ctx, db.client, []string{getRowKey(table, key)}, delta).Int64()
	if err != nil {
		return 0, errors.Trace(err)
	}
	return res, nil
}

func (db *redisDB) MultiRead(ctx context.Context, items []bench.ReadItem) ([]bench.ReadResult, error) {
	pipe := db.client.Pipeline()
	cmds := make([]*goredis.SliceCmd, len(items))
	for i, item := range items {
		cmds[i] = pipe.HMGet(ctx, getRowKey(item.Table, item.Key), "v", "ver")
	}
	if _, err := pipe.Exec(ctx); err != nil && err != goredis.Nil {
		return nil, errors.Trace(err)
	}

	results := make([]bench.ReadResult, len(items))
	for i, cmd := range cmds {
		res, err := cmd.Result()
		if err != nil {
			results[i] = bench.ReadResult{Err: errors.Trace(err)}
			continue
		}
		value, ver, err := decodeRecord(res)
		results[i] = bench.ReadResult{Value: value, Version: ver, Err: err}
	}
	return results, nil
}

func (db *redisDB) MultiWrite(ctx context.Context, items []bench.WriteItem) ([]error, error) {
	pipe := db.client.Pipeline()
	cmds := make([]*goredis.Cmd, len(items))
	for i, item := range items {
		rkey := getRowKey(item.Table, item.Key)
		if item.Conditional {
			cmds[i] = condWriteScript.Run(ctx, pipe, []string{rkey}, item.Value, int64(item.MaxVersion))
		} else {
			cmds[i] = writeScript.Run(ctx, pipe, []string{rkey}, item.Value)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil && err != goredis.Nil {
		return nil, errors.Trace(err)
	}

	statuses := make([]error, len(items))
	for i, cmd := range cmds {
		res, err := cmd.Int64()
		if err != nil {
			statuses[i] = errors.Trace(err)
			continue
		}
		if items[i].Conditional && res < 0 {
			statuses[i] = bench.ErrRejected
		}
	}
	return statuses, nil
}
