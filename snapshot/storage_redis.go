package snapshot

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

const defaultRedisKey = "stockroom:snapshot"

// RedisStorage keeps the current snapshot under Key and the previous one under Key + ":backup".
type RedisStorage struct {
	Client *redis.Client
	Key    string
}

var _ Storage = (*RedisStorage)(nil)

type RedisStorageOptions struct {
	Addr     string
	Password string
	DB       int
	// Key defaults to "stockroom:snapshot".
	Key string
}

func (opt *RedisStorageOptions) Validate() error {
	if opt.Addr == "" {
		return eris.New("redis address cannot be empty")
	}
	return nil
}

func NewRedisStorage(opts RedisStorageOptions) (*RedisStorage, error) {
	if err := opts.Validate(); err != nil {
		return nil, eris.Wrap(err, "invalid options passed")
	}
	key := opts.Key
	if key == "" {
		key = defaultRedisKey
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return &RedisStorage{Client: client, Key: key}, nil
}

func (r *RedisStorage) backupKey() string {
	return r.Key + ":backup"
}

// Store replaces the current snapshot in one transaction, moving the old one to the backup key.
func (r *RedisStorage) Store(ctx context.Context, snapshot *Snapshot) error {
	data, err := marshal(snapshot)
	if err != nil {
		return err
	}

	exists, err := r.Client.Exists(ctx, r.Key).Result()
	if err != nil {
		return eris.Wrap(err, "failed to check for existing snapshot")
	}

	pipe := r.Client.TxPipeline()
	if exists > 0 {
		pipe.Rename(ctx, r.Key, r.backupKey())
	}
	pipe.Set(ctx, r.Key, data, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return eris.Wrap(err, "failed to store snapshot in redis")
	}
	return nil
}

func (r *RedisStorage) Load(ctx context.Context) (*Snapshot, error) {
	res := r.Client.Get(ctx, r.Key)
	if res.Err() == redis.Nil {
		return nil, eris.Wrapf(ErrSnapshotNotFound, "no snapshot under key %s", r.Key)
	}
	bz, err := res.Bytes()
	if err != nil {
		return nil, eris.Wrap(err, "failed to get snapshot from redis")
	}
	return unmarshal(bz)
}

// LoadBackup retrieves the snapshot that was current before the last Store.
func (r *RedisStorage) LoadBackup(ctx context.Context) (*Snapshot, error) {
	res := r.Client.Get(ctx, r.backupKey())
	if res.Err() == redis.Nil {
		return nil, eris.Wrapf(ErrSnapshotNotFound, "no backup under key %s", r.backupKey())
	}
	bz, err := res.Bytes()
	if err != nil {
		return nil, eris.Wrap(err, "failed to get backup snapshot from redis")
	}
	return unmarshal(bz)
}

func (r *RedisStorage) Close() error {
	return r.Client.Close()
}
