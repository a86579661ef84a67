// Package redisstore keeps spilled walkers in Redis lists, one list per bucket.
package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/graphwalk/model"
	"github.com/hupe1980/graphwalk/walkstore"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix is the key prefix used when none is configured.
const DefaultPrefix = "graphwalk:walks:"

// ErrNilClient is returned by New for a nil client.
var ErrNilClient = errors.New("redisstore: nil client")

// Options configures a Store.
type Options struct {
	Prefix string
	Codec  walkstore.Codec
	// OwnsClient closes the client on Close.
	OwnsClient bool
}

// Option configures a Store.
type Option func(*Options)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(o *Options) { o.Prefix = prefix }
}

// WithCodec sets the frame compression.
func WithCodec(c walkstore.Codec) Option {
	return func(o *Options) { o.Codec = c }
}

// WithOwnedClient makes Close close the client.
func WithOwnedClient() Option {
	return func(o *Options) { o.OwnsClient = true }
}

// Store implements walkstore.Store on Redis.
type Store struct {
	client redis.UniversalClient
	opts   Options
}

var _ walkstore.Store = (*Store)(nil)

// New creates a Store on an existing client.
func New(client redis.UniversalClient, opts ...Option) (*Store, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	o := Options{Prefix: DefaultPrefix, Codec: walkstore.CodecLZ4}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store{client: client, opts: o}, nil
}

// Dial connects to the Redis server at addr and verifies the connection.
func Dial(ctx context.Context, addr, password string, db int, opts ...Option) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redisstore: ping %s: %w", addr, err)
	}
	return New(client, append(opts, WithOwnedClient())...)
}

// Key returns the list key of a bucket.
func (s *Store) Key(bucket int) string {
	return fmt.Sprintf("%s%d", s.opts.Prefix, bucket)
}

// Append pushes one frame to the bucket's list.
func (s *Store) Append(ctx context.Context, bucket int, walkers []model.Walker) error {
	if len(walkers) == 0 {
		return nil
	}
	frame, err := walkstore.AppendFrame(nil, walkers, s.opts.Codec)
	if err != nil {
		return err
	}
	if err := s.client.RPush(ctx, s.Key(bucket), frame).Err(); err != nil {
		return fmt.Errorf("redisstore: append bucket %d: %w", bucket, err)
	}
	return nil
}

// Drain reads and deletes the bucket's list in one transaction.
func (s *Store) Drain(ctx context.Context, bucket int, dst []model.Walker) ([]model.Walker, error) {
	key := s.Key(bucket)

	var frames *redis.StringSliceCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		frames = pipe.LRange(ctx, key, 0, -1)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return dst, fmt.Errorf("redisstore: drain bucket %d: %w", bucket, err)
	}

	for _, f := range frames.Val() {
		dst, err = walkstore.DecodeFrames(dst, []byte(f))
		if err != nil {
			return dst, fmt.Errorf("redisstore: bucket %d: %w", bucket, err)
		}
	}
	return dst, nil
}

// Clear deletes every list under the prefix.
func (s *Store) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.opts.Prefix+"*", 512).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redisstore: scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

// Close closes the client if the store owns it.
func (s *Store) Close() error {
	if s.opts.OwnsClient {
		return s.client.Close()
	}
	return nil
}
