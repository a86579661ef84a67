package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hupe1980/graphwalk"
	"github.com/hupe1980/graphwalk/blobstore"
	"github.com/hupe1980/graphwalk/blobstore/minio"
	"github.com/hupe1980/graphwalk/blobstore/s3"
	"github.com/hupe1980/graphwalk/observability"
	"github.com/hupe1980/graphwalk/walkstore"
	"github.com/hupe1980/graphwalk/walkstore/redisstore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func openStore(ctx context.Context, c StoreConfig) (blobstore.BlobStore, error) {
	switch strings.ToLower(c.Kind) {
	case "", "local":
		return blobstore.NewLocalStore(c.Dir), nil
	case "s3":
		if c.Bucket == "" {
			return nil, errors.New("s3 store needs a bucket")
		}
		return s3.New(ctx, c.Bucket,
			s3.WithPrefix(c.Prefix),
			s3.WithRegion(c.Region),
			s3.WithEndpoint(c.Endpoint),
			s3.WithPathStyle(c.PathStyle),
		)
	case "minio":
		if c.Bucket == "" || c.Endpoint == "" {
			return nil, errors.New("minio store needs an endpoint and a bucket")
		}
		return minio.New(c.Endpoint, c.Bucket,
			minio.WithCredentials(c.AccessKey, c.SecretKey),
			minio.WithSecure(c.Secure),
			minio.WithRegion(c.Region),
			minio.WithPrefix(c.Prefix),
		)
	default:
		return nil, fmt.Errorf("unknown store kind %q", c.Kind)
	}
}

// session holds the resources a command opens around a Graph.
type session struct {
	store   blobstore.BlobStore
	logger  *graphwalk.Logger
	opts    []graphwalk.Option
	closers []func() error
}

func (s *session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

func newSession(ctx context.Context, cfg *Config) (*session, error) {
	logger, err := cfg.Log.Logger()
	if err != nil {
		return nil, err
	}
	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	sampler, err := graphwalk.ParseSampler(cfg.Engine.Sampler)
	if err != nil {
		return nil, err
	}
	scheduler, err := graphwalk.ParseScheduler(cfg.Engine.Scheduler)
	if err != nil {
		return nil, err
	}
	codec, err := walkstore.ParseCodec(cfg.Spill.Codec)
	if err != nil {
		return nil, err
	}

	s := &session{store: store, logger: logger}
	s.opts = []graphwalk.Option{
		graphwalk.WithBlobStore(store),
		graphwalk.WithLogger(logger),
		graphwalk.WithBlockSize(cfg.Engine.BlockSize),
		graphwalk.WithCacheMemory(cfg.Engine.CacheMemory),
		graphwalk.WithCacheSlots(cfg.Engine.CacheSlots),
		graphwalk.WithThreads(cfg.Engine.Threads),
		graphwalk.WithSampler(sampler),
		graphwalk.WithScheduler(scheduler),
		graphwalk.WithSeed(cfg.Engine.Seed),
		graphwalk.WithMaxIter(cfg.Engine.MaxIter),
		graphwalk.WithExpectedLength(cfg.Engine.ExpectedLength),
		graphwalk.WithIOLimit(cfg.Engine.IOLimit),
		graphwalk.WithRemoteCache(cfg.Engine.RemoteCache),
		graphwalk.WithSpill(cfg.Spill.Threshold),
		graphwalk.WithSpillCodec(codec),
	}

	if cfg.Spill.Threshold > 0 && cfg.Spill.RedisAddr != "" {
		rs, err := redisstore.Dial(ctx, cfg.Spill.RedisAddr, cfg.Spill.RedisPassword, cfg.Spill.RedisDB,
			redisstore.WithCodec(codec),
		)
		if err != nil {
			return nil, err
		}
		if err := rs.Clear(ctx); err != nil {
			_ = rs.Close()
			return nil, err
		}
		s.closers = append(s.closers, rs.Close)
		s.opts = append(s.opts, graphwalk.WithSpillStore(rs))
	}

	if cfg.Metrics.Addr != "" {
		reg := prometheus.NewRegistry()
		s.opts = append(s.opts, graphwalk.WithMetricsCollector(observability.NewPrometheusCollector(reg)))

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "addr", cfg.Metrics.Addr, "error", err)
			}
		}()
		s.closers = append(s.closers, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		})
	}
	return s, nil
}
