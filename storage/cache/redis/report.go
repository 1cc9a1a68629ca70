package rediscache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/escola/core/student"
)

const (
	reportKey     = "escola:relatorio"
	generationKey = "escola:relatorio:geracao"
)

type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ student.ReportCache = (*ReportCache)(nil)

// Open connects to the redis server at url (redis://[:password@]host:port/db) and checks it answers.
func Open(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parsing redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return client, nil
}

// NewReportCache keeps reports for ttl (0: until invalidated).
func NewReportCache(client *redis.Client, ttl time.Duration) *ReportCache {
	return &ReportCache{client: client, ttl: ttl}
}

func (c *ReportCache) Get(ctx context.Context) (student.Report, error) {
	data, err := c.client.Get(ctx, reportKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return student.Report{}, student.ErrCacheMiss
		}
		return student.Report{}, errors.Wrap(err, "getting cached report")
	}
	var rep student.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return student.Report{}, errors.Wrap(err, "decoding cached report")
	}
	return rep, nil
}

func (c *ReportCache) Generation(ctx context.Context) (uint64, error) {
	return parseGeneration(c.client.Get(ctx, generationKey))
}

// Set writes rep inside a WATCH on the generation key, so an Invalidate racing with it aborts the write.
func (c *ReportCache) Set(ctx context.Context, gen uint64, rep student.Report) error {
	data, err := json.Marshal(rep)
	if err != nil {
		return errors.Wrap(err, "encoding report")
	}
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := parseGeneration(tx.Get(ctx, generationKey))
		if err != nil {
			return err
		}
		if cur != gen {
			return student.ErrStaleReport
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, reportKey, data, c.ttl)
			return nil
		})
		return err
	}, generationKey)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.TxFailedErr):
		return student.ErrStaleReport
	case errors.Cause(err) == student.ErrStaleReport:
		return err
	}
	return errors.Wrap(err, "caching report")
}

func (c *ReportCache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey)
		pipe.Del(ctx, reportKey)
		return nil
	})
	return errors.Wrap(err, "invalidating report")
}

func parseGeneration(cmd *redis.StringCmd) (uint64, error) {
	gen, err := cmd.Uint64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "reading report generation")
	}
	return gen, nil
}
