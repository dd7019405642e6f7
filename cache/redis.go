package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"example.com/scaffold/services/platform/config"
	"example.com/scaffold/services/platform/models"
)

// CacheClient defines the interface for read model caching
type CacheClient interface {
	GetProject(ctx context.Context, id string) (*models.Project, error)
	SetProject(ctx context.Context, project *models.Project) error
	DeleteProject(ctx context.Context, id string) error

	GetAnalysisRun(ctx context.Context, id string) (*models.AnalysisRun, error)
	SetAnalysisRun(ctx context.Context, run *models.AnalysisRun) error
	DeleteAnalysisRun(ctx context.Context, id string) error

	FlushAll(ctx context.Context) error
}

// RedisClient implements CacheClient using Redis
type RedisClient struct {
	client  *redis.Client
	enabled bool
	ttl     time.Duration
}

// NewRedisClient creates a new Redis client. A disabled cache is a
// valid client where every lookup misses.
func NewRedisClient(cfg config.Config) (CacheClient, error) {
	if !cfg.RedisEnabled {
		return &RedisClient{enabled: false}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "failed to connect to Redis")
	}

	return &RedisClient{
		client:  client,
		enabled: true,
		ttl:     time.Hour,
	}, nil
}

// Prefix keys to avoid collisions
func projectKey(id string) string {
	return fmt.Sprintf("project:%s", id)
}

func analysisRunKey(id string) string {
	return fmt.Sprintf("analysis_run:%s", id)
}

// GetProject retrieves a project from cache
func (c *RedisClient) GetProject(ctx context.Context, id string) (*models.Project, error) {
	if !c.enabled {
		return nil, redis.Nil
	}

	data, err := c.client.Get(ctx, projectKey(id)).Bytes()
	if err != nil {
		return nil, err
	}

	var project models.Project
	if err := json.Unmarshal(data, &project); err != nil {
		return nil, err
	}

	return &project, nil
}

// SetProject caches a project
func (c *RedisClient) SetProject(ctx context.Context, project *models.Project) error {
	if !c.enabled {
		return nil
	}

	data, err := json.Marshal(project)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, projectKey(project.ProjectID), data, c.ttl).Err()
}

// DeleteProject evicts a project from cache
func (c *RedisClient) DeleteProject(ctx context.Context, id string) error {
	if !c.enabled {
		return nil
	}

	return c.client.Del(ctx, projectKey(id)).Err()
}

// GetAnalysisRun retrieves an analysis run from cache
func (c *RedisClient) GetAnalysisRun(ctx context.Context, id string) (*models.AnalysisRun, error) {
	if !c.enabled {
		return nil, redis.Nil
	}

	data, err := c.client.Get(ctx, analysisRunKey(id)).Bytes()
	if err != nil {
		return nil, err
	}

	var run models.AnalysisRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, err
	}

	return &run, nil
}

// SetAnalysisRun caches an analysis run
func (c *RedisClient) SetAnalysisRun(ctx context.Context, run *models.AnalysisRun) error {
	if !c.enabled {
		return nil
	}

	data, err := json.Marshal(run)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, analysisRunKey(run.AnalysisID), data, c.ttl).Err()
}

// DeleteAnalysisRun evicts an analysis run from cache
func (c *RedisClient) DeleteAnalysisRun(ctx context.Context, id string) error {
	if !c.enabled {
		return nil
	}

	return c.client.Del(ctx, analysisRunKey(id)).Err()
}

// FlushAll clears the whole cache
func (c *RedisClient) FlushAll(ctx context.Context) error {
	if !c.enabled {
		return nil
	}

	return c.client.FlushAll(ctx).Err()
}
