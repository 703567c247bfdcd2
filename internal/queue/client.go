package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/reviewinsight/internal/config"
)

type Client struct {
	client *asynq.Client
}

func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func NewClient(cfg config.RedisConfig) *Client {
	return &Client{client: asynq.NewClient(RedisOpt(cfg))}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueIngestCSV schedules a single attempt; a partial load is not retried.
func (c *Client) EnqueueIngestCSV(payload IngestCSVPayload) (string, error) {
	task, err := NewIngestCSVTask(payload)
	if err != nil {
		return "", err
	}
	info, err := c.client.Enqueue(task, asynq.MaxRetry(0), asynq.Timeout(30*time.Minute))
	if err != nil {
		return "", fmt.Errorf("enqueue %s: %w", TypeIngestCSV, err)
	}
	return info.ID, nil
}

func NewIngestCSVTask(payload IngestCSVPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(TypeIngestCSV, data), nil
}
