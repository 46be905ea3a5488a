package queue

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/mostviewed/trending-tracker-go/internal/scheduler"
	"github.com/mostviewed/trending-tracker-go/pkg/logger"
)

// collectionQueue is the asynq queue collection tasks run on.
const collectionQueue = "collection"

// Client enqueues collection tasks.
type Client struct {
	asynqClient *asynq.Client
	log         *zap.Logger
}

// NewClient creates a queue client for the given Redis URL.
func NewClient(redisURL string) (*Client, error) {
	redisOpt, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	return &Client{
		asynqClient: asynq.NewClient(redisOpt),
		log:         logger.Named("queue"),
	}, nil
}

// Close closes the client connection.
func (c *Client) Close() error {
	return c.asynqClient.Close()
}

// EnqueueJob queues one collection job run. Uniqueness over ten minutes keeps
// a delayed dispatch tick from stacking a second copy of a run that is still
// in flight.
func (c *Client) EnqueueJob(job scheduler.Job, trigger string) (string, error) {
	taskType, err := TaskTypeForJob(job)
	if err != nil {
		return "", err
	}

	payload := &JobPayload{
		RunID:   uuid.NewString(),
		Trigger: trigger,
		FiredAt: time.Now().UTC(),
	}

	data, err := payload.Marshal()
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	info, err := c.asynqClient.Enqueue(asynq.NewTask(taskType, data),
		asynq.Queue(collectionQueue),
		asynq.MaxRetry(2),
		asynq.Timeout(15*time.Minute),
		asynq.Unique(10*time.Minute),
	)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue %s: %w", taskType, err)
	}

	c.log.Info("collection job enqueued",
		zap.String("task_type", taskType),
		zap.String("run_id", payload.RunID),
		zap.String("trigger", trigger),
		zap.String("task_id", info.ID))

	return payload.RunID, nil
}
