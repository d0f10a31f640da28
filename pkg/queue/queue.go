package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	cfg "github.com/clinicore/docintake/config"
)

// Task types issued after a successful batch confirm. Preview tasks
// render thumbnails and page counts for archived documents; index tasks
// notify downstream search.
const (
	TaskTypePreview = "document:preview"
	TaskTypeIndex   = "document:index"
)

// Queue is the post-commit task queue.
type Queue interface {
	Enqueue(ctx context.Context, task *Task) error
	GetTaskStatus(ctx context.Context, taskID string) (*TaskStatus, error)
	SaveFinalStatus(ctx context.Context, status *TaskStatus) error
}

// Task is one post-commit job. Payload carries the archived document's
// key and metadata.
type Task struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Payload   map[string]interface{} `json:"payload"`
	Metadata  map[string]string      `json:"metadata"`
	CreatedAt time.Time              `json:"createdAt"`
}

// TaskStatus tracks one task through the worker.
type TaskStatus struct {
	TaskID     string    `json:"taskId"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt,omitempty"`
}

// AsynqQueue implements Queue on asynq plus raw redis status keys.
type AsynqQueue struct {
	client *asynq.Client
	redis  *redis.Client
}

type QueueConfig struct {
	RedisAddr  string
	RedisDB    int
	MaxRetries int
	Timeout    time.Duration
}

// GetQueue builds a queue from the environment redis config.
func GetQueue() (*AsynqQueue, error) {
	redisCfg := cfg.GetRedisConfig()
	return NewAsynqQueue(&QueueConfig{
		RedisAddr:  redisCfg.Addr,
		RedisDB:    redisCfg.DB,
		MaxRetries: 3,
		Timeout:    5 * time.Minute,
	})
}

func NewAsynqQueue(c *QueueConfig) (*AsynqQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr: c.RedisAddr,
		DB:   c.RedisDB,
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: c.RedisAddr,
		DB:   c.RedisDB,
	})

	return &AsynqQueue{
		client: asynq.NewClient(redisOpt),
		redis:  redisClient,
	}, nil
}

// Enqueue serializes the task and hands it to asynq.
func (q *AsynqQueue) Enqueue(ctx context.Context, task *Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	opts := []asynq.Option{
		asynq.MaxRetry(3),
		asynq.Timeout(5 * time.Minute),
		asynq.TaskID(task.ID),
		asynq.Queue("default"),
	}

	t := asynq.NewTask(task.Type, payload, opts...)
	if _, err := q.client.EnqueueContext(ctx, t); err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	return nil
}

// GetTaskStatus reads a saved status from redis.
func (q *AsynqQueue) GetTaskStatus(ctx context.Context, taskID string) (*TaskStatus, error) {
	key := fmt.Sprintf("task_status:%s", taskID)
	data, err := q.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("no status recorded for task %s", taskID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get status from redis: %w", err)
	}

	var status TaskStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status: %w", err)
	}
	return &status, nil
}

// SaveFinalStatus writes a task status with a 24h expiry.
func (q *AsynqQueue) SaveFinalStatus(ctx context.Context, status *TaskStatus) error {
	key := fmt.Sprintf("task_status:%s", status.TaskID)
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	if err := q.redis.Set(ctx, key, data, 24*time.Hour).Err(); err != nil {
		return fmt.Errorf("failed to save status: %w", err)
	}

	return nil
}
