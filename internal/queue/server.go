package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/mostviewed/trending-tracker-go/pkg/logger"
)

// dispatchCron fires the dispatch task on the five-minute grid the schedule
// routing is built around.
const dispatchCron = "*/5 * * * *"

// Server bundles the asynq worker with the cron scheduler that feeds it.
type Server struct {
	asynqServer *asynq.Server
	scheduler   *asynq.Scheduler
	mux         *asynq.ServeMux
	log         *zap.Logger
}

// NewServer creates the task processing server. Concurrency stays low on
// purpose: collection jobs are long API-bound sequences and running several
// at once multiplies quota burn without finishing any of them sooner.
func NewServer(redisURL string, concurrency int, handler *Handler) (*Server, error) {
	redisOpt, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	log := logger.Named("queue.server")

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			collectionQueue: 1,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.Error("task failed", zap.String("task_type", task.Type()), zap.Error(err))
		}),
	})

	mux := asynq.NewServeMux()
	handler.Register(mux)

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Location: time.UTC,
	})
	entryID, err := scheduler.Register(dispatchCron,
		asynq.NewTask(TypeDispatch, nil),
		asynq.Queue(collectionQueue))
	if err != nil {
		return nil, fmt.Errorf("failed to register dispatch schedule: %w", err)
	}
	log.Info("dispatch schedule registered",
		zap.String("cron", dispatchCron),
		zap.String("entry_id", entryID))

	return &Server{
		asynqServer: srv,
		scheduler:   scheduler,
		mux:         mux,
		log:         log,
	}, nil
}

// Start launches the scheduler and the worker. It does not block.
func (s *Server) Start() error {
	if err := s.scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	if err := s.asynqServer.Start(s.mux); err != nil {
		s.scheduler.Shutdown()
		return fmt.Errorf("failed to start worker: %w", err)
	}
	s.log.Info("collection worker started")
	return nil
}

// Shutdown stops the scheduler first so no new work is queued, then waits for
// in-flight tasks.
func (s *Server) Shutdown() {
	s.scheduler.Shutdown()
	s.asynqServer.Shutdown()
	s.log.Info("collection worker stopped")
}
