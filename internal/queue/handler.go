package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/mostviewed/trending-tracker-go/internal/collector"
	"github.com/mostviewed/trending-tracker-go/internal/scheduler"
	"github.com/mostviewed/trending-tracker-go/pkg/logger"
)

// Handler processes collection tasks. The dispatch task looks at the clock
// and fans out to the job due at that tick; job tasks run the collector.
type Handler struct {
	collector *collector.Collector
	client    *Client
	log       *zap.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewHandler creates a task handler.
func NewHandler(c *collector.Collector, client *Client) *Handler {
	return &Handler{
		collector: c,
		client:    client,
		log:       logger.Named("queue.handler"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Register attaches the handler to an asynq mux.
func (h *Handler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeDispatch, h.ProcessDispatch)
	mux.HandleFunc(TypeVideos, h.ProcessJob)
	mux.HandleFunc(TypeShorts, h.ProcessJob)
	mux.HandleFunc(TypeCountries, h.ProcessJob)
	mux.HandleFunc(TypeCreators, h.ProcessJob)
	mux.HandleFunc(TypeRefresh, h.ProcessJob)
}

// ProcessDispatch maps the current tick to a job and enqueues it. Ticks that
// land on an idle minute succeed without enqueuing anything.
func (h *Handler) ProcessDispatch(ctx context.Context, task *asynq.Task) error {
	tick := h.now()

	job := scheduler.JobForTime(tick)
	if job == scheduler.JobNone {
		h.log.Debug("dispatch tick matched no job", zap.Time("tick", tick))
		return nil
	}

	runID, err := h.client.EnqueueJob(job, "schedule")
	if err != nil {
		return fmt.Errorf("dispatch %s: %w", job, err)
	}

	h.log.Info("dispatched scheduled job",
		zap.String("job", string(job)),
		zap.String("run_id", runID),
		zap.Time("tick", tick))

	return nil
}

// ProcessJob runs the collection job named by the task type.
func (h *Handler) ProcessJob(ctx context.Context, task *asynq.Task) error {
	payload, err := UnmarshalJobPayload(task.Payload())
	if err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	log := h.log.With(
		zap.String("task_type", task.Type()),
		zap.String("run_id", payload.RunID),
		zap.String("trigger", payload.Trigger))
	log.Info("collection job starting")

	switch task.Type() {
	case TypeVideos:
		_, err = h.collector.CollectVideos(ctx)
	case TypeShorts:
		_, err = h.collector.CollectShorts(ctx)
	case TypeCountries:
		_, err = h.collector.CollectCountries(ctx)
	case TypeCreators:
		_, err = h.collector.CollectCreators(ctx)
	case TypeRefresh:
		_, err = h.collector.RefreshTopStats(ctx)
	default:
		return fmt.Errorf("unexpected task type %q", task.Type())
	}

	if err != nil {
		log.Error("collection job failed", zap.Error(err))
		return err
	}

	log.Info("collection job finished")
	return nil
}
