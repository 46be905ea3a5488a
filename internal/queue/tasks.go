package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mostviewed/trending-tracker-go/internal/scheduler"
)

// Task types. Dispatch fires on a fixed five-minute grid and fans out to the
// job tasks; the job tasks do the actual collection work.
const (
	TypeDispatch  = "collect:dispatch"
	TypeVideos    = "collect:videos"
	TypeShorts    = "collect:shorts"
	TypeCountries = "collect:countries"
	TypeCreators  = "collect:creators"

	// TypeRefresh never comes from dispatch; it exists for ad-hoc enqueue.
	TypeRefresh = "collect:refresh"
)

// TaskTypeForJob maps a scheduled job to its queue task type.
func TaskTypeForJob(job scheduler.Job) (string, error) {
	switch job {
	case scheduler.JobVideos:
		return TypeVideos, nil
	case scheduler.JobShorts:
		return TypeShorts, nil
	case scheduler.JobCountries:
		return TypeCountries, nil
	case scheduler.JobCreators:
		return TypeCreators, nil
	default:
		return "", fmt.Errorf("no task type for job %q", job)
	}
}

// JobPayload travels with every collection task.
type JobPayload struct {
	RunID   string    `json:"run_id"`
	Trigger string    `json:"trigger"` // "schedule" or "manual"
	FiredAt time.Time `json:"fired_at"`
}

// Marshal serializes the payload to JSON.
func (p *JobPayload) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

// UnmarshalJobPayload deserializes JSON to a payload.
func UnmarshalJobPayload(data []byte) (*JobPayload, error) {
	var payload JobPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return &payload, nil
}
