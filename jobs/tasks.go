package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSessionsPrune removes sessions that can no longer authenticate anyone.
	TaskSessionsPrune = "sessions:prune"
)

// SessionsPrunePayload tunes one prune run.
type SessionsPrunePayload struct {
	// DryRun counts stale sessions without deleting them.
	DryRun bool `json:"dry_run,omitempty"`
}

// NewSessionsPruneTask constructs the prune task.
func NewSessionsPruneTask(payload SessionsPrunePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionsPrune, data), nil
}
