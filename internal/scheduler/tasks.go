// Package scheduler runs automation passes on a schedule through asynq.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskAutomationRun = "automation:run"

// AutomationRunPayload carries the run parameters. An empty mode runs in the
// configured default mode.
type AutomationRunPayload struct {
	Mode string `json:"mode,omitempty"`
}

func NewAutomationRunTask(payload AutomationRunPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAutomationRun, data), nil
}

func ParseAutomationRunPayload(task *asynq.Task) (AutomationRunPayload, error) {
	var payload AutomationRunPayload
	err := json.Unmarshal(task.Payload(), &payload)
	return payload, err
}
