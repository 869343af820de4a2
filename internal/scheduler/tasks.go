package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskBoardResync = "board.resync"

type BoardResyncPayload struct {
	OrganizationID string `json:"organizationId"`
}

func NewBoardResyncTask(payload BoardResyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBoardResync, data), nil
}

func ParseBoardResyncPayload(task *asynq.Task) (BoardResyncPayload, error) {
	var payload BoardResyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return BoardResyncPayload{}, err
	}
	return payload, nil
}
