package scheduler

import (
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

func TestBoardResyncTaskRoundTrip(t *testing.T) {
	orgID := uuid.New().String()

	task, err := NewBoardResyncTask(BoardResyncPayload{OrganizationID: orgID})
	if err != nil {
		t.Fatalf("NewBoardResyncTask: %v", err)
	}
	if task.Type() != TaskBoardResync {
		t.Errorf("task type = %q, want %q", task.Type(), TaskBoardResync)
	}

	payload, err := ParseBoardResyncPayload(task)
	if err != nil {
		t.Fatalf("ParseBoardResyncPayload: %v", err)
	}
	if payload.OrganizationID != orgID {
		t.Errorf("organization = %q, want %q", payload.OrganizationID, orgID)
	}
}

func TestParseBoardResyncPayloadRejectsGarbage(t *testing.T) {
	task := asynq.NewTask(TaskBoardResync, []byte("not json"))
	if _, err := ParseBoardResyncPayload(task); err == nil {
		t.Fatal("expected error")
	}
}
