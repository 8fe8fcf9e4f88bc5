package domain

import "time"

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
)

var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskPending:    {TaskInProgress, TaskDone},
	TaskInProgress: {TaskDone},
	TaskDone:       {},
}

func ParseTaskStatus(s string) (TaskStatus, error) {
	status := TaskStatus(s)
	if _, ok := taskTransitions[status]; !ok {
		return "", NewValidationError("status", "unknown housekeeping status %q", s)
	}
	return status, nil
}

func (s TaskStatus) CanTransitionTo(target TaskStatus) bool {
	for _, t := range taskTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

func (s TaskStatus) TransitionError(to TaskStatus) *InvalidStatusTransitionError {
	allowed := make([]string, 0, len(taskTransitions[s]))
	for _, a := range taskTransitions[s] {
		allowed = append(allowed, string(a))
	}
	return &InvalidStatusTransitionError{Entity: "housekeeping task", From: string(s), To: string(to), Allowed: allowed}
}

type HousekeepingTask struct {
	ID            int64      `json:"id" gorm:"primaryKey"`
	TenantID      int64      `json:"tenant_id" gorm:"not null;index"`
	RoomID        int64      `json:"room_id" gorm:"not null;index"`
	ReservationID *int64     `json:"reservation_id,omitempty" gorm:"index"`
	Status        TaskStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	Notes         string     `json:"notes,omitempty" gorm:"type:text"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (HousekeepingTask) TableName() string { return "housekeeping_tasks" }
