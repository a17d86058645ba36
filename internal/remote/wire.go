package remote

import (
	"errors"
	"time"

	"github.com/nhle/orbit-planner/internal/model"
)

// ErrMissingIdentity rejects sync calls before any request is made when
// no stable user key is available.
var ErrMissingIdentity = errors.New("missing user identity")

// missionRecord is the wire shape of a task on the mission service.
// The remote keys records by taskId, which maps to the local Task.ID.
type missionRecord struct {
	TaskID      string    `json:"taskId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Deadline    time.Time `json:"deadline"`
	Urgency     int       `json:"urgency"`
	Status      string    `json:"status"`
	Color       string    `json:"color,omitempty"`
	XPAwarded   bool      `json:"xpAwarded"`
	CreatedAt   time.Time `json:"createdAt"`
}

// wireUser is the identity payload attached to sync requests.
type wireUser struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// syncRequest is the POST /sync body.
type syncRequest struct {
	Task missionRecord `json:"task"`
	User wireUser      `json:"user"`
}

// missionListResponse is the GET /missions response envelope.
type missionListResponse struct {
	Success  bool            `json:"success"`
	Missions []missionRecord `json:"missions"`
}

// fromTask maps a local task to its wire shape.
func fromTask(t model.Task) missionRecord {
	return missionRecord{
		TaskID:      t.ID,
		Title:       t.Title,
		Description: t.Description,
		Deadline:    t.Deadline,
		Urgency:     t.Urgency,
		Status:      t.Status,
		Color:       t.Color,
		XPAwarded:   t.XPAwarded,
		CreatedAt:   t.CreatedAt,
	}
}

// toTask maps a wire record back to a local task, normalizing fields
// that older records may be missing.
func (r missionRecord) toTask() model.Task {
	status := r.Status
	if status != model.TaskStatusCompleted {
		status = model.TaskStatusActive
	}
	color := r.Color
	if color == "" {
		color = model.DefaultColor
	}
	return model.Task{
		ID:          r.TaskID,
		Title:       r.Title,
		Description: r.Description,
		Deadline:    r.Deadline,
		Urgency:     model.ClampUrgency(r.Urgency),
		Status:      status,
		Color:       color,
		XPAwarded:   r.XPAwarded,
		CreatedAt:   r.CreatedAt,
	}
}
