package models

import "time"

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

// TaskPriority is the urgency level of a task.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityUrgent TaskPriority = "URGENT"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityUrgent:
		return true
	}
	return false
}

// Task is owned by the work service. TeamID is a soft reference into the
// team service; CreatedBy and AssignedTo are usernames.
type Task struct {
	ID          string       `gorm:"primaryKey;size:36" json:"id"`
	TeamID      string       `gorm:"size:36;index;not null" json:"team_id"`
	Title       string       `gorm:"size:256;not null" json:"title"`
	Description string       `json:"description"`
	CreatedBy   string       `gorm:"size:64;index;not null" json:"created_by"`
	AssignedTo  string       `gorm:"size:64;index;not null" json:"assigned_to"`
	Status      TaskStatus   `gorm:"size:16;default:'TODO'" json:"status"`
	Priority    TaskPriority `gorm:"size:16;not null" json:"priority"`
	DueDate     time.Time    `json:"due_date"`

	Comments    []Comment    `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"comments,omitempty"`
	Attachments []Attachment `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"attachments,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Comment is a note on a task.
type Comment struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	TaskID    string    `gorm:"size:36;index;not null" json:"-"`
	Text      string    `gorm:"not null" json:"text"`
	CreatedBy string    `gorm:"size:64;not null" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Attachment is file metadata for a task; the bytes live on disk under the
// configured upload directory.
type Attachment struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	TaskID      string    `gorm:"size:36;index;not null" json:"-"`
	Filename    string    `gorm:"size:256;not null" json:"filename"`
	ContentType string    `gorm:"size:128" json:"content_type"`
	Path        string    `gorm:"size:512;not null" json:"-"`
	UploadedBy  string    `gorm:"size:64;not null" json:"uploaded_by"`
	UploadedAt  time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
}
