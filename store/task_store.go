package store

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"crewdesk/models"
)

// TaskFilter narrows task listings.
type TaskFilter struct {
	Status    *models.TaskStatus
	SortByDue bool
}

// TaskStore is the work service's repository for tasks and their nested
// comments and attachments.
type TaskStore interface {
	Create(task *models.Task) error
	Get(id string) (*models.Task, error)
	ListAssignedTo(username string, filter TaskFilter) ([]models.Task, error)
	ListByTeam(teamID string, filter TaskFilter) ([]models.Task, error)
	Update(id string, updates map[string]interface{}) error
	Delete(id string) error

	AddComment(comment *models.Comment) error
	ListComments(taskID string) ([]models.Comment, error)
	GetComment(taskID, commentID string) (*models.Comment, error)
	DeleteComment(taskID, commentID string) error

	AddAttachment(attachment *models.Attachment) error
	ListAttachments(taskID string) ([]models.Attachment, error)
	GetAttachment(taskID, attachmentID string) (*models.Attachment, error)
	DeleteAttachment(taskID, attachmentID string) error
}

type gormTaskStore struct {
	db *gorm.DB
}

// NewTaskStore returns a TaskStore backed by the given database handle.
func NewTaskStore(db *gorm.DB) TaskStore {
	return &gormTaskStore{db: db}
}

func (s *gormTaskStore) Create(task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	return s.db.Create(task).Error
}

func (s *gormTaskStore) Get(id string) (*models.Task, error) {
	var task models.Task
	err := s.db.Where("id = ?", id).First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *gormTaskStore) list(query *gorm.DB, filter TaskFilter) ([]models.Task, error) {
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.SortByDue {
		query = query.Order("due_date")
	} else {
		query = query.Order("created_at")
	}

	var tasks []models.Task
	if err := query.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *gormTaskStore) ListAssignedTo(username string, filter TaskFilter) ([]models.Task, error) {
	return s.list(s.db.Where("assigned_to = ?", username), filter)
}

func (s *gormTaskStore) ListByTeam(teamID string, filter TaskFilter) ([]models.Task, error) {
	return s.list(s.db.Where("team_id = ?", teamID), filter)
}

func (s *gormTaskStore) Update(id string, updates map[string]interface{}) error {
	return s.db.Model(&models.Task{}).Where("id = ?", id).Updates(updates).Error
}

func (s *gormTaskStore) Delete(id string) error {
	return s.db.Where("id = ?", id).Delete(&models.Task{}).Error
}

func (s *gormTaskStore) AddComment(comment *models.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	return s.db.Create(comment).Error
}

func (s *gormTaskStore) ListComments(taskID string) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.Where("task_id = ?", taskID).Order("created_at").Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

func (s *gormTaskStore) GetComment(taskID, commentID string) (*models.Comment, error) {
	var comment models.Comment
	err := s.db.Where("task_id = ? AND id = ?", taskID, commentID).First(&comment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *gormTaskStore) DeleteComment(taskID, commentID string) error {
	return s.db.Where("task_id = ? AND id = ?", taskID, commentID).Delete(&models.Comment{}).Error
}

func (s *gormTaskStore) AddAttachment(attachment *models.Attachment) error {
	if attachment.ID == "" {
		attachment.ID = uuid.NewString()
	}
	return s.db.Create(attachment).Error
}

func (s *gormTaskStore) ListAttachments(taskID string) ([]models.Attachment, error) {
	var attachments []models.Attachment
	err := s.db.Where("task_id = ?", taskID).Order("uploaded_at").Find(&attachments).Error
	if err != nil {
		return nil, err
	}
	return attachments, nil
}

func (s *gormTaskStore) GetAttachment(taskID, attachmentID string) (*models.Attachment, error) {
	var attachment models.Attachment
	err := s.db.Where("task_id = ? AND id = ?", taskID, attachmentID).First(&attachment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &attachment, nil
}

func (s *gormTaskStore) DeleteAttachment(taskID, attachmentID string) error {
	return s.db.Where("task_id = ? AND id = ?", taskID, attachmentID).Delete(&models.Attachment{}).Error
}
