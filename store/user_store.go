// Package store holds the per-service repositories. Each service owns
// exactly one of these stores; nothing here crosses a service boundary.
// Lookups return (nil, nil) when the row is absent so controllers choose
// their own not-found behavior.
package store

import (
	"errors"

	"gorm.io/gorm"

	"crewdesk/models"
)

// UserStore is the identity service's user repository.
type UserStore interface {
	Create(user *models.User) error
	GetByUsername(username string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	List() ([]models.User, error)
	Save(user *models.User) error
	Delete(username string) error
}

type gormUserStore struct {
	db *gorm.DB
}

// NewUserStore returns a UserStore backed by the given database handle.
func NewUserStore(db *gorm.DB) UserStore {
	return &gormUserStore{db: db}
}

func (s *gormUserStore) Create(user *models.User) error {
	return s.db.Create(user).Error
}

func (s *gormUserStore) GetByUsername(username string) (*models.User, error) {
	var user models.User
	err := s.db.Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *gormUserStore) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := s.db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *gormUserStore) List() ([]models.User, error) {
	var users []models.User
	if err := s.db.Order("username").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *gormUserStore) Save(user *models.User) error {
	return s.db.Save(user).Error
}

func (s *gormUserStore) Delete(username string) error {
	return s.db.Where("username = ?", username).Delete(&models.User{}).Error
}
