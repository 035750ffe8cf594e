package store

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"crewdesk/models"
)

// TeamStore is the team service's repository. CountLedBy backs the
// leadership-demotion decision: a leader is demotable only when it reports
// zero.
type TeamStore interface {
	Create(team *models.Team) error
	Get(id string) (*models.Team, error)
	List() ([]models.Team, error)
	ListForMember(username string) ([]models.Team, error)
	ListLedBy(username string) ([]models.Team, error)
	CountLedBy(username string) (int64, error)
	Save(team *models.Team) error
	Delete(id string) error
}

type gormTeamStore struct {
	db *gorm.DB
}

// NewTeamStore returns a TeamStore backed by the given database handle.
func NewTeamStore(db *gorm.DB) TeamStore {
	return &gormTeamStore{db: db}
}

func (s *gormTeamStore) Create(team *models.Team) error {
	if team.ID == "" {
		team.ID = uuid.NewString()
	}
	return s.db.Create(team).Error
}

func (s *gormTeamStore) Get(id string) (*models.Team, error) {
	var team models.Team
	err := s.db.Where("id = ?", id).First(&team).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func (s *gormTeamStore) List() ([]models.Team, error) {
	var teams []models.Team
	if err := s.db.Order("created_at").Find(&teams).Error; err != nil {
		return nil, err
	}
	return teams, nil
}

// ListForMember returns teams the user leads or belongs to. Membership lives
// in a JSON column, so the leader index narrows only half the query; team
// counts are small enough that the LIKE scan on the member list is fine.
func (s *gormTeamStore) ListForMember(username string) ([]models.Team, error) {
	var teams []models.Team
	err := s.db.
		Where("leader_id = ? OR member_ids LIKE ?", username, `%"`+username+`"%`).
		Order("created_at").
		Find(&teams).Error
	if err != nil {
		return nil, err
	}
	// The LIKE match can catch usernames that merely contain the target as a
	// substring of a quoted entry; re-check against the decoded set.
	out := teams[:0]
	for i := range teams {
		if teams[i].LeaderID == username || teams[i].HasMember(username) {
			out = append(out, teams[i])
		}
	}
	return out, nil
}

func (s *gormTeamStore) ListLedBy(username string) ([]models.Team, error) {
	var teams []models.Team
	if err := s.db.Where("leader_id = ?", username).Order("created_at").Find(&teams).Error; err != nil {
		return nil, err
	}
	return teams, nil
}

func (s *gormTeamStore) CountLedBy(username string) (int64, error) {
	var count int64
	err := s.db.Model(&models.Team{}).Where("leader_id = ?", username).Count(&count).Error
	return count, err
}

func (s *gormTeamStore) Save(team *models.Team) error {
	return s.db.Save(team).Error
}

func (s *gormTeamStore) Delete(id string) error {
	return s.db.Where("id = ?", id).Delete(&models.Team{}).Error
}
