package models

import "time"

// Team is owned by the team service. LeaderID and MemberIDs hold usernames;
// they are soft references into the identity service's store, not foreign
// keys. The leader is always present in MemberIDs.
type Team struct {
	ID          string   `gorm:"primaryKey;size:36" json:"id"`
	Name        string   `gorm:"size:128;not null" json:"name"`
	Description string   `json:"description"`
	LeaderID    string   `gorm:"size:64;index;not null" json:"leader_id"`
	MemberIDs   []string `gorm:"serializer:json" json:"member_ids"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasMember reports whether username is in the team's member set.
func (t *Team) HasMember(username string) bool {
	for _, m := range t.MemberIDs {
		if m == username {
			return true
		}
	}
	return false
}
