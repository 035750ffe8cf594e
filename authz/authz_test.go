package authz

import (
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"crewdesk/apperr"
	"crewdesk/client"
	"crewdesk/models"
	"crewdesk/store"
)

const teamID = "2f1f98a0-0d6a-4b3e-a86d-0e46f0c4e9d1"

type teamStoreMock struct{ mock.Mock }

var _ store.TeamStore = (*teamStoreMock)(nil)

func (m *teamStoreMock) Create(team *models.Team) error { return m.Called(team).Error(0) }

func (m *teamStoreMock) Get(id string) (*models.Team, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Team), args.Error(1)
}

func (m *teamStoreMock) List() ([]models.Team, error) {
	args := m.Called()
	return args.Get(0).([]models.Team), args.Error(1)
}

func (m *teamStoreMock) ListForMember(username string) ([]models.Team, error) {
	args := m.Called(username)
	return args.Get(0).([]models.Team), args.Error(1)
}

func (m *teamStoreMock) ListLedBy(username string) ([]models.Team, error) {
	args := m.Called(username)
	return args.Get(0).([]models.Team), args.Error(1)
}

func (m *teamStoreMock) CountLedBy(username string) (int64, error) {
	args := m.Called(username)
	return args.Get(0).(int64), args.Error(1)
}

func (m *teamStoreMock) Save(team *models.Team) error { return m.Called(team).Error(0) }
func (m *teamStoreMock) Delete(id string) error       { return m.Called(id).Error(0) }

type teamDirectoryMock struct{ mock.Mock }

var _ TeamDirectory = (*teamDirectoryMock)(nil)

func (m *teamDirectoryMock) GetTeam(token, teamID string) (*client.RemoteTeam, error) {
	args := m.Called(token, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.RemoteTeam), args.Error(1)
}

func (m *teamDirectoryMock) IsLeaderOfTeam(teamID, username string) (bool, error) {
	args := m.Called(teamID, username)
	return args.Bool(0), args.Error(1)
}

func member(username string) *models.Principal {
	return &models.Principal{Username: username, Role: models.RoleMember, Token: "t"}
}

func leader(username string) *models.Principal {
	return &models.Principal{Username: username, Role: models.RoleTeamLeader, Token: "t"}
}

func admin() *models.Principal {
	return &models.Principal{Username: "root", Role: models.RoleAdmin, Token: "t"}
}

func TestAdminOnly(t *testing.T) {
	require.NoError(t, AdminOnly(admin()))

	err := AdminOnly(member("carol"))
	require.True(t, apperr.Is(err, apperr.CodeForbidden))
	require.Equal(t, "The user does not have privileges to perform this action", err.Error())
}

// A member probing for a team that does not exist and a member probing for a
// team they cannot see must receive byte-identical responses, or the read
// path becomes an existence oracle.
func TestTeamMemberOrAdminHidesExistence(t *testing.T) {
	teams := &teamStoreMock{}
	teams.On("Get", teamID).Return(nil, nil).Once()
	teams.On("Get", teamID).Return(&models.Team{
		ID: teamID, LeaderID: "bob", MemberIDs: []string{"bob"},
	}, nil).Once()

	_, missingErr := TeamMemberOrAdmin(teams, member("mallory"), teamID)
	_, deniedErr := TeamMemberOrAdmin(teams, member("mallory"), teamID)

	require.True(t, apperr.Is(missingErr, apperr.CodeForbidden))
	require.True(t, apperr.Is(deniedErr, apperr.CodeForbidden))
	require.Equal(t, missingErr.Error(), deniedErr.Error())
	require.Equal(t, "The requested resource was not found or is inaccessible.", missingErr.Error())
}

// The malformed-ID rejection stays distinct: it reveals nothing about any
// stored team.
func TestTeamMemberOrAdminInvalidID(t *testing.T) {
	_, err := TeamMemberOrAdmin(&teamStoreMock{}, member("carol"), "not-a-uuid")
	require.True(t, apperr.Is(err, apperr.CodeInvalidArgument))
	require.Equal(t, "Invalid team ID format", err.Error())
}

func TestTeamMemberOrAdminAdmitsMemberAndAdmin(t *testing.T) {
	teams := &teamStoreMock{}
	teams.On("Get", teamID).Return(&models.Team{
		ID: teamID, LeaderID: "bob", MemberIDs: []string{"bob", "carol"},
	}, nil)

	team, err := TeamMemberOrAdmin(teams, member("carol"), teamID)
	require.NoError(t, err)
	require.Equal(t, teamID, team.ID)

	_, err = TeamMemberOrAdmin(teams, admin(), teamID)
	require.NoError(t, err)
}

// Management paths keep a distinct 404; only the member read ambiguates.
func TestTeamLeaderOrAdminDistinctNotFound(t *testing.T) {
	teams := &teamStoreMock{}
	teams.On("Get", teamID).Return(nil, nil)

	_, err := TeamLeaderOrAdmin(teams, admin(), teamID)
	require.True(t, apperr.Is(err, apperr.CodeNotFound))
	require.Equal(t, "Team not found", err.Error())
}

func TestTeamLeaderOrAdminRejectsOutsider(t *testing.T) {
	teams := &teamStoreMock{}
	teams.On("Get", teamID).Return(&models.Team{ID: teamID, LeaderID: "bob"}, nil)

	_, err := TeamLeaderOrAdmin(teams, leader("dave"), teamID)
	require.True(t, apperr.Is(err, apperr.CodeForbidden))
	require.Equal(t, "You are not authorized to modify this team.", err.Error())
}

func TestTeamLeaderOnlyBlocksAdmins(t *testing.T) {
	_, err := TeamLeaderOnly(&teamStoreMock{}, admin(), teamID)
	require.True(t, apperr.Is(err, apperr.CodeForbidden))
	require.Equal(t, "Admin users cannot manage team members directly; this is a Team Leader function.", err.Error())
}

func TestTeamLeaderOnlyAdmitsLeader(t *testing.T) {
	teams := &teamStoreMock{}
	teams.On("Get", teamID).Return(&models.Team{
		ID: teamID, LeaderID: "bob", MemberIDs: []string{"bob"},
	}, nil)

	team, err := TeamLeaderOnly(teams, leader("bob"), teamID)
	require.NoError(t, err)
	require.Equal(t, "bob", team.LeaderID)
}

func TestTeamAccessFoldsRemoteOutcomes(t *testing.T) {
	tests := []struct {
		name     string
		remote   error
		wantCode apperr.Code
		wantMsg  string
	}{
		{
			name:     "denied",
			remote:   apperr.Forbidden("Not authorized to access this team."),
			wantCode: apperr.CodeForbidden,
			wantMsg:  "Not authorized to view tasks for this team.",
		},
		{
			name:     "unreachable",
			remote:   apperr.PeerUnavailable("team service is unreachable"),
			wantCode: apperr.CodePeerUnavailable,
			wantMsg:  "Team service is unreachable.",
		},
		{
			name:     "missing_team_folds",
			remote:   apperr.NotFound("Team not found."),
			wantCode: apperr.CodeForbidden,
			wantMsg:  "The specified team was not found or is inaccessible.",
		},
		{
			name:     "peer_error_folds",
			remote:   apperr.PeerError("team service returned status 500"),
			wantCode: apperr.CodeForbidden,
			wantMsg:  "The specified team was not found or is inaccessible.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			teams := &teamDirectoryMock{}
			teams.On("GetTeam", "t", teamID).Return(nil, tt.remote)

			err := TeamAccess(teams, member("carol"), teamID)
			require.True(t, apperr.Is(err, tt.wantCode))
			require.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestTeamAccessAllowsVisibleTeam(t *testing.T) {
	teams := &teamDirectoryMock{}
	teams.On("GetTeam", "t", teamID).Return(&client.RemoteTeam{ID: teamID}, nil)

	require.NoError(t, TeamAccess(teams, member("carol"), teamID))
}

func TestLeadsTeamFailsClosed(t *testing.T) {
	teams := &teamDirectoryMock{}
	teams.On("IsLeaderOfTeam", teamID, "bob").Return(false, apperr.PeerUnavailable("team service is unreachable"))

	require.False(t, LeadsTeam(teams, leader("bob"), teamID))
}

func TestLeadsTeamRequiresLeaderRole(t *testing.T) {
	teams := &teamDirectoryMock{}

	require.False(t, LeadsTeam(teams, member("carol"), teamID))
	teams.AssertNotCalled(t, "IsLeaderOfTeam", mock.Anything, mock.Anything)
}

func TestLeadsTeamConfirmed(t *testing.T) {
	teams := &teamDirectoryMock{}
	teams.On("IsLeaderOfTeam", teamID, "bob").Return(true, nil)

	require.True(t, LeadsTeam(teams, leader("bob"), teamID))
}
