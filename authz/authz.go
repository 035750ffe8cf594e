// Package authz holds the per-endpoint authorization rules. Each resolver
// takes the request's principal plus whatever lookup it needs, and either
// returns the authorized entity or a taxonomy error; none of them mutate
// state.
package authz

import (
	"github.com/google/uuid"

	"crewdesk/apperr"
	"crewdesk/client"
	"crewdesk/models"
	"crewdesk/store"
)

// TeamDirectory is the slice of the inter-service client the work service's
// resolvers need.
type TeamDirectory interface {
	GetTeam(token, teamID string) (*client.RemoteTeam, error)
	IsLeaderOfTeam(teamID, username string) (bool, error)
}

// ambiguousTeamMessage hides whether a team exists from callers who may not
// see it: absent team and denied access read identically.
const ambiguousTeamMessage = "The requested resource was not found or is inaccessible."

// AdminOnly admits only admins.
func AdminOnly(p *models.Principal) error {
	if !p.IsAdmin() {
		return apperr.Forbidden("The user does not have privileges to perform this action")
	}
	return nil
}

// TeamLeaderOrAdmin loads the team and admits admins and the team's leader.
// Management paths like this one return a distinct 404 for a missing team;
// only the member-level read path ambiguates.
func TeamLeaderOrAdmin(teams store.TeamStore, p *models.Principal, teamID string) (*models.Team, error) {
	if _, err := uuid.Parse(teamID); err != nil {
		return nil, apperr.InvalidArgument("Invalid team ID format")
	}

	team, err := teams.Get(teamID)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, apperr.NotFound("Team not found")
	}

	if p.IsAdmin() || team.LeaderID == p.Username {
		return team, nil
	}
	return nil, apperr.Forbidden("You are not authorized to modify this team.")
}

// TeamLeaderOnly admits only the team's leader. Admins are explicitly
// blocked: member management is a leader function.
func TeamLeaderOnly(teams store.TeamStore, p *models.Principal, teamID string) (*models.Team, error) {
	if p.IsAdmin() {
		return nil, apperr.Forbidden("Admin users cannot manage team members directly; this is a Team Leader function.")
	}

	if _, err := uuid.Parse(teamID); err != nil {
		return nil, apperr.InvalidArgument("Invalid team ID format")
	}

	team, err := teams.Get(teamID)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, apperr.NotFound("Team not found")
	}

	if team.LeaderID == p.Username {
		return team, nil
	}
	return nil, apperr.Forbidden("You are not authorized to manage members for this team.")
}

// TeamMemberOrAdmin admits admins and team members. A missing team and a
// denied caller receive the identical Forbidden; a malformed ID keeps its
// own InvalidArgument since it leaks nothing.
func TeamMemberOrAdmin(teams store.TeamStore, p *models.Principal, teamID string) (*models.Team, error) {
	if _, err := uuid.Parse(teamID); err != nil {
		return nil, apperr.InvalidArgument("Invalid team ID format")
	}

	team, err := teams.Get(teamID)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, apperr.Forbidden(ambiguousTeamMessage)
	}

	if p.IsAdmin() || team.HasMember(p.Username) {
		return team, nil
	}
	return nil, apperr.Forbidden(ambiguousTeamMessage)
}

// TeamAccess is the work service's cross-service team check: it fetches the
// team with the caller's own credential and lets the team service decide.
// Remote 403 stays Forbidden; a missing team or any unexpected peer status
// folds into the same ambiguous Forbidden; only an unreachable peer is
// surfaced as such.
func TeamAccess(teams TeamDirectory, p *models.Principal, teamID string) error {
	_, err := teams.GetTeam(p.Token, teamID)
	if err == nil {
		return nil
	}

	switch apperr.CodeOf(err) {
	case apperr.CodeForbidden:
		return apperr.Forbidden("Not authorized to view tasks for this team.")
	case apperr.CodePeerUnavailable:
		return apperr.PeerUnavailable("Team service is unreachable.")
	default:
		return apperr.Forbidden("The specified team was not found or is inaccessible.")
	}
}

// LeadsTeam confirms via the team service that the principal leads the given
// team. Any remote failure means "not leader": the callers use this to grant
// extra deletion rights, so the check fails closed and never surfaces an
// error.
func LeadsTeam(teams TeamDirectory, p *models.Principal, teamID string) bool {
	if p.Role != models.RoleTeamLeader {
		return false
	}
	isLeader, err := teams.IsLeaderOfTeam(teamID, p.Username)
	if err != nil {
		return false
	}
	return isLeader
}
