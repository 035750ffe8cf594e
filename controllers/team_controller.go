package controllers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"crewdesk/apperr"
	"crewdesk/authz"
	"crewdesk/client"
	"crewdesk/middleware"
	"crewdesk/models"
	"crewdesk/rolesync"
	"crewdesk/store"
	"crewdesk/utils"
)

// UserDirectory is the slice of the identity-service client the team
// controller needs: user lookups for validation, role updates for the
// leadership sync.
type UserDirectory interface {
	GetUser(token, username string) (*client.RemoteUser, error)
	UpdateUserRole(token, username string, role models.Role) error
}

// TeamController owns the team service's endpoints. Mutations that change
// who leads a team commit locally first and then hand the role
// synchronization to the maintainer; the maintainer's errors are logged
// inside it and deliberately discarded here.
type TeamController struct {
	Teams  store.TeamStore
	Users  UserDirectory
	Sync   *rolesync.Maintainer
	Logger *logrus.Entry
}

func NewTeamController(teams store.TeamStore, users UserDirectory, sync *rolesync.Maintainer, logger *logrus.Entry) *TeamController {
	return &TeamController{Teams: teams, Users: users, Sync: sync, Logger: logger}
}

type TeamCreateRequest struct {
	Name           string `json:"name" validate:"required,min=3"`
	Description    string `json:"description"`
	LeaderUsername string `json:"leader_username" validate:"required"`
}

type TeamUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type MemberAddRequest struct {
	Username string `json:"username" validate:"required"`
}

type LeaderAssignRequest struct {
	NewLeaderUsername string `json:"new_leader_username" validate:"required"`
}

// CreateTeam creates a team with the named leader. The leader must exist in
// the identity service; after the team commits, a best-effort promotion is
// pushed unless the leader is an admin.
func (tc *TeamController) CreateTeam(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)

	var req TeamCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.WriteError(c, apperr.InvalidArgument("Invalid request body"))
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.WriteError(c, apperr.InvalidArgument(err.Error()))
	}

	leader, err := tc.Users.GetUser(p.Token, req.LeaderUsername)
	if err != nil {
		if apperr.Is(err, apperr.CodeNotFound) {
			return utils.WriteError(c, apperr.NotFound("Team Leader username not found."))
		}
		if apperr.Is(err, apperr.CodePeerUnavailable) {
			return utils.WriteError(c, apperr.PeerUnavailable("User service is unreachable."))
		}
		return utils.WriteError(c, err)
	}

	team := models.Team{
		Name:        req.Name,
		Description: req.Description,
		LeaderID:    leader.Username,
		MemberIDs:   []string{leader.Username},
	}
	if err := tc.Teams.Create(&team); err != nil {
		return utils.WriteError(c, err)
	}

	// Best-effort: the team exists even if the promotion never lands.
	_ = tc.Sync.PromoteToLeader(p.Token, leader.Username, leader.Role)

	tc.Logger.WithFields(logrus.Fields{
		"team_id": team.ID,
		"leader":  team.LeaderID,
	}).Info("team created")
	return c.Status(fiber.StatusCreated).JSON(team)
}

// ListTeams returns all teams to admins, and only the caller's teams to
// everyone else.
func (tc *TeamController) ListTeams(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)

	var (
		teams []models.Team
		err   error
	)
	if p.IsAdmin() {
		teams, err = tc.Teams.List()
	} else {
		teams, err = tc.Teams.ListForMember(p.Username)
	}
	if err != nil {
		return utils.WriteError(c, err)
	}
	return c.JSON(teams)
}

// GetTeam returns one team to admins and members; everyone else — and every
// request for a team that does not exist — gets the same Forbidden.
func (tc *TeamController) GetTeam(c *fiber.Ctx) error {
	team, err := authz.TeamMemberOrAdmin(tc.Teams, middleware.PrincipalFrom(c), c.Params("id"))
	if err != nil {
		return utils.WriteError(c, err)
	}
	return c.JSON(team)
}

// UpdateTeam changes a team's name or description.
func (tc *TeamController) UpdateTeam(c *fiber.Ctx) error {
	team, err := authz.TeamLeaderOrAdmin(tc.Teams, middleware.PrincipalFrom(c), c.Params("id"))
	if err != nil {
		return utils.WriteError(c, err)
	}

	var req TeamUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.WriteError(c, apperr.InvalidArgument("Invalid request body"))
	}
	if req.Name == nil && req.Description == nil {
		return utils.WriteError(c, apperr.InvalidArgument("No update data provided (name or description)."))
	}

	if req.Name != nil {
		team.Name = *req.Name
	}
	if req.Description != nil {
		team.Description = *req.Description
	}
	if err := tc.Teams.Save(team); err != nil {
		return utils.WriteError(c, err)
	}
	return c.JSON(team)
}

// DeleteTeam removes a team. If its leader leads nothing else afterwards, a
// best-effort demotion is pushed; a failed demotion leaves the stores
// diverged and is only logged.
func (tc *TeamController) DeleteTeam(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)
	teamID := c.Params("id")

	if _, err := uuid.Parse(teamID); err != nil {
		return utils.WriteError(c, apperr.InvalidArgument("Invalid team ID format"))
	}

	team, err := tc.Teams.Get(teamID)
	if err != nil {
		return utils.WriteError(c, err)
	}
	if team == nil {
		return utils.WriteError(c, apperr.NotFound("Team not found"))
	}

	if err := tc.Teams.Delete(teamID); err != nil {
		return utils.WriteError(c, err)
	}

	_ = tc.Sync.DemoteIfLeadsNothing(p.Token, team.LeaderID)

	tc.Logger.WithFields(logrus.Fields{
		"team_id": teamID,
		"leader":  team.LeaderID,
	}).Info("team deleted")
	return c.SendStatus(fiber.StatusNoContent)
}

// AddMember adds a validated, active user to the team. Leader only.
func (tc *TeamController) AddMember(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)

	team, err := authz.TeamLeaderOnly(tc.Teams, p, c.Params("id"))
	if err != nil {
		return utils.WriteError(c, err)
	}

	var req MemberAddRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.WriteError(c, apperr.InvalidArgument("Invalid request body"))
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.WriteError(c, apperr.InvalidArgument(err.Error()))
	}

	if team.HasMember(req.Username) {
		return utils.WriteError(c, apperr.InvalidArgument("User is already a member of this team"))
	}

	user, err := tc.Users.GetUser(p.Token, req.Username)
	if err != nil {
		if apperr.Is(err, apperr.CodeNotFound) {
			return utils.WriteError(c, apperr.NotFound("User to add not found."))
		}
		if apperr.Is(err, apperr.CodePeerUnavailable) {
			return utils.WriteError(c, apperr.PeerUnavailable("User service is unreachable."))
		}
		return utils.WriteError(c, err)
	}
	if !user.Active {
		return utils.WriteError(c, apperr.InvalidArgument("User is not active and cannot be added."))
	}

	team.MemberIDs = append(team.MemberIDs, user.Username)
	if err := tc.Teams.Save(team); err != nil {
		return utils.WriteError(c, err)
	}
	return c.JSON(team)
}

// RemoveMember removes a member. The leader cannot be removed; leadership
// must be reassigned first.
func (tc *TeamController) RemoveMember(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)

	team, err := authz.TeamLeaderOnly(tc.Teams, p, c.Params("id"))
	if err != nil {
		return utils.WriteError(c, err)
	}

	username := c.Params("username")
	if username == team.LeaderID {
		return utils.WriteError(c, apperr.InvalidArgument("Cannot remove the Team Leader. Please reassign leadership first."))
	}
	if !team.HasMember(username) {
		return utils.WriteError(c, apperr.NotFound("User is not a member of this team."))
	}

	members := team.MemberIDs[:0]
	for _, m := range team.MemberIDs {
		if m != username {
			members = append(members, m)
		}
	}
	team.MemberIDs = members

	if err := tc.Teams.Save(team); err != nil {
		return utils.WriteError(c, err)
	}
	return c.JSON(team)
}

// AssignLeader hands the team to a new leader: the new leader is validated
// and promoted (best effort), and the old one demoted only if no other team
// still has them as leader.
func (tc *TeamController) AssignLeader(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)
	teamID := c.Params("id")

	if _, err := uuid.Parse(teamID); err != nil {
		return utils.WriteError(c, apperr.InvalidArgument("Invalid team ID format"))
	}

	team, err := tc.Teams.Get(teamID)
	if err != nil {
		return utils.WriteError(c, err)
	}
	if team == nil {
		return utils.WriteError(c, apperr.NotFound("Team not found"))
	}

	var req LeaderAssignRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.WriteError(c, apperr.InvalidArgument("Invalid request body"))
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.WriteError(c, apperr.InvalidArgument(err.Error()))
	}

	oldLeader := team.LeaderID
	if req.NewLeaderUsername == oldLeader {
		return utils.WriteError(c, apperr.InvalidArgument("This user is already the team leader."))
	}

	newLeader, err := tc.Users.GetUser(p.Token, req.NewLeaderUsername)
	if err != nil {
		if apperr.Is(err, apperr.CodeNotFound) {
			return utils.WriteError(c, apperr.NotFound(fmt.Sprintf("User '%s' not found.", req.NewLeaderUsername)))
		}
		if apperr.Is(err, apperr.CodePeerUnavailable) {
			return utils.WriteError(c, apperr.PeerUnavailable("User service is unreachable."))
		}
		return utils.WriteError(c, err)
	}
	if !newLeader.Active {
		return utils.WriteError(c, apperr.InvalidArgument(fmt.Sprintf("User '%s' is not active.", req.NewLeaderUsername)))
	}

	team.LeaderID = newLeader.Username
	if !team.HasMember(newLeader.Username) {
		team.MemberIDs = append(team.MemberIDs, newLeader.Username)
	}
	if err := tc.Teams.Save(team); err != nil {
		return utils.WriteError(c, err)
	}

	// Promote unconditionally, demote only if the old leader leads nothing
	// else. Both are best-effort; the reassignment above already committed.
	_ = tc.Sync.PromoteToLeader(p.Token, newLeader.Username, newLeader.Role)
	_ = tc.Sync.DemoteIfLeadsNothing(p.Token, oldLeader)

	tc.Logger.WithFields(logrus.Fields{
		"team_id":    team.ID,
		"old_leader": oldLeader,
		"new_leader": team.LeaderID,
	}).Info("team leadership reassigned")
	return c.JSON(team)
}

// ListTeamsLedBy returns the teams a user leads. Admin only.
func (tc *TeamController) ListTeamsLedBy(c *fiber.Ctx) error {
	teams, err := tc.Teams.ListLedBy(c.Params("username"))
	if err != nil {
		return utils.WriteError(c, err)
	}
	if teams == nil {
		teams = []models.Team{}
	}
	return c.JSON(teams)
}

// IsLeader answers whether the user leads any team. Internal endpoint
// consumed unauthenticated by the identity service's guards.
func (tc *TeamController) IsLeader(c *fiber.Ctx) error {
	count, err := tc.Teams.CountLedBy(c.Params("username"))
	if err != nil {
		return utils.WriteError(c, err)
	}
	return c.JSON(fiber.Map{"is_leader": count > 0})
}

// IsLeaderOfTeam answers whether the user leads one specific team. Internal,
// consumed unauthenticated by the work service's deletion checks.
func (tc *TeamController) IsLeaderOfTeam(c *fiber.Ctx) error {
	teamID := c.Params("id")
	if _, err := uuid.Parse(teamID); err != nil {
		return utils.WriteError(c, apperr.InvalidArgument("Invalid team ID format"))
	}

	team, err := tc.Teams.Get(teamID)
	if err != nil {
		return utils.WriteError(c, err)
	}
	if team == nil {
		return utils.WriteError(c, apperr.NotFound("Team not found"))
	}

	return c.JSON(fiber.Map{"is_leader": team.LeaderID == c.Params("username")})
}
