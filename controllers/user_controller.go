package controllers

import (
	"github.com/badoux/checkmail"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"crewdesk/apperr"
	"crewdesk/middleware"
	"crewdesk/models"
	"crewdesk/store"
	"crewdesk/utils"
)

// LeadershipChecker is the slice of the team-service client the identity
// guards need: "does this user still lead any team?".
type LeadershipChecker interface {
	IsTeamLeader(username string) (bool, error)
}

// UserController owns the identity service's endpoints: registration, login,
// user administration, and the hard guards of the leadership protocol.
type UserController struct {
	Users  store.UserStore
	Teams  LeadershipChecker
	Logger *logrus.Entry
}

func NewUserController(users store.UserStore, teams LeadershipChecker, logger *logrus.Entry) *UserController {
	return &UserController{Users: users, Teams: teams, Logger: logger}
}

type RegisterRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=64"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
	FirstName string `json:"first_name" validate:"required,min=1,max=64"`
	LastName  string `json:"last_name" validate:"required,min=1,max=64"`
}

type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type RoleUpdateRequest struct {
	Role models.Role `json:"role" validate:"required"`
}

// Register creates a new account. Registration is open; accounts start as
// inactive members and an admin activates them.
func (uc *UserController) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.WriteError(c, apperr.InvalidArgument("Invalid request body"))
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.WriteError(c, apperr.InvalidArgument(err.Error()))
	}
	if err := checkmail.ValidateFormat(req.Email); err != nil {
		return utils.WriteError(c, apperr.InvalidArgument("email must be a valid email"))
	}

	existing, err := uc.Users.GetByUsername(req.Username)
	if err != nil {
		return utils.WriteError(c, err)
	}
	if existing != nil {
		return utils.WriteError(c, apperr.InvalidArgument("Username already exists"))
	}

	existing, err = uc.Users.GetByEmail(req.Email)
	if err != nil {
		return utils.WriteError(c, err)
	}
	if existing != nil {
		return utils.WriteError(c, apperr.InvalidArgument("Email already exists"))
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return utils.WriteError(c, err)
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         models.RoleMember,
		Active:       false,
	}
	if err := uc.Users.Create(&user); err != nil {
		return utils.WriteError(c, err)
	}

	uc.Logger.WithField("username", user.Username).Info("user registered")
	return c.Status(fiber.StatusCreated).JSON(user)
}

// Login verifies credentials and issues the bearer token consumed by all
// three services.
func (uc *UserController) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.WriteError(c, apperr.InvalidArgument("Invalid request body"))
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.WriteError(c, apperr.InvalidArgument(err.Error()))
	}

	user, err := uc.Users.GetByUsername(req.Username)
	if err != nil {
		return utils.WriteError(c, err)
	}
	if user == nil || !utils.CheckPassword(req.Password, user.PasswordHash) {
		return utils.WriteError(c, apperr.Unauthenticated("Incorrect username or password"))
	}
	if !user.Active {
		return utils.WriteError(c, apperr.InvalidArgument("Inactive user. Please contact administrator for activation."))
	}

	token, err := utils.GenerateToken(user.Username, user.Role)
	if err != nil {
		return utils.WriteError(c, err)
	}

	return c.JSON(TokenResponse{AccessToken: token, TokenType: "bearer"})
}

// ListUsers returns all users to any authenticated, active account.
func (uc *UserController) ListUsers(c *fiber.Ctx) error {
	users, err := uc.Users.List()
	if err != nil {
		return utils.WriteError(c, err)
	}
	return c.JSON(users)
}

// Me returns the caller's own row.
func (uc *UserController) Me(c *fiber.Ctx) error {
	return c.JSON(middleware.UserFrom(c))
}

// GetUser returns one user by username.
func (uc *UserController) GetUser(c *fiber.Ctx) error {
	user, err := uc.Users.GetByUsername(c.Params("username"))
	if err != nil {
		return utils.WriteError(c, err)
	}
	if user == nil {
		return utils.WriteError(c, apperr.NotFound("User not found"))
	}
	return c.JSON(user)
}

// ActivateUser flips an account to active. Admin only.
func (uc *UserController) ActivateUser(c *fiber.Ctx) error {
	user, err := uc.requireTarget(c)
	if err != nil {
		return utils.WriteError(c, err)
	}
	if user.Active {
		return utils.WriteError(c, apperr.InvalidArgument("User is already active"))
	}

	user.Active = true
	if err := uc.Users.Save(user); err != nil {
		return utils.WriteError(c, err)
	}

	uc.Logger.WithField("username", user.Username).Info("user activated")
	return c.JSON(user)
}

// DeactivateUser flips an account to inactive. Admin accounts cannot be
// deactivated.
func (uc *UserController) DeactivateUser(c *fiber.Ctx) error {
	user, err := uc.requireTarget(c)
	if err != nil {
		return utils.WriteError(c, err)
	}
	if user.Role == models.RoleAdmin {
		return utils.WriteError(c, apperr.Forbidden("Cannot deactivate an admin account"))
	}

	user.Active = false
	if err := uc.Users.Save(user); err != nil {
		return utils.WriteError(c, err)
	}

	uc.Logger.WithField("username", user.Username).Info("user deactivated")
	return c.JSON(user)
}

// UpdateRole changes a user's role. This is both the sync target of the
// leadership protocol (the team service PATCHes here) and a guarded
// operation: demoting a current TeamLeader is refused while the team
// service says they still lead a team. The guard is the hard half of the
// protocol — if it cannot be evaluated, the request fails rather than
// mutating.
func (uc *UserController) UpdateRole(c *fiber.Ctx) error {
	var req RoleUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.WriteError(c, apperr.InvalidArgument("Invalid request body"))
	}
	if !req.Role.Valid() {
		return utils.WriteError(c, apperr.InvalidArgument("Invalid role"))
	}

	user, err := uc.requireTarget(c)
	if err != nil {
		return utils.WriteError(c, err)
	}

	if user.Role == models.RoleTeamLeader && req.Role != models.RoleTeamLeader {
		isLeader, err := uc.Teams.IsTeamLeader(user.Username)
		if err != nil {
			return utils.WriteError(c, err)
		}
		if isLeader {
			return utils.WriteError(c, apperr.InvalidState(
				"User still leads at least one team and cannot be demoted"))
		}
	}

	user.Role = req.Role
	if err := uc.Users.Save(user); err != nil {
		return utils.WriteError(c, err)
	}

	uc.Logger.WithFields(logrus.Fields{
		"username": user.Username,
		"role":     user.Role,
	}).Info("user role updated")
	return c.JSON(user)
}

// DeleteUser permanently removes an account. Admin accounts cannot be
// deleted, and neither can anyone who currently leads a team.
func (uc *UserController) DeleteUser(c *fiber.Ctx) error {
	user, err := uc.requireTarget(c)
	if err != nil {
		return utils.WriteError(c, err)
	}
	if user.Role == models.RoleAdmin {
		return utils.WriteError(c, apperr.Forbidden("Cannot delete an admin account"))
	}

	isLeader, err := uc.Teams.IsTeamLeader(user.Username)
	if err != nil {
		return utils.WriteError(c, err)
	}
	if isLeader {
		return utils.WriteError(c, apperr.InvalidState(
			"User still leads at least one team and cannot be deleted"))
	}

	if err := uc.Users.Delete(user.Username); err != nil {
		return utils.WriteError(c, err)
	}

	uc.Logger.WithField("username", user.Username).Info("user deleted")
	return c.SendStatus(fiber.StatusNoContent)
}

// requireTarget loads the user named in the path for the admin endpoints.
func (uc *UserController) requireTarget(c *fiber.Ctx) (*models.User, error) {
	user, err := uc.Users.GetByUsername(c.Params("username"))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("User not found")
	}
	return user, nil
}
