package controllers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"crewdesk/apperr"
	"crewdesk/authz"
	"crewdesk/client"
	"crewdesk/middleware"
	"crewdesk/models"
	"crewdesk/store"
	"crewdesk/utils"
)

// UserLookup is the slice of the identity-service client the work service
// needs: validating assignees.
type UserLookup interface {
	GetUser(token, username string) (*client.RemoteUser, error)
}

// TaskController owns the work service's task and comment endpoints. The
// work service holds no team data, so every team-level decision is a remote
// call through the team directory.
type TaskController struct {
	Tasks     store.TaskStore
	Teams     authz.TeamDirectory
	Users     UserLookup
	UploadDir string
	Logger    *logrus.Entry
}

func NewTaskController(tasks store.TaskStore, teams authz.TeamDirectory, users UserLookup, uploadDir string, logger *logrus.Entry) *TaskController {
	return &TaskController{Tasks: tasks, Teams: teams, Users: users, UploadDir: uploadDir, Logger: logger}
}

type TaskCreateRequest struct {
	TeamID      string              `json:"team_id" validate:"required"`
	Title       string              `json:"title" validate:"required,min=5"`
	Description string              `json:"description"`
	AssignedTo  string              `json:"assigned_to" validate:"required"`
	DueDate     time.Time           `json:"due_date" validate:"required"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority" validate:"required"`
}

type TaskUpdateRequest struct {
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	AssignedTo  *string              `json:"assigned_to"`
	Status      *models.TaskStatus   `json:"status"`
	Priority    *models.TaskPriority `json:"priority"`
	DueDate     *time.Time           `json:"due_date"`
}

type TaskStatusUpdateRequest struct {
	Status models.TaskStatus `json:"status" validate:"required"`
}

type CommentRequest struct {
	Text string `json:"text" validate:"required,min=2,max=1000"`
}

// CreateTask creates a task in a team the caller leads. The leadership claim
// is verified remotely: the team service's own access decision on a plain
// team fetch stands in for "may create tasks here".
func (tc *TaskController) CreateTask(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)

	if p.Role != models.RoleTeamLeader {
		return utils.WriteError(c, apperr.Forbidden("Only Team Leaders are authorized to create tasks."))
	}

	var req TaskCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.WriteError(c, apperr.InvalidArgument("Invalid request body"))
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.WriteError(c, apperr.InvalidArgument(err.Error()))
	}
	if req.Status == "" {
		req.Status = models.TaskStatusTodo
	}
	if !req.Status.Valid() || !req.Priority.Valid() {
		return utils.WriteError(c, apperr.InvalidArgument("Invalid status or priority value."))
	}

	if _, err := tc.Teams.GetTeam(p.Token, req.TeamID); err != nil {
		switch apperr.CodeOf(err) {
		case apperr.CodeForbidden:
			return utils.WriteError(c, apperr.Forbidden("You can only create tasks for the team you lead."))
		case apperr.CodePeerUnavailable:
			return utils.WriteError(c, apperr.PeerUnavailable("Team service is unreachable."))
		default:
			// Absent team and peer errors collapse here; nothing is leaked.
			return utils.WriteError(c, apperr.InvalidArgument("Team assignment failed. The specified Team ID is invalid or inaccessible."))
		}
	}

	assignee, err := tc.Users.GetUser(p.Token, req.AssignedTo)
	if err != nil {
		switch apperr.CodeOf(err) {
		case apperr.CodeNotFound:
			return utils.WriteError(c, apperr.NotFound(fmt.Sprintf("User '%s' not found in the system.", req.AssignedTo)))
		case apperr.CodePeerUnavailable:
			return utils.WriteError(c, apperr.PeerUnavailable("User service is unreachable."))
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Error during user assignment validation.",
			})
		}
	}
	if !assignee.Active {
		return utils.WriteError(c, apperr.InvalidArgument("Assigned user is not active and cannot be assigned a task."))
	}

	task := models.Task{
		TeamID:      req.TeamID,
		Title:       req.Title,
		Description: req.Description,
		CreatedBy:   p.Username,
		AssignedTo:  req.AssignedTo,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
	}
	if err := tc.Tasks.Create(&task); err != nil {
		return utils.WriteError(c, err)
	}

	tc.Logger.WithFields(logrus.Fields{
		"task_id":     task.ID,
		"team_id":     task.TeamID,
		"created_by":  task.CreatedBy,
		"assigned_to": task.AssignedTo,
	}).Info("task created")
	return c.Status(fiber.StatusCreated).JSON(task)
}

// GetTask returns one task to members of its team (checked remotely).
func (tc *TaskController) GetTask(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)

	task, err := tc.loadTask(c.Params("id"))
	if err != nil {
		return utils.WriteError(c, err)
	}
	if err := authz.TeamAccess(tc.Teams, p, task.TeamID); err != nil {
		return utils.WriteError(c, err)
	}
	return c.JSON(task)
}

// ListMyTasks lists tasks assigned to the caller across all teams.
func (tc *TaskController) ListMyTasks(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)

	filter, err := taskFilterFromQuery(c)
	if err != nil {
		return utils.WriteError(c, err)
	}

	tasks, err := tc.Tasks.ListAssignedTo(p.Username, filter)
	if err != nil {
		return utils.WriteError(c, err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return c.JSON(tasks)
}

// ListTeamTasks lists a team's tasks for its members (checked remotely).
func (tc *TaskController) ListTeamTasks(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)
	teamID := c.Params("teamId")

	if err := authz.TeamAccess(tc.Teams, p, teamID); err != nil {
		return utils.WriteError(c, err)
	}

	filter, err := taskFilterFromQuery(c)
	if err != nil {
		return utils.WriteError(c, err)
	}

	tasks, err := tc.Tasks.ListByTeam(teamID, filter)
	if err != nil {
		return utils.WriteError(c, err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return c.JSON(tasks)
}

// UpdateTask edits a task. Admins, or the team leader who created it.
func (tc *TaskController) UpdateTask(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)

	task, err := tc.taskForLeaderOrAdmin(p, c.Params("id"))
	if err != nil {
		return utils.WriteError(c, err)
	}

	var req TaskUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.WriteError(c, apperr.InvalidArgument("Invalid request body"))
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return utils.WriteError(c, apperr.InvalidArgument("Invalid status value."))
		}
		updates["status"] = *req.Status
	}
	if req.Priority != nil {
		if !req.Priority.Valid() {
			return utils.WriteError(c, apperr.InvalidArgument("Invalid priority value."))
		}
		updates["priority"] = *req.Priority
	}
	if req.DueDate != nil {
		updates["due_date"] = *req.DueDate
	}
	if req.AssignedTo != nil {
		assignee, err := tc.Users.GetUser(p.Token, *req.AssignedTo)
		if err != nil {
			switch apperr.CodeOf(err) {
			case apperr.CodeNotFound:
				return utils.WriteError(c, apperr.NotFound(fmt.Sprintf("User '%s' is either invalid or not part of the team.", *req.AssignedTo)))
			case apperr.CodePeerUnavailable:
				return utils.WriteError(c, apperr.PeerUnavailable("User service is unreachable."))
			default:
				return utils.WriteError(c, err)
			}
		}
		if !assignee.Active {
			return utils.WriteError(c, apperr.InvalidArgument("Assigned user is not active and cannot be assigned a task."))
		}
		updates["assigned_to"] = *req.AssignedTo
	}

	if len(updates) == 0 {
		return utils.WriteError(c, apperr.InvalidArgument("No update data provided."))
	}

	if err := tc.Tasks.Update(task.ID, updates); err != nil {
		return utils.WriteError(c, err)
	}

	updated, err := tc.Tasks.Get(task.ID)
	if err != nil {
		return utils.WriteError(c, err)
	}
	return c.JSON(updated)
}

// UpdateTaskStatus moves a task through its workflow. Assigned user only.
func (tc *TaskController) UpdateTaskStatus(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)

	task, err := tc.loadTask(c.Params("id"))
	if err != nil {
		return utils.WriteError(c, err)
	}

	if p.Username != task.AssignedTo {
		return utils.WriteError(c, apperr.Forbidden("You are not authorized to change the status; only the assigned user can."))
	}

	var req TaskStatusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.WriteError(c, apperr.InvalidArgument("Invalid request body"))
	}
	if !req.Status.Valid() {
		return utils.WriteError(c, apperr.InvalidArgument("Invalid status value."))
	}

	if err := tc.Tasks.Update(task.ID, map[string]interface{}{"status": req.Status}); err != nil {
		return utils.WriteError(c, err)
	}

	updated, err := tc.Tasks.Get(task.ID)
	if err != nil {
		return utils.WriteError(c, err)
	}
	return c.JSON(updated)
}

// DeleteTask removes a task. Admins, or the team leader who created it.
func (tc *TaskController) DeleteTask(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)

	task, err := tc.taskForLeaderOrAdmin(p, c.Params("id"))
	if err != nil {
		return utils.WriteError(c, err)
	}

	if err := tc.Tasks.Delete(task.ID); err != nil {
		return utils.WriteError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddComment appends a comment; any team member (checked remotely) may do so.
func (tc *TaskController) AddComment(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)

	task, err := tc.loadTask(c.Params("id"))
	if err != nil {
		return utils.WriteError(c, err)
	}
	if err := authz.TeamAccess(tc.Teams, p, task.TeamID); err != nil {
		return utils.WriteError(c, err)
	}

	var req CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.WriteError(c, apperr.InvalidArgument("Invalid request body"))
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.WriteError(c, apperr.InvalidArgument(err.Error()))
	}

	comment := models.Comment{
		TaskID:    task.ID,
		Text:      req.Text,
		CreatedBy: p.Username,
	}
	if err := tc.Tasks.AddComment(&comment); err != nil {
		return utils.WriteError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// ListComments returns a task's comments to its team (checked remotely).
func (tc *TaskController) ListComments(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)

	task, err := tc.loadTask(c.Params("id"))
	if err != nil {
		return utils.WriteError(c, err)
	}
	if err := authz.TeamAccess(tc.Teams, p, task.TeamID); err != nil {
		return utils.WriteError(c, err)
	}

	comments, err := tc.Tasks.ListComments(task.ID)
	if err != nil {
		return utils.WriteError(c, err)
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return c.JSON(comments)
}

// DeleteComment removes a comment. The comment's author, an admin, or the
// leader of the task's team — leadership confirmed remotely and failing
// closed: a broken check never grants the extra right.
func (tc *TaskController) DeleteComment(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)

	taskID := c.Params("id")
	commentID := c.Params("commentId")
	if !validUUIDs(taskID, commentID) {
		return utils.WriteError(c, apperr.InvalidArgument("Invalid task or comment ID format."))
	}

	task, err := tc.Tasks.Get(taskID)
	if err != nil {
		return utils.WriteError(c, err)
	}
	if task == nil {
		return utils.WriteError(c, apperr.NotFound("Task not found."))
	}

	comment, err := tc.Tasks.GetComment(taskID, commentID)
	if err != nil {
		return utils.WriteError(c, err)
	}
	if comment == nil {
		return utils.WriteError(c, apperr.NotFound("Comment not found."))
	}

	isCreator := p.Username == comment.CreatedBy
	isLeader := authz.LeadsTeam(tc.Teams, p, task.TeamID)
	if !(isCreator || isLeader || p.IsAdmin()) {
		return utils.WriteError(c, apperr.Forbidden("You must be the comment creator, the Team Leader, or an Admin to delete this comment."))
	}

	if err := tc.Tasks.DeleteComment(taskID, commentID); err != nil {
		return utils.WriteError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// loadTask validates the ID and fetches the task.
func (tc *TaskController) loadTask(taskID string) (*models.Task, error) {
	if _, err := uuid.Parse(taskID); err != nil {
		return nil, apperr.InvalidArgument("Invalid task ID format.")
	}
	task, err := tc.Tasks.Get(taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, apperr.NotFound("Task not found.")
	}
	return task, nil
}

// taskForLeaderOrAdmin admits admins and the team leader who created the
// task; this local creator check is what the original management endpoints
// used, no remote call involved.
func (tc *TaskController) taskForLeaderOrAdmin(p *models.Principal, taskID string) (*models.Task, error) {
	task, err := tc.loadTask(taskID)
	if err != nil {
		return nil, err
	}

	if p.IsAdmin() {
		return task, nil
	}
	if p.Role == models.RoleTeamLeader && p.Username == task.CreatedBy {
		return task, nil
	}
	return nil, apperr.Forbidden("Only the Admin or the Task Creator/Team Leader can delete this task.")
}

func taskFilterFromQuery(c *fiber.Ctx) (store.TaskFilter, error) {
	filter := store.TaskFilter{
		SortByDue: c.Query("sort_by_due") == "true",
	}
	if raw := c.Query("status"); raw != "" {
		status := models.TaskStatus(raw)
		if !status.Valid() {
			return filter, apperr.InvalidArgument("Invalid status filter.")
		}
		filter.Status = &status
	}
	return filter, nil
}

func validUUIDs(ids ...string) bool {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return false
		}
	}
	return true
}
