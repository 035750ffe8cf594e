package controllers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"crewdesk/apperr"
	"crewdesk/authz"
	"crewdesk/middleware"
	"crewdesk/models"
	"crewdesk/utils"
)

// UploadAttachment stores a file against a task. Any team member may upload.
func (tc *TaskController) UploadAttachment(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)

	task, err := tc.loadTask(c.Params("id"))
	if err != nil {
		return utils.WriteError(c, err)
	}
	if err := authz.TeamAccess(tc.Teams, p, task.TeamID); err != nil {
		return utils.WriteError(c, err)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.WriteError(c, apperr.InvalidArgument("No file provided."))
	}

	attachmentID := uuid.NewString()
	taskDir := filepath.Join(tc.UploadDir, task.ID)
	if err := os.MkdirAll(taskDir, 0o755); err != nil {
		return utils.WriteError(c, err)
	}

	// Stored name is unique; the original filename survives only as metadata.
	storedPath := filepath.Join(taskDir, fmt.Sprintf("%s_%s", attachmentID, filepath.Base(fileHeader.Filename)))
	if err := c.SaveFile(fileHeader, storedPath); err != nil {
		return utils.WriteError(c, err)
	}

	attachment := models.Attachment{
		ID:          attachmentID,
		TaskID:      task.ID,
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Path:        storedPath,
		UploadedBy:  p.Username,
	}
	if err := tc.Tasks.AddAttachment(&attachment); err != nil {
		if rmErr := os.Remove(storedPath); rmErr != nil {
			tc.Logger.WithError(rmErr).WithField("path", storedPath).Warn("failed to remove orphaned upload")
		}
		return utils.WriteError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(attachment)
}

// ListAttachments returns a task's attachment metadata to its team.
func (tc *TaskController) ListAttachments(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)

	task, err := tc.loadTask(c.Params("id"))
	if err != nil {
		return utils.WriteError(c, err)
	}
	if err := authz.TeamAccess(tc.Teams, p, task.TeamID); err != nil {
		return utils.WriteError(c, err)
	}

	attachments, err := tc.Tasks.ListAttachments(task.ID)
	if err != nil {
		return utils.WriteError(c, err)
	}
	if attachments == nil {
		attachments = []models.Attachment{}
	}
	return c.JSON(attachments)
}

// DownloadAttachment streams an attachment back with its original filename.
// The record may outlive the file on disk; that case is 410, not 404.
func (tc *TaskController) DownloadAttachment(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)

	task, attachment, err := tc.loadAttachment(c.Params("id"), c.Params("attachmentId"))
	if err != nil {
		return utils.WriteError(c, err)
	}
	if err := authz.TeamAccess(tc.Teams, p, task.TeamID); err != nil {
		return utils.WriteError(c, err)
	}

	path, err := tc.containedPath(attachment.Path)
	if err != nil {
		return utils.WriteError(c, err)
	}
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		return utils.WriteError(c, apperr.Gone("Attachment file no longer exists on server."))
	}

	if attachment.ContentType != "" {
		c.Set(fiber.HeaderContentType, attachment.ContentType)
	}
	return c.Download(path, attachment.Filename)
}

// DeleteAttachment removes an attachment record and its file. The uploader,
// an admin, or the leader of the task's team. Leadership is confirmed
// against the team service and fails closed.
func (tc *TaskController) DeleteAttachment(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)

	task, attachment, err := tc.loadAttachment(c.Params("id"), c.Params("attachmentId"))
	if err != nil {
		return utils.WriteError(c, err)
	}

	isUploader := p.Username == attachment.UploadedBy
	isLeader := authz.LeadsTeam(tc.Teams, p, task.TeamID)
	if !(isUploader || isLeader || p.IsAdmin()) {
		return utils.WriteError(c, apperr.Forbidden("You are not authorized to delete this file."))
	}

	if path, pathErr := tc.containedPath(attachment.Path); pathErr == nil {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			tc.Logger.WithError(rmErr).WithFields(logrus.Fields{
				"attachment_id": attachment.ID,
				"path":          path,
			}).Warn("failed to remove attachment file; record will still be deleted")
		}
	}

	if err := tc.Tasks.DeleteAttachment(task.ID, attachment.ID); err != nil {
		return utils.WriteError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (tc *TaskController) loadAttachment(taskID, attachmentID string) (*models.Task, *models.Attachment, error) {
	if !validUUIDs(taskID, attachmentID) {
		return nil, nil, apperr.InvalidArgument("Invalid task or attachment ID format.")
	}

	task, err := tc.Tasks.Get(taskID)
	if err != nil {
		return nil, nil, err
	}
	if task == nil {
		return nil, nil, apperr.NotFound("Task not found.")
	}

	attachment, err := tc.Tasks.GetAttachment(taskID, attachmentID)
	if err != nil {
		return nil, nil, err
	}
	if attachment == nil {
		return nil, nil, apperr.NotFound("Attachment not found.")
	}
	return task, attachment, nil
}

// containedPath resolves a stored path and rejects anything that escapes the
// upload directory, however the record got that way.
func (tc *TaskController) containedPath(stored string) (string, error) {
	base, err := filepath.Abs(tc.UploadDir)
	if err != nil {
		return "", err
	}
	path, err := filepath.Abs(stored)
	if err != nil {
		return "", err
	}
	if path != base && !strings.HasPrefix(path, base+string(filepath.Separator)) {
		tc.Logger.WithField("path", stored).Error("attachment path escapes upload directory")
		return "", fmt.Errorf("invalid attachment path on server")
	}
	return path, nil
}
