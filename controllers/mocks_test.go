package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"crewdesk/client"
	"crewdesk/middleware"
	"crewdesk/models"
	"crewdesk/store"
)

type userStoreMock struct{ mock.Mock }

var _ store.UserStore = (*userStoreMock)(nil)

func (m *userStoreMock) Create(user *models.User) error {
	return m.Called(user).Error(0)
}

func (m *userStoreMock) GetByUsername(username string) (*models.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *userStoreMock) GetByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *userStoreMock) List() ([]models.User, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *userStoreMock) Save(user *models.User) error {
	return m.Called(user).Error(0)
}

func (m *userStoreMock) Delete(username string) error {
	return m.Called(username).Error(0)
}

type teamStoreMock struct{ mock.Mock }

var _ store.TeamStore = (*teamStoreMock)(nil)

func (m *teamStoreMock) Create(team *models.Team) error {
	return m.Called(team).Error(0)
}

func (m *teamStoreMock) Get(id string) (*models.Team, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Team), args.Error(1)
}

func (m *teamStoreMock) List() ([]models.Team, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Team), args.Error(1)
}

func (m *teamStoreMock) ListForMember(username string) ([]models.Team, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Team), args.Error(1)
}

func (m *teamStoreMock) ListLedBy(username string) ([]models.Team, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Team), args.Error(1)
}

func (m *teamStoreMock) CountLedBy(username string) (int64, error) {
	args := m.Called(username)
	return args.Get(0).(int64), args.Error(1)
}

func (m *teamStoreMock) Save(team *models.Team) error {
	return m.Called(team).Error(0)
}

func (m *teamStoreMock) Delete(id string) error {
	return m.Called(id).Error(0)
}

type taskStoreMock struct{ mock.Mock }

var _ store.TaskStore = (*taskStoreMock)(nil)

func (m *taskStoreMock) Create(task *models.Task) error {
	return m.Called(task).Error(0)
}

func (m *taskStoreMock) Get(id string) (*models.Task, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func (m *taskStoreMock) ListAssignedTo(username string, filter store.TaskFilter) ([]models.Task, error) {
	args := m.Called(username, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Task), args.Error(1)
}

func (m *taskStoreMock) ListByTeam(teamID string, filter store.TaskFilter) ([]models.Task, error) {
	args := m.Called(teamID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Task), args.Error(1)
}

func (m *taskStoreMock) Update(id string, updates map[string]interface{}) error {
	return m.Called(id, updates).Error(0)
}

func (m *taskStoreMock) Delete(id string) error {
	return m.Called(id).Error(0)
}

func (m *taskStoreMock) AddComment(comment *models.Comment) error {
	return m.Called(comment).Error(0)
}

func (m *taskStoreMock) ListComments(taskID string) ([]models.Comment, error) {
	args := m.Called(taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Comment), args.Error(1)
}

func (m *taskStoreMock) GetComment(taskID, commentID string) (*models.Comment, error) {
	args := m.Called(taskID, commentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Comment), args.Error(1)
}

func (m *taskStoreMock) DeleteComment(taskID, commentID string) error {
	return m.Called(taskID, commentID).Error(0)
}

func (m *taskStoreMock) AddAttachment(attachment *models.Attachment) error {
	return m.Called(attachment).Error(0)
}

func (m *taskStoreMock) ListAttachments(taskID string) ([]models.Attachment, error) {
	args := m.Called(taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Attachment), args.Error(1)
}

func (m *taskStoreMock) GetAttachment(taskID, attachmentID string) (*models.Attachment, error) {
	args := m.Called(taskID, attachmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Attachment), args.Error(1)
}

func (m *taskStoreMock) DeleteAttachment(taskID, attachmentID string) error {
	return m.Called(taskID, attachmentID).Error(0)
}

// leadershipMock stands in for the team-service is-leader lookup.
type leadershipMock struct{ mock.Mock }

var _ LeadershipChecker = (*leadershipMock)(nil)

func (m *leadershipMock) IsTeamLeader(username string) (bool, error) {
	args := m.Called(username)
	return args.Bool(0), args.Error(1)
}

// userDirectoryMock stands in for the identity-service client.
type userDirectoryMock struct{ mock.Mock }

var (
	_ UserDirectory = (*userDirectoryMock)(nil)
	_ UserLookup    = (*userDirectoryMock)(nil)
)

func (m *userDirectoryMock) GetUser(token, username string) (*client.RemoteUser, error) {
	args := m.Called(token, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.RemoteUser), args.Error(1)
}

func (m *userDirectoryMock) UpdateUserRole(token, username string, role models.Role) error {
	return m.Called(token, username, role).Error(0)
}

// teamDirectoryMock stands in for the team-service client.
type teamDirectoryMock struct{ mock.Mock }

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

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// appWithPrincipal builds a fiber app whose handlers see p as the
// authenticated caller, skipping token verification.
func appWithPrincipal(p *models.Principal) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(middleware.PrincipalKey, p)
		return c.Next()
	})
	return app
}

func jsonRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func errorMessage(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body map[string]string
	decodeBody(t, resp, &body)
	return body["error"]
}
