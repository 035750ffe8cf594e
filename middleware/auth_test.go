package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"crewdesk/config"
	"crewdesk/models"
	"crewdesk/store"
	"crewdesk/utils"
)

type userStoreMock struct{ mock.Mock }

var _ store.UserStore = (*userStoreMock)(nil)

func (m *userStoreMock) Create(user *models.User) error { return m.Called(user).Error(0) }

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
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *userStoreMock) Save(user *models.User) error { return m.Called(user).Error(0) }
func (m *userStoreMock) Delete(username string) error { return m.Called(username).Error(0) }

func protectedApp(handler fiber.Handler, protect fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Get("/protected", protect, handler)
	return app
}

func echoPrincipal(c *fiber.Ctx) error {
	p := PrincipalFrom(c)
	return c.JSON(fiber.Map{"username": p.Username, "role": string(p.Role)})
}

func TestProtectedRejectsMissingAndMalformedHeaders(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"
	app := protectedApp(echoPrincipal, Protected())

	for _, header := range []string{"", "Basic abc", "Bearer", "Bearer not-a-jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, "header: %q", header)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		resp.Body.Close()
		require.Equal(t, "Could not validate credentials", body["error"])
	}
}

func TestProtectedAcceptsValidToken(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"
	token, err := utils.GenerateToken("alice", models.RoleMember)
	require.NoError(t, err)

	app := protectedApp(echoPrincipal, Protected())
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	require.Equal(t, "alice", body["username"])
	require.Equal(t, "member", body["role"])
}

// A valid token is not enough on the identity service: the row must still
// exist and still be active.
func TestProtectedWithLookupDeletedAccount(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"
	token, err := utils.GenerateToken("alice", models.RoleMember)
	require.NoError(t, err)

	users := &userStoreMock{}
	users.On("GetByUsername", "alice").Return(nil, nil)

	app := protectedApp(echoPrincipal, ProtectedWithLookup(users))
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedWithLookupInactiveAccount(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"
	token, err := utils.GenerateToken("alice", models.RoleMember)
	require.NoError(t, err)

	users := &userStoreMock{}
	users.On("GetByUsername", "alice").Return(&models.User{
		Username: "alice", Role: models.RoleMember, Active: false,
	}, nil)

	app := protectedApp(echoPrincipal, ProtectedWithLookup(users))
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	require.Equal(t, "Inactive user", body["error"])
}

func TestProtectedWithLookupStoresUser(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"
	token, err := utils.GenerateToken("alice", models.RoleMember)
	require.NoError(t, err)

	users := &userStoreMock{}
	users.On("GetByUsername", "alice").Return(&models.User{
		Username: "alice", Role: models.RoleMember, Active: true,
	}, nil)

	app := fiber.New()
	app.Get("/protected", ProtectedWithLookup(users), func(c *fiber.Ctx) error {
		return c.JSON(UserFrom(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body models.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	require.Equal(t, "alice", body.Username)
}

func TestRequireAdmin(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(PrincipalKey, &models.Principal{Username: "carol", Role: models.RoleMember})
		return c.Next()
	})
	app.Get("/admin-only", RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin-only", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}
