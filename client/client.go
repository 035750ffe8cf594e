// Package client is the inter-service HTTP client. Every call is a single
// round trip that forwards the caller's bearer token; there are no retries
// and no idempotency keys, so a call either lands once or is reported as
// failed. Outcomes are translated into the shared error taxonomy and the
// calling resolver decides how far to fold them.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"crewdesk/apperr"
	"crewdesk/models"
)

// RemoteUser is the identity service's user representation as seen by peers.
type RemoteUser struct {
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Role      models.Role `json:"role"`
	Active    bool        `json:"active"`
}

// RemoteTeam is the team service's team representation as seen by peers.
type RemoteTeam struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	LeaderID    string   `json:"leader_id"`
	MemberIDs   []string `json:"member_ids"`
}

// Client talks to one named peer service.
type Client struct {
	name    string
	baseURL string
	httpc   *http.Client
}

// New builds a client for the peer at baseURL. name appears in unreachable
// messages ("user service", "team service"). The timeout bounds the whole
// round trip; a timeout is reported the same way as a refused connection.
func New(name, baseURL string, timeout time.Duration) *Client {
	return &Client{
		name:    name,
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
	}
}

// do performs one call and returns the status and body. Any transport-level
// failure becomes PeerUnavailable; status interpretation is left to the
// typed methods.
func (c *Client) do(method, path, token string, body interface{}) (int, []byte, error) {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, nil, apperr.PeerUnavailable(fmt.Sprintf("%s is unreachable", c.name))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, apperr.PeerError(fmt.Sprintf("%s returned an unreadable response", c.name))
	}
	return resp.StatusCode, raw, nil
}

// GetUser fetches a user row from the identity service with the caller's
// own credential.
func (c *Client) GetUser(token, username string) (*RemoteUser, error) {
	status, raw, err := c.do(http.MethodGet, "/users/"+username, token, nil)
	if err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusNotFound:
		return nil, apperr.NotFound(fmt.Sprintf("User '%s' not found.", username))
	case status == http.StatusForbidden:
		return nil, apperr.Forbidden("Not authorized to look up users.")
	case status < 200 || status >= 300:
		return nil, apperr.PeerError(fmt.Sprintf("%s returned status %d", c.name, status))
	}

	var user RemoteUser
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, apperr.PeerError(fmt.Sprintf("%s returned an invalid user payload", c.name))
	}
	return &user, nil
}

// GetTeam fetches a team from the team service with the caller's own
// credential; the team service runs its member-or-admin check, so a 403
// here means the caller may not see the team.
func (c *Client) GetTeam(token, teamID string) (*RemoteTeam, error) {
	status, raw, err := c.do(http.MethodGet, "/teams/"+teamID, token, nil)
	if err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusForbidden:
		return nil, apperr.Forbidden("Not authorized to access this team.")
	case status == http.StatusNotFound:
		return nil, apperr.NotFound("Team not found.")
	case status < 200 || status >= 300:
		return nil, apperr.PeerError(fmt.Sprintf("%s returned status %d", c.name, status))
	}

	var team RemoteTeam
	if err := json.Unmarshal(raw, &team); err != nil {
		return nil, apperr.PeerError(fmt.Sprintf("%s returned an invalid team payload", c.name))
	}
	return &team, nil
}

// UpdateUserRole patches a user's role in the identity service. This is the
// best-effort half of the leadership protocol: callers are allowed to
// discard the returned error after logging it.
func (c *Client) UpdateUserRole(token, username string, role models.Role) error {
	status, _, err := c.do(http.MethodPatch, "/users/"+username+"/role", token,
		map[string]string{"role": string(role)})
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return apperr.PeerError(fmt.Sprintf("%s refused role update with status %d", c.name, status))
	}
	return nil
}

type isLeaderResponse struct {
	IsLeader bool `json:"is_leader"`
}

// IsTeamLeader asks the team service whether the user currently leads any
// team. Internal endpoint, called without a credential.
func (c *Client) IsTeamLeader(username string) (bool, error) {
	status, raw, err := c.do(http.MethodGet, "/teams/internal/is-leader/"+username, "", nil)
	if err != nil {
		return false, err
	}
	if status != http.StatusOK {
		return false, apperr.PeerError(fmt.Sprintf("%s returned status %d", c.name, status))
	}

	var body isLeaderResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return false, apperr.PeerError(fmt.Sprintf("%s returned an invalid leadership payload", c.name))
	}
	return body.IsLeader, nil
}

// IsLeaderOfTeam is the team-scoped variant of IsTeamLeader.
func (c *Client) IsLeaderOfTeam(teamID, username string) (bool, error) {
	status, raw, err := c.do(http.MethodGet, "/teams/"+teamID+"/internal/is-leader/"+username, "", nil)
	if err != nil {
		return false, err
	}
	if status != http.StatusOK {
		return false, apperr.PeerError(fmt.Sprintf("%s returned status %d", c.name, status))
	}

	var body isLeaderResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return false, apperr.PeerError(fmt.Sprintf("%s returned an invalid leadership payload", c.name))
	}
	return body.IsLeader, nil
}
