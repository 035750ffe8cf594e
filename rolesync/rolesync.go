// Package rolesync keeps the derived role invariant — a user is a
// TeamLeader iff they lead at least one team — approximately true across
// the team and identity stores. The local team mutation has already
// committed by the time these run, so failures here are logged and
// reported but never rolled back or retried: callers are expected to
// discard the returned error after the mutation succeeds. The hard half of
// the protocol (the guards that refuse role changes and deletions) lives in
// the identity service.
package rolesync

import (
	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"

	"crewdesk/models"
	"crewdesk/store"
)

// UserDirectory is the slice of the identity-service client the maintainer
// pushes role changes through.
type UserDirectory interface {
	UpdateUserRole(token, username string, role models.Role) error
}

// Maintainer runs the post-mutation role synchronization for the team
// service.
type Maintainer struct {
	teams store.TeamStore
	users UserDirectory
	log   *logrus.Entry
}

func New(teams store.TeamStore, users UserDirectory, log *logrus.Entry) *Maintainer {
	return &Maintainer{teams: teams, users: users, log: log}
}

// PromoteToLeader pushes a TeamLeader promotion for username, forwarded
// under the admin caller's token. Admins keep their role; promoting an
// already-promoted leader is a harmless overwrite.
func (m *Maintainer) PromoteToLeader(token, username string, currentRole models.Role) error {
	if currentRole == models.RoleAdmin {
		return nil
	}

	if err := m.users.UpdateUserRole(token, username, models.RoleTeamLeader); err != nil {
		m.report("promote", username, err)
		return err
	}
	return nil
}

// DemoteIfLeadsNothing demotes username to Member when the local store shows
// they lead no remaining team. The count runs against this service's own
// store after the triggering mutation committed, so a concurrent reassign
// can still race it; that window is inherent to the protocol.
func (m *Maintainer) DemoteIfLeadsNothing(token, username string) error {
	count, err := m.teams.CountLedBy(username)
	if err != nil {
		m.report("demote", username, err)
		return err
	}
	if count > 0 {
		return nil
	}

	if err := m.users.UpdateUserRole(token, username, models.RoleMember); err != nil {
		m.report("demote", username, err)
		return err
	}
	return nil
}

// report is the swallow point: the divergence is recorded for operators and
// the request proceeds as a success.
func (m *Maintainer) report(action, username string, err error) {
	m.log.WithFields(logrus.Fields{
		"action":   action,
		"username": username,
	}).WithError(err).Warn("leadership role sync failed; stores may have diverged")

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("action", action)
		scope.SetExtra("username", username)
		sentry.CaptureException(err)
	})
}
