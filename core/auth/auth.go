// Package auth defines the capability check consumed by privileged
// dispatch operations. Authorization is an injected collaborator, not
// shared global state; token formats and verification live outside the
// core.
package auth

// Role classifies an acting principal.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleDriver   Role = "driver"
	RoleHospital Role = "hospital"
)

// Action names a privileged operation.
type Action string

const (
	ActionCancelRequest   Action = "cancel_request"
	ActionReassignRequest Action = "reassign_request"
	ActionCompleteRequest Action = "complete_request"
	ActionUpdateHospital  Action = "update_hospital"
)

// Actor identifies who is performing an action.
type Actor struct {
	ID   string
	Role Role
}

// Authorizer answers a single yes/no capability question.
type Authorizer interface {
	Allow(actor Actor, action Action) bool
}

// RoleAuthorizer grants actions per role.
type RoleAuthorizer struct {
	grants map[Role]map[Action]bool
}

// NewRoleAuthorizer returns the default grant table: admins may do
// everything, drivers may complete trips, hospitals may update their
// own status.
func NewRoleAuthorizer() *RoleAuthorizer {
	return &RoleAuthorizer{grants: map[Role]map[Action]bool{
		RoleAdmin: {
			ActionCancelRequest:   true,
			ActionReassignRequest: true,
			ActionCompleteRequest: true,
			ActionUpdateHospital:  true,
		},
		RoleDriver: {
			ActionCompleteRequest: true,
		},
		RoleHospital: {
			ActionUpdateHospital: true,
		},
	}}
}

// Allow implements Authorizer.
func (a *RoleAuthorizer) Allow(actor Actor, action Action) bool {
	return a.grants[actor.Role][action]
}

// AllowAll grants every action; intended for tests.
type AllowAll struct{}

func (AllowAll) Allow(Actor, Action) bool { return true }
