// Package rbac implements the role-and-permission access control engine:
// the fixed permission catalogue, the access decision evaluator, and the
// HTTP middleware gating moderator and administrator routes.
package rbac

// Permission names. The catalogue is fixed; roles are assembled from it at
// bootstrap and may be re-edited by administrators afterwards.
const (
	PermFollow     = "FOLLOW"
	PermCollect    = "COLLECT"
	PermComment    = "COMMENT"
	PermUpload     = "UPLOAD"
	PermModerate   = "MODERATE"
	PermAdminister = "ADMINISTER"
)

// Role names seeded at bootstrap.
const (
	RoleLocked        = "Locked"
	RoleUser          = "User"
	RoleModerator     = "Moderator"
	RoleAdministrator = "Administrator"
)

// Permission represents an atomic capability.
type Permission struct {
	ID   int64
	Name string
}

// Principal describes the actor evaluated by access control checks. A nil
// *Principal is an anonymous request. Permissions carry the principal's
// effective permission names resolved through its role.
type Principal struct {
	ID          int64
	Active      bool
	Locked      bool
	RoleName    string
	Permissions []string
}

// Can reports whether the principal's role grants the named permission.
// It ignores account state; use Authorize for the full decision.
func (p *Principal) Can(name string) bool {
	if p == nil {
		return false
	}
	for _, perm := range p.Permissions {
		if perm == name {
			return true
		}
	}
	return false
}
