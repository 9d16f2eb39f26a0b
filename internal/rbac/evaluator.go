package rbac

// DenyReason classifies why a Decision denied access.
type DenyReason string

// Deny reasons exposed to callers for logging and HTTP status mapping.
const (
	DenyNotAuthenticated       DenyReason = "not-authenticated"
	DenyAccountInactive        DenyReason = "account-inactive"
	DenyInsufficientPermission DenyReason = "insufficient-permission"
)

// Decision is the outcome of an authorization check. Deny is a value, never
// an error: callers must short-circuit the guarded action without mutating
// anything when Allowed is false.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

// Allow returns an allowing decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns a denying decision with the given reason.
func Deny(reason DenyReason) Decision {
	return Decision{Reason: reason}
}

// AuthorizePermission decides whether the principal may perform an action
// gated by the named permission. Check order is fixed: anonymous requests are
// denied first, then blocked accounts, then the permission set. A locked
// principal needs no dedicated check here because locking already reassigned
// it to the permissionless Locked role.
func AuthorizePermission(p *Principal, permission string) Decision {
	if p == nil {
		return Deny(DenyNotAuthenticated)
	}
	if !p.Active {
		return Deny(DenyAccountInactive)
	}
	if !p.Can(permission) {
		return Deny(DenyInsufficientPermission)
	}
	return Allow()
}

// AuthorizeRole decides whether the principal holds the named role. Role-name
// requirements bypass permission sets entirely, so locked principals are
// denied explicitly: the seeded role table makes a locked principal with a
// privileged role impossible, but the evaluator does not assume the role
// table stays that way.
func AuthorizeRole(p *Principal, roleName string) Decision {
	if p == nil {
		return Deny(DenyNotAuthenticated)
	}
	if !p.Active {
		return Deny(DenyAccountInactive)
	}
	if p.Locked {
		return Deny(DenyInsufficientPermission)
	}
	if p.RoleName != roleName {
		return Deny(DenyInsufficientPermission)
	}
	return Allow()
}
