package rbac

import "testing"

func activeUser(perms ...string) *Principal {
	return &Principal{ID: 7, Active: true, RoleName: RoleUser, Permissions: perms}
}

func TestAuthorizePermissionAnonymous(t *testing.T) {
	decision := AuthorizePermission(nil, PermFollow)
	if decision.Allowed {
		t.Fatal("expected deny for anonymous principal")
	}
	if decision.Reason != DenyNotAuthenticated {
		t.Fatalf("expected not-authenticated, got %s", decision.Reason)
	}
}

func TestAuthorizePermissionBlockedBeforePermission(t *testing.T) {
	// A blocked administrator must be denied with the inactive reason even
	// though the role would satisfy the check.
	p := &Principal{ID: 1, Active: false, RoleName: RoleAdministrator, Permissions: AllNames()}
	decision := AuthorizePermission(p, PermAdminister)
	if decision.Allowed {
		t.Fatal("expected deny for blocked principal")
	}
	if decision.Reason != DenyAccountInactive {
		t.Fatalf("expected account-inactive, got %s", decision.Reason)
	}
}

func TestAuthorizePermissionTable(t *testing.T) {
	cases := []struct {
		name       string
		principal  *Principal
		permission string
		allowed    bool
	}{
		{"granted", activeUser(PermFollow, PermUpload), PermUpload, true},
		{"missing", activeUser(PermFollow), PermModerate, false},
		{"unknown permission", activeUser(PermFollow), "TELEPORT", false},
		{"no permissions", activeUser(), PermFollow, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision := AuthorizePermission(tc.principal, tc.permission)
			if decision.Allowed != tc.allowed {
				t.Fatalf("expected allowed=%v, got %+v", tc.allowed, decision)
			}
			if !tc.allowed && decision.Reason != DenyInsufficientPermission {
				t.Fatalf("expected insufficient-permission, got %s", decision.Reason)
			}
		})
	}
}

func TestAuthorizeRoleMatch(t *testing.T) {
	p := &Principal{ID: 2, Active: true, RoleName: RoleAdministrator, Permissions: AllNames()}
	if decision := AuthorizeRole(p, RoleAdministrator); !decision.Allowed {
		t.Fatalf("expected allow, got %+v", decision)
	}
	if decision := AuthorizeRole(p, RoleModerator); decision.Allowed {
		t.Fatal("expected deny for mismatched role name")
	}
}

func TestAuthorizeRoleDeniesLockedEvenOnNameMatch(t *testing.T) {
	// The seeded role table makes this combination impossible, but role-name
	// checks bypass permission sets and must not trust the invariant.
	p := &Principal{ID: 3, Active: true, Locked: true, RoleName: RoleAdministrator}
	decision := AuthorizeRole(p, RoleAdministrator)
	if decision.Allowed {
		t.Fatal("expected deny for locked principal")
	}
	if decision.Reason != DenyInsufficientPermission {
		t.Fatalf("expected insufficient-permission, got %s", decision.Reason)
	}
}

func TestAuthorizeRoleAnonymousAndInactive(t *testing.T) {
	if decision := AuthorizeRole(nil, RoleAdministrator); decision.Reason != DenyNotAuthenticated {
		t.Fatalf("expected not-authenticated, got %+v", decision)
	}
	p := &Principal{ID: 4, Active: false, RoleName: RoleAdministrator}
	if decision := AuthorizeRole(p, RoleAdministrator); decision.Reason != DenyAccountInactive {
		t.Fatalf("expected account-inactive, got %+v", decision)
	}
}
