package rbac

// catalogue is the ordered, read-only permission catalogue. Order matters:
// All() feeds the role seed and listing surfaces, which must be stable.
var catalogue = []Permission{
	{ID: 1, Name: PermFollow},
	{ID: 2, Name: PermCollect},
	{ID: 3, Name: PermComment},
	{ID: 4, Name: PermUpload},
	{ID: 5, Name: PermModerate},
	{ID: 6, Name: PermAdminister},
}

// All returns the permission catalogue in registration order.
func All() []Permission {
	out := make([]Permission, len(catalogue))
	copy(out, catalogue)
	return out
}

// AllNames returns the catalogue names in registration order.
func AllNames() []string {
	names := make([]string, len(catalogue))
	for i, p := range catalogue {
		names[i] = p.Name
	}
	return names
}

// Has reports whether name is a known permission. Unknown names are simply
// false, never an error.
func Has(name string) bool {
	for _, p := range catalogue {
		if p.Name == name {
			return true
		}
	}
	return false
}
