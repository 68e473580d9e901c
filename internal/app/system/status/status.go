// Package status holds the account status values stored on users.
package status

const (
	Active   = "active"
	Disabled = "disabled"
)

// All lists the valid values in display order. The users collection
// validator is built from it.
func All() []string { return []string{Active, Disabled} }

// IsValid reports whether s is a stored status value. Matching is exact.
func IsValid(s string) bool {
	for _, v := range All() {
		if s == v {
			return true
		}
	}
	return false
}

// Default is the status of a newly registered or created user.
func Default() string { return Active }
