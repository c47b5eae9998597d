package model

import "strings"

// User is the signed-in portal user as reported by the host.
type User struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Roles      []string `json:"roles,omitempty"`
	Department string   `json:"department,omitempty"`
}

// HasRole reports whether the user carries the named role (case-insensitive).
func (u User) HasRole(role string) bool {
	for _, candidate := range u.Roles {
		if strings.EqualFold(strings.TrimSpace(candidate), strings.TrimSpace(role)) {
			return true
		}
	}
	return false
}

// Host is the explicit context a form is constructed with: the active
// locale, the current user, the API base URL and, in edit mode, the record
// being edited.
type Host struct {
	Locale   string `json:"locale"`
	User     User   `json:"user"`
	BaseURL  string `json:"baseUrl"`
	RecordID int64  `json:"recordId,omitempty"`
}

// EditMode reports whether the host points the form at an existing record.
func (h Host) EditMode() bool {
	return h.RecordID > 0
}

// Values exposes the host context to condition expressions under the
// `host.` prefix.
func (h Host) Values() map[string]any {
	role := ""
	if len(h.User.Roles) > 0 {
		role = h.User.Roles[0]
	}
	return map[string]any{
		"locale":     NormalizeLocale(h.Locale),
		"role":       role,
		"department": h.User.Department,
		"userId":     h.User.ID,
		"editMode":   h.EditMode(),
	}
}
