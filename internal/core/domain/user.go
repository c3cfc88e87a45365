package domain

// Access levels assigned by the brain on registration.
const (
	LevelUser  = "user"
	LevelAdmin = "admin"
)

// User models a registered actor as reported by the brain.
type User struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Level    string   `json:"level"`
	Groups   []string `json:"groups"`
}

// IsAdmin reports whether the user holds the admin access level.
func (u *User) IsAdmin() bool {
	return u.Level == LevelAdmin
}

// ValidLevel reports whether s is a recognised access level.
func ValidLevel(s string) bool {
	return s == LevelUser || s == LevelAdmin
}
