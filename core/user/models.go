package user

import "strings"

// Roles
const (
	// Admin
	RoleAdmin          = "admin:"
	RoleAdminOwner     = "admin:owner"
	RoleAdminPrincipal = "admin:principal"

	// Teacher
	RoleTeacher = "teacher:"

	// Student
	RoleStudent = "student:"
)

var rolePriorities = map[string]int{
	// Admins: 30 - 21
	RoleAdminOwner:     30,
	RoleAdminPrincipal: 29,
	RoleAdmin:          21,

	// Teachers: 20 - 11
	RoleTeacher: 11,

	// Students: 10 - 1
	RoleStudent: 1,
}

func RolePriority(role string) int {
	return rolePriorities[role]
}

// User is the identity carried by the access token issued by the users service.
// Accounts are managed upstream; this tier never loads or stores them.
type User struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

func (u User) RoleStartsWith(prefix string) bool {
	for _, role := range u.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (u User) IsAdmin() bool {
	return u.RoleStartsWith(RoleAdmin)
}

func (u User) IsTeacher() bool {
	return u.RoleStartsWith(RoleTeacher)
}

func (u User) IsStudent() bool {
	return u.RoleStartsWith(RoleStudent)
}

// CanViewAttendance reports whether u may read group rosters, sessions and calendars.
func (u User) CanViewAttendance() bool {
	return u.IsAdmin() || u.IsTeacher()
}

// PrimaryRole is the known role of u with the highest priority, "" if none.
func (u User) PrimaryRole() string {
	var primary string
	for _, role := range u.Roles {
		if RolePriority(role) > RolePriority(primary) {
			primary = role
		}
	}
	return primary
}
