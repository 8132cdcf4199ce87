package auth

const (
	PermHoursSubmit = "hours.submit"
	PermHoursRead   = "hours.read"
	PermTipsWrite   = "tips.write"
	PermTipsRead    = "tips.read"
)

var DefaultPermissions = []string{
	PermHoursSubmit,
	PermHoursRead,
	PermTipsWrite,
	PermTipsRead,
}

// Managers do not clock in through the employee flow.
var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermHoursSubmit,
	},
	RoleManager: {
		PermHoursRead,
		PermTipsWrite,
		PermTipsRead,
	},
}

func Allowed(role, permission string) bool {
	for _, perm := range RolePermissions[role] {
		if perm == permission {
			return true
		}
	}
	return false
}
