package auth

const (
	PermEmployeesRead  = "core.employees.read"
	PermEmployeesWrite = "core.employees.write"
	PermLeaveRead      = "leave.read"
	PermLeaveWrite     = "leave.write"
	PermLeaveApprove   = "leave.approve"
	PermReportsRead    = "reports.read"
	PermAuditRead      = "audit.read"
)

var DefaultPermissions = []string{
	PermEmployeesRead,
	PermEmployeesWrite,
	PermLeaveRead,
	PermLeaveWrite,
	PermLeaveApprove,
	PermReportsRead,
	PermAuditRead,
}

// RolePermissions mirrors the portal's page gating: every role can use the
// employee pages, Admin and HR reach the review and reporting pages. Only Admin
// adds users or reads the audit trail. The gating is advisory, not a security boundary.
var RolePermissions = map[Role][]string{
	RoleEmployee: {
		PermLeaveRead,
		PermLeaveWrite,
	},
	RoleHR: {
		PermEmployeesRead,
		PermLeaveRead,
		PermLeaveWrite,
		PermLeaveApprove,
		PermReportsRead,
	},
	RoleAdmin: {
		PermEmployeesRead,
		PermEmployeesWrite,
		PermLeaveRead,
		PermLeaveWrite,
		PermLeaveApprove,
		PermReportsRead,
		PermAuditRead,
	},
}

// Can reports whether role holds permission. Unknown roles hold nothing.
func Can(role Role, permission string) bool {
	switch role {
	case RoleAdmin, RoleHR, RoleEmployee:
		for _, perm := range RolePermissions[role] {
			if perm == permission {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// CanReview is the capability check for approving or rejecting leave.
func CanReview(role Role) bool {
	return Can(role, PermLeaveApprove)
}
