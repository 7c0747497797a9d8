package auth

const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
	RoleCustomer = "customer"
)

const (
	PermLeaveRead        = "leave.read"
	PermLeaveWrite       = "leave.write"
	PermLeaveApprove     = "leave.approve"
	PermOvertimeRead     = "overtime.read"
	PermOvertimeWrite    = "overtime.write"
	PermOvertimeApprove  = "overtime.approve"
	PermPayrollRead      = "payroll.read"
	PermPayrollWrite     = "payroll.write"
	PermPayrollSign      = "payroll.sign"
	PermAdvancesRead     = "advances.read"
	PermAdvancesWrite    = "advances.write"
	PermAdvancesApprove  = "advances.approve"
	PermWorkOrdersRead   = "workorders.read"
	PermWorkOrdersWrite  = "workorders.write"
	PermWorkOrdersManage = "workorders.manage"
	PermTicketsRead      = "tickets.read"
	PermTicketsWrite     = "tickets.write"
	PermTicketsManage    = "tickets.manage"
	PermAssetsRead       = "assets.read"
	PermAssetsWrite      = "assets.write"
	PermAuditRead        = "audit.read"
	PermUsersManage      = "users.manage"
)

var DefaultPermissions = []string{
	PermLeaveRead,
	PermLeaveWrite,
	PermLeaveApprove,
	PermOvertimeRead,
	PermOvertimeWrite,
	PermOvertimeApprove,
	PermPayrollRead,
	PermPayrollWrite,
	PermPayrollSign,
	PermAdvancesRead,
	PermAdvancesWrite,
	PermAdvancesApprove,
	PermWorkOrdersRead,
	PermWorkOrdersWrite,
	PermWorkOrdersManage,
	PermTicketsRead,
	PermTicketsWrite,
	PermTicketsManage,
	PermAssetsRead,
	PermAssetsWrite,
	PermAuditRead,
	PermUsersManage,
}

var RolePermissions = map[string][]string{
	RoleAdmin: {
		PermLeaveRead,
		PermLeaveWrite,
		PermLeaveApprove,
		PermOvertimeRead,
		PermOvertimeWrite,
		PermOvertimeApprove,
		PermPayrollRead,
		PermPayrollWrite,
		PermPayrollSign,
		PermAdvancesRead,
		PermAdvancesWrite,
		PermAdvancesApprove,
		PermWorkOrdersRead,
		PermWorkOrdersWrite,
		PermWorkOrdersManage,
		PermTicketsRead,
		PermTicketsWrite,
		PermTicketsManage,
		PermAssetsRead,
		PermAssetsWrite,
		PermAuditRead,
		PermUsersManage,
	},
	RoleEmployee: {
		PermLeaveRead,
		PermLeaveWrite,
		PermOvertimeRead,
		PermOvertimeWrite,
		PermPayrollRead,
		PermPayrollSign,
		PermAdvancesRead,
		PermAdvancesWrite,
		PermWorkOrdersRead,
		PermTicketsRead,
		PermTicketsWrite,
		PermAssetsRead,
	},
	RoleCustomer: {
		PermWorkOrdersRead,
		PermWorkOrdersWrite,
		PermTicketsRead,
		PermTicketsWrite,
	},
}

// HasPermission reports whether the role grants the permission.
func HasPermission(role, permission string) bool {
	for _, perm := range RolePermissions[role] {
		if perm == permission {
			return true
		}
	}
	return false
}
