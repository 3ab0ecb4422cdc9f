package domain

// Role is the closed set of account roles.
type Role string

const (
	RoleOwner          Role = "OWNER"
	RoleManager        Role = "MANAGER"
	RoleBillingStaff   Role = "BILLING_STAFF"
	RoleInventoryStaff Role = "INVENTORY_STAFF"
)

// Capability names a permission checked by handlers.
type Capability string

const (
	CapManageBranches     Capability = "manage_branches"
	CapManageStaff        Capability = "manage_staff"
	CapManageSubscription Capability = "manage_subscription"
	CapCreateInvoices     Capability = "create_invoices"
	CapViewInvoices       Capability = "view_invoices"
	CapManageInventory    Capability = "manage_inventory"
	CapViewInventory      Capability = "view_inventory"
	CapViewAnalytics      Capability = "view_analytics"
	CapUseAI              Capability = "use_ai"
)

var roleCapabilities = map[Role]map[Capability]struct{}{
	RoleOwner: {
		CapManageBranches: {}, CapManageStaff: {}, CapManageSubscription: {},
		CapCreateInvoices: {}, CapViewInvoices: {}, CapManageInventory: {},
		CapViewInventory: {}, CapViewAnalytics: {}, CapUseAI: {},
	},
	RoleManager: {
		CapManageStaff: {}, CapCreateInvoices: {}, CapViewInvoices: {},
		CapManageInventory: {}, CapViewInventory: {}, CapViewAnalytics: {}, CapUseAI: {},
	},
	RoleBillingStaff: {
		CapCreateInvoices: {}, CapViewInvoices: {}, CapViewInventory: {}, CapUseAI: {},
	},
	RoleInventoryStaff: {
		CapManageInventory: {}, CapViewInventory: {}, CapUseAI: {},
	},
}

// Can reports whether the role grants the capability.
func (r Role) Can(capability Capability) bool {
	caps, ok := roleCapabilities[r]
	if !ok {
		return false
	}
	_, ok = caps[capability]
	return ok
}

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// StaffRoles lists roles assignable to staff accounts.
func StaffRoles() []Role {
	return []Role{RoleManager, RoleBillingStaff, RoleInventoryStaff}
}

// ParseRole validates a raw role string.
func ParseRole(raw string) (Role, bool) {
	role := Role(raw)
	return role, role.Valid()
}
