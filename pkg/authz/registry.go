package authz

const (
	RoleTenantAdmin           = "tenant-admin"
	RoleSingleTenantAdmin     = "single-tenant-admin"
	RoleRestrictedAgencyAdmin = "restricted-agency-admin"
	RoleAnonymous             = "anonymous"
)

const (
	ActionRead  = "read"
	ActionAdmin = "admin"
)

const (
	ObjectTenants = "tenant.tenants"
	ObjectTenant  = "tenant.tenant"
)
