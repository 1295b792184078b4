package authz

// Attribute is a tenant-level setting whose change is role gated.
type Attribute string

const (
	AttributeTopicsEnabled               Attribute = "topics-enabled"
	AttributeDemographicsEnabled         Attribute = "demographics-enabled"
	AttributeTopicsInRegistrationEnabled Attribute = "topics-in-registration-enabled"
	AttributeStatisticsEnabled           Attribute = "statistics-enabled"
	AttributeAppointmentsEnabled         Attribute = "appointments-enabled"

	// AttributeLegalContent covers the impressum, claim and data privacy
	// texts. Single tenant admins are further gated by application settings.
	AttributeLegalContent Attribute = "legal-content"
)

var attributeRoles = map[Attribute][]string{
	AttributeTopicsEnabled:               {RoleTenantAdmin},
	AttributeDemographicsEnabled:         {RoleTenantAdmin},
	AttributeTopicsInRegistrationEnabled: {RoleTenantAdmin, RoleSingleTenantAdmin},
	AttributeStatisticsEnabled:           {RoleTenantAdmin},
	AttributeAppointmentsEnabled:         {RoleTenantAdmin},
	AttributeLegalContent:                {RoleTenantAdmin, RoleSingleTenantAdmin},
}

// Attributes lists every settable attribute in declaration order.
func Attributes() []Attribute {
	return []Attribute{
		AttributeTopicsEnabled,
		AttributeDemographicsEnabled,
		AttributeTopicsInRegistrationEnabled,
		AttributeStatisticsEnabled,
		AttributeAppointmentsEnabled,
		AttributeLegalContent,
	}
}

// AuthorizedRoles returns a fresh set of the roles allowed to change attr.
// Unknown attributes get an empty set, so checks against them deny.
func AuthorizedRoles(attr Attribute) RoleSet {
	return NewRoleSet(attributeRoles[attr]...)
}
