package authz

import "testing"

func TestAuthorizedRoles_TotalAndNonEmpty(t *testing.T) {
	for _, attr := range Attributes() {
		roles := AuthorizedRoles(attr)
		if len(roles) == 0 {
			t.Fatalf("attr=%s has no roles", attr)
		}
		if !roles.Has(RoleTenantAdmin) {
			t.Fatalf("attr=%s must allow tenant-admin", attr)
		}
	}
	if len(attributeRoles) != len(Attributes()) {
		t.Fatalf("matrix=%d attributes=%d", len(attributeRoles), len(Attributes()))
	}
}

func TestAuthorizedRoles_Matrix(t *testing.T) {
	singleTenantAllowed := map[Attribute]bool{
		AttributeTopicsEnabled:               false,
		AttributeDemographicsEnabled:         false,
		AttributeTopicsInRegistrationEnabled: true,
		AttributeStatisticsEnabled:           false,
		AttributeAppointmentsEnabled:         false,
		AttributeLegalContent:                true,
	}
	for attr, want := range singleTenantAllowed {
		if got := AuthorizedRoles(attr).Has(RoleSingleTenantAdmin); got != want {
			t.Fatalf("attr=%s single-tenant-admin=%v want=%v", attr, got, want)
		}
		if AuthorizedRoles(attr).Has(RoleRestrictedAgencyAdmin) {
			t.Fatalf("attr=%s must not allow restricted-agency-admin", attr)
		}
	}
}

func TestAuthorizedRoles_UnknownIsEmpty(t *testing.T) {
	if got := AuthorizedRoles(Attribute("theming")); len(got) != 0 {
		t.Fatalf("got=%v", got)
	}
}

func TestAuthorizedRoles_ReturnsCopy(t *testing.T) {
	roles := AuthorizedRoles(AttributeTopicsEnabled)
	roles["intruder"] = struct{}{}
	if AuthorizedRoles(AttributeTopicsEnabled).Has("intruder") {
		t.Fatal("matrix mutated through returned set")
	}
}

func TestRoleSet(t *testing.T) {
	s := NewRoleSet(" Tenant-Admin ", "", "user")
	if !s.Has("tenant-admin") || !s.Has("USER") {
		t.Fatalf("set=%v", s.Slice())
	}
	if len(s) != 2 {
		t.Fatalf("len=%d", len(s))
	}
	if !s.Intersects(NewRoleSet("user")) {
		t.Fatal("expected intersection")
	}
	if s.Intersects(NewRoleSet("single-tenant-admin")) {
		t.Fatal("unexpected intersection")
	}
	if s.Intersects(nil) {
		t.Fatal("nil set must not intersect")
	}
	if got := s.Slice(); got[0] != "tenant-admin" || got[1] != "user" {
		t.Fatalf("slice=%v", got)
	}
}
