package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jacksonlee411/tenant-service/modules/tenant/domain/types"
)

func TestMissingTenants(t *testing.T) {
	existing := []types.Tenant{{ID: 1, Subdomain: "app"}}
	seed := []types.Tenant{
		{ID: 1, Name: "Main", Subdomain: "app"},
		{ID: 2, Name: "Nord", Subdomain: "nord"},
		{ID: 3, Name: "Nord again", Subdomain: "nord"},
		{ID: 4, Name: "Sued", Subdomain: "sued"},
	}

	got := missingTenants(existing, seed)
	want := []types.Tenant{seed[1], seed[3]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("missingTenants mismatch (-want +got):\n%s", diff)
	}
}

func TestMissingTenants_EmptyStore(t *testing.T) {
	seed := []types.Tenant{{Subdomain: "app"}}
	if got := missingTenants(nil, seed); len(got) != 1 {
		t.Fatalf("got=%v", got)
	}
	if got := missingTenants(seed, seed); len(got) != 0 {
		t.Fatalf("got=%v", got)
	}
}
