package routing

import "testing"

func TestParsePathPattern(t *testing.T) {
	t.Parallel()

	if _, ok := parsePathPattern("/health"); ok {
		t.Fatal("expected non-pattern")
	}
	if _, ok := parsePathPattern("{no-leading-slash-but-has-brace}"); ok {
		t.Fatal("expected invalid")
	}
	if _, ok := parsePathPattern("/a/{id"); ok {
		t.Fatal("expected invalid")
	}
	if _, ok := parsePathPattern("/a/{}/b"); ok {
		t.Fatal("expected invalid")
	}
	if _, ok := parsePathPattern("/a/{id}x/b"); ok {
		t.Fatal("expected invalid")
	}
	if _, ok := parsePathPattern("/a/id}/b"); ok {
		t.Fatal("expected invalid")
	}
	if _, ok := parsePathPattern("/a//{id}/b"); ok {
		t.Fatal("expected invalid (empty segment)")
	}

	p, ok := parsePathPattern("/tenant/{id}")
	if !ok {
		t.Fatal("expected ok")
	}
	if p.String() != "/tenant/{id}" {
		t.Fatalf("raw=%q", p.String())
	}
	if (PathPattern{}).Match("/tenant/1") {
		t.Fatal("expected zero-value to not match")
	}
	if !p.Match("/tenant/1") {
		t.Fatal("expected match")
	}
	if p.Match("/tenants/1") {
		t.Fatal("expected no match")
	}
	if p.Match("/tenant") {
		t.Fatal("expected no match")
	}
	if p.Match("/tenant/") {
		t.Fatal("expected no match for empty segment")
	}
}

func TestPathPattern_Extract(t *testing.T) {
	t.Parallel()

	p, ok := parsePathPattern("/tenant/public/{subdomain}/x/{id}")
	if !ok {
		t.Fatal("expected ok")
	}
	params, ok := p.Extract("/tenant/public/app/x/7")
	if !ok || params["subdomain"] != "app" || params["id"] != "7" || len(params) != 2 {
		t.Fatalf("params=%v ok=%v", params, ok)
	}
	if _, ok := p.Extract("/tenant/public/app/y/7"); ok {
		t.Fatal("expected no match")
	}
}

func TestSplitPathSegments(t *testing.T) {
	t.Parallel()

	if got := splitPathSegments("/"); got != nil {
		t.Fatalf("got=%v", got)
	}
	got := splitPathSegments("/a/b")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("got=%v", got)
	}
}
