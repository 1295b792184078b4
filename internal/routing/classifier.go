package routing

import (
	"errors"
	"strings"
)

type RouteClass string

const (
	// RouteClassInternalAPI routes require an authenticated caller.
	RouteClassInternalAPI RouteClass = "internal_api"
	RouteClassPublicAPI   RouteClass = "public_api"
	RouteClassOps         RouteClass = "ops"
)

type Classifier struct {
	entrypoint        string
	allowExact        map[string]RouteClass
	allowPathPatterns []pathPatternRoute
}

func NewClassifier(a Allowlist, entrypoint string) (*Classifier, error) {
	ep, ok := a.Entrypoints[entrypoint]
	if !ok {
		return nil, errors.New("allowlist: missing entrypoint")
	}
	if len(ep.Routes) == 0 {
		return nil, errors.New("allowlist: entrypoint routes empty")
	}

	exact := make(map[string]RouteClass, len(ep.Routes))
	var patterns []pathPatternRoute
	for _, r := range ep.Routes {
		if r.Path == "" || r.RouteClass == "" {
			return nil, errors.New("allowlist: invalid route")
		}
		rc := RouteClass(r.RouteClass)
		if !knownRouteClass(rc) {
			return nil, errors.New("allowlist: unknown route class " + r.RouteClass)
		}
		if p, ok := parsePathPattern(r.Path); ok {
			patterns = append(patterns, pathPatternRoute{pattern: p, rc: rc})
			continue
		}
		exact[r.Path] = rc
	}
	return &Classifier{entrypoint: entrypoint, allowExact: exact, allowPathPatterns: patterns}, nil
}

// Classify maps a path to its route class. Paths not on the allowlist are
// treated as internal API so they fail closed behind authentication.
func (c *Classifier) Classify(path string) RouteClass {
	if rc, ok := c.allowExact[path]; ok {
		return rc
	}
	for _, p := range c.allowPathPatterns {
		if p.pattern.Match(path) {
			return p.rc
		}
	}

	switch {
	case hasPrefixSegment(path, "/tenant/public"):
		return RouteClassPublicAPI
	case path == "/health" || path == "/healthz" || path == "/metrics":
		return RouteClassOps
	default:
		return RouteClassInternalAPI
	}
}

func knownRouteClass(rc RouteClass) bool {
	switch rc {
	case RouteClassInternalAPI, RouteClassPublicAPI, RouteClassOps:
		return true
	default:
		return false
	}
}

func hasPrefixSegment(path, prefix string) bool {
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}

type pathPatternRoute struct {
	pattern PathPattern
	rc      RouteClass
}
