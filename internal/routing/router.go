package routing

import (
	"context"
	"net/http"
	"runtime/debug"
)

type Router struct {
	classifier *Classifier
	routes     map[string]map[string]routeEntry
	patterns   []patternRoutes
	onPanic    func(r *http.Request, rec any, stack []byte)
}

type routeEntry struct {
	rc      RouteClass
	handler http.Handler
}

type patternRoutes struct {
	pattern PathPattern
	methods map[string]routeEntry
}

type routePatternKey struct{}

func NewRouter(classifier *Classifier) *Router {
	return &Router{
		classifier: classifier,
		routes:     make(map[string]map[string]routeEntry),
	}
}

// OnPanic installs a hook that sees every recovered handler panic.
func (r *Router) OnPanic(fn func(r *http.Request, rec any, stack []byte)) {
	r.onPanic = fn
}

// Handle registers h for method on path. Paths containing {name} segments
// match any single segment and expose it through Request.PathValue; exact
// paths win over patterns.
func (r *Router) Handle(rc RouteClass, method string, path string, h http.Handler) {
	entry := routeEntry{
		rc: rc,
		handler: http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					stack := debug.Stack()
					if r.onPanic != nil {
						r.onPanic(req, rec, stack)
					}
					WriteError(w, req, rc, http.StatusInternalServerError, "internal_error", "internal error")
				}
			}()
			h.ServeHTTP(w, req)
		}),
	}

	if p, ok := parsePathPattern(path); ok {
		for i := range r.patterns {
			if r.patterns[i].pattern.raw == path {
				r.patterns[i].methods[method] = entry
				return
			}
		}
		r.patterns = append(r.patterns, patternRoutes{pattern: p, methods: map[string]routeEntry{method: entry}})
		return
	}

	if r.routes[path] == nil {
		r.routes[path] = make(map[string]routeEntry)
	}
	r.routes[path][method] = entry
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	methods, pattern, params, ok := r.lookup(req.URL.Path)
	if !ok {
		WriteError(w, req, r.classifier.Classify(req.URL.Path), http.StatusNotFound, "not_found", "not found")
		return
	}
	entry, ok := methods[req.Method]
	if !ok {
		WriteError(w, req, entrypointClass(methods, r.classifier.Classify(req.URL.Path)), http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	for name, value := range params {
		req.SetPathValue(name, value)
	}
	req = req.WithContext(context.WithValue(req.Context(), routePatternKey{}, pattern))
	entry.handler.ServeHTTP(w, req)
}

func (r *Router) lookup(path string) (map[string]routeEntry, string, map[string]string, bool) {
	if methods, ok := r.routes[path]; ok {
		return methods, path, nil, true
	}
	for _, pr := range r.patterns {
		if params, ok := pr.pattern.Extract(path); ok {
			return pr.methods, pr.pattern.raw, params, true
		}
	}
	return nil, "", nil, false
}

// RoutePattern returns the registered path that matched req, or "" when the
// request did not go through a Router.
func RoutePattern(req *http.Request) string {
	p, _ := req.Context().Value(routePatternKey{}).(string)
	return p
}

func entrypointClass(methods map[string]routeEntry, fallback RouteClass) RouteClass {
	for _, e := range methods {
		return e.rc
	}
	return fallback
}
