// Package router declares the frontend's view routes and decides, before
// each navigation, whether the visitor may see the target view.
package router

import (
	"errors"
	"fmt"
	"strings"
)

// Well-known paths the guard redirects to.
const (
	HomePath  = "/"
	LoginPath = "/login"
)

var (
	ErrConflictingMeta = errors.New("route cannot be both requiresAuth and guest")
	ErrDuplicateRoute  = errors.New("duplicate route")
	ErrInvalidPath     = errors.New("route path must start with /")
)

// Meta holds the access flags of a route. At most one may be set.
type Meta struct {
	RequiresAuth bool `yaml:"requiresAuth"`
	Guest        bool `yaml:"guest"`
}

// Route is one entry of the view table. View names the template rendered
// for it; Lazy views are parsed on first request.
type Route struct {
	Path string `yaml:"path"`
	Name string `yaml:"name"`
	View string `yaml:"view"`
	Lazy bool   `yaml:"lazy"`
	Meta Meta   `yaml:"meta"`
}

// Routes returns the built-in table.
func Routes() []Route {
	return []Route{
		{Path: "/", Name: "Home", View: "home"},
		{Path: "/detail/:id", Name: "Detail", View: "detail", Lazy: true},
		{Path: "/login", Name: "Login", View: "login", Meta: Meta{Guest: true}},
		{Path: "/register", Name: "Register", View: "register", Meta: Meta{Guest: true}},
	}
}

// Params holds the values of :name segments.
type Params map[string]string

// Table is a validated, ordered set of routes.
type Table struct {
	routes []Route
	byPath map[string]int
}

// NewTable validates routes and keeps them in declaration order.
func NewTable(routes []Route) (*Table, error) {
	t := &Table{byPath: make(map[string]int, len(routes))}
	names := make(map[string]struct{}, len(routes))

	for _, r := range routes {
		if !strings.HasPrefix(r.Path, "/") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, r.Path)
		}
		if r.Meta.RequiresAuth && r.Meta.Guest {
			return nil, fmt.Errorf("%w: %s", ErrConflictingMeta, r.Path)
		}
		if _, ok := t.byPath[r.Path]; ok {
			return nil, fmt.Errorf("%w: path %s", ErrDuplicateRoute, r.Path)
		}
		if r.Name != "" {
			if _, ok := names[r.Name]; ok {
				return nil, fmt.Errorf("%w: name %s", ErrDuplicateRoute, r.Name)
			}
			names[r.Name] = struct{}{}
		}
		if r.View == "" {
			r.View = strings.ToLower(r.Name)
		}

		t.byPath[r.Path] = len(t.routes)
		t.routes = append(t.routes, r)
	}
	return t, nil
}

// Routes returns a copy of the table in declaration order.
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// Lookup finds a route by its declared path pattern.
func (t *Table) Lookup(pattern string) (Route, bool) {
	i, ok := t.byPath[pattern]
	if !ok {
		return Route{}, false
	}
	return t.routes[i], true
}

// Match resolves a concrete request path. Routes are tried in declaration
// order; the first match wins.
func (t *Table) Match(path string) (Route, Params, bool) {
	if i, ok := t.byPath[path]; ok {
		return t.routes[i], Params{}, true
	}

	segments := splitPath(path)
	for _, r := range t.routes {
		if params, ok := matchSegments(splitPath(r.Path), segments); ok {
			return r, params, true
		}
	}
	return Route{}, nil, false
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func matchSegments(pattern, path []string) (Params, bool) {
	if len(pattern) != len(path) {
		return nil, false
	}
	params := Params{}
	for i, seg := range pattern {
		switch {
		case strings.HasPrefix(seg, ":"):
			if path[i] == "" {
				return nil, false
			}
			params[seg[1:]] = path[i]
		case seg != path[i]:
			return nil, false
		}
	}
	return params, true
}
