package router

import (
	"github.com/gin-gonic/gin"
)

// RouteRegistrar registers a set of routes on a parent group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router assembles the versioned API surface from registrars. The storefront
// and admin surfaces are registered as separate groups so each can carry its
// own middleware chain.
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
		registrars: make([]RouteRegistrar, 0),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes under the versioned API prefix
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)

	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// SurfaceGroup builds one API surface: a prefix, its middleware chain and
// its routes, with optional nested groups
type SurfaceGroup struct {
	name       string
	prefix     string
	middleware []gin.HandlerFunc
	routes     []routeDefinition
	subgroups  []*SurfaceGroup
}

type routeDefinition struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewSurfaceGroup creates a new route group for an API surface
func NewSurfaceGroup(name, prefix string) *SurfaceGroup {
	return &SurfaceGroup{
		name:       name,
		prefix:     prefix,
		middleware: make([]gin.HandlerFunc, 0),
		routes:     make([]routeDefinition, 0),
		subgroups:  make([]*SurfaceGroup, 0),
	}
}

// Use adds middleware to this group
func (sg *SurfaceGroup) Use(middleware ...gin.HandlerFunc) *SurfaceGroup {
	sg.middleware = append(sg.middleware, middleware...)
	return sg
}

func (sg *SurfaceGroup) handle(method, path string, handlers []gin.HandlerFunc) *SurfaceGroup {
	sg.routes = append(sg.routes, routeDefinition{
		method:   method,
		path:     path,
		handlers: handlers,
	})
	return sg
}

// GET registers a GET route
func (sg *SurfaceGroup) GET(path string, handlers ...gin.HandlerFunc) *SurfaceGroup {
	return sg.handle("GET", path, handlers)
}

// POST registers a POST route
func (sg *SurfaceGroup) POST(path string, handlers ...gin.HandlerFunc) *SurfaceGroup {
	return sg.handle("POST", path, handlers)
}

// PUT registers a PUT route
func (sg *SurfaceGroup) PUT(path string, handlers ...gin.HandlerFunc) *SurfaceGroup {
	return sg.handle("PUT", path, handlers)
}

// PATCH registers a PATCH route
func (sg *SurfaceGroup) PATCH(path string, handlers ...gin.HandlerFunc) *SurfaceGroup {
	return sg.handle("PATCH", path, handlers)
}

// DELETE registers a DELETE route
func (sg *SurfaceGroup) DELETE(path string, handlers ...gin.HandlerFunc) *SurfaceGroup {
	return sg.handle("DELETE", path, handlers)
}

// Group creates a nested group within this surface
func (sg *SurfaceGroup) Group(name, prefix string) *SurfaceGroup {
	subgroup := NewSurfaceGroup(name, prefix)
	sg.subgroups = append(sg.subgroups, subgroup)
	return subgroup
}

// RegisterRoutes implements RouteRegistrar
func (sg *SurfaceGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(sg.prefix)

	if len(sg.middleware) > 0 {
		group.Use(sg.middleware...)
	}

	for _, route := range sg.routes {
		group.Handle(route.method, route.path, route.handlers...)
	}

	for _, subgroup := range sg.subgroups {
		subgroup.RegisterRoutes(group)
	}
}

// Name returns the group name
func (sg *SurfaceGroup) Name() string {
	return sg.name
}

// Prefix returns the group prefix
func (sg *SurfaceGroup) Prefix() string {
	return sg.prefix
}
