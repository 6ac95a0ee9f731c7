// Package deploy describes how a child actor is deployed: dispatcher, mailbox, router,
// scope and free form config. A Deploy is immutable; the With methods return copies.
package deploy

import (
	"fmt"
)

const (
	NoDispatcherGiven = ""
	NoMailboxGiven    = ""
)

// Scope says where an actor runs. A nil Scope means none was given.
type Scope interface {
	WithFallback(other Scope) Scope
	String() string
}

type localScope struct{}

func (localScope) WithFallback(Scope) Scope { return LocalScope }
func (localScope) String() string           { return "local" }

// LocalScope deploys in the current process.
var LocalScope Scope = localScope{}

// NamedScope is any scope other than local, kept by name.
type NamedScope struct {
	Name string
}

func (s NamedScope) WithFallback(Scope) Scope { return s }
func (s NamedScope) String() string           { return s.Name }

// RouterConfig describes a routing setup. NoRouter is the absence of one.
type RouterConfig interface {
	WithFallback(other RouterConfig) RouterConfig
	IsNoRouter() bool
	String() string
}

type noRouter struct{}

func (noRouter) WithFallback(other RouterConfig) RouterConfig {
	if other == nil {
		return NoRouter
	}
	return other
}
func (noRouter) IsNoRouter() bool { return true }
func (noRouter) String() string   { return "no-router" }

var NoRouter RouterConfig = noRouter{}

// Pool routes over Instances routees created by the router itself.
type Pool struct {
	Logic     string
	Instances int
}

func (p Pool) WithFallback(RouterConfig) RouterConfig { return p }
func (p Pool) IsNoRouter() bool                        { return false }
func (p Pool) String() string                          { return fmt.Sprintf("%s(%d)", p.Logic, p.Instances) }

type Deploy struct {
	path       string
	config     Config
	router     RouterConfig
	scope      Scope
	dispatcher string
	mailbox    string
}

// Local is the deployment of a plain local actor.
var Local = &Deploy{router: NoRouter, scope: LocalScope}

// New returns a deployment for path with no settings given.
func New(path string) *Deploy {
	return &Deploy{path: path, router: NoRouter}
}

func (d *Deploy) Path() string               { return d.path }
func (d *Deploy) Config() Config             { return d.config }
func (d *Deploy) RouterConfig() RouterConfig { return d.router }
func (d *Deploy) Scope() Scope               { return d.scope }
func (d *Deploy) Dispatcher() string         { return d.dispatcher }
func (d *Deploy) Mailbox() string            { return d.mailbox }

// ResolvedScope returns the scope, defaulting to LocalScope when none was given.
func (d *Deploy) ResolvedScope() Scope {
	if d.scope == nil {
		return LocalScope
	}
	return d.scope
}

// WithFallback fills everything d leaves unset from other. The path of d is kept.
func (d *Deploy) WithFallback(other *Deploy) *Deploy {
	if other == nil {
		return d
	}
	next := *d
	next.config = d.config.WithFallback(other.config)
	next.router = d.routerOrNone().WithFallback(other.router)
	if d.scope == nil {
		next.scope = other.scope
	} else {
		next.scope = d.scope.WithFallback(other.scope)
	}
	if d.dispatcher == NoDispatcherGiven {
		next.dispatcher = other.dispatcher
	}
	if d.mailbox == NoMailboxGiven {
		next.mailbox = other.mailbox
	}
	return &next
}

func (d *Deploy) routerOrNone() RouterConfig {
	if d.router == nil {
		return NoRouter
	}
	return d.router
}

// WithScope replaces the scope; a nil scope keeps the current one.
func (d *Deploy) WithScope(scope Scope) *Deploy {
	next := *d
	if scope != nil {
		next.scope = scope
	}
	return &next
}

func (d *Deploy) WithMailbox(mailbox string) *Deploy {
	next := *d
	next.mailbox = mailbox
	return &next
}

func (d *Deploy) WithDispatcher(dispatcher string) *Deploy {
	next := *d
	next.dispatcher = dispatcher
	return &next
}

func (d *Deploy) WithRouterConfig(router RouterConfig) *Deploy {
	next := *d
	next.router = router
	return &next
}

func (d *Deploy) WithConfig(config Config) *Deploy {
	next := *d
	next.config = config
	return &next
}

// Equal compares all fields; configs are compared by their text.
func (d *Deploy) Equal(other *Deploy) bool {
	if d == nil || other == nil {
		return d == other
	}
	return d.path == other.path &&
		d.dispatcher == other.dispatcher &&
		d.mailbox == other.mailbox &&
		d.routerOrNone().String() == other.routerOrNone().String() &&
		scopeName(d.scope) == scopeName(other.scope) &&
		d.config.Equal(other.config)
}

func scopeName(s Scope) string {
	if s == nil {
		return ""
	}
	return s.String()
}

func (d *Deploy) String() string {
	return fmt.Sprintf("Deploy(path=%q, dispatcher=%q, mailbox=%q, router=%s, scope=%s)",
		d.path, d.dispatcher, d.mailbox, d.routerOrNone(), scopeName(d.scope))
}
