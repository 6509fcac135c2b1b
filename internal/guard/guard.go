// Package guard reconciles the current navigation location against the
// session store's authentication state, redirecting rather than
// blocking.
package guard

import (
	"context"
	"strings"
	"sync"

	"healthsync/internal/identity"
	"healthsync/internal/store"
)

type RouteState int

const (
	Initializing RouteState = iota
	Authenticated
	Unauthenticated
)

func (s RouteState) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	}
	return "unknown"
}

// Router is the narrow slice of the navigation layer the guard needs.
// The real router is adapted to this interface at the boundary, keeping
// navigation SDK churn out of the guard.
type Router interface {
	Current() string
	Replace(path string)
}

// Sessions is the identity-provider subscription surface.
type Sessions interface {
	OnSessionChange(fn func(identity.SessionEvent))
}

// SessionStore is the slice of the session store the guard consumes.
type SessionStore interface {
	Subscribe(fn func(store.State))
	IsInitialized() bool
	Snapshot() store.State
	SignOut(ctx context.Context) []store.SideEffectOutcome
}

type logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Errorf(format string, v ...any)
}

// Guard watches the store and the route and keeps them consistent.
// While the store's cold-start restore is still running it performs no
// redirects at all, so the router can never fire before the persisted
// token has been read back.
type Guard struct {
	Store  SessionStore
	Router Router
	Logger logger

	// AuthPrefix marks the unauthenticated route partition.
	AuthPrefix string
	SignInPath string
	HomePath   string

	mu    sync.Mutex
	state RouteState
}

func New(st SessionStore, r Router, lg logger) *Guard {
	return &Guard{
		Store:      st,
		Router:     r,
		Logger:     lg,
		AuthPrefix: "/auth",
		SignInPath: "/auth/sign-in",
		HomePath:   "/home",
	}
}

// Start subscribes the guard to store transitions and, when sessions is
// non-nil, to provider-driven session events. An externally observed
// sign-out performs the same cleanup as an explicit one; this is the
// only place client state changes for a reason outside direct user
// action.
func (g *Guard) Start(ctx context.Context, sessions Sessions) {
	g.Store.Subscribe(func(store.State) {
		g.Reconcile()
	})
	if sessions != nil {
		sessions.OnSessionChange(func(ev identity.SessionEvent) {
			if ev != identity.SessionSignedOut {
				return
			}
			g.Logger.Infof("Guard: provider reported session signed out, clearing local session")
			g.Store.SignOut(ctx)
			g.Reconcile()
		})
	}
	g.Reconcile()
}

// State returns the guard's current position in its three-state
// machine.
func (g *Guard) State() RouteState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Loading reports whether the blocking loading view should render.
func (g *Guard) Loading() bool {
	return g.State() == Initializing
}

// Reconcile re-runs the redirect decision. It is idempotent: it either
// does nothing or replaces the route with the partition's entry point,
// and replacing a route with itself is a harmless no-op in the
// underlying router. Callers invoke it on every route change; the
// guard invokes it on every store transition.
func (g *Guard) Reconcile() {
	if !g.Store.IsInitialized() {
		g.setState(Initializing)
		return
	}

	authed := g.Store.Snapshot().Auth.IsAuthenticated
	route := g.Router.Current()
	inAuthPartition := strings.HasPrefix(route, g.AuthPrefix)

	if authed {
		g.setState(Authenticated)
		if inAuthPartition {
			g.Logger.Debugf("Guard: authenticated on %s, redirecting to %s", route, g.HomePath)
			g.Router.Replace(g.HomePath)
		}
		return
	}

	g.setState(Unauthenticated)
	if !inAuthPartition {
		g.Logger.Debugf("Guard: unauthenticated on %s, redirecting to %s", route, g.SignInPath)
		g.Router.Replace(g.SignInPath)
	}
}

func (g *Guard) setState(s RouteState) {
	g.mu.Lock()
	if g.state != s {
		g.Logger.Debugf("Guard: state %s -> %s", g.state, s)
		g.state = s
	}
	g.mu.Unlock()
}
