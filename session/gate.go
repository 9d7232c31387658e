package session

import (
	"context"
	"sync"
)

// State is the gate's view of the caller
type State int

const (
	// Unknown while the first session probe is in flight
	Unknown State = iota
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	}
	return "unknown"
}

// Gate projects the credential store's state for one token. It starts
// Unknown, settles after the first probe and then follows session events.
type Gate struct {
	provider Provider

	mu      sync.Mutex
	token   string
	state   State
	session *Session
	changed chan struct{}
	sub     Subscription

	closeOnce sync.Once
}

// NewGate returns an Unknown gate for token. Call Open to start it and Close
// to release the subscription.
func NewGate(provider Provider, token string) *Gate {
	return &Gate{
		provider: provider,
		token:    token,
		changed:  make(chan struct{}),
	}
}

// Open subscribes to session changes and then probes the current session,
// so a change racing the probe is not lost. A probe result never overrides
// a state already set by an event.
func (g *Gate) Open(ctx context.Context) error {
	sub := g.provider.OnSessionChange(g.handle)
	g.mu.Lock()
	g.sub = sub
	token := g.token
	g.mu.Unlock()

	var sess *Session
	if token != "" {
		var err error
		sess, err = g.provider.GetSession(ctx, token)
		if err != nil {
			return err
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != Unknown {
		return nil
	}
	if sess == nil {
		g.set(Unauthenticated, nil)
	} else {
		g.set(Authenticated, sess)
	}
	return nil
}

// Close unsubscribes from the provider. It is safe to call more than once.
func (g *Gate) Close() {
	g.closeOnce.Do(func() {
		g.mu.Lock()
		sub := g.sub
		g.mu.Unlock()
		if sub != nil {
			sub.Unsubscribe()
		}
	})
}

// State returns the current state
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Session returns the session while Authenticated, nil otherwise
func (g *Gate) Session() *Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session
}

// Watch returns the current state and a channel closed on the next change
func (g *Gate) Watch() (State, <-chan struct{}) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state, g.changed
}

// Wait blocks until the gate leaves Unknown or ctx is done
func (g *Gate) Wait(ctx context.Context) (State, error) {
	for {
		state, changed := g.Watch()
		if state != Unknown {
			return state, nil
		}
		select {
		case <-ctx.Done():
			return Unknown, ctx.Err()
		case <-changed:
		}
	}
}

func (g *Gate) handle(ev Event) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.token == "" || ev.Token != g.token {
		return
	}
	switch ev.Kind {
	case Refreshed:
		if ev.Session != nil {
			g.token = ev.Session.Token
			g.set(Authenticated, ev.Session)
		}
	case SignedIn:
		g.set(Authenticated, ev.Session)
	case SignedOut, Expired:
		g.set(Unauthenticated, nil)
	}
}

// set must be called with mu held
func (g *Gate) set(state State, sess *Session) {
	if state == g.state && sess == g.session {
		return
	}
	g.state = state
	g.session = sess
	close(g.changed)
	g.changed = make(chan struct{})
}
