package dashboard

import "github.com/efebarandurmaz/anvil/internal/attrgraph"

// Dashboard ties together all dashboard components: an in-memory Store,
// an SSE Hub, and an Emitter that turns a Graph's transaction
// notifications into stored history and broadcast events.
type Dashboard struct {
	Server  *Server
	Store   *Store
	Hub     *Hub
	Emitter *Emitter
}

// New creates a fully wired dashboard.
func New(config *Config) *Dashboard {
	store := NewStore()
	hub := NewHub()
	emitter := NewEmitter(store, hub)
	server := NewServer(config, store, hub)

	return &Dashboard{
		Server:  server,
		Store:   store,
		Hub:     hub,
		Emitter: emitter,
	}
}

// Attach wires the dashboard's Emitter in as g's observer, so every
// transaction g notifies on is recorded and broadcast. Any observer
// already set on g is replaced.
func (d *Dashboard) Attach(g *attrgraph.Graph) {
	g.SetObserver(d.Emitter.Observer())
}
