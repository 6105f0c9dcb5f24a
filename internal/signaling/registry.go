package signaling

import "errors"

// ErrUnknownConnection is returned when an operation names a connection that
// is not live.
var ErrUnknownConnection = errors.New("unknown connection")

// Registry tracks live connections and the identity each one announced when
// it joined a room. It holds no business logic and is owned by a single Hub.
type Registry struct {
	conns      map[string]*Client
	identities map[string]string // connection ID -> identity
	byIdentity map[string]string // identity -> connection ID
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conns:      make(map[string]*Client),
		identities: make(map[string]string),
		byIdentity: make(map[string]string),
	}
}

// Connect registers a live connection under its ID.
func (r *Registry) Connect(c *Client) {
	r.conns[c.ID] = c
}

// Lookup returns the live connection with the given ID.
func (r *Registry) Lookup(id string) (*Client, bool) {
	c, ok := r.conns[id]
	return c, ok
}

// Bind records identity for the connection, replacing any earlier identity it
// had. If another live connection held the same identity, that connection
// loses its mapping and its ID is returned as evicted.
func (r *Registry) Bind(id, identity string) (evicted string, err error) {
	if _, ok := r.conns[id]; !ok {
		return "", ErrUnknownConnection
	}

	if old, ok := r.identities[id]; ok {
		if old == identity {
			return "", nil
		}
		delete(r.byIdentity, old)
	}

	if holder, ok := r.byIdentity[identity]; ok && holder != id {
		delete(r.identities, holder)
		evicted = holder
	}

	r.identities[id] = identity
	r.byIdentity[identity] = id
	return evicted, nil
}

// Identity returns the identity bound to a connection.
func (r *Registry) Identity(id string) (string, bool) {
	identity, ok := r.identities[id]
	return identity, ok
}

// ConnectionFor returns the connection currently bound to identity.
func (r *Registry) ConnectionFor(identity string) (string, bool) {
	id, ok := r.byIdentity[identity]
	return id, ok
}

// Remove forgets the connection and its identity mapping.
func (r *Registry) Remove(id string) (*Client, bool) {
	c, ok := r.conns[id]
	if !ok {
		return nil, false
	}
	delete(r.conns, id)
	if identity, ok := r.identities[id]; ok {
		delete(r.identities, id)
		if r.byIdentity[identity] == id {
			delete(r.byIdentity, identity)
		}
	}
	return c, true
}

// Len returns the number of live connections.
func (r *Registry) Len() int {
	return len(r.conns)
}

// Clients returns every live connection.
func (r *Registry) Clients() []*Client {
	out := make([]*Client, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}
