// Package datasource resolves data source IDs to connections and guards
// resource addressing against escapes from a connection's root.
package datasource

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// Provider types.
const (
	ProviderFilesystem = "filesystem"
	ProviderBlockstore = "blockstore"
)

// Connection is a resolved handle to one backend root capable of producing
// a resource accessor.
type Connection struct {
	// ID is the data source identifier used in requests.
	ID string
	// Name is the human-readable data source name.
	Name string
	// ProviderType identifies the backend family, e.g. "filesystem".
	ProviderType string
	// Root is the absolute directory all resources of this connection live under.
	Root string
}

// URIFor computes the resource URI for a path. Values already carrying a
// URI scheme are passed through untouched; otherwise a provider-appropriate
// URI is synthesized.
func (c *Connection) URIFor(resourcePath string) string {
	if strings.Contains(resourcePath, "://") {
		return resourcePath
	}
	return fmt.Sprintf("%s://%s/%s", c.ProviderType, c.ID, strings.TrimPrefix(resourcePath, "/"))
}

// IsResourceWithin reports whether the resource path stays inside the
// connection root. This is the path-traversal guard: paths that clean to a
// location outside the root are rejected before any backend call.
func (c *Connection) IsResourceWithin(resourcePath string) bool {
	if resourcePath == "" {
		return false
	}
	if scheme, rest, ok := strings.Cut(resourcePath, "://"); ok {
		if scheme != c.ProviderType {
			return false
		}
		if id, path, ok := strings.Cut(rest, "/"); ok && id == c.ID {
			resourcePath = path
		} else {
			return false
		}
	}
	joined := filepath.Clean(filepath.Join(c.Root, resourcePath))
	rel, err := filepath.Rel(c.Root, joined)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// AbsolutePath resolves a resource path to an absolute path under the root.
// Callers must check IsResourceWithin first.
func (c *Connection) AbsolutePath(resourcePath string) string {
	if scheme, rest, ok := strings.Cut(resourcePath, "://"); ok && scheme == c.ProviderType {
		if _, path, ok := strings.Cut(rest, "/"); ok {
			resourcePath = path
		}
	}
	return filepath.Clean(filepath.Join(c.Root, resourcePath))
}

// Registry maps data source IDs to connections and tracks the primary one.
type Registry struct {
	mu        sync.RWMutex
	conns     map[string]*Connection
	primaryID string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*Connection)}
}

// Register adds a connection. The first registered connection becomes the
// primary; a later call with primary true overrides that.
func (r *Registry) Register(conn *Connection, primary bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[conn.ID] = conn
	if primary || r.primaryID == "" {
		r.primaryID = conn.ID
	}
}

// Resolve returns the connection for the given ID, or the primary connection
// when the ID is empty. The second return is false when nothing resolves.
func (r *Registry) Resolve(dataSourceID string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id := dataSourceID
	if id == "" {
		id = r.primaryID
	}
	conn, ok := r.conns[id]
	return conn, ok
}

// IDs returns the registered data source IDs, primary first.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.conns))
	if r.primaryID != "" {
		ids = append(ids, r.primaryID)
	}
	for id := range r.conns {
		if id != r.primaryID {
			ids = append(ids, id)
		}
	}
	return ids
}
