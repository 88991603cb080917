package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chaptrailapp/chaptrail-server/internal/domain"
)

// Catalog is the in-memory working set of users and servers. Sweeps and API
// handlers mutate the catalog; dirty records are flushed to the store on a
// fixed interval and at shutdown.
type Catalog struct {
	mu     sync.RWMutex
	store  *Store
	logger *slog.Logger

	users   map[string]*domain.User
	servers map[string]*domain.Server

	dirtyUsers   map[string]struct{}
	dirtyServers map[string]struct{}
}

// NewCatalog creates an empty catalog backed by the given store.
func NewCatalog(s *Store, logger *slog.Logger) *Catalog {
	return &Catalog{
		store:        s,
		logger:       logger,
		users:        make(map[string]*domain.User),
		servers:      make(map[string]*domain.Server),
		dirtyUsers:   make(map[string]struct{}),
		dirtyServers: make(map[string]struct{}),
	}
}

// Load reads all users and servers from the store into memory. Legacy
// records are upgraded on disk first so every loaded record has the
// canonical shape.
func (c *Catalog) Load(ctx context.Context) error {
	if migrated, err := c.store.MigrateLegacy(); err != nil {
		return fmt.Errorf("legacy migration: %w", err)
	} else if migrated > 0 && c.logger != nil {
		c.logger.Info("Upgraded legacy records", "count", migrated)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for u, err := range c.store.Users.List(ctx) {
		if err != nil {
			return fmt.Errorf("loading users: %w", err)
		}
		c.users[u.ID] = u
	}

	for sv, err := range c.store.Servers.List(ctx) {
		if err != nil {
			return fmt.Errorf("loading servers: %w", err)
		}
		c.servers[sv.ID] = sv
	}

	if c.logger != nil {
		c.logger.Info("Catalog loaded", "users", len(c.users), "servers", len(c.servers))
	}
	return nil
}

// User returns the user with the given ID, or nil.
func (c *Catalog) User(id string) *domain.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.users[id]
}

// Server returns the server with the given ID, or nil.
func (c *Catalog) Server(id string) *domain.Server {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.servers[id]
}

// Users returns all users. The slice is a fresh copy; the pointed-to records
// are live and must only be mutated through PutUser.
func (c *Catalog) Users() []*domain.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*domain.User, 0, len(c.users))
	for _, u := range c.users {
		out = append(out, u)
	}
	return out
}

// Servers returns all servers as a fresh slice.
func (c *Catalog) Servers() []*domain.Server {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*domain.Server, 0, len(c.servers))
	for _, sv := range c.servers {
		out = append(out, sv)
	}
	return out
}

// PutUser stores the user in memory and marks it for the next flush.
func (c *Catalog) PutUser(u *domain.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users[u.ID] = u
	c.dirtyUsers[u.ID] = struct{}{}
}

// PutServer stores the server in memory and marks it for the next flush.
func (c *Catalog) PutServer(sv *domain.Server) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.servers[sv.ID] = sv
	c.dirtyServers[sv.ID] = struct{}{}
}

// DeleteUser removes the user from memory and from the store immediately.
func (c *Catalog) DeleteUser(ctx context.Context, id string) error {
	c.mu.Lock()
	delete(c.users, id)
	delete(c.dirtyUsers, id)
	c.mu.Unlock()
	return c.store.Users.Delete(ctx, id)
}

// DeleteServer removes the server from memory and from the store immediately.
func (c *Catalog) DeleteServer(ctx context.Context, id string) error {
	c.mu.Lock()
	delete(c.servers, id)
	delete(c.dirtyServers, id)
	c.mu.Unlock()
	return c.store.Servers.Delete(ctx, id)
}

// Flush writes all dirty records to the store. Records that fail to write
// stay dirty for the next flush.
func (c *Catalog) Flush(ctx context.Context) error {
	c.mu.Lock()
	users := make(map[string]*domain.User, len(c.dirtyUsers))
	for id := range c.dirtyUsers {
		if u, ok := c.users[id]; ok {
			users[id] = u
		}
	}
	servers := make(map[string]*domain.Server, len(c.dirtyServers))
	for id := range c.dirtyServers {
		if sv, ok := c.servers[id]; ok {
			servers[id] = sv
		}
	}
	c.dirtyUsers = make(map[string]struct{})
	c.dirtyServers = make(map[string]struct{})
	c.mu.Unlock()

	var firstErr error
	for id, u := range users {
		if err := c.store.Users.Put(ctx, id, u); err != nil {
			c.markUserDirty(id)
			if firstErr == nil {
				firstErr = fmt.Errorf("flushing user %s: %w", id, err)
			}
		}
	}
	for id, sv := range servers {
		if err := c.store.Servers.Put(ctx, id, sv); err != nil {
			c.markServerDirty(id)
			if firstErr == nil {
				firstErr = fmt.Errorf("flushing server %s: %w", id, err)
			}
		}
	}

	if c.logger != nil && (len(users) > 0 || len(servers) > 0) {
		c.logger.Debug("Catalog flushed", "users", len(users), "servers", len(servers))
	}
	return firstErr
}

// RunFlusher flushes dirty records on the given interval until the context
// is canceled, then performs a final flush.
func (c *Catalog) RunFlusher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := c.Flush(context.WithoutCancel(ctx)); err != nil && c.logger != nil {
				c.logger.Error("Final catalog flush failed", "error", err)
			}
			return
		case <-ticker.C:
			if err := c.Flush(ctx); err != nil && c.logger != nil {
				c.logger.Error("Catalog flush failed", "error", err)
			}
		}
	}
}

func (c *Catalog) markUserDirty(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.users[id]; ok {
		c.dirtyUsers[id] = struct{}{}
	}
}

func (c *Catalog) markServerDirty(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.servers[id]; ok {
		c.dirtyServers[id] = struct{}{}
	}
}
