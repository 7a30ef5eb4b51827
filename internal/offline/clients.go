package offline

import (
	"sync"

	"github.com/google/uuid"
)

const noticeBuffer = 8

// Client is an attached page context.
type Client struct {
	ID      string
	notices chan Reply

	mu         sync.Mutex
	controller string
}

// Notices delivers broadcasts such as NEW_VERSION_INSTALLED.
func (c *Client) Notices() <-chan Reply {
	return c.notices
}

// Controller is the version that controls this client, or "".
func (c *Client) Controller() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *Client) setController(v string) {
	c.mu.Lock()
	c.controller = v
	c.mu.Unlock()
}

// Attach registers a page context. It is controlled by the active version, if
// any.
func (m *Manager) Attach() *Client {
	c := &Client{ID: uuid.NewString(), notices: make(chan Reply, noticeBuffer)}
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.registry.Active(); ok {
		c.controller = g.Version
	}
	m.clients[c.ID] = c
	return c
}

func (m *Manager) Detach(c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[c.ID]; ok {
		delete(m.clients, c.ID)
		close(c.notices)
	}
}

// broadcast notifies controlled clients. A client whose buffer is full misses
// the notice.
func (m *Manager) broadcast(r Reply) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.clients {
		if c.Controller() == "" {
			continue
		}
		select {
		case c.notices <- r:
		default:
			m.log.WithField("client", id).Warn("notice dropped")
		}
	}
}

func (m *Manager) claim(version string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.clients {
		c.setController(version)
	}
}
