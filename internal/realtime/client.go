package realtime

import (
	"fmt"
	"sync"
)

// ConnState is the lifecycle position of a single connection
type ConnState int

const (
	StateConnecting ConnState = iota
	StateAuthenticated
	StateOpen
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticated:
		return "authenticated"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// sendBuffer is the per-connection outbound queue depth
const sendBuffer = 64

// Client is one live transport connection. The transport owns reading and
// writing; the registry and hub only ever touch the outbound queue.
type Client struct {
	ID        string
	UserID    string
	CompanyID string

	mu    sync.Mutex
	state ConnState
	send  chan []byte
}

// NewClient creates a client in the Connecting state
func NewClient(id string) *Client {
	return &Client{
		ID:    id,
		state: StateConnecting,
		send:  make(chan []byte, sendBuffer),
	}
}

// State returns the current lifecycle state
func (c *Client) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Authenticate binds verified identity to the connection.
// Only valid from Connecting.
func (c *Client) Authenticate(userID, companyID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateConnecting {
		return fmt.Errorf("authenticate from %s", c.state)
	}
	c.UserID = userID
	c.CompanyID = companyID
	c.state = StateAuthenticated
	return nil
}

func (c *Client) open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateAuthenticated {
		return fmt.Errorf("open from %s", c.state)
	}
	c.state = StateOpen
	return nil
}

// close moves the client to Closed and closes the outbound queue once.
// Reports whether this call performed the transition.
func (c *Client) close() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return false
	}
	c.state = StateClosed
	close(c.send)
	return true
}

// enqueue hands data to the writer without blocking. A full queue drops the frame.
func (c *Client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateOpen {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Outbound is the queue the transport writer drains. It is closed when the client closes.
func (c *Client) Outbound() <-chan []byte {
	return c.send
}
