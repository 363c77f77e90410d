package natsclient

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/c360/chassmon/errors"
)

// ConnectionStatus represents the state of the NATS connection
type ConnectionStatus int

const (
	// StatusDisconnected indicates no connection
	StatusDisconnected ConnectionStatus = iota
	// StatusConnecting indicates a connection attempt in progress
	StatusConnecting
	// StatusConnected indicates a healthy connection
	StatusConnected
	// StatusCircuitOpen indicates the circuit breaker tripped
	StatusCircuitOpen
)

// String returns the string representation of the connection status
func (s ConnectionStatus) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusCircuitOpen:
		return "circuit-open"
	default:
		return "unknown"
	}
}

// ErrNotConnected is returned when an operation requires a live connection
var ErrNotConnected = errors.ErrNoConnection

// Client manages a NATS connection with a circuit breaker
type Client struct {
	url    string
	status atomic.Value // stores ConnectionStatus
	logger *slog.Logger

	conn *nats.Conn
	subs []*nats.Subscription

	// Circuit breaker
	circuitFailures  atomic.Int32
	circuitThreshold int32
	lastFailure      atomic.Value // stores time.Time
	cooldown         time.Duration

	// Connection options
	clientName    string
	maxReconnects int
	reconnectWait time.Duration
	timeout       time.Duration

	onHealthChange func(bool)

	mu     sync.RWMutex
	closed atomic.Bool
}

// NewClient creates a new NATS client with optional configuration
func NewClient(url string, opts ...ClientOption) (*Client, error) {
	c := &Client{
		url:              url,
		logger:           slog.Default().With("component", "natsclient"),
		clientName:       "chassmon",
		maxReconnects:    -1, // infinite by default
		reconnectWait:    2 * time.Second,
		timeout:          5 * time.Second,
		circuitThreshold: 5,
		cooldown:         time.Minute,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, errors.WrapInvalid(err, "Client", "NewClient", "apply option")
		}
	}

	c.status.Store(StatusDisconnected)
	c.lastFailure.Store(time.Time{})

	return c, nil
}

// URL returns the NATS server URL
func (c *Client) URL() string {
	return c.url
}

// Status returns the current connection status
func (c *Client) Status() ConnectionStatus {
	return c.status.Load().(ConnectionStatus)
}

// IsHealthy reports whether the connection is usable
func (c *Client) IsHealthy() bool {
	if c.Status() != StatusConnected {
		return false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && c.conn.IsConnected()
}

func (c *Client) setStatus(s ConnectionStatus) {
	c.status.Store(s)
}

func (c *Client) recordFailure() {
	c.lastFailure.Store(time.Now())
	if c.circuitFailures.Add(1) >= c.circuitThreshold {
		c.setStatus(StatusCircuitOpen)
		c.logger.Warn("Circuit breaker opened", "failures", c.circuitFailures.Load())
	}
}

func (c *Client) resetCircuit() {
	c.circuitFailures.Store(0)
}

// circuitCooled reports whether enough time passed to probe again
func (c *Client) circuitCooled() bool {
	last, _ := c.lastFailure.Load().(time.Time)
	return time.Since(last) > c.cooldown
}

// Connect establishes the NATS connection. When the circuit breaker is
// open and has not cooled down, the attempt is skipped entirely.
func (c *Client) Connect(ctx context.Context) error {
	if c.Status() == StatusCircuitOpen {
		if !c.circuitCooled() {
			return errors.ErrCircuitOpen
		}
		c.resetCircuit()
	}

	c.setStatus(StatusConnecting)
	c.logger.Info("Connecting to NATS", "url", c.url)

	opts := []nats.Option{
		nats.Name(c.clientName),
		nats.MaxReconnects(c.maxReconnects),
		nats.ReconnectWait(c.reconnectWait),
		nats.Timeout(c.timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			c.logger.Warn("NATS disconnected", "error", err)
			if c.onHealthChange != nil {
				c.onHealthChange(false)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			c.logger.Info("NATS reconnected")
			if c.onHealthChange != nil {
				c.onHealthChange(true)
			}
		}),
	}

	connectDone := make(chan error, 1)
	go func() {
		conn, err := nats.Connect(c.url, opts...)
		if err != nil {
			connectDone <- err
			return
		}

		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()
		connectDone <- nil
	}()

	select {
	case err := <-connectDone:
		if err != nil {
			c.recordFailure()
			if c.Status() == StatusCircuitOpen {
				return errors.ErrCircuitOpen
			}
			c.setStatus(StatusDisconnected)
			return errors.WrapTransient(err, "Client", "Connect", "establish connection")
		}
	case <-ctx.Done():
		c.recordFailure()
		if c.Status() != StatusCircuitOpen {
			c.setStatus(StatusDisconnected)
		}
		return errors.WrapTransient(ctx.Err(), "Client", "Connect", "connection cancelled")
	}

	c.setStatus(StatusConnected)
	c.resetCircuit()
	c.logger.Info("Connected to NATS", "url", c.url)

	if c.onHealthChange != nil {
		c.onHealthChange(true)
	}

	return nil
}

// Publish publishes a message to a NATS subject
func (c *Client) Publish(_ context.Context, subject string, data []byte) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil || !conn.IsConnected() {
		return ErrNotConnected
	}

	return conn.Publish(subject, data)
}

// Subscribe subscribes to a NATS subject. Each message handler receives
// a context derived from the parent with a processing timeout.
func (c *Client) Subscribe(ctx context.Context, subject string, handler func(context.Context, []byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil || !c.conn.IsConnected() {
		return ErrNotConnected
	}

	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		msgCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		handler(msgCtx, msg.Data)
	})
	if err != nil {
		return errors.WrapTransient(err, "Client", "Subscribe", "create subscription")
	}

	c.subs = append(c.subs, sub)
	return nil
}

// OnHealthChange registers a callback invoked on connect/disconnect
func (c *Client) OnHealthChange(fn func(bool)) {
	c.onHealthChange = fn
}

// Close drains subscriptions and closes the connection. Safe to call
// more than once.
func (c *Client) Close(_ context.Context) error {
	if c.closed.Swap(true) {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, sub := range c.subs {
		if err := sub.Unsubscribe(); err != nil {
			c.logger.Warn("Unsubscribe failed", "subject", sub.Subject, "error", err)
		}
	}
	c.subs = nil

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	c.setStatus(StatusDisconnected)
	return nil
}
