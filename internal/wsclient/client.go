// Package wsclient implements a minimal RFC 6455 WebSocket client: TLS
// dial, HTTP Upgrade handshake, client-masked text frames and a
// concurrency-safe send path. It intentionally does not support
// permessage-deflate or fragmented messages — see the package-level
// non-goals in the trading client's design notes.
package wsclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"
)

// Handler is invoked once per complete text message delivered by the
// server. It must not block for long: it runs on the single reader
// goroutine, so a slow handler stalls delivery of subsequent messages.
type Handler func(message string)

// Client is a single WebSocket connection. The zero value is not usable;
// construct with New. Send is safe to call concurrently from any
// goroutine; exactly one goroutine reads from the connection.
type Client struct {
	mu      sync.Mutex // guards conn and running; also serializes writes
	conn    net.Conn
	running bool

	handler   Handler
	handlerMu sync.RWMutex

	readerDone chan struct{}
}

// New returns a disconnected Client. Call Connect before Send.
func New() *Client {
	return &Client{}
}

// SetMessageHandler registers the callback invoked for each inbound text
// message. Must be called before Connect to avoid missing early messages.
func (c *Client) SetMessageHandler(h Handler) {
	c.handlerMu.Lock()
	c.handler = h
	c.handlerMu.Unlock()
}

// Connect dials host:port (scheme-dependent), performs TLS for "wss" and
// the RFC 6455 Upgrade handshake against path, and starts the read loop.
// insecureSkipVerify disables peer certificate verification when true; a
// hardened deployment should pass false.
func (c *Client) Connect(ctx context.Context, rawURL string, insecureSkipVerify bool) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("wsclient: parse url: %w", err)
	}

	host := u.Host
	path := u.RequestURI()
	if path == "" {
		path = "/"
	}

	dialer := &net.Dialer{}
	var conn net.Conn
	switch u.Scheme {
	case "wss":
		hostOnly := host
		if h, _, splitErr := net.SplitHostPort(host); splitErr == nil {
			hostOnly = h
		}
		tlsDialer := &tls.Dialer{
			NetDialer: dialer,
			Config: &tls.Config{
				ServerName:         hostOnly,
				MinVersion:         tls.VersionTLS12,
				InsecureSkipVerify: insecureSkipVerify,
			},
		}
		tlsConn, dialErr := tlsDialer.DialContext(ctx, "tcp", ensurePort(host, "443"))
		if dialErr != nil {
			return fmt.Errorf("wsclient: tls dial: %w", dialErr)
		}
		conn = tlsConn
	case "ws":
		plainConn, dialErr := dialer.DialContext(ctx, "tcp", ensurePort(host, "80"))
		if dialErr != nil {
			return fmt.Errorf("wsclient: dial: %w", dialErr)
		}
		conn = plainConn
	default:
		return fmt.Errorf("wsclient: unsupported scheme %q", u.Scheme)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	if err := performHandshake(conn, host, path); err != nil {
		conn.Close()
		return fmt.Errorf("wsclient: handshake: %w", err)
	}
	_ = conn.SetDeadline(time.Time{})

	c.mu.Lock()
	c.conn = conn
	c.running = true
	c.readerDone = make(chan struct{})
	done := c.readerDone
	c.mu.Unlock()

	go c.readLoop(conn, done)
	return nil
}

func ensurePort(host, defaultPort string) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return net.JoinHostPort(host, defaultPort)
}

// Send writes text as a single masked text frame. It returns false if the
// connection is not open or the write fails; a failed send leaves the
// connection closed for subsequent sends.
func (c *Client) Send(text string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running || c.conn == nil {
		return false
	}
	if err := writeFrame(c.conn, opText, []byte(text)); err != nil {
		c.failLocked()
		return false
	}
	return true
}

// IsRunning reports whether the transport believes it is still connected.
func (c *Client) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Close is idempotent and safe even if Connect never succeeded. It sends a
// best-effort close frame, tears down the socket and waits for the reader
// goroutine to exit.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	done := c.readerDone
	wasRunning := c.running
	c.running = false
	c.mu.Unlock()

	if conn == nil {
		return nil
	}

	if wasRunning {
		_ = writeFrame(conn, opClose, nil)
	}
	err := conn.Close()

	if done != nil {
		<-done
	}
	return err
}

// failLocked marks the transport stopped; callers must hold c.mu.
func (c *Client) failLocked() {
	c.running = false
}

func (c *Client) readLoop(conn net.Conn, done chan struct{}) {
	defer close(done)
	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	for {
		f, err := readFrame(conn)
		if err != nil {
			return
		}

		switch f.opcode {
		case opText:
			if f.fin {
				c.dispatch(string(f.payload))
			}
		case opPing:
			c.mu.Lock()
			if c.running {
				_ = writeFrame(conn, opPong, f.payload)
			}
			c.mu.Unlock()
		case opPong:
			// no-op: this client never sends unsolicited pings.
		case opClose:
			return
		case opBinary, opContinuation:
			// binary and fragmented messages are out of scope; ignored.
		}
	}
}

func (c *Client) dispatch(message string) {
	c.handlerMu.RLock()
	h := c.handler
	c.handlerMu.RUnlock()
	if h != nil {
		h(message)
	}
}
