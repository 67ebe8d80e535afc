package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/killallgit/tessera/pkg/config"
	"github.com/killallgit/tessera/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Client is a reconnecting websocket transport. Inbound envelopes, plus
// synthetic connect and disconnect envelopes, are delivered on Events.
type Client struct {
	cfg    config.ServerConfig
	dialer *websocket.Dialer
	events chan Envelope

	mu   sync.Mutex
	conn *websocket.Conn
	log  *logger.Logger
}

// NewClient creates a client for cfg.URL
func NewClient(cfg config.ServerConfig) *Client {
	return &Client{
		cfg:    cfg,
		dialer: websocket.DefaultDialer,
		events: make(chan Envelope, 64),
		log:    logger.WithComponent("transport"),
	}
}

// Events returns the inbound envelope channel. It is closed when Run returns.
func (c *Client) Events() <-chan Envelope {
	return c.events
}

// Run connects and keeps reconnecting until ctx is cancelled
func (c *Client) Run(ctx context.Context) error {
	defer close(c.events)

	delay := c.cfg.ReconnectDelay
	for {
		conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Warn("dial failed", "url", c.cfg.URL, "retry_in", delay.String(), "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
			delay = c.backoff(delay)
			continue
		}

		delay = c.cfg.ReconnectDelay
		c.setConn(conn)
		c.emit(ctx, Envelope{Event: EventConnect})

		err = c.serve(ctx, conn)
		c.setConn(nil)

		if ctx.Err() != nil {
			return nil
		}
		reason := "connection closed"
		if err != nil {
			reason = err.Error()
		}
		c.log.Warn("connection lost", "reason", reason)
		data, _ := json.Marshal(disconnectData{Reason: reason})
		c.emit(ctx, Envelope{Event: EventDisconnect, Data: data})

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}

func (c *Client) serve(ctx context.Context, conn *websocket.Conn) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		return conn.Close()
	})

	g.Go(func() error {
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return fmt.Errorf("read failed: %w", err)
			}
			var env Envelope
			if err := json.Unmarshal(raw, &env); err != nil {
				c.log.Warn("dropping malformed envelope", "error", err)
				continue
			}
			c.emit(gctx, env)
		}
	})

	if c.cfg.PingInterval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(c.cfg.PingInterval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					deadline := time.Now().Add(c.writeTimeout())
					if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
						return fmt.Errorf("ping failed: %w", err)
					}
				}
			}
		})
	}

	err := g.Wait()
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) && closeErr.Code == websocket.CloseNormalClosure {
		return nil
	}
	return err
}

// Send writes one envelope. It fails immediately when not connected.
func (c *Client) Send(ctx context.Context, event string, payload any) error {
	env, err := NewEnvelope(event, payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}

	deadline := time.Now().Add(c.writeTimeout())
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := c.conn.WriteJSON(env); err != nil {
		return fmt.Errorf("failed to send %s: %w", event, err)
	}
	c.log.Debug("sent", "event", event, "bytes", len(env.Data))
	return nil
}

// Connected reports whether a connection is currently open
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = conn
}

func (c *Client) backoff(delay time.Duration) time.Duration {
	next := delay * 2
	if next <= 0 {
		next = time.Second
	}
	if c.cfg.MaxReconnectDelay > 0 && next > c.cfg.MaxReconnectDelay {
		next = c.cfg.MaxReconnectDelay
	}
	return next
}

func (c *Client) writeTimeout() time.Duration {
	if c.cfg.WriteTimeout > 0 {
		return c.cfg.WriteTimeout
	}
	return 10 * time.Second
}

func (c *Client) emit(ctx context.Context, env Envelope) {
	select {
	case c.events <- env:
	case <-ctx.Done():
	}
}
