package observer

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"

	"github.com/lord-carlos/traktor-api-client/internal/realtime"
)

// Client is a read-only connection to the relay's push channel.
type Client struct {
	conn *websocket.Conn
	view *View
}

// SocketURL turns a relay base URL (http or ws scheme) into its push channel
// URL.
func SocketURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse relay url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws", "":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported relay url scheme %q", u.Scheme)
	}
	if !strings.HasSuffix(u.Path, "/socket") {
		u.Path = strings.TrimSuffix(u.Path, "/") + "/socket"
	}
	return u.String(), nil
}

func Dial(ctx context.Context, base string) (*Client, error) {
	socketURL, err := SocketURL(base)
	if err != nil {
		return nil, err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, socketURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", socketURL, err)
	}
	return &Client{conn: conn, view: NewView()}, nil
}

func (c *Client) View() *View {
	return c.view
}

// Next blocks for one message and applies it to the view.
func (c *Client) Next() (realtime.Envelope, error) {
	_, payload, err := c.conn.ReadMessage()
	if err != nil {
		return realtime.Envelope{}, err
	}
	return c.view.Apply(payload)
}

// Run applies messages until ctx is done or the connection ends. onMessage
// may be nil.
func (c *Client) Run(ctx context.Context, onMessage func(realtime.Envelope)) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.conn.Close()
		case <-done:
		}
	}()
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		env, err := c.view.Apply(payload)
		if err != nil {
			glog.Warningf("[observer]skipping message: %v", err)
			continue
		}
		if onMessage != nil {
			onMessage(env)
		}
	}
}

func (c *Client) Close() error {
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.conn.Close()
}
