// 文件路径: internal/client/tail.go
// 模块说明: 这是 internal 模块里的 tail 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package client

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/errors"
	"github.com/gorilla/websocket"

	"github.com/creamcroissant/vpnadmin/internal/service"
)

// TailOptions tunes the live ad-callback feed.
type TailOptions struct {
	// InitialInterval/MaxInterval bound the reconnect delay.
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Dialer          *websocket.Dialer
	// OnReconnect is called before each reconnect attempt with the delay that follows.
	OnReconnect func(err error, wait time.Duration)
}

// FeedURL 把 http(s) 服务端地址换成 /ws/ad-logs 的 ws(s) 地址。
func (c *Client) FeedURL() string {
	u := *c.serverURL
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/ad-logs"
	u.RawQuery = ""
	return u.String()
}

// Tail streams live ad callbacks into handle until ctx ends, reconnecting with
// exponential backoff after drops. A 401/403 from the server stops the loop.
func (c *Client) Tail(ctx context.Context, handle func(service.AdEvent), opts TailOptions) error {
	if handle == nil {
		return errors.New("tail handler is required")
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{HandshakeTimeout: 10 * time.Second, Proxy: http.ProxyFromEnvironment}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	if opts.InitialInterval > 0 {
		b.InitialInterval = opts.InitialInterval
	}
	b.MaxInterval = 30 * time.Second
	if opts.MaxInterval > 0 {
		b.MaxInterval = opts.MaxInterval
	}
	b.Multiplier = 2
	b.MaxElapsedTime = 0 // 一直重连，直到 ctx 结束

	op := func() error {
		conn, err := c.dialFeed(ctx, dialer)
		if err != nil {
			return err
		}
		// 连上之后重置退避，下次掉线从最短间隔开始
		b.Reset()
		return c.readFeed(ctx, conn, handle)
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("ad feed disconnected, retrying", "error", err, "wait", wait)
		if opts.OnReconnect != nil {
			opts.OnReconnect(err, wait)
		}
	}

	err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (c *Client) dialFeed(ctx context.Context, dialer *websocket.Dialer) (*websocket.Conn, error) {
	header := http.Header{}
	if tok := c.token(); tok != "" {
		header.Set("Authorization", "Bearer "+tok)
	}
	conn, resp, err := dialer.DialContext(ctx, c.FeedURL(), header)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, backoff.Permanent(&APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)})
		}
		return nil, errors.Wrap(err, "dial ad feed")
	}
	return conn, nil
}

func (c *Client) readFeed(ctx context.Context, conn *websocket.Conn, handle func(service.AdEvent)) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			conn.Close()
		case <-done:
			conn.Close()
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return errors.Wrap(err, "read ad feed")
		}
		var event service.AdEvent
		if err := json.Unmarshal(data, &event); err != nil {
			c.logger.Warn("skip malformed ad event", "error", err)
			continue
		}
		handle(event)
	}
}
