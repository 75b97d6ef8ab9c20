package publish

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/rendergraph/internal/ctxlog"
)

// FrameEvent is the socket.io event carrying a Frame.
const FrameEvent = "frame"

// DefaultConnectTimeout bounds the initial connection.
const DefaultConnectTimeout = 15 * time.Second

// Options configures a Publisher.
type Options struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
	ConnectTimeout     time.Duration
}

// Frame is the payload sent after each executed frame.
type Frame struct {
	Graph     string            `json:"graph"`
	Index     int               `json:"index"`
	Variables map[string]string `json:"variables"`
}

func (f Frame) payload() map[string]any {
	vars := make(map[string]any, len(f.Variables))
	for k, v := range f.Variables {
		vars[k] = v
	}
	return map[string]any{"graph": f.Graph, "index": f.Index, "variables": vars}
}

// Publisher owns a connected socket.io client.
type Publisher struct {
	client *socket.Socket
	sent   int
}

// Connect dials opts.URL and waits for the namespace to connect.
func Connect(ctx context.Context, opts Options) (*Publisher, error) {
	logger := ctxlog.FromContext(ctx).With("publisher", "socketio", "url", opts.URL)
	logger.Info("Connecting frame publisher...")

	parsedURL, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("publish URL %q needs a scheme and host", opts.URL)
	}
	namespace := opts.Namespace
	if namespace == "" {
		namespace = "/"
	}
	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}

	sopts := socket.DefaultOptions()
	sopts.SetPath(parsedURL.Path)
	if opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		sopts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	sopts.SetTransports(types.NewSet(transports.WebSocket))

	connected := make(chan error, 1)
	notify := func(err error) {
		select {
		case connected <- err:
		default:
		}
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, sopts)
	io := manager.Socket(namespace, sopts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Frame publisher connected", "sid", io.Id())
		notify(nil)
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		logger.Debug("Frame publisher connect error", "error", err)
		notify(err)
	})

	io.Connect()

	select {
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return &Publisher{client: io}, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection")
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", timeout)
	}
}

// Publish emits f. Frames are dropped while the client is disconnected.
func (p *Publisher) Publish(ctx context.Context, f Frame) bool {
	if !p.client.Connected() {
		ctxlog.FromContext(ctx).Debug("Frame publisher disconnected, frame dropped.", "frame", f.Index)
		return false
	}
	p.client.Emit(FrameEvent, f.payload())
	p.sent++
	return true
}

// Sent returns the number of frames emitted.
func (p *Publisher) Sent() int { return p.sent }

// Close disconnects the client.
func (p *Publisher) Close(ctx context.Context) {
	ctxlog.FromContext(ctx).Info("Closing frame publisher", "sid", p.client.Id(), "sent", p.sent)
	p.client.Disconnect()
}
