package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"time"

	"github.com/specialistvlad/atlasgrid/internal/ctxlog"
	"github.com/specialistvlad/atlasgrid/internal/export"
	"github.com/specialistvlad/atlasgrid/internal/orchestrator"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Event names emitted to the viewer.
const (
	EventPublished = "assembly_published"
	EventFailed    = "regeneration_failed"
	EventExported  = "export_finished"
)

// DefaultConnectTimeout bounds how long Dial waits for the handshake.
const DefaultConnectTimeout = 15 * time.Second

// SocketIOConfig describes the viewer endpoint.
type SocketIOConfig struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
	// IncludeMesh attaches the indexed mesh to published events.
	IncludeMesh    bool
	ConnectTimeout time.Duration
}

// SocketIO pushes outcomes to a socket.io server.
type SocketIO struct {
	emit        func(event string, payload any)
	disconnect  func()
	includeMesh bool
}

// DialSocketIO connects to the viewer and waits for the connection to be
// established.
func DialSocketIO(ctx context.Context, cfg SocketIOConfig) (*SocketIO, error) {
	logger := ctxlog.FromContext(ctx).With("notifier", "socketio", "url", cfg.URL)
	logger.Info("Connecting to viewer...")

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(cfg.Namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Connected to viewer.", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		var err error = fmt.Errorf("connect error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		connectChan <- err
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %v waiting for socket.io connection", timeout)
	}

	return &SocketIO{
		emit:        func(event string, payload any) { io.Emit(event, payload) },
		disconnect:  func() { io.Disconnect() },
		includeMesh: cfg.IncludeMesh,
	}, nil
}

func (s *SocketIO) Published(_ context.Context, res orchestrator.Result) error {
	s.emit(EventPublished, NewPublished(res, s.includeMesh))
	return nil
}

func (s *SocketIO) Failed(_ context.Context, err error) error {
	s.emit(EventFailed, Failure{Error: err.Error()})
	return nil
}

func (s *SocketIO) Exported(_ context.Context, res export.Result) error {
	s.emit(EventExported, NewExported(res))
	return nil
}

// Close disconnects from the viewer.
func (s *SocketIO) Close() error {
	if s.disconnect != nil {
		s.disconnect()
	}
	return nil
}
