package printer

import (
	"context"
	"net"
	"time"

	"fulfillment-service/internal/models"
)

// Transport delivers an opaque payload to a print destination. The
// dispatch worker retries on error, so implementations should return
// rather than retry internally.
type Transport interface {
	Deliver(ctx context.Context, addr string, payload []byte) error
}

// TCPTransport writes the raw payload to a network printer, the usual
// port-9100 style. Payload bytes pass through untouched.
type TCPTransport struct {
	DialTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewTCPTransport creates a transport with the given timeouts
func NewTCPTransport(dialTimeout, writeTimeout time.Duration) *TCPTransport {
	return &TCPTransport{
		DialTimeout:  dialTimeout,
		WriteTimeout: writeTimeout,
	}
}

// Deliver opens a connection to the printer and writes the payload.
func (t *TCPTransport) Deliver(ctx context.Context, addr string, payload []byte) error {
	dialer := net.Dialer{Timeout: t.DialTimeout}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return &models.DispatchError{PrinterAddr: addr, Err: err}
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	} else {
		_ = conn.SetWriteDeadline(time.Now().Add(t.WriteTimeout))
	}

	if _, err := conn.Write(payload); err != nil {
		return &models.DispatchError{PrinterAddr: addr, Err: err}
	}
	return nil
}
