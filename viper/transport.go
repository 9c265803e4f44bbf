package viper

import (
	"io"
	"net"
	"time"

	"github.com/openviper/viperclient/viper/frame"
)

const (
	// DefaultTimeout bounds one request/response read or write.
	DefaultTimeout = 1 * time.Second

	// HandshakeTimeout bounds reads while waiting for CTPP replies,
	// which arrive noticeably later than JSON responses.
	HandshakeTimeout = 5 * time.Second

	// maxFrameSize rejects lengths no real doorbell frame reaches.
	maxFrameSize = 16 * 1024
)

// Transport owns the TCP stream to the doorbell and moves whole frames
// across it. It is not safe for concurrent use; one client drives one
// transport strictly request/response.
type Transport struct {
	conn        net.Conn
	readTimeout time.Duration
}

// DialTransport connects to addr and applies DefaultTimeout to reads
// and writes.
func DialTransport(addr string) (*Transport, error) {
	conn, err := net.DialTimeout("tcp", addr, DefaultTimeout)
	if err != nil {
		return nil, &TransportError{Op: "connect", Err: err}
	}
	return &Transport{conn: conn, readTimeout: DefaultTimeout}, nil
}

// SetReadTimeout changes the per-read deadline. The CTPP driver raises
// it for handshake reads and restores it afterwards.
func (t *Transport) SetReadTimeout(d time.Duration) {
	t.readTimeout = d
}

// Write sends b completely.
func (t *Transport) Write(b []byte) error {
	t.conn.SetWriteDeadline(time.Now().Add(DefaultTimeout))
	if _, err := t.conn.Write(b); err != nil {
		return &TransportError{Op: "write", Err: err}
	}
	return nil
}

// ReadFrame reads exactly one frame and returns its payload: 8 header
// bytes first, then the length the header announces.
func (t *Transport) ReadFrame() ([]byte, error) {
	t.conn.SetReadDeadline(time.Now().Add(t.readTimeout))

	header := make([]byte, frame.HeaderSize)
	if _, err := io.ReadFull(t.conn, header); err != nil {
		return nil, &TransportError{Op: "read header", Err: err}
	}

	n := frame.DecodeLength(header[2], header[3])
	if n > maxFrameSize {
		return nil, &ProtocolError{Msg: "oversized frame"}
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(t.conn, payload); err != nil {
		return nil, &TransportError{Op: "read payload", Err: err}
	}
	return payload, nil
}

// Execute writes a frame and reads the response payload.
func (t *Transport) Execute(b []byte) ([]byte, error) {
	if err := t.Write(b); err != nil {
		return nil, err
	}
	return t.ReadFrame()
}

// Shutdown closes both halves of the stream. Any in-flight read or
// write fails with a transport error.
func (t *Transport) Shutdown() error {
	if err := t.conn.Close(); err != nil {
		return &TransportError{Op: "shutdown", Err: err}
	}
	return nil
}
