// Package vipertest runs an in-process doorbell for tests: a TCP
// listener that reads whole frames and answers from a script.
package vipertest

import (
	"io"
	"net"

	"github.com/openviper/viperclient/viper/frame"
)

// Server is a scripted doorbell. Each incoming frame consumes the next
// scripted response, already framed, written back verbatim.
type Server struct {
	ln net.Listener
}

// NewServer listens on a random loopback port.
func NewServer() (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	return &Server{ln: ln}, nil
}

// Addr returns host and port to dial.
func (s *Server) Addr() (string, int) {
	addr := s.ln.Addr().(*net.TCPAddr)
	return "127.0.0.1", addr.Port
}

// Close stops listening.
func (s *Server) Close() error {
	return s.ln.Close()
}

// Respond accepts one connection and answers each frame with the next
// scripted response. Run it in a goroutine before dialing.
func (s *Server) Respond(responses ...[]byte) error {
	conn, err := s.ln.Accept()
	if err != nil {
		return err
	}
	defer conn.Close()

	for _, resp := range responses {
		if _, err := readFrame(conn); err != nil {
			return err
		}
		if _, err := conn.Write(resp); err != nil {
			return err
		}
	}
	return nil
}

// Echo accepts one connection and reflects every frame back until the
// peer hangs up.
func (s *Server) Echo() error {
	conn, err := s.ln.Accept()
	if err != nil {
		return err
	}
	defer conn.Close()

	for {
		raw, err := readFrame(conn)
		if err != nil {
			return nil
		}
		if _, err := conn.Write(raw); err != nil {
			return err
		}
	}
}

// Handle accepts one connection and hands it to fn, for conversations
// a fixed script cannot express (the CTPP handshake echoes random
// bytes back at the client).
func (s *Server) Handle(fn func(conn net.Conn)) error {
	conn, err := s.ln.Accept()
	if err != nil {
		return err
	}
	defer conn.Close()
	fn(conn)
	return nil
}

// ReadPayload reads one frame off conn and returns its payload.
func ReadPayload(conn net.Conn) ([]byte, error) {
	raw, err := readFrame(conn)
	if err != nil {
		return nil, err
	}
	return raw[frame.HeaderSize:], nil
}

func readFrame(conn net.Conn) ([]byte, error) {
	header := make([]byte, frame.HeaderSize)
	if _, err := io.ReadFull(conn, header); err != nil {
		return nil, err
	}
	payload := make([]byte, frame.DecodeLength(header[2], header[3]))
	if _, err := io.ReadFull(conn, payload); err != nil {
		return nil, err
	}
	return append(header, payload...), nil
}

// Frame wraps a payload for a scripted response.
func Frame(payload []byte, control [2]byte) []byte {
	return frame.Encode(payload, control)
}
