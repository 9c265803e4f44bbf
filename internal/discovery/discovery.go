// Package discovery finds the doorbell before the TCP protocol starts:
// a UDP identity probe on the scan port and a plain dial probe that
// answers "is it awake right now". The device naps aggressively, so
// callers poll.
package discovery

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// ScanPort is the UDP port the doorbell answers identity probes on.
	ScanPort = 24199

	// localPort is the source port the vendor app binds for the probe;
	// the device replies to it specifically.
	localPort = 7432

	readTimeout  = 10 * time.Millisecond
	probeBackoff = 500 * time.Millisecond
	maxBackoff   = 5
)

// Identity is the report a doorbell sends back to an "INFO" probe.
type Identity struct {
	MACAddress  string
	HWID        string
	AppID       string
	AppVersion  string
	SystemID    string
	Description string
	ModelID     string
}

// Scan probes host until an identity report arrives or ctx ends.
// Unanswered probes back off up to 2.5s apart.
func Scan(ctx context.Context, host string) (*Identity, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: localPort})
	if err != nil {
		return nil, fmt.Errorf("listen UDP: %w", err)
	}
	defer conn.Close()

	target := &net.UDPAddr{IP: net.ParseIP(host), Port: ScanPort}
	if target.IP == nil {
		return nil, fmt.Errorf("bad host %q", host)
	}

	buf := make([]byte, 256)
	tries := 1

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if _, err := conn.WriteToUDP([]byte("INFO"), target); err != nil {
			return nil, fmt.Errorf("probe: %w", err)
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))
		n, _, err := conn.ReadFromUDP(buf)
		if err == nil && n > 0 {
			id := parseIdentity(buf[:n])
			return &id, nil
		}

		log.Debug().Str("host", host).Int("try", tries).Msg("doorbell idle")
		tries++
		if tries > maxBackoff {
			tries = maxBackoff
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(probeBackoff * time.Duration(tries)):
		}
	}
}

// parseIdentity slices the fixed-offset fields out of the 256-byte
// report. Text fields are NUL-padded.
func parseIdentity(buf []byte) Identity {
	b := make([]byte, 256)
	copy(b, buf)

	return Identity{
		MACAddress:  net.HardwareAddr(b[14:20]).String(),
		HWID:        cString(b[20:24]),
		AppID:       cString(b[24:28]),
		AppVersion:  cString(b[32:112]),
		SystemID:    cString(b[112:116]),
		Description: cString(b[116:152]),
		ModelID:     cString(b[156:160]),
	}
}

func cString(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		if c != 0 {
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// Poll reports whether the doorbell currently accepts TCP connections
// on its command port.
func Poll(host string, port int, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, fmt.Sprint(port)), timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
