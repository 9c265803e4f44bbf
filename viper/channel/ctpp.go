package channel

import (
	"github.com/openviper/viperclient/viper/frame"
	"github.com/openviper/viperclient/viper/vrand"
)

// CTPP frame templates. 0xFF marks a slot filled at runtime, except the
// first four bytes of tailTemplate, which are never overwritten and go
// out as 0xFF; everything else is an empirical constant captured off
// the wire and must not be re-derived.
var hsTemplate = []byte{
	0xc0, 0x18, 0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x11,
	0x00, 0x40, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x10, 0x0e,
	0x00, 0x00, 0x00, 0x00,
}

var linkTemplate = []byte{
	0xc0, 0x18,
	0xFF, 0xFF, 0xFF, 0xFF, // fresh bitmask
	0x00, 0x28, 0x00, 0x01,
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, // actuator address
	0x00,
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, // sub address
	0x00, 0x00, 0x01, 0x20,
	0xFF, 0xFF, 0xFF, 0xFF, // fresh random bytes
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, // actuator address
	0x00, 0x49, 0x49,
}

var ackTemplate = []byte{
	0xFF, 0x18, 0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x00,
}

var tailTemplate = []byte{
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0xFF, 0xFF,
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x00,
}

// CTPP is the stateful actuator-control channel. The bitmask is the
// handshake nonce and sequence counter binding its frames into one
// exchange; its last byte ratchets on 0x00-prefixed ACKs.
type CTPP struct {
	control [2]byte
	bitmask [4]byte
}

// NewCTPP allocates the channel with a fresh bitmask.
func NewCTPP(control [2]byte) *CTPP {
	c := &CTPP{control: control}
	copy(c.bitmask[:], vrand.Bytes(4))
	return c
}

// Control returns the channel's control id.
func (c *CTPP) Control() [2]byte {
	return c.control
}

// Bitmask returns the current bitmask bytes.
func (c *CTPP) Bitmask() [4]byte {
	return c.bitmask
}

// Open builds the CTPP channel-open frame, which carries the sub
// address as extra payload.
func (c *CTPP) Open(sub string) []byte {
	return New(c.control, "CTPP").OpenWithExtra([]byte(sub))
}

// Close builds the channel-close frame.
func (c *CTPP) Close() []byte {
	return New(c.control, "CTPP").Close()
}

// ConnectHS builds the handshake frame sent right after the channel
// opens. a1 is the sub address, a2 the apt address.
func (c *CTPP) ConnectHS(a1, a2 string) []byte {
	req := concat(hsTemplate, tailTemplate)

	setBytes(req, c.bitmask[:], 2)
	setBytes(req, vrand.Bytes(2), 10)
	setBytes(req, []byte(a1), 12)
	setBytes(req, []byte(a1), 32)
	setBytes(req, []byte(a2), 42)

	return frame.Encode(req, c.control)
}

// Confirm reports whether a received payload is the doorbell's
// confirmation of the current exchange: prefix 0x60 and the bitmask
// echoed back with the server's +0x80 transform on byte 0 and an
// incremented byte 2.
func (c *CTPP) Confirm(r []byte) bool {
	if len(r) < 6 {
		return false
	}
	return r[0] == 0x60 &&
		c.bitmask[0]+0x80 == r[2] &&
		c.bitmask[1] == r[3] &&
		c.bitmask[2] == r[5]-1 &&
		c.bitmask[3] == r[4]
}

// ConfirmHandshake is Confirm applied to the handshake reply. Frames
// that fail the check are not errors; the caller consumes them and
// reads again, within its retry budget.
func (c *CTPP) ConfirmHandshake(r []byte) bool {
	return c.Confirm(r)
}

// Ack builds one of the two acknowledgement frames that complete an
// exchange. The 0x00-prefixed ACK advances the sequence counter before
// the frame is built; the 0x20 one leaves the bitmask alone, so both
// ACKs of an exchange carry identical bitmask bytes.
func (c *CTPP) Ack(prefix byte, a1, a2 string) []byte {
	req := concat(ackTemplate, tailTemplate)

	if prefix == 0x00 {
		c.bitmask[3]++
	}

	req[0] = prefix
	setBytes(req, c.bitmask[:], 2)
	setBytes(req, []byte(a1), 12)
	setBytes(req, []byte(a2), 22)

	return frame.Encode(req, c.control)
}

// LinkActuators builds the frame that binds the door actuator to the
// sub address. It starts a new exchange: the bitmask is regenerated
// from fresh randomness.
func (c *CTPP) LinkActuators(a1, a2 string) []byte {
	req := concat(linkTemplate, tailTemplate)

	copy(c.bitmask[:], vrand.Bytes(4))

	setBytes(req, c.bitmask[:], 2)
	setBytes(req, []byte(a1), 10)
	setBytes(req, []byte(a2), 20)
	setBytes(req, vrand.Bytes(4), 32)
	setBytes(req, []byte(a1), 36)
	setBytes(req, []byte(a1), 52)
	setBytes(req, []byte(a2), 62)

	return frame.Encode(req, c.control)
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func setBytes(template, b []byte, offset int) {
	copy(template[offset:], b)
}
