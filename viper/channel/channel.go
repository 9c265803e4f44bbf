// Package channel turns channel lifecycle operations into wire frames.
// A channel is a named logical conversation (UAUT, UCFG, INFO, FRCG,
// FACT, CTPP, CSPB) bracketed by open and close frames.
package channel

import "github.com/openviper/viperclient/viper/frame"

// Channel is an open logical channel: its 4-character name plus the
// 2-byte control id the client allocated for it.
type Channel struct {
	name    string
	control [2]byte
}

// New records the control id and channel name.
func New(control [2]byte, name string) Channel {
	return Channel{name: name, control: control}
}

// Control returns the channel's control id.
func (c Channel) Control() [2]byte {
	return c.control
}

// Open builds the channel-open frame. The header's control field stays
// zero; the control id rides in the payload after the preamble and name.
func (c Channel) Open() []byte {
	return c.OpenWithExtra(nil)
}

// OpenWithExtra builds a channel-open frame carrying an extra payload
// (CTPP opens with the sub address). The extra is introduced by a
// 6-byte length marker and NUL-terminated.
func (c Channel) OpenWithExtra(extra []byte) []byte {
	var tail []byte
	if extra != nil {
		tail = append(tail, 0x00, 0x00, byte(len(extra)+1), 0x00, 0x00, 0x00)
		tail = append(tail, extra...)
	}
	tail = append(tail, 0x00)

	payload := make([]byte, 0, len(frame.OpenPreamble)+len(c.name)+2+len(tail))
	payload = append(payload, frame.OpenPreamble...)
	payload = append(payload, c.name...)
	payload = append(payload, c.control[0], c.control[1])
	payload = append(payload, tail...)

	return frame.EncodeRaw(payload)
}

// Close builds the channel-close frame: preamble plus the control id of
// the channel being closed. Header control stays zero here too.
func (c Channel) Close() []byte {
	payload := make([]byte, 0, len(frame.ClosePreamble)+2)
	payload = append(payload, frame.ClosePreamble...)
	payload = append(payload, c.control[0], c.control[1])

	return frame.EncodeRaw(payload)
}

// Com wraps a command body (JSON bytes) in a frame addressed to this
// channel.
func (c Channel) Com(body []byte) []byte {
	return frame.Encode(body, c.control)
}
