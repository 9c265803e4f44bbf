package frame

import "encoding/binary"

/*
 * Viper Frame Format (as captured from the doorbell):
 *
 * All values are little-endian.
 *
 * uint8     0x00
 * uint8     0x06
 * uint16    Payload length (bytes)
 * uint8[2]  Control id (zero for channel open/close frames)
 * uint16    0x0000
 * uint8[]   Payload data
 *
 * Channel open and close frames carry the control id inside the
 * payload instead, after an 8-byte preamble (and, in open frames,
 * after the 4-character channel name).
 */

// HeaderSize is the fixed size of the frame header.
const HeaderSize = 8

// OpenPreamble starts every channel-open payload.
var OpenPreamble = []byte{0xcd, 0xab, 0x01, 0x00, 0x07, 0x00, 0x00, 0x00}

// ClosePreamble starts every channel-close payload.
var ClosePreamble = []byte{0xef, 0x01, 0x03, 0x00, 0x02, 0x00, 0x00, 0x00}

// Encode prepends the 8-byte header with the payload length and the
// channel's control id at bytes 4 and 5.
func Encode(payload []byte, control [2]byte) []byte {
	buf := make([]byte, HeaderSize+len(payload))
	buf[1] = 0x06
	binary.LittleEndian.PutUint16(buf[2:4], uint16(len(payload)))
	buf[4] = control[0]
	buf[5] = control[1]
	copy(buf[HeaderSize:], payload)
	return buf
}

// EncodeRaw is Encode with a zero control field. Used for channel open
// and close frames, whose control id travels inside the payload.
func EncodeRaw(payload []byte) []byte {
	return Encode(payload, [2]byte{})
}

// DecodeLength reads the payload length out of header bytes 2 and 3.
func DecodeLength(b2, b3 byte) int {
	return int(binary.LittleEndian.Uint16([]byte{b2, b3}))
}
