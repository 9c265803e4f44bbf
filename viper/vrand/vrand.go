// Package vrand produces the bounded random bytes the Viper protocol
// wants for control ids and CTPP bitmasks.
package vrand

import "math/rand/v2"

// Bytes are drawn from [Min, Max). 0x00 is an in-band marker in several
// payloads, and the doorbell adds 0x80 to bitmask bytes in CTPP replies,
// so the upper half must stay free.
const (
	Min = 0x01
	Max = 0x80
)

// Bytes returns n independent random bytes in [Min, Max).
func Bytes(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(Min + rand.IntN(Max-Min))
	}
	return b
}

// Control returns a fresh 2-byte control id.
func Control() [2]byte {
	b := Bytes(2)
	return [2]byte{b[0], b[1]}
}
