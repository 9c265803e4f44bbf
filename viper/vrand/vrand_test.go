package vrand

import "testing"

func TestBytesBound(t *testing.T) {
	for _, b := range Bytes(4096) {
		if b < Min || b >= Max {
			t.Fatalf("byte out of bounds: 0x%02x", b)
		}
	}
}

func TestControlBound(t *testing.T) {
	for i := 0; i < 1000; i++ {
		c := Control()
		if c[0] < Min || c[0] >= Max || c[1] < Min || c[1] >= Max {
			t.Fatalf("control out of bounds: %02x %02x", c[0], c[1])
		}
	}
}
