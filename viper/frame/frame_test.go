package frame

import (
	"bytes"
	"testing"
)

func TestEncodeHeader(t *testing.T) {
	b := Encode([]byte("hello"), [2]byte{1, 2})
	if b[0] != 0x00 || b[1] != 0x06 {
		t.Fatalf("magic: %02x %02x", b[0], b[1])
	}
	if b[2] != 5 || b[3] != 0 {
		t.Fatalf("length: %d %d", b[2], b[3])
	}
	if b[4] != 1 || b[5] != 2 {
		t.Fatalf("control: %d %d", b[4], b[5])
	}
	if b[6] != 0 || b[7] != 0 {
		t.Fatalf("trailer: %d %d", b[6], b[7])
	}
	if !bytes.Equal(b[8:], []byte("hello")) {
		t.Fatalf("payload: %q", b[8:])
	}
}

func TestEncodeRawZeroControl(t *testing.T) {
	b := EncodeRaw([]byte{0xaa})
	if b[4] != 0 || b[5] != 0 {
		t.Fatalf("control not zero: %d %d", b[4], b[5])
	}
}

// Length vectors captured off the wire.
func TestContentLength(t *testing.T) {
	list := []struct {
		size   int
		b2, b3 byte
	}{
		{94, 94, 0},
		{117, 117, 0},
		{367, 111, 1},
		{752, 240, 2},
		{951, 183, 3},
	}

	for _, tc := range list {
		b := Encode(bytes.Repeat([]byte{'A'}, tc.size), [2]byte{1, 2})
		if b[2] != tc.b2 || b[3] != tc.b3 {
			t.Errorf("size %d: got (%d, %d), want (%d, %d)", tc.size, b[2], b[3], tc.b2, tc.b3)
		}
		if DecodeLength(b[2], b[3]) != tc.size {
			t.Errorf("size %d: decode %d", tc.size, DecodeLength(b[2], b[3]))
		}
	}
}

func TestDecodeLengthRoundTrip(t *testing.T) {
	for l := 0; l <= 0xffff; l++ {
		if got := DecodeLength(byte(l&0xff), byte(l>>8)); got != l {
			t.Fatalf("round trip %d: got %d", l, got)
		}
	}
}

func TestBuiltFrameLengthField(t *testing.T) {
	for _, n := range []int{0, 1, 8, 255, 256, 1000} {
		f := Encode(make([]byte, n), [2]byte{3, 4})
		if DecodeLength(f[2], f[3]) != len(f)-HeaderSize {
			t.Fatalf("payload %d: length field %d, frame %d", n, DecodeLength(f[2], f[3]), len(f))
		}
	}
}
