package protocol

import "testing"

func TestUint32BERoundTrip(t *testing.T) {
	values := []uint32{0, 1, 255, 256, 65535, 1 << 20, ^uint32(0)}
	buf := make([]byte, 4)
	for _, v := range values {
		PutUint32BE(buf, v)
		if got := Uint32BE(buf); got != v {
			t.Fatalf("round trip failed for %d: got %d", v, got)
		}
	}
}

func TestUint32BEBigEndianOrder(t *testing.T) {
	buf := make([]byte, 4)
	PutUint32BE(buf, 0x01020304)
	expect := []byte{0x01, 0x02, 0x03, 0x04}
	for i := range expect {
		if buf[i] != expect[i] {
			t.Fatalf("byte %d: expected %#x, got %#x", i, expect[i], buf[i])
		}
	}
}

func TestEncodeIPv4(t *testing.T) {
	buf := make([]byte, 4)
	EncodeIPv4(buf, [4]byte{192, 168, 0, 1})
	expect := []byte{192, 168, 0, 1}
	for i := range expect {
		if buf[i] != expect[i] {
			t.Fatalf("byte %d: expected %d, got %d", i, expect[i], buf[i])
		}
	}
}
