package protocol

import "testing"

func TestValidatePayloadAccepts(t *testing.T) {
	cases := []struct {
		in     string
		length int
	}{
		{"hello", 5},
		{"hello\n", 5},
		{"x", 1},
	}
	for _, c := range cases {
		length, err := ValidatePayload([]byte(c.in))
		if err != nil {
			t.Fatalf("%q: expected success, got %v", c.in, err)
		}
		if length != c.length {
			t.Fatalf("%q: expected length %d, got %d", c.in, c.length, length)
		}
	}
}

func TestValidatePayloadRejectsEmpty(t *testing.T) {
	if _, err := ValidatePayload([]byte{}); err != ErrInvalidMessage {
		t.Fatalf("expected ErrInvalidMessage for empty input, got %v", err)
	}
	if _, err := ValidatePayload([]byte("\n")); err != ErrInvalidMessage {
		t.Fatalf("expected ErrInvalidMessage for newline-only input, got %v", err)
	}
}

func TestValidatePayloadRejectsNonPrintable(t *testing.T) {
	if _, err := ValidatePayload([]byte{'a', 0x01, 'b'}); err != ErrInvalidMessage {
		t.Fatalf("expected ErrInvalidMessage for control byte, got %v", err)
	}
	if _, err := ValidatePayload([]byte{'a', 0x7F}); err != ErrInvalidMessage {
		t.Fatalf("expected ErrInvalidMessage for DEL byte, got %v", err)
	}
}

func TestValidatePayloadRejectsOverLength(t *testing.T) {
	long := make([]byte, MaxMessageLength+1)
	for i := range long {
		long[i] = 'a'
	}
	if _, err := ValidatePayload(long); err != ErrInvalidMessage {
		t.Fatalf("expected ErrInvalidMessage for over-length input, got %v", err)
	}
}

func TestValidatePayloadAcceptsMaxLength(t *testing.T) {
	max := make([]byte, MaxMessageLength)
	for i := range max {
		max[i] = 'a'
	}
	length, err := ValidatePayload(max)
	if err != nil {
		t.Fatalf("expected success at max length, got %v", err)
	}
	if length != MaxMessageLength {
		t.Fatalf("expected length %d, got %d", MaxMessageLength, length)
	}
}
