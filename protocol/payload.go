/*
File Name:  payload.go
Copyright:  2024 Peerchat Project

Validation of operator-submitted chat message payloads.
*/
package protocol

import "errors"

// MaxMessageLength is the maximum number of payload bytes a single chat
// message entry may carry. The length is stored in a single byte in the
// archive encoding, so it cannot exceed 255; it also may not be 0.
const MaxMessageLength = 255

// ErrInvalidMessage is returned by ValidatePayload for empty input, input
// exceeding MaxMessageLength, or input containing a non-printable byte before
// any terminating newline.
var ErrInvalidMessage = errors.New("protocol: invalid message")

// ValidatePayload scans msg for a length-prefixed chat payload. A trailing
// newline, if present, terminates the payload and is not counted towards its
// length. Every byte up to the terminator must be printable ASCII (32-126
// inclusive). The payload must be non-empty.
//
// On success it returns the payload length (excluding any terminating
// newline). On failure it returns ErrInvalidMessage.
func ValidatePayload(msg []byte) (length int, err error) {
	for _, b := range msg {
		if b == '\n' {
			break
		}
		if b < 32 || b > 126 {
			return 0, ErrInvalidMessage
		}
		length++
	}

	if length == 0 || length > MaxMessageLength {
		return 0, ErrInvalidMessage
	}

	return length, nil
}
