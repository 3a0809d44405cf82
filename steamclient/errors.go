package steamclient

import (
	"errors"
	"fmt"
)

// Sentinel errors returned (wrapped via fmt.Errorf("%w", ...)) by the
// client's public API. Use errors.Is to test for these.
var (
	ErrConnectFailed = errors.New("steamclient: failed to connect to any CM server")
	ErrNotConnected  = errors.New("steamclient: not connected")
	ErrDisconnected  = errors.New("steamclient: disconnected")
	ErrTimeout       = errors.New("steamclient: timed out waiting for response")

	// ErrProtocol classifies malformed wire data: bad lengths, bad magic,
	// truncated frames, unparsable packet headers.
	ErrProtocol = errors.New("steamclient: protocol error")
	// ErrIntegrity classifies data that decoded structurally but failed a
	// cryptographic check (HMAC mismatch, bad padding, CRC mismatch).
	ErrIntegrity = errors.New("steamclient: integrity check failed")
)

// HandshakeRejectedError is returned when the server completes the
// ChannelEncryptResult step with a non-OK result code.
type HandshakeRejectedError struct {
	Code uint32
}

func (e *HandshakeRejectedError) Error() string {
	return fmt.Sprintf("steamclient: encryption handshake rejected, eresult %d", e.Code)
}

// ProtocolError reports a malformed packet, with the EMsg (if known) that
// was being decoded when the problem was found.
type ProtocolError struct {
	EMsg EMsg
	Msg  string
}

func (e *ProtocolError) Error() string {
	if e.EMsg != 0 {
		return fmt.Sprintf("steamclient: protocol error decoding %s: %s", e.EMsg, e.Msg)
	}
	return fmt.Sprintf("steamclient: protocol error: %s", e.Msg)
}

func (e *ProtocolError) Unwrap() error { return ErrProtocol }

// IntegrityError reports a cryptographic verification failure on a
// received frame.
type IntegrityError struct {
	Msg string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("steamclient: integrity error: %s", e.Msg)
}

func (e *IntegrityError) Unwrap() error { return ErrIntegrity }

// DecodeError reports a failure to decode a protobuf-carried message body
// into its Go struct (as opposed to the outer packet framing).
type DecodeError struct {
	EMsg EMsg
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("steamclient: failed to decode %s body: %v", e.EMsg, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
