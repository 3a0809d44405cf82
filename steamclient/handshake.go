package steamclient

import (
	"context"
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// handshakeState tracks progress through the TCP channel encryption
// handshake. The wire exchange is strictly sequential, so modeling it as an
// explicit state machine (rather than a single straight-line function)
// makes illegal transitions — e.g. trying to send application data before
// ChannelEncryptResult arrives — a programming error the type itself rules
// out, and gives tests a seam to drive each step independently.
type handshakeState int

const (
	handshakeUnconnected handshakeState = iota
	handshakeAwaitingEncryptRequest
	handshakeAwaitingEncryptResult
	handshakeEncrypted
)

func (s handshakeState) String() string {
	switch s {
	case handshakeUnconnected:
		return "unconnected"
	case handshakeAwaitingEncryptRequest:
		return "awaiting-encrypt-request"
	case handshakeAwaitingEncryptResult:
		return "awaiting-encrypt-result"
	case handshakeEncrypted:
		return "encrypted"
	default:
		return fmt.Sprintf("handshakeState(%d)", int(s))
	}
}

// handshake drives the encryption handshake over an already-dialed tcpConn.
//
// Steps:
//  1. unconnected -> awaiting-encrypt-request: nothing to do, socket is open
//     (newHandshake starts in awaiting-encrypt-request).
//  2. Receive ChannelEncryptRequest (1303): protocol_version, universe, and
//     an optional 16-byte challenge -> awaiting-encrypt-result.
//  3. Generate a 32-byte session key, RSA-OAEP encrypt it (with the
//     challenge appended when present) against Steam's public key, and send
//     ChannelEncryptResponse (1304): protocol_version, key_size, the
//     encrypted blob, and its CRC32.
//  4. Receive ChannelEncryptResult (1305) and check eresult == 1 ->
//     encrypted. The cipher uses HMAC-bound IVs exactly when the server
//     issued a challenge.
//
// Handshake messages use the 20-byte legacy header (legacyHdrLen), the only
// header shape the CM protocol defines for them.
type handshake struct {
	conn  *tcpConn
	state handshakeState
}

func newHandshake(conn *tcpConn) *handshake {
	return &handshake{conn: conn, state: handshakeAwaitingEncryptRequest}
}

func (h *handshake) run(ctx context.Context) error {
	if h.state != handshakeAwaitingEncryptRequest {
		return fmt.Errorf("steamclient: handshake already in state %s", h.state)
	}

	challenge, err := h.recvEncryptRequest(ctx)
	if err != nil {
		return err
	}

	sessionKey, err := h.sendEncryptResponse(ctx, challenge)
	if err != nil {
		return err
	}

	if err := h.recvEncryptResult(ctx); err != nil {
		return err
	}

	cipher, err := newChannelCipher(sessionKey, challenge != nil)
	if err != nil {
		return fmt.Errorf("init channel cipher: %w", err)
	}
	h.conn.setCipher(cipher)
	h.state = handshakeEncrypted
	return nil
}

func (h *handshake) recvEncryptRequest(ctx context.Context) (challenge []byte, err error) {
	data, err := h.conn.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("read ChannelEncryptRequest: %w", err)
	}
	if len(data) < legacyHdrLen+8 {
		return nil, &ProtocolError{EMsg: EMsgChannelEncryptRequest, Msg: fmt.Sprintf("request too short: %d bytes", len(data))}
	}

	emsg := EMsg(binary.LittleEndian.Uint32(data[0:4]))
	if emsg != EMsgChannelEncryptRequest {
		return nil, &ProtocolError{EMsg: emsg, Msg: "expected ChannelEncryptRequest"}
	}

	body := data[legacyHdrLen:]
	if len(body) >= 24 {
		challenge = body[8:24]
	}

	h.state = handshakeAwaitingEncryptResult
	return challenge, nil
}

func (h *handshake) sendEncryptResponse(ctx context.Context, challenge []byte) (sessionKey []byte, err error) {
	sessionKey, encryptedBlob, err := generateSessionKey(challenge)
	if err != nil {
		return nil, fmt.Errorf("generate session key: %w", err)
	}

	keyCRC := crc32.ChecksumIEEE(encryptedBlob)

	buf := make([]byte, 0, legacyHdrLen+8+len(encryptedBlob)+8)
	resp := binary.LittleEndian.AppendUint32(buf, uint32(EMsgChannelEncryptResponse))
	resp = binary.LittleEndian.AppendUint64(resp, 0xFFFFFFFFFFFFFFFF) // target job id
	resp = binary.LittleEndian.AppendUint64(resp, 0xFFFFFFFFFFFFFFFF) // source job id
	resp = binary.LittleEndian.AppendUint32(resp, 1)                  // protocol version
	resp = binary.LittleEndian.AppendUint32(resp, 128)                // key size
	resp = append(resp, encryptedBlob...)
	resp = binary.LittleEndian.AppendUint32(resp, keyCRC)
	resp = binary.LittleEndian.AppendUint32(resp, 0) // trailing zero

	if err := h.conn.Write(ctx, resp); err != nil {
		return nil, fmt.Errorf("send ChannelEncryptResponse: %w", err)
	}
	return sessionKey, nil
}

func (h *handshake) recvEncryptResult(ctx context.Context) error {
	data, err := h.conn.Read(ctx)
	if err != nil {
		return fmt.Errorf("read ChannelEncryptResult: %w", err)
	}
	if len(data) < legacyHdrLen+4 {
		return &ProtocolError{EMsg: EMsgChannelEncryptResult, Msg: fmt.Sprintf("result too short: %d bytes", len(data))}
	}

	emsg := EMsg(binary.LittleEndian.Uint32(data[0:4]))
	if emsg != EMsgChannelEncryptResult {
		return &ProtocolError{EMsg: emsg, Msg: "expected ChannelEncryptResult"}
	}

	eresult := binary.LittleEndian.Uint32(data[legacyHdrLen : legacyHdrLen+4])
	if eresult != 1 {
		return &HandshakeRejectedError{Code: eresult}
	}
	return nil
}
