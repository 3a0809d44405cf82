package steamclient

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"net"
	"testing"
)

// writeLegacy writes one VT01-framed legacy (20-byte header) message onto
// the raw pipe, mimicking what a real CM server would send.
func writeLegacy(t *testing.T, conn net.Conn, emsg EMsg, body []byte) {
	t.Helper()
	msg := make([]byte, legacyHdrLen+len(body))
	binary.LittleEndian.PutUint32(msg[0:4], uint32(emsg))
	binary.LittleEndian.PutUint64(msg[4:12], 0xFFFFFFFFFFFFFFFF)
	binary.LittleEndian.PutUint64(msg[12:20], 0xFFFFFFFFFFFFFFFF)
	copy(msg[legacyHdrLen:], body)

	hdr := make([]byte, 8)
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(len(msg)))
	binary.LittleEndian.PutUint32(hdr[4:8], tcpMagic)
	if _, err := conn.Write(hdr); err != nil {
		t.Fatalf("write frame header: %v", err)
	}
	if _, err := conn.Write(msg); err != nil {
		t.Fatalf("write frame body: %v", err)
	}
}

func readLegacyFrame(t *testing.T, conn net.Conn) (emsg EMsg, body []byte) {
	t.Helper()
	tc := &tcpConn{conn: conn, addr: "test"}
	data, err := tc.Read(context.Background())
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if len(data) < legacyHdrLen {
		t.Fatalf("frame too short: %d bytes", len(data))
	}
	return EMsg(binary.LittleEndian.Uint32(data[0:4])), data[legacyHdrLen:]
}

func TestHandshakeSucceedsWithoutChallenge(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	clientConn := &tcpConn{conn: client, addr: "test"}
	h := newHandshake(clientConn)

	done := make(chan error, 1)
	go func() { done <- h.run(context.Background()) }()

	// Server sends ChannelEncryptRequest with no challenge.
	reqBody := make([]byte, 8)
	binary.LittleEndian.PutUint32(reqBody[0:4], 1) // protocol version
	binary.LittleEndian.PutUint32(reqBody[4:8], 0) // universe
	writeLegacy(t, server, EMsgChannelEncryptRequest, reqBody)

	emsg, body := readLegacyFrame(t, server)
	if emsg != EMsgChannelEncryptResponse {
		t.Fatalf("expected ChannelEncryptResponse, got %s", emsg)
	}
	if len(body) < 8 {
		t.Fatalf("response body too short: %d bytes", len(body))
	}
	keySize := binary.LittleEndian.Uint32(body[4:8])
	encryptedBlob := body[8 : 8+keySize]
	crc := binary.LittleEndian.Uint32(body[8+keySize : 12+keySize])
	if crc != crc32.ChecksumIEEE(encryptedBlob) {
		t.Error("CRC32 mismatch on encrypted session key")
	}

	// Server confirms with ChannelEncryptResult eresult=1 (OK).
	resultBody := make([]byte, 4)
	binary.LittleEndian.PutUint32(resultBody, 1)
	writeLegacy(t, server, EMsgChannelEncryptResult, resultBody)

	if err := <-done; err != nil {
		t.Fatalf("handshake: %v", err)
	}
	if h.state != handshakeEncrypted {
		t.Errorf("state: got %s, want encrypted", h.state)
	}
	if clientConn.cipher == nil {
		t.Fatal("expected channel cipher to be installed")
	}
	if clientConn.cipher.useHMAC {
		t.Error("expected useHMAC=false when no challenge was issued")
	}
}

func TestHandshakeUsesHMACWhenChallengePresent(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	clientConn := &tcpConn{conn: client, addr: "test"}
	h := newHandshake(clientConn)

	done := make(chan error, 1)
	go func() { done <- h.run(context.Background()) }()

	reqBody := make([]byte, 24)
	binary.LittleEndian.PutUint32(reqBody[0:4], 1)
	binary.LittleEndian.PutUint32(reqBody[4:8], 0)
	challenge := make([]byte, 16)
	rand.Read(challenge)
	copy(reqBody[8:24], challenge)
	writeLegacy(t, server, EMsgChannelEncryptRequest, reqBody)

	readLegacyFrame(t, server) // ChannelEncryptResponse, already covered above

	resultBody := make([]byte, 4)
	binary.LittleEndian.PutUint32(resultBody, 1)
	writeLegacy(t, server, EMsgChannelEncryptResult, resultBody)

	if err := <-done; err != nil {
		t.Fatalf("handshake: %v", err)
	}
	if !clientConn.cipher.useHMAC {
		t.Error("expected useHMAC=true when a challenge was issued")
	}
}

func TestHandshakeRejectedResult(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	clientConn := &tcpConn{conn: client, addr: "test"}
	h := newHandshake(clientConn)

	done := make(chan error, 1)
	go func() { done <- h.run(context.Background()) }()

	reqBody := make([]byte, 8)
	writeLegacy(t, server, EMsgChannelEncryptRequest, reqBody)
	readLegacyFrame(t, server)

	resultBody := make([]byte, 4)
	binary.LittleEndian.PutUint32(resultBody, 5) // non-OK eresult
	writeLegacy(t, server, EMsgChannelEncryptResult, resultBody)

	err := <-done
	if err == nil {
		t.Fatal("expected handshake error")
	}
	var rejected *HandshakeRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected HandshakeRejectedError, got %T: %v", err, err)
	}
	if rejected.Code != 5 {
		t.Errorf("Code: got %d, want 5", rejected.Code)
	}
}

func TestHandshakeWrongFirstMessage(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	clientConn := &tcpConn{conn: client, addr: "test"}
	h := newHandshake(clientConn)

	done := make(chan error, 1)
	go func() { done <- h.run(context.Background()) }()

	writeLegacy(t, server, EMsgClientHeartBeat, nil)

	if err := <-done; err == nil {
		t.Fatal("expected error for unexpected first handshake message")
	}
}

