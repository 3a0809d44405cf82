package steamclient

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"
)

const tcpMagic = 0x31305456 // "VT01"

// tcpConn implements Connection over raw TCP with VT01 framing.
type tcpConn struct {
	conn   net.Conn
	cipher *channelCipher
	mu     sync.Mutex // serializes writes
	addr   string
}

func dialTCP(ctx context.Context, addr string) (*tcpConn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("tcp dial %s: %w", addr, err)
	}
	return &tcpConn{conn: conn, addr: addr}, nil
}

// Write sends data with VT01 framing. If encrypted, encrypts first.
// TCP frame: [payload_len : uint32 LE][magic "VT01" : uint32 LE][payload]
func (t *tcpConn) Write(ctx context.Context, data []byte) error {
	payload := data
	if t.cipher != nil {
		var err error
		payload, err = t.cipher.encrypt(data)
		if err != nil {
			return fmt.Errorf("encrypt: %w", err)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	hdr := make([]byte, 8)
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(len(payload)))
	binary.LittleEndian.PutUint32(hdr[4:8], tcpMagic)

	if _, err := t.conn.Write(hdr); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := t.conn.Write(payload); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}
	return nil
}

// Read reads one VT01-framed message. If encrypted, decrypts.
func (t *tcpConn) Read(ctx context.Context) ([]byte, error) {
	var hdr [8]byte
	if _, err := io.ReadFull(t.conn, hdr[:]); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	payloadLen := binary.LittleEndian.Uint32(hdr[0:4])
	magic := binary.LittleEndian.Uint32(hdr[4:8])
	if magic != tcpMagic {
		return nil, &ProtocolError{Msg: fmt.Sprintf("invalid frame magic: 0x%08X", magic)}
	}

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(t.conn, payload); err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}

	if t.cipher != nil {
		decrypted, err := t.cipher.decrypt(payload)
		if err != nil {
			return nil, fmt.Errorf("decrypt: %w", err)
		}
		return decrypted, nil
	}

	return payload, nil
}

func (t *tcpConn) Close() error {
	return t.conn.Close()
}

func (t *tcpConn) RemoteAddr() string {
	return t.addr
}

// setCipher installs the channel cipher negotiated by the encryption
// handshake (see handshake.go). Reads/writes before this call are
// plaintext, matching the handshake's own unencrypted exchange.
func (t *tcpConn) setCipher(c *channelCipher) {
	t.cipher = c
}
