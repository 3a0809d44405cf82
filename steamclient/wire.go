package steamclient

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/k64z/steamcm/protocol"
)

// legacyHdrLen is the size of the fixed, non-protobuf message header used
// before and during the encryption handshake: emsg(4) + target_job_id(8) +
// source_job_id(8) = 20 bytes. SteamKit2-derived clients historically grew
// this to 36 bytes by tacking on a steamid/session_id/canary tail for
// ordinary (post-handshake) legacy messages, but the CM protocol itself
// never requires that extension — the 20-byte MsgHdr is the only legacy
// header shape the protocol defines, and it is what the handshake already
// uses on the wire.
const legacyHdrLen = 20

// Packet represents a decoded Steam CM message.
type Packet struct {
	EMsg    EMsg
	IsProto bool
	Header  *protocol.ProtoHeader
	Body    []byte // raw serialized protobuf body
}

// encodePacket serializes a Packet to the CM wire format.
//
// Protobuf wire format:
//
//	[EMsg | 0x80000000 : uint32 LE][header_len : uint32 LE][ProtoHeader][body]
//
// Legacy (non-protobuf) wire format, used only for the encryption handshake:
//
//	[EMsg : uint32 LE][target_job_id : uint64 LE][source_job_id : uint64 LE][body]
func encodePacket(p *Packet) ([]byte, error) {
	if p.IsProto {
		return encodeProtoPacket(p)
	}
	return encodeLegacyPacket(p)
}

func encodeProtoPacket(p *Packet) ([]byte, error) {
	hdr := p.Header
	if hdr == nil {
		hdr = &protocol.ProtoHeader{}
	}

	hdrBytes, err := hdr.Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshal header: %w", err)
	}

	buf := make([]byte, 4+4+len(hdrBytes)+len(p.Body))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(p.EMsg)|ProtoMask)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(hdrBytes)))
	copy(buf[8:], hdrBytes)
	copy(buf[8+len(hdrBytes):], p.Body)
	return buf, nil
}

func encodeLegacyPacket(p *Packet) ([]byte, error) {
	var targetJobID, sourceJobID uint64 = 0xFFFFFFFFFFFFFFFF, 0xFFFFFFFFFFFFFFFF
	if p.Header != nil {
		if j := p.Header.GetJobidTarget(); j != 0 {
			targetJobID = j
		}
		if j := p.Header.GetJobidSource(); j != 0 {
			sourceJobID = j
		}
	}

	buf := make([]byte, legacyHdrLen+len(p.Body))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(p.EMsg))
	binary.LittleEndian.PutUint64(buf[4:12], targetJobID)
	binary.LittleEndian.PutUint64(buf[12:20], sourceJobID)
	copy(buf[legacyHdrLen:], p.Body)
	return buf, nil
}

// decodePacket deserializes raw CM wire bytes into a Packet.
func decodePacket(data []byte) (*Packet, error) {
	if len(data) < 4 {
		return nil, &ProtocolError{Msg: fmt.Sprintf("packet too short: %d bytes", len(data))}
	}

	rawEMsg := binary.LittleEndian.Uint32(data[0:4])
	isProto := rawEMsg&ProtoMask != 0
	emsg := EMsg(rawEMsg &^ ProtoMask)

	if isProto {
		return decodeProtoPacket(emsg, data)
	}
	return decodeLegacyPacket(emsg, data)
}

func decodeProtoPacket(emsg EMsg, data []byte) (*Packet, error) {
	if len(data) < 8 {
		return nil, &ProtocolError{EMsg: emsg, Msg: fmt.Sprintf("proto packet too short for header length: %d bytes", len(data))}
	}

	hdrLen := binary.LittleEndian.Uint32(data[4:8])
	if uint32(len(data)) < 8+hdrLen {
		return nil, &ProtocolError{EMsg: emsg, Msg: fmt.Sprintf("proto packet truncated: need %d header bytes, have %d", hdrLen, len(data)-8)}
	}

	hdr := &protocol.ProtoHeader{}
	if err := hdr.Unmarshal(data[8 : 8+hdrLen]); err != nil {
		return nil, &DecodeError{EMsg: emsg, Err: fmt.Errorf("header: %w", err)}
	}

	return &Packet{
		EMsg:    emsg,
		IsProto: true,
		Header:  hdr,
		Body:    data[8+hdrLen:],
	}, nil
}

func decodeLegacyPacket(emsg EMsg, data []byte) (*Packet, error) {
	if len(data) < legacyHdrLen {
		return nil, &ProtocolError{EMsg: emsg, Msg: fmt.Sprintf("legacy packet too short: %d bytes", len(data))}
	}

	targetJobID := binary.LittleEndian.Uint64(data[4:12])
	sourceJobID := binary.LittleEndian.Uint64(data[12:20])

	hdr := &protocol.ProtoHeader{
		JobidTarget: &targetJobID,
		JobidSource: &sourceJobID,
	}

	return &Packet{
		EMsg:    emsg,
		IsProto: false,
		Header:  hdr,
		Body:    data[legacyHdrLen:],
	}, nil
}

// unpackMulti handles EMsgMulti: decompresses the body (gzip, or zip when
// message_body starts with the "PK" magic — CM servers use zip for larger
// batches) when size_unzipped is set, then splits the concatenated
// [uint32 LE size][message] entries into individual packets.
func unpackMulti(multi *protocol.Multi) ([]*Packet, error) {
	body := multi.GetMessageBody()
	var reader io.Reader = bytes.NewReader(body)

	if multi.GetSizeUnzipped() > 0 {
		if bytes.HasPrefix(body, []byte("PK")) {
			zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
			if err != nil {
				return nil, fmt.Errorf("%w: open zip multi: %v", ErrProtocol, err)
			}
			if len(zr.File) == 0 {
				return nil, fmt.Errorf("%w: zip multi contains no entries", ErrProtocol)
			}
			f, err := zr.File[0].Open()
			if err != nil {
				return nil, fmt.Errorf("%w: open zip multi entry: %v", ErrProtocol, err)
			}
			defer f.Close()
			reader = f
		} else {
			gz, err := gzip.NewReader(bytes.NewReader(body))
			if err != nil {
				return nil, fmt.Errorf("%w: open gzip multi: %v", ErrProtocol, err)
			}
			defer gz.Close()
			reader = gz
		}
	}

	var packets []*Packet
	var sizeBuf [4]byte

	for {
		_, err := io.ReadFull(reader, sizeBuf[:])
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read sub-message size: %v", ErrProtocol, err)
		}

		subSize := binary.LittleEndian.Uint32(sizeBuf[:])
		subData := make([]byte, subSize)
		if _, err := io.ReadFull(reader, subData); err != nil {
			return nil, fmt.Errorf("%w: read sub-message body: %v", ErrProtocol, err)
		}

		pkt, err := decodePacket(subData)
		if err != nil {
			return nil, fmt.Errorf("decode sub-message: %w", err)
		}
		packets = append(packets, pkt)
	}

	return packets, nil
}
