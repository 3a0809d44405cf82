// Package protocol implements the protobuf-carried messages exchanged on
// the Steam CM wire protocol.
//
// There is no protoc toolchain available to generate these from .proto
// sources, so each message is a hand-written struct with Marshal/Unmarshal
// methods built directly on google.golang.org/protobuf/encoding/protowire
// — the same module the rest of the stack depends on, one layer below the
// reflection-based proto.Marshal/proto.Unmarshal API. The wire format
// produced and consumed is ordinary protobuf: varint tags, length-delimited
// fields, fixed64 fields. Fields present on the wire but not modeled by the
// receiving struct are skipped (the normal protobuf forward-compatibility
// rule), not preserved — every field this package's own messages emit is
// modeled, so that never affects a round trip through this package alone.
package protocol

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// skipUnknown consumes and discards one field's value given its already-read
// tag, so decoders tolerate messages with extra fields they don't model.
func skipUnknown(b []byte, num protowire.Number, typ protowire.Type) ([]byte, error) {
	n := protowire.ConsumeFieldValue(num, typ, b)
	if n < 0 {
		return nil, fmt.Errorf("protocol: malformed field %d: %w", num, protowire.ParseError(n))
	}
	return b[n:], nil
}

func takeVarint(b []byte) (uint64, []byte, error) {
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, nil, fmt.Errorf("protocol: malformed varint: %w", protowire.ParseError(n))
	}
	return v, b[n:], nil
}

func takeFixed64(b []byte) (uint64, []byte, error) {
	v, n := protowire.ConsumeFixed64(b)
	if n < 0 {
		return 0, nil, fmt.Errorf("protocol: malformed fixed64: %w", protowire.ParseError(n))
	}
	return v, b[n:], nil
}

func takeBytes(b []byte) ([]byte, []byte, error) {
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, nil, fmt.Errorf("protocol: malformed length-delimited field: %w", protowire.ParseError(n))
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, b[n:], nil
}

func consumeTag(b []byte) (protowire.Number, protowire.Type, []byte, error) {
	num, typ, n := protowire.ConsumeTag(b)
	if n < 0 {
		return 0, 0, nil, fmt.Errorf("protocol: malformed tag: %w", protowire.ParseError(n))
	}
	return num, typ, b[n:], nil
}

func appendOptString(buf []byte, num protowire.Number, v *string) []byte {
	if v == nil {
		return buf
	}
	buf = protowire.AppendTag(buf, num, protowire.BytesType)
	return protowire.AppendString(buf, *v)
}

func appendOptBytes(buf []byte, num protowire.Number, v []byte) []byte {
	if v == nil {
		return buf
	}
	buf = protowire.AppendTag(buf, num, protowire.BytesType)
	return protowire.AppendBytes(buf, v)
}

func appendOptUint32(buf []byte, num protowire.Number, v *uint32) []byte {
	if v == nil {
		return buf
	}
	buf = protowire.AppendTag(buf, num, protowire.VarintType)
	return protowire.AppendVarint(buf, uint64(*v))
}

func appendOptInt32(buf []byte, num protowire.Number, v *int32) []byte {
	if v == nil {
		return buf
	}
	buf = protowire.AppendTag(buf, num, protowire.VarintType)
	return protowire.AppendVarint(buf, uint64(uint32(*v)))
}

func appendOptUint64(buf []byte, num protowire.Number, v *uint64) []byte {
	if v == nil {
		return buf
	}
	buf = protowire.AppendTag(buf, num, protowire.VarintType)
	return protowire.AppendVarint(buf, *v)
}

func appendOptFixed64(buf []byte, num protowire.Number, v *uint64) []byte {
	if v == nil {
		return buf
	}
	buf = protowire.AppendTag(buf, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(buf, *v)
}

func appendOptBool(buf []byte, num protowire.Number, v *bool) []byte {
	if v == nil {
		return buf
	}
	buf = protowire.AppendTag(buf, num, protowire.VarintType)
	val := uint64(0)
	if *v {
		val = 1
	}
	return protowire.AppendVarint(buf, val)
}

// Bool, Uint32, Int32, Uint64, String mirror protoc-gen-go's
// proto.Bool/proto.Uint32/etc. helpers for building optional scalar
// pointer fields inline.
func Bool(v bool) *bool       { return &v }
func Uint32(v uint32) *uint32 { return &v }
func Int32(v int32) *int32    { return &v }
func Uint64(v uint64) *uint64 { return &v }
func String(v string) *string { return &v }
