package protocol_test

import (
	"testing"

	"github.com/k64z/steamcm/protocol"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestProtoHeaderRoundTrip(t *testing.T) {
	sid := uint64(76561197960287930)
	hdr := &protocol.ProtoHeader{
		Steamid:         &sid,
		ClientSessionId: protocol.Int32(42),
		JobidTarget:     protocol.Uint64(0xFFFFFFFFFFFFFFFF),
		TargetJobName:   protocol.String("Authentication.GetAuthSessionInfo#1"),
		Eresult:         protocol.Int32(1),
	}

	data, err := hdr.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	got := &protocol.ProtoHeader{}
	if err := got.Unmarshal(data); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if got.GetSteamid() != sid {
		t.Errorf("Steamid: got %d, want %d", got.GetSteamid(), sid)
	}
	if got.GetClientSessionid() != 42 {
		t.Errorf("ClientSessionid: got %d, want 42", got.GetClientSessionid())
	}
	if got.GetJobidTarget() != 0xFFFFFFFFFFFFFFFF {
		t.Errorf("JobidTarget: got %x, want all-ones", got.GetJobidTarget())
	}
	if got.GetTargetJobName() != "Authentication.GetAuthSessionInfo#1" {
		t.Errorf("TargetJobName: got %q", got.GetTargetJobName())
	}
	if got.GetEresult() != 1 {
		t.Errorf("Eresult: got %d, want 1", got.GetEresult())
	}
}

func TestProtoHeaderEmpty(t *testing.T) {
	hdr := &protocol.ProtoHeader{}
	data, err := hdr.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("expected empty encoding, got %d bytes", len(data))
	}

	got := &protocol.ProtoHeader{}
	if err := got.Unmarshal(data); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.GetSteamid() != 0 || got.GetClientSessionid() != 0 {
		t.Errorf("expected zero-value header, got %+v", got)
	}
}

func TestProtoHeaderUnmarshalSkipsUnknownFields(t *testing.T) {
	var data []byte
	data = protowire.AppendTag(data, 1, protowire.Fixed64Type)
	data = protowire.AppendFixed64(data, 123)
	data = protowire.AppendTag(data, 99, protowire.VarintType) // unknown field
	data = protowire.AppendVarint(data, 0xDEAD)
	data = protowire.AppendTag(data, 2, protowire.VarintType)
	data = protowire.AppendVarint(data, 7)

	got := &protocol.ProtoHeader{}
	if err := got.Unmarshal(data); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.GetSteamid() != 123 || got.GetClientSessionid() != 7 {
		t.Errorf("got %+v", got)
	}
}
