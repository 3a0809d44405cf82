package protocol_test

import (
	"bytes"
	"testing"

	"github.com/k64z/steamcm/protocol"
)

func TestClientLogonRoundTrip(t *testing.T) {
	machineID := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	msg := &protocol.ClientLogon{
		AccountName:            protocol.String("someuser"),
		AccessToken:            protocol.String("token"),
		ShouldRememberPassword: protocol.Bool(true),
		ProtocolVersion:        protocol.Uint32(65580),
		ClientOsType:           protocol.Uint32(20),
		ClientLanguage:         protocol.String("english"),
		MachineId:              machineID,
	}

	data, err := msg.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	got := &protocol.ClientLogon{}
	if err := got.Unmarshal(data); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if *got.AccountName != "someuser" || *got.AccessToken != "token" {
		t.Errorf("got %+v", got)
	}
	if !*got.ShouldRememberPassword {
		t.Error("ShouldRememberPassword: want true")
	}
	if *got.ProtocolVersion != 65580 || *got.ClientOsType != 20 {
		t.Errorf("got %+v", got)
	}
	if *got.ClientLanguage != "english" {
		t.Errorf("ClientLanguage: got %q", *got.ClientLanguage)
	}
	if !bytes.Equal(got.MachineId, machineID) {
		t.Errorf("MachineId: got %x, want %x", got.MachineId, machineID)
	}
}

func TestClientLogonResponseEresult(t *testing.T) {
	msg := &protocol.ClientLogonResponse{
		Eresult:          protocol.Int32(1),
		HeartbeatSeconds: protocol.Int32(30),
	}
	data, err := msg.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	got := &protocol.ClientLogonResponse{}
	if err := got.Unmarshal(data); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.GetEresult() != 1 {
		t.Errorf("Eresult: got %d, want 1", got.GetEresult())
	}
	if got.GetHeartbeatSeconds() != 30 {
		t.Errorf("HeartbeatSeconds: got %d, want 30", got.GetHeartbeatSeconds())
	}
}

func TestClientLogOffEmptyBody(t *testing.T) {
	data, err := (&protocol.ClientLogOff{}).Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("expected empty body, got %d bytes", len(data))
	}

	got := &protocol.ClientLogOff{}
	if err := got.Unmarshal(nil); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
}

func TestMultiRoundTrip(t *testing.T) {
	body := []byte("concatenated sub packets")
	msg := &protocol.Multi{
		MessageBody:  body,
		SizeUnzipped: protocol.Uint32(uint32(len(body))),
	}

	data, err := msg.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	got := &protocol.Multi{}
	if err := got.Unmarshal(data); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if !bytes.Equal(got.GetMessageBody(), body) {
		t.Errorf("MessageBody: got %q, want %q", got.GetMessageBody(), body)
	}
	if got.GetSizeUnzipped() != uint32(len(body)) {
		t.Errorf("SizeUnzipped: got %d, want %d", got.GetSizeUnzipped(), len(body))
	}
}

func TestMultiZeroSizeUnzipped(t *testing.T) {
	msg := &protocol.Multi{MessageBody: []byte("uncompressed")}
	data, err := msg.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	got := &protocol.Multi{}
	if err := got.Unmarshal(data); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.GetSizeUnzipped() != 0 {
		t.Errorf("SizeUnzipped: got %d, want 0", got.GetSizeUnzipped())
	}
}
