package protocol

import "google.golang.org/protobuf/encoding/protowire"

// ClientHello is CMsgClientHello, the first protobuf message sent after the
// encryption handshake completes.
type ClientHello struct {
	ProtocolVersion *uint32
}

func (m *ClientHello) Marshal() ([]byte, error) {
	var buf []byte
	buf = appendOptUint32(buf, 1, m.ProtocolVersion)
	return buf, nil
}

func (m *ClientHello) Unmarshal(data []byte) error {
	*m = ClientHello{}
	return forEachField(data, func(num protowire.Number, typ protowire.Type, b []byte) ([]byte, error) {
		if num == 1 {
			v, rest, err := takeVarint(b)
			if err != nil {
				return nil, err
			}
			u := uint32(v)
			m.ProtocolVersion = &u
			return rest, nil
		}
		return skipUnknown(b, num, typ)
	})
}

// ClientLogon is CMsgClientLogon.
type ClientLogon struct {
	AccountName            *string
	AccessToken            *string
	ShouldRememberPassword *bool
	ProtocolVersion        *uint32
	ClientOsType           *uint32
	ClientLanguage         *string
	MachineId              []byte
}

func (m *ClientLogon) Marshal() ([]byte, error) {
	var buf []byte
	buf = appendOptString(buf, 1, m.AccountName)
	buf = appendOptString(buf, 2, m.AccessToken)
	buf = appendOptBool(buf, 3, m.ShouldRememberPassword)
	buf = appendOptUint32(buf, 4, m.ProtocolVersion)
	buf = appendOptUint32(buf, 5, m.ClientOsType)
	buf = appendOptString(buf, 6, m.ClientLanguage)
	buf = appendOptBytes(buf, 7, m.MachineId)
	return buf, nil
}

func (m *ClientLogon) Unmarshal(data []byte) error {
	*m = ClientLogon{}
	return forEachField(data, func(num protowire.Number, typ protowire.Type, b []byte) ([]byte, error) {
		switch num {
		case 1:
			v, rest, err := takeBytes(b)
			if err != nil {
				return nil, err
			}
			s := string(v)
			m.AccountName = &s
			return rest, nil
		case 2:
			v, rest, err := takeBytes(b)
			if err != nil {
				return nil, err
			}
			s := string(v)
			m.AccessToken = &s
			return rest, nil
		case 3:
			v, rest, err := takeVarint(b)
			if err != nil {
				return nil, err
			}
			bv := v != 0
			m.ShouldRememberPassword = &bv
			return rest, nil
		case 4:
			v, rest, err := takeVarint(b)
			if err != nil {
				return nil, err
			}
			u := uint32(v)
			m.ProtocolVersion = &u
			return rest, nil
		case 5:
			v, rest, err := takeVarint(b)
			if err != nil {
				return nil, err
			}
			u := uint32(v)
			m.ClientOsType = &u
			return rest, nil
		case 6:
			v, rest, err := takeBytes(b)
			if err != nil {
				return nil, err
			}
			s := string(v)
			m.ClientLanguage = &s
			return rest, nil
		case 7:
			v, rest, err := takeBytes(b)
			if err != nil {
				return nil, err
			}
			m.MachineId = v
			return rest, nil
		default:
			return skipUnknown(b, num, typ)
		}
	})
}

// ClientLogonResponse is CMsgClientLogonResponse.
type ClientLogonResponse struct {
	Eresult          *int32
	HeartbeatSeconds *int32
}

func (m *ClientLogonResponse) GetEresult() int32 {
	if m == nil || m.Eresult == nil {
		return 0
	}
	return *m.Eresult
}

func (m *ClientLogonResponse) GetHeartbeatSeconds() int32 {
	if m == nil || m.HeartbeatSeconds == nil {
		return 0
	}
	return *m.HeartbeatSeconds
}

func (m *ClientLogonResponse) Marshal() ([]byte, error) {
	var buf []byte
	buf = appendOptInt32(buf, 1, m.Eresult)
	buf = appendOptInt32(buf, 2, m.HeartbeatSeconds)
	return buf, nil
}

func (m *ClientLogonResponse) Unmarshal(data []byte) error {
	*m = ClientLogonResponse{}
	return forEachField(data, func(num protowire.Number, typ protowire.Type, b []byte) ([]byte, error) {
		switch num {
		case 1:
			v, rest, err := takeVarint(b)
			if err != nil {
				return nil, err
			}
			i := int32(v)
			m.Eresult = &i
			return rest, nil
		case 2:
			v, rest, err := takeVarint(b)
			if err != nil {
				return nil, err
			}
			i := int32(v)
			m.HeartbeatSeconds = &i
			return rest, nil
		default:
			return skipUnknown(b, num, typ)
		}
	})
}

// ClientLogOff is CMsgClientLogOff (empty body on the wire).
type ClientLogOff struct{}

func (m *ClientLogOff) Marshal() ([]byte, error) { return nil, nil }
func (m *ClientLogOff) Unmarshal(data []byte) error {
	return forEachField(data, func(num protowire.Number, typ protowire.Type, b []byte) ([]byte, error) {
		return skipUnknown(b, num, typ)
	})
}

// ClientLoggedOff is CMsgClientLoggedOff, sent by the server when it closes
// a session.
type ClientLoggedOff struct {
	Eresult *int32
}

func (m *ClientLoggedOff) GetEresult() int32 {
	if m == nil || m.Eresult == nil {
		return 0
	}
	return *m.Eresult
}

func (m *ClientLoggedOff) Marshal() ([]byte, error) {
	var buf []byte
	buf = appendOptInt32(buf, 1, m.Eresult)
	return buf, nil
}

func (m *ClientLoggedOff) Unmarshal(data []byte) error {
	*m = ClientLoggedOff{}
	return forEachField(data, func(num protowire.Number, typ protowire.Type, b []byte) ([]byte, error) {
		if num == 1 {
			v, rest, err := takeVarint(b)
			if err != nil {
				return nil, err
			}
			i := int32(v)
			m.Eresult = &i
			return rest, nil
		}
		return skipUnknown(b, num, typ)
	})
}

// ClientHeartBeat is CMsgClientHeartBeat (empty body on the wire).
type ClientHeartBeat struct{}

func (m *ClientHeartBeat) Marshal() ([]byte, error) { return nil, nil }
func (m *ClientHeartBeat) Unmarshal(data []byte) error {
	return forEachField(data, func(num protowire.Number, typ protowire.Type, b []byte) ([]byte, error) {
		return skipUnknown(b, num, typ)
	})
}

// Multi is CMsgMulti, the batched-envelope message.
type Multi struct {
	MessageBody  []byte
	SizeUnzipped *uint32
}

func (m *Multi) GetMessageBody() []byte {
	if m == nil {
		return nil
	}
	return m.MessageBody
}

func (m *Multi) GetSizeUnzipped() uint32 {
	if m == nil || m.SizeUnzipped == nil {
		return 0
	}
	return *m.SizeUnzipped
}

func (m *Multi) Marshal() ([]byte, error) {
	var buf []byte
	buf = appendOptBytes(buf, 1, m.MessageBody)
	buf = appendOptUint32(buf, 2, m.SizeUnzipped)
	return buf, nil
}

func (m *Multi) Unmarshal(data []byte) error {
	*m = Multi{}
	return forEachField(data, func(num protowire.Number, typ protowire.Type, b []byte) ([]byte, error) {
		switch num {
		case 1:
			v, rest, err := takeBytes(b)
			if err != nil {
				return nil, err
			}
			m.MessageBody = v
			return rest, nil
		case 2:
			v, rest, err := takeVarint(b)
			if err != nil {
				return nil, err
			}
			u := uint32(v)
			m.SizeUnzipped = &u
			return rest, nil
		default:
			return skipUnknown(b, num, typ)
		}
	})
}

// forEachField walks a protobuf-encoded message, dispatching each field to
// fn. fn must consume (and return the remainder of) the value for the tag
// it was given; unrecognized tags should be passed to skipUnknown.
func forEachField(data []byte, fn func(num protowire.Number, typ protowire.Type, b []byte) ([]byte, error)) error {
	b := data
	for len(b) > 0 {
		num, typ, rest, err := consumeTag(b)
		if err != nil {
			return err
		}
		b, err = fn(num, typ, rest)
		if err != nil {
			return err
		}
	}
	return nil
}
