package protocol

import "google.golang.org/protobuf/encoding/protowire"

// PICSProductInfoRequestApp is one entry of CMsgClientPICSProductInfoRequest.apps.
type PICSProductInfoRequestApp struct {
	AppId       *uint32
	AccessToken *uint64
}

func (m *PICSProductInfoRequestApp) marshal() []byte {
	var buf []byte
	buf = appendOptUint32(buf, 1, m.AppId)
	buf = appendOptUint64(buf, 2, m.AccessToken)
	return buf
}

func (m *PICSProductInfoRequestApp) unmarshal(data []byte) error {
	return forEachField(data, func(num protowire.Number, typ protowire.Type, b []byte) ([]byte, error) {
		switch num {
		case 1:
			v, rest, err := takeVarint(b)
			if err != nil {
				return nil, err
			}
			u := uint32(v)
			m.AppId = &u
			return rest, nil
		case 2:
			v, rest, err := takeVarint(b)
			if err != nil {
				return nil, err
			}
			m.AccessToken = &v
			return rest, nil
		default:
			return skipUnknown(b, num, typ)
		}
	})
}

// PICSProductInfoRequest is CMsgClientPICSProductInfoRequest.
type PICSProductInfoRequest struct {
	Apps []*PICSProductInfoRequestApp
}

func (m *PICSProductInfoRequest) Marshal() ([]byte, error) {
	var buf []byte
	for _, app := range m.Apps {
		b := app.marshal()
		buf = protowire.AppendTag(buf, 1, protowire.BytesType)
		buf = protowire.AppendBytes(buf, b)
	}
	return buf, nil
}

func (m *PICSProductInfoRequest) Unmarshal(data []byte) error {
	*m = PICSProductInfoRequest{}
	return forEachField(data, func(num protowire.Number, typ protowire.Type, b []byte) ([]byte, error) {
		if num == 1 {
			v, rest, err := takeBytes(b)
			if err != nil {
				return nil, err
			}
			app := &PICSProductInfoRequestApp{}
			if err := app.unmarshal(v); err != nil {
				return nil, err
			}
			m.Apps = append(m.Apps, app)
			return rest, nil
		}
		return skipUnknown(b, num, typ)
	})
}

// PICSProductInfoResponseApp is one entry of
// CMsgClientPICSProductInfoResponse.apps. Buffer carries the raw VDF text
// for the app, uninterpreted — VDF parsing is out of core scope.
type PICSProductInfoResponseApp struct {
	AppId  *uint32
	Buffer []byte
}

func (m *PICSProductInfoResponseApp) GetAppId() uint32 {
	if m == nil || m.AppId == nil {
		return 0
	}
	return *m.AppId
}

func (m *PICSProductInfoResponseApp) unmarshal(data []byte) error {
	return forEachField(data, func(num protowire.Number, typ protowire.Type, b []byte) ([]byte, error) {
		switch num {
		case 1:
			v, rest, err := takeVarint(b)
			if err != nil {
				return nil, err
			}
			u := uint32(v)
			m.AppId = &u
			return rest, nil
		case 2:
			v, rest, err := takeBytes(b)
			if err != nil {
				return nil, err
			}
			m.Buffer = v
			return rest, nil
		default:
			return skipUnknown(b, num, typ)
		}
	})
}

// PICSProductInfoResponse is CMsgClientPICSProductInfoResponse.
type PICSProductInfoResponse struct {
	Apps []*PICSProductInfoResponseApp
}

func (m *PICSProductInfoResponse) Unmarshal(data []byte) error {
	*m = PICSProductInfoResponse{}
	return forEachField(data, func(num protowire.Number, typ protowire.Type, b []byte) ([]byte, error) {
		if num == 1 {
			v, rest, err := takeBytes(b)
			if err != nil {
				return nil, err
			}
			app := &PICSProductInfoResponseApp{}
			if err := app.unmarshal(v); err != nil {
				return nil, err
			}
			m.Apps = append(m.Apps, app)
			return rest, nil
		}
		return skipUnknown(b, num, typ)
	})
}

// PICSAccessTokenRequest is CMsgClientPICSAccessTokenRequest.
type PICSAccessTokenRequest struct {
	AppIds []uint32
}

func (m *PICSAccessTokenRequest) Marshal() ([]byte, error) {
	var buf []byte
	for _, id := range m.AppIds {
		buf = protowire.AppendTag(buf, 1, protowire.VarintType)
		buf = protowire.AppendVarint(buf, uint64(id))
	}
	return buf, nil
}

func (m *PICSAccessTokenRequest) Unmarshal(data []byte) error {
	*m = PICSAccessTokenRequest{}
	return forEachField(data, func(num protowire.Number, typ protowire.Type, b []byte) ([]byte, error) {
		if num == 1 {
			v, rest, err := takeVarint(b)
			if err != nil {
				return nil, err
			}
			m.AppIds = append(m.AppIds, uint32(v))
			return rest, nil
		}
		return skipUnknown(b, num, typ)
	})
}

// PICSAccessTokenResponseAppToken is one entry of
// CMsgClientPICSAccessTokenResponse.app_access_tokens.
type PICSAccessTokenResponseAppToken struct {
	AppId       *uint32
	AccessToken *uint64
}

func (m *PICSAccessTokenResponseAppToken) GetAppId() uint32 {
	if m == nil || m.AppId == nil {
		return 0
	}
	return *m.AppId
}

func (m *PICSAccessTokenResponseAppToken) GetAccessToken() uint64 {
	if m == nil || m.AccessToken == nil {
		return 0
	}
	return *m.AccessToken
}

func (m *PICSAccessTokenResponseAppToken) unmarshal(data []byte) error {
	return forEachField(data, func(num protowire.Number, typ protowire.Type, b []byte) ([]byte, error) {
		switch num {
		case 1:
			v, rest, err := takeVarint(b)
			if err != nil {
				return nil, err
			}
			u := uint32(v)
			m.AppId = &u
			return rest, nil
		case 2:
			v, rest, err := takeVarint(b)
			if err != nil {
				return nil, err
			}
			m.AccessToken = &v
			return rest, nil
		default:
			return skipUnknown(b, num, typ)
		}
	})
}

// PICSAccessTokenResponse is CMsgClientPICSAccessTokenResponse.
type PICSAccessTokenResponse struct {
	AppAccessTokens []*PICSAccessTokenResponseAppToken
}

func (m *PICSAccessTokenResponse) Unmarshal(data []byte) error {
	*m = PICSAccessTokenResponse{}
	return forEachField(data, func(num protowire.Number, typ protowire.Type, b []byte) ([]byte, error) {
		if num == 1 {
			v, rest, err := takeBytes(b)
			if err != nil {
				return nil, err
			}
			tok := &PICSAccessTokenResponseAppToken{}
			if err := tok.unmarshal(v); err != nil {
				return nil, err
			}
			m.AppAccessTokens = append(m.AppAccessTokens, tok)
			return rest, nil
		}
		return skipUnknown(b, num, typ)
	})
}
