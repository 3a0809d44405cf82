package protocol

import "google.golang.org/protobuf/encoding/protowire"

// ProtoHeader is CMsgProtoBufHeader: the header attached to every
// protobuf-carried CM message. Per spec, the core only reads/writes
// Steamid and ClientSessionId; the remaining fields (job correlation,
// routing, eresult) are opaque to the core and simply passed through to
// service adapters.
type ProtoHeader struct {
	Steamid         *uint64
	ClientSessionId *int32
	JobidSource     *uint64
	JobidTarget     *uint64
	TargetJobName   *string
	Eresult         *int32
}

const (
	hdrFieldSteamid         protowire.Number = 1
	hdrFieldClientSessionId protowire.Number = 2
	hdrFieldJobidSource     protowire.Number = 3
	hdrFieldJobidTarget     protowire.Number = 4
	hdrFieldTargetJobName   protowire.Number = 5
	hdrFieldEresult         protowire.Number = 6
)

// GetSteamid returns the steam id, or 0 if unset.
func (h *ProtoHeader) GetSteamid() uint64 {
	if h == nil || h.Steamid == nil {
		return 0
	}
	return *h.Steamid
}

// GetClientSessionid returns the client session id, or 0 if unset.
func (h *ProtoHeader) GetClientSessionid() int32 {
	if h == nil || h.ClientSessionId == nil {
		return 0
	}
	return *h.ClientSessionId
}

// GetJobidSource returns the source job id, or 0 if unset.
func (h *ProtoHeader) GetJobidSource() uint64 {
	if h == nil || h.JobidSource == nil {
		return 0
	}
	return *h.JobidSource
}

// GetJobidTarget returns the target job id, or 0 if unset.
func (h *ProtoHeader) GetJobidTarget() uint64 {
	if h == nil || h.JobidTarget == nil {
		return 0
	}
	return *h.JobidTarget
}

// GetTargetJobName returns the target service-method name, or "" if unset.
func (h *ProtoHeader) GetTargetJobName() string {
	if h == nil || h.TargetJobName == nil {
		return ""
	}
	return *h.TargetJobName
}

// GetEresult returns the result code, or 0 if unset.
func (h *ProtoHeader) GetEresult() int32 {
	if h == nil || h.Eresult == nil {
		return 0
	}
	return *h.Eresult
}

// Marshal encodes the header to protobuf wire bytes.
func (h *ProtoHeader) Marshal() ([]byte, error) {
	if h == nil {
		return nil, nil
	}
	var buf []byte
	buf = appendOptFixed64(buf, hdrFieldSteamid, h.Steamid)
	buf = appendOptInt32(buf, hdrFieldClientSessionId, h.ClientSessionId)
	buf = appendOptFixed64(buf, hdrFieldJobidSource, h.JobidSource)
	buf = appendOptFixed64(buf, hdrFieldJobidTarget, h.JobidTarget)
	buf = appendOptString(buf, hdrFieldTargetJobName, h.TargetJobName)
	buf = appendOptInt32(buf, hdrFieldEresult, h.Eresult)
	return buf, nil
}

// Unmarshal decodes protobuf wire bytes into the header.
func (h *ProtoHeader) Unmarshal(data []byte) error {
	*h = ProtoHeader{}
	b := data
	for len(b) > 0 {
		num, typ, rest, err := consumeTag(b)
		if err != nil {
			return err
		}
		b = rest

		switch num {
		case hdrFieldSteamid:
			var v uint64
			v, b, err = takeFixed64(b)
			if err != nil {
				return err
			}
			h.Steamid = &v
		case hdrFieldClientSessionId:
			var v uint64
			v, b, err = takeVarint(b)
			if err != nil {
				return err
			}
			cs := int32(v)
			h.ClientSessionId = &cs
		case hdrFieldJobidSource:
			var v uint64
			v, b, err = takeFixed64(b)
			if err != nil {
				return err
			}
			h.JobidSource = &v
		case hdrFieldJobidTarget:
			var v uint64
			v, b, err = takeFixed64(b)
			if err != nil {
				return err
			}
			h.JobidTarget = &v
		case hdrFieldTargetJobName:
			var v []byte
			v, b, err = takeBytes(b)
			if err != nil {
				return err
			}
			s := string(v)
			h.TargetJobName = &s
		case hdrFieldEresult:
			var v uint64
			v, b, err = takeVarint(b)
			if err != nil {
				return err
			}
			er := int32(v)
			h.Eresult = &er
		default:
			b, err = skipUnknown(b, num, typ)
			if err != nil {
				return err
			}
		}
	}
	return nil
}
