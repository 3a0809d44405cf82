package steamclient

import "fmt"

// EMsg identifies Steam CM message types.
type EMsg uint32

const (
	EMsgMulti                         EMsg = 1
	EMsgServiceMethodCallFromClient   EMsg = 146
	EMsgServiceMethodResponse         EMsg = 147
	EMsgClientHeartBeat               EMsg = 703
	EMsgClientLogOff                  EMsg = 706
	EMsgClientLogOnResponse           EMsg = 751
	EMsgClientLoggedOff               EMsg = 757
	EMsgChannelEncryptRequest         EMsg = 1303
	EMsgChannelEncryptResponse        EMsg = 1304
	EMsgChannelEncryptResult          EMsg = 1305
	EMsgClientLogon                   EMsg = 5514
	EMsgClientHello                   EMsg = 9805
	EMsgClientPICSProductInfoRequest  EMsg = 8905
	EMsgClientPICSProductInfoResponse EMsg = 8906
	EMsgClientPICSAccessTokenRequest  EMsg = 8917
	EMsgClientPICSAccessTokenResponse EMsg = 8918
)

const ProtoMask uint32 = 0x80000000
const ProtoVersion uint32 = 65581

var emsgNames = map[EMsg]string{
	EMsgMulti:                         "Multi",
	EMsgServiceMethodCallFromClient:   "ServiceMethodCallFromClient",
	EMsgServiceMethodResponse:         "ServiceMethodResponse",
	EMsgClientHeartBeat:               "ClientHeartBeat",
	EMsgClientLogOff:                  "ClientLogOff",
	EMsgClientLogOnResponse:           "ClientLogOnResponse",
	EMsgClientLoggedOff:               "ClientLoggedOff",
	EMsgChannelEncryptRequest:         "ChannelEncryptRequest",
	EMsgChannelEncryptResponse:        "ChannelEncryptResponse",
	EMsgChannelEncryptResult:          "ChannelEncryptResult",
	EMsgClientLogon:                   "ClientLogon",
	EMsgClientHello:                   "ClientHello",
	EMsgClientPICSProductInfoRequest:  "ClientPICSProductInfoRequest",
	EMsgClientPICSProductInfoResponse: "ClientPICSProductInfoResponse",
	EMsgClientPICSAccessTokenRequest:  "ClientPICSAccessTokenRequest",
	EMsgClientPICSAccessTokenResponse: "ClientPICSAccessTokenResponse",
}

func (e EMsg) String() string {
	if name, ok := emsgNames[e]; ok {
		return name
	}
	return fmt.Sprintf("EMsg(%d)", uint32(e))
}
