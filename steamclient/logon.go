package steamclient

import (
	"context"
	"fmt"

	"github.com/k64z/steamcm/protocol"
	"github.com/k64z/steamcm/steamid"
)

// clientOSWindows11 is EOSType Windows 11, the value SteamKit2-derived
// clients report.
const clientOSWindows11 = uint32(20)

// Login authenticates with the CM server using an account name and a
// refresh token (access token), and starts the heartbeat loop on success.
func (c *Client) Login(ctx context.Context, accountName, refreshToken string, sid steamid.SteamID) error {
	helloBody, err := (&protocol.ClientHello{ProtocolVersion: uint32Ptr(ProtoVersion)}).Marshal()
	if err != nil {
		return fmt.Errorf("marshal ClientHello: %w", err)
	}
	if err := c.sendPacket(ctx, EMsgClientHello, nil, helloBody); err != nil {
		return fmt.Errorf("send ClientHello: %w", err)
	}

	// WaitFor installs its subscriber before ClientLogon is sent below, so
	// there is no race with readLoop delivering the response early.
	respCh := make(chan *Packet, 1)
	errCh := make(chan error, 1)
	go func() {
		pkt, err := c.WaitFor(ctx, EMsgClientLogOnResponse, nil)
		if err != nil {
			errCh <- err
			return
		}
		respCh <- pkt
	}()

	loginSID := steamid.SteamID(0).
		SetUniverse(1).
		SetType(1).
		SetInstance(1).
		SetAccountID(sid.AccountID())
	sidU64 := loginSID.ToSteamID64()
	lang := "english"

	logonBody, err := (&protocol.ClientLogon{
		AccountName:            &accountName,
		AccessToken:            &refreshToken,
		ShouldRememberPassword: boolPtr(true),
		ProtocolVersion:        uint32Ptr(ProtoVersion),
		ClientOsType:           &clientOSWindows11,
		ClientLanguage:         &lang,
		MachineId:              c.machineID[:],
	}).Marshal()
	if err != nil {
		return fmt.Errorf("marshal ClientLogon: %w", err)
	}

	sessionZero := int32(0)
	if err := c.sendPacket(ctx, EMsgClientLogon, &protocol.ProtoHeader{
		Steamid:         &sidU64,
		ClientSessionId: &sessionZero,
	}, logonBody); err != nil {
		return fmt.Errorf("send ClientLogon: %w", err)
	}

	var pkt *Packet
	select {
	case pkt = <-respCh:
	case err := <-errCh:
		return fmt.Errorf("wait for logon response: %w", err)
	}

	var resp protocol.ClientLogonResponse
	if err := resp.Unmarshal(pkt.Body); err != nil {
		return fmt.Errorf("unmarshal logon response: %w", err)
	}
	if resp.GetEresult() != 1 { // EResult.OK
		return fmt.Errorf("logon failed: eresult=%d", resp.GetEresult())
	}

	c.mu.Lock()
	c.steamID = steamid.FromSteamID64(pkt.Header.GetSteamid())
	c.sessionID = pkt.Header.GetClientSessionid()
	c.loggedIn = true
	c.mu.Unlock()

	heartbeatSec := resp.GetHeartbeatSeconds()
	if heartbeatSec <= 0 {
		heartbeatSec = 30
	}
	c.wg.Add(1)
	go c.heartbeatLoop(heartbeatSec)

	c.logger.Info("logged in",
		"steamid", c.steamID.String(),
		"session_id", c.sessionID,
		"heartbeat_sec", heartbeatSec,
	)
	return nil
}

// sendClientLogOff notifies the server of a clean logoff. Best-effort: the
// caller is already tearing the connection down regardless of the outcome.
func (c *Client) sendClientLogOff(ctx context.Context) error {
	c.mu.Lock()
	sidU64 := c.steamID.ToSteamID64()
	sessionID := c.sessionID
	c.mu.Unlock()

	body, _ := (&protocol.ClientLogOff{}).Marshal()
	return c.sendPacket(ctx, EMsgClientLogOff, &protocol.ProtoHeader{
		Steamid:         &sidU64,
		ClientSessionId: &sessionID,
	}, body)
}

// callServiceMethod sends a unified service method request, correlated by a
// client-local job id, and awaits the matching ServiceMethodResponse.
func (c *Client) callServiceMethod(ctx context.Context, method string, body []byte) (*Packet, error) {
	jobID := c.nextJobSource()

	respCh := make(chan *Packet, 1)
	errCh := make(chan error, 1)
	go func() {
		pkt, err := c.WaitFor(ctx, EMsgServiceMethodResponse, func(p *Packet) bool {
			return p.Header.GetJobidTarget() == jobID
		})
		if err != nil {
			errCh <- err
			return
		}
		respCh <- pkt
	}()

	hdr := &protocol.ProtoHeader{
		TargetJobName: &method,
		JobidSource:   &jobID,
	}
	if err := c.sendPacket(ctx, EMsgServiceMethodCallFromClient, hdr, body); err != nil {
		return nil, fmt.Errorf("send %s: %w", method, err)
	}

	select {
	case pkt := <-respCh:
		if pkt.Header.GetEresult() != 0 && pkt.Header.GetEresult() != 1 {
			return pkt, fmt.Errorf("service method %s: eresult=%d", method, pkt.Header.GetEresult())
		}
		return pkt, nil
	case err := <-errCh:
		return nil, fmt.Errorf("wait for %s response: %w", method, err)
	}
}

// GenerateAccessTokenForApp requests an app-scoped access token via the
// unified service method path, the same job-id-correlated mechanism PICS
// calls use.
func (c *Client) GenerateAccessTokenForApp(ctx context.Context, appIDs []uint32) (*protocol.PICSAccessTokenResponse, error) {
	body, err := (&protocol.PICSAccessTokenRequest{AppIds: appIDs}).Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshal PICSAccessTokenRequest: %w", err)
	}

	pkt, err := c.callServiceMethod(ctx, "PICSService.GetAccessTokens#1", body)
	if err != nil {
		return nil, err
	}

	var resp protocol.PICSAccessTokenResponse
	if err := resp.Unmarshal(pkt.Body); err != nil {
		return nil, &DecodeError{EMsg: pkt.EMsg, Err: err}
	}
	return &resp, nil
}

func uint32Ptr(v uint32) *uint32 { return &v }
func boolPtr(v bool) *bool       { return &v }
