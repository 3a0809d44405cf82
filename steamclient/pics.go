package steamclient

import (
	"context"
	"fmt"

	"github.com/k64z/steamcm/protocol"
)

// ProductInfoApp requests PICS data for one app, optionally with a prior
// access token obtained from GenerateAccessTokenForApp.
type ProductInfoApp struct {
	AppID       uint32
	AccessToken uint64
}

// ProductInfo is one app's PICS response entry: the raw VDF text buffer,
// uninterpreted. Parsing VDF into a structured tree is out of core scope.
type ProductInfo struct {
	AppID  uint32
	Buffer []byte
}

// GetProductInfo requests PICS product info for the given apps and waits
// for the server's response, matched by job id. This mirrors
// original_source's ProductInfoMixin.get_product_info, which sends
// CMsgClientPICSProductInfoRequest directly (not through the unified
// service-method path PICS token requests use) and correlates the
// response by job id alone.
func (c *Client) GetProductInfo(ctx context.Context, apps []ProductInfoApp) ([]ProductInfo, error) {
	jobID := c.nextJobSource()

	reqApps := make([]*protocol.PICSProductInfoRequestApp, 0, len(apps))
	for _, a := range apps {
		appID := a.AppID
		app := &protocol.PICSProductInfoRequestApp{AppId: &appID}
		if a.AccessToken != 0 {
			tok := a.AccessToken
			app.AccessToken = &tok
		}
		reqApps = append(reqApps, app)
	}

	body, err := (&protocol.PICSProductInfoRequest{Apps: reqApps}).Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshal PICSProductInfoRequest: %w", err)
	}

	respCh := make(chan *Packet, 1)
	errCh := make(chan error, 1)
	go func() {
		pkt, err := c.WaitFor(ctx, EMsgClientPICSProductInfoResponse, func(p *Packet) bool {
			return p.Header.GetJobidTarget() == jobID
		})
		if err != nil {
			errCh <- err
			return
		}
		respCh <- pkt
	}()

	if err := c.sendPacket(ctx, EMsgClientPICSProductInfoRequest, &protocol.ProtoHeader{
		JobidSource: &jobID,
	}, body); err != nil {
		return nil, fmt.Errorf("send PICSProductInfoRequest: %w", err)
	}

	var pkt *Packet
	select {
	case pkt = <-respCh:
	case err := <-errCh:
		return nil, fmt.Errorf("wait for PICSProductInfoResponse: %w", err)
	}

	var resp protocol.PICSProductInfoResponse
	if err := resp.Unmarshal(pkt.Body); err != nil {
		return nil, &DecodeError{EMsg: pkt.EMsg, Err: err}
	}

	out := make([]ProductInfo, 0, len(resp.Apps))
	for _, app := range resp.Apps {
		out = append(out, ProductInfo{AppID: app.GetAppId(), Buffer: app.Buffer})
	}
	return out, nil
}

// GetAccessTokens is a thin rename of GenerateAccessTokenForApp returning
// just the per-app token map, for callers that don't need the raw
// protocol response.
func (c *Client) GetAccessTokens(ctx context.Context, appIDs []uint32) (map[uint32]uint64, error) {
	resp, err := c.GenerateAccessTokenForApp(ctx, appIDs)
	if err != nil {
		return nil, err
	}
	tokens := make(map[uint32]uint64, len(resp.AppAccessTokens))
	for _, t := range resp.AppAccessTokens {
		tokens[t.GetAppId()] = t.GetAccessToken()
	}
	return tokens, nil
}
