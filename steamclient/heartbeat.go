package steamclient

import (
	"context"
	"time"

	"github.com/k64z/steamcm/protocol"
)

// heartbeatLoop periodically sends ClientHeartBeat at the interval the
// server specified in its logon response, until Disconnect closes c.done
// or a send fails.
func (c *Client) heartbeatLoop(intervalSeconds int32) {
	defer c.wg.Done()

	ticker := time.NewTicker(time.Duration(intervalSeconds) * time.Second)
	defer ticker.Stop()

	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			body, _ := (&protocol.ClientHeartBeat{}).Marshal()
			if err := c.sendPacket(context.Background(), EMsgClientHeartBeat, nil, body); err != nil {
				c.logger.Error("heartbeat failed", "err", err)
				return
			}
			c.logger.Debug("heartbeat sent")
		}
	}
}
