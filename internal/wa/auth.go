package wa

import (
	"fmt"

	"github.com/matheus3301/lounge/internal/protocol"
	"go.mau.fi/whatsmeow"
	"go.uber.org/zap"
)

// QR channel events, as reported by whatsmeow.
const (
	qrEventCode    = "code"
	qrEventSuccess = "success"
	qrEventTimeout = "timeout"
)

// link connects the device. A paired device becomes Ready on Connected;
// an unpaired one first walks through QR codes.
func (c *Client) link(requestID int64) {
	if c.dev.IsLoggedIn() {
		if err := c.dev.Connect(); err != nil {
			c.fail(requestID, CodeUnavailable, fmt.Errorf("connect: %w", err))
			return
		}
		c.reply(requestID, protocol.Ok{})
		return
	}

	// The QR channel must exist before Connect.
	qr, err := c.dev.QRChannel(c.ctx)
	if err != nil {
		c.fail(requestID, CodeInternal, err)
		return
	}
	if err := c.dev.Connect(); err != nil {
		c.fail(requestID, CodeUnavailable, fmt.Errorf("connect: %w", err))
		return
	}
	c.reply(requestID, protocol.Ok{})
	go c.pair(qr)
}

// pair turns QR channel items into auth states until pairing ends.
func (c *Client) pair(qr <-chan whatsmeow.QRChannelItem) {
	for item := range qr {
		if c.ctx.Err() != nil {
			return
		}
		switch item.Event {
		case qrEventCode:
			c.logger.Info("QR code generated")
			c.setAuth(protocol.AuthWaitOtherDevice{Link: item.Code})
		case qrEventSuccess:
			c.logger.Info("device paired")
			return
		case qrEventTimeout:
			c.logger.Warn("QR pairing timed out")
			c.update(&protocol.Error{Code: CodeTimeout, Message: "QR code timeout"})
			c.setAuth(protocol.AuthClosed{})
			return
		default:
			msg := item.Event
			if item.Error != nil {
				msg = item.Error.Error()
			}
			c.logger.Error("pairing failed", zap.String("event", item.Event), zap.String("error", msg))
			c.update(&protocol.Error{Code: CodeInternal, Message: "pairing failed: " + msg})
			c.setAuth(protocol.AuthClosed{})
			return
		}
	}
}
