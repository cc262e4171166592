package gateway

import (
	"context"
	"encoding/json"

	"deckbridge/internal/domain"
	"deckbridge/internal/usecase/session"
)

// RegisterBridgeHandlers wires the bridge RPC surface onto the server:
//
//	device.send    writes a raw line to the device (requires the
//	                 handshake to be complete)
//	session.status reports the current session state, id and link description
func RegisterBridgeHandlers(s *Server, sess *session.Session, link domain.Link) {
	s.RegisterHandler("device.send", func(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
		var req struct {
			Line string `json:"line"`
		}
		if err := json.Unmarshal(payload, &req); err != nil || req.Line == "" {
			return nil, domain.ErrRPCInvalidPayload
		}
		if !sess.IsReady() {
			return nil, domain.ErrDeviceNotReady
		}
		if err := link.Send(ctx, []byte(req.Line+"\n")); err != nil {
			return nil, err
		}
		return json.Marshal(map[string]bool{"sent": true})
	})

	s.RegisterHandler("session.status", func(_ context.Context, _ json.RawMessage) (json.RawMessage, error) {
		return json.Marshal(map[string]any{
			"state":      string(sess.State()),
			"session_id": sess.ID(),
			"ready":      sess.IsReady(),
			"link":       link.Describe(),
			"open":       link.IsOpen(),
		})
	})
}
