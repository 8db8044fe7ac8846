package chat

import "messenger/pkg/protocol"

// Router decides which registered connections receive a message. It owns no
// state of its own; every decision is a fresh read of the registry.
//
// Delivery policy: a message reaches at most its explicit addressee and its
// own sender. There is no broadcast fallback of any kind, so content can
// never leak to users the sender did not name, even on malformed or missing
// addressing.
type Router struct {
	registry *Registry
}

func NewRouter(registry *Registry) *Router {
	return &Router{registry: registry}
}

// Route delivers env according to its addressing:
//
//   - recipient specified and connected: deliver to the recipient, plus an
//     echo to the sender so the originating client sees its message in the
//     thread. A self-addressed message yields exactly one copy.
//   - otherwise: echo to the sender only.
func (rt *Router) Route(env protocol.Envelope) {
	payload := protocol.Encode(env)

	// to_user_id: 0 is treated the same as absent.
	if to := env.ToUserID; to != nil && *to != 0 {
		if rt.registry.IsConnected(*to) {
			rt.registry.SendTo(*to, payload)
			if *to != env.SenderID {
				rt.registry.SendTo(env.SenderID, payload)
			}
			return
		}
	}

	rt.registry.SendTo(env.SenderID, payload)
}
