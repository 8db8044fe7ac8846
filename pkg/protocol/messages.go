package protocol

import "encoding/json"

// Envelope is the wire representation of one chat message.
//
// Inbound frames carry at most `to_user_id`, `text` and `image_url`; the
// sender id is always stamped by the server from the authenticated session,
// never trusted from the client. Outbound frames serialize every field, with
// `image_url` and `to_user_id` explicitly null when absent.
type Envelope struct {
	SenderID uint    `json:"sender_id"`
	Text     string  `json:"text"`
	ImageURL *string `json:"image_url"`
	ToUserID *uint   `json:"to_user_id"`
}

// Decode parses a raw inbound frame into an Envelope. It never fails: any
// structural problem (invalid JSON, non-object payload, wrong field types)
// yields the degraded form instead, with the raw payload verbatim as Text
// and no image or recipient. Malformed input therefore downgrades to a
// plain-text message rather than terminating the session.
func Decode(raw []byte) Envelope {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{Text: string(raw)}
	}
	env.SenderID = 0 // client-supplied sender ids are ignored
	return env
}

// Encode serializes an Envelope for delivery. Marshaling a flat struct of
// strings and integers cannot fail, so no error is returned.
func Encode(env Envelope) []byte {
	data, _ := json.Marshal(env)
	return data
}
