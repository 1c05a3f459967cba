// Package protocol is the JSON wire form of game actions, one message per line.
package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeAct    = "ACT"
	TypeAck    = "ACK"
	TypeStatus = "STATUS"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

// DecodeBase reads the routing fields. A message without a type is an ACT.
func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	if err == nil && m.Type == "" {
		m.Type = TypeAct
	}
	return m, err
}
