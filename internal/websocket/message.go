package websocket

import "encoding/json"

type OutgoingMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// IncomingMessage Data 延迟到具体事件再解析
type IncomingMessage struct {
	From  string          `json:"from"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// 连接级事件
const (
	EventConnected = "connected"
	EventError     = "error"
)

type Connected struct {
	ID          string `json:"id"`
	Participant string `json:"participant"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
