package relay

// 中继发给参与者的通知事件（线上字段名保持不变）
const (
	EventPlayerJoined         = "player-joined"
	EventRoomFull             = "room-full"
	EventOpponentPlay         = "opponent-play"
	EventOpponentDisconnected = "opponent-disconnected"
)

type Notification struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type PlayerJoined struct {
	Count int `json:"count"`
}

type RoomFull struct {
	Message string `json:"message"`
}

// OpponentPlay 原样转发，中继不解析牌面
type OpponentPlay struct {
	Card  string `json:"card"`
	Index int    `json:"index"`
}

type OpponentDisconnected struct{}

// Participant 房间成员；Notify 不得阻塞
type Participant interface {
	ID() string
	Notify(n Notification)
}
