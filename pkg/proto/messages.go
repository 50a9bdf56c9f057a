package proto

import "encoding/json"

// 游戏请求动作
const (
	ActionStart    = "START"     // 开局，Players 为座位顺序
	ActionDraw     = "DRAW"      // 摸牌
	ActionDiscard  = "DISCARD"   // 出牌，Index 为空时打出刚摸的牌
	ActionClaim    = "CLAIM"     // 认领：WIN / QUAD / TRIPLET / SEQUENCE
	ActionPass     = "PASS"      // 过
	ActionSelfWin  = "SELF_WIN"  // 自摸
	ActionSelfQuad = "SELF_QUAD" // 暗杠或加杠，Tiles[0] 为杠的牌
	ActionState    = "STATE"     // 查询当前状态（断线重连）
)

// 游戏事件
const (
	EventGameStarted   = "GAME_STARTED"
	EventTileDrawn     = "TILE_DRAWN"
	EventTileDiscarded = "TILE_DISCARDED"
	EventClaimResolved = "CLAIM_RESOLVED"
	EventSelfQuad      = "SELF_QUAD"
	EventAutoDiscard   = "AUTO_DISCARD"
	EventGameFinished  = "GAME_FINISHED"
	EventPrivateState  = "PRIVATE_STATE"
)

// UpstreamMessage 上行消息封装（Access -> Logic）
type UpstreamMessage struct {
	AccessNodeId string          `json:"AccessNodeId"`
	ConnId       int64           `json:"ConnId"`
	Platform     string          `json:"Platform"`
	Payload      UpstreamPayload `json:"Payload"`
}

// UpstreamPayload 上行消息载荷
type UpstreamPayload struct {
	GameRequest *GameRequest `json:"GameRequest,omitempty"`
}

// GameRequest 游戏请求
type GameRequest struct {
	ReqId    string   `json:"ReqId"`
	UserId   int64    `json:"UserId"`
	RoomId   string   `json:"RoomId"`
	GameType string   `json:"GameType"`
	Action   string   `json:"Action"`
	Players  []int64  `json:"Players,omitempty"`
	Index    *int     `json:"Index,omitempty"`
	Claim    string   `json:"Claim,omitempty"`
	Tiles    []string `json:"Tiles,omitempty"` // 吃牌时自己的两张，杠牌时的牌种
}

// GameReply 游戏请求应答，只发给请求者
type GameReply struct {
	ReqId   string          `json:"ReqId"`
	UserId  int64           `json:"UserId"`
	RoomId  string          `json:"RoomId"`
	Success bool            `json:"Success"`
	Code    string          `json:"Code,omitempty"`
	Message string          `json:"Message,omitempty"`
	Data    json.RawMessage `json:"Data,omitempty"`
}

// GameEvent 游戏事件，Seat 为 -1 时发给整个房间
type GameEvent struct {
	Event     string          `json:"Event"`
	RoomId    string          `json:"RoomId"`
	Seat      int             `json:"Seat"`
	Seq       int64           `json:"Seq"`
	Data      json.RawMessage `json:"Data"`
	Timestamp int64           `json:"Timestamp"`
}

// DownstreamMessage 下行消息封装（Logic -> Access）
type DownstreamMessage struct {
	Payload DownstreamPayload `json:"Payload"`
}

// DownstreamPayload 下行消息载荷
type DownstreamPayload struct {
	GameReply *GameReply `json:"GameReply,omitempty"`
}
