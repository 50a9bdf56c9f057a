package game

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"sudooom.mahjong.logic/internal/game/mahjong"
	"sudooom.mahjong.logic/internal/game/mahjong/goldmahjong"
)

// ActionKind 玩家操作类型
type ActionKind string

const (
	ActionDraw     ActionKind = "DRAW"
	ActionDiscard  ActionKind = "DISCARD"
	ActionClaim    ActionKind = "CLAIM"
	ActionPass     ActionKind = "PASS"
	ActionSelfWin  ActionKind = "SELF_WIN"
	ActionSelfQuad ActionKind = "SELF_QUAD"
)

// Action 玩家操作
type Action struct {
	Kind  ActionKind
	Index *int              // 出牌位置，空表示打出刚摸的牌
	Claim goldmahjong.Claim // 认领内容
	Tile  goldmahjong.Tile  // 杠的牌
}

// Game 一个房间的一局游戏
// flowMu 串行化服务层的 修改-发布-调度 流程；认领提交不持有它
type Game struct {
	flowMu sync.Mutex

	roomID    string
	engine    *mahjong.SafeEngine
	players   []int64 // 座位 -> 用户ID
	startedAt time.Time

	// 以下字段由 flowMu 保护
	windowSeq int64 // 认领窗口序号，用作截止任务的版本号
	turnSeq   int64 // 回合序号，用作出牌超时任务的版本号
	recorded  bool  // 对局记录已保存

	eventSeq   atomic.Int64
	lastActive atomic.Int64 // unix nano
}

// NewGame 创建游戏
func NewGame(roomID string, engine *mahjong.SafeEngine, players []int64) *Game {
	g := &Game{
		roomID:    roomID,
		engine:    engine,
		players:   slices.Clone(players),
		startedAt: time.Now(),
	}
	g.Touch()
	return g
}

// RoomID 房间ID
func (g *Game) RoomID() string {
	return g.roomID
}

// Engine 引擎
func (g *Game) Engine() *mahjong.SafeEngine {
	return g.engine
}

// Players 座位顺序的玩家列表
func (g *Game) Players() []int64 {
	return slices.Clone(g.players)
}

// SeatOf 玩家所在座位
func (g *Game) SeatOf(userID int64) (int, bool) {
	seat := slices.Index(g.players, userID)
	return seat, seat >= 0
}

// UserAt 座位上的玩家
func (g *Game) UserAt(seat int) int64 {
	if seat < 0 || seat >= len(g.players) {
		return 0
	}
	return g.players[seat]
}

// NextEventSeq 房间内递增的事件序号
func (g *Game) NextEventSeq() int64 {
	return g.eventSeq.Add(1)
}

// Touch 刷新活跃时间
func (g *Game) Touch() {
	g.lastActive.Store(time.Now().UnixNano())
}

// LastActiveTime 获取最后活跃时间
func (g *Game) LastActiveTime() time.Time {
	return time.Unix(0, g.lastActive.Load())
}

// IsFinished 对局是否已结束
func (g *Game) IsFinished() bool {
	return g.engine.IsGameOver()
}
