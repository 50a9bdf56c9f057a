package mahjong

import (
	"math/rand/v2"
	"sync"

	"sudooom.mahjong.logic/internal/game/mahjong/goldmahjong"
)

// GameTypeGoldMahjong 金麻将
const GameTypeGoldMahjong = "GOLD_MAHJONG"

// SafeEngine 线程安全的金麻将引擎包装
// 修改操作持写锁；认领提交持读锁，不同座位可以同时提交，由认领窗口自身的锁去重
type SafeEngine struct {
	mu       sync.RWMutex
	engine   *goldmahjong.Engine
	gameType string
}

// NewSafeEngine 创建线程安全的引擎
func NewSafeEngine(rules goldmahjong.RuleConfig, names []string) (*SafeEngine, error) {
	engine, err := goldmahjong.NewEngine(rules, names)
	if err != nil {
		return nil, err
	}
	return &SafeEngine{
		engine:   engine,
		gameType: GameTypeGoldMahjong,
	}, nil
}

// Start 洗牌发牌
func (e *SafeEngine) Start(rng *rand.Rand) (*goldmahjong.PublicState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.engine.Start(rng)
}

// StartWithWall 用指定牌墙开局
func (e *SafeEngine) StartWithWall(wall *goldmahjong.Wall) (*goldmahjong.PublicState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.engine.StartWithWall(wall)
}

// Draw 当前座位摸牌
func (e *SafeEngine) Draw() (*goldmahjong.TurnOptions, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.engine.DrawForCurrentSeat()
}

// Discard 出牌
func (e *SafeEngine) Discard(seat int, index *int) (*goldmahjong.DiscardResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.engine.Discard(seat, index)
}

// SubmitClaim 提交认领（读锁）
func (e *SafeEngine) SubmitClaim(seat int, claim goldmahjong.Claim) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.engine.SubmitClaim(seat, claim)
}

// CanResolveEarly 认领窗口是否可以提前裁决
func (e *SafeEngine) CanResolveEarly() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.engine.CanResolveEarly()
}

// ResolveClaims 裁决认领窗口
func (e *SafeEngine) ResolveClaims() (*goldmahjong.Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.engine.ResolveClaims()
}

// ConfirmSelfDrawWin 自摸
func (e *SafeEngine) ConfirmSelfDrawWin(seat int) (*goldmahjong.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.engine.ConfirmSelfDrawWin(seat)
}

// ConfirmSelfQuad 暗杠或加杠
func (e *SafeEngine) ConfirmSelfQuad(seat int, tile goldmahjong.Tile) (*goldmahjong.TurnOptions, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.engine.ConfirmSelfQuad(seat, tile)
}

// EndGame 终止对局
func (e *SafeEngine) EndGame(reason goldmahjong.FinishReason) (*goldmahjong.PublicState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.engine.EndGame(reason)
}

// Eligibility 当前认领窗口的资格快照
func (e *SafeEngine) Eligibility() []goldmahjong.SeatEligibility {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.engine.Eligibility()
}

// PublicState 公开状态
func (e *SafeEngine) PublicState() goldmahjong.PublicState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.engine.PublicState()
}

// PrivateState 座位私有状态
func (e *SafeEngine) PrivateState(seat int) (*goldmahjong.PrivateState, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.engine.PrivateState(seat)
}

// Status 对局状态
func (e *SafeEngine) Status() goldmahjong.Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.engine.Status()
}

// CurrentSeat 当前行动座位
func (e *SafeEngine) CurrentSeat() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.engine.CurrentSeat()
}

// Result 对局结果
func (e *SafeEngine) Result() *goldmahjong.Result {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.engine.Result()
}

// IsGameOver 对局是否结束
func (e *SafeEngine) IsGameOver() bool {
	return e.Status() == goldmahjong.StatusFinished
}

// Rules 对局规则
func (e *SafeEngine) Rules() goldmahjong.RuleConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.engine.Rules()
}

// SeatCount 座位数
func (e *SafeEngine) SeatCount() int {
	return e.Rules().PlayerCount
}

// GetGameType 获取游戏类型
func (e *SafeEngine) GetGameType() string {
	return e.gameType
}
