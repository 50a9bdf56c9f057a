package goldmahjong

import (
	"errors"
	"fmt"
	"maps"
)

// GameError 游戏错误类型
type GameError struct {
	Code    string         // 错误代码
	Message string         // 错误消息
	Cause   error          // 原因错误
	Context map[string]any // 错误上下文
}

func (e *GameError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *GameError) Unwrap() error {
	return e.Cause
}

// Is 按错误代码匹配，带上下文的副本与哨兵错误视为同一错误
func (e *GameError) Is(target error) bool {
	var t *GameError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewGameError 创建游戏错误
func NewGameError(code, message string) *GameError {
	return &GameError{
		Code:    code,
		Message: message,
	}
}

// WithCause 返回带原因错误的副本
func (e *GameError) WithCause(cause error) *GameError {
	c := e.clone()
	c.Cause = cause
	return c
}

// WithContext 返回带上下文信息的副本，哨兵错误本身不会被修改
func (e *GameError) WithContext(key string, value any) *GameError {
	c := e.clone()
	c.Context[key] = value
	return c
}

func (e *GameError) clone() *GameError {
	c := *e
	c.Context = make(map[string]any, len(e.Context)+1)
	maps.Copy(c.Context, e.Context)
	return &c
}

// CodeOf 提取错误代码，非 GameError 返回空串
func CodeOf(err error) string {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.Code
	}
	return ""
}

// 回合与认领相关错误
var (
	ErrOutOfTurn      = NewGameError("OUT_OF_TURN", "not this seat's turn or no open claim window")
	ErrAlreadyClaimed = NewGameError("ALREADY_CLAIMED", "seat already submitted a claim in this window")
	ErrInvalidClaim   = NewGameError("INVALID_CLAIM", "claim is not eligible for this seat")
	ErrInvalidDiscard = NewGameError("INVALID_DISCARD", "discard index out of range")
	ErrInvalidSeat    = NewGameError("INVALID_SEAT", "seat index out of range")
)

// 牌墙相关错误
var (
	ErrInsufficientTiles = NewGameError("INSUFFICIENT_TILES", "not enough tiles to deal")
	ErrWallExhausted     = NewGameError("WALL_EXHAUSTED", "wall is exhausted")
)

// 游戏状态相关错误
var (
	ErrGameAlreadyFinished = NewGameError("GAME_ALREADY_FINISHED", "game already finished")
	ErrGameNotStarted      = NewGameError("GAME_NOT_STARTED", "game not started")
	ErrGameAlreadyStarted  = NewGameError("GAME_ALREADY_STARTED", "game already started")
	ErrInvalidRules        = NewGameError("INVALID_RULES", "invalid rule configuration")
)
