package game

import "errors"

// 游戏服务层错误定义，引擎规则错误见 goldmahjong.GameError

var (
	// ErrGameNotFound 游戏不存在
	ErrGameNotFound = errors.New("game not found")

	// ErrGameAlreadyExists 房间已有进行中的游戏
	ErrGameAlreadyExists = errors.New("game already exists")

	// ErrTooManyGames 超过单节点游戏数上限
	ErrTooManyGames = errors.New("too many games")

	// ErrInvalidAction 无效的游戏操作
	ErrInvalidAction = errors.New("invalid action")

	// ErrInvalidPlayers 玩家列表与规则不符
	ErrInvalidPlayers = errors.New("invalid players")

	// ErrPlayerNotInGame 玩家不在该局中
	ErrPlayerNotInGame = errors.New("player not in game")
)
