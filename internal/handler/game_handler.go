package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"sudooom.mahjong.logic/internal/game"
	"sudooom.mahjong.logic/internal/game/mahjong"
	"sudooom.mahjong.logic/internal/game/mahjong/goldmahjong"
	"sudooom.mahjong.logic/pkg/proto"
)

// GameService 游戏服务
type GameService interface {
	StartGame(ctx context.Context, roomID string, players []int64) (*goldmahjong.PublicState, error)
	HandleAction(ctx context.Context, roomID string, userID int64, action game.Action) error
	Snapshot(ctx context.Context, roomID string, userID int64) (*game.Snapshot, error)
}

// Replier 应答发送
type Replier interface {
	PublishReply(ctx context.Context, accessNodeId string, reply *proto.GameReply) error
}

// GameHandler 游戏请求处理器
type GameHandler struct {
	gameService GameService
	replier     Replier
	logger      *slog.Logger
}

// NewGameHandler 创建游戏请求处理器
func NewGameHandler(gameService GameService, replier Replier) *GameHandler {
	return &GameHandler{
		gameService: gameService,
		replier:     replier,
		logger:      slog.Default().With("component", "GameHandler"),
	}
}

// HandleGameRequest 处理游戏请求并把结果应答给请求者
func (h *GameHandler) HandleGameRequest(ctx context.Context, req *proto.GameRequest, accessNodeId string) {
	h.logger.Info("Game request received",
		"userId", req.UserId,
		"reqId", req.ReqId,
		"roomId", req.RoomId,
		"action", req.Action,
		"accessNodeId", accessNodeId)

	data, err := h.handle(ctx, req)
	reply := &proto.GameReply{
		ReqId:   req.ReqId,
		UserId:  req.UserId,
		RoomId:  req.RoomId,
		Success: err == nil,
	}
	if err != nil {
		reply.Code = ErrorCode(err)
		reply.Message = err.Error()
		h.logger.Warn("Game request failed",
			"userId", req.UserId,
			"reqId", req.ReqId,
			"action", req.Action,
			"code", reply.Code,
			"error", err)
	} else if data != nil {
		payload, mErr := json.Marshal(data)
		if mErr != nil {
			h.logger.Error("Failed to marshal reply data", "error", mErr)
		} else {
			reply.Data = payload
		}
	}

	if err := h.replier.PublishReply(ctx, accessNodeId, reply); err != nil {
		h.logger.Error("Failed to send game reply", "reqId", req.ReqId, "error", err)
	}
}

func (h *GameHandler) handle(ctx context.Context, req *proto.GameRequest) (any, error) {
	if req.GameType != "" && req.GameType != mahjong.GameTypeGoldMahjong {
		return nil, fmt.Errorf("%w: unknown game type %s", game.ErrInvalidAction, req.GameType)
	}
	if req.RoomId == "" {
		return nil, fmt.Errorf("%w: missing room id", game.ErrInvalidAction)
	}

	switch req.Action {
	case proto.ActionStart:
		return h.gameService.StartGame(ctx, req.RoomId, req.Players)
	case proto.ActionState:
		return h.gameService.Snapshot(ctx, req.RoomId, req.UserId)
	}

	action, err := BuildAction(req)
	if err != nil {
		return nil, err
	}
	return nil, h.gameService.HandleAction(ctx, req.RoomId, req.UserId, action)
}

// BuildAction 把请求转换为游戏操作
func BuildAction(req *proto.GameRequest) (game.Action, error) {
	switch req.Action {
	case proto.ActionDraw:
		return game.Action{Kind: game.ActionDraw}, nil
	case proto.ActionDiscard:
		return game.Action{Kind: game.ActionDiscard, Index: req.Index}, nil
	case proto.ActionPass:
		return game.Action{Kind: game.ActionPass}, nil
	case proto.ActionSelfWin:
		return game.Action{Kind: game.ActionSelfWin}, nil
	case proto.ActionSelfQuad:
		tiles, err := requestTiles(req, 1)
		if err != nil {
			return game.Action{}, err
		}
		return game.Action{Kind: game.ActionSelfQuad, Tile: tiles[0]}, nil
	case proto.ActionClaim:
		kind, ok := goldmahjong.ParseClaimKind(req.Claim)
		if !ok {
			return game.Action{}, goldmahjong.ErrInvalidClaim.WithContext("claim", req.Claim)
		}
		claim := goldmahjong.Claim{Kind: kind}
		if kind == goldmahjong.ClaimSequence {
			tiles, err := requestTiles(req, 2)
			if err != nil {
				return game.Action{}, err
			}
			claim.Pair = [2]goldmahjong.Tile{tiles[0], tiles[1]}
		}
		return game.Action{Kind: game.ActionClaim, Claim: claim}, nil
	default:
		return game.Action{}, fmt.Errorf("%w: %s", game.ErrInvalidAction, req.Action)
	}
}

func requestTiles(req *proto.GameRequest, n int) ([]goldmahjong.Tile, error) {
	if len(req.Tiles) != n {
		return nil, fmt.Errorf("%w: %s needs %d tiles, got %d", game.ErrInvalidAction, req.Action, n, len(req.Tiles))
	}
	tiles, err := goldmahjong.ParseTiles(req.Tiles...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", game.ErrInvalidAction, err)
	}
	return tiles, nil
}

// ErrorCode 错误代码，规则错误沿用引擎的代码
func ErrorCode(err error) string {
	if code := goldmahjong.CodeOf(err); code != "" {
		return code
	}
	switch {
	case errors.Is(err, game.ErrGameNotFound):
		return "GAME_NOT_FOUND"
	case errors.Is(err, game.ErrGameAlreadyExists):
		return "GAME_ALREADY_EXISTS"
	case errors.Is(err, game.ErrTooManyGames):
		return "TOO_MANY_GAMES"
	case errors.Is(err, game.ErrInvalidPlayers):
		return "INVALID_PLAYERS"
	case errors.Is(err, game.ErrPlayerNotInGame):
		return "PLAYER_NOT_IN_GAME"
	case errors.Is(err, game.ErrInvalidAction):
		return "INVALID_ACTION"
	default:
		return "INTERNAL_ERROR"
	}
}
