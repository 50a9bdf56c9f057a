package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"time"

	"sudooom.mahjong.logic/internal/game/mahjong"
	"sudooom.mahjong.logic/internal/game/mahjong/goldmahjong"
	"sudooom.mahjong.logic/internal/model"
	"sudooom.mahjong.logic/internal/task"
	"sudooom.mahjong.logic/pkg/proto"
)

// Publisher 游戏事件发布
type Publisher interface {
	PublishRoomEvent(ctx context.Context, roomID string, event *proto.GameEvent) error
	PublishSeatEvent(ctx context.Context, roomID string, seat int, event *proto.GameEvent) error
}

// SnapshotStore 状态快照缓存，供断线重连读取
type SnapshotStore interface {
	SavePublic(ctx context.Context, roomID string, state *goldmahjong.PublicState) error
	SavePrivate(ctx context.Context, roomID string, seat int, state *goldmahjong.PrivateState) error
	LoadPublic(ctx context.Context, roomID string) (*goldmahjong.PublicState, error)
}

// RecordRepository 对局记录持久化
type RecordRepository interface {
	Save(ctx context.Context, record *model.GameRecord) (int64, error)
}

// Scheduler 延迟任务调度
type Scheduler interface {
	AddTask(t *task.Task) error
	RemoveTask(taskID string) error
}

// Snapshot 玩家视角的对局状态
type Snapshot struct {
	Public  *goldmahjong.PublicState  `json:"public"`
	Private *goldmahjong.PrivateState `json:"private,omitempty"`
}

type roomEventData struct {
	State  goldmahjong.PublicState `json:"state"`
	Detail any                     `json:"detail,omitempty"`
}

type discardDetail struct {
	Seat            int              `json:"seat"`
	Tile            goldmahjong.Tile `json:"tile"`
	ClaimWindowOpen bool             `json:"claimWindowOpen"`
}

type resolvedDetail struct {
	Seat  int                   `json:"seat"`
	From  int                   `json:"from"`
	Tile  goldmahjong.Tile      `json:"tile"`
	Claim goldmahjong.ClaimKind `json:"claim"`
	Pair  []goldmahjong.Tile    `json:"pair,omitempty"`
}

// Service 金麻将游戏服务
// 负责开局、玩家操作分发、事件推送、快照缓存、认领截止与出牌超时调度、对局记录
type Service struct {
	manager   *Manager
	rules     goldmahjong.RuleConfig
	publisher Publisher
	snapshots SnapshotStore    // 可为空
	records   RecordRepository // 可为空
	scheduler Scheduler        // 可为空，为空时认领窗口只能提前裁决
	logger    *slog.Logger
}

// NewService 创建游戏服务
func NewService(
	manager *Manager,
	rules goldmahjong.RuleConfig,
	publisher Publisher,
	snapshots SnapshotStore,
	records RecordRepository,
	scheduler Scheduler,
) *Service {
	s := &Service{
		manager:   manager,
		rules:     rules,
		publisher: publisher,
		snapshots: snapshots,
		records:   records,
		scheduler: scheduler,
		logger:    slog.Default().With("component", "GameService"),
	}
	manager.SetEvictHandler(s.evict)
	return s
}

func claimTaskID(roomID string) string { return "claim:" + roomID }
func turnTaskID(roomID string) string  { return "turn:" + roomID }

// StartGame 开局：洗牌、翻金、发牌，庄家摸第一张牌
func (s *Service) StartGame(ctx context.Context, roomID string, players []int64) (*goldmahjong.PublicState, error) {
	return s.start(ctx, roomID, players, func(e *mahjong.SafeEngine) (*goldmahjong.PublicState, error) {
		return e.Start(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
	})
}

// StartGameWithWall 用指定牌墙开局，用于牌局回放
func (s *Service) StartGameWithWall(ctx context.Context, roomID string, players []int64, wall *goldmahjong.Wall) (*goldmahjong.PublicState, error) {
	return s.start(ctx, roomID, players, func(e *mahjong.SafeEngine) (*goldmahjong.PublicState, error) {
		return e.StartWithWall(wall)
	})
}

func (s *Service) start(
	ctx context.Context,
	roomID string,
	players []int64,
	deal func(e *mahjong.SafeEngine) (*goldmahjong.PublicState, error),
) (*goldmahjong.PublicState, error) {
	if err := validatePlayers(players, s.rules.PlayerCount); err != nil {
		return nil, err
	}

	names := make([]string, len(players))
	for i, p := range players {
		names[i] = strconv.FormatInt(p, 10)
	}
	engine, err := mahjong.NewSafeEngine(s.rules, names)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	g := NewGame(roomID, engine, players)
	if err := s.manager.Create(g); err != nil {
		return nil, err
	}

	g.flowMu.Lock()
	defer g.flowMu.Unlock()

	if _, err := deal(engine); err != nil {
		s.manager.Remove(roomID)
		return nil, err
	}
	if _, err := engine.Draw(); err != nil && !errors.Is(err, goldmahjong.ErrWallExhausted) {
		s.manager.Remove(roomID)
		return nil, err
	}

	s.logger.Info("Game started", "roomId", roomID, "players", players)
	s.afterChange(ctx, g, proto.EventGameStarted, nil)

	state := engine.PublicState()
	return &state, nil
}

func validatePlayers(players []int64, want int) error {
	if len(players) != want {
		return fmt.Errorf("%w: need %d players, got %d", ErrInvalidPlayers, want, len(players))
	}
	seen := make(map[int64]struct{}, len(players))
	for _, p := range players {
		if _, dup := seen[p]; dup {
			return fmt.Errorf("%w: duplicate player %d", ErrInvalidPlayers, p)
		}
		seen[p] = struct{}{}
	}
	return nil
}

func (s *Service) lookup(roomID string, userID int64) (*Game, int, error) {
	g, ok := s.manager.Get(roomID)
	if !ok {
		return nil, -1, ErrGameNotFound
	}
	seat, ok := g.SeatOf(userID)
	if !ok {
		return nil, -1, ErrPlayerNotInGame
	}
	return g, seat, nil
}

// HandleAction 处理玩家操作
func (s *Service) HandleAction(ctx context.Context, roomID string, userID int64, action Action) error {
	g, seat, err := s.lookup(roomID, userID)
	if err != nil {
		return err
	}
	if !g.IsFinished() {
		g.Touch()
	}

	// 认领不持有流程锁，多个座位可以同时提交
	switch action.Kind {
	case ActionClaim, ActionPass:
		claim := action.Claim
		if action.Kind == ActionPass {
			claim = goldmahjong.Claim{Kind: goldmahjong.ClaimPass}
		}
		if err := g.engine.SubmitClaim(seat, claim); err != nil {
			return err
		}
		s.tryResolveEarly(ctx, g)
		return nil
	}

	g.flowMu.Lock()
	defer g.flowMu.Unlock()

	var (
		event  string
		detail any
	)
	switch action.Kind {
	case ActionDraw:
		opts, err := g.engine.Draw()
		if err != nil {
			if errors.Is(err, goldmahjong.ErrWallExhausted) {
				s.afterChange(ctx, g, proto.EventGameFinished, nil)
			}
			return err
		}
		event, detail = proto.EventTileDrawn, map[string]any{"seat": opts.Seat}
	case ActionDiscard:
		res, err := g.engine.Discard(seat, action.Index)
		if err != nil {
			return err
		}
		event = proto.EventTileDiscarded
		detail = discardDetail{Seat: seat, Tile: res.Tile, ClaimWindowOpen: res.ClaimWindowOpen}
	case ActionSelfWin:
		result, err := g.engine.ConfirmSelfDrawWin(seat)
		if err != nil {
			return err
		}
		event, detail = proto.EventGameFinished, result
	case ActionSelfQuad:
		if _, err := g.engine.ConfirmSelfQuad(seat, action.Tile); err != nil {
			return err
		}
		event, detail = proto.EventSelfQuad, map[string]any{"seat": seat}
	default:
		return fmt.Errorf("%w: %s", ErrInvalidAction, action.Kind)
	}

	s.afterChange(ctx, g, event, detail)
	return nil
}

// EndGame 由房间侧终止对局，不经过玩家请求
func (s *Service) EndGame(ctx context.Context, roomID string, reason goldmahjong.FinishReason) error {
	g, ok := s.manager.Get(roomID)
	if !ok {
		return ErrGameNotFound
	}
	g.flowMu.Lock()
	defer g.flowMu.Unlock()

	if _, err := g.engine.EndGame(reason); err != nil {
		return err
	}
	s.logger.Info("Game ended by room", "roomId", roomID, "reason", reason)
	s.afterChange(ctx, g, proto.EventGameFinished, nil)
	return nil
}

// tryResolveEarly 所有可能胜出的座位都已表态时不再等待截止时间
func (s *Service) tryResolveEarly(ctx context.Context, g *Game) {
	if !g.engine.CanResolveEarly() {
		return
	}
	g.flowMu.Lock()
	defer g.flowMu.Unlock()

	if !g.engine.CanResolveEarly() {
		return
	}
	if err := s.resolveLocked(ctx, g); err != nil {
		s.logger.Error("Failed to resolve claims", "roomId", g.roomID, "error", err)
	}
}

// ResolveWindow 认领窗口截止，version 与当前窗口不符时忽略
func (s *Service) ResolveWindow(ctx context.Context, roomID string, version int64) error {
	g, ok := s.manager.Get(roomID)
	if !ok {
		return nil
	}
	g.flowMu.Lock()
	defer g.flowMu.Unlock()

	if version != g.windowSeq {
		s.logger.Debug("Stale claim deadline", "roomId", roomID, "version", version, "current", g.windowSeq)
		return nil
	}
	s.logger.Info("Claim window deadline reached", "roomId", roomID, "version", version)
	return s.resolveLocked(ctx, g)
}

func (s *Service) resolveLocked(ctx context.Context, g *Game) error {
	if g.engine.Status() != goldmahjong.StatusAwaitingClaims {
		return nil
	}
	outcome, err := g.engine.ResolveClaims()
	if err != nil {
		return err
	}

	var detail any
	if outcome != nil {
		d := resolvedDetail{
			Seat:  outcome.Seat,
			From:  outcome.From,
			Tile:  outcome.Tile,
			Claim: outcome.Claim.Kind,
		}
		if outcome.Claim.Kind == goldmahjong.ClaimSequence {
			d.Pair = outcome.Claim.Pair[:]
		}
		detail = d
	}
	s.afterChange(ctx, g, proto.EventClaimResolved, detail)
	return nil
}

// TurnTimeout 出牌超时，自动打出刚摸的牌，没有摸牌时打出最后一张暗牌
func (s *Service) TurnTimeout(ctx context.Context, roomID string, version int64) error {
	g, ok := s.manager.Get(roomID)
	if !ok {
		return nil
	}
	g.flowMu.Lock()
	defer g.flowMu.Unlock()

	if version != g.turnSeq || g.engine.Status() != goldmahjong.StatusPlaying {
		return nil
	}

	seat := g.engine.CurrentSeat()
	priv, err := g.engine.PrivateState(seat)
	if err != nil {
		return err
	}
	var index *int
	if priv.Drawn == nil {
		if len(priv.Concealed) == 0 {
			return nil
		}
		last := len(priv.Concealed) - 1
		index = &last
	}
	res, err := g.engine.Discard(seat, index)
	if err != nil {
		return fmt.Errorf("auto discard: %w", err)
	}

	s.logger.Info("Turn timed out, tile discarded automatically",
		"roomId", roomID,
		"seat", seat,
		"tile", res.Tile.String())
	s.afterChange(ctx, g, proto.EventAutoDiscard, discardDetail{
		Seat:            seat,
		Tile:            res.Tile,
		ClaimWindowOpen: res.ClaimWindowOpen,
	})
	return nil
}

// Snapshot 玩家视角的状态；游戏不在本节点内存中时从缓存读取公开状态
func (s *Service) Snapshot(ctx context.Context, roomID string, userID int64) (*Snapshot, error) {
	if g, ok := s.manager.Get(roomID); ok {
		seat, ok := g.SeatOf(userID)
		if !ok {
			return nil, ErrPlayerNotInGame
		}
		pub := g.engine.PublicState()
		priv, err := g.engine.PrivateState(seat)
		if err != nil {
			return nil, err
		}
		return &Snapshot{Public: &pub, Private: priv}, nil
	}

	if s.snapshots == nil {
		return nil, ErrGameNotFound
	}
	pub, err := s.snapshots.LoadPublic(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGameNotFound, err)
	}
	return &Snapshot{Public: pub}, nil
}

// afterChange 状态变化后推送事件、写快照、调整定时任务，结束时保存记录
// 调用方持有 g.flowMu
func (s *Service) afterChange(ctx context.Context, g *Game, event string, detail any) {
	state := g.engine.PublicState()
	s.publishRoom(ctx, g, event, roomEventData{State: state, Detail: detail})

	for seat := range g.players {
		priv, err := g.engine.PrivateState(seat)
		if err != nil {
			continue
		}
		s.publishSeat(ctx, g, seat, priv)
		if s.snapshots != nil {
			if err := s.snapshots.SavePrivate(ctx, g.roomID, seat, priv); err != nil {
				s.logger.Warn("Failed to cache private state", "roomId", g.roomID, "seat", seat, "error", err)
			}
		}
	}
	if s.snapshots != nil {
		if err := s.snapshots.SavePublic(ctx, g.roomID, &state); err != nil {
			s.logger.Warn("Failed to cache public state", "roomId", g.roomID, "error", err)
		}
	}

	s.schedule(g, state.Status)

	if state.Status == goldmahjong.StatusFinished {
		if event != proto.EventGameFinished {
			s.publishRoom(ctx, g, proto.EventGameFinished, roomEventData{State: state, Detail: state.Result})
		}
		s.record(ctx, g, &state)
	}
}

func (s *Service) publishRoom(ctx context.Context, g *Game, event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("Failed to marshal game event data", "error", err, "event", event)
		return
	}
	ev := &proto.GameEvent{
		Event:     event,
		RoomId:    g.roomID,
		Seat:      -1,
		Seq:       g.NextEventSeq(),
		Data:      payload,
		Timestamp: time.Now().UnixMilli(),
	}
	if err := s.publisher.PublishRoomEvent(ctx, g.roomID, ev); err != nil {
		s.logger.Warn("Failed to broadcast game event", "error", err, "event", event, "roomId", g.roomID)
	}
}

func (s *Service) publishSeat(ctx context.Context, g *Game, seat int, priv *goldmahjong.PrivateState) {
	payload, err := json.Marshal(priv)
	if err != nil {
		s.logger.Error("Failed to marshal private state", "error", err, "seat", seat)
		return
	}
	ev := &proto.GameEvent{
		Event:     proto.EventPrivateState,
		RoomId:    g.roomID,
		Seat:      seat,
		Seq:       g.NextEventSeq(),
		Data:      payload,
		Timestamp: time.Now().UnixMilli(),
	}
	if err := s.publisher.PublishSeatEvent(ctx, g.roomID, seat, ev); err != nil {
		s.logger.Warn("Failed to send private state", "error", err, "roomId", g.roomID, "seat", seat)
	}
}

// schedule 等待认领时挂认领截止任务，进行中挂出牌超时任务，结束时全部取消
func (s *Service) schedule(g *Game, status goldmahjong.Status) {
	if s.scheduler == nil {
		return
	}
	rules := g.engine.Rules()

	switch status {
	case goldmahjong.StatusAwaitingClaims:
		s.cancelTask(turnTaskID(g.roomID))
		g.windowSeq++
		if rules.ClaimWindow > 0 {
			s.addTask(task.NewTask(claimTaskID(g.roomID), g.roomID, g.windowSeq,
				task.DelaySeconds(rules.ClaimWindow), s.ResolveWindow))
		}
	case goldmahjong.StatusPlaying:
		s.cancelTask(claimTaskID(g.roomID))
		g.turnSeq++
		if rules.TurnTimeout > 0 {
			s.addTask(task.NewTask(turnTaskID(g.roomID), g.roomID, g.turnSeq,
				task.DelaySeconds(rules.TurnTimeout), s.TurnTimeout))
		}
	case goldmahjong.StatusFinished:
		s.cancelTask(claimTaskID(g.roomID))
		s.cancelTask(turnTaskID(g.roomID))
	}
}

func (s *Service) addTask(t *task.Task) {
	if err := s.scheduler.AddTask(t); err != nil {
		s.logger.Error("Failed to schedule task", "taskID", t.ID, "error", err)
	}
}

func (s *Service) cancelTask(id string) {
	if err := s.scheduler.RemoveTask(id); err != nil && !errors.Is(err, task.ErrTaskNotFound) {
		s.logger.Warn("Failed to cancel task", "taskID", id, "error", err)
	}
}

// record 对局结束后保存一次记录
func (s *Service) record(ctx context.Context, g *Game, state *goldmahjong.PublicState) {
	if g.recorded || s.records == nil || state.Result == nil {
		return
	}
	g.recorded = true

	result := state.Result
	rec := &model.GameRecord{
		RoomId:        g.roomID,
		GameType:      g.engine.GetGameType(),
		Players:       g.Players(),
		Reason:        string(result.Reason),
		WinnerSeat:    result.Winner,
		WinnerUserId:  g.UserAt(result.Winner),
		FromSeat:      result.From,
		WinningHand:   goldmahjong.TileCodes(result.WinningHand),
		WallRemaining: state.WallCount,
		StartedAt:     g.startedAt,
		FinishedAt:    time.Now(),
	}
	if result.WinningTile != nil {
		rec.WinningTile = result.WinningTile.String()
	}
	if state.Golden != nil {
		rec.Golden = state.Golden.String()
	}

	id, err := s.records.Save(ctx, rec)
	if err != nil {
		s.logger.Error("Failed to save game record", "roomId", g.roomID, "error", err)
		return
	}
	s.logger.Info("Game record saved", "roomId", g.roomID, "recordId", id, "reason", rec.Reason)
}

// evict 淘汰前终止未结束的对局并保存记录
func (s *Service) evict(g *Game) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	g.flowMu.Lock()
	defer g.flowMu.Unlock()

	if !g.IsFinished() {
		if _, err := g.engine.EndGame(goldmahjong.ReasonAborted); err == nil {
			s.afterChange(ctx, g, proto.EventGameFinished, nil)
		}
	}
	if s.scheduler != nil {
		s.cancelTask(claimTaskID(g.roomID))
		s.cancelTask(turnTaskID(g.roomID))
	}
}
