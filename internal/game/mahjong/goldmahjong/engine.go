package goldmahjong

import (
	"log/slog"
	"math/rand/v2"
	"slices"
)

// Engine 金麻将回合引擎
// 非并发安全，由外层包装串行化所有修改操作；SubmitClaim 只读引擎字段，
// 并发提交由认领窗口自身的锁保护。
type Engine struct {
	rules RuleConfig
	names []string

	wall    *Wall
	hands   []*Hand
	status  Status
	current int

	mustDiscard bool         // 当前座位已摸牌或刚吃碰，需要出牌
	turn        *TurnOptions // 当前座位的自身操作快照
	window      *ClaimWindow
	result      *Result

	initialTotal int // 开局时牌墙加手牌的总张数

	logger *slog.Logger
}

// NewEngine 创建引擎，规则在此校验
func NewEngine(rules RuleConfig, names []string) (*Engine, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if len(names) != rules.PlayerCount {
		return nil, ErrInvalidRules.
			WithContext("playerCount", rules.PlayerCount).
			WithContext("names", len(names))
	}
	return &Engine{
		rules:  rules,
		names:  slices.Clone(names),
		status: StatusWaiting,
		logger: slog.Default().With("component", "GoldMahjongEngine"),
	}, nil
}

// Start 洗牌、翻金、发牌，庄家为 0 号座位；庄家的第一张牌由 DrawForCurrentSeat 摸
func (e *Engine) Start(rng *rand.Rand) (*PublicState, error) {
	if e.status != StatusWaiting {
		return nil, ErrGameAlreadyStarted.WithContext("status", e.status.String())
	}
	dice := RollDice(rng)
	wall, err := BuildWall(e.rules, rng, dice)
	if err != nil {
		return nil, err
	}
	return e.StartWithWall(wall)
}

// StartWithWall 用给定牌墙开局，用于牌局回放与测试
func (e *Engine) StartWithWall(wall *Wall) (*PublicState, error) {
	if e.status != StatusWaiting {
		return nil, ErrGameAlreadyStarted.WithContext("status", e.status.String())
	}
	dealt, err := wall.Deal(e.rules.HandSize, e.rules.PlayerCount)
	if err != nil {
		return nil, err
	}

	e.wall = wall
	e.hands = make([]*Hand, len(dealt))
	for i, tiles := range dealt {
		e.hands[i] = NewHand(tiles)
	}
	e.current = 0
	e.status = StatusPlaying
	e.initialTotal = e.TileTotal()

	golden, _ := wall.Golden()
	e.logger.Info("Game started",
		"players", len(e.hands),
		"golden", golden.String(),
		"wallCount", wall.Remaining())

	state := e.PublicState()
	return &state, nil
}

// checkMutable 对局必须已开始且未结束
func (e *Engine) checkMutable() error {
	switch e.status {
	case StatusWaiting:
		return ErrGameNotStarted
	case StatusFinished:
		return ErrGameAlreadyFinished
	}
	return nil
}

func (e *Engine) checkSeat(seat int) error {
	if seat < 0 || seat >= len(e.hands) {
		return ErrInvalidSeat.WithContext("seat", seat)
	}
	return nil
}

// checkTurn 必须是进行中状态下的当前座位
func (e *Engine) checkTurn(seat int) error {
	if err := e.checkMutable(); err != nil {
		return err
	}
	if err := e.checkSeat(seat); err != nil {
		return err
	}
	if e.status != StatusPlaying || seat != e.current {
		return ErrOutOfTurn.
			WithContext("seat", seat).
			WithContext("current", e.current).
			WithContext("status", e.status.String())
	}
	return nil
}

// DrawForCurrentSeat 当前座位摸牌，只在庄家首轮或当前座位尚未摸牌时可用
// 牌墙空时对局以荒庄结束并返回 ErrWallExhausted
func (e *Engine) DrawForCurrentSeat() (*TurnOptions, error) {
	if err := e.checkTurn(e.current); err != nil {
		return nil, err
	}
	if e.mustDiscard {
		return nil, ErrOutOfTurn.WithContext("seat", e.current).WithContext("reason", "must discard")
	}
	opts := e.startTurn(e.current)
	if opts == nil {
		return nil, ErrWallExhausted
	}
	return opts, nil
}

// startTurn 给座位摸一张牌并计算自摸、暗杠选项；牌墙空时荒庄并返回 nil
func (e *Engine) startTurn(seat int) *TurnOptions {
	e.current = seat
	e.turn = nil
	tile, ok := e.wall.Draw()
	if !ok {
		e.logger.Info("Wall exhausted", "seat", seat)
		e.finish(ReasonDraw, -1, -1, nil)
		return nil
	}
	e.hands[seat].receive(tile)
	e.mustDiscard = true
	e.turn = e.turnOptions(seat)
	e.turn.Drawn = &tile

	e.logger.Debug("Tile drawn",
		"seat", seat,
		"tile", tile.String(),
		"wallCount", e.wall.Remaining(),
		"canSelfWin", e.turn.CanSelfWin)
	return e.cloneTurn()
}

func (e *Engine) turnOptions(seat int) *TurnOptions {
	h := e.hands[seat]
	return &TurnOptions{
		Seat:       seat,
		CanSelfWin: canSelfWin(h, e.rules),
		SelfQuads:  h.SelfQuadOptions(),
	}
}

func (e *Engine) cloneTurn() *TurnOptions {
	if e.turn == nil {
		return nil
	}
	t := *e.turn
	t.SelfQuads = slices.Clone(t.SelfQuads)
	if t.Drawn != nil {
		drawn := *t.Drawn
		t.Drawn = &drawn
	}
	return &t
}

// Discard 出牌，index 为空时打出刚摸的牌
// 有人可认领时进入等待认领状态，否则直接轮到下家摸牌
func (e *Engine) Discard(seat int, index *int) (*DiscardResult, error) {
	if err := e.checkTurn(seat); err != nil {
		return nil, err
	}
	if !e.mustDiscard {
		return nil, ErrOutOfTurn.WithContext("seat", seat).WithContext("reason", "must draw first")
	}
	tile, err := e.hands[seat].discard(index)
	if err != nil {
		return nil, err
	}
	e.mustDiscard = false
	e.turn = nil

	e.logger.Info("Tile discarded", "seat", seat, "tile", tile.String())

	window := ComputeEligibility(tile, seat, e.hands, e.rules)
	if !window.Empty() {
		e.window = window
		e.status = StatusAwaitingClaims
		return &DiscardResult{Tile: tile, ClaimWindowOpen: true}, nil
	}

	next := e.startTurn(e.nextSeat(seat))
	return &DiscardResult{Tile: tile, Next: next}, nil
}

func (e *Engine) nextSeat(seat int) int {
	return (seat + 1) % len(e.hands)
}

// Eligibility 当前认领窗口中各座位可做的操作
func (e *Engine) Eligibility() []SeatEligibility {
	if e.window == nil {
		return nil
	}
	return e.window.Eligibility()
}

// SubmitClaim 提交认领；可与其他座位的提交并发执行
func (e *Engine) SubmitClaim(seat int, claim Claim) error {
	if err := e.checkMutable(); err != nil {
		return err
	}
	if err := e.checkSeat(seat); err != nil {
		return err
	}
	w := e.window
	if e.status != StatusAwaitingClaims || w == nil {
		return ErrOutOfTurn.WithContext("seat", seat).WithContext("status", e.status.String())
	}
	return w.Submit(seat, claim)
}

// CanResolveEarly 认领窗口是否可以提前裁决
func (e *Engine) CanResolveEarly() bool {
	w := e.window
	return w != nil && w.CanResolveEarly()
}

// ResolveClaims 裁决认领窗口并推进回合；窗口已清空时返回 nil 且不做任何修改
func (e *Engine) ResolveClaims() (*Outcome, error) {
	if e.window == nil {
		return nil, nil
	}
	outcome := e.window.Close()
	discarder := e.window.Discarder()
	e.window = nil
	e.status = StatusPlaying

	if outcome == nil {
		e.logger.Info("No claim accepted", "discarder", discarder)
		e.startTurn(e.nextSeat(discarder))
		return nil, nil
	}

	e.applyOutcome(outcome)
	return outcome, nil
}

// applyOutcome 认领的牌从出牌者弃牌中移走，交给认领者
func (e *Engine) applyOutcome(o *Outcome) {
	if _, ok := e.hands[o.From].popLastDiscard(); !ok {
		panic("goldmahjong: claimed discard missing from discarder's pile")
	}
	hand := e.hands[o.Seat]

	e.logger.Info("Claim accepted",
		"seat", o.Seat,
		"from", o.From,
		"claim", o.Claim.Kind.String(),
		"tile", o.Tile.String())

	var applied bool
	switch o.Claim.Kind {
	case ClaimWin:
		hand.add(o.Tile)
		SortTiles(hand.tiles)
		e.current = o.Seat
		tile := o.Tile
		e.finish(ReasonDiscardWin, o.Seat, o.From, &tile)
		return
	case ClaimQuad:
		applied = hand.applyQuad(o.Tile, o.From)
	case ClaimTriplet:
		applied = hand.applyTriplet(o.Tile, o.From)
	case ClaimSequence:
		applied = hand.applySequence(o.Tile, o.Claim.Pair, o.From)
	}
	if !applied {
		panic("goldmahjong: accepted claim no longer matches claimant's hand")
	}

	e.current = o.Seat
	if hand.Size() == 0 {
		e.logger.Info("Claimant has no tile left to discard", "seat", o.Seat)
		e.finish(ReasonDraw, -1, -1, nil)
		return
	}
	if o.Claim.Kind == ClaimQuad {
		e.startTurn(o.Seat)
		return
	}
	e.mustDiscard = true
	e.turn = &TurnOptions{Seat: o.Seat, SelfQuads: hand.SelfQuadOptions()}
}

// ConfirmSelfDrawWin 自摸胡
func (e *Engine) ConfirmSelfDrawWin(seat int) (*Result, error) {
	if err := e.checkTurn(seat); err != nil {
		return nil, err
	}
	if e.turn == nil || !e.turn.CanSelfWin {
		return nil, ErrInvalidClaim.WithContext("seat", seat).WithContext("claim", "SELF_DRAWN_WIN")
	}
	h := e.hands[seat]
	drawn, _ := h.Drawn()
	h.integrateDrawn()
	e.finish(ReasonSelfDrawnWin, seat, -1, &drawn)
	r := *e.result
	return &r, nil
}

// ConfirmSelfQuad 暗杠或加杠，杠后补摸一张
// 补摸时牌墙已空则荒庄，返回 nil 选项
func (e *Engine) ConfirmSelfQuad(seat int, tile Tile) (*TurnOptions, error) {
	if err := e.checkTurn(seat); err != nil {
		return nil, err
	}
	if !e.mustDiscard || e.turn == nil || !slices.Contains(e.turn.SelfQuads, tile) {
		return nil, ErrInvalidClaim.WithContext("seat", seat).WithContext("tile", tile.String())
	}
	if !e.hands[seat].applySelfQuad(tile) {
		return nil, ErrInvalidClaim.WithContext("seat", seat).WithContext("tile", tile.String())
	}
	e.logger.Info("Self quad declared", "seat", seat)
	return e.startTurn(seat), nil
}

// EndGame 外部终止对局
func (e *Engine) EndGame(reason FinishReason) (*PublicState, error) {
	if e.status == StatusFinished {
		return nil, ErrGameAlreadyFinished
	}
	if reason == "" {
		reason = ReasonAborted
	}
	if e.window != nil {
		e.window.Close()
		e.window = nil
	}
	e.finish(reason, -1, -1, nil)
	state := e.PublicState()
	return &state, nil
}

// finish 结束对局并记录结果
func (e *Engine) finish(reason FinishReason, winner, from int, tile *Tile) {
	e.status = StatusFinished
	e.mustDiscard = false
	e.turn = nil
	e.result = &Result{Reason: reason, Winner: winner, From: from, WinningTile: tile}
	if winner >= 0 {
		e.result.WinningHand = e.hands[winner].withDrawn()
		SortTiles(e.result.WinningHand)
	}
	e.logger.Info("Game finished", "reason", string(reason), "winner", winner)
}

// Status 对局状态
func (e *Engine) Status() Status {
	return e.status
}

// CurrentSeat 当前行动座位
func (e *Engine) CurrentSeat() int {
	return e.current
}

// Rules 对局规则
func (e *Engine) Rules() RuleConfig {
	return e.rules
}

// Result 对局结果，未结束时为 nil
func (e *Engine) Result() *Result {
	if e.result == nil {
		return nil
	}
	r := *e.result
	r.WinningHand = slices.Clone(r.WinningHand)
	return &r
}

// TileTotal 牌墙、手牌、面子、弃牌的总张数，开局后恒定
func (e *Engine) TileTotal() int {
	total := 0
	if e.wall != nil {
		total += e.wall.Remaining()
	}
	for _, h := range e.hands {
		total += h.TotalTiles() + len(h.discards)
	}
	return total
}

// InitialTotal 开局时的总张数
func (e *Engine) InitialTotal() int {
	return e.initialTotal
}

// PublicState 公开状态，暗杠不露牌面，手牌只给张数
func (e *Engine) PublicState() PublicState {
	state := PublicState{
		Status:      e.status,
		CurrentSeat: e.current,
		Seats:       make([]SeatView, 0, len(e.hands)),
		Result:      e.Result(),
	}
	if e.wall != nil {
		state.WallCount = e.wall.Remaining()
		if g, ok := e.wall.Golden(); ok {
			state.Golden = &g
		}
	}
	for i, h := range e.hands {
		_, hasDrawn := h.Drawn()
		state.Seats = append(state.Seats, SeatView{
			Seat:      i,
			Name:      e.names[i],
			Active:    e.status != StatusFinished && i == e.current,
			HasDrawn:  hasDrawn,
			HandCount: h.Size(),
			Melds:     meldViews(h.melds, true),
			Discards:  h.Discards(),
		})
	}
	return state
}

// PrivateState 座位的私有状态：暗牌、摸牌、可选操作
func (e *Engine) PrivateState(seat int) (*PrivateState, error) {
	if err := e.checkSeat(seat); err != nil {
		return nil, err
	}
	h := e.hands[seat]
	ps := &PrivateState{
		Seat:      seat,
		Concealed: h.Concealed(),
		Melds:     meldViews(h.melds, false),
		Discards:  h.Discards(),
	}
	if d, ok := h.Drawn(); ok {
		ps.Drawn = &d
	}
	if e.status == StatusPlaying && seat == e.current {
		ps.Turn = e.cloneTurn()
	}
	if e.status == StatusAwaitingClaims {
		for _, el := range e.Eligibility() {
			if el.Seat == seat {
				ps.Claims = &el
			}
		}
	}
	return ps, nil
}

// SeatCount 座位数
func (e *Engine) SeatCount() int {
	return e.rules.PlayerCount
}
