package goldmahjong

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smallRules 每人 4 张，方便构造牌局
func smallRules(players int) RuleConfig {
	r := DefaultRules()
	r.PlayerCount = players
	r.HandSize = 4
	return r
}

func seatNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = "player" + string(rune('1'+i))
	}
	return names
}

// stackedEngine 按座位顺序发牌，剩余部分为牌墙
func stackedEngine(t *testing.T, rules RuleConfig, wall string) *Engine {
	t.Helper()
	e, err := NewEngine(rules, seatNames(rules.PlayerCount))
	require.NoError(t, err)
	_, err = e.StartWithWall(NewWallFromTiles(tiles(wall), nil))
	require.NoError(t, err)
	return e
}

// discardTile 打出指定的牌，优先打摸到的那张
func discardTile(t *testing.T, e *Engine, seat int, code string) *DiscardResult {
	t.Helper()
	tile := MustParseTiles(code)[0]
	var index *int
	if d, ok := e.hands[seat].Drawn(); !ok || d != tile {
		i := slices.Index(e.hands[seat].Concealed(), tile)
		require.GreaterOrEqual(t, i, 0, "seat %d has no %s", seat, code)
		index = &i
	}
	res, err := e.Discard(seat, index)
	require.NoError(t, err)
	return res
}

func assertConserved(t *testing.T, e *Engine) {
	t.Helper()
	assert.Equal(t, e.InitialTotal(), e.TileTotal(), "tile conservation")
}

func TestNewEngine_Validation(t *testing.T) {
	_, err := NewEngine(DefaultRules(), seatNames(3))
	assert.True(t, errors.Is(err, ErrInvalidRules))

	bad := DefaultRules()
	bad.HandSize = 14
	_, err = NewEngine(bad, seatNames(4))
	assert.True(t, errors.Is(err, ErrInvalidRules))
}

func TestEngine_StartDefault(t *testing.T) {
	e, err := NewEngine(DefaultRules(), seatNames(4))
	require.NoError(t, err)

	state, err := e.Start(seeded(99))
	require.NoError(t, err)
	assert.Equal(t, StatusPlaying, state.Status)
	assert.Equal(t, 0, state.CurrentSeat)
	assert.Equal(t, 72, state.WallCount)
	require.NotNil(t, state.Golden)
	for _, s := range state.Seats {
		assert.Equal(t, 16, s.HandCount)
		assert.False(t, s.HasDrawn)
	}
	assert.Equal(t, 136, e.InitialTotal())

	_, err = e.Start(seeded(1))
	assert.True(t, errors.Is(err, ErrGameAlreadyStarted))
}

func TestEngine_StartThreeWildcards(t *testing.T) {
	rules := DefaultRules()
	rules.WildcardCount = 3
	e, err := NewEngine(rules, seatNames(4))
	require.NoError(t, err)
	_, err = e.Start(seeded(5))
	require.NoError(t, err)

	// 三金规则少一张牌，守恒以开局总数为准
	assert.Equal(t, 135, e.InitialTotal())
	assertConserved(t, e)
}

func TestEngine_OperationsBeforeStart(t *testing.T) {
	e, err := NewEngine(DefaultRules(), seatNames(4))
	require.NoError(t, err)

	_, err = e.DrawForCurrentSeat()
	assert.True(t, errors.Is(err, ErrGameNotStarted))
	_, err = e.Discard(0, nil)
	assert.True(t, errors.Is(err, ErrGameNotStarted))
	assert.True(t, errors.Is(e.SubmitClaim(0, Claim{Kind: ClaimPass}), ErrGameNotStarted))
}

func TestEngine_TurnOrderEnforced(t *testing.T) {
	e := stackedEngine(t, smallRules(2), "1o 4o 7o e  2t 5t 8t s  w n b")

	_, err := e.Discard(0, nil)
	assert.True(t, errors.Is(err, ErrOutOfTurn), "must draw before discarding")

	_, err = e.DrawForCurrentSeat()
	require.NoError(t, err)

	_, err = e.DrawForCurrentSeat()
	assert.True(t, errors.Is(err, ErrOutOfTurn), "cannot draw twice")

	_, err = e.Discard(1, nil)
	assert.True(t, errors.Is(err, ErrOutOfTurn))

	bad := 9
	_, err = e.Discard(0, &bad)
	assert.True(t, errors.Is(err, ErrInvalidDiscard))
	assertConserved(t, e)

	_, err = e.Discard(7, nil)
	assert.True(t, errors.Is(err, ErrInvalidSeat))
}

func TestEngine_NoClaimAdvancesAndExhaustsWall(t *testing.T) {
	e := stackedEngine(t, smallRules(2), "1o 4o 7o e  2t 5t 8t s  w n")

	opts, err := e.DrawForCurrentSeat()
	require.NoError(t, err)
	assert.Equal(t, 0, opts.Seat)
	assert.False(t, opts.CanSelfWin)
	require.NotNil(t, opts.Drawn)
	assert.Equal(t, West, *opts.Drawn)

	res := discardTile(t, e, 0, "w")
	assert.False(t, res.ClaimWindowOpen)
	require.NotNil(t, res.Next)
	assert.Equal(t, 1, res.Next.Seat)
	require.NotNil(t, res.Next.Drawn)
	assert.Equal(t, North, *res.Next.Drawn)
	assert.Equal(t, 1, e.CurrentSeat())
	_, hasDrawn := e.hands[1].Drawn()
	assert.True(t, hasDrawn)
	assertConserved(t, e)

	res = discardTile(t, e, 1, "n")
	assert.False(t, res.ClaimWindowOpen)
	assert.Nil(t, res.Next, "wall is empty")

	assert.Equal(t, StatusFinished, e.Status())
	result := e.Result()
	require.NotNil(t, result)
	assert.Equal(t, ReasonDraw, result.Reason)
	assert.Equal(t, -1, result.Winner)
	assertConserved(t, e)

	_, err = e.Discard(0, nil)
	assert.True(t, errors.Is(err, ErrGameAlreadyFinished))
	_, err = e.DrawForCurrentSeat()
	assert.True(t, errors.Is(err, ErrGameAlreadyFinished))
	_, err = e.EndGame(ReasonAborted)
	assert.True(t, errors.Is(err, ErrGameAlreadyFinished))
}

func TestEngine_DrawOnEmptyWall(t *testing.T) {
	e := stackedEngine(t, smallRules(2), "1o 4o 7o e  2t 5t 8t s")

	_, err := e.DrawForCurrentSeat()
	assert.True(t, errors.Is(err, ErrWallExhausted))
	assert.Equal(t, StatusFinished, e.Status())
	assert.Equal(t, ReasonDraw, e.Result().Reason)
}

func TestEngine_SelfDrawnWin(t *testing.T) {
	e := stackedEngine(t, smallRules(2), "1o 2o e e  5t 7t 9w s  3o")

	opts, err := e.DrawForCurrentSeat()
	require.NoError(t, err)
	assert.True(t, opts.CanSelfWin)

	_, err = e.ConfirmSelfDrawWin(1)
	assert.True(t, errors.Is(err, ErrOutOfTurn))

	result, err := e.ConfirmSelfDrawWin(0)
	require.NoError(t, err)
	assert.Equal(t, ReasonSelfDrawnWin, result.Reason)
	assert.Equal(t, 0, result.Winner)
	assert.Equal(t, -1, result.From)
	assert.Equal(t, []string{"1o", "2o", "3o", "e", "e"}, TileCodes(result.WinningHand))
	require.NotNil(t, result.WinningTile)
	assert.Equal(t, Dots(3), *result.WinningTile)
	assert.Equal(t, StatusFinished, e.Status())
	assertConserved(t, e)
}

func TestEngine_SelfDrawnWinRejectedWhenNotWinning(t *testing.T) {
	e := stackedEngine(t, smallRules(2), "1o 2o e e  5t 7t 9w s  4o")
	_, err := e.DrawForCurrentSeat()
	require.NoError(t, err)

	_, err = e.ConfirmSelfDrawWin(0)
	assert.True(t, errors.Is(err, ErrInvalidClaim))
	assert.Equal(t, StatusPlaying, e.Status())
}

func TestEngine_DiscardWinClaim(t *testing.T) {
	e := stackedEngine(t, smallRules(2), "3w 5t 7t 9w  1w 2w e e  s n")

	_, err := e.DrawForCurrentSeat()
	require.NoError(t, err)
	res := discardTile(t, e, 0, "3w")
	require.True(t, res.ClaimWindowOpen)
	assert.Equal(t, StatusAwaitingClaims, e.Status())

	el := e.Eligibility()
	require.Len(t, el, 1)
	assert.Equal(t, 1, el[0].Seat)
	assert.Equal(t, []ClaimKind{ClaimWin, ClaimSequence}, el[0].Kinds)

	_, err = e.Discard(0, nil)
	assert.True(t, errors.Is(err, ErrOutOfTurn), "no discards while claims are pending")

	require.NoError(t, e.SubmitClaim(1, Claim{Kind: ClaimWin}))
	assert.True(t, e.CanResolveEarly())

	outcome, err := e.ResolveClaims()
	require.NoError(t, err)
	require.NotNil(t, outcome)
	assert.Equal(t, ClaimWin, outcome.Claim.Kind)

	assert.Equal(t, StatusFinished, e.Status())
	result := e.Result()
	assert.Equal(t, ReasonDiscardWin, result.Reason)
	assert.Equal(t, 1, result.Winner)
	assert.Equal(t, 0, result.From)
	assert.Equal(t, []string{"1w", "2w", "3w", "e", "e"}, TileCodes(result.WinningHand))
	assert.Empty(t, e.hands[0].Discards(), "claimed tile leaves the discard pile")
	assertConserved(t, e)

	// 窗口已清空，再次裁决不做任何修改
	before := e.PublicState()
	outcome, err = e.ResolveClaims()
	assert.NoError(t, err)
	assert.Nil(t, outcome)
	assert.Equal(t, before, e.PublicState())
}

func TestEngine_QuadClaimReplacementDraw(t *testing.T) {
	e := stackedEngine(t, smallRules(4),
		"5o 9t 9w s  1t 3t 7w b  5o 5o 5o f  2w 4w 6w z  e n w")

	_, err := e.DrawForCurrentSeat()
	require.NoError(t, err)
	res := discardTile(t, e, 0, "5o")
	require.True(t, res.ClaimWindowOpen)

	require.NoError(t, e.SubmitClaim(2, Claim{Kind: ClaimQuad}))
	outcome, err := e.ResolveClaims()
	require.NoError(t, err)
	require.NotNil(t, outcome)
	assert.Equal(t, 2, outcome.Seat)

	assert.Equal(t, StatusPlaying, e.Status())
	assert.Equal(t, 2, e.CurrentSeat())
	melds := e.hands[2].Melds()
	require.Len(t, melds, 1)
	assert.Equal(t, MeldQuad, melds[0].Kind)
	assert.Equal(t, 0, melds[0].From)

	drawn, ok := e.hands[2].Drawn()
	require.True(t, ok, "quad claimant draws a replacement tile")
	assert.Equal(t, North, drawn)
	assertConserved(t, e)

	_ = discardTile(t, e, 2, "n")
	assert.Equal(t, 3, e.CurrentSeat())
	assertConserved(t, e)
}

func TestEngine_NoSubmissionAdvancesFromDiscarder(t *testing.T) {
	e := stackedEngine(t, smallRules(4),
		"5o 9t 9w s  1t 3t 7w b  5o 5o 1w f  2w 4w 6w z  e n w")

	_, err := e.DrawForCurrentSeat()
	require.NoError(t, err)
	res := discardTile(t, e, 0, "5o")
	require.True(t, res.ClaimWindowOpen)

	outcome, err := e.ResolveClaims()
	require.NoError(t, err)
	assert.Nil(t, outcome)
	assert.Equal(t, 1, e.CurrentSeat(), "rotation continues after the discarder")
	assert.Equal(t, []Tile{Dots(5)}, e.hands[0].Discards())
	assertConserved(t, e)
}

func TestEngine_SelfQuadConcealed(t *testing.T) {
	e := stackedEngine(t, smallRules(2), "e e e 1o  2t 5t 8t s  e w 3o")

	opts, err := e.DrawForCurrentSeat()
	require.NoError(t, err)
	assert.Equal(t, []Tile{East}, opts.SelfQuads)

	_, err = e.ConfirmSelfQuad(0, Dots(1))
	assert.True(t, errors.Is(err, ErrInvalidClaim))

	opts, err = e.ConfirmSelfQuad(0, East)
	require.NoError(t, err)
	require.NotNil(t, opts)
	assert.Equal(t, 0, e.CurrentSeat())

	drawn, ok := e.hands[0].Drawn()
	require.True(t, ok)
	assert.Equal(t, West, drawn)
	assert.Equal(t, []Tile{Dots(1)}, e.hands[0].Concealed())
	assertConserved(t, e)

	// 暗杠在公开状态中不露牌面
	pub := e.PublicState()
	require.Len(t, pub.Seats[0].Melds, 1)
	assert.True(t, pub.Seats[0].Melds[0].Concealed)
	assert.Nil(t, pub.Seats[0].Melds[0].Tiles)
	assert.Equal(t, 4, pub.Seats[0].Melds[0].Size)

	priv, err := e.PrivateState(0)
	require.NoError(t, err)
	assert.Len(t, priv.Melds[0].Tiles, 4)
}

func TestEngine_TripletThenPromotedQuad(t *testing.T) {
	e := stackedEngine(t, smallRules(2),
		"5o 9t 9w s  5o 5o 1t 7w  n  e  5o b w")

	// 0 号摸 n 打 5o，1 号碰
	_, err := e.DrawForCurrentSeat()
	require.NoError(t, err)
	res := discardTile(t, e, 0, "5o")
	require.True(t, res.ClaimWindowOpen)
	require.NoError(t, e.SubmitClaim(1, Claim{Kind: ClaimTriplet}))
	_, err = e.ResolveClaims()
	require.NoError(t, err)

	assert.Equal(t, 1, e.CurrentSeat())
	_, hasDrawn := e.hands[1].Drawn()
	assert.False(t, hasDrawn, "meld claimant discards without drawing")
	claimed, err := e.PrivateState(1)
	require.NoError(t, err)
	require.NotNil(t, claimed.Turn)
	assert.Nil(t, claimed.Turn.Drawn)
	_, err = e.DrawForCurrentSeat()
	assert.True(t, errors.Is(err, ErrOutOfTurn))

	// 1 号打 7w，0 号摸 e 打 e，1 号摸到第四张 5o 加杠
	_ = discardTile(t, e, 1, "7w")
	_ = discardTile(t, e, 0, "e")
	require.Equal(t, 1, e.CurrentSeat())
	priv, err := e.PrivateState(1)
	require.NoError(t, err)
	require.NotNil(t, priv.Turn)
	assert.Equal(t, []Tile{Dots(5)}, priv.Turn.SelfQuads)
	require.NotNil(t, priv.Turn.Drawn)
	assert.Equal(t, Dots(5), *priv.Turn.Drawn)

	_, err = e.ConfirmSelfQuad(1, Dots(5))
	require.NoError(t, err)
	melds := e.hands[1].Melds()
	require.Len(t, melds, 1)
	assert.Equal(t, MeldQuad, melds[0].Kind)
	assert.False(t, melds[0].Concealed)
	assert.Equal(t, 0, melds[0].From)
	assertConserved(t, e)
}

func TestEngine_SequenceClaim(t *testing.T) {
	e := stackedEngine(t, smallRules(2), "5o 9t 9w s  4o 6o 1t 7w  n b")

	_, err := e.DrawForCurrentSeat()
	require.NoError(t, err)
	_ = discardTile(t, e, 0, "5o")

	err = e.SubmitClaim(1, Claim{Kind: ClaimSequence, Pair: [2]Tile{Dots(4), Dots(7)}})
	assert.True(t, errors.Is(err, ErrInvalidClaim))
	require.NoError(t, e.SubmitClaim(1, Claim{Kind: ClaimSequence, Pair: [2]Tile{Dots(6), Dots(4)}}))

	outcome, err := e.ResolveClaims()
	require.NoError(t, err)
	require.NotNil(t, outcome)

	melds := e.hands[1].Melds()
	require.Len(t, melds, 1)
	assert.Equal(t, MeldSequence, melds[0].Kind)
	assert.Equal(t, []string{"4o", "5o", "6o"}, TileCodes(melds[0].Tiles))
	assert.Equal(t, []string{"1t", "7w"}, TileCodes(e.hands[1].Concealed()))
	assertConserved(t, e)
}

func TestEngine_SubmitOutsideWindow(t *testing.T) {
	e := stackedEngine(t, smallRules(2), "1o 4o 7o e  2t 5t 8t s  w n b")
	_, err := e.DrawForCurrentSeat()
	require.NoError(t, err)

	err = e.SubmitClaim(1, Claim{Kind: ClaimPass})
	assert.True(t, errors.Is(err, ErrOutOfTurn))
	assert.Nil(t, e.Eligibility())

	outcome, err := e.ResolveClaims()
	assert.NoError(t, err)
	assert.Nil(t, outcome)
}

func TestEngine_EndGame(t *testing.T) {
	e := stackedEngine(t, smallRules(2), "5o 9t 9w s  4o 6o 1t 7w  n b")
	_, err := e.DrawForCurrentSeat()
	require.NoError(t, err)
	_ = discardTile(t, e, 0, "5o")
	require.Equal(t, StatusAwaitingClaims, e.Status())

	state, err := e.EndGame("")
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, state.Status)
	assert.Equal(t, ReasonAborted, state.Result.Reason)
	assert.Nil(t, e.Eligibility())

	assert.True(t, errors.Is(e.SubmitClaim(1, Claim{Kind: ClaimPass}), ErrGameAlreadyFinished))
}

func TestEngine_PrivateStateIsolation(t *testing.T) {
	e := stackedEngine(t, smallRules(2), "5o 9t 9w s  4o 6o 1t 7w  n b")
	_, err := e.DrawForCurrentSeat()
	require.NoError(t, err)

	pub := e.PublicState()
	assert.True(t, pub.Seats[0].HasDrawn)
	assert.True(t, pub.Seats[0].Active)
	assert.Equal(t, 4, pub.Seats[0].HandCount)

	priv, err := e.PrivateState(0)
	require.NoError(t, err)
	require.NotNil(t, priv.Drawn)
	assert.Equal(t, North, *priv.Drawn)
	require.NotNil(t, priv.Turn)

	other, err := e.PrivateState(1)
	require.NoError(t, err)
	assert.Nil(t, other.Drawn)
	assert.Nil(t, other.Turn)

	_ = discardTile(t, e, 0, "5o")
	other, err = e.PrivateState(1)
	require.NoError(t, err)
	require.NotNil(t, other.Claims)
	assert.True(t, other.Claims.Can(ClaimSequence))

	_, err = e.PrivateState(5)
	assert.True(t, errors.Is(err, ErrInvalidSeat))
}

// 完整流程：136 张、四金、每人 16 张；0 号打出 5o，2 号可碰、下家 1 号可吃，碰优先
func TestEngine_EndToEndTripletBeatsSequence(t *testing.T) {
	golden := North
	pool := map[Tile]int{}
	for _, k := range DefaultRules().Kinds() {
		if k == golden {
			pool[Joker] += 4
			continue
		}
		pool[k] = 4
	}

	hands := []string{
		"5o 1o 1o 2o 2o 3o 3o 7t 7t 8t 8t 1w 1w 2w 2w e",
		"4o 6o 9o 9o 1t 1t 4t 4t 7w 7w 8w 8w s s b b",
		"5o 5o 9t 9t 3w 3w 5w 5w e e z z f f 2t 3t",
		"1o 1o 6o 6o 7o 7o 5t 5t 6t 6t 4w 4w 6w 6w w w",
	}
	var wall []Tile
	for _, h := range hands {
		for _, tile := range tiles(h) {
			require.Positive(t, pool[tile], "tile %s", tile)
			pool[tile]--
			wall = append(wall, tile)
		}
	}
	for i := 1; i < KindCount; i++ {
		k := TileAt(i)
		for ; pool[k] > 0; pool[k]-- {
			wall = append(wall, k)
		}
	}
	for ; pool[Joker] > 0; pool[Joker]-- {
		wall = append(wall, Joker)
	}
	require.Len(t, wall, 136)

	e, err := NewEngine(DefaultRules(), seatNames(4))
	require.NoError(t, err)
	state, err := e.StartWithWall(NewWallFromTiles(wall, &golden))
	require.NoError(t, err)
	assert.Equal(t, 72, state.WallCount)
	assert.Equal(t, North, *state.Golden)
	assert.Equal(t, 136, e.InitialTotal())

	_, err = e.DrawForCurrentSeat()
	require.NoError(t, err)
	res := discardTile(t, e, 0, "5o")
	require.True(t, res.ClaimWindowOpen)

	el := e.Eligibility()
	require.Len(t, el, 2)
	assert.Equal(t, SeatEligibility{Seat: 1, Kinds: []ClaimKind{ClaimSequence}, Sequences: [][2]Tile{{Dots(4), Dots(6)}}}, el[0])
	assert.Equal(t, SeatEligibility{Seat: 2, Kinds: []ClaimKind{ClaimTriplet}}, el[1], "only the next seat may claim a sequence")

	require.NoError(t, e.SubmitClaim(1, Claim{Kind: ClaimSequence, Pair: [2]Tile{Dots(4), Dots(6)}}))
	require.NoError(t, e.SubmitClaim(2, Claim{Kind: ClaimTriplet}))
	assert.True(t, e.CanResolveEarly())

	outcome, err := e.ResolveClaims()
	require.NoError(t, err)
	require.NotNil(t, outcome)
	assert.Equal(t, 2, outcome.Seat)
	assert.Equal(t, ClaimTriplet, outcome.Claim.Kind)
	assert.Equal(t, 2, e.CurrentSeat())
	assert.Equal(t, StatusPlaying, e.Status())
	assert.Empty(t, e.hands[0].Discards())
	assertConserved(t, e)

	// 碰牌后直接出牌，无人可认领时轮到 3 号
	_ = discardTile(t, e, 2, "z")
	assert.Equal(t, 3, e.CurrentSeat())
	assert.Equal(t, StatusPlaying, e.Status())
	assertConserved(t, e)
}
