package goldmahjong

import (
	"log/slog"
	"slices"
	"sync"
)

// ClaimKind 认领类型
type ClaimKind int8

const (
	ClaimWin      ClaimKind = iota // 胡
	ClaimQuad                      // 杠
	ClaimTriplet                   // 碰
	ClaimSequence                  // 吃
	ClaimPass                      // 过
)

func (k ClaimKind) String() string {
	switch k {
	case ClaimWin:
		return "WIN"
	case ClaimQuad:
		return "QUAD"
	case ClaimTriplet:
		return "TRIPLET"
	case ClaimSequence:
		return "SEQUENCE"
	case ClaimPass:
		return "PASS"
	default:
		return "UNKNOWN"
	}
}

// MarshalText 实现 encoding.TextMarshaler
func (k ClaimKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (k *ClaimKind) UnmarshalText(b []byte) error {
	v, ok := ParseClaimKind(string(b))
	if !ok {
		return ErrInvalidClaim.WithContext("claim", string(b))
	}
	*k = v
	return nil
}

// ParseClaimKind 解析认领类型
func ParseClaimKind(s string) (ClaimKind, bool) {
	for k := ClaimWin; k <= ClaimPass; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// 固定优先级，数值越小越优先；胡的优先级为 0..n-2，按出牌者下家起的距离
const (
	priorityQuad     = 5
	priorityTriplet  = 6
	prioritySequence = 7
	priorityNone     = 10
)

// Claim 一次认领提交
type Claim struct {
	Kind ClaimKind
	Pair [2]Tile // 仅吃牌时有效，为自己暗牌中的两张
}

// SeatEligibility 某个座位对当前弃牌可做的操作快照
type SeatEligibility struct {
	Seat      int         `json:"seat"`
	Kinds     []ClaimKind `json:"kinds"`
	Sequences [][2]Tile   `json:"sequences,omitempty"`
}

// Can 是否可以做某种认领
func (e SeatEligibility) Can(kind ClaimKind) bool {
	return slices.Contains(e.Kinds, kind)
}

// Outcome 认领裁决结果
type Outcome struct {
	Seat  int   // 认领者
	From  int   // 出牌者
	Tile  Tile  // 被认领的牌
	Claim Claim // 胜出的认领
}

// ClaimWindow 一张弃牌的认领窗口
// 各座位可并发提交，窗口自身的锁保证每个座位至多一次提交
type ClaimWindow struct {
	mu sync.Mutex

	tile        Tile
	discarder   int
	priorities  map[ClaimKind]map[int]int // 认领类型 -> 座位 -> 优先级
	eligible    map[int]SeatEligibility
	submissions map[int]Claim
	closed      bool

	logger *slog.Logger
}

// ComputeEligibility 计算除出牌者外每个座位对弃牌可做的认领
// 返回的窗口在没有任何座位可认领时为空
func ComputeEligibility(tile Tile, discarder int, hands []*Hand, rules RuleConfig) *ClaimWindow {
	n := len(hands)
	w := &ClaimWindow{
		tile:        tile,
		discarder:   discarder,
		priorities:  make(map[ClaimKind]map[int]int),
		eligible:    make(map[int]SeatEligibility),
		submissions: make(map[int]Claim),
		logger:      slog.Default().With("component", "ClaimWindow"),
	}

	next := (discarder + 1) % n
	for seat, hand := range hands {
		if seat == discarder {
			continue
		}
		e := SeatEligibility{Seat: seat}

		if canWinWith(hand, tile, rules) {
			w.set(ClaimWin, seat, distance(discarder, seat, n))
			e.Kinds = append(e.Kinds, ClaimWin)
		}
		if !tile.IsJoker() {
			if hand.Count(tile) == 3 {
				w.set(ClaimQuad, seat, priorityQuad)
				e.Kinds = append(e.Kinds, ClaimQuad)
			}
			if hand.Count(tile) >= 2 {
				w.set(ClaimTriplet, seat, priorityTriplet)
				e.Kinds = append(e.Kinds, ClaimTriplet)
			}
		}
		if seat == next {
			if options := hand.SequenceOptions(tile); len(options) > 0 {
				w.set(ClaimSequence, seat, prioritySequence)
				e.Kinds = append(e.Kinds, ClaimSequence)
				e.Sequences = options
			}
		}

		if len(e.Kinds) > 0 {
			w.eligible[seat] = e
		}
	}

	if !w.Empty() {
		w.logger.Debug("Claim window opened",
			"tile", tile.String(),
			"discarder", discarder,
			"eligibleSeats", len(w.eligible))
	}
	return w
}

// distance 出牌者下家为 0，依次递增
func distance(discarder, seat, n int) int {
	return (seat - discarder - 1 + n) % n
}

func (w *ClaimWindow) set(kind ClaimKind, seat, priority int) {
	m, ok := w.priorities[kind]
	if !ok {
		m = make(map[int]int)
		w.priorities[kind] = m
	}
	m[seat] = priority
}

// Empty 没有任何座位可以认领
func (w *ClaimWindow) Empty() bool {
	return len(w.priorities) == 0
}

// Tile 被认领的弃牌
func (w *ClaimWindow) Tile() Tile {
	return w.tile
}

// Discarder 出牌座位
func (w *ClaimWindow) Discarder() int {
	return w.discarder
}

// Eligibility 各座位可认领操作的快照，按座位排序
func (w *ClaimWindow) Eligibility() []SeatEligibility {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	out := make([]SeatEligibility, 0, len(w.eligible))
	for _, e := range w.eligible {
		out = append(out, SeatEligibility{
			Seat:      e.Seat,
			Kinds:     slices.Clone(e.Kinds),
			Sequences: slices.Clone(e.Sequences),
		})
	}
	slices.SortFunc(out, func(a, b SeatEligibility) int { return a.Seat - b.Seat })
	return out
}

// Submit 提交认领，可被不同座位并发调用
func (w *ClaimWindow) Submit(seat int, claim Claim) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrOutOfTurn.WithContext("seat", seat)
	}
	e, ok := w.eligible[seat]
	if !ok {
		return ErrOutOfTurn.WithContext("seat", seat)
	}
	if _, dup := w.submissions[seat]; dup {
		return ErrAlreadyClaimed.WithContext("seat", seat)
	}

	switch claim.Kind {
	case ClaimPass:
	case ClaimSequence:
		if !e.Can(ClaimSequence) {
			return ErrInvalidClaim.WithContext("seat", seat).WithContext("claim", claim.Kind.String())
		}
		pair := claim.Pair
		if pair[1].Compare(pair[0]) < 0 {
			pair[0], pair[1] = pair[1], pair[0]
		}
		if !slices.Contains(e.Sequences, pair) {
			return ErrInvalidClaim.WithContext("seat", seat).WithContext("pair", TileCodes(pair[:]))
		}
		claim.Pair = pair
	case ClaimWin, ClaimQuad, ClaimTriplet:
		if !e.Can(claim.Kind) {
			return ErrInvalidClaim.WithContext("seat", seat).WithContext("claim", claim.Kind.String())
		}
		claim.Pair = [2]Tile{}
	default:
		return ErrInvalidClaim.WithContext("seat", seat).WithContext("claim", int(claim.Kind))
	}

	w.submissions[seat] = claim
	w.logger.Info("Claim submitted", "seat", seat, "claim", claim.Kind.String())
	return nil
}

// priorityOf 已提交认领的优先级，过牌不参与裁决
func (w *ClaimWindow) priorityOf(seat int, claim Claim) int {
	if claim.Kind == ClaimPass {
		return priorityNone
	}
	if p, ok := w.priorities[claim.Kind][seat]; ok {
		return p
	}
	return priorityNone
}

// bestPossible 座位在本窗口内能达到的最高优先级
func (w *ClaimWindow) bestPossible(seat int) int {
	best := priorityNone
	for _, seats := range w.priorities {
		if p, ok := seats[seat]; ok && p < best {
			best = p
		}
	}
	return best
}

// CanResolveEarly 已提交的最优认领不可能再被尚未提交的座位超过时返回 true
func (w *ClaimWindow) CanResolveEarly() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return false
	}
	best := priorityNone
	for seat, c := range w.submissions {
		if p := w.priorityOf(seat, c); p < best {
			best = p
		}
	}
	for seat := range w.eligible {
		if _, done := w.submissions[seat]; done {
			continue
		}
		if w.bestPossible(seat) < best {
			return false
		}
	}
	return true
}

// Submitted 已提交的座位数
func (w *ClaimWindow) Submitted() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.submissions)
}

// Close 选出优先级最高的提交并关闭窗口，无论是否有结果都清空窗口
// 再次调用返回 nil
func (w *ClaimWindow) Close() *Outcome {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	best, bestSeat := priorityNone, -1
	var bestClaim Claim
	for seat, c := range w.submissions {
		p := w.priorityOf(seat, c)
		if p < best || (p == best && p < priorityNone && seat < bestSeat) {
			best, bestSeat, bestClaim = p, seat, c
		}
	}

	w.priorities = map[ClaimKind]map[int]int{}
	w.eligible = map[int]SeatEligibility{}
	w.submissions = map[int]Claim{}

	if bestSeat < 0 {
		return nil
	}
	return &Outcome{Seat: bestSeat, From: w.discarder, Tile: w.tile, Claim: bestClaim}
}
