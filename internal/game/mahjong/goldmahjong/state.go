package goldmahjong

import "fmt"

// Status 对局状态
type Status int8

const (
	StatusWaiting        Status = iota // 等待开局
	StatusPlaying                      // 进行中
	StatusAwaitingClaims               // 等待认领
	StatusFinished                     // 已结束
)

func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "waiting"
	case StatusPlaying:
		return "playing"
	case StatusAwaitingClaims:
		return "awaiting_claims"
	case StatusFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// MarshalText 实现 encoding.TextMarshaler
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (s *Status) UnmarshalText(b []byte) error {
	for v := StatusWaiting; v <= StatusFinished; v++ {
		if v.String() == string(b) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", b)
}

// FinishReason 结束原因
type FinishReason string

const (
	ReasonDiscardWin   FinishReason = "hu"            // 点炮胡
	ReasonSelfDrawnWin FinishReason = "self_drawn_hu" // 自摸
	ReasonDraw         FinishReason = "draw"          // 荒庄
	ReasonAborted      FinishReason = "aborted"       // 外部终止
)

// Result 对局结果
type Result struct {
	Reason      FinishReason `json:"reason"`
	Winner      int          `json:"winner"` // 无胜者时为 -1
	WinningHand []Tile       `json:"winningHand,omitempty"`
	WinningTile *Tile        `json:"winningTile,omitempty"`
	From        int          `json:"from"` // 点炮者，自摸或荒庄时为 -1
}

// TurnOptions 当前座位在出牌前可选的自身操作
// 碰、吃之后不摸牌，Drawn 为空
type TurnOptions struct {
	Seat       int    `json:"seat"`
	Drawn      *Tile  `json:"drawn,omitempty"`
	CanSelfWin bool   `json:"canSelfWin"`
	SelfQuads  []Tile `json:"selfQuads,omitempty"`
}

// DiscardResult 出牌结果
type DiscardResult struct {
	Tile            Tile         `json:"tile"`
	ClaimWindowOpen bool         `json:"claimWindowOpen"`
	Next            *TurnOptions `json:"-"` // 无人可认领时自动进入下家回合
}

// MeldView 面子视图
type MeldView struct {
	Kind      string `json:"kind"`
	Tiles     []Tile `json:"tiles,omitempty"`
	Size      int    `json:"size"`
	Concealed bool   `json:"concealed,omitempty"`
	From      int    `json:"from"`
}

func meldViews(melds []Meld, masked bool) []MeldView {
	views := make([]MeldView, 0, len(melds))
	for _, m := range melds {
		v := MeldView{
			Kind:      m.Kind.String(),
			Size:      len(m.Tiles),
			Concealed: m.Concealed,
			From:      m.From,
		}
		if !(masked && m.Concealed) {
			v.Tiles = m.Clone().Tiles
		}
		views = append(views, v)
	}
	return views
}

// SeatView 座位的公开信息
type SeatView struct {
	Seat      int        `json:"seat"`
	Name      string     `json:"name"`
	Active    bool       `json:"active"`
	HasDrawn  bool       `json:"hasDrawn"`
	HandCount int        `json:"handCount"`
	Melds     []MeldView `json:"melds"`
	Discards  []Tile     `json:"discards"`
}

// PublicState 所有人可见的对局状态
type PublicState struct {
	Status      Status     `json:"status"`
	CurrentSeat int        `json:"currentSeat"`
	WallCount   int        `json:"wallCount"`
	Golden      *Tile      `json:"golden,omitempty"`
	Seats       []SeatView `json:"seats"`
	Result      *Result    `json:"result,omitempty"`
}

// PrivateState 只发给本人的手牌信息
type PrivateState struct {
	Seat      int              `json:"seat"`
	Concealed []Tile           `json:"concealed"`
	Drawn     *Tile            `json:"drawn,omitempty"`
	Melds     []MeldView       `json:"melds"`
	Discards  []Tile           `json:"discards"`
	Turn      *TurnOptions     `json:"turn,omitempty"`
	Claims    *SeatEligibility `json:"claims,omitempty"`
}
