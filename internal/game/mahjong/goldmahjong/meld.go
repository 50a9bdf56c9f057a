package goldmahjong

import "slices"

// MeldKind 面子类型
type MeldKind int8

const (
	MeldSequence MeldKind = iota // 顺子（吃）
	MeldTriplet                  // 刻子（碰）
	MeldQuad                     // 杠
)

func (k MeldKind) String() string {
	switch k {
	case MeldSequence:
		return "SEQUENCE"
	case MeldTriplet:
		return "TRIPLET"
	case MeldQuad:
		return "QUAD"
	default:
		return "UNKNOWN"
	}
}

// Meld 已亮出的面子，形成后不可修改
type Meld struct {
	Kind      MeldKind
	Tiles     []Tile
	Concealed bool // 暗杠
	From      int  // 被认领的出牌座位，自己组成时为 -1
}

func newSequence(claimed Tile, pair [2]Tile, from int) Meld {
	tiles := []Tile{claimed, pair[0], pair[1]}
	SortTiles(tiles)
	return Meld{Kind: MeldSequence, Tiles: tiles, From: from}
}

func newTriplet(t Tile, from int) Meld {
	return Meld{Kind: MeldTriplet, Tiles: []Tile{t, t, t}, From: from}
}

func newQuad(t Tile, from int, concealed bool) Meld {
	return Meld{Kind: MeldQuad, Tiles: []Tile{t, t, t, t}, From: from, Concealed: concealed}
}

// Clone 深拷贝
func (m Meld) Clone() Meld {
	m.Tiles = slices.Clone(m.Tiles)
	return m
}
