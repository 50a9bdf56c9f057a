package goldmahjong

import "slices"

// Hand 玩家手牌：暗牌、摸牌缓冲、已亮面子、弃牌
type Hand struct {
	tiles    []Tile          // 暗牌，保持有序
	counts   [KindCount]int8 // 牌种数量缓存
	drawn    Tile            // 刚摸到尚未并入的牌
	hasDrawn bool
	melds    []Meld
	discards []Tile
}

// NewHand 用起手牌创建手牌
func NewHand(tiles []Tile) *Hand {
	h := &Hand{tiles: make([]Tile, 0, len(tiles)+2)}
	for _, t := range tiles {
		h.add(t)
	}
	SortTiles(h.tiles)
	return h
}

func (h *Hand) add(t Tile) {
	h.tiles = append(h.tiles, t)
	h.counts[t.Index()]++
}

// remove 移除 n 张指定牌，数量不足时不做任何修改
func (h *Hand) remove(t Tile, n int) bool {
	if int(h.counts[t.Index()]) < n {
		return false
	}
	for range n {
		i := slices.Index(h.tiles, t)
		h.tiles = slices.Delete(h.tiles, i, i+1)
	}
	h.counts[t.Index()] -= int8(n)
	return true
}

// Concealed 暗牌副本（不含摸牌）
func (h *Hand) Concealed() []Tile {
	return slices.Clone(h.tiles)
}

// Size 暗牌张数（不含摸牌）
func (h *Hand) Size() int {
	return len(h.tiles)
}

// Count 暗牌中指定牌的张数（不含摸牌）
func (h *Hand) Count(t Tile) int {
	return int(h.counts[t.Index()])
}

// Drawn 摸牌缓冲
func (h *Hand) Drawn() (Tile, bool) {
	return h.drawn, h.hasDrawn
}

// Melds 已亮面子副本
func (h *Hand) Melds() []Meld {
	melds := make([]Meld, len(h.melds))
	for i, m := range h.melds {
		melds[i] = m.Clone()
	}
	return melds
}

// Discards 弃牌副本
func (h *Hand) Discards() []Tile {
	return slices.Clone(h.discards)
}

// TotalTiles 手里的牌总数：暗牌、摸牌、面子
func (h *Hand) TotalTiles() int {
	n := len(h.tiles)
	if h.hasDrawn {
		n++
	}
	for _, m := range h.melds {
		n += len(m.Tiles)
	}
	return n
}

// receive 摸牌进入缓冲
func (h *Hand) receive(t Tile) {
	if h.hasDrawn {
		h.integrateDrawn()
	}
	h.drawn = t
	h.hasDrawn = true
}

// integrateDrawn 摸牌并入暗牌
func (h *Hand) integrateDrawn() {
	if !h.hasDrawn {
		return
	}
	h.add(h.drawn)
	h.drawn = Tile{}
	h.hasDrawn = false
	SortTiles(h.tiles)
}

// withDrawn 暗牌加摸牌，用于胡牌判断
func (h *Hand) withDrawn() []Tile {
	tiles := slices.Clone(h.tiles)
	if h.hasDrawn {
		tiles = append(tiles, h.drawn)
	}
	return tiles
}

// discard 出牌：index 为空时打出摸牌，否则打出暗牌中第 index 张
// 出牌后摸牌并入暗牌
func (h *Hand) discard(index *int) (Tile, error) {
	var t Tile
	switch {
	case index == nil:
		if !h.hasDrawn {
			return Tile{}, ErrInvalidDiscard.WithContext("reason", "no drawn tile")
		}
		t = h.drawn
		h.drawn = Tile{}
		h.hasDrawn = false
	case *index < 0 || *index >= len(h.tiles):
		return Tile{}, ErrInvalidDiscard.WithContext("index", *index).WithContext("size", len(h.tiles))
	default:
		t = h.tiles[*index]
		h.tiles = slices.Delete(h.tiles, *index, *index+1)
		h.counts[t.Index()]--
		h.integrateDrawn()
	}
	h.discards = append(h.discards, t)
	return t, nil
}

// popLastDiscard 被认领的牌从弃牌中移走
func (h *Hand) popLastDiscard() (Tile, bool) {
	if len(h.discards) == 0 {
		return Tile{}, false
	}
	last := h.discards[len(h.discards)-1]
	h.discards = h.discards[:len(h.discards)-1]
	return last, true
}

// SequenceOptions 用打出的牌能吃的组合，每组为暗牌中的两张
func (h *Hand) SequenceOptions(t Tile) [][2]Tile {
	if t.IsJoker() || !t.Suit.IsNumbered() {
		return nil
	}
	var options [][2]Tile
	for _, offs := range [][2]int8{{-2, -1}, {-1, 1}, {1, 2}} {
		a := Tile{t.Suit, t.Rank + offs[0]}
		b := Tile{t.Suit, t.Rank + offs[1]}
		if a.Rank < 1 || b.Rank > 9 {
			continue
		}
		if h.Count(a) > 0 && h.Count(b) > 0 {
			options = append(options, [2]Tile{a, b})
		}
	}
	return options
}

// applySequence 吃
func (h *Hand) applySequence(claimed Tile, pair [2]Tile, from int) bool {
	if pair[0] == pair[1] || h.Count(pair[0]) < 1 || h.Count(pair[1]) < 1 {
		return false
	}
	h.remove(pair[0], 1)
	h.remove(pair[1], 1)
	h.melds = append(h.melds, newSequence(claimed, pair, from))
	return true
}

// applyTriplet 碰
func (h *Hand) applyTriplet(claimed Tile, from int) bool {
	if !h.remove(claimed, 2) {
		return false
	}
	h.melds = append(h.melds, newTriplet(claimed, from))
	return true
}

// applyQuad 明杠
func (h *Hand) applyQuad(claimed Tile, from int) bool {
	if !h.remove(claimed, 3) {
		return false
	}
	h.melds = append(h.melds, newQuad(claimed, from, false))
	return true
}

// SelfQuadOptions 轮到自己时可以开的杠：手里四张的暗杠，或补成已碰刻子的加杠
func (h *Hand) SelfQuadOptions() []Tile {
	var counts [KindCount]int8
	copy(counts[:], h.counts[:])
	if h.hasDrawn {
		counts[h.drawn.Index()]++
	}
	var options []Tile
	for i := 1; i < KindCount; i++ {
		if counts[i] == 4 {
			options = append(options, TileAt(i))
		}
	}
	for _, m := range h.melds {
		if m.Kind == MeldTriplet && counts[m.Tiles[0].Index()] > 0 {
			options = append(options, m.Tiles[0])
		}
	}
	return options
}

// applySelfQuad 暗杠或加杠，摸牌先并入暗牌；不满足条件时不做任何修改
func (h *Hand) applySelfQuad(t Tile) bool {
	if t.IsJoker() || !slices.Contains(h.SelfQuadOptions(), t) {
		return false
	}
	h.integrateDrawn()
	if h.Count(t) == 4 {
		h.remove(t, 4)
		h.melds = append(h.melds, newQuad(t, -1, true))
		return true
	}
	for i, m := range h.melds {
		if m.Kind == MeldTriplet && m.Tiles[0] == t {
			h.remove(t, 1)
			h.melds[i] = newQuad(t, m.From, false)
			return true
		}
	}
	return false
}
