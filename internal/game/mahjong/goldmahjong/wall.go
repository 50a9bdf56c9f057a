package goldmahjong

import (
	"math/rand/v2"
	"slices"
)

// Wall 牌墙
type Wall struct {
	tiles   []Tile
	golden  Tile // 被翻出的金牌牌种
	hasGold bool
}

// RollDice 掷两颗骰子，结果 2-12
func RollDice(rng *rand.Rand) int {
	return rng.IntN(6) + rng.IntN(6) + 2
}

// BuildWall 洗牌并翻金
// 从牌墙尾部数第 dice 张为金，启用金时该牌种全部替换为金；
// 三金规则下翻出的那张从牌墙移除。
func BuildWall(rules RuleConfig, rng *rand.Rand, dice int) (*Wall, error) {
	if dice < 2 || dice > 12 {
		return nil, ErrInvalidRules.WithContext("dice", dice)
	}
	kinds := rules.Kinds()
	tiles := make([]Tile, 0, len(kinds)*4)
	for _, k := range kinds {
		for range 4 {
			tiles = append(tiles, k)
		}
	}
	if len(tiles) < dice {
		return nil, ErrInsufficientTiles.WithContext("wallSize", len(tiles))
	}
	rng.Shuffle(len(tiles), func(i, j int) {
		tiles[i], tiles[j] = tiles[j], tiles[i]
	})

	w := &Wall{tiles: tiles}
	if !rules.Wildcard {
		return w, nil
	}

	pos := len(tiles) - dice
	w.golden = tiles[pos]
	w.hasGold = true
	for i, t := range tiles {
		if t == w.golden {
			tiles[i] = Joker
		}
	}
	if rules.WildcardCount == 3 {
		w.tiles = slices.Delete(tiles, pos, pos+1)
	}
	return w, nil
}

// NewWallFromTiles 用指定顺序构造牌墙，用于测试与牌局回放
func NewWallFromTiles(tiles []Tile, golden *Tile) *Wall {
	w := &Wall{tiles: slices.Clone(tiles)}
	if golden != nil {
		w.golden = *golden
		w.hasGold = true
	}
	return w
}

// Golden 返回金牌牌种
func (w *Wall) Golden() (Tile, bool) {
	return w.golden, w.hasGold
}

// Remaining 剩余张数
func (w *Wall) Remaining() int {
	return len(w.tiles)
}

// Tiles 剩余牌副本
func (w *Wall) Tiles() []Tile {
	return slices.Clone(w.tiles)
}

// Deal 依次给每个座位发 handSize 张牌
func (w *Wall) Deal(handSize, players int) ([][]Tile, error) {
	need := handSize * players
	if need > len(w.tiles) {
		return nil, ErrInsufficientTiles.
			WithContext("need", need).
			WithContext("remaining", len(w.tiles))
	}
	hands := make([][]Tile, players)
	for i := range players {
		hand := slices.Clone(w.tiles[i*handSize : (i+1)*handSize])
		SortTiles(hand)
		hands[i] = hand
	}
	w.tiles = w.tiles[need:]
	return hands, nil
}

// Draw 从牌墙头部摸一张，牌墙空时 ok 为 false
func (w *Wall) Draw() (tile Tile, ok bool) {
	if len(w.tiles) == 0 {
		return Tile{}, false
	}
	tile = w.tiles[0]
	w.tiles = w.tiles[1:]
	return tile, true
}
