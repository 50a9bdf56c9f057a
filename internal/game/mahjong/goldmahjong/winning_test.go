package goldmahjong

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func tiles(s string) []Tile {
	return MustParseTiles(strings.Fields(s)...)
}

func TestIsWinningHand(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name string
		hand string
		want bool
	}{
		{"pure sequences and pair", "1o 2o 3o 4o 5o 6o 7o 8o 9o 1t 1t 1t e e", true},
		{"triplets of honors", "e e e s s s b b b z z z 5w 5w", true},
		{"joker completes sequence gap", "1o joker 3o 4o 5o 6o 7o 8o 9o 1t 1t 1t e e", true},
		{"joker as pair partner", "1o 2o 3o 4o 5o 6o 7o 8o 9o 1t 1t 1t e joker", true},
		{"two jokers as pair", "1o 2o 3o 4o 5o 6o 7o 8o 9o 1t 1t 1t joker joker", true},
		{"joker below 8-9 run", "8o 9o joker 1t 1t 1t 5w 6w 7w e e e s s", true},
		{"joker extends honor triplet", "e e joker 1o 2o 3o 4t 5t 6t 7w 8w 9w n n", true},
		{"seventeen tiles", "1o 2o 3o 4o 5o 6o 7o 8o 9o 1t 2t 3t 4w 4w 4w z z", true},
		{"scattered tiles", "1o 2o 4o 5o 7o 8o 1t 3t 5t 7t 9t e s w", false},
		{"honors never form sequences", "e s w 1o 1o 1o 2o 2o 2o 3o 3o 3o 4o 4o", false},
		{"dragons never form sequences", "b f z 1o 2o 3o 4o 5o 6o 7o 8o 9o 1t 1t", false},
		{"sequence does not wrap suits", "8o 9o 1t 2o 3o 4o 5o 6o 7o 1w 1w 1w e e", false},
		{"wrong tile count", "1o 2o 3o e e e s", false},
		{"seven pairs disabled by default", "1o 1o 3o 3o 5o 5o 7o 7o 9o 9o e e s s", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsWinningHand(tiles(tt.hand), rules))
		})
	}
}

func TestIsWinningHand_ThreeWildcards(t *testing.T) {
	hand := tiles("joker joker joker 1o 3o 5o 7o 9o 1t e s w n b")
	rules := DefaultRules()
	assert.True(t, IsWinningHand(hand, rules))

	rules.ThreeWildcardWin = false
	assert.False(t, IsWinningHand(hand, rules))
}

func TestIsWinningHand_SevenPairs(t *testing.T) {
	// 六对、一张单牌、一张金
	hand := tiles("1o 1o 3o 3o 5o 5o 7o 7o 9o 9o e e s joker")

	rules := DefaultRules()
	rules.HandSize = 13
	rules.SevenPairs = true
	assert.True(t, IsWinningHand(hand, rules))

	rules.SevenPairs = false
	assert.False(t, IsWinningHand(hand, rules))

	// 十六张规则下七对不生效
	rules = DefaultRules()
	rules.SevenPairs = true
	assert.False(t, IsWinningHand(hand, rules))
}

func TestIsWinningHand_SevenPairsLeftoverJokersMustPair(t *testing.T) {
	rules := DefaultRules()
	rules.HandSize = 13
	rules.SevenPairs = true
	rules.ThreeWildcardWin = false

	// 两个单张用两金补齐
	assert.True(t, IsWinningHand(tiles("1o 1o 3o 3o 5o 5o 7o 7o 9o 9o e s joker joker"), rules))
	// 单张多于金
	assert.False(t, IsWinningHand(tiles("1o 1o 3o 3o 5o 5o 7o 7o 9o e s w n joker"), rules))
}

func TestIsWinningHand_DoesNotMutateInput(t *testing.T) {
	hand := tiles("1o joker 3o 4o 5o 6o 7o 8o 9o 1t 1t 1t e e")
	before := append([]Tile(nil), hand...)
	IsWinningHand(hand, DefaultRules())
	assert.Equal(t, before, hand)
}

// 随机生成 n 组面子加一对，再把若干张换成金，必须判定为胡
func TestIsWinningHand_RandomDecomposable(t *testing.T) {
	rules := DefaultRules()
	rules.ThreeWildcardWin = false
	rng := seeded(2024)

	numbered := []Suit{SuitDots, SuitBamboo, SuitCharacters}
	for iter := 0; iter < 500; iter++ {
		var hand []Tile
		melds := 4 + rng.IntN(2) // 14 或 17 张
		for range melds {
			if rng.IntN(2) == 0 {
				s := numbered[rng.IntN(3)]
				r := int8(rng.IntN(7) + 1)
				hand = append(hand, Tile{s, r}, Tile{s, r + 1}, Tile{s, r + 2})
			} else {
				k := TileAt(rng.IntN(34) + 1)
				hand = append(hand, k, k, k)
			}
		}
		pair := TileAt(rng.IntN(34) + 1)
		hand = append(hand, pair, pair)

		for range rng.IntN(3) {
			hand[rng.IntN(len(hand))] = Joker
		}
		assert.True(t, IsWinningHand(hand, rules), "hand %v", TileCodes(hand))
	}
}

func BenchmarkIsWinningHand(b *testing.B) {
	hand := tiles("1o joker 3o 4o 5o 6o 7o joker 9o 1t 2t 3t 4w 4w 4w z z")
	rules := DefaultRules()
	rules.ThreeWildcardWin = false
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		IsWinningHand(hand, rules)
	}
}
