package goldmahjong

import (
	"fmt"
	"slices"
	"strconv"
)

// Suit 花色
type Suit int8

const (
	SuitJoker      Suit = iota // 金（万能牌）
	SuitDots                   // 筒 1o-9o
	SuitBamboo                 // 条 1t-9t
	SuitCharacters             // 万 1w-9w
	SuitWind                   // 风 e s w n
	SuitDragon                 // 箭 b f z
	SuitSeason                 // 季 spring-winter
	SuitFlower                 // 花 plum-chrysanthemum
)

func (s Suit) String() string {
	switch s {
	case SuitJoker:
		return "JOKER"
	case SuitDots:
		return "DOTS"
	case SuitBamboo:
		return "BAMBOO"
	case SuitCharacters:
		return "CHARACTERS"
	case SuitWind:
		return "WIND"
	case SuitDragon:
		return "DRAGON"
	case SuitSeason:
		return "SEASON"
	case SuitFlower:
		return "FLOWER"
	default:
		return "UNKNOWN"
	}
}

// IsNumbered 是否序数牌，只有序数牌能组成顺子
func (s Suit) IsNumbered() bool {
	return s == SuitDots || s == SuitBamboo || s == SuitCharacters
}

// 各花色的牌种数量，按固定顺序排列
var suitSizes = [...]struct {
	suit Suit
	size int8
}{
	{SuitDots, 9},
	{SuitBamboo, 9},
	{SuitCharacters, 9},
	{SuitWind, 4},
	{SuitDragon, 3},
	{SuitSeason, 4},
	{SuitFlower, 4},
}

// KindCount 牌种数量（含金），Index 的取值范围为 [0, KindCount)
const KindCount = 43

var suitSuffix = map[Suit]string{
	SuitDots:       "o",
	SuitBamboo:     "t",
	SuitCharacters: "w",
}

var honorCodes = map[Suit][]string{
	SuitWind:   {"e", "s", "w", "n"},
	SuitDragon: {"b", "f", "z"},
	SuitSeason: {"spring", "summer", "autumn", "winter"},
	SuitFlower: {"plum", "orchid", "bamboo", "chrysanthemum"},
}

// Tile 麻将牌，值类型
type Tile struct {
	Suit Suit
	Rank int8
}

// Joker 金
var Joker = Tile{Suit: SuitJoker}

// 常用字牌
var (
	East   = Tile{SuitWind, 1}
	South  = Tile{SuitWind, 2}
	West   = Tile{SuitWind, 3}
	North  = Tile{SuitWind, 4}
	White  = Tile{SuitDragon, 1}
	Green  = Tile{SuitDragon, 2}
	Red    = Tile{SuitDragon, 3}
	Spring = Tile{SuitSeason, 1}
)

// Dots 筒
func Dots(rank int) Tile { return Tile{SuitDots, int8(rank)} }

// Bamboo 条
func Bamboo(rank int) Tile { return Tile{SuitBamboo, int8(rank)} }

// Characters 万
func Characters(rank int) Tile { return Tile{SuitCharacters, int8(rank)} }

// IsJoker 是否金
func (t Tile) IsJoker() bool { return t.Suit == SuitJoker }

// IsBonus 是否花牌（季、花）
func (t Tile) IsBonus() bool { return t.Suit == SuitSeason || t.Suit == SuitFlower }

// Valid 检查牌是否合法
func (t Tile) Valid() bool {
	if t.Suit == SuitJoker {
		return t.Rank == 0
	}
	for _, s := range suitSizes {
		if s.suit == t.Suit {
			return t.Rank >= 1 && t.Rank <= s.size
		}
	}
	return false
}

// Index 牌的全序编号：金为 0，其余按 筒 条 万 风 箭 季 花 依次排列
func (t Tile) Index() int {
	if t.Suit == SuitJoker {
		return 0
	}
	base := 1
	for _, s := range suitSizes {
		if s.suit == t.Suit {
			return base + int(t.Rank) - 1
		}
		base += int(s.size)
	}
	panic(fmt.Sprintf("goldmahjong: invalid tile %d/%d", t.Suit, t.Rank))
}

// TileAt Index 的逆运算
func TileAt(index int) Tile {
	if index == 0 {
		return Joker
	}
	base := 1
	for _, s := range suitSizes {
		if index < base+int(s.size) {
			return Tile{Suit: s.suit, Rank: int8(index - base + 1)}
		}
		base += int(s.size)
	}
	panic(fmt.Sprintf("goldmahjong: tile index %d out of range", index))
}

// Compare 按全序比较
func (t Tile) Compare(o Tile) int {
	return t.Index() - o.Index()
}

func (t Tile) String() string {
	if t.Suit == SuitJoker {
		return "joker"
	}
	if suffix, ok := suitSuffix[t.Suit]; ok {
		return strconv.Itoa(int(t.Rank)) + suffix
	}
	if codes, ok := honorCodes[t.Suit]; ok && t.Rank >= 1 && int(t.Rank) <= len(codes) {
		return codes[t.Rank-1]
	}
	return fmt.Sprintf("?%d/%d", t.Suit, t.Rank)
}

// ParseTile 解析牌代码，如 "3o" "e" "spring" "joker"
func ParseTile(code string) (Tile, error) {
	if code == "joker" {
		return Joker, nil
	}
	if len(code) == 2 && code[0] >= '1' && code[0] <= '9' {
		rank := int8(code[0] - '0')
		for suit, suffix := range suitSuffix {
			if code[1:] == suffix {
				return Tile{Suit: suit, Rank: rank}, nil
			}
		}
	}
	for suit, codes := range honorCodes {
		if i := slices.Index(codes, code); i >= 0 {
			return Tile{Suit: suit, Rank: int8(i + 1)}, nil
		}
	}
	return Tile{}, fmt.Errorf("unknown tile code %q", code)
}

// ParseTiles 解析一组牌代码
func ParseTiles(codes ...string) ([]Tile, error) {
	tiles := make([]Tile, 0, len(codes))
	for _, c := range codes {
		t, err := ParseTile(c)
		if err != nil {
			return nil, err
		}
		tiles = append(tiles, t)
	}
	return tiles, nil
}

// MustParseTiles 解析一组牌代码，用于测试和配置常量
func MustParseTiles(codes ...string) []Tile {
	tiles, err := ParseTiles(codes...)
	if err != nil {
		panic(err)
	}
	return tiles
}

// MarshalText 实现 encoding.TextMarshaler
func (t Tile) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid tile %d/%d", t.Suit, t.Rank)
	}
	return []byte(t.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (t *Tile) UnmarshalText(b []byte) error {
	parsed, err := ParseTile(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// SortTiles 按全序原地排序，金在最前
func SortTiles(tiles []Tile) {
	slices.SortFunc(tiles, Tile.Compare)
}

// Universe 返回全部非金牌种，按全序排列
func Universe() []Tile {
	tiles := make([]Tile, 0, KindCount-1)
	for i := 1; i < KindCount; i++ {
		tiles = append(tiles, TileAt(i))
	}
	return tiles
}

// TileCodes 转为代码列表
func TileCodes(tiles []Tile) []string {
	codes := make([]string, len(tiles))
	for i, t := range tiles {
		codes[i] = t.String()
	}
	return codes
}
