package goldmahjong

import (
	"slices"
	"time"
)

// RuleConfig 对局规则，开局后不可修改
type RuleConfig struct {
	PlayerCount      int           // 玩家数
	HandSize         int           // 起手牌数（13 或 16）
	Wildcard         bool          // 是否启用金
	WildcardCount    int           // 金的张数，3 或 4
	ThreeWildcardWin bool          // 三金倒
	SevenPairs       bool          // 七对，仅 13 张规则下生效
	Excluded         []Tile        // 不参与洗牌的牌种
	ClaimWindow      time.Duration // 认领窗口时长
	TurnTimeout      time.Duration // 出牌时限
}

// BonusTiles 八张花牌
func BonusTiles() []Tile {
	return MustParseTiles("spring", "summer", "autumn", "winter", "plum", "orchid", "bamboo", "chrysanthemum")
}

// DefaultRules 默认规则：四人、十六张、四金、三金倒、去花
func DefaultRules() RuleConfig {
	return RuleConfig{
		PlayerCount:      4,
		HandSize:         16,
		Wildcard:         true,
		WildcardCount:    4,
		ThreeWildcardWin: true,
		SevenPairs:       false,
		Excluded:         BonusTiles(),
		ClaimWindow:      5 * time.Second,
		TurnTimeout:      10 * time.Second,
	}
}

// Validate 校验规则
func (r RuleConfig) Validate() error {
	if r.PlayerCount < 2 || r.PlayerCount > 4 {
		return ErrInvalidRules.WithContext("playerCount", r.PlayerCount)
	}
	if r.HandSize < 1 || r.HandSize%3 != 1 {
		return ErrInvalidRules.WithContext("handSize", r.HandSize)
	}
	if r.Wildcard && r.WildcardCount != 3 && r.WildcardCount != 4 {
		return ErrInvalidRules.WithContext("wildcardCount", r.WildcardCount)
	}
	for _, t := range r.Excluded {
		if !t.Valid() || t.IsJoker() {
			return ErrInvalidRules.WithContext("excluded", t)
		}
	}
	if r.ClaimWindow < 0 || r.TurnTimeout < 0 {
		return ErrInvalidRules.WithContext("claimWindow", r.ClaimWindow)
	}
	// 发完牌后至少还要有一张可摸
	if need := r.PlayerCount*r.HandSize + 1; r.WallSize() < need {
		return ErrInvalidRules.WithContext("wallSize", r.WallSize()).WithContext("need", need)
	}
	return nil
}

// Kinds 参与洗牌的牌种
func (r RuleConfig) Kinds() []Tile {
	kinds := Universe()
	return slices.DeleteFunc(kinds, func(t Tile) bool {
		return slices.Contains(r.Excluded, t)
	})
}

// WallSize 洗牌后牌墙张数
func (r RuleConfig) WallSize() int {
	n := len(r.Kinds()) * 4
	if r.Wildcard && r.WildcardCount == 3 {
		n--
	}
	return n
}

// SevenPairsEnabled 七对只在 13 张规则下生效
func (r RuleConfig) SevenPairsEnabled() bool {
	return r.SevenPairs && r.HandSize == 13
}
