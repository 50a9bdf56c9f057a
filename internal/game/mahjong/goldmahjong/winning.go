package goldmahjong

// tileCounts 牌种计数，下标 0 为金
type tileCounts [KindCount]int8

func countTiles(tiles []Tile) tileCounts {
	var c tileCounts
	for _, t := range tiles {
		c[t.Index()]++
	}
	return c
}

// IsWinningHand 判断一组牌（含待胡的那张）能否胡牌
//
// 依次检查：三金倒、七对（仅 13 张规则）、标准牌型 n*(顺子|刻子) + 将。
// 金可以替代任意一张牌。
func IsWinningHand(tiles []Tile, rules RuleConfig) bool {
	c := countTiles(tiles)
	jokers := int(c[0])
	c[0] = 0

	if rules.ThreeWildcardWin && jokers >= 3 {
		return true
	}
	if rules.SevenPairsEnabled() && len(tiles) == 14 && isSevenPairs(&c, jokers) {
		return true
	}
	if len(tiles)%3 != 2 {
		return false
	}
	return isStandardShape(&c, jokers)
}

// isSevenPairs 单张的缺口用金补齐，多出的金必须成对
func isSevenPairs(c *tileCounts, jokers int) bool {
	holes := 0
	for i := 1; i < KindCount; i++ {
		holes += int(c[i]) % 2
	}
	return jokers >= holes && (jokers-holes)%2 == 0
}

// isStandardShape 枚举将牌后回溯拆面子：自然对子、单张加一金、两金
func isStandardShape(c *tileCounts, jokers int) bool {
	for i := 1; i < KindCount; i++ {
		if c[i] >= 2 {
			c[i] -= 2
			ok := formMelds(c, jokers)
			c[i] += 2
			if ok {
				return true
			}
		}
		if c[i] >= 1 && jokers >= 1 {
			c[i]--
			ok := formMelds(c, jokers-1)
			c[i]++
			if ok {
				return true
			}
		}
	}
	if jokers >= 2 {
		return formMelds(c, jokers-2)
	}
	return false
}

// formMelds 取最小的牌，依次尝试刻子、顺子，每个分支修改后还原
func formMelds(c *tileCounts, jokers int) bool {
	i := 1
	for i < KindCount && c[i] == 0 {
		i++
	}
	if i == KindCount {
		return jokers%3 == 0
	}

	// 刻子：三张、两张加一金、一张加两金
	for natural := 3; natural >= 1; natural-- {
		need := 3 - natural
		if int(c[i]) >= natural && jokers >= need {
			c[i] -= int8(natural)
			ok := formMelds(c, jokers-need)
			c[i] += int8(natural)
			if ok {
				return true
			}
		}
	}

	t := TileAt(i)
	if !t.Suit.IsNumbered() {
		return false
	}

	if t.Rank <= 7 {
		i2, i3 := i+1, i+2
		has2, has3 := c[i2] > 0, c[i3] > 0
		if has2 && has3 && take(c, jokers, 0, i, i2, i3) {
			return true
		}
		if has2 && jokers >= 1 && take(c, jokers, 1, i, i2) {
			return true
		}
		if has3 && jokers >= 1 && take(c, jokers, 1, i, i3) {
			return true
		}
		if jokers >= 2 && take(c, jokers, 2, i) {
			return true
		}
	}
	// 8 在最小位时只能用金当 7 组成 7-8-9
	if t.Rank == 8 && c[i+1] > 0 && jokers >= 1 && take(c, jokers, 1, i, i+1) {
		return true
	}
	return false
}

// take 扣掉一个顺子中的自然牌和 used 张金后继续递归，返回前还原
func take(c *tileCounts, jokers, used int, idx ...int) bool {
	for _, k := range idx {
		c[k]--
	}
	ok := formMelds(c, jokers-used)
	for _, k := range idx {
		c[k]++
	}
	return ok
}

// canWinWith 手牌加一张外来牌能否胡
func canWinWith(h *Hand, t Tile, rules RuleConfig) bool {
	tiles := append(h.withDrawn(), t)
	return IsWinningHand(tiles, rules)
}

// canSelfWin 摸牌后能否自摸
func canSelfWin(h *Hand, rules RuleConfig) bool {
	if _, ok := h.Drawn(); !ok {
		return false
	}
	return IsWinningHand(h.withDrawn(), rules)
}
