package vectorspace

import "github.com/VibhavTh/Sniftr/core"

// DefaultAccordWeight 是主调 token 的重复倍数。
// 重复让粗粒度的“气质”信号（woody、fresh）在词权重中压过
// 具体的次要香调——这是刻意的特征加权策略，不是实现巧合。
const DefaultAccordWeight = 3

// BuildSoup 把一条物品记录拼成合成文本 token 序列：
// 主调按 accordWeight 重复，再依次追加前/中/后调。
// IDF 会自然抬高稀有香调（oud）相对常见香调（musk）的权重，
// 无需人工维护稀有度表。
func BuildSoup(it *core.Item, accordWeight int) []string {
	if accordWeight <= 0 {
		accordWeight = DefaultAccordWeight
	}

	var tokens []string
	for _, accord := range it.MainAccords {
		for _, tok := range Tokenize(accord) {
			for i := 0; i < accordWeight; i++ {
				tokens = append(tokens, tok)
			}
		}
	}
	for _, notes := range [][]string{it.NotesTop, it.NotesMiddle, it.NotesBase} {
		for _, note := range notes {
			tokens = append(tokens, Tokenize(note)...)
		}
	}
	return tokens
}
