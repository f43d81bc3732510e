// Package vectorspace 实现离线向量空间构建与工件持久化：
// 把结构化香水元数据变成加权文本、拟合 TF-IDF、产出稀疏矩阵与行映射。
package vectorspace

import (
	"regexp"
	"strings"
)

// 训练与查询共用同一条归一化路径。任何训练/查询两侧的
// 归一化不对称都会悄悄拉低所有结果，所以这里只允许存在一个实现。
var nonAlnum = regexp.MustCompile(`[^a-z0-9\s]+`)

// Normalize 清洗一段原始文本：小写、去非字母数字、压缩空白。
func Normalize(text string) string {
	text = strings.ToLower(text)
	text = nonAlnum.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// Tokenize 归一化后按空白切词，并剔除停用词与空 token。
func Tokenize(text string) []string {
	fields := strings.Fields(Normalize(text))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f == "" || stopWords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}

// stopWords 是英文停用词表：高频功能词对香调匹配没有区分度。
var stopWords = func() map[string]bool {
	words := []string{
		"a", "about", "above", "after", "again", "against", "all", "am",
		"an", "and", "any", "are", "as", "at", "be", "because", "been",
		"before", "being", "below", "between", "both", "but", "by", "can",
		"could", "did", "do", "does", "doing", "down", "during", "each",
		"few", "for", "from", "further", "had", "has", "have", "having",
		"he", "her", "here", "hers", "him", "his", "how", "i", "if", "in",
		"into", "is", "it", "its", "itself", "just", "me", "more", "most",
		"my", "myself", "no", "nor", "not", "now", "of", "off", "on",
		"once", "only", "or", "other", "our", "ours", "out", "over", "own",
		"same", "she", "should", "so", "some", "such", "than", "that",
		"the", "their", "theirs", "them", "then", "there", "these", "they",
		"this", "those", "through", "to", "too", "under", "until", "up",
		"very", "was", "we", "were", "what", "when", "where", "which",
		"while", "who", "whom", "why", "will", "with", "you", "your",
		"yours", "yourself",
	}
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}()
