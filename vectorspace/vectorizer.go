package vectorspace

import (
	"math"
	"sort"

	"github.com/VibhavTh/Sniftr/core"
)

// VectorizerOptions 控制词表拟合。
type VectorizerOptions struct {
	// MaxFeatures 词表上限：超出时按语料总词频保留最高的前 N 个。
	MaxFeatures int `json:"max_features"`

	// MinDocFreq 最小文档频率：低于此值的词项视为噪声剔除。
	MinDocFreq int `json:"min_doc_freq"`
}

// DefaultVectorizerOptions 返回参考实现的默认参数。
func DefaultVectorizerOptions() VectorizerOptions {
	return VectorizerOptions{
		MaxFeatures: 20000,
		MinDocFreq:  2,
	}
}

// Vectorizer 是拟合后的 TF-IDF 词权重模型：词表 + IDF 权重。
// Fit 之后不可变；查询与训练共享同一个 Transform。
//
// IDF 采用平滑公式 ln((1+n)/(1+df)) + 1，行向量 L2 归一化。
type Vectorizer struct {
	Vocab map[string]int32  `json:"vocab"` // 词项 -> 列号
	IDF   []float64         `json:"idf"`   // 列号 -> IDF 权重
	Opts  VectorizerOptions `json:"options"`
}

// FitVectorizer 在全部 token 化文档上拟合词表与 IDF。
func FitVectorizer(docs [][]string, opts VectorizerOptions) (*Vectorizer, error) {
	if len(docs) == 0 {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "vectorspace: empty corpus")
	}

	// 文档频率与语料总词频
	df := make(map[string]int)
	tf := make(map[string]int64)
	for _, doc := range docs {
		seen := make(map[string]bool, len(doc))
		for _, tok := range doc {
			tf[tok]++
			if !seen[tok] {
				seen[tok] = true
				df[tok]++
			}
		}
	}

	// min_df 剔除
	minDF := opts.MinDocFreq
	if minDF < 1 {
		minDF = 1
	}
	terms := make([]string, 0, len(df))
	for term, n := range df {
		if n >= minDF {
			terms = append(terms, term)
		}
	}

	// max_features 截断：按语料总词频降序，词项字典序决胜
	if opts.MaxFeatures > 0 && len(terms) > opts.MaxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			if tf[terms[i]] != tf[terms[j]] {
				return tf[terms[i]] > tf[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:opts.MaxFeatures]
	}

	// 列号按词项字典序分配，保证重复拟合产出确定的词表
	sort.Strings(terms)

	v := &Vectorizer{
		Vocab: make(map[string]int32, len(terms)),
		IDF:   make([]float64, len(terms)),
		Opts:  opts,
	}
	n := float64(len(docs))
	for i, term := range terms {
		v.Vocab[term] = int32(i)
		v.IDF[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	return v, nil
}

// NumTerms 返回词表大小。
func (v *Vectorizer) NumTerms() int { return len(v.IDF) }

// Transform 把 token 序列投影为 L2 归一化的稀疏向量。
// 词表外 token 直接丢弃；全部丢弃时返回零向量。
func (v *Vectorizer) Transform(tokens []string) SparseVector {
	counts := make(map[int32]float64, len(tokens))
	for _, tok := range tokens {
		if col, ok := v.Vocab[tok]; ok {
			counts[col]++
		}
	}
	if len(counts) == 0 {
		return SparseVector{}
	}

	idx := make([]int32, 0, len(counts))
	val := make([]float64, 0, len(counts))
	var norm float64
	for col, cnt := range counts {
		w := cnt * v.IDF[col]
		idx = append(idx, col)
		val = append(val, w)
		norm += w * w
	}
	norm = math.Sqrt(norm)
	for i := range val {
		val[i] /= norm
	}
	sortSparse(idx, val)
	return SparseVector{Idx: idx, Val: val}
}

// TransformText 对原始查询文本走与训练完全相同的归一化路径后投影。
func (v *Vectorizer) TransformText(text string) SparseVector {
	return v.Transform(Tokenize(text))
}
