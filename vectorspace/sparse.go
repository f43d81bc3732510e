package vectorspace

import "sort"

// SparseVector 是一条 L2 归一化后的稀疏行向量，Idx 严格升序。
type SparseVector struct {
	Idx []int32
	Val []float64
}

// CSRMatrix 是压缩行存储的物品×词项矩阵。
// ~24k 物品 × ~20k 词项的稠密矩阵约需 4GB，稀疏存储是硬性要求。
// 行与 RowToID 映射一一对齐；行向量均已 L2 归一化，
// 因此两行的余弦相似度退化为点积。
type CSRMatrix struct {
	Rows   int
	Cols   int
	RowPtr []int64
	ColIdx []int32
	Data   []float64
}

// NewCSRMatrix 创建空矩阵（RowPtr 先放哨兵 0）。
func NewCSRMatrix(cols int) *CSRMatrix {
	return &CSRMatrix{
		Cols:   cols,
		RowPtr: []int64{0},
	}
}

// AppendRow 追加一行稀疏向量。
func (m *CSRMatrix) AppendRow(vec SparseVector) {
	m.ColIdx = append(m.ColIdx, vec.Idx...)
	m.Data = append(m.Data, vec.Val...)
	m.RowPtr = append(m.RowPtr, int64(len(m.ColIdx)))
	m.Rows++
}

// Row 返回第 i 行的稀疏视图（零拷贝，调用方不得修改）。
func (m *CSRMatrix) Row(i int) SparseVector {
	start, end := m.RowPtr[i], m.RowPtr[i+1]
	return SparseVector{
		Idx: m.ColIdx[start:end],
		Val: m.Data[start:end],
	}
}

// NNZ 返回非零元素个数。
func (m *CSRMatrix) NNZ() int { return len(m.Data) }

// Dot 计算两条升序稀疏向量的点积（双指针归并）。
func Dot(a, b SparseVector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(a.Idx) && j < len(b.Idx) {
		switch {
		case a.Idx[i] == b.Idx[j]:
			sum += a.Val[i] * b.Val[j]
			i++
			j++
		case a.Idx[i] < b.Idx[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// Similarities 计算查询向量对全部行的余弦相似度。
// 行与查询都已 L2 归一化，余弦即点积；按查询的非零列
// 散列累加，代价为 O(sum(df))，与行数无关。
func (m *CSRMatrix) Similarities(query SparseVector) []float64 {
	scores := make([]float64, m.Rows)
	if len(query.Idx) == 0 {
		return scores
	}

	// 查询向量通常只有几十个非零项，直接建列权重表
	weights := make(map[int32]float64, len(query.Idx))
	for i, col := range query.Idx {
		weights[col] = query.Val[i]
	}

	for row := 0; row < m.Rows; row++ {
		start, end := m.RowPtr[row], m.RowPtr[row+1]
		var sum float64
		for p := start; p < end; p++ {
			if w, ok := weights[m.ColIdx[p]]; ok {
				sum += w * m.Data[p]
			}
		}
		scores[row] = sum
	}
	return scores
}

// sortSparse 对 (idx, val) 对按 idx 升序排序，构建 SparseVector 前调用。
func sortSparse(idx []int32, val []float64) {
	sort.Sort(&sparsePairs{idx: idx, val: val})
}

type sparsePairs struct {
	idx []int32
	val []float64
}

func (s *sparsePairs) Len() int           { return len(s.idx) }
func (s *sparsePairs) Less(i, j int) bool { return s.idx[i] < s.idx[j] }
func (s *sparsePairs) Swap(i, j int) {
	s.idx[i], s.idx[j] = s.idx[j], s.idx[i]
	s.val[i], s.val[j] = s.val[j], s.val[i]
}
