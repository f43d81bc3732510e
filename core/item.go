package core

import "github.com/VibhavTh/Sniftr/pkg/utils"

// Item 是推荐链路中的统一承载结构：香水目录字段、分数、标签。
// ID 是训练与服务之间唯一交换的稳定标识（original_index），
// 重训后矩阵行位置可能变化，但 ID 永不复用、永不重排。
type Item struct {
	ID    int64
	Score float64

	// 目录展示字段
	Name     string
	Brand    string
	ImageURL string
	Gender   string
	Country  string
	Year     int

	// MainAccords 是语义加权的主调标签（最多 5 个，有序）
	MainAccords []string

	// 三段香调列表（有序）
	NotesTop    []string
	NotesMiddle []string
	NotesBase   []string

	// 评分字段（可空：nil 表示目录中无评分数据）
	RatingValue *float64
	RatingCount *int64

	// Labels 用于解释与观测（召回来源、重排信号、过滤原因等）
	Labels map[string]utils.Label
}

func NewItem(id int64) *Item {
	return &Item{
		ID:     id,
		Labels: make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// Rating 返回 (评分, 评分数)，缺失字段按 0 处理。
func (it *Item) Rating() (value float64, count int64) {
	if it.RatingValue != nil {
		value = *it.RatingValue
	}
	if it.RatingCount != nil {
		count = *it.RatingCount
	}
	return value, count
}
