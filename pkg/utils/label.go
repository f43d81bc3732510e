package utils

// Label 是推荐链路中的可解释标记：记录一个物品为什么出现在结果里。
// Value 与 Source 的语义由业务自定义（召回来源、重排信号、过滤原因等）。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // recall / rerank / filter / session ...
}

// MergeLabel 合并同名 Label，保留历史、可追踪：
// - Value 以 '|' 累积
// - Source 以 ',' 累积
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	merged.Value = existing.Value + "|" + incoming.Value
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "":
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}
