// Package sniftr 是一个香水推荐服务（Scent Recommender）。
//
// 设计要点：
// - 训练/服务分离: 离线构建 TF-IDF 向量空间工件，在线只读加载一次
// - Pipeline-first: 推理链路通过 Node 串联（Recall → Filter → ReRank → PostProcess）
// - Labels-first: labels 全链路透传与标准化 merge，支持 explain / 观测
// - 会话显式化: 发现会话是类型化动作驱动的有限状态机，不是隐式闭包状态
package sniftr

import "github.com/VibhavTh/Sniftr/pipeline"

// 轻量 facade：便于用户直接 import 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
