// Package gamerec 是一个游戏推荐引擎（Game Recommender）。
//
// 设计要点：
// - 混合推荐: 内容相似（TF-IDF 余弦）+ 协同过滤（用户-用户）+ 热门兜底的三层降级链路
// - Pipeline-first: 推荐链路也可通过 Node 串联（Recall → Filter → ReRank）配置驱动组装
// - Labels-first: labels 全链路透传与标准化 merge，支持 explain / 观测 / 策略驱动
// - 快照换入: 模型构建完成后整体原子换入，读请求无锁共享只读快照
package gamerec

import (
	"github.com/rushteam/gamerec/hybrid"
	"github.com/rushteam/gamerec/pipeline"
)

// 轻量 facade：便于用户直接 import "gamerec" 使用核心抽象。
type Engine = hybrid.Engine
type Request = hybrid.Request
type Result = hybrid.Result
type Strategy = hybrid.Strategy

type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall = pipeline.KindRecall
	KindFilter = pipeline.KindFilter
	KindReRank = pipeline.KindReRank
)

const (
	StrategyPopular         = hybrid.StrategyPopular
	StrategyContent         = hybrid.StrategyContent
	StrategyContentFavorite = hybrid.StrategyContentFavorite
	StrategyCollaborative   = hybrid.StrategyCollaborative
)
