// Package store 提供 core.Store / core.KeyValueStore 的基础设施实现。
package store

import "github.com/rushteam/gamerec/core"

// 错误别名，方便实现方直接引用。
var (
	ErrNotFound     = core.ErrStoreNotFound
	ErrNotSupported = core.ErrStoreNotSupported
)
