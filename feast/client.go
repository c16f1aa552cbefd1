// Package feast 接入 Feast Feature Store 在线特征（用户统计特征的可选来源）。
//
// 引擎侧只依赖 core.UserStatsProvider 契约；本包提供：
//   - Client 接口：在线特征读取的最小抽象
//   - GrpcClient：基于官方 SDK 的 gRPC 实现
//   - UserStatsProvider：把在线特征映射为 core.UserStats 的适配器
//
// 参考：https://github.com/feast-dev/feast
package feast

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Client 是 Feast 在线特征读取的客户端接口。
// 引擎只需要在线特征；离线/物化能力不在本接口范围内。
type Client interface {
	// GetOnlineFeatures 获取在线特征（用于实时推荐）
	//
	// 参数：
	//   - features: 特征名称列表，例如 ["user_stats:favorite_item", "user_stats:mean_rating"]
	//   - entityRows: 实体行，例如 [{"user_id": "u1"}]
	GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error)

	// Close 关闭客户端连接
	Close() error
}

// GetOnlineFeaturesRequest 获取在线特征请求
type GetOnlineFeaturesRequest struct {
	// Features 特征名称列表
	Features []string

	// EntityRows 实体行，每行一个实体
	EntityRows []map[string]interface{}

	// Project 项目名称（可选，为空用客户端默认值）
	Project string
}

// GetOnlineFeaturesResponse 获取在线特征响应
type GetOnlineFeaturesResponse struct {
	// FeatureVectors 特征向量列表，与请求的实体行一一对应
	FeatureVectors []FeatureVector
}

// FeatureVector 单个实体的特征值集合
type FeatureVector struct {
	// Values key 为特征名称
	Values map[string]interface{}

	// EntityRow 对应的实体行
	EntityRow map[string]interface{}
}

// ClientOption 客户端配置选项
type ClientOption func(*ClientConfig)

// ClientConfig 客户端配置
type ClientConfig struct {
	// Timeout 单次请求超时
	Timeout time.Duration

	// Auth 认证信息（可选）
	Auth *AuthConfig
}

// AuthConfig 认证配置
type AuthConfig struct {
	// Type 认证类型：static（gRPC 静态 Token）
	Type string

	// Token 静态 Token
	Token string
}

// WithTimeout 配置选项：设置超时时间
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.Timeout = timeout
	}
}

// WithAuth 配置选项：设置认证信息
func WithAuth(auth *AuthConfig) ClientOption {
	return func(c *ClientConfig) {
		c.Auth = auth
	}
}

// NewClient 按端点创建客户端。
// 端点形如 "localhost:6565" 或 "grpc://localhost:6565"，缺省端口 6565。
func NewClient(endpoint, project string, opts ...ClientOption) (Client, error) {
	host, port := parseEndpoint(endpoint)
	return NewGrpcClient(host, port, project, opts...)
}

// parseEndpoint 解析端点地址，返回 host 和 port（无端口时返回 0）。
func parseEndpoint(endpoint string) (string, int) {
	endpoint = strings.TrimPrefix(endpoint, "grpc://")

	if host, portStr, ok := strings.Cut(endpoint, ":"); ok {
		if port, err := strconv.Atoi(portStr); err == nil {
			return host, port
		}
	}
	return endpoint, 0
}
