// Package router 管理路由配置，只负责将路径绑定到 pkg/internal/handle 提供的处理器.
package router
