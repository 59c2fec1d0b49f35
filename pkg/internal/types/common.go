// Package types 定义服务核心的请求/响应结构.
package types

// Actor 调用者身份，由外层认证中间件填充后显式传入每个操作.
// 授权决策委托给注入的 policy 协作者，核心只携带身份.
type Actor struct {
	UserUID string `json:"user_uid"`
	IsAdmin bool   `json:"is_admin"`
}

// System 系统身份（无用户上下文的内部调用，如 janitor）.
func System() Actor {
	return Actor{IsAdmin: true}
}

// PageRequest 通用分页参数.
type PageRequest struct {
	Page int `form:"page" json:"page" rule:"min=0"`
	Size int `form:"size" json:"size" rule:"min=0,max=200"`
}

// Normalize 返回修正后的 page/size.
func (p PageRequest) Normalize() (page, size int) {
	page = p.Page
	if page <= 0 {
		page = 1
	}

	size = p.Size
	if size <= 0 || size > 200 {
		size = 50
	}

	return page, size
}
