// Package main 启动应用程序
package main

import "github.com/yeisme/mediavault/pkg/cmd"

//	@title			MediaVault API
//	@version		1.0
//	@description	MediaVault 提供文件上传托管与轻量内容管理能力：两阶段上传、
//	@description	多后端对象存储、ETag 乐观并发、内容历史快照与协作软锁。

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

func main() {
	if err := cmd.Execute(); err != nil {
		panic(err)
	}
}
