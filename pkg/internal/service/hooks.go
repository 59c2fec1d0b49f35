package service

import (
	"context"
	"slices"
	"sync"

	"github.com/yeisme/mediavault/pkg/internal/storage/mq"
	mlog "github.com/yeisme/mediavault/pkg/log"
	"github.com/yeisme/mediavault/pkg/queue"
)

// AfterWriteEvent 写入成功后的领域事件.
type AfterWriteEvent struct {
	// Topic 事件主题，见 queue/topics.go
	Topic string
	// Resource 被写入资源的 uid
	Resource string
	// Payload 事件负载，queue 包中的 *EventPayload 结构体
	Payload any
}

// HookFunc 写后钩子；钩子内的错误与 panic 不影响写入结果.
type HookFunc func(ctx context.Context, ev AfterWriteEvent)

// HookRunner 按注册顺序同步执行写后钩子.
type HookRunner struct {
	mu    sync.RWMutex
	hooks []HookFunc
}

// NewHookRunner 创建空的钩子执行器.
func NewHookRunner() *HookRunner {
	return &HookRunner{}
}

// Register 注册写后钩子.
func (r *HookRunner) Register(fn HookFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.hooks = append(r.hooks, fn)
}

// Fire 依次执行所有钩子，逐个兜底 panic.
func (r *HookRunner) Fire(ctx context.Context, ev AfterWriteEvent) {
	r.mu.RLock()
	hooks := slices.Clone(r.hooks)
	r.mu.RUnlock()

	for _, fn := range hooks {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					mlog.Logger().Error().
						Str("topic", ev.Topic).
						Str("resource", ev.Resource).
						Any("panic", rec).
						Msg("after-write hook panicked")
				}
			}()

			fn(ctx, ev)
		}()
	}
}

var (
	globalHooks     *HookRunner
	globalHooksOnce sync.Once
)

// Hooks 返回全局钩子执行器；应用启动时在这里注册 MQ 发布钩子.
func Hooks() *HookRunner {
	globalHooksOnce.Do(func() {
		globalHooks = NewHookRunner()
	})

	return globalHooks
}

// MQPublishHook 构造将领域事件发布到消息队列的钩子.
// 发布失败只记录日志，事件丢失由消费侧的对账任务兜底.
func MQPublishHook(client *mq.Client) HookFunc {
	return func(ctx context.Context, ev AfterWriteEvent) {
		msg, err := queue.NewWatermillMessage(ev.Topic, ev.Payload, queue.WithProducer("mediavault"))
		if err != nil {
			mlog.Logger().Error().Err(err).
				Str("topic", ev.Topic).
				Str("resource", ev.Resource).
				Msg("encode domain event failed")

			return
		}

		if err := client.Publish(ctx, ev.Topic, msg); err != nil {
			mlog.Logger().Warn().Err(err).
				Str("topic", ev.Topic).
				Str("resource", ev.Resource).
				Msg("publish domain event failed")
		}
	}
}
