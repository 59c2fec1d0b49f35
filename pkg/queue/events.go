package queue

import "github.com/ThreeDotsLabs/watermill/message"

// -------------------------- 基于业务封装 events --------------------------

// PublishFileStored 发布 mv.file.stored 事件。
// 上传 finalize 成功、元数据转入 active 后发布，通知下游流程（索引、缩略图等）。
func PublishFileStored(pub message.Publisher, payload FileEventPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicFileStored, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicFileStored, msg)
}

// ParseFileStored 将 Watermill 消息解析为强类型 Envelope（FileEventPayload）。
func ParseFileStored(msg *message.Message) (Message[FileEventPayload], error) {
	return ParseWatermillMessage[FileEventPayload](msg)
}

// PublishCmsPublished 发布 mv.cms.published 事件。
// 内容转入 published 后发布，常见消费者为公共读缓存的失效器。
func PublishCmsPublished(pub message.Publisher, payload CmsEventPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicCmsPublished, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicCmsPublished, msg)
}

// ParseCmsPublished 将 Watermill 消息解析为强类型 Envelope（CmsEventPayload）。
func ParseCmsPublished(msg *message.Message) (Message[CmsEventPayload], error) {
	return ParseWatermillMessage[CmsEventPayload](msg)
}
