package event

// Publisher 事件发布
type Publisher interface {
	Publish(topic string, msg any) error
}

// NopPublisher 未配置 MQ 时使用
type NopPublisher struct{}

func (NopPublisher) Publish(string, any) error { return nil }
