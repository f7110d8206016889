package ws

// Metrics 监控接口
type Metrics interface {
	// 连接指标
	IncrementConnections()
	DecrementConnections()
	SetConnectionCount(count int)
	IncrementHandshakeRejections()

	// 消息指标
	IncrementMessageCount(kind string)
	IncrementInvalidMessages()
	IncrementPersistenceErrors()

	// 投递指标
	IncrementDeliveredMessages(count int)
	IncrementDroppedMessages(count int)
}

// NoopMetrics 空实现（默认）
type NoopMetrics struct{}

func (m *NoopMetrics) IncrementConnections()               {}
func (m *NoopMetrics) DecrementConnections()               {}
func (m *NoopMetrics) SetConnectionCount(count int)        {}
func (m *NoopMetrics) IncrementHandshakeRejections()       {}
func (m *NoopMetrics) IncrementMessageCount(kind string)   {}
func (m *NoopMetrics) IncrementInvalidMessages()           {}
func (m *NoopMetrics) IncrementPersistenceErrors()         {}
func (m *NoopMetrics) IncrementDeliveredMessages(count int) {}
func (m *NoopMetrics) IncrementDroppedMessages(count int)  {}
