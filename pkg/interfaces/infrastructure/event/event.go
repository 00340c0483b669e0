// Package event 提供事件总线接口定义
//
// 事件总线用于把本地注册表的状态变更（登记、位置更新、所有权转移）
// 按事务顺序广播给订阅者，例如CLI的输出或测试观察者。
package event

// EventType 事件类型标识
type EventType string

// Event 事件接口
type Event interface {
	// Type 返回事件类型
	Type() EventType
	// Data 返回事件数据
	Data() interface{}
}

// EventBus 事件总线接口
//
// 注意：事件总线由DI容器自动管理生命周期
type EventBus interface {
	// Subscribe 同步订阅事件，handler 在发布者的goroutine中执行
	Subscribe(eventType EventType, handler interface{}) error
	// SubscribeAsync 异步订阅事件
	// transactional 为 true 时同一订阅者的回调串行执行
	SubscribeAsync(eventType EventType, handler interface{}, transactional bool) error
	// Unsubscribe 取消订阅
	Unsubscribe(eventType EventType, handler interface{}) error
	// Publish 发布事件
	Publish(eventType EventType, args ...interface{})
	// PublishEvent 发布Event接口类型事件
	PublishEvent(event Event)
	// WaitAsync 等待所有异步处理完成
	WaitAsync()
	// HasCallback 检查是否有回调函数
	HasCallback(eventType EventType) bool
	// GetEventHistory 获取指定事件类型的历史记录（最近的在后）
	GetEventHistory(eventType EventType) []interface{}
}
