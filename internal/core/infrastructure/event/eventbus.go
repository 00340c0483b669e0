// Package event 基于asaskevich/EventBus的事件总线实现
package event

import (
	"sync"

	evbus "github.com/asaskevich/EventBus"

	"github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/event"
)

// DefaultHistorySize 每种事件保留的历史条数
const DefaultHistorySize = 128

// EventBus 是对asaskevich/EventBus的封装
//
// 在底层总线之上增加按事件类型的有界历史记录，
// 便于CLI和测试回看最近发生的注册表变更。
type EventBus struct {
	bus evbus.Bus

	historySize  int
	historyMu    sync.RWMutex
	eventHistory map[event.EventType][]interface{}
}

var _ event.EventBus = (*EventBus)(nil)

// New 创建事件总线，historySize <= 0 时使用默认值
func New(historySize int) *EventBus {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	return &EventBus{
		bus:          evbus.New(),
		historySize:  historySize,
		eventHistory: make(map[event.EventType][]interface{}),
	}
}

// Subscribe 实现订阅
func (eb *EventBus) Subscribe(eventType event.EventType, handler interface{}) error {
	return eb.bus.Subscribe(string(eventType), handler)
}

// SubscribeAsync 实现异步订阅
func (eb *EventBus) SubscribeAsync(eventType event.EventType, handler interface{}, transactional bool) error {
	return eb.bus.SubscribeAsync(string(eventType), handler, transactional)
}

// Unsubscribe 取消订阅
func (eb *EventBus) Unsubscribe(eventType event.EventType, handler interface{}) error {
	return eb.bus.Unsubscribe(string(eventType), handler)
}

// Publish 实现发布
func (eb *EventBus) Publish(eventType event.EventType, args ...interface{}) {
	if len(args) > 0 {
		eb.saveEventToHistory(eventType, args[0])
	}
	eb.bus.Publish(string(eventType), args...)
}

// PublishEvent 发布Event接口类型事件
func (eb *EventBus) PublishEvent(e event.Event) {
	eb.Publish(e.Type(), e.Data())
}

// WaitAsync 等待异步处理完成
func (eb *EventBus) WaitAsync() {
	eb.bus.WaitAsync()
}

// HasCallback 检查是否有回调
func (eb *EventBus) HasCallback(eventType event.EventType) bool {
	return eb.bus.HasCallback(string(eventType))
}

// GetEventHistory 获取指定类型的事件历史
func (eb *EventBus) GetEventHistory(eventType event.EventType) []interface{} {
	eb.historyMu.RLock()
	defer eb.historyMu.RUnlock()

	h := eb.eventHistory[eventType]
	if len(h) == 0 {
		return nil
	}
	out := make([]interface{}, len(h))
	copy(out, h)
	return out
}

func (eb *EventBus) saveEventToHistory(eventType event.EventType, data interface{}) {
	eb.historyMu.Lock()
	defer eb.historyMu.Unlock()

	h := append(eb.eventHistory[eventType], data)
	if len(h) > eb.historySize {
		h = h[len(h)-eb.historySize:]
	}
	eb.eventHistory[eventType] = h
}
