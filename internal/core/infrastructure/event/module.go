package event

import (
	"context"

	"go.uber.org/fx"

	"github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/log"
)

// ModuleInput 事件模块依赖
type ModuleInput struct {
	fx.In

	Logger    log.Logger `optional:"true"`
	Lifecycle fx.Lifecycle
}

// ModuleOutput 事件模块输出
type ModuleOutput struct {
	fx.Out

	EventBus event.EventBus
}

// Module 返回事件模块
func Module() fx.Option {
	return fx.Module("event",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 提供事件总线，停止时等待异步订阅者处理完毕
func ProvideServices(input ModuleInput) ModuleOutput {
	bus := New(DefaultHistorySize)
	input.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			bus.WaitAsync()
			if input.Logger != nil {
				input.Logger.Info("事件总线已停止")
			}
			return nil
		},
	})
	return ModuleOutput{EventBus: bus}
}
