package pipeline

// 流水线默认值
const (
	// defaultRequestTimeout 0 表示不限制整体请求时长，由各阶段自身超时约束
	defaultRequestTimeout = 0

	// defaultDedupeIdenticalRequests 相同 (hash, inputs, mode) 的并发请求默认各自执行
	defaultDedupeIdenticalRequests = false
)
