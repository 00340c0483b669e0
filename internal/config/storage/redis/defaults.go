package redis

import "time"

// Redis缓存默认配置值
const (
	defaultAddr         = "127.0.0.1:6379"
	defaultDB           = 0
	defaultPrefix       = "coprocessor:program:"
	defaultDialTimeout  = 5 * time.Second
	defaultReadTimeout  = 3 * time.Second
	defaultWriteTimeout = 3 * time.Second
	defaultPoolSize     = 10
)
