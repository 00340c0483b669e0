package badger

// BadgerDB存储默认配置值
const (
	// defaultPath 本地注册表数据目录
	defaultPath = "./data/badger"

	// defaultSyncWrites 注册表写入需要持久化，默认同步写入
	defaultSyncWrites = true

	// defaultMemTableSize 内存表大小 16MB（注册表数据量很小）
	defaultMemTableSize = 16 << 20

	// defaultInMemory 默认落盘
	defaultInMemory = false
)
