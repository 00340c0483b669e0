package testutil

import (
	sha256 "github.com/minio/sha256-simd"

	"github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/coprocessor/pkg/types"
)

// NewTestLogger 创建测试用的Logger
func NewTestLogger() log.Logger {
	return &MockLogger{}
}

// NewTestBehavioralLogger 创建行为Logger（记录调用）
func NewTestBehavioralLogger() *BehavioralMockLogger {
	return &BehavioralMockLogger{
		logs: make([]string, 0),
	}
}

// HashOf 计算程序哈希
func HashOf(b []byte) types.ProgramHash {
	return types.ProgramHash(sha256.Sum256(b))
}

// FlipByte 返回修改了第 i 个字节的副本
func FlipByte(b []byte, i int) []byte {
	out := append([]byte(nil), b...)
	out[i] ^= 0x01
	return out
}
