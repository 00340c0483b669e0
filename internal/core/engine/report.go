package engine

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// reportMagic 快速模式执行报告标识
var reportMagic = [8]byte{'R', 'V', '3', '2', 'F', 'A', 'S', 'T'}

const (
	reportVersion = 1
	reportSize    = 8 + 4 + 8 + 4 + 32 + 32
)

// ErrMalformedReport 报告格式错误
var ErrMalformedReport = errors.New("engine: malformed execution report")

// ExecutionReport 快速模式的“证明”字节
//
// 只描述一次执行，不具备密码学可靠性。Commitment 是执行轨迹的哈希链摘要，
// OutputDigest 是公开输出的 SHA-256。
type ExecutionReport struct {
	Cycles       uint64
	ExitCode     uint32
	Commitment   [32]byte
	OutputDigest [32]byte
}

// MarshalBinary 固定长度小端编码
func (r ExecutionReport) MarshalBinary() ([]byte, error) {
	buf := make([]byte, reportSize)
	copy(buf, reportMagic[:])
	binary.LittleEndian.PutUint32(buf[8:], reportVersion)
	binary.LittleEndian.PutUint64(buf[12:], r.Cycles)
	binary.LittleEndian.PutUint32(buf[20:], r.ExitCode)
	copy(buf[24:56], r.Commitment[:])
	copy(buf[56:88], r.OutputDigest[:])
	return buf, nil
}

// UnmarshalBinary 解析报告
func (r *ExecutionReport) UnmarshalBinary(b []byte) error {
	if len(b) != reportSize {
		return fmt.Errorf("%w: size %d", ErrMalformedReport, len(b))
	}
	if [8]byte(b[:8]) != reportMagic {
		return fmt.Errorf("%w: bad magic", ErrMalformedReport)
	}
	if v := binary.LittleEndian.Uint32(b[8:]); v != reportVersion {
		return fmt.Errorf("%w: version %d", ErrMalformedReport, v)
	}
	r.Cycles = binary.LittleEndian.Uint64(b[12:])
	r.ExitCode = binary.LittleEndian.Uint32(b[20:])
	copy(r.Commitment[:], b[24:56])
	copy(r.OutputDigest[:], b[56:88])
	return nil
}
