package riscv

import (
	"encoding/binary"
	"hash"

	sha256 "github.com/minio/sha256-simd"
)

const traceBufferSize = 4096

// Trace 执行轨迹承诺
//
// 对每一步的 (pc, instr) 做流式 SHA-256，内存占用与执行步数无关。
type Trace struct {
	h     hash.Hash
	buf   []byte
	steps uint64
}

// NewTrace 创建轨迹承诺
func NewTrace() *Trace {
	return &Trace{
		h:   sha256.New(),
		buf: make([]byte, 0, traceBufferSize),
	}
}

// Record 记录一步执行
func (t *Trace) Record(pc, instr uint32) {
	t.buf = binary.LittleEndian.AppendUint32(t.buf, pc)
	t.buf = binary.LittleEndian.AppendUint32(t.buf, instr)
	t.steps++
	if len(t.buf) >= traceBufferSize {
		t.flush()
	}
}

func (t *Trace) flush() {
	if len(t.buf) == 0 {
		return
	}
	_, _ = t.h.Write(t.buf)
	t.buf = t.buf[:0]
}

// Steps 已记录步数
func (t *Trace) Steps() uint64 {
	return t.steps
}

// Commitment 返回当前轨迹摘要
//
// 摘要绑定最终寄存器状态与步数，调用后仍可继续记录。
func (t *Trace) Commitment(final [RegCount]uint32, exitCode uint32) [32]byte {
	t.flush()
	h := sha256.New()
	h.Write(t.h.Sum(nil))
	var tail [RegCount*4 + 12]byte
	for i, r := range final {
		binary.LittleEndian.PutUint32(tail[i*4:], r)
	}
	binary.LittleEndian.PutUint64(tail[RegCount*4:], t.steps)
	binary.LittleEndian.PutUint32(tail[RegCount*4+8:], exitCode)
	h.Write(tail[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
