package riscv

import (
	"bytes"
	"debug/elf"
	"errors"
	"fmt"
	"io"
)

// ELF 加载错误
var (
	ErrNotELF            = errors.New("riscv: not an ELF binary")
	ErrUnsupportedELF    = errors.New("riscv: unsupported ELF binary")
	ErrNoLoadableSegment = errors.New("riscv: no loadable segment")
)

// efRISCVRVC 压缩指令扩展标志
const efRISCVRVC = 0x1

// maxSegmentSize 单段内存上限
const maxSegmentSize = 1 << 30

// Segment 可加载段
type Segment struct {
	Addr    uint32
	Data    []byte
	MemSize uint32
}

// Program 已解析的可执行程序
type Program struct {
	Entry    uint32
	Segments []Segment
}

// ParseELF 解析 RV32 可执行文件
//
// 只接受 ELF32、小端、EM_RISCV、ET_EXEC，且不含压缩指令标志。
func ParseELF(b []byte) (*Program, error) {
	f, err := elf.NewFile(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotELF, err)
	}
	defer f.Close()

	switch {
	case f.Class != elf.ELFCLASS32:
		return nil, fmt.Errorf("%w: class %s", ErrUnsupportedELF, f.Class)
	case f.Data != elf.ELFDATA2LSB:
		return nil, fmt.Errorf("%w: byte order %s", ErrUnsupportedELF, f.Data)
	case f.Machine != elf.EM_RISCV:
		return nil, fmt.Errorf("%w: machine %s", ErrUnsupportedELF, f.Machine)
	case f.Type != elf.ET_EXEC:
		return nil, fmt.Errorf("%w: type %s", ErrUnsupportedELF, f.Type)
	}
	if flags, ok := elfFlags(b); ok && flags&efRISCVRVC != 0 {
		return nil, fmt.Errorf("%w: compressed instructions are not supported", ErrUnsupportedELF)
	}

	prog := &Program{Entry: uint32(f.Entry)}
	for _, p := range f.Progs {
		if p.Type != elf.PT_LOAD || p.Memsz == 0 {
			continue
		}
		if p.Memsz > maxSegmentSize || p.Filesz > p.Memsz || p.Vaddr+p.Memsz > 1<<32 {
			return nil, fmt.Errorf("%w: segment at 0x%x size %d", ErrUnsupportedELF, p.Vaddr, p.Memsz)
		}
		data, err := io.ReadAll(p.Open())
		if err != nil {
			return nil, fmt.Errorf("%w: read segment at 0x%x: %v", ErrNotELF, p.Vaddr, err)
		}
		prog.Segments = append(prog.Segments, Segment{
			Addr:    uint32(p.Vaddr),
			Data:    data,
			MemSize: uint32(p.Memsz),
		})
	}
	if len(prog.Segments) == 0 {
		return nil, ErrNoLoadableSegment
	}
	return prog, nil
}

// elfFlags 读取 ELF32 头中的 e_flags（debug/elf 未导出该字段）
func elfFlags(b []byte) (uint32, bool) {
	const flagsOffset = 36
	if len(b) < flagsOffset+4 {
		return 0, false
	}
	v := b[flagsOffset : flagsOffset+4]
	return uint32(v[0]) | uint32(v[1])<<8 | uint32(v[2])<<16 | uint32(v[3])<<24, true
}

// PageFootprint 写入全部段数据需要分配的页数
//
// 只统计文件内容覆盖的页；bss 部分在执行时按需分配。
func (p *Program) PageFootprint() int {
	pages := make(map[uint32]struct{})
	for _, seg := range p.Segments {
		if len(seg.Data) == 0 {
			continue
		}
		first := seg.Addr >> pageShift
		last := uint32((uint64(seg.Addr) + uint64(len(seg.Data)) - 1) >> pageShift)
		for idx := first; ; idx++ {
			pages[idx] = struct{}{}
			if idx == last {
				break
			}
		}
	}
	return len(pages)
}

// CheckFootprint 段数据超出 maxPages 时返回 ErrPageLimit，maxPages <= 0 取默认
func (p *Program) CheckFootprint(maxPages int) error {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	if n := p.PageFootprint(); n > maxPages {
		return fmt.Errorf("%w: segments need %d pages, limit %d", ErrPageLimit, n, maxPages)
	}
	return nil
}

// Load 把程序段写入内存并设置入口
func (c *CPU) Load(p *Program) error {
	for _, seg := range p.Segments {
		if err := c.Memory.Write(seg.Addr, seg.Data); err != nil {
			return fmt.Errorf("load segment at 0x%08x: %w", seg.Addr, err)
		}
	}
	c.PC = p.Entry
	return nil
}
