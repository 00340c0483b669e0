package riscv

import (
	"encoding/binary"
	"errors"
)

// 内存常量
const (
	// PageSize 页大小 4KB
	PageSize  = 4096
	pageShift = 12

	// DefaultMaxPages 默认最多分配 16384 页（64 MiB）
	DefaultMaxPages = 16384
)

// 内存错误
var (
	ErrPageLimit       = errors.New("riscv: page allocation limit exceeded")
	ErrSegmentOverflow = errors.New("riscv: segment exceeds address space")
)

// Memory 稀疏分页内存，页按需分配且初始为零
type Memory struct {
	pages    map[uint32][]byte
	maxPages int
}

// NewMemory 创建稀疏内存，maxPages <= 0 时使用默认上限
func NewMemory(maxPages int) *Memory {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &Memory{
		pages:    make(map[uint32][]byte),
		maxPages: maxPages,
	}
}

func (m *Memory) page(addr uint32) ([]byte, error) {
	idx := addr >> pageShift
	if p, ok := m.pages[idx]; ok {
		return p, nil
	}
	if len(m.pages) >= m.maxPages {
		return nil, ErrPageLimit
	}
	p := make([]byte, PageSize)
	m.pages[idx] = p
	return p, nil
}

func offset(addr uint32) uint32 {
	return addr & (PageSize - 1)
}

// LoadByte 读取单字节
func (m *Memory) LoadByte(addr uint32) (byte, error) {
	p, err := m.page(addr)
	if err != nil {
		return 0, err
	}
	return p[offset(addr)], nil
}

// StoreByte 写入单字节
func (m *Memory) StoreByte(addr uint32, v byte) error {
	p, err := m.page(addr)
	if err != nil {
		return err
	}
	p[offset(addr)] = v
	return nil
}

// LoadHalf 读取小端16位
func (m *Memory) LoadHalf(addr uint32) (uint16, error) {
	lo, err := m.LoadByte(addr)
	if err != nil {
		return 0, err
	}
	hi, err := m.LoadByte(addr + 1)
	if err != nil {
		return 0, err
	}
	return uint16(lo) | uint16(hi)<<8, nil
}

// StoreHalf 写入小端16位
func (m *Memory) StoreHalf(addr uint32, v uint16) error {
	if err := m.StoreByte(addr, byte(v)); err != nil {
		return err
	}
	return m.StoreByte(addr+1, byte(v>>8))
}

// LoadWord 读取小端32位，跨页时逐字节读取
func (m *Memory) LoadWord(addr uint32) (uint32, error) {
	if off := offset(addr); off <= PageSize-4 {
		p, err := m.page(addr)
		if err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint32(p[off:]), nil
	}
	var buf [4]byte
	for i := uint32(0); i < 4; i++ {
		b, err := m.LoadByte(addr + i)
		if err != nil {
			return 0, err
		}
		buf[i] = b
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// StoreWord 写入小端32位
func (m *Memory) StoreWord(addr uint32, v uint32) error {
	if off := offset(addr); off <= PageSize-4 {
		p, err := m.page(addr)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(p[off:], v)
		return nil
	}
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	for i := uint32(0); i < 4; i++ {
		if err := m.StoreByte(addr+i, buf[i]); err != nil {
			return err
		}
	}
	return nil
}

// Write 把连续字节写入 base 起始地址
func (m *Memory) Write(base uint32, data []byte) error {
	if uint64(base)+uint64(len(data)) > 1<<32 {
		return ErrSegmentOverflow
	}
	for len(data) > 0 {
		p, err := m.page(base)
		if err != nil {
			return err
		}
		n := copy(p[offset(base):], data)
		data = data[n:]
		base += uint32(n)
	}
	return nil
}

// Read 读取 [base, base+n) 的字节
func (m *Memory) Read(base uint32, n uint32) ([]byte, error) {
	if uint64(base)+uint64(n) > 1<<32 {
		return nil, ErrSegmentOverflow
	}
	out := make([]byte, 0, n)
	for n > 0 {
		p, err := m.page(base)
		if err != nil {
			return nil, err
		}
		chunk := p[offset(base):]
		if uint32(len(chunk)) > n {
			chunk = chunk[:n]
		}
		out = append(out, chunk...)
		n -= uint32(len(chunk))
		base += uint32(len(chunk))
	}
	return out, nil
}

// PageCount 已分配页数
func (m *Memory) PageCount() int {
	return len(m.pages)
}
