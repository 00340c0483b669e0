package testutil

import (
	"debug/elf"
	"encoding/binary"

	"github.com/weisyn/coprocessor/internal/core/engine/riscv"
)

// 寄存器简写
const (
	x0 = 0
	t0 = 5
	a0 = riscv.RegA0
	a7 = riscv.RegA7
)

// DefaultBase 测试程序加载地址
const DefaultBase uint32 = 0x00010000

// ELFOptions 测试ELF构造选项
type ELFOptions struct {
	Base    uint32
	Machine elf.Machine
	Type    elf.Type
	Flags   uint32
	// Data 附加在代码段之后的只读数据
	Data []byte
}

// ELFOption 构造选项
type ELFOption func(*ELFOptions)

// WithMachine 指定 e_machine
func WithMachine(m elf.Machine) ELFOption { return func(o *ELFOptions) { o.Machine = m } }

// WithType 指定 e_type
func WithType(t elf.Type) ELFOption { return func(o *ELFOptions) { o.Type = t } }

// WithFlags 指定 e_flags
func WithFlags(f uint32) ELFOption { return func(o *ELFOptions) { o.Flags = f } }

// BuildELF 构造只含一个 PT_LOAD 段的最小 RV32 ELF
func BuildELF(code []uint32, opts ...ELFOption) []byte {
	o := ELFOptions{Base: DefaultBase, Machine: elf.EM_RISCV, Type: elf.ET_EXEC}
	for _, opt := range opts {
		opt(&o)
	}

	const ehsize, phsize = 52, 32
	body := make([]byte, 0, len(code)*4+len(o.Data))
	for _, w := range code {
		body = binary.LittleEndian.AppendUint32(body, w)
	}
	body = append(body, o.Data...)

	le := binary.LittleEndian
	out := make([]byte, ehsize+phsize, ehsize+phsize+len(body))
	copy(out, []byte{0x7f, 'E', 'L', 'F', byte(elf.ELFCLASS32), byte(elf.ELFDATA2LSB), byte(elf.EV_CURRENT)})
	le.PutUint16(out[16:], uint16(o.Type))
	le.PutUint16(out[18:], uint16(o.Machine))
	le.PutUint32(out[20:], uint32(elf.EV_CURRENT))
	le.PutUint32(out[24:], o.Base) // e_entry
	le.PutUint32(out[28:], ehsize) // e_phoff
	le.PutUint32(out[32:], 0)      // e_shoff
	le.PutUint32(out[36:], o.Flags)
	le.PutUint16(out[40:], ehsize)
	le.PutUint16(out[42:], phsize)
	le.PutUint16(out[44:], 1) // e_phnum

	ph := out[ehsize:]
	le.PutUint32(ph[0:], uint32(elf.PT_LOAD))
	le.PutUint32(ph[4:], ehsize+phsize) // p_offset
	le.PutUint32(ph[8:], o.Base)         // p_vaddr
	le.PutUint32(ph[12:], o.Base)        // p_paddr
	le.PutUint32(ph[16:], uint32(len(body)))
	le.PutUint32(ph[20:], uint32(len(body)))
	le.PutUint32(ph[24:], uint32(elf.PF_R|elf.PF_X))
	le.PutUint32(ph[28:], 4)

	return append(out, body...)
}

// EchoProgram 逐字节读取输入并原样输出，退出码 0
func EchoProgram() []uint32 {
	return []uint32{
		riscv.ADDI(a7, x0, int32(riscv.SyscallReadByte)), // 0
		riscv.ECALL(),                                     // 4
		riscv.ADDI(t0, x0, -1),                            // 8
		riscv.BEQ(a0, t0, 16),                             // 12 -> 28
		riscv.ADDI(a7, x0, int32(riscv.SyscallWriteByte)), // 16
		riscv.ECALL(),                                     // 20
		riscv.JAL(x0, -24),                                // 24 -> 0
		riscv.ADDI(a0, x0, 0),                             // 28
		riscv.ADDI(a7, x0, int32(riscv.SyscallHalt)),      // 32
		riscv.ECALL(),                                     // 36
	}
}

// ExitProgram 立即以 code 退出
func ExitProgram(code int32) []uint32 {
	return []uint32{
		riscv.ADDI(a0, x0, code),
		riscv.ADDI(a7, x0, int32(riscv.SyscallHalt)),
		riscv.ECALL(),
	}
}

// LoopProgram 死循环
func LoopProgram() []uint32 {
	return []uint32{riscv.JAL(x0, 0)}
}

// EchoELF 回显程序的ELF
func EchoELF() []byte {
	return BuildELF(EchoProgram())
}

// WithData 在代码段之后附加数据
func WithData(d []byte) ELFOption { return func(o *ELFOptions) { o.Data = d } }
