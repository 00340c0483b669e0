// Package riscv 实现 RV32IM 指令集模拟器
//
// 用于快速模式下的程序执行：不产生密码学证明，只给出执行结果、
// 步数与执行轨迹承诺。支持完整的 RV32I 基础整数指令与 M 扩展。
//
// 系统调用约定（功能号在 a7）：
//   - 0 停机，退出码在 a0
//   - 1 输出 a0 的低字节
//   - 2 读取一个输入字节到 a0，读尽时为 0xFFFFFFFF
//   - 3 提交 [a0, a0+a1) 的字节到输出
//   - 4 读取最多 a1 个输入字节到 a0 起始地址，a0 返回实际字节数
package riscv

import (
	"context"
	"errors"
	"fmt"
)

// 模拟器错误
var (
	ErrInvalidInstruction = errors.New("riscv: invalid instruction")
	ErrCycleLimit         = errors.New("riscv: cycle limit exhausted")
	ErrHalted             = errors.New("riscv: cpu halted")
	ErrMemoryFault        = errors.New("riscv: memory access fault")
	ErrUnknownSyscall     = errors.New("riscv: unknown syscall")
)

// 系统调用号
const (
	SyscallHalt      uint32 = 0
	SyscallWriteByte uint32 = 1
	SyscallReadByte  uint32 = 2
	SyscallWrite     uint32 = 3
	SyscallRead      uint32 = 4
)

// RegCount 通用寄存器数
const RegCount = 32

// 寄存器别名
const (
	RegZero = 0
	RegRA   = 1
	RegSP   = 2
	RegA0   = 10
	RegA1   = 11
	RegA7   = 17
)

// DefaultStackTop 初始栈顶
const DefaultStackTop uint32 = 0x7FFFFFF0

// ctxCheckInterval 每执行多少步检查一次取消
const ctxCheckInterval = 1 << 16

// maxIOChunk 单次缓冲区系统调用的字节上限
const maxIOChunk = 1 << 20

// 操作码
const (
	opLUI     = 0x37
	opAUIPC   = 0x17
	opJAL     = 0x6F
	opJALR    = 0x67
	opBranch  = 0x63
	opLoad    = 0x03
	opStore   = 0x23
	opLoadImm = 0x13
	opReg     = 0x33
	opMiscMem = 0x0F
	opSystem  = 0x73
)

// CPU RV32IM 处理器
type CPU struct {
	Regs     [RegCount]uint32
	PC       uint32
	Memory   *Memory
	Halted   bool
	ExitCode uint32

	// MaxCycles 0 表示不限制
	MaxCycles uint64
	Cycles    uint64

	input    []byte
	inputPos int
	output   []byte

	trace *Trace
}

// NewCPU 创建处理器
func NewCPU(memory *Memory, maxCycles uint64) *CPU {
	if memory == nil {
		memory = NewMemory(0)
	}
	cpu := &CPU{
		Memory:    memory,
		MaxCycles: maxCycles,
		trace:     NewTrace(),
	}
	cpu.Regs[RegSP] = DefaultStackTop
	return cpu
}

// SetInput 设置程序输入通道
func (c *CPU) SetInput(input []byte) {
	c.input = input
	c.inputPos = 0
}

// Output 程序写出的公开输出
func (c *CPU) Output() []byte {
	return c.output
}

// Trace 执行轨迹
func (c *CPU) Trace() *Trace {
	return c.trace
}

// Run 执行直到停机、出错或 ctx 结束
func (c *CPU) Run(ctx context.Context) error {
	for !c.Halted {
		if c.Cycles%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := c.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Step 执行单条指令
func (c *CPU) Step() error {
	if c.Halted {
		return ErrHalted
	}
	if c.MaxCycles > 0 && c.Cycles >= c.MaxCycles {
		return fmt.Errorf("%w: %d cycles", ErrCycleLimit, c.MaxCycles)
	}

	pc := c.PC
	instr, err := c.Memory.LoadWord(pc)
	if err != nil {
		return fmt.Errorf("%w: fetch at 0x%08x: %v", ErrMemoryFault, pc, err)
	}
	if err := c.execute(instr); err != nil {
		return err
	}
	c.Regs[RegZero] = 0
	c.Cycles++
	c.trace.Record(pc, instr)
	return nil
}

func (c *CPU) execute(instr uint32) error {
	switch opcode := instr & 0x7F; opcode {
	case opLUI:
		rd, imm := decodeU(instr)
		c.Regs[rd] = imm
		c.PC += 4

	case opAUIPC:
		rd, imm := decodeU(instr)
		c.Regs[rd] = c.PC + imm
		c.PC += 4

	case opJAL:
		rd, imm := decodeJ(instr)
		c.Regs[rd] = c.PC + 4
		c.PC = uint32(int32(c.PC) + imm)

	case opJALR:
		rd, rs1, imm := decodeI(instr)
		target := uint32(int32(c.Regs[rs1])+imm) &^ 1
		c.Regs[rd] = c.PC + 4
		c.PC = target

	case opBranch:
		return c.branch(instr)

	case opLoad:
		return c.load(instr)

	case opStore:
		return c.store(instr)

	case opLoadImm:
		return c.immediate(instr)

	case opReg:
		return c.register(instr)

	case opMiscMem:
		// FENCE / FENCE.I 单核无副作用
		c.PC += 4

	case opSystem:
		if funct3 := (instr >> 12) & 0x7; funct3 != 0 {
			return fmt.Errorf("%w: system funct3=0x%x at 0x%08x", ErrInvalidInstruction, funct3, c.PC)
		}
		switch instr >> 20 {
		case 0: // ECALL
			if err := c.syscall(); err != nil {
				return err
			}
		case 1: // EBREAK
			c.Halted = true
		default:
			return fmt.Errorf("%w: system imm=0x%x at 0x%08x", ErrInvalidInstruction, instr>>20, c.PC)
		}
		c.PC += 4

	default:
		return fmt.Errorf("%w: opcode=0x%02x at 0x%08x", ErrInvalidInstruction, opcode, c.PC)
	}
	return nil
}

func (c *CPU) branch(instr uint32) error {
	rs1, rs2, imm := decodeB(instr)
	a, b := c.Regs[rs1], c.Regs[rs2]
	var taken bool
	switch funct3 := (instr >> 12) & 0x7; funct3 {
	case 0: // BEQ
		taken = a == b
	case 1: // BNE
		taken = a != b
	case 4: // BLT
		taken = int32(a) < int32(b)
	case 5: // BGE
		taken = int32(a) >= int32(b)
	case 6: // BLTU
		taken = a < b
	case 7: // BGEU
		taken = a >= b
	default:
		return fmt.Errorf("%w: branch funct3=0x%x at 0x%08x", ErrInvalidInstruction, funct3, c.PC)
	}
	if taken {
		c.PC = uint32(int32(c.PC) + imm)
	} else {
		c.PC += 4
	}
	return nil
}

func (c *CPU) load(instr uint32) error {
	rd, rs1, imm := decodeI(instr)
	addr := uint32(int32(c.Regs[rs1]) + imm)
	var (
		val uint32
		err error
	)
	switch funct3 := (instr >> 12) & 0x7; funct3 {
	case 0: // LB
		var b byte
		b, err = c.Memory.LoadByte(addr)
		val = uint32(int32(int8(b)))
	case 1: // LH
		var h uint16
		h, err = c.Memory.LoadHalf(addr)
		val = uint32(int32(int16(h)))
	case 2: // LW
		val, err = c.Memory.LoadWord(addr)
	case 4: // LBU
		var b byte
		b, err = c.Memory.LoadByte(addr)
		val = uint32(b)
	case 5: // LHU
		var h uint16
		h, err = c.Memory.LoadHalf(addr)
		val = uint32(h)
	default:
		return fmt.Errorf("%w: load funct3=0x%x at 0x%08x", ErrInvalidInstruction, funct3, c.PC)
	}
	if err != nil {
		return fmt.Errorf("%w: load at 0x%08x: %v", ErrMemoryFault, addr, err)
	}
	c.Regs[rd] = val
	c.PC += 4
	return nil
}

func (c *CPU) store(instr uint32) error {
	rs1, rs2, imm := decodeS(instr)
	addr := uint32(int32(c.Regs[rs1]) + imm)
	val := c.Regs[rs2]
	var err error
	switch funct3 := (instr >> 12) & 0x7; funct3 {
	case 0: // SB
		err = c.Memory.StoreByte(addr, byte(val))
	case 1: // SH
		err = c.Memory.StoreHalf(addr, uint16(val))
	case 2: // SW
		err = c.Memory.StoreWord(addr, val)
	default:
		return fmt.Errorf("%w: store funct3=0x%x at 0x%08x", ErrInvalidInstruction, funct3, c.PC)
	}
	if err != nil {
		return fmt.Errorf("%w: store at 0x%08x: %v", ErrMemoryFault, addr, err)
	}
	c.PC += 4
	return nil
}

func (c *CPU) immediate(instr uint32) error {
	rd, rs1, imm := decodeI(instr)
	src := c.Regs[rs1]
	immU := uint32(imm)
	shamt := immU & 0x1F

	switch funct3 := (instr >> 12) & 0x7; funct3 {
	case 0: // ADDI
		c.Regs[rd] = uint32(int32(src) + imm)
	case 2: // SLTI
		c.Regs[rd] = boolToWord(int32(src) < imm)
	case 3: // SLTIU
		c.Regs[rd] = boolToWord(src < immU)
	case 4: // XORI
		c.Regs[rd] = src ^ immU
	case 6: // ORI
		c.Regs[rd] = src | immU
	case 7: // ANDI
		c.Regs[rd] = src & immU
	case 1: // SLLI
		c.Regs[rd] = src << shamt
	case 5: // SRLI / SRAI
		if (instr>>30)&1 == 1 {
			c.Regs[rd] = uint32(int32(src) >> shamt)
		} else {
			c.Regs[rd] = src >> shamt
		}
	}
	c.PC += 4
	return nil
}

func (c *CPU) register(instr uint32) error {
	rd := (instr >> 7) & 0x1F
	rs1 := (instr >> 15) & 0x1F
	rs2 := (instr >> 20) & 0x1F
	funct3 := (instr >> 12) & 0x7
	funct7 := (instr >> 25) & 0x7F
	a, b := c.Regs[rs1], c.Regs[rs2]

	switch funct7 {
	case 0x01:
		c.Regs[rd] = mulDiv(funct3, a, b)
		c.PC += 4
		return nil
	case 0x00, 0x20:
	default:
		return fmt.Errorf("%w: reg funct7=0x%x at 0x%08x", ErrInvalidInstruction, funct7, c.PC)
	}

	switch funct3 {
	case 0: // ADD / SUB
		if funct7 == 0x20 {
			c.Regs[rd] = a - b
		} else {
			c.Regs[rd] = a + b
		}
	case 1: // SLL
		c.Regs[rd] = a << (b & 0x1F)
	case 2: // SLT
		c.Regs[rd] = boolToWord(int32(a) < int32(b))
	case 3: // SLTU
		c.Regs[rd] = boolToWord(a < b)
	case 4: // XOR
		c.Regs[rd] = a ^ b
	case 5: // SRL / SRA
		if funct7 == 0x20 {
			c.Regs[rd] = uint32(int32(a) >> (b & 0x1F))
		} else {
			c.Regs[rd] = a >> (b & 0x1F)
		}
	case 6: // OR
		c.Regs[rd] = a | b
	case 7: // AND
		c.Regs[rd] = a & b
	}
	c.PC += 4
	return nil
}

// mulDiv M 扩展；除零与溢出结果遵循 RISC-V 规范而非陷入
func mulDiv(funct3, a, b uint32) uint32 {
	switch funct3 {
	case 0: // MUL
		return a * b
	case 1: // MULH
		return uint32((int64(int32(a)) * int64(int32(b))) >> 32)
	case 2: // MULHSU
		return uint32((int64(int32(a)) * int64(b)) >> 32)
	case 3: // MULHU
		return uint32((uint64(a) * uint64(b)) >> 32)
	case 4: // DIV
		switch {
		case b == 0:
			return 0xFFFFFFFF
		case int32(a) == -1<<31 && int32(b) == -1:
			return a
		default:
			return uint32(int32(a) / int32(b))
		}
	case 5: // DIVU
		if b == 0 {
			return 0xFFFFFFFF
		}
		return a / b
	case 6: // REM
		switch {
		case b == 0:
			return a
		case int32(a) == -1<<31 && int32(b) == -1:
			return 0
		default:
			return uint32(int32(a) % int32(b))
		}
	default: // REMU
		if b == 0 {
			return a
		}
		return a % b
	}
}

func (c *CPU) syscall() error {
	a0, a1 := c.Regs[RegA0], c.Regs[RegA1]
	switch num := c.Regs[RegA7]; num {
	case SyscallHalt:
		c.ExitCode = a0
		c.Halted = true
	case SyscallWriteByte:
		c.output = append(c.output, byte(a0))
	case SyscallReadByte:
		if c.inputPos < len(c.input) {
			c.Regs[RegA0] = uint32(c.input[c.inputPos])
			c.inputPos++
		} else {
			c.Regs[RegA0] = 0xFFFFFFFF
		}
	case SyscallWrite:
		if a1 > maxIOChunk {
			return fmt.Errorf("%w: write of %d bytes exceeds %d", ErrMemoryFault, a1, maxIOChunk)
		}
		data, err := c.Memory.Read(a0, a1)
		if err != nil {
			return fmt.Errorf("%w: write buffer at 0x%08x: %v", ErrMemoryFault, a0, err)
		}
		c.output = append(c.output, data...)
	case SyscallRead:
		n := len(c.input) - c.inputPos
		if uint64(n) > uint64(a1) {
			n = int(a1)
		}
		if n > maxIOChunk {
			n = maxIOChunk
		}
		if err := c.Memory.Write(a0, c.input[c.inputPos:c.inputPos+n]); err != nil {
			return fmt.Errorf("%w: read buffer at 0x%08x: %v", ErrMemoryFault, a0, err)
		}
		c.inputPos += n
		c.Regs[RegA0] = uint32(n)
	default:
		return fmt.Errorf("%w: a7=%d at 0x%08x", ErrUnknownSyscall, num, c.PC)
	}
	return nil
}

func boolToWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
