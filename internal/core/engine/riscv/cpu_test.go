package riscv_test

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/coprocessor/internal/core/engine/riscv"
	"github.com/weisyn/coprocessor/internal/testutil"
)

func cpuWith(t *testing.T, code []uint32, maxCycles uint64) *riscv.CPU {
	t.Helper()
	buf := make([]byte, 0, len(code)*4)
	for _, w := range code {
		buf = binary.LittleEndian.AppendUint32(buf, w)
	}
	cpu := riscv.NewCPU(nil, maxCycles)
	require.NoError(t, cpu.Load(&riscv.Program{
		Entry:    0,
		Segments: []riscv.Segment{{Addr: 0, Data: buf, MemSize: uint32(len(buf))}},
	}))
	return cpu
}

func halt() []uint32 {
	return []uint32{riscv.ADDI(riscv.RegA7, 0, 0), riscv.ECALL()}
}

func TestCPU_Arithmetic(t *testing.T) {
	code := append([]uint32{
		riscv.ADDI(1, 0, 10),
		riscv.ADDI(2, 0, -3),
		riscv.ADD(3, 1, 2),
		riscv.EncodeR(0x33, 4, 0, 1, 2, 0x20), // SUB
		riscv.EncodeR(0x33, 5, 0, 1, 2, 0x01), // MUL
		riscv.EncodeR(0x33, 6, 4, 1, 2, 0x01), // DIV
		riscv.EncodeR(0x33, 7, 6, 1, 2, 0x01), // REM
		riscv.EncodeR(0x33, 8, 5, 1, 0, 0x01), // DIVU by zero
		riscv.LUI(9, 0x12345000),
		riscv.EncodeI(0x13, 10, 5, 2, 0x400|1), // SRAI x10 = x2 >> 1 (arith)
	}, halt()...)
	cpu := cpuWith(t, code, 100)
	require.NoError(t, cpu.Run(context.Background()))

	assert.Equal(t, uint32(7), cpu.Regs[3])
	assert.Equal(t, uint32(13), cpu.Regs[4])
	assert.Equal(t, uint32(0xFFFFFFE2), cpu.Regs[5]) // -30
	assert.Equal(t, uint32(0xFFFFFFFD), cpu.Regs[6]) // 10 / -3 = -3
	assert.Equal(t, uint32(1), cpu.Regs[7])          // 10 % -3 = 1
	assert.Equal(t, uint32(0xFFFFFFFF), cpu.Regs[8])
	assert.Equal(t, uint32(0x12345000), cpu.Regs[9])
	assert.Equal(t, uint32(0xFFFFFFFE), cpu.Regs[10]) // -3 >> 1 = -2
}

func TestCPU_LoadStore(t *testing.T) {
	code := append([]uint32{
		riscv.LUI(1, 0x00100000),
		riscv.ADDI(2, 0, -2),
		riscv.SW(1, 2, 8),
		riscv.LW(3, 1, 8),
		riscv.EncodeI(0x03, 4, 4, 1, 8), // LBU
		riscv.EncodeI(0x03, 5, 0, 1, 8), // LB
	}, halt()...)
	cpu := cpuWith(t, code, 100)
	require.NoError(t, cpu.Run(context.Background()))

	assert.Equal(t, uint32(0xFFFFFFFE), cpu.Regs[3])
	assert.Equal(t, uint32(0xFE), cpu.Regs[4])
	assert.Equal(t, uint32(0xFFFFFFFE), cpu.Regs[5])
}

func TestCPU_X0AlwaysZero(t *testing.T) {
	cpu := cpuWith(t, append([]uint32{riscv.ADDI(0, 0, 5)}, halt()...), 10)
	require.NoError(t, cpu.Run(context.Background()))
	assert.Zero(t, cpu.Regs[0])
}

func TestCPU_EchoIO(t *testing.T) {
	cpu := cpuWith(t, testutil.EchoProgram(), 10_000)
	cpu.SetInput([]byte{0x12, 0x34})
	require.NoError(t, cpu.Run(context.Background()))

	assert.True(t, cpu.Halted)
	assert.Zero(t, cpu.ExitCode)
	assert.Equal(t, []byte{0x12, 0x34}, cpu.Output())
	assert.Equal(t, cpu.Cycles, cpu.Trace().Steps())
}

func TestCPU_BufferedSyscalls(t *testing.T) {
	code := append([]uint32{
		riscv.LUI(riscv.RegA0, 0x00200000),
		riscv.ADDI(riscv.RegA1, 0, 16),
		riscv.ADDI(riscv.RegA7, 0, int32(riscv.SyscallRead)),
		riscv.ECALL(),
		riscv.ADDI(riscv.RegA1, riscv.RegA0, 0), // a1 = 实际读取字节数
		riscv.LUI(riscv.RegA0, 0x00200000),
		riscv.ADDI(riscv.RegA7, 0, int32(riscv.SyscallWrite)),
		riscv.ECALL(),
		riscv.ADDI(riscv.RegA0, 0, 0),
	}, halt()...)
	cpu := cpuWith(t, code, 100)
	cpu.SetInput([]byte("hello"))
	require.NoError(t, cpu.Run(context.Background()))
	assert.Equal(t, []byte("hello"), cpu.Output())
}

func TestCPU_ExitCode(t *testing.T) {
	cpu := cpuWith(t, testutil.ExitProgram(3), 10)
	require.NoError(t, cpu.Run(context.Background()))
	assert.Equal(t, uint32(3), cpu.ExitCode)
}

func TestCPU_Errors(t *testing.T) {
	t.Run("cycle limit", func(t *testing.T) {
		cpu := cpuWith(t, testutil.LoopProgram(), 50)
		err := cpu.Run(context.Background())
		assert.ErrorIs(t, err, riscv.ErrCycleLimit)
		assert.Equal(t, uint64(50), cpu.Cycles)
	})

	t.Run("illegal instruction", func(t *testing.T) {
		cpu := cpuWith(t, []uint32{0xFFFFFFFF}, 10)
		assert.ErrorIs(t, cpu.Run(context.Background()), riscv.ErrInvalidInstruction)
	})

	t.Run("unknown syscall", func(t *testing.T) {
		cpu := cpuWith(t, []uint32{riscv.ADDI(riscv.RegA7, 0, 99), riscv.ECALL()}, 10)
		assert.ErrorIs(t, cpu.Run(context.Background()), riscv.ErrUnknownSyscall)
	})

	t.Run("page limit", func(t *testing.T) {
		mem := riscv.NewMemory(1)
		cpu := riscv.NewCPU(mem, 10)
		require.NoError(t, cpu.Load(&riscv.Program{Segments: []riscv.Segment{{Addr: 0, Data: make([]byte, 8)}}}))
		// 第二页的取指触发分配失败
		cpu.PC = riscv.PageSize
		assert.ErrorIs(t, cpu.Step(), riscv.ErrMemoryFault)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		cpu := cpuWith(t, testutil.LoopProgram(), 0)
		assert.ErrorIs(t, cpu.Run(ctx), context.Canceled)
	})

	t.Run("step after halt", func(t *testing.T) {
		cpu := cpuWith(t, halt(), 10)
		require.NoError(t, cpu.Run(context.Background()))
		assert.ErrorIs(t, cpu.Step(), riscv.ErrHalted)
	})
}

func TestTrace_CommitmentDeterministic(t *testing.T) {
	run := func(input []byte) [32]byte {
		cpu := cpuWith(t, testutil.EchoProgram(), 10_000)
		cpu.SetInput(input)
		require.NoError(t, cpu.Run(context.Background()))
		return cpu.Trace().Commitment(cpu.Regs, cpu.ExitCode)
	}
	assert.Equal(t, run([]byte{1, 2, 3}), run([]byte{1, 2, 3}))
	assert.NotEqual(t, run([]byte{1, 2, 3}), run([]byte{1, 2}))
}
