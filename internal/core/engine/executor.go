package engine

import (
	"context"
	"fmt"

	"github.com/minio/sha256-simd"

	"github.com/weisyn/coprocessor/internal/core/engine/riscv"
)

// execution 一次模拟执行的结果
type execution struct {
	output []byte
	report ExecutionReport
}

// execute 在 RV32IM 模拟器上运行程序
//
// 非零退出码、非法指令、内存错误与步数耗尽都视为执行失败。
func execute(ctx context.Context, program *riscv.Program, inputs []byte, maxCycles uint64, maxPages int) (*execution, error) {
	cpu := riscv.NewCPU(riscv.NewMemory(maxPages), maxCycles)
	if err := cpu.Load(program); err != nil {
		return nil, err
	}
	cpu.SetInput(inputs)

	if err := cpu.Run(ctx); err != nil {
		return nil, err
	}
	if cpu.ExitCode != 0 {
		return nil, fmt.Errorf("%w: exit=%d after %d cycles", ErrGuestExit, cpu.ExitCode, cpu.Cycles)
	}

	output := append([]byte(nil), cpu.Output()...)
	return &execution{
		output: output,
		report: ExecutionReport{
			Cycles:       cpu.Cycles,
			ExitCode:     cpu.ExitCode,
			Commitment:   cpu.Trace().Commitment(cpu.Regs, cpu.ExitCode),
			OutputDigest: sha256.Sum256(output),
		},
	}, nil
}

func sha256Sum(b []byte) [32]byte {
	return sha256.Sum256(b)
}
