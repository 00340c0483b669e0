package pipeline

import (
	"fmt"

	"github.com/weisyn/coprocessor/pkg/types"
)

// Assembler 把引擎产出组装为 ProofResult 并检查结果不变量
//
// 不变量被破坏说明实现有缺陷，报告 AssemblyInvariantViolation。
type Assembler struct{}

// Assemble 组装结果
func (Assembler) Assemble(req *types.ProofRequest, out *types.ProvingOutput) (*types.ProofResult, error) {
	if out == nil {
		return nil, violation("engine returned no output")
	}
	if out.Mode != req.Mode {
		return nil, violation("output mode %s does not match requested %s", out.Mode, req.Mode)
	}
	if len(out.Proof) == 0 {
		return nil, violation("empty proof")
	}
	hasArtifacts := len(out.VerifierArtifacts) > 0
	if wantArtifacts := req.Mode == types.ProvingModeFullWithEvm; hasArtifacts != wantArtifacts {
		return nil, violation("verifier artifacts present=%t for mode %s", hasArtifacts, req.Mode)
	}

	return &types.ProofResult{
		Mode:              req.Mode,
		Proof:             out.Proof,
		PublicValues:      out.PublicValues,
		VerifierArtifacts: out.VerifierArtifacts,
		Sound:             req.Mode.IsSound(),
		ProgramHash:       req.ProgramHash,
		Inputs:            req.Inputs,
		OutputDir:         out.OutputDir,
		Cycles:            out.Cycles,
	}, nil
}

func violation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", types.ErrAssemblyInvariantViolation, fmt.Sprintf(format, args...))
}
