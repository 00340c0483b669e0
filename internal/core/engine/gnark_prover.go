package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"sync"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	nativemimc "github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	gnarklogger "github.com/consensys/gnark/logger"
	"github.com/consensys/gnark/std/hash/mimc"
	"github.com/minio/sha256-simd"
	"github.com/rs/zerolog"

	"github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/log"
)

// VerifyingKeyFile gnark 后端写入运行目录的验证密钥
const VerifyingKeyFile = "vk.bin"

// gnarkCurve 进程内证明使用的曲线
const gnarkCurve = ecc.BN254

// ExecutionCircuit 执行承诺电路
//
// Commitment == MiMC(program, inputs, trace, cycles, output)。
// 轨迹承诺与周期数是私有见证，其余为公开输入。
type ExecutionCircuit struct {
	ProgramDigest      frontend.Variable `gnark:",public"`
	InputsDigest       frontend.Variable `gnark:",public"`
	PublicValuesDigest frontend.Variable `gnark:",public"`
	Commitment         frontend.Variable `gnark:",public"`

	TraceCommitment frontend.Variable
	Cycles          frontend.Variable
}

// Define 定义电路约束
func (c *ExecutionCircuit) Define(api frontend.API) error {
	// 周期数限定在 64 位
	api.ToBinary(c.Cycles, 64)

	h, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}
	h.Write(c.ProgramDigest, c.InputsDigest, c.TraceCommitment, c.Cycles, c.PublicValuesDigest)
	api.AssertIsEqual(h.Sum(), c.Commitment)
	return nil
}

// executionStatement 一次证明的见证值
type executionStatement struct {
	programDigest      *big.Int
	inputsDigest       *big.Int
	publicValuesDigest *big.Int
	traceCommitment    *big.Int
	cycles             *big.Int
	commitment         *big.Int
}

func newExecutionStatement(req *ProveRequest) (*executionStatement, error) {
	inputsSum := sha256.Sum256(req.Inputs)
	pvSum := sha256.Sum256(req.PublicValues)
	s := &executionStatement{
		programDigest:      truncateToField(req.ProgramHash),
		inputsDigest:       truncateToField(inputsSum),
		publicValuesDigest: truncateToField(pvSum),
		traceCommitment:    truncateToField(req.Report.Commitment),
		cycles:             new(big.Int).SetUint64(req.Report.Cycles),
	}
	h := nativemimc.NewMiMC()
	for _, v := range []*big.Int{s.programDigest, s.inputsDigest, s.traceCommitment, s.cycles, s.publicValuesDigest} {
		var e fr.Element
		e.SetBigInt(v)
		b := e.Bytes()
		if _, err := h.Write(b[:]); err != nil {
			return nil, err
		}
	}
	s.commitment = new(big.Int).SetBytes(h.Sum(nil))
	return s, nil
}

func (s *executionStatement) assignment() *ExecutionCircuit {
	return &ExecutionCircuit{
		ProgramDigest:      s.programDigest,
		InputsDigest:       s.inputsDigest,
		PublicValuesDigest: s.publicValuesDigest,
		Commitment:         s.commitment,
		TraceCommitment:    s.traceCommitment,
		Cycles:             s.cycles,
	}
}

// truncateToField 取前 31 字节，保证小于 BN254 标量域
func truncateToField(digest [32]byte) *big.Int {
	return new(big.Int).SetBytes(digest[:31])
}

// gnarkSetup 编译电路与可信设置
type gnarkSetup struct {
	ccs constraint.ConstraintSystem
	pk  groth16.ProvingKey
	vk  groth16.VerifyingKey
}

var silenceGnark sync.Once

// GnarkProver 进程内 Groth16 后端
//
// 证明模拟执行的轨迹承诺与公开值摘要绑定到程序哈希和输入。
// 电路在首次证明时编译并完成可信设置，之后在进程内复用。
type GnarkProver struct {
	logger log.Logger

	setupMu sync.Mutex
	setup   *gnarkSetup
}

// NewGnarkProver 创建进程内后端
func NewGnarkProver(logger log.Logger) *GnarkProver {
	return &GnarkProver{logger: logger}
}

// Name 实现 Prover
func (p *GnarkProver) Name() string { return "gnark-groth16" }

// Prove 实现 Prover
func (p *GnarkProver) Prove(ctx context.Context, req *ProveRequest) (*ProverOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if digest := sha256.Sum256(req.PublicValues); digest != req.Report.OutputDigest {
		return nil, fmt.Errorf("%w: output digest does not match execution report", ErrPublicValuesMismatch)
	}
	setup, err := p.trustedSetup()
	if err != nil {
		return nil, err
	}

	stmt, err := newExecutionStatement(req)
	if err != nil {
		return nil, fmt.Errorf("gnark: commitment: %w", err)
	}
	witness, err := frontend.NewWitness(stmt.assignment(), gnarkCurve.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("gnark: new witness: %w", err)
	}
	proof, err := groth16.Prove(setup.ccs, setup.pk, witness)
	if err != nil {
		return nil, fmt.Errorf("gnark: prove: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	publicWitness, err := witness.Public()
	if err != nil {
		return nil, fmt.Errorf("gnark: public witness: %w", err)
	}
	if err := groth16.Verify(proof, setup.vk, publicWitness); err != nil {
		return nil, fmt.Errorf("gnark: verify: %w", err)
	}

	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("gnark: serialize proof: %w", err)
	}
	if req.OutputDir != "" {
		var vkBuf bytes.Buffer
		if _, err := setup.vk.WriteTo(&vkBuf); err != nil {
			return nil, fmt.Errorf("gnark: serialize vk: %w", err)
		}
		if err := os.WriteFile(filepath.Join(req.OutputDir, VerifyingKeyFile), vkBuf.Bytes(), 0o644); err != nil {
			return nil, err
		}
	}
	if p.logger != nil {
		p.logger.Debugf("gnark 证明完成: cycles=%d proof=%dB", req.Report.Cycles, buf.Len())
	}
	return &ProverOutput{Proof: buf.Bytes(), PublicValues: append([]byte(nil), req.PublicValues...)}, nil
}

// Verify 用进程内验证密钥校验证明字节
func (p *GnarkProver) Verify(proofBytes []byte, req *ProveRequest) error {
	setup, err := p.trustedSetup()
	if err != nil {
		return err
	}
	proof := groth16.NewProof(gnarkCurve)
	if _, err := proof.ReadFrom(bytes.NewReader(proofBytes)); err != nil {
		return fmt.Errorf("gnark: read proof: %w", err)
	}
	stmt, err := newExecutionStatement(req)
	if err != nil {
		return err
	}
	publicAssignment := stmt.assignment()
	publicAssignment.TraceCommitment = 0
	publicAssignment.Cycles = 0
	publicWitness, err := frontend.NewWitness(publicAssignment, gnarkCurve.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return fmt.Errorf("gnark: public witness: %w", err)
	}
	return groth16.Verify(proof, setup.vk, publicWitness)
}

// trustedSetup 首次调用时编译电路并生成 pk/vk
func (p *GnarkProver) trustedSetup() (*gnarkSetup, error) {
	p.setupMu.Lock()
	defer p.setupMu.Unlock()
	if p.setup != nil {
		return p.setup, nil
	}

	// gnark 使用 zerolog，进程内完全关闭
	silenceGnark.Do(func() {
		gnarklogger.Set(zerolog.New(io.Discard).Level(zerolog.Disabled))
	})
	ccs, err := frontend.Compile(gnarkCurve.ScalarField(), r1cs.NewBuilder, &ExecutionCircuit{})
	if err != nil {
		return nil, fmt.Errorf("gnark: compile circuit: %w", err)
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, fmt.Errorf("gnark: setup: %w", err)
	}
	if p.logger != nil {
		p.logger.Infof("gnark 可信设置完成: constraints=%d", ccs.GetNbConstraints())
	}
	p.setup = &gnarkSetup{ccs: ccs, pk: pk, vk: vk}
	return p.setup, nil
}
