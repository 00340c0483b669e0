package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// 与引擎约定的产出文件名
const (
	proofFile        = "proof.data"
	publicValuesFile = "pv_file"
	inputsJSONFile   = "inputs.json"
	calldataFile     = "calldata"

	provingKeyFile   = "pk.bin"
	verifyingKeyFile = "vk.bin"
	verifierSolFile  = "Groth16Verifier.sol"
	setupLockFile    = ".lock"
)

const verifierABI = `[{"type":"function","name":"verifyProof","stateMutability":"view","inputs":[{"name":"proof","type":"uint256[8]"},{"name":"input","type":"uint256[5]"}],"outputs":[]}]`

// fpSize BN254 基域元素字节数
const fpSize = 32

// wrapRequest 一次包装的参数
type wrapRequest struct {
	ProofPath        string
	PublicValuesPath string
	ProgramHash      string
	SetupDir         string
	OutputDir        string
	ForceSetup       bool
	Field            string
}

// solidityProof inputs.json 内容
type solidityProof struct {
	Proof        [8]string `json:"proof"`
	Inputs       []string  `json:"inputs"`
	PublicValues string    `json:"public_values"`
	ProgramHash  string    `json:"program_hash"`
	Field        string    `json:"field,omitempty"`
}

// wrapResult 包装结果摘要
type wrapResult struct {
	SetupGenerated bool
	Constraints    int
}

// runWrap 读取内层证明与公开值，生成 Groth16 证明并写出全部产出文件
func runWrap(req *wrapRequest) (*wrapResult, error) {
	if err := validateField(req.Field); err != nil {
		return nil, err
	}
	programHash, err := parseProgramHash(req.ProgramHash)
	if err != nil {
		return nil, err
	}
	innerProof, err := os.ReadFile(req.ProofPath)
	if err != nil {
		return nil, fmt.Errorf("read proof: %w", err)
	}
	pvRaw, err := os.ReadFile(req.PublicValuesPath)
	if err != nil {
		return nil, fmt.Errorf("read public values: %w", err)
	}
	publicValues, err := decodeHex(string(pvRaw))
	if err != nil {
		return nil, fmt.Errorf("public values: %w", err)
	}

	ccs, err := frontend.Compile(curveID.ScalarField(), r1cs.NewBuilder, &CommitmentCircuit{})
	if err != nil {
		return nil, fmt.Errorf("compile circuit: %w", err)
	}
	pk, vk, generated, err := loadOrSetup(ccs, req.SetupDir, req.ForceSetup)
	if err != nil {
		return nil, err
	}

	stmt, err := newStatement(programHash, publicValues, innerProof)
	if err != nil {
		return nil, fmt.Errorf("commitment: %w", err)
	}
	witness, err := frontend.NewWitness(stmt.assignment(), curveID.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("new witness: %w", err)
	}
	publicWitness, err := witness.Public()
	if err != nil {
		return nil, fmt.Errorf("public witness: %w", err)
	}
	proof, err := groth16.Prove(ccs, pk, witness)
	if err != nil {
		return nil, fmt.Errorf("groth16 prove: %w", err)
	}
	if err := groth16.Verify(proof, vk, publicWitness); err != nil {
		return nil, fmt.Errorf("groth16 verify: %w", err)
	}

	points, err := proofPoints(proof)
	if err != nil {
		return nil, err
	}
	if err := writeOutputs(req, points, stmt, programHash, publicValues); err != nil {
		return nil, err
	}
	return &wrapResult{SetupGenerated: generated, Constraints: ccs.GetNbConstraints()}, nil
}

// loadOrSetup 复用 setupDir 中的 pk/vk，缺失或 force 时重新生成并写回
//
// 整个读取或生成过程持有 setupDir 锁；三个文件各自经临时文件 rename 落盘，
// 并发包装进程看到的 pk/vk 总是同一次 setup 的产物。
func loadOrSetup(ccs constraint.ConstraintSystem, dir string, force bool) (groth16.ProvingKey, groth16.VerifyingKey, bool, error) {
	unlock, err := lockSetupDir(dir)
	if err != nil {
		return nil, nil, false, err
	}
	defer unlock()

	if !force {
		pk, vk, err := readSetup(dir)
		if err == nil {
			return pk, vk, false, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, nil, false, err
		}
	}

	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, nil, false, fmt.Errorf("groth16 setup: %w", err)
	}
	var sol bytes.Buffer
	if err := vk.ExportSolidity(&sol); err != nil {
		return nil, nil, false, fmt.Errorf("export verifier: %w", err)
	}
	// pk 最后落盘，readSetup 以 pk 缺失判定未 setup
	if err := os.Remove(filepath.Join(dir, provingKeyFile)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, nil, false, err
	}
	if err := writeAtomic(filepath.Join(dir, verifyingKeyFile), vk.WriteTo); err != nil {
		return nil, nil, false, err
	}
	if err := writeAtomic(filepath.Join(dir, verifierSolFile), sol.WriteTo); err != nil {
		return nil, nil, false, err
	}
	if err := writeAtomic(filepath.Join(dir, provingKeyFile), pk.WriteTo); err != nil {
		return nil, nil, false, err
	}
	return pk, vk, true, nil
}

func readSetup(dir string) (groth16.ProvingKey, groth16.VerifyingKey, error) {
	pkBytes, err := os.ReadFile(filepath.Join(dir, provingKeyFile))
	if err != nil {
		return nil, nil, err
	}
	vkBytes, err := os.ReadFile(filepath.Join(dir, verifyingKeyFile))
	if err != nil {
		return nil, nil, err
	}
	pk := groth16.NewProvingKey(curveID)
	if _, err := pk.ReadFrom(bytes.NewReader(pkBytes)); err != nil {
		return nil, nil, fmt.Errorf("read pk: %w", err)
	}
	vk := groth16.NewVerifyingKey(curveID)
	if _, err := vk.ReadFrom(bytes.NewReader(vkBytes)); err != nil {
		return nil, nil, fmt.Errorf("read vk: %w", err)
	}
	return pk, vk, nil
}

// proofPoints 未压缩序列化的前 8 个基域元素即 Solidity 验证器的 uint256[8]
func proofPoints(proof groth16.Proof) ([8]*big.Int, error) {
	var points [8]*big.Int
	var buf bytes.Buffer
	if _, err := proof.WriteRawTo(&buf); err != nil {
		return points, fmt.Errorf("serialize proof: %w", err)
	}
	raw := buf.Bytes()
	if len(raw) < 8*fpSize {
		return points, fmt.Errorf("serialized proof too short: %d bytes", len(raw))
	}
	for i := range points {
		points[i] = new(big.Int).SetBytes(raw[i*fpSize : (i+1)*fpSize])
	}
	return points, nil
}

func writeOutputs(req *wrapRequest, points [8]*big.Int, stmt *statement, programHash [32]byte, publicValues []byte) error {
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return err
	}

	proofBytes := make([]byte, 0, 8*fpSize)
	for _, p := range points {
		proofBytes = append(proofBytes, leftPad(p.Bytes(), fpSize)...)
	}
	if err := os.WriteFile(filepath.Join(req.OutputDir, proofFile), proofBytes, 0o644); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(req.OutputDir, publicValuesFile), []byte(hex.EncodeToString(publicValues)), 0o644); err != nil {
		return err
	}

	inputs := stmt.inputs()
	doc := solidityProof{
		Inputs:       make([]string, 0, len(inputs)),
		PublicValues: hexutil.Encode(publicValues),
		ProgramHash:  hexutil.Encode(programHash[:]),
		Field:        req.Field,
	}
	for i, p := range points {
		doc.Proof[i] = p.String()
	}
	for _, in := range inputs {
		doc.Inputs = append(doc.Inputs, in.String())
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(req.OutputDir, inputsJSONFile), b, 0o644); err != nil {
		return err
	}

	calldata, err := packCalldata(points, inputs)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(req.OutputDir, calldataFile), calldata, 0o644)
}

// packCalldata ABI 编码 verifyProof(uint256[8],uint256[5]) 调用数据
func packCalldata(points [8]*big.Int, inputs [numPublicInputs]*big.Int) ([]byte, error) {
	parsed, err := abi.JSON(strings.NewReader(verifierABI))
	if err != nil {
		return nil, err
	}
	return parsed.Pack("verifyProof", points, inputs)
}

func validateField(field string) error {
	switch strings.ToLower(field) {
	case "", "kb", "bn254":
		return nil
	default:
		return fmt.Errorf("unsupported field %q", field)
	}
}

func parseProgramHash(s string) ([32]byte, error) {
	var h [32]byte
	b, err := decodeHex(s)
	if err != nil {
		return h, fmt.Errorf("program hash: %w", err)
	}
	if len(b) != len(h) {
		return h, fmt.Errorf("program hash must be 32 bytes, got %d", len(b))
	}
	copy(h[:], b)
	return h, nil
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return hex.DecodeString(s)
}

func leftPad(b []byte, size int) []byte {
	if len(b) >= size {
		return b
	}
	out := make([]byte, size)
	copy(out[size-len(b):], b)
	return out
}

// writeAtomic 写入同目录临时文件后 rename 到目标路径
func writeAtomic(path string, write func(w io.Writer) (int64, error)) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
