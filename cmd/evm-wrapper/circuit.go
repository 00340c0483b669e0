package main

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	nativemimc "github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"
	"github.com/minio/sha256-simd"
)

// curveID 外层证明曲线，BN254 有 EVM 预编译
const curveID = ecc.BN254

// numPublicInputs 电路公开输入个数，与 verifyProof 的 uint256[5] 对应
const numPublicInputs = 5

// CommitmentCircuit 绑定程序哈希、公开值摘要与内层证明摘要
//
// 程序哈希拆成高低 128 位以落入标量域。
type CommitmentCircuit struct {
	ProgramHashHi      frontend.Variable `gnark:",public"`
	ProgramHashLo      frontend.Variable `gnark:",public"`
	PublicValuesDigest frontend.Variable `gnark:",public"`
	ProofDigest        frontend.Variable `gnark:",public"`
	Commitment         frontend.Variable `gnark:",public"`
}

// Define Commitment == MiMC(hi, lo, pv, proof)
func (c *CommitmentCircuit) Define(api frontend.API) error {
	h, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}
	h.Write(c.ProgramHashHi, c.ProgramHashLo, c.PublicValuesDigest, c.ProofDigest)
	api.AssertIsEqual(h.Sum(), c.Commitment)
	return nil
}

// statement 一次包装的公开输入
type statement struct {
	ProgramHashHi      *big.Int
	ProgramHashLo      *big.Int
	PublicValuesDigest *big.Int
	ProofDigest        *big.Int
	Commitment         *big.Int
}

// newStatement 由程序哈希、公开值和内层证明计算公开输入
func newStatement(programHash [32]byte, publicValues, proof []byte) (*statement, error) {
	s := &statement{
		ProgramHashHi:      new(big.Int).SetBytes(programHash[:16]),
		ProgramHashLo:      new(big.Int).SetBytes(programHash[16:]),
		PublicValuesDigest: digestToField(publicValues),
		ProofDigest:        digestToField(proof),
	}
	h := nativemimc.NewMiMC()
	for _, v := range []*big.Int{s.ProgramHashHi, s.ProgramHashLo, s.PublicValuesDigest, s.ProofDigest} {
		var e fr.Element
		e.SetBigInt(v)
		b := e.Bytes()
		if _, err := h.Write(b[:]); err != nil {
			return nil, err
		}
	}
	s.Commitment = new(big.Int).SetBytes(h.Sum(nil))
	return s, nil
}

// assignment 转为电路赋值
func (s *statement) assignment() *CommitmentCircuit {
	return &CommitmentCircuit{
		ProgramHashHi:      s.ProgramHashHi,
		ProgramHashLo:      s.ProgramHashLo,
		PublicValuesDigest: s.PublicValuesDigest,
		ProofDigest:        s.ProofDigest,
		Commitment:         s.Commitment,
	}
}

// inputs 公开输入，顺序与电路字段一致
func (s *statement) inputs() [numPublicInputs]*big.Int {
	return [numPublicInputs]*big.Int{s.ProgramHashHi, s.ProgramHashLo, s.PublicValuesDigest, s.ProofDigest, s.Commitment}
}

// digestToField SHA-256 后截为 248 位，保证小于 BN254 标量域
func digestToField(b []byte) *big.Int {
	sum := sha256.Sum256(b)
	return new(big.Int).SetBytes(sum[:31])
}
