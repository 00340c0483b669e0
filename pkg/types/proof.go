// Package types 证明请求、结果、配置与错误分类的公共类型
package types

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ProgramHashLength 程序哈希长度（SHA-256）
const ProgramHashLength = 32

// ProgramHash 程序二进制的SHA-256摘要
//
// 全系统的主键：注册表条目、拉取缓存、证明结果都以它为索引。
type ProgramHash [ProgramHashLength]byte

// ParseProgramHash 解析十六进制程序哈希
//
// 📋 **接受格式**：64个十六进制字符，可带 0x 前缀，大小写不敏感
func ParseProgramHash(s string) (ProgramHash, error) {
	var h ProgramHash
	raw := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if len(raw) != ProgramHashLength*2 {
		return h, fmt.Errorf("%w: program hash must be %d hex chars, got %d", ErrInvalidRequest, ProgramHashLength*2, len(raw))
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return h, fmt.Errorf("%w: program hash is not hex: %v", ErrInvalidRequest, err)
	}
	copy(h[:], b)
	return h, nil
}

// Hex 返回不带前缀的小写十六进制
func (h ProgramHash) Hex() string {
	return hex.EncodeToString(h[:])
}

// String 返回带 0x 前缀的十六进制
func (h ProgramHash) String() string {
	return "0x" + h.Hex()
}

// IsZero 是否为全零哈希
func (h ProgramHash) IsZero() bool {
	return h == ProgramHash{}
}

// MarshalText 实现 encoding.TextMarshaler
func (h ProgramHash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (h *ProgramHash) UnmarshalText(text []byte) error {
	parsed, err := ParseProgramHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ProvingMode 证明模式
type ProvingMode int

const (
	// ProvingModeFull 完整证明（递归简洁证明），线格式默认值
	ProvingModeFull ProvingMode = iota
	// ProvingModeFast 仅执行，不具备密码学可靠性，只用于调试
	ProvingModeFast
	// ProvingModeFullWithEvm 完整证明 + 外部进程包装为链上可验证的配对证明
	ProvingModeFullWithEvm
)

// String 返回模式的线格式名称
func (m ProvingMode) String() string {
	switch m {
	case ProvingModeFast:
		return "Fast"
	case ProvingModeFull:
		return "Full"
	case ProvingModeFullWithEvm:
		return "FullWithEvm"
	default:
		return fmt.Sprintf("ProvingMode(%d)", int(m))
	}
}

// ParseProvingMode 解析证明模式名称，空字符串取默认值 Full
func ParseProvingMode(s string) (ProvingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "full":
		return ProvingModeFull, nil
	case "fast":
		return ProvingModeFast, nil
	case "fullwithevm", "full_with_evm", "evm":
		return ProvingModeFullWithEvm, nil
	default:
		return ProvingModeFull, fmt.Errorf("%w: unknown proving mode %q", ErrInvalidRequest, s)
	}
}

// MarshalText 实现 encoding.TextMarshaler
func (m ProvingMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (m *ProvingMode) UnmarshalText(text []byte) error {
	parsed, err := ParseProvingMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// IsSound 该模式产出的结果是否具备密码学可靠性
func (m ProvingMode) IsSound() bool {
	return m == ProvingModeFull || m == ProvingModeFullWithEvm
}

// ProgramRecord 注册表条目快照
//
// 解析时获取的值快照，不是注册表状态的实时引用；
// 每次请求重新解析，除非调用方显式提供位置覆盖。
type ProgramRecord struct {
	Hash     ProgramHash    `json:"hash"`
	Location string         `json:"location"`
	Owner    common.Address `json:"owner"`
}

// EvmConfig EVM包装进程参数
type EvmConfig struct {
	// SetupDir 存放 pk/vk 的目录，为空时使用引擎配置
	SetupDir string `json:"setup_dir,omitempty"`
	// ForceSetup 即使已有 pk/vk 也重新生成
	ForceSetup bool `json:"force_setup,omitempty"`
	// Field 外层证明使用的域标识（例如 "kb"）
	Field string `json:"field,omitempty"`
	// Timeout 包装进程超时，0 表示使用引擎配置
	Timeout time.Duration `json:"timeout,omitempty"`
}

// RegistryOverride 单请求注册表端点覆盖
type RegistryOverride struct {
	RPCURL  string         `json:"rpc_url,omitempty"`
	Address common.Address `json:"address,omitempty"`
}

// IsEmpty 是否没有任何覆盖字段
func (o *RegistryOverride) IsEmpty() bool {
	return o == nil || (o.RPCURL == "" && o.Address == (common.Address{}))
}

// ProofRequest 证明请求
//
// ⚠️ 创建后不可变，由创建它的流水线调用独占。
// 流水线只校验传输编码，不校验程序相关的输入语义。
type ProofRequest struct {
	ProgramHash      ProgramHash
	Inputs           []byte
	Mode             ProvingMode
	LocationOverride string
	Evm              *EvmConfig
	Registry         *RegistryOverride
}

// ProofResult 证明结果
//
// 📋 **不变量**：
//   - 成功时 Proof 非空
//   - VerifierArtifacts 当且仅当 Mode == FullWithEvm 时存在
//   - Sound 当且仅当 Mode != Fast
type ProofResult struct {
	Mode              ProvingMode
	Proof             []byte
	PublicValues      []byte
	VerifierArtifacts []byte
	Sound             bool

	ProgramHash ProgramHash
	Inputs      []byte
	OutputDir   string
	Cycles      uint64
}

// ProvingOutput 证明引擎的原始产出，由结果组装器转换为 ProofResult
type ProvingOutput struct {
	Mode              ProvingMode
	Proof             []byte
	PublicValues      []byte
	VerifierArtifacts []byte
	OutputDir         string
	Cycles            uint64
}
