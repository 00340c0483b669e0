// Package jobs 提供与传输无关的任务调用边界
//
// 任务载荷与结果都是 JSON，字节字段统一使用十六进制字符串（可带 0x 前缀）。
package jobs

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/weisyn/coprocessor/pkg/types"
)

// EvmConfigWire EVM包装参数线格式
type EvmConfigWire struct {
	SetupDir   string `json:"setup_dir,omitempty"`
	ForceSetup bool   `json:"force_setup,omitempty"`
	Field      string `json:"field,omitempty"`
	// Timeout 如 "30m"，为空使用引擎配置
	Timeout string `json:"timeout,omitempty"`
}

// ProofRequestWire 证明任务载荷
type ProofRequestWire struct {
	ProgramHash             string         `json:"program_hash"`
	Inputs                  string         `json:"inputs"`
	ProvingType             string         `json:"proving_type,omitempty"`
	ProgramLocationOverride string         `json:"program_location_override,omitempty"`
	EthRPCURLOverride       string         `json:"eth_rpc_url_override,omitempty"`
	RegistryAddressOverride string         `json:"registry_address_override,omitempty"`
	EvmConfig               *EvmConfigWire `json:"evm_config,omitempty"`
}

// CoprocessorRequestWire 协处理器任务载荷
type CoprocessorRequestWire struct {
	ProgramHash             string               `json:"program_hash"`
	BlockchainData          types.BlockchainData `json:"blockchain_data"`
	MaxSizes                types.MaxSizes       `json:"max_sizes"`
	ProvingType             string               `json:"proving_type,omitempty"`
	ProgramLocationOverride string               `json:"program_location_override,omitempty"`
	EthRPCURLOverride       string               `json:"eth_rpc_url_override,omitempty"`
	RegistryAddressOverride string               `json:"registry_address_override,omitempty"`
	EvmConfig               *EvmConfigWire       `json:"evm_config,omitempty"`
}

// ProofResultWire 任务结果
type ProofResultWire struct {
	ProvingType       string `json:"proving_type"`
	Proof             string `json:"proof"`
	PublicValues      string `json:"public_values"`
	VerifierArtifacts string `json:"verifier_artifacts,omitempty"`
	Sound             bool   `json:"sound"`
	ProgramHash       string `json:"program_hash"`
	Inputs            string `json:"inputs"`
	Cycles            uint64 `json:"cycles,omitempty"`
	OutputDir         string `json:"output_dir,omitempty"`
}

// ToRequest 解码为领域请求；编码错误归为 InvalidRequest
func (w *ProofRequestWire) ToRequest() (*types.ProofRequest, error) {
	hash, err := types.ParseProgramHash(w.ProgramHash)
	if err != nil {
		return nil, err
	}
	inputs, err := DecodeHex("inputs", w.Inputs)
	if err != nil {
		return nil, err
	}
	mode, err := types.ParseProvingMode(w.ProvingType)
	if err != nil {
		return nil, err
	}
	registry, err := decodeOverride(w.EthRPCURLOverride, w.RegistryAddressOverride)
	if err != nil {
		return nil, err
	}
	evm, err := w.EvmConfig.toConfig()
	if err != nil {
		return nil, err
	}
	return &types.ProofRequest{
		ProgramHash:      hash,
		Inputs:           inputs,
		Mode:             mode,
		LocationOverride: strings.TrimSpace(w.ProgramLocationOverride),
		Evm:              evm,
		Registry:         registry,
	}, nil
}

// ToRequest 解码为协处理器请求
func (w *CoprocessorRequestWire) ToRequest() (*types.CoprocessorProofRequest, error) {
	hash, err := types.ParseProgramHash(w.ProgramHash)
	if err != nil {
		return nil, err
	}
	mode, err := types.ParseProvingMode(w.ProvingType)
	if err != nil {
		return nil, err
	}
	registry, err := decodeOverride(w.EthRPCURLOverride, w.RegistryAddressOverride)
	if err != nil {
		return nil, err
	}
	evm, err := w.EvmConfig.toConfig()
	if err != nil {
		return nil, err
	}
	return &types.CoprocessorProofRequest{
		ProgramHash:      hash,
		BlockchainData:   w.BlockchainData,
		MaxSizes:         w.MaxSizes,
		Mode:             mode,
		LocationOverride: strings.TrimSpace(w.ProgramLocationOverride),
		Evm:              evm,
		Registry:         registry,
	}, nil
}

func (w *EvmConfigWire) toConfig() (*types.EvmConfig, error) {
	if w == nil {
		return nil, nil
	}
	cfg := &types.EvmConfig{SetupDir: w.SetupDir, ForceSetup: w.ForceSetup, Field: w.Field}
	if w.Timeout != "" {
		d, err := time.ParseDuration(w.Timeout)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("%w: evm_config.timeout %q", types.ErrInvalidRequest, w.Timeout)
		}
		cfg.Timeout = d
	}
	return cfg, nil
}

func decodeOverride(rpcURL, address string) (*types.RegistryOverride, error) {
	rpcURL = strings.TrimSpace(rpcURL)
	address = strings.TrimSpace(address)
	if rpcURL == "" && address == "" {
		return nil, nil
	}
	override := &types.RegistryOverride{RPCURL: rpcURL}
	if address != "" {
		if !common.IsHexAddress(address) {
			return nil, fmt.Errorf("%w: registry_address_override %q is not an address", types.ErrInvalidRequest, address)
		}
		override.Address = common.HexToAddress(address)
	}
	return override, nil
}

// DecodeHex 解码十六进制字段，空串得到空字节
func DecodeHex(field, s string) ([]byte, error) {
	raw := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if raw == "" {
		return []byte{}, nil
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not valid hex: %v", types.ErrInvalidRequest, field, err)
	}
	return b, nil
}

// NewProofResultWire 编码领域结果
func NewProofResultWire(res *types.ProofResult) *ProofResultWire {
	w := &ProofResultWire{
		ProvingType:  res.Mode.String(),
		Proof:        hexutil.Encode(res.Proof),
		PublicValues: hexutil.Encode(res.PublicValues),
		Sound:        res.Sound,
		ProgramHash:  res.ProgramHash.String(),
		Inputs:       hexutil.Encode(res.Inputs),
		Cycles:       res.Cycles,
		OutputDir:    res.OutputDir,
	}
	if len(res.VerifierArtifacts) > 0 {
		w.VerifierArtifacts = hexutil.Encode(res.VerifierArtifacts)
	}
	return w
}
