// Package registry 提供程序注册表配置
package registry

import (
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	configtypes "github.com/weisyn/coprocessor/pkg/types"
)

// RegistryOptions 注册表配置选项
type RegistryOptions struct {
	Mode             string         `json:"mode"`               // eth | local
	RPCURL           string         `json:"eth_rpc_url"`        // 以太坊RPC地址
	ContractAddress  common.Address `json:"contract_address"`   // ProgramRegistry 合约地址
	CallTimeout      time.Duration  `json:"call_timeout"`       // 单次调用超时
	MaxCachedClients int            `json:"max_cached_clients"` // 覆盖端点客户端缓存上限
}

// Config 注册表配置实现
type Config struct {
	options *RegistryOptions
}

// New 创建注册表配置
func New(userConfig interface{}) *Config {
	options := &RegistryOptions{
		Mode:             defaultMode,
		RPCURL:           defaultRPCURL,
		CallTimeout:      defaultCallTimeout,
		MaxCachedClients: defaultMaxCachedClients,
	}
	if userConfig != nil {
		applyUserConfig(options, userConfig)
	}
	return &Config{options: options}
}

func applyUserConfig(options *RegistryOptions, userConfig interface{}) {
	cfg, ok := userConfig.(*configtypes.UserRegistryConfig)
	if !ok || cfg == nil {
		return
	}
	if cfg.RPCURL != nil && *cfg.RPCURL != "" {
		options.RPCURL = *cfg.RPCURL
		options.Mode = ModeEth
	}
	if cfg.ContractAddress != nil && common.IsHexAddress(*cfg.ContractAddress) {
		options.ContractAddress = common.HexToAddress(*cfg.ContractAddress)
	}
	if cfg.Mode != nil {
		switch m := strings.ToLower(*cfg.Mode); m {
		case ModeEth, ModeLocal:
			options.Mode = m
		}
	}
	if cfg.CallTimeout != nil {
		if d, err := time.ParseDuration(*cfg.CallTimeout); err == nil && d > 0 {
			options.CallTimeout = d
		}
	}
}

// GetOptions 获取注册表配置选项
func (c *Config) GetOptions() *RegistryOptions {
	return c.options
}

// IsEth 是否使用链上注册表
func (o *RegistryOptions) IsEth() bool {
	return o.Mode == ModeEth
}
