package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/weisyn/coprocessor/pkg/types"
)

// EnvConfigPath 配置文件路径环境变量
const EnvConfigPath = "COPROCESSOR_CONFIG_PATH"

// DefaultConfigPath 默认配置文件路径
const DefaultConfigPath = "configs/coprocessor.json"

// ErrConfigNotFound 配置文件不存在
var ErrConfigNotFound = errors.New("config file not found")

// ResolveConfigPath 确定配置文件路径
//
// 优先级：COPROCESSOR_CONFIG_PATH > 显式路径 > configs/coprocessor.json
func ResolveConfigPath(explicit string) string {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p
	}
	if explicit != "" {
		return explicit
	}
	return DefaultConfigPath
}

// LoadFile 读取并解析配置文件
//
// .yaml/.yml 按YAML解析，其余按JSON解析。
func LoadFile(path string) (*types.AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse 按扩展名解析配置内容
func Parse(data []byte, ext string) (*types.AppConfig, error) {
	var appConfig types.AppConfig
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &appConfig); err != nil {
			return nil, fmt.Errorf("parse yaml config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &appConfig); err != nil {
			return nil, fmt.Errorf("parse json config: %w", err)
		}
	}
	return &appConfig, nil
}
