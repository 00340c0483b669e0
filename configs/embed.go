// Package configs 内置配置模板
package configs

import (
	_ "embed"
	"fmt"
)

//go:embed coprocessor.json
var defaultConfig []byte

//go:embed local.yaml
var localConfig []byte

// Profile 内置配置及其格式扩展名
type Profile struct {
	Content []byte
	Ext     string
}

// Get 按名称返回内置配置：default（链上注册表）| local（本地注册表）
func Get(name string) (*Profile, error) {
	switch name {
	case "", "default":
		return &Profile{Content: defaultConfig, Ext: ".json"}, nil
	case "local":
		return &Profile{Content: localConfig, Ext: ".yaml"}, nil
	default:
		return nil, fmt.Errorf("unknown config profile %q", name)
	}
}
