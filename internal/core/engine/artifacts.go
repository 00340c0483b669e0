package engine

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// 外部进程产出的文件名
const (
	ProofFile        = "proof.data"
	PublicValuesFile = "pv_file"
	InputsJSONFile   = "inputs.json"
	CalldataFile     = "calldata"
)

// readArtifact 读取必需文件，缺失或为空返回 ErrMissingArtifact
func readArtifact(dir, name string) ([]byte, error) {
	b, err := os.ReadFile(filepath.Join(dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingArtifact, name)
	}
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrMissingArtifact, name)
	}
	return b, nil
}

// readPublicValues 读取十六进制公开值
//
// 优先 pv_file（去除首尾空白），不存在时回退到 inputs.json 的 public_values 字段。
func readPublicValues(dir string) ([]byte, error) {
	raw, err := os.ReadFile(filepath.Join(dir, PublicValuesFile))
	if errors.Is(err, fs.ErrNotExist) {
		return readInputsJSONPublicValues(dir)
	}
	if err != nil {
		return nil, err
	}
	return decodeHex(string(raw))
}

func readInputsJSONPublicValues(dir string) ([]byte, error) {
	raw, err := os.ReadFile(filepath.Join(dir, InputsJSONFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s or %s", ErrMissingArtifact, PublicValuesFile, InputsJSONFile)
	}
	if err != nil {
		return nil, err
	}
	var doc struct {
		PublicValues *string `json:"public_values"`
	}
	if json.Unmarshal(raw, &doc) == nil && doc.PublicValues != nil {
		return decodeHex(*doc.PublicValues)
	}
	return decodeHex(string(raw))
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode public values: %w", err)
	}
	return b, nil
}
