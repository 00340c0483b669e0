package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/weisyn/coprocessor/internal/app"
	"github.com/weisyn/coprocessor/internal/core/jobs"
)

type proveFlags struct {
	hash       string
	inputs     string
	inputsFile string
	mode       string
	location   string
	rpcURL     string
	registry   string

	evmSetupDir   string
	evmForceSetup bool
	evmField      string
	evmTimeout    string

	job     uint8
	payload string
}

var proveOpts proveFlags

var proveCmd = &cobra.Command{
	Use:   "prove",
	Short: "执行一次证明任务",
	Long: `执行一次证明任务并输出结果。

两种用法：
  coprocessor prove --hash 0x.. --inputs 0x.. --mode Fast
  coprocessor prove --job 2 --payload request.json

--payload 文件内容即任务线格式（与 POST /api/v1/jobs/:id 相同）。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		jobID, payload, err := buildPayload(&proveOpts)
		if err != nil {
			return reportError("", err)
		}
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			done := components.StartSpinner(fmt.Sprintf("%s 任务进行中...", jobs.JobName(jobID)))
			out, err := a.Dispatcher.Handle(ctx, jobID, payload)
			done(err == nil)
			if err != nil {
				return reportError("", err)
			}
			var res jobs.ProofResultWire
			if err := json.Unmarshal(out, &res); err != nil {
				return err
			}
			return components.ShowProofResult(&res)
		})
	},
}

// buildPayload 由 --payload 文件或单项标志构造任务载荷
func buildPayload(f *proveFlags) (uint8, []byte, error) {
	if f.payload != "" {
		b, err := os.ReadFile(f.payload)
		if err != nil {
			return 0, nil, fmt.Errorf("读取载荷文件: %w", err)
		}
		return f.job, b, nil
	}
	if f.job != jobs.JobGenerateProof {
		return 0, nil, fmt.Errorf("任务 %d 需要通过 --payload 提供载荷", f.job)
	}

	inputs := f.inputs
	if f.inputsFile != "" {
		b, err := os.ReadFile(f.inputsFile)
		if err != nil {
			return 0, nil, fmt.Errorf("读取输入文件: %w", err)
		}
		inputs = hex.EncodeToString(b)
	}
	req := jobs.ProofRequestWire{
		ProgramHash:             f.hash,
		Inputs:                  inputs,
		ProvingType:             f.mode,
		ProgramLocationOverride: f.location,
		EthRPCURLOverride:       f.rpcURL,
		RegistryAddressOverride: f.registry,
	}
	if f.evmSetupDir != "" || f.evmForceSetup || f.evmField != "" || f.evmTimeout != "" {
		req.EvmConfig = &jobs.EvmConfigWire{
			SetupDir:   f.evmSetupDir,
			ForceSetup: f.evmForceSetup,
			Field:      f.evmField,
			Timeout:    f.evmTimeout,
		}
	}
	b, err := json.Marshal(req)
	return jobs.JobGenerateProof, b, err
}

func init() {
	fl := proveCmd.Flags()
	fl.StringVar(&proveOpts.hash, "hash", "", "程序哈希（64位十六进制）")
	fl.StringVar(&proveOpts.inputs, "inputs", "", "十六进制编码的程序输入")
	fl.StringVar(&proveOpts.inputsFile, "inputs-file", "", "原始字节输入文件，优先于 --inputs")
	fl.StringVar(&proveOpts.mode, "mode", "Full", "证明模式: Fast|Full|FullWithEvm")
	fl.StringVar(&proveOpts.location, "location", "", "跳过注册表，直接使用该程序位置")
	fl.StringVar(&proveOpts.rpcURL, "rpc-url", "", "单次覆盖注册表RPC地址")
	fl.StringVar(&proveOpts.registry, "registry-address", "", "单次覆盖注册表合约地址")
	fl.StringVar(&proveOpts.evmSetupDir, "evm-setup-dir", "", "EVM包装 pk/vk 目录")
	fl.BoolVar(&proveOpts.evmForceSetup, "evm-force-setup", false, "重新生成 pk/vk")
	fl.StringVar(&proveOpts.evmField, "evm-field", "", "外层证明域标识")
	fl.StringVar(&proveOpts.evmTimeout, "evm-timeout", "", "EVM包装超时，如 10m")
	fl.Uint8Var(&proveOpts.job, "job", jobs.JobGenerateProof, "任务编号: 1=generate_proof 2=coprocessor_proof")
	fl.StringVar(&proveOpts.payload, "payload", "", "任务载荷JSON文件")
}
