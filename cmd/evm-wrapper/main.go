// evm-wrapper 把内层简洁证明包装为链上可验证的 Groth16/BN254 证明
//
//	evm-wrapper wrap --proof <file> --public-values <file> --program-hash <hex>
//	  --setup-dir <dir> --output <dir> [--force-setup] [--field kb]
//
// 生成的 calldata 可直接调用 Groth16Verifier.sol 的 verifyProof。
package main

import (
	"fmt"
	"io"
	"os"

	gnarklogger "github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	wrapOpts wrapRequest
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:           "evm-wrapper",
	Short:         "Groth16/BN254 EVM 证明包装器",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var wrapCmd = &cobra.Command{
	Use:   "wrap",
	Short: "包装内层证明并写出 proof.data / pv_file / inputs.json / calldata",
	RunE: func(cmd *cobra.Command, args []string) error {
		configureGnarkLogger(verbose, cmd.ErrOrStderr())
		res, err := runWrap(&wrapOpts)
		if err != nil {
			return err
		}
		if res.SetupGenerated {
			fmt.Fprintf(cmd.OutOrStdout(), "setup generated: %s\n", wrapOpts.SetupDir)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrapped: constraints=%d output=%s\n", res.Constraints, wrapOpts.OutputDir)
		return nil
	},
}

// configureGnarkLogger gnark 内部使用 zerolog，非 verbose 时完全关闭
func configureGnarkLogger(verbose bool, w io.Writer) {
	if verbose {
		gnarklogger.Set(zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger())
		return
	}
	gnarklogger.Set(zerolog.New(io.Discard).Level(zerolog.Disabled))
}

func init() {
	fl := wrapCmd.Flags()
	fl.StringVar(&wrapOpts.ProofPath, "proof", "", "内层证明文件")
	fl.StringVar(&wrapOpts.PublicValuesPath, "public-values", "", "十六进制公开值文件")
	fl.StringVar(&wrapOpts.ProgramHash, "program-hash", "", "程序哈希（十六进制）")
	fl.StringVar(&wrapOpts.SetupDir, "setup-dir", "", "pk/vk 目录")
	fl.StringVar(&wrapOpts.OutputDir, "output", "", "产出目录")
	fl.BoolVar(&wrapOpts.ForceSetup, "force-setup", false, "忽略已有 pk/vk 重新生成")
	fl.StringVar(&wrapOpts.Field, "field", "", "内层证明域标识")
	fl.BoolVarP(&verbose, "verbose", "v", false, "输出 gnark 日志")
	for _, name := range []string{"proof", "public-values", "program-hash", "setup-dir", "output"} {
		_ = wrapCmd.MarkFlagRequired(name)
	}
	rootCmd.AddCommand(wrapCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "evm-wrapper: %v\n", err)
		os.Exit(1)
	}
}
