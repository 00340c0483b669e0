package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/weisyn/coprocessor/internal/app"
	"github.com/weisyn/coprocessor/internal/cli/ui"
	"github.com/weisyn/coprocessor/internal/core/registry"
	"github.com/weisyn/coprocessor/pkg/types"
)

var registryFrom string

// errEthRegistry 链上注册表只能通过合约交易修改
var errEthRegistry = errors.New("registry is in eth mode; use the contract directly")

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "管理本地程序注册表",
}

var registryRegisterCmd = &cobra.Command{
	Use:   "register <hash> <location>",
	Short: "登记程序，--from 成为所有者",
	Args:  cobra.ExactArgs(2),
	RunE: withLocal(func(ctx context.Context, reg *registry.Local, caller common.Address, args []string) error {
		hash, err := types.ParseProgramHash(args[0])
		if err != nil {
			return err
		}
		if err := reg.RegisterProgram(ctx, caller, hash, args[1]); err != nil {
			return err
		}
		components.ShowSuccess("已登记 " + hash.String())
		return nil
	}),
}

var registryUpdateCmd = &cobra.Command{
	Use:   "update <hash> <location>",
	Short: "更新程序位置（仅所有者）",
	Args:  cobra.ExactArgs(2),
	RunE: withLocal(func(ctx context.Context, reg *registry.Local, caller common.Address, args []string) error {
		hash, err := types.ParseProgramHash(args[0])
		if err != nil {
			return err
		}
		if err := reg.UpdateProgramLocation(ctx, caller, hash, args[1]); err != nil {
			return err
		}
		components.ShowSuccess("已更新 " + hash.String())
		return nil
	}),
}

var registryTransferCmd = &cobra.Command{
	Use:   "transfer <hash> <new-owner>",
	Short: "转移条目所有权（仅所有者）",
	Args:  cobra.ExactArgs(2),
	RunE: withLocal(func(ctx context.Context, reg *registry.Local, caller common.Address, args []string) error {
		hash, err := types.ParseProgramHash(args[0])
		if err != nil {
			return err
		}
		if !common.IsHexAddress(args[1]) {
			return fmt.Errorf("%w: %q is not an address", types.ErrInvalidRequest, args[1])
		}
		if err := reg.TransferProgramEntryOwnership(ctx, caller, hash, common.HexToAddress(args[1])); err != nil {
			return err
		}
		components.ShowSuccess("已转移 " + hash.String())
		return nil
	}),
}

var registryInfoCmd = &cobra.Command{
	Use:   "info <hash>",
	Short: "查询条目",
	Args:  cobra.ExactArgs(1),
	RunE: withLocal(func(ctx context.Context, reg *registry.Local, _ common.Address, args []string) error {
		hash, err := types.ParseProgramHash(args[0])
		if err != nil {
			return err
		}
		rec, err := reg.GetProgramInfo(ctx, hash)
		if err != nil {
			return err
		}
		return components.ShowKeyValuePairs("程序条目", map[string]string{
			"hash":     rec.Hash.String(),
			"location": rec.Location,
			"owner":    rec.Owner.Hex(),
		})
	}),
}

var registryListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出全部条目",
	Args:  cobra.NoArgs,
	RunE: withLocal(func(ctx context.Context, reg *registry.Local, _ common.Address, _ []string) error {
		records, err := reg.List(ctx)
		if err != nil {
			return err
		}
		if components.Format() == ui.FormatJSON {
			return components.ShowJSON(records)
		}
		if len(records) == 0 {
			components.ShowWarning("注册表为空")
			return nil
		}
		data := [][]string{{"hash", "location", "owner"}}
		for _, rec := range records {
			data = append(data, []string{rec.Hash.String(), rec.Location, rec.Owner.Hex()})
		}
		return components.ShowTable(fmt.Sprintf("程序条目 (%d)", len(records)), data)
	}),
}

// withLocal 打开应用并把本地注册表交给 fn，eth 模式下返回 errEthRegistry
func withLocal(fn func(ctx context.Context, reg *registry.Local, caller common.Address, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		var caller common.Address
		if registryFrom != "" {
			if !common.IsHexAddress(registryFrom) {
				return reportError("", fmt.Errorf("%w: --from %q is not an address", types.ErrInvalidRequest, registryFrom))
			}
			caller = common.HexToAddress(registryFrom)
		}
		err := withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			if a.Local == nil {
				return errEthRegistry
			}
			return fn(ctx, a.Local, caller, args)
		})
		if err == nil || errors.Is(err, errReported) || errors.Is(err, errEthRegistry) {
			return err
		}
		return reportError("", err)
	}
}

func init() {
	registryCmd.PersistentFlags().StringVar(&registryFrom, "from", "", "调用者地址（修改操作的所有者身份）")
	registryCmd.AddCommand(registryRegisterCmd, registryUpdateCmd, registryTransferCmd, registryInfoCmd, registryListCmd)
}
