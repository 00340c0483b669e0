package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ============================================================================
//                           协处理器数据类型
// ============================================================================
//
// 协处理器任务把链上数据（收据、存储槽、交易）打包后作为程序输入，
// 由用户的zkVM程序反序列化处理。

// SerializableLog 日志记录
type SerializableLog struct {
	Address common.Address `json:"address"`
	Topics  []common.Hash  `json:"topics"`
	DataHex string         `json:"data_hex"`
}

// SerializableReceipt 交易收据
type SerializableReceipt struct {
	TransactionHash common.Hash       `json:"transaction_hash"`
	Status          *hexutil.Big      `json:"status,omitempty"`
	Logs            []SerializableLog `json:"logs"`
	RawDataHex      string            `json:"raw_data_hex"`
}

// SerializableStorageSlot 存储槽
type SerializableStorageSlot struct {
	Address     common.Address `json:"address"`
	Slot        common.Hash    `json:"slot"`
	Value       common.Hash    `json:"value"`
	BlockNumber *hexutil.Big   `json:"block_number"`
}

// SerializableTransaction 交易
type SerializableTransaction struct {
	TransactionHash common.Hash     `json:"transaction_hash"`
	From            common.Address  `json:"from"`
	To              *common.Address `json:"to,omitempty"`
	Value           *hexutil.Big    `json:"value"`
	InputDataHex    string          `json:"input_data_hex"`
	RawDataHex      string          `json:"raw_data_hex"`
}

// BlockchainData 协处理器输入的链上数据
type BlockchainData struct {
	Receipts     []SerializableReceipt     `json:"receipts,omitempty"`
	StorageSlots []SerializableStorageSlot `json:"storage_slots,omitempty"`
	Transactions []SerializableTransaction `json:"transactions,omitempty"`
}

// MaxSizes 协处理器SDK初始化所需的容量上限
type MaxSizes struct {
	MaxReceiptSize uint64 `json:"max_receipt_size"`
	MaxStorageSize uint64 `json:"max_storage_size"`
	MaxTxSize      uint64 `json:"max_tx_size"`
}

// Validate 每个上限必须大于0且为32的倍数
func (s MaxSizes) Validate() error {
	for name, v := range map[string]uint64{
		"max_receipt_size": s.MaxReceiptSize,
		"max_storage_size": s.MaxStorageSize,
		"max_tx_size":      s.MaxTxSize,
	} {
		if v == 0 || v%32 != 0 {
			return fmt.Errorf("%w: %s must be > 0 and a multiple of 32, got %d", ErrInvalidRequest, name, v)
		}
	}
	return nil
}

// CoprocessorInputBundle 交给程序的输入包
type CoprocessorInputBundle struct {
	Data  BlockchainData `json:"data"`
	Sizes MaxSizes       `json:"sizes"`
}

// CoprocessorProofRequest 协处理器证明请求
type CoprocessorProofRequest struct {
	ProgramHash      ProgramHash
	BlockchainData   BlockchainData
	MaxSizes         MaxSizes
	Mode             ProvingMode
	LocationOverride string
	Evm              *EvmConfig
	Registry         *RegistryOverride
}
