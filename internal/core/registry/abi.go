package registry

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ProgramRegistryABI 链上程序注册表合约 ABI
const ProgramRegistryABI = `[
  {"type":"function","name":"registerProgram","stateMutability":"nonpayable",
   "inputs":[{"name":"programHash","type":"bytes32"},{"name":"location","type":"string"}],"outputs":[]},
  {"type":"function","name":"updateProgramLocation","stateMutability":"nonpayable",
   "inputs":[{"name":"programHash","type":"bytes32"},{"name":"newLocation","type":"string"}],"outputs":[]},
  {"type":"function","name":"transferProgramEntryOwnership","stateMutability":"nonpayable",
   "inputs":[{"name":"programHash","type":"bytes32"},{"name":"newOwner","type":"address"}],"outputs":[]},
  {"type":"function","name":"getProgramInfo","stateMutability":"view",
   "inputs":[{"name":"programHash","type":"bytes32"}],
   "outputs":[{"name":"location","type":"string"},{"name":"owner","type":"address"}]},
  {"type":"function","name":"getProgramLocation","stateMutability":"view",
   "inputs":[{"name":"programHash","type":"bytes32"}],"outputs":[{"name":"location","type":"string"}]},
  {"type":"function","name":"getProgramOwner","stateMutability":"view",
   "inputs":[{"name":"programHash","type":"bytes32"}],"outputs":[{"name":"owner","type":"address"}]},
  {"type":"function","name":"isRegistered","stateMutability":"view",
   "inputs":[{"name":"programHash","type":"bytes32"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"event","name":"ProgramRegistered","anonymous":false,
   "inputs":[{"name":"programHash","type":"bytes32","indexed":true},{"name":"owner","type":"address","indexed":true},{"name":"location","type":"string","indexed":false}]},
  {"type":"event","name":"ProgramLocationUpdated","anonymous":false,
   "inputs":[{"name":"programHash","type":"bytes32","indexed":true},{"name":"newLocation","type":"string","indexed":false}]},
  {"type":"event","name":"ProgramOwnershipTransferred","anonymous":false,
   "inputs":[{"name":"programHash","type":"bytes32","indexed":true},{"name":"previousOwner","type":"address","indexed":true},{"name":"newOwner","type":"address","indexed":true}]},
  {"type":"error","name":"LocationCannotBeEmpty","inputs":[]},
  {"type":"error","name":"ProgramNotFound","inputs":[]},
  {"type":"error","name":"NotProgramOwner","inputs":[]},
  {"type":"error","name":"ProgramAlreadyExists","inputs":[]},
  {"type":"error","name":"InvalidNewOwner","inputs":[]}
]`

// registryABI 解析后的ABI
var registryABI = mustParseABI(ProgramRegistryABI)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic("registry: invalid ABI: " + err.Error())
	}
	return parsed
}
