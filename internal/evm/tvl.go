package evm

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// balancerVault is the Balancer vault, deployed at the same address on every
// supported chain. Its token balance is the flash-loanable depth for that
// token.
const balancerVault = "0xBA12222222228d8Ba445958a75a0704d566BF2C8"

const erc20ABI = `[{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"}]`

var (
	parsedERC20     abi.ABI
	parsedERC20Once sync.Once
)

func erc20() abi.ABI {
	parsedERC20Once.Do(func() {
		var err error
		parsedERC20, err = abi.JSON(strings.NewReader(erc20ABI))
		if err != nil {
			panic(fmt.Sprintf("parse erc20 abi: %v", err))
		}
	})
	return parsedERC20
}

// VaultTVL implements domain.TVLSource by reading the token balance of the
// flash-loan vault on the target chain.
type VaultTVL struct {
	source backendSource
	vault  common.Address
}

// NewVaultTVL creates a TVL source over the Balancer vault.
func NewVaultTVL(source backendSource) *VaultTVL {
	return &VaultTVL{source: source, vault: common.HexToAddress(balancerVault)}
}

// PoolTVL returns the vault's balance of token on chainID, in raw token units.
func (v *VaultTVL) PoolTVL(ctx context.Context, chainID int64, token string) (*big.Int, error) {
	backend, err := v.source.Backend(ctx, chainID)
	if err != nil {
		return nil, err
	}

	data, err := erc20().Pack("balanceOf", v.vault)
	if err != nil {
		return nil, fmt.Errorf("pack balanceOf: %w", err)
	}

	to := common.HexToAddress(token)
	out, err := backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("balanceOf %s on chain %d: %w", token, chainID, err)
	}
	if len(out) == 0 {
		return big.NewInt(0), nil
	}

	unpacked, err := erc20().Unpack("balanceOf", out)
	if err != nil {
		return nil, fmt.Errorf("unpack balanceOf: %w", err)
	}
	bal, ok := unpacked[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf result type %T", unpacked[0])
	}
	return bal, nil
}
