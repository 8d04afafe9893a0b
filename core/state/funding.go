package state

import (
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"royaltychain/native/royalty"
)

var genesisTimeKeyBytes = []byte("royalty/genesis-time")

// FundingVaultAddress is the deterministic module account holding the custody
// pool pending payments are claimed from. No private key exists for it; only
// the funding adapter moves its balance.
func FundingVaultAddress() [20]byte {
	hash := ethcrypto.Keccak256([]byte("royaltychain/funding-vault"))
	var addr [20]byte
	copy(addr[:], hash[12:])
	return addr
}

// FundingDeposit credits the custody vault. Used at genesis and by the
// administrative funding endpoint; the ledger itself never mints.
func (m *Manager) FundingDeposit(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("state: deposit amount must be positive")
	}
	vault := FundingVaultAddress()
	account, err := m.GetAccount(vault)
	if err != nil {
		return err
	}
	account.Balance = new(big.Int).Add(account.Balance, amount)
	return m.PutAccount(vault, account)
}

// FundingBalance returns the custody vault balance.
func (m *Manager) FundingBalance() (*big.Int, error) {
	account, err := m.GetAccount(FundingVaultAddress())
	if err != nil {
		return nil, err
	}
	return account.Balance, nil
}

// fundingAdapter exposes the custody vault through the engine's FundingSource
// interface. The balance check and the two account writes run back to back
// with no suspension point in between, matching the ledger's single total
// order execution model.
type fundingAdapter struct {
	m *Manager
}

// Funding returns the vault-backed funding source for the royalty engine.
func (m *Manager) Funding() royalty.FundingSource {
	return fundingAdapter{m: m}
}

func (f fundingAdapter) AvailableBalance() (*big.Int, error) {
	return f.m.FundingBalance()
}

func (f fundingAdapter) Transfer(recipient [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("state: transfer amount must be positive")
	}
	vault := FundingVaultAddress()
	vaultAcc, err := f.m.GetAccount(vault)
	if err != nil {
		return err
	}
	if vaultAcc.Balance.Cmp(amount) < 0 {
		return royalty.ErrInsufficientFunds
	}
	recipientAcc, err := f.m.GetAccount(recipient)
	if err != nil {
		return err
	}
	originalVault := new(big.Int).Set(vaultAcc.Balance)
	vaultAcc.Balance = new(big.Int).Sub(vaultAcc.Balance, amount)
	recipientAcc.Balance = new(big.Int).Add(recipientAcc.Balance, amount)
	if err := f.m.PutAccount(vault, vaultAcc); err != nil {
		return err
	}
	if err := f.m.PutAccount(recipient, recipientAcc); err != nil {
		if restoreErr := f.m.PutAccount(vault, &Account{Balance: originalVault}); restoreErr != nil {
			return fmt.Errorf("state: rollback vault after failed credit: %v (original: %w)", restoreErr, err)
		}
		return err
	}
	return nil
}

// GenesisTimeGet returns the persisted genesis timestamp for the height
// clock, or zero when it was never set.
func (m *Manager) GenesisTimeGet() (int64, error) {
	value, err := m.loadUint64(prefixedKey(genesisTimeKeyBytes, nil))
	if err != nil {
		return 0, err
	}
	return int64(value), nil
}

// GenesisTimePut stores the genesis timestamp. Written once on first boot.
func (m *Manager) GenesisTimePut(unix int64) error {
	if unix < 0 {
		return fmt.Errorf("state: negative genesis time")
	}
	return m.writeUint64(prefixedKey(genesisTimeKeyBytes, nil), uint64(unix))
}
