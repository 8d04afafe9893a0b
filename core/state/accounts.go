package state

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

var accountPrefix = []byte("royalty/account/")

// Account is the minimal on-ledger account: a single token balance. It covers
// rights-holder payout accounts and the custody vault.
type Account struct {
	Balance *big.Int
}

type storedAccount struct {
	Balance *uint256.Int
}

func accountKey(addr [20]byte) []byte {
	return prefixedKey(accountPrefix, addr[:])
}

// GetAccount returns the account stored under the address, defaulting to a
// zero balance when the address was never touched.
func (m *Manager) GetAccount(addr [20]byte) (*Account, error) {
	stored := new(storedAccount)
	ok, err := m.loadRecord(accountKey(addr), stored)
	if err != nil {
		return nil, err
	}
	account := &Account{Balance: big.NewInt(0)}
	if ok && stored.Balance != nil {
		account.Balance = stored.Balance.ToBig()
	}
	return account, nil
}

// PutAccount persists the account under the address. Balances must fit the
// 256-bit storage representation.
func (m *Manager) PutAccount(addr [20]byte, account *Account) error {
	if account == nil {
		return fmt.Errorf("state: nil account")
	}
	balance := account.Balance
	if balance == nil {
		balance = big.NewInt(0)
	}
	if balance.Sign() < 0 {
		return fmt.Errorf("state: negative account balance")
	}
	stored, overflow := uint256.FromBig(balance)
	if overflow {
		return fmt.Errorf("state: account balance exceeds storage range")
	}
	return m.writeRecord(accountKey(addr), &storedAccount{Balance: stored})
}
