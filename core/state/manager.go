package state

import (
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"royaltychain/storage"
)

// Manager provides typed read/write access to the royalty ledger state on top
// of a raw key-value database. Storage keys are keccak256 hashes of a
// namespaced preimage and every record is RLP encoded, so the same layout
// works for the in-memory store in tests and LevelDB in production.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func prefixedKey(prefix []byte, suffix []byte) []byte {
	buf := make([]byte, len(prefix)+len(suffix))
	copy(buf, prefix)
	copy(buf[len(prefix):], suffix)
	return ethcrypto.Keccak256(buf)
}

// loadRecord decodes the value stored under key into out. The boolean result
// reports whether the key existed.
func (m *Manager) loadRecord(key []byte, out interface{}) (bool, error) {
	ok, err := m.db.Has(key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	data, err := m.db.Get(key)
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, fmt.Errorf("state: decode record: %w", err)
	}
	return true, nil
}

func (m *Manager) writeRecord(key []byte, record interface{}) error {
	encoded, err := rlp.EncodeToBytes(record)
	if err != nil {
		return fmt.Errorf("state: encode record: %w", err)
	}
	return m.db.Put(key, encoded)
}

func (m *Manager) loadBigInt(key []byte) (*big.Int, error) {
	value := new(big.Int)
	ok, err := m.loadRecord(key, value)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return value, nil
}

func (m *Manager) writeBigInt(key []byte, value *big.Int) error {
	if value == nil {
		value = big.NewInt(0)
	}
	if value.Sign() < 0 {
		return fmt.Errorf("state: negative counter value")
	}
	return m.writeRecord(key, value)
}

func (m *Manager) loadUint64(key []byte) (uint64, error) {
	value, err := m.loadBigInt(key)
	if err != nil {
		return 0, err
	}
	if !value.IsUint64() {
		return 0, fmt.Errorf("state: counter out of range")
	}
	return value.Uint64(), nil
}

func (m *Manager) writeUint64(key []byte, value uint64) error {
	return m.writeBigInt(key, new(big.Int).SetUint64(value))
}
