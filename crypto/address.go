package crypto

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcutil/bech32"
)

// AddressPrefix is the human-readable prefix of a bech32 account address.
type AddressPrefix string

// RoyaltyPrefix is the prefix used for every account understood by the ledger:
// rights holders, operators and the designated administrator.
const RoyaltyPrefix AddressPrefix = "rcn"

// AddressLength is the raw account identifier size in bytes.
const AddressLength = 20

// Address represents a 20-byte account identifier with a bech32 prefix.
// Addresses are opaque to the ledger: the only operation it performs on them
// is equality comparison.
type Address struct {
	prefix AddressPrefix
	bytes  [AddressLength]byte
}

// NewAddress wraps the raw identifier bytes into an Address.
func NewAddress(prefix AddressPrefix, b []byte) (Address, error) {
	if len(b) != AddressLength {
		return Address{}, fmt.Errorf("address must be %d bytes long, got %d", AddressLength, len(b))
	}
	addr := Address{prefix: prefix}
	copy(addr.bytes[:], b)
	return addr, nil
}

// MustNewAddress wraps the raw identifier bytes and panics on malformed input.
// Reserved for callers holding identifiers that were validated on entry.
func MustNewAddress(prefix AddressPrefix, b []byte) Address {
	addr, err := NewAddress(prefix, b)
	if err != nil {
		panic(err)
	}
	return addr
}

func (a Address) String() string {
	conv, err := bech32.ConvertBits(a.bytes[:], 8, 5, true)
	if err != nil {
		panic(err)
	}
	encoded, err := bech32.Encode(string(a.prefix), conv)
	if err != nil {
		panic(err)
	}
	return encoded
}

// Bytes returns a copy of the raw 20-byte identifier.
func (a Address) Bytes() []byte {
	out := make([]byte, AddressLength)
	copy(out, a.bytes[:])
	return out
}

// Raw returns the identifier as a fixed-size array, the form the ledger state
// uses for keys and equality checks.
func (a Address) Raw() [AddressLength]byte {
	return a.bytes
}

// Prefix returns the human-readable prefix associated with the address.
func (a Address) Prefix() AddressPrefix {
	return a.prefix
}

// IsZero reports whether the address is the all-zero identifier.
func (a Address) IsZero() bool {
	return a.bytes == [AddressLength]byte{}
}

// DecodeAddress parses a bech32 account address and enforces the ledger
// prefix.
func DecodeAddress(addrStr string) (Address, error) {
	prefix, decoded, err := bech32.Decode(addrStr)
	if err != nil {
		return Address{}, fmt.Errorf("invalid bech32 string: %w", err)
	}
	if AddressPrefix(prefix) != RoyaltyPrefix {
		return Address{}, fmt.Errorf("unexpected address prefix %q", prefix)
	}
	conv, err := bech32.ConvertBits(decoded, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("error converting bits: %w", err)
	}
	return NewAddress(AddressPrefix(prefix), conv)
}

// Equal reports whether two addresses carry the same raw identifier.
func (a Address) Equal(other Address) bool {
	return bytes.Equal(a.bytes[:], other.bytes[:])
}
