package royalty

import "math/big"

// PaymentStatus represents the lifecycle states of a payment record. A record
// starts Pending and moves exactly once to Claimed or Expired; no transition
// ever returns it to Pending.
type PaymentStatus uint8

const (
	PaymentStatusPending PaymentStatus = iota
	PaymentStatusClaimed
	PaymentStatusExpired
)

// Valid reports whether the status value is within the supported range.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusClaimed, PaymentStatusExpired:
		return true
	default:
		return false
	}
}

func (s PaymentStatus) String() string {
	switch s {
	case PaymentStatusPending:
		return "pending"
	case PaymentStatusClaimed:
		return "claimed"
	case PaymentStatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// PaymentRecord is a single obligation to pay a fixed amount to one recipient
// for one song. ClaimedAt is non-zero if and only if the record is Claimed.
type PaymentRecord struct {
	ID            uint64        `json:"id"`
	SongID        uint64        `json:"songId"`
	Recipient     [20]byte      `json:"recipient"`
	Amount        *big.Int      `json:"amount"`
	Percentage    uint8         `json:"percentage"`
	CreatedAt     uint64        `json:"createdAt"`
	ClaimDeadline uint64        `json:"claimDeadline"`
	ClaimedAt     uint64        `json:"claimedAt"`
	Status        PaymentStatus `json:"status"`
}

// Clone returns a deep copy of the record so callers can safely mutate the
// copy without affecting the stored instance.
func (p *PaymentRecord) Clone() *PaymentRecord {
	if p == nil {
		return nil
	}
	clone := *p
	if p.Amount != nil {
		clone.Amount = new(big.Int).Set(p.Amount)
	} else {
		clone.Amount = big.NewInt(0)
	}
	return &clone
}

// RecipientBalance maintains the running accounting view for a single rights
// holder. Available always equals the sum of that recipient's Pending record
// amounts; TotalEarned is the lifetime sum of everything ever created for
// them and is never decremented.
type RecipientBalance struct {
	Recipient    [20]byte `json:"recipient"`
	Available    *big.Int `json:"available"`
	TotalEarned  *big.Int `json:"totalEarned"`
	LastActivity uint64   `json:"lastActivity"`
}

// Clone returns a deep copy of the balance row.
func (b *RecipientBalance) Clone() *RecipientBalance {
	if b == nil {
		return nil
	}
	clone := *b
	if b.Available != nil {
		clone.Available = new(big.Int).Set(b.Available)
	} else {
		clone.Available = big.NewInt(0)
	}
	if b.TotalEarned != nil {
		clone.TotalEarned = new(big.Int).Set(b.TotalEarned)
	} else {
		clone.TotalEarned = big.NewInt(0)
	}
	return &clone
}

// SongPaymentHistory is the append-only aggregate over every record created
// for a song. Rows are created lazily on first payment and default to zeros.
type SongPaymentHistory struct {
	SongID           uint64   `json:"songId"`
	TotalDistributed *big.Int `json:"totalDistributed"`
	PaymentCount     uint64   `json:"paymentCount"`
	LastDistribution uint64   `json:"lastDistribution"`
}

// Clone returns a deep copy of the history row.
func (h *SongPaymentHistory) Clone() *SongPaymentHistory {
	if h == nil {
		return nil
	}
	clone := *h
	if h.TotalDistributed != nil {
		clone.TotalDistributed = new(big.Int).Set(h.TotalDistributed)
	} else {
		clone.TotalDistributed = big.NewInt(0)
	}
	return &clone
}

// PaymentSchedule is administrative metadata only. Nothing in the ledger reads
// it to trigger work; it records a declared intent an external operator may
// act on.
type PaymentSchedule struct {
	SongID          uint64 `json:"songId"`
	NextPaymentDate uint64 `json:"nextPaymentDate"`
	Frequency       uint64 `json:"frequency"`
	AutoDistribute  bool   `json:"autoDistribute"`
}

// BatchEntry is one recipient line of a batch creation request.
type BatchEntry struct {
	Recipient  [20]byte `json:"recipient"`
	Amount     *big.Int `json:"amount"`
	Percentage uint8    `json:"percentage"`
}

func newRecipientBalance(recipient [20]byte) *RecipientBalance {
	return &RecipientBalance{
		Recipient:   recipient,
		Available:   big.NewInt(0),
		TotalEarned: big.NewInt(0),
	}
}

func newSongHistory(songID uint64) *SongPaymentHistory {
	return &SongPaymentHistory{
		SongID:           songID,
		TotalDistributed: big.NewInt(0),
	}
}
