package state

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"royaltychain/native/royalty"
)

var (
	paymentRecordPrefix    = []byte("royalty/payment/")
	recipientBalancePrefix = []byte("royalty/balance/")
	songHistoryPrefix      = []byte("royalty/song/")
	paymentSchedulePrefix  = []byte("royalty/schedule/")
	paymentCounterKeyBytes = []byte("royalty/next-payment-id")
	totalDistributedBytes  = []byte("royalty/total-distributed")
	paymentExpiryKeyBytes  = []byte("royalty/payment-expiry")
)

func uint64Suffix(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

func paymentRecordKey(id uint64) []byte {
	return prefixedKey(paymentRecordPrefix, uint64Suffix(id))
}

func recipientBalanceKey(recipient [20]byte) []byte {
	return prefixedKey(recipientBalancePrefix, recipient[:])
}

func songHistoryKey(songID uint64) []byte {
	return prefixedKey(songHistoryPrefix, uint64Suffix(songID))
}

func paymentScheduleKey(songID uint64) []byte {
	return prefixedKey(paymentSchedulePrefix, uint64Suffix(songID))
}

type storedPaymentRecord struct {
	ID            uint64
	SongID        uint64
	Recipient     [20]byte
	Amount        *big.Int
	Percentage    uint8
	CreatedAt     uint64
	ClaimDeadline uint64
	ClaimedAt     uint64
	Status        uint8
}

func newStoredPaymentRecord(record *royalty.PaymentRecord) *storedPaymentRecord {
	amount := big.NewInt(0)
	if record.Amount != nil {
		amount = new(big.Int).Set(record.Amount)
	}
	return &storedPaymentRecord{
		ID:            record.ID,
		SongID:        record.SongID,
		Recipient:     record.Recipient,
		Amount:        amount,
		Percentage:    record.Percentage,
		CreatedAt:     record.CreatedAt,
		ClaimDeadline: record.ClaimDeadline,
		ClaimedAt:     record.ClaimedAt,
		Status:        uint8(record.Status),
	}
}

func (s *storedPaymentRecord) toRecord() (*royalty.PaymentRecord, error) {
	if s == nil {
		return nil, fmt.Errorf("state: nil payment record")
	}
	record := &royalty.PaymentRecord{
		ID:            s.ID,
		SongID:        s.SongID,
		Recipient:     s.Recipient,
		Amount:        big.NewInt(0),
		Percentage:    s.Percentage,
		CreatedAt:     s.CreatedAt,
		ClaimDeadline: s.ClaimDeadline,
		ClaimedAt:     s.ClaimedAt,
		Status:        royalty.PaymentStatus(s.Status),
	}
	if s.Amount != nil {
		record.Amount = new(big.Int).Set(s.Amount)
	}
	if !record.Status.Valid() {
		return nil, fmt.Errorf("state: invalid payment status %d", s.Status)
	}
	return record, nil
}

type storedRecipientBalance struct {
	Recipient    [20]byte
	Available    *big.Int
	TotalEarned  *big.Int
	LastActivity uint64
}

type storedSongHistory struct {
	SongID           uint64
	TotalDistributed *big.Int
	PaymentCount     uint64
	LastDistribution uint64
}

type storedPaymentSchedule struct {
	SongID          uint64
	NextPaymentDate uint64
	Frequency       uint64
	AutoDistribute  bool
}

// PaymentRecordGet loads the obligation stored under the payment id.
func (m *Manager) PaymentRecordGet(id uint64) (*royalty.PaymentRecord, bool, error) {
	stored := new(storedPaymentRecord)
	ok, err := m.loadRecord(paymentRecordKey(id), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	record, err := stored.toRecord()
	if err != nil {
		return nil, false, err
	}
	return record, true, nil
}

// PaymentRecordPut persists the obligation under its payment id.
func (m *Manager) PaymentRecordPut(record *royalty.PaymentRecord) error {
	if record == nil {
		return fmt.Errorf("state: nil payment record")
	}
	if !record.Status.Valid() {
		return fmt.Errorf("state: invalid payment status %d", record.Status)
	}
	return m.writeRecord(paymentRecordKey(record.ID), newStoredPaymentRecord(record))
}

// RecipientBalanceGet loads the balance row for the recipient.
func (m *Manager) RecipientBalanceGet(recipient [20]byte) (*royalty.RecipientBalance, bool, error) {
	stored := new(storedRecipientBalance)
	ok, err := m.loadRecord(recipientBalanceKey(recipient), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	balance := &royalty.RecipientBalance{
		Recipient:    stored.Recipient,
		Available:    big.NewInt(0),
		TotalEarned:  big.NewInt(0),
		LastActivity: stored.LastActivity,
	}
	if stored.Available != nil {
		balance.Available = new(big.Int).Set(stored.Available)
	}
	if stored.TotalEarned != nil {
		balance.TotalEarned = new(big.Int).Set(stored.TotalEarned)
	}
	return balance, true, nil
}

// RecipientBalancePut persists the balance row under the recipient address.
func (m *Manager) RecipientBalancePut(balance *royalty.RecipientBalance) error {
	if balance == nil {
		return fmt.Errorf("state: nil recipient balance")
	}
	clone := balance.Clone()
	return m.writeRecord(recipientBalanceKey(clone.Recipient), &storedRecipientBalance{
		Recipient:    clone.Recipient,
		Available:    clone.Available,
		TotalEarned:  clone.TotalEarned,
		LastActivity: clone.LastActivity,
	})
}

// SongHistoryGet loads the aggregate row for the song.
func (m *Manager) SongHistoryGet(songID uint64) (*royalty.SongPaymentHistory, bool, error) {
	stored := new(storedSongHistory)
	ok, err := m.loadRecord(songHistoryKey(songID), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	history := &royalty.SongPaymentHistory{
		SongID:           stored.SongID,
		TotalDistributed: big.NewInt(0),
		PaymentCount:     stored.PaymentCount,
		LastDistribution: stored.LastDistribution,
	}
	if stored.TotalDistributed != nil {
		history.TotalDistributed = new(big.Int).Set(stored.TotalDistributed)
	}
	return history, true, nil
}

// SongHistoryPut persists the aggregate row under the song id.
func (m *Manager) SongHistoryPut(history *royalty.SongPaymentHistory) error {
	if history == nil {
		return fmt.Errorf("state: nil song history")
	}
	clone := history.Clone()
	return m.writeRecord(songHistoryKey(clone.SongID), &storedSongHistory{
		SongID:           clone.SongID,
		TotalDistributed: clone.TotalDistributed,
		PaymentCount:     clone.PaymentCount,
		LastDistribution: clone.LastDistribution,
	})
}

// PaymentScheduleGet loads the schedule metadata for the song.
func (m *Manager) PaymentScheduleGet(songID uint64) (*royalty.PaymentSchedule, bool, error) {
	stored := new(storedPaymentSchedule)
	ok, err := m.loadRecord(paymentScheduleKey(songID), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &royalty.PaymentSchedule{
		SongID:          stored.SongID,
		NextPaymentDate: stored.NextPaymentDate,
		Frequency:       stored.Frequency,
		AutoDistribute:  stored.AutoDistribute,
	}, true, nil
}

// PaymentSchedulePut persists the schedule metadata under the song id.
func (m *Manager) PaymentSchedulePut(schedule *royalty.PaymentSchedule) error {
	if schedule == nil {
		return fmt.Errorf("state: nil payment schedule")
	}
	return m.writeRecord(paymentScheduleKey(schedule.SongID), &storedPaymentSchedule{
		SongID:          schedule.SongID,
		NextPaymentDate: schedule.NextPaymentDate,
		Frequency:       schedule.Frequency,
		AutoDistribute:  schedule.AutoDistribute,
	})
}

// PaymentCounterGet returns the id the next payment will be assigned. Ids are
// allocated strictly increasing starting at 1.
func (m *Manager) PaymentCounterGet() (uint64, error) {
	value, err := m.loadUint64(prefixedKey(paymentCounterKeyBytes, nil))
	if err != nil {
		return 0, err
	}
	if value == 0 {
		return 1, nil
	}
	return value, nil
}

// PaymentCounterPut stores the next payment id.
func (m *Manager) PaymentCounterPut(next uint64) error {
	return m.writeUint64(prefixedKey(paymentCounterKeyBytes, nil), next)
}

// TotalDistributedGet returns the lifetime sum over all successful claims.
func (m *Manager) TotalDistributedGet() (*big.Int, error) {
	return m.loadBigInt(prefixedKey(totalDistributedBytes, nil))
}

// TotalDistributedPut stores the lifetime claim total.
func (m *Manager) TotalDistributedPut(total *big.Int) error {
	return m.writeBigInt(prefixedKey(totalDistributedBytes, nil), total)
}

// PaymentExpiryGet returns the expiry window, in blocks, applied to future
// payment creations. Zero means the window was never configured.
func (m *Manager) PaymentExpiryGet() (uint64, error) {
	return m.loadUint64(prefixedKey(paymentExpiryKeyBytes, nil))
}

// PaymentExpiryPut stores the expiry window.
func (m *Manager) PaymentExpiryPut(blocks uint64) error {
	return m.writeUint64(prefixedKey(paymentExpiryKeyBytes, nil), blocks)
}
