package royalty

import (
	"errors"
	"math/big"
	"testing"

	"royaltychain/core/events"
)

type mockState struct {
	records   map[uint64]*PaymentRecord
	balances  map[[20]byte]*RecipientBalance
	histories map[uint64]*SongPaymentHistory
	schedules map[uint64]*PaymentSchedule
	nextID    uint64
	total     *big.Int
	expiry    uint64
}

func newMockState() *mockState {
	return &mockState{
		records:   make(map[uint64]*PaymentRecord),
		balances:  make(map[[20]byte]*RecipientBalance),
		histories: make(map[uint64]*SongPaymentHistory),
		schedules: make(map[uint64]*PaymentSchedule),
		nextID:    1,
		total:     big.NewInt(0),
		expiry:    100,
	}
}

func (m *mockState) PaymentRecordGet(id uint64) (*PaymentRecord, bool, error) {
	record, ok := m.records[id]
	if !ok {
		return nil, false, nil
	}
	return record.Clone(), true, nil
}

func (m *mockState) PaymentRecordPut(record *PaymentRecord) error {
	if record == nil {
		return nil
	}
	m.records[record.ID] = record.Clone()
	return nil
}

func (m *mockState) RecipientBalanceGet(recipient [20]byte) (*RecipientBalance, bool, error) {
	balance, ok := m.balances[recipient]
	if !ok {
		return nil, false, nil
	}
	return balance.Clone(), true, nil
}

func (m *mockState) RecipientBalancePut(balance *RecipientBalance) error {
	if balance == nil {
		return nil
	}
	m.balances[balance.Recipient] = balance.Clone()
	return nil
}

func (m *mockState) SongHistoryGet(songID uint64) (*SongPaymentHistory, bool, error) {
	history, ok := m.histories[songID]
	if !ok {
		return nil, false, nil
	}
	return history.Clone(), true, nil
}

func (m *mockState) SongHistoryPut(history *SongPaymentHistory) error {
	if history == nil {
		return nil
	}
	m.histories[history.SongID] = history.Clone()
	return nil
}

func (m *mockState) PaymentScheduleGet(songID uint64) (*PaymentSchedule, bool, error) {
	schedule, ok := m.schedules[songID]
	if !ok {
		return nil, false, nil
	}
	clone := *schedule
	return &clone, true, nil
}

func (m *mockState) PaymentSchedulePut(schedule *PaymentSchedule) error {
	if schedule == nil {
		return nil
	}
	clone := *schedule
	m.schedules[schedule.SongID] = &clone
	return nil
}

func (m *mockState) PaymentCounterGet() (uint64, error) { return m.nextID, nil }

func (m *mockState) PaymentCounterPut(next uint64) error {
	m.nextID = next
	return nil
}

func (m *mockState) TotalDistributedGet() (*big.Int, error) {
	return new(big.Int).Set(m.total), nil
}

func (m *mockState) TotalDistributedPut(total *big.Int) error {
	m.total = new(big.Int).Set(total)
	return nil
}

func (m *mockState) PaymentExpiryGet() (uint64, error) { return m.expiry, nil }

func (m *mockState) PaymentExpiryPut(blocks uint64) error {
	m.expiry = blocks
	return nil
}

type mockFunding struct {
	balance   *big.Int
	transfers int
	failNext  bool
}

func newMockFunding(balance int64) *mockFunding {
	return &mockFunding{balance: big.NewInt(balance)}
}

func (f *mockFunding) AvailableBalance() (*big.Int, error) {
	return new(big.Int).Set(f.balance), nil
}

func (f *mockFunding) Transfer(recipient [20]byte, amount *big.Int) error {
	if f.failNext {
		f.failNext = false
		return errors.New("transfer rejected")
	}
	if f.balance.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	f.balance = new(big.Int).Sub(f.balance, amount)
	f.transfers++
	return nil
}

type recordingEmitter struct {
	types []string
}

func (r *recordingEmitter) Emit(evt events.Event) {
	r.types = append(r.types, evt.EventType())
}

type testEnv struct {
	engine  *Engine
	state   *mockState
	funding *mockFunding
	emitted *recordingEmitter
	height  uint64
}

func newTestEnv(t *testing.T, fundingBalance int64) *testEnv {
	t.Helper()
	env := &testEnv{
		state:   newMockState(),
		funding: newMockFunding(fundingBalance),
		emitted: &recordingEmitter{},
	}
	env.engine = NewEngine()
	env.engine.SetState(env.state)
	env.engine.SetFunding(env.funding)
	env.engine.SetAdmin(admin)
	env.engine.SetEmitter(env.emitted)
	env.engine.SetHeightFunc(func() uint64 { return env.height })
	return env
}

var (
	admin    = [20]byte{0xad}
	alice    = [20]byte{0xa1}
	bob      = [20]byte{0xb0}
	carol    = [20]byte{0xc0}
	stranger = [20]byte{0xff}
)

// checkBalanceInvariant asserts that every recipient's available balance
// equals the sum of their pending record amounts.
func checkBalanceInvariant(t *testing.T, env *testEnv) {
	t.Helper()
	sums := make(map[[20]byte]*big.Int)
	for _, record := range env.state.records {
		if record.Status != PaymentStatusPending {
			continue
		}
		sum, ok := sums[record.Recipient]
		if !ok {
			sum = big.NewInt(0)
		}
		sums[record.Recipient] = new(big.Int).Add(sum, record.Amount)
	}
	for recipient, balance := range env.state.balances {
		expected, ok := sums[recipient]
		if !ok {
			expected = big.NewInt(0)
		}
		if balance.Available.Cmp(expected) != 0 {
			t.Fatalf("available balance invariant broken for %x: have %s, want %s", recipient, balance.Available, expected)
		}
	}
}

// checkClaimedAtInvariant asserts ClaimedAt is set if and only if the record
// is Claimed.
func checkClaimedAtInvariant(t *testing.T, env *testEnv) {
	t.Helper()
	for id, record := range env.state.records {
		claimed := record.Status == PaymentStatusClaimed
		if claimed && record.ClaimedAt == 0 && record.CreatedAt != 0 {
			t.Fatalf("payment %d claimed without ClaimedAt", id)
		}
		if !claimed && record.ClaimedAt != 0 {
			t.Fatalf("payment %d has ClaimedAt but status %s", id, record.Status)
		}
	}
}

func TestCreatePayment(t *testing.T) {
	env := newTestEnv(t, 5_000)
	env.height = 10

	paymentID, err := env.engine.CreatePayment(1, alice, big.NewInt(1000), 50)
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if paymentID != 1 {
		t.Fatalf("expected first payment id 1, got %d", paymentID)
	}

	record, err := env.engine.PaymentRecord(paymentID)
	if err != nil {
		t.Fatalf("load record: %v", err)
	}
	if record.Status != PaymentStatusPending {
		t.Fatalf("expected pending status, got %s", record.Status)
	}
	if record.CreatedAt != 10 || record.ClaimDeadline != 110 {
		t.Fatalf("unexpected heights: createdAt=%d deadline=%d", record.CreatedAt, record.ClaimDeadline)
	}
	if record.ClaimDeadline <= record.CreatedAt {
		t.Fatalf("claim deadline must exceed creation height")
	}

	available, err := env.engine.AvailableBalance(alice)
	if err != nil {
		t.Fatalf("available balance: %v", err)
	}
	if available.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("expected available 1000, got %s", available)
	}
	balance, err := env.engine.RecipientBalance(alice)
	if err != nil {
		t.Fatalf("recipient balance: %v", err)
	}
	if balance.TotalEarned.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("expected total earned 1000, got %s", balance.TotalEarned)
	}
	if balance.LastActivity != 10 {
		t.Fatalf("expected last activity 10, got %d", balance.LastActivity)
	}

	history, err := env.engine.SongPaymentHistory(1)
	if err != nil {
		t.Fatalf("song history: %v", err)
	}
	if history.PaymentCount != 1 {
		t.Fatalf("expected payment count 1, got %d", history.PaymentCount)
	}
	if history.TotalDistributed.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("expected song total 1000, got %s", history.TotalDistributed)
	}
	if history.LastDistribution != 10 {
		t.Fatalf("expected last distribution 10, got %d", history.LastDistribution)
	}

	next, err := env.engine.NextPaymentID()
	if err != nil {
		t.Fatalf("next payment id: %v", err)
	}
	if next != 2 {
		t.Fatalf("expected next id 2, got %d", next)
	}
	// No funds move on creation.
	if env.funding.transfers != 0 {
		t.Fatalf("creation must not transfer funds")
	}
	checkBalanceInvariant(t, env)
	checkClaimedAtInvariant(t, env)
}

func TestCreatePaymentValidation(t *testing.T) {
	env := newTestEnv(t, 500)

	cases := []struct {
		name       string
		amount     *big.Int
		percentage uint8
		wantErr    error
	}{
		{"zero amount", big.NewInt(0), 50, ErrInvalidInput},
		{"nil amount", nil, 50, ErrInvalidInput},
		{"negative amount", big.NewInt(-5), 50, ErrInvalidInput},
		{"zero percentage", big.NewInt(100), 0, ErrInvalidInput},
		{"percentage above 100", big.NewInt(100), 101, ErrInvalidInput},
		{"amount above funding balance", big.NewInt(501), 50, ErrInsufficientFunds},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := env.engine.CreatePayment(1, alice, tc.amount, tc.percentage); !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
	if len(env.state.records) != 0 {
		t.Fatalf("failed creations must not insert records")
	}
	if env.state.nextID != 1 {
		t.Fatalf("failed creations must not consume ids")
	}
}

func TestClaimPayment(t *testing.T) {
	env := newTestEnv(t, 5_000)
	env.height = 10

	paymentID, err := env.engine.CreatePayment(1, alice, big.NewInt(1000), 50)
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}

	if err := env.engine.ClaimPayment(bob, paymentID); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized for wrong caller, got %v", err)
	}

	// Claiming exactly at the deadline succeeds.
	env.height = 110
	if err := env.engine.ClaimPayment(alice, paymentID); err != nil {
		t.Fatalf("claim at deadline: %v", err)
	}

	record, err := env.engine.PaymentRecord(paymentID)
	if err != nil {
		t.Fatalf("load record: %v", err)
	}
	if record.Status != PaymentStatusClaimed {
		t.Fatalf("expected claimed status, got %s", record.Status)
	}
	if record.ClaimedAt != 110 {
		t.Fatalf("expected claimedAt 110, got %d", record.ClaimedAt)
	}
	available, err := env.engine.AvailableBalance(alice)
	if err != nil {
		t.Fatalf("available balance: %v", err)
	}
	if available.Sign() != 0 {
		t.Fatalf("expected drained available balance, got %s", available)
	}
	balance, err := env.engine.RecipientBalance(alice)
	if err != nil {
		t.Fatalf("recipient balance: %v", err)
	}
	if balance.TotalEarned.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("claim must not touch total earned, got %s", balance.TotalEarned)
	}
	if env.funding.balance.Cmp(big.NewInt(4_000)) != 0 {
		t.Fatalf("expected funding balance 4000, got %s", env.funding.balance)
	}
	total, err := env.engine.TotalDistributed()
	if err != nil {
		t.Fatalf("total distributed: %v", err)
	}
	if total.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("expected total distributed 1000, got %s", total)
	}

	// A second claim on the same id must fail.
	if err := env.engine.ClaimPayment(alice, paymentID); !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed on double claim, got %v", err)
	}
	if env.funding.transfers != 1 {
		t.Fatalf("double claim must not transfer twice")
	}
	checkBalanceInvariant(t, env)
	checkClaimedAtInvariant(t, env)
}

func TestClaimPaymentAfterDeadline(t *testing.T) {
	env := newTestEnv(t, 5_000)
	env.height = 10

	paymentID, err := env.engine.CreatePayment(1, alice, big.NewInt(1000), 50)
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}

	env.height = 111
	if err := env.engine.ClaimPayment(alice, paymentID); !errors.Is(err, ErrPaymentExpired) {
		t.Fatalf("expected ErrPaymentExpired one past deadline, got %v", err)
	}
	record, err := env.engine.PaymentRecord(paymentID)
	if err != nil {
		t.Fatalf("load record: %v", err)
	}
	if record.Status != PaymentStatusPending {
		t.Fatalf("failed claim must not change status, got %s", record.Status)
	}
	if env.funding.transfers != 0 {
		t.Fatalf("failed claim must not transfer funds")
	}
}

func TestClaimPaymentNotFound(t *testing.T) {
	env := newTestEnv(t, 100)
	if err := env.engine.ClaimPayment(alice, 42); !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}
}

func TestReclaimExpiredPayment(t *testing.T) {
	env := newTestEnv(t, 5_000)
	env.height = 10

	paymentID, err := env.engine.CreatePayment(1, alice, big.NewInt(1000), 50)
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}

	// Exactly at the deadline the payment is still claimable.
	env.height = 110
	if err := env.engine.ReclaimExpiredPayment(admin, paymentID); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput at deadline, got %v", err)
	}

	env.height = 111
	if err := env.engine.ReclaimExpiredPayment(stranger, paymentID); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized for non-admin, got %v", err)
	}
	if err := env.engine.ReclaimExpiredPayment(admin, paymentID); err != nil {
		t.Fatalf("reclaim past deadline: %v", err)
	}

	record, err := env.engine.PaymentRecord(paymentID)
	if err != nil {
		t.Fatalf("load record: %v", err)
	}
	if record.Status != PaymentStatusExpired {
		t.Fatalf("expected expired status, got %s", record.Status)
	}
	available, err := env.engine.AvailableBalance(alice)
	if err != nil {
		t.Fatalf("available balance: %v", err)
	}
	if available.Sign() != 0 {
		t.Fatalf("reclaim must drain the available balance, got %s", available)
	}
	balance, err := env.engine.RecipientBalance(alice)
	if err != nil {
		t.Fatalf("recipient balance: %v", err)
	}
	if balance.TotalEarned.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("reclaim must not touch total earned, got %s", balance.TotalEarned)
	}
	// No funds move on reclaim; the custody pool keeps them.
	if env.funding.transfers != 0 || env.funding.balance.Cmp(big.NewInt(5_000)) != 0 {
		t.Fatalf("reclaim must not transfer funds")
	}

	if err := env.engine.ReclaimExpiredPayment(admin, paymentID); !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed on double reclaim, got %v", err)
	}
	checkBalanceInvariant(t, env)
	checkClaimedAtInvariant(t, env)
}

func TestBatchCreatePayments(t *testing.T) {
	env := newTestEnv(t, 500)
	env.height = 20

	entries := []BatchEntry{
		{Recipient: alice, Amount: big.NewInt(200), Percentage: 40},
		{Recipient: bob, Amount: big.NewInt(200), Percentage: 40},
		{Recipient: carol, Amount: big.NewInt(100), Percentage: 20},
	}
	ids, err := env.engine.BatchCreatePayments(7, entries)
	if err != nil {
		t.Fatalf("batch create: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("expected 3 ids, got %d", len(ids))
	}
	for i, id := range ids {
		if id != uint64(i+1) {
			t.Fatalf("expected ids in input order starting at 1, got %v", ids)
		}
		record, err := env.engine.PaymentRecord(id)
		if err != nil {
			t.Fatalf("load record %d: %v", id, err)
		}
		if record.Recipient != entries[i].Recipient {
			t.Fatalf("record %d assigned to wrong recipient", id)
		}
	}
	history, err := env.engine.SongPaymentHistory(7)
	if err != nil {
		t.Fatalf("song history: %v", err)
	}
	if history.PaymentCount != 3 || history.TotalDistributed.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("unexpected history: count=%d total=%s", history.PaymentCount, history.TotalDistributed)
	}
	checkBalanceInvariant(t, env)
}

func TestBatchCreateInsufficientFunds(t *testing.T) {
	env := newTestEnv(t, 499)

	entries := []BatchEntry{
		{Recipient: alice, Amount: big.NewInt(200), Percentage: 40},
		{Recipient: bob, Amount: big.NewInt(200), Percentage: 40},
		{Recipient: carol, Amount: big.NewInt(100), Percentage: 20},
	}
	if _, err := env.engine.BatchCreatePayments(7, entries); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if len(env.state.records) != 0 {
		t.Fatalf("failed batch must create no records")
	}
	if env.state.nextID != 1 {
		t.Fatalf("failed batch must not consume ids")
	}
	if len(env.state.balances) != 0 || len(env.state.histories) != 0 {
		t.Fatalf("failed batch must leave balances and histories untouched")
	}
}

func TestBatchCreateAllOrNothing(t *testing.T) {
	env := newTestEnv(t, 10_000)

	// The invalid third entry must poison the whole batch even though the
	// first two are fine on their own.
	entries := []BatchEntry{
		{Recipient: alice, Amount: big.NewInt(200), Percentage: 40},
		{Recipient: bob, Amount: big.NewInt(200), Percentage: 40},
		{Recipient: carol, Amount: big.NewInt(0), Percentage: 20},
	}
	if _, err := env.engine.BatchCreatePayments(7, entries); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(env.state.records) != 0 || len(env.state.balances) != 0 || len(env.state.histories) != 0 {
		t.Fatalf("invalid batch must leave no partial state")
	}
}

func TestBatchCreateBounds(t *testing.T) {
	env := newTestEnv(t, 10_000)

	if _, err := env.engine.BatchCreatePayments(7, nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty batch, got %v", err)
	}
	entries := make([]BatchEntry, maxBatchEntries+1)
	for i := range entries {
		entries[i] = BatchEntry{Recipient: alice, Amount: big.NewInt(1), Percentage: 1}
	}
	if _, err := env.engine.BatchCreatePayments(7, entries); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for oversized batch, got %v", err)
	}
}

func TestBatchCreateRepeatedRecipient(t *testing.T) {
	env := newTestEnv(t, 1_000)

	entries := []BatchEntry{
		{Recipient: alice, Amount: big.NewInt(300), Percentage: 50},
		{Recipient: alice, Amount: big.NewInt(200), Percentage: 50},
	}
	if _, err := env.engine.BatchCreatePayments(3, entries); err != nil {
		t.Fatalf("batch create: %v", err)
	}
	available, err := env.engine.AvailableBalance(alice)
	if err != nil {
		t.Fatalf("available balance: %v", err)
	}
	if available.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("expected accumulated available 500, got %s", available)
	}
	checkBalanceInvariant(t, env)
}

func TestUpdatePaymentExpiry(t *testing.T) {
	env := newTestEnv(t, 10_000)
	env.height = 10

	first, err := env.engine.CreatePayment(1, alice, big.NewInt(100), 10)
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if err := env.engine.UpdatePaymentExpiry(stranger, 50); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized for non-admin, got %v", err)
	}
	if err := env.engine.UpdatePaymentExpiry(admin, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero window, got %v", err)
	}
	if err := env.engine.UpdatePaymentExpiry(admin, 50); err != nil {
		t.Fatalf("update expiry: %v", err)
	}

	second, err := env.engine.CreatePayment(1, alice, big.NewInt(100), 10)
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	firstRecord, err := env.engine.PaymentRecord(first)
	if err != nil {
		t.Fatalf("load first record: %v", err)
	}
	secondRecord, err := env.engine.PaymentRecord(second)
	if err != nil {
		t.Fatalf("load second record: %v", err)
	}
	// Existing deadlines stay put; only future creations use the new window.
	if firstRecord.ClaimDeadline != 110 {
		t.Fatalf("expiry update must not touch existing deadlines, got %d", firstRecord.ClaimDeadline)
	}
	if secondRecord.ClaimDeadline != 60 {
		t.Fatalf("expected new deadline 60, got %d", secondRecord.ClaimDeadline)
	}
}

func TestSetPaymentSchedule(t *testing.T) {
	env := newTestEnv(t, 0)

	schedule := PaymentSchedule{SongID: 9, NextPaymentDate: 500, Frequency: 100, AutoDistribute: true}
	if err := env.engine.SetPaymentSchedule(stranger, schedule); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized for non-admin, got %v", err)
	}
	if err := env.engine.SetPaymentSchedule(admin, schedule); err != nil {
		t.Fatalf("set schedule: %v", err)
	}
	stored, found, err := env.engine.PaymentSchedule(9)
	if err != nil {
		t.Fatalf("get schedule: %v", err)
	}
	if !found {
		t.Fatalf("expected stored schedule")
	}
	if *stored != schedule {
		t.Fatalf("schedule round trip mismatch: %+v", stored)
	}
	if _, found, err := env.engine.PaymentSchedule(10); err != nil || found {
		t.Fatalf("expected no schedule for unknown song")
	}
}

func TestIsPaymentClaimable(t *testing.T) {
	env := newTestEnv(t, 1_000)
	env.height = 10

	paymentID, err := env.engine.CreatePayment(1, alice, big.NewInt(100), 10)
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	env.height = 110
	if claimable, err := env.engine.IsPaymentClaimable(paymentID); err != nil || !claimable {
		t.Fatalf("expected claimable at deadline, got %v %v", claimable, err)
	}
	env.height = 111
	if claimable, err := env.engine.IsPaymentClaimable(paymentID); err != nil || claimable {
		t.Fatalf("expected not claimable past deadline")
	}
	if _, err := env.engine.IsPaymentClaimable(999); !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}
}

func TestClaimCommitsBeforeTransfer(t *testing.T) {
	env := newTestEnv(t, 1_000)
	env.height = 10

	paymentID, err := env.engine.CreatePayment(1, alice, big.NewInt(100), 10)
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	env.funding.failNext = true
	if err := env.engine.ClaimPayment(alice, paymentID); err == nil {
		t.Fatalf("expected error from failed transfer")
	}
	// The status flip commits ahead of the transfer, so the claim is spent
	// even when the transfer fails; a retry cannot double-pay.
	record, err := env.engine.PaymentRecord(paymentID)
	if err != nil {
		t.Fatalf("load record: %v", err)
	}
	if record.Status != PaymentStatusClaimed {
		t.Fatalf("expected claimed status after failed transfer, got %s", record.Status)
	}
	if err := env.engine.ClaimPayment(alice, paymentID); !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed on retry, got %v", err)
	}
}

func TestEngineEvents(t *testing.T) {
	env := newTestEnv(t, 1_000)
	env.height = 10

	paymentID, err := env.engine.CreatePayment(1, alice, big.NewInt(100), 10)
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if err := env.engine.ClaimPayment(alice, paymentID); err != nil {
		t.Fatalf("claim payment: %v", err)
	}
	want := []string{EventTypePaymentCreated, EventTypePaymentClaimed}
	if len(env.emitted.types) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), env.emitted.types)
	}
	for i, evtType := range want {
		if env.emitted.types[i] != evtType {
			t.Fatalf("expected event %s at position %d, got %s", evtType, i, env.emitted.types[i])
		}
	}
}
