package royalty

import (
	"errors"
	"fmt"
	"math/big"

	"royaltychain/core/events"
)

var (
	errNilState   = errors.New("royalty engine: state not configured")
	errNilFunding = errors.New("royalty engine: funding source not configured")
	errNilAdmin   = errors.New("royalty engine: administrator not configured")
)

// maxBatchEntries bounds a single batch creation request.
const maxBatchEntries = 10

// engineState is the persistence surface the engine requires. The ledger
// tables and the three scalar counters behind it must survive restarts.
type engineState interface {
	PaymentRecordGet(id uint64) (*PaymentRecord, bool, error)
	PaymentRecordPut(record *PaymentRecord) error
	RecipientBalanceGet(recipient [20]byte) (*RecipientBalance, bool, error)
	RecipientBalancePut(balance *RecipientBalance) error
	SongHistoryGet(songID uint64) (*SongPaymentHistory, bool, error)
	SongHistoryPut(history *SongPaymentHistory) error
	PaymentScheduleGet(songID uint64) (*PaymentSchedule, bool, error)
	PaymentSchedulePut(schedule *PaymentSchedule) error
	PaymentCounterGet() (uint64, error)
	PaymentCounterPut(next uint64) error
	TotalDistributedGet() (*big.Int, error)
	TotalDistributedPut(total *big.Int) error
	PaymentExpiryGet() (uint64, error)
	PaymentExpiryPut(blocks uint64) error
}

// FundingSource is the external custody pool payments are claimed from. The
// engine treats it as a dependency it does not own: it only queries the
// available balance and requests transfers.
type FundingSource interface {
	AvailableBalance() (*big.Int, error)
	Transfer(recipient [20]byte, amount *big.Int) error
}

// Engine wires the royalty ledger business logic with persistence, the
// funding source and event emission. Operations run one at a time against
// shared state: each validates all preconditions before its first write, so a
// failed operation leaves the ledger untouched.
type Engine struct {
	state    engineState
	funding  FundingSource
	emitter  events.Emitter
	admin    [20]byte
	heightFn func() uint64
}

// NewEngine constructs a royalty engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter:  events.NoopEmitter{},
		heightFn: func() uint64 { return 0 },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetFunding configures the custody pool claims are paid from.
func (e *Engine) SetFunding(funding FundingSource) { e.funding = funding }

// SetAdmin configures the designated administrator identity. Admin-gated
// operations compare the caller against it byte for byte.
func (e *Engine) SetAdmin(addr [20]byte) { e.admin = addr }

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetHeightFunc overrides the chain height source. The ledger never waits on
// heights; it only compares the current value against stored deadlines.
func (e *Engine) SetHeightFunc(height func() uint64) {
	if height == nil {
		e.heightFn = func() uint64 { return 0 }
		return
	}
	e.heightFn = height
}

func (e *Engine) emit(evt *events.Payload) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(WrapEvent(evt))
}

func (e *Engine) height() uint64 {
	if e == nil || e.heightFn == nil {
		return 0
	}
	return e.heightFn()
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.funding == nil {
		return errNilFunding
	}
	return nil
}

func (e *Engine) requireAdmin(caller [20]byte) error {
	if e.admin == ([20]byte{}) {
		return errNilAdmin
	}
	if caller != e.admin {
		return ErrNotAuthorized
	}
	return nil
}

func validateEntry(amount *big.Int, percentage uint8) error {
	if !ValidAmount(amount) {
		return fmt.Errorf("%w: amount must be positive and within the ceiling", ErrInvalidInput)
	}
	if percentage < 1 || percentage > 100 {
		return fmt.Errorf("%w: percentage must be between 1 and 100", ErrInvalidInput)
	}
	return nil
}

// stagedPayment carries the fully validated effects of one record insertion so
// they can be committed without further checks.
type stagedPayment struct {
	record  *PaymentRecord
	balance *RecipientBalance
	history *SongPaymentHistory
}

// stagePayment computes the record, balance and history rows a creation will
// write. Rows already staged in the same batch take precedence over stored
// ones so consecutive entries for one recipient accumulate correctly.
func (e *Engine) stagePayment(id uint64, songID uint64, recipient [20]byte, amount *big.Int, percentage uint8, height uint64, deadline uint64, balances map[[20]byte]*RecipientBalance, histories map[uint64]*SongPaymentHistory) (*stagedPayment, error) {
	balance, ok := balances[recipient]
	if !ok {
		stored, found, err := e.state.RecipientBalanceGet(recipient)
		if err != nil {
			return nil, err
		}
		if !found || stored == nil {
			stored = newRecipientBalance(recipient)
		}
		balance = stored.Clone()
	}
	available, err := CheckedAdd(balance.Available, amount)
	if err != nil {
		return nil, err
	}
	earned, err := CheckedAdd(balance.TotalEarned, amount)
	if err != nil {
		return nil, err
	}
	balance.Available = available
	balance.TotalEarned = earned
	balance.LastActivity = height
	balances[recipient] = balance

	history, ok := histories[songID]
	if !ok {
		stored, found, err := e.state.SongHistoryGet(songID)
		if err != nil {
			return nil, err
		}
		if !found || stored == nil {
			stored = newSongHistory(songID)
		}
		history = stored.Clone()
	}
	distributed, err := CheckedAdd(history.TotalDistributed, amount)
	if err != nil {
		return nil, err
	}
	history.TotalDistributed = distributed
	history.PaymentCount++
	history.LastDistribution = height
	histories[songID] = history

	record := &PaymentRecord{
		ID:            id,
		SongID:        songID,
		Recipient:     recipient,
		Amount:        new(big.Int).Set(amount),
		Percentage:    percentage,
		CreatedAt:     height,
		ClaimDeadline: deadline,
		Status:        PaymentStatusPending,
	}
	return &stagedPayment{record: record, balance: balance, history: history}, nil
}

// CreatePayment records a new obligation for the recipient and returns the
// allocated payment id. The funding source must already hold the amount; no
// funds move until the recipient claims.
func (e *Engine) CreatePayment(songID uint64, recipient [20]byte, amount *big.Int, percentage uint8) (uint64, error) {
	ids, err := e.createPayments(songID, []BatchEntry{{Recipient: recipient, Amount: amount, Percentage: percentage}})
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// BatchCreatePayments records up to maxBatchEntries obligations for one song
// in input order. The funding balance is checked once against the sum of all
// entry amounts, and the whole batch fails with no state change when any
// entry is invalid.
func (e *Engine) BatchCreatePayments(songID uint64, entries []BatchEntry) ([]uint64, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: batch must not be empty", ErrInvalidInput)
	}
	if len(entries) > maxBatchEntries {
		return nil, fmt.Errorf("%w: batch exceeds %d entries", ErrInvalidInput, maxBatchEntries)
	}
	return e.createPayments(songID, entries)
}

func (e *Engine) createPayments(songID uint64, entries []BatchEntry) ([]uint64, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	total := big.NewInt(0)
	for _, entry := range entries {
		if err := validateEntry(entry.Amount, entry.Percentage); err != nil {
			return nil, err
		}
		sum, err := CheckedAdd(total, entry.Amount)
		if err != nil {
			return nil, err
		}
		total = sum
	}
	available, err := e.funding.AvailableBalance()
	if err != nil {
		return nil, err
	}
	if available == nil || available.Cmp(total) < 0 {
		return nil, ErrInsufficientFunds
	}
	expiry, err := e.state.PaymentExpiryGet()
	if err != nil {
		return nil, err
	}
	if expiry == 0 {
		return nil, fmt.Errorf("%w: payment expiry window not configured", ErrInvalidInput)
	}
	nextID, err := e.state.PaymentCounterGet()
	if err != nil {
		return nil, err
	}
	height := e.height()
	deadline := height + expiry

	staged := make([]*stagedPayment, 0, len(entries))
	balances := make(map[[20]byte]*RecipientBalance)
	histories := make(map[uint64]*SongPaymentHistory)
	for i, entry := range entries {
		payment, err := e.stagePayment(nextID+uint64(i), songID, entry.Recipient, entry.Amount, entry.Percentage, height, deadline, balances, histories)
		if err != nil {
			return nil, err
		}
		staged = append(staged, payment)
	}

	// Every precondition held; commit the staged rows.
	ids := make([]uint64, 0, len(staged))
	for _, payment := range staged {
		if err := e.state.PaymentRecordPut(payment.record); err != nil {
			return nil, err
		}
		ids = append(ids, payment.record.ID)
	}
	for _, balance := range balances {
		if err := e.state.RecipientBalancePut(balance); err != nil {
			return nil, err
		}
	}
	for _, history := range histories {
		if err := e.state.SongHistoryPut(history); err != nil {
			return nil, err
		}
	}
	if err := e.state.PaymentCounterPut(nextID + uint64(len(staged))); err != nil {
		return nil, err
	}
	for _, payment := range staged {
		e.emit(PaymentCreatedEvent(payment.record))
	}
	return ids, nil
}

// ClaimPayment transfers a pending payment to its recipient. Only the named
// recipient may claim, and only while the current height is at or before the
// deadline. The record flips to Claimed and the balance row is decremented
// before the funding transfer is invoked, so a reentrant call observes the
// record as already claimed; a failed transfer is returned as a fatal error
// and the record stays Claimed.
func (e *Engine) ClaimPayment(caller [20]byte, paymentID uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	record, found, err := e.state.PaymentRecordGet(paymentID)
	if err != nil {
		return err
	}
	if !found || record == nil {
		return ErrPaymentNotFound
	}
	if record.Status != PaymentStatusPending {
		return ErrAlreadyClaimed
	}
	if caller != record.Recipient {
		return ErrNotAuthorized
	}
	height := e.height()
	if height > record.ClaimDeadline {
		return ErrPaymentExpired
	}
	available, err := e.funding.AvailableBalance()
	if err != nil {
		return err
	}
	if available == nil || available.Cmp(record.Amount) < 0 {
		return ErrInsufficientFunds
	}
	balance, found, err := e.state.RecipientBalanceGet(record.Recipient)
	if err != nil {
		return err
	}
	if !found || balance == nil {
		balance = newRecipientBalance(record.Recipient)
	}
	newAvailable, err := CheckedSub(balance.Available, record.Amount)
	if err != nil {
		return err
	}
	total, err := e.state.TotalDistributedGet()
	if err != nil {
		return err
	}
	newTotal, err := CheckedAdd(total, record.Amount)
	if err != nil {
		return err
	}

	record.Status = PaymentStatusClaimed
	record.ClaimedAt = height
	if err := e.state.PaymentRecordPut(record); err != nil {
		return err
	}
	balance.Available = newAvailable
	balance.LastActivity = height
	if err := e.state.RecipientBalancePut(balance); err != nil {
		return err
	}
	if err := e.state.TotalDistributedPut(newTotal); err != nil {
		return err
	}
	if err := e.funding.Transfer(record.Recipient, record.Amount); err != nil {
		// The status flip already committed; the claim is spent either way.
		return fmt.Errorf("royalty: funding transfer failed after claim committed: %w", err)
	}
	e.emit(PaymentClaimedEvent(record))
	return nil
}

// ReclaimExpiredPayment voids a pending payment whose deadline has passed.
// Administrator only. The recipient's available balance drops by the amount;
// no funds move, the custody pool keeps them.
func (e *Engine) ReclaimExpiredPayment(caller [20]byte, paymentID uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	record, found, err := e.state.PaymentRecordGet(paymentID)
	if err != nil {
		return err
	}
	if !found || record == nil {
		return ErrPaymentNotFound
	}
	if record.Status != PaymentStatusPending {
		return ErrAlreadyClaimed
	}
	height := e.height()
	if height <= record.ClaimDeadline {
		return fmt.Errorf("%w: claim deadline not reached", ErrInvalidInput)
	}
	balance, found, err := e.state.RecipientBalanceGet(record.Recipient)
	if err != nil {
		return err
	}
	if !found || balance == nil {
		balance = newRecipientBalance(record.Recipient)
	}
	newAvailable, err := CheckedSub(balance.Available, record.Amount)
	if err != nil {
		return err
	}

	record.Status = PaymentStatusExpired
	if err := e.state.PaymentRecordPut(record); err != nil {
		return err
	}
	balance.Available = newAvailable
	balance.LastActivity = height
	if err := e.state.RecipientBalancePut(balance); err != nil {
		return err
	}
	e.emit(PaymentExpiredEvent(record))
	return nil
}

// SetPaymentSchedule stores schedule metadata for a song. Administrator only.
// Nothing reads the schedule to trigger distributions.
func (e *Engine) SetPaymentSchedule(caller [20]byte, schedule PaymentSchedule) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if err := e.state.PaymentSchedulePut(&schedule); err != nil {
		return err
	}
	e.emit(ScheduleUpdatedEvent(&schedule))
	return nil
}

// UpdatePaymentExpiry changes the expiry window used for future creations.
// Administrator only. Existing deadlines are untouched.
func (e *Engine) UpdatePaymentExpiry(caller [20]byte, blocks uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if blocks == 0 {
		return fmt.Errorf("%w: expiry window must be positive", ErrInvalidInput)
	}
	if err := e.state.PaymentExpiryPut(blocks); err != nil {
		return err
	}
	e.emit(ExpiryUpdatedEvent(blocks))
	return nil
}

// PaymentRecord returns the stored record for the id without mutating state.
func (e *Engine) PaymentRecord(paymentID uint64) (*PaymentRecord, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	record, found, err := e.state.PaymentRecordGet(paymentID)
	if err != nil {
		return nil, err
	}
	if !found || record == nil {
		return nil, ErrPaymentNotFound
	}
	return record.Clone(), nil
}

// RecipientBalance returns the balance row for the recipient, defaulting to
// zeros when no payment was ever created for them.
func (e *Engine) RecipientBalance(recipient [20]byte) (*RecipientBalance, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	balance, found, err := e.state.RecipientBalanceGet(recipient)
	if err != nil {
		return nil, err
	}
	if !found || balance == nil {
		return newRecipientBalance(recipient), nil
	}
	return balance.Clone(), nil
}

// AvailableBalance returns the sum of the recipient's still-pending amounts.
func (e *Engine) AvailableBalance(recipient [20]byte) (*big.Int, error) {
	balance, err := e.RecipientBalance(recipient)
	if err != nil {
		return nil, err
	}
	return balance.Available, nil
}

// SongPaymentHistory returns the aggregate row for the song, defaulting to
// zeros before the first payment.
func (e *Engine) SongPaymentHistory(songID uint64) (*SongPaymentHistory, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	history, found, err := e.state.SongHistoryGet(songID)
	if err != nil {
		return nil, err
	}
	if !found || history == nil {
		return newSongHistory(songID), nil
	}
	return history.Clone(), nil
}

// PaymentSchedule returns the stored schedule metadata for the song, if any.
func (e *Engine) PaymentSchedule(songID uint64) (*PaymentSchedule, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	schedule, found, err := e.state.PaymentScheduleGet(songID)
	if err != nil {
		return nil, false, err
	}
	if !found || schedule == nil {
		return nil, false, nil
	}
	clone := *schedule
	return &clone, true, nil
}

// TotalDistributed returns the lifetime sum over all successful claims.
func (e *Engine) TotalDistributed() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	total, err := e.state.TotalDistributedGet()
	if err != nil {
		return nil, err
	}
	if total == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(total), nil
}

// PaymentExpiryBlocks returns the expiry window applied to future creations.
func (e *Engine) PaymentExpiryBlocks() (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	return e.state.PaymentExpiryGet()
}

// NextPaymentID returns the id the next created payment will receive.
func (e *Engine) NextPaymentID() (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	return e.state.PaymentCounterGet()
}

// IsPaymentClaimable reports whether the record is Pending and the current
// height has not passed its deadline.
func (e *Engine) IsPaymentClaimable(paymentID uint64) (bool, error) {
	if e == nil || e.state == nil {
		return false, errNilState
	}
	record, found, err := e.state.PaymentRecordGet(paymentID)
	if err != nil {
		return false, err
	}
	if !found || record == nil {
		return false, ErrPaymentNotFound
	}
	return record.Status == PaymentStatusPending && e.height() <= record.ClaimDeadline, nil
}
