package rpc

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"royaltychain/crypto"
	"royaltychain/native/royalty"
)

type createPaymentParams struct {
	SongID     uint64 `json:"songId"`
	Recipient  string `json:"recipient"`
	Amount     string `json:"amount"`
	Percentage uint8  `json:"percentage"`
}

type batchEntryParam struct {
	Recipient  string `json:"recipient"`
	Amount     string `json:"amount"`
	Percentage uint8  `json:"percentage"`
}

type batchCreateParams struct {
	SongID  uint64            `json:"songId"`
	Entries []batchEntryParam `json:"entries"`
}

type claimPaymentParams struct {
	Caller    string `json:"caller"`
	PaymentID uint64 `json:"paymentId"`
}

type reclaimPaymentParams struct {
	Caller    string `json:"caller"`
	PaymentID uint64 `json:"paymentId"`
}

type setScheduleParams struct {
	Caller          string `json:"caller"`
	SongID          uint64 `json:"songId"`
	NextPaymentDate uint64 `json:"nextPaymentDate"`
	Frequency       uint64 `json:"frequency"`
	AutoDistribute  bool   `json:"autoDistribute"`
}

type updateExpiryParams struct {
	Caller string `json:"caller"`
	Blocks uint64 `json:"blocks"`
}

type fundCustodyParams struct {
	Amount string `json:"amount"`
}

type paymentIDParams struct {
	PaymentID uint64 `json:"paymentId"`
}

type recipientParams struct {
	Recipient string `json:"recipient"`
}

type songIDParams struct {
	SongID uint64 `json:"songId"`
}

type paymentRecordResult struct {
	ID            uint64 `json:"id"`
	SongID        uint64 `json:"songId"`
	Recipient     string `json:"recipient"`
	Amount        string `json:"amount"`
	Percentage    uint8  `json:"percentage"`
	CreatedAt     uint64 `json:"createdAt"`
	ClaimDeadline uint64 `json:"claimDeadline"`
	ClaimedAt     uint64 `json:"claimedAt,omitempty"`
	Status        string `json:"status"`
}

type recipientBalanceResult struct {
	Recipient    string `json:"recipient"`
	Available    string `json:"available"`
	TotalEarned  string `json:"totalEarned"`
	LastActivity uint64 `json:"lastActivity"`
}

type songHistoryResult struct {
	SongID           uint64 `json:"songId"`
	TotalDistributed string `json:"totalDistributed"`
	PaymentCount     uint64 `json:"paymentCount"`
	LastDistribution uint64 `json:"lastDistribution"`
}

type scheduleResult struct {
	SongID          uint64 `json:"songId"`
	NextPaymentDate uint64 `json:"nextPaymentDate"`
	Frequency       uint64 `json:"frequency"`
	AutoDistribute  bool   `json:"autoDistribute"`
}

func formatAddress(addr [20]byte) string {
	return crypto.MustNewAddress(crypto.RoyaltyPrefix, addr[:]).String()
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func parseAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("amount is required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}
	return amount, nil
}

func formatRecord(record *royalty.PaymentRecord) paymentRecordResult {
	return paymentRecordResult{
		ID:            record.ID,
		SongID:        record.SongID,
		Recipient:     formatAddress(record.Recipient),
		Amount:        bigString(record.Amount),
		Percentage:    record.Percentage,
		CreatedAt:     record.CreatedAt,
		ClaimDeadline: record.ClaimDeadline,
		ClaimedAt:     record.ClaimedAt,
		Status:        record.Status.String(),
	}
}

// decodeParams enforces the single parameter object convention shared by all
// royalty methods.
func decodeParams(w http.ResponseWriter, req *RPCRequest, out interface{}) bool {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return false
	}
	if err := json.Unmarshal(req.Params[0], out); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return false
	}
	return true
}

func decodeAddressParam(w http.ResponseWriter, req *RPCRequest, field, value string) ([20]byte, bool) {
	addr, err := crypto.DecodeAddress(value)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, fmt.Sprintf("invalid %s address", field), err.Error())
		return [20]byte{}, false
	}
	return addr.Raw(), true
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, req *RPCRequest) {
	var params createPaymentParams
	if !decodeParams(w, req, &params) {
		return
	}
	recipient, ok := decodeAddressParam(w, req, "recipient", params.Recipient)
	if !ok {
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	paymentID, err := s.engine.CreatePayment(params.SongID, recipient, amount, params.Percentage)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]uint64{"paymentId": paymentID})
}

func (s *Server) handleBatchCreatePayments(w http.ResponseWriter, req *RPCRequest) {
	var params batchCreateParams
	if !decodeParams(w, req, &params) {
		return
	}
	entries := make([]royalty.BatchEntry, 0, len(params.Entries))
	for i, entry := range params.Entries {
		recipient, ok := decodeAddressParam(w, req, fmt.Sprintf("entries[%d].recipient", i), entry.Recipient)
		if !ok {
			return
		}
		amount, err := parseAmount(entry.Amount)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, fmt.Sprintf("entries[%d]: %s", i, err), nil)
			return
		}
		entries = append(entries, royalty.BatchEntry{
			Recipient:  recipient,
			Amount:     amount,
			Percentage: entry.Percentage,
		})
	}
	ids, err := s.engine.BatchCreatePayments(params.SongID, entries)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string][]uint64{"paymentIds": ids})
}

func (s *Server) handleClaimPayment(w http.ResponseWriter, req *RPCRequest) {
	var params claimPaymentParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddressParam(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	if err := s.engine.ClaimPayment(caller, params.PaymentID); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	record, err := s.engine.PaymentRecord(params.PaymentID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatRecord(record))
}

func (s *Server) handleReclaimExpiredPayment(w http.ResponseWriter, req *RPCRequest) {
	var params reclaimPaymentParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddressParam(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	if err := s.engine.ReclaimExpiredPayment(caller, params.PaymentID); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	record, err := s.engine.PaymentRecord(params.PaymentID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatRecord(record))
}

func (s *Server) handleSetPaymentSchedule(w http.ResponseWriter, req *RPCRequest) {
	var params setScheduleParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddressParam(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	schedule := royalty.PaymentSchedule{
		SongID:          params.SongID,
		NextPaymentDate: params.NextPaymentDate,
		Frequency:       params.Frequency,
		AutoDistribute:  params.AutoDistribute,
	}
	if err := s.engine.SetPaymentSchedule(caller, schedule); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, scheduleResult(schedule))
}

func (s *Server) handleUpdatePaymentExpiry(w http.ResponseWriter, req *RPCRequest) {
	var params updateExpiryParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddressParam(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	if err := s.engine.UpdatePaymentExpiry(caller, params.Blocks); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]uint64{"blocks": params.Blocks})
}

func (s *Server) handleFundCustody(w http.ResponseWriter, req *RPCRequest) {
	var params fundCustodyParams
	if !decodeParams(w, req, &params) {
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.state.FundingDeposit(amount); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "failed to fund custody pool", err.Error())
		return
	}
	balance, err := s.state.FundingBalance()
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to read custody balance", err.Error())
		return
	}
	writeResult(w, req.ID, map[string]string{"fundingBalance": bigString(balance)})
}

func (s *Server) handleGetPayment(w http.ResponseWriter, req *RPCRequest) {
	var params paymentIDParams
	if !decodeParams(w, req, &params) {
		return
	}
	record, err := s.engine.PaymentRecord(params.PaymentID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatRecord(record))
}

func (s *Server) handleGetRecipientBalance(w http.ResponseWriter, req *RPCRequest) {
	var params recipientParams
	if !decodeParams(w, req, &params) {
		return
	}
	recipient, ok := decodeAddressParam(w, req, "recipient", params.Recipient)
	if !ok {
		return
	}
	balance, err := s.engine.RecipientBalance(recipient)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, recipientBalanceResult{
		Recipient:    params.Recipient,
		Available:    bigString(balance.Available),
		TotalEarned:  bigString(balance.TotalEarned),
		LastActivity: balance.LastActivity,
	})
}

func (s *Server) handleGetAvailableBalance(w http.ResponseWriter, req *RPCRequest) {
	var params recipientParams
	if !decodeParams(w, req, &params) {
		return
	}
	recipient, ok := decodeAddressParam(w, req, "recipient", params.Recipient)
	if !ok {
		return
	}
	available, err := s.engine.AvailableBalance(recipient)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"available": bigString(available)})
}

func (s *Server) handleGetSongHistory(w http.ResponseWriter, req *RPCRequest) {
	var params songIDParams
	if !decodeParams(w, req, &params) {
		return
	}
	history, err := s.engine.SongPaymentHistory(params.SongID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, songHistoryResult{
		SongID:           history.SongID,
		TotalDistributed: bigString(history.TotalDistributed),
		PaymentCount:     history.PaymentCount,
		LastDistribution: history.LastDistribution,
	})
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, req *RPCRequest) {
	var params songIDParams
	if !decodeParams(w, req, &params) {
		return
	}
	schedule, found, err := s.engine.PaymentSchedule(params.SongID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, req.ID, codePaymentNotFound, "no schedule for song", nil)
		return
	}
	writeResult(w, req.ID, scheduleResult(*schedule))
}

func (s *Server) handleGetTotalDistributed(w http.ResponseWriter, req *RPCRequest) {
	total, err := s.engine.TotalDistributed()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"totalDistributed": bigString(total)})
}

func (s *Server) handleGetPaymentExpiry(w http.ResponseWriter, req *RPCRequest) {
	blocks, err := s.engine.PaymentExpiryBlocks()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]uint64{"blocks": blocks})
}

func (s *Server) handleGetNextPaymentID(w http.ResponseWriter, req *RPCRequest) {
	next, err := s.engine.NextPaymentID()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]uint64{"nextPaymentId": next})
}

func (s *Server) handleIsClaimable(w http.ResponseWriter, req *RPCRequest) {
	var params paymentIDParams
	if !decodeParams(w, req, &params) {
		return
	}
	claimable, err := s.engine.IsPaymentClaimable(params.PaymentID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"claimable": claimable})
}

func (s *Server) handleGetFundingBalance(w http.ResponseWriter, req *RPCRequest) {
	balance, err := s.state.FundingBalance()
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to read custody balance", err.Error())
		return
	}
	writeResult(w, req.ID, map[string]string{"fundingBalance": bigString(balance)})
}
