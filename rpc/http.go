package rpc

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"royaltychain/core/state"
	"royaltychain/native/royalty"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
	authTokenEnv    = "ROYALTY_RPC_TOKEN"
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
	codeUnauthorized   = -32001

	codeNotAuthorized     = -32030
	codeInsufficientFunds = -32031
	codePaymentNotFound   = -32032
	codeAlreadyClaimed    = -32033
	codePaymentExpired    = -32034
	codeAmountOverflow    = -32035
)

// Server exposes the royalty ledger over JSON-RPC 2.0. Mutating methods
// additionally require a bearer token when one is configured via
// ROYALTY_RPC_TOKEN.
type Server struct {
	engine    *royalty.Engine
	state     *state.Manager
	authToken string
}

// NewServer wires the RPC surface around the engine and its state manager.
func NewServer(engine *royalty.Engine, manager *state.Manager) *Server {
	return &Server{
		engine:    engine,
		state:     manager,
		authToken: strings.TrimSpace(os.Getenv(authTokenEnv)),
	}
}

// Start serves the JSON-RPC endpoint and the prometheus scrape endpoint on
// the supplied address. It blocks until the listener fails.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeEngineError translates ledger sentinel errors into stable RPC codes so
// clients can distinguish failure kinds without parsing messages.
func writeEngineError(w http.ResponseWriter, id interface{}, err error) {
	code := codeServerError
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, royalty.ErrNotAuthorized):
		code = codeNotAuthorized
		status = http.StatusForbidden
	case errors.Is(err, royalty.ErrInsufficientFunds):
		code = codeInsufficientFunds
	case errors.Is(err, royalty.ErrPaymentNotFound):
		code = codePaymentNotFound
		status = http.StatusNotFound
	case errors.Is(err, royalty.ErrAlreadyClaimed):
		code = codeAlreadyClaimed
	case errors.Is(err, royalty.ErrPaymentExpired):
		code = codePaymentExpired
	case errors.Is(err, royalty.ErrInvalidInput):
		code = codeInvalidParams
	case errors.Is(err, royalty.ErrOverflow):
		code = codeAmountOverflow
	default:
		status = http.StatusInternalServerError
	}
	writeError(w, status, id, code, err.Error(), nil)
}

// handle is the main request handler that routes to specific handlers.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	switch req.Method {
	case "royalty_createPayment":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleCreatePayment(w, req)
	case "royalty_batchCreatePayments":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleBatchCreatePayments(w, req)
	case "royalty_claimPayment":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleClaimPayment(w, req)
	case "royalty_reclaimExpiredPayment":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleReclaimExpiredPayment(w, req)
	case "royalty_setPaymentSchedule":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleSetPaymentSchedule(w, req)
	case "royalty_updatePaymentExpiry":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleUpdatePaymentExpiry(w, req)
	case "royalty_fundCustody":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleFundCustody(w, req)
	case "royalty_getPayment":
		s.handleGetPayment(w, req)
	case "royalty_getRecipientBalance":
		s.handleGetRecipientBalance(w, req)
	case "royalty_getAvailableBalance":
		s.handleGetAvailableBalance(w, req)
	case "royalty_getSongHistory":
		s.handleGetSongHistory(w, req)
	case "royalty_getSchedule":
		s.handleGetSchedule(w, req)
	case "royalty_getTotalDistributed":
		s.handleGetTotalDistributed(w, req)
	case "royalty_getPaymentExpiry":
		s.handleGetPaymentExpiry(w, req)
	case "royalty_getNextPaymentId":
		s.handleGetNextPaymentID(w, req)
	case "royalty_isClaimable":
		s.handleIsClaimable(w, req)
	case "royalty_getFundingBalance":
		s.handleGetFundingBalance(w, req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("method %q not found", req.Method), nil)
	}
}

func (s *Server) requireAuth(r *http.Request) *RPCError {
	if s.authToken == "" {
		return &RPCError{Code: codeUnauthorized, Message: "RPC authentication token not configured"}
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing Authorization header"}
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return &RPCError{Code: codeUnauthorized, Message: "Authorization header must use Bearer scheme"}
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
		return &RPCError{Code: codeUnauthorized, Message: "invalid RPC credentials"}
	}
	return nil
}
