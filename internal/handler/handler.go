package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Dan9191/bank-ledger/internal/middleware"
	"github.com/Dan9191/bank-ledger/internal/models"
	"github.com/Dan9191/bank-ledger/internal/service"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	svc *service.Service
	log *logrus.Logger
}

func NewHandler(svc *service.Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// BalanceResponse is returned by the balance query
type BalanceResponse struct {
	AccountID int64           `json:"account_id"`
	Balance   string          `json:"balance"`
	Currency  models.Currency `json:"currency"`
}

// AccountReceipt is what a caller sees of an account it does not own:
// the movement it just caused and nothing else
type AccountReceipt struct {
	AccountID int64           `json:"account_id"`
	Movement  models.Movement `json:"movement"`
}

// TransferResponse carries the source account and either the full destination,
// when the caller owns it, or a receipt for it
type TransferResponse struct {
	Source      *models.Account `json:"source"`
	Destination *models.Account `json:"destination,omitempty"`
	Receipt     *AccountReceipt `json:"receipt,omitempty"`
}

// Register handles customer registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}
	customer, err := h.svc.Register(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusCreated, customer)
}

// Login handles customer authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !h.decode(w, r, &req) {
		return
	}
	token, err := h.svc.Login(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, map[string]string{"token": token})
}

// LoanRate reports the annual rate new loans get
func (h *Handler) LoanRate(w http.ResponseWriter, r *http.Request) {
	h.respond(w, http.StatusOK, map[string]float64{"annual_rate": h.svc.CurrentAnnualRate(r.Context())})
}

// CreateAccount handles account creation
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAccountRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.CustomerID == 0 {
		req.CustomerID, _ = service.CallerFromContext(r.Context())
	}
	account, err := h.svc.CreateAccount(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusCreated, account)
}

// Balance returns the balance and records an inquiry movement
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	account, err := h.svc.GetBalance(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, BalanceResponse{AccountID: account.ID, Balance: account.Balance.String(), Currency: account.Currency})
}

// Movements lists the account's movement log
func (h *Handler) Movements(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	movements, err := h.svc.ListMovements(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, movements)
}

// CustomerAccounts lists a customer's accounts
func (h *Handler) CustomerAccounts(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	accounts, err := h.svc.ListCustomerAccounts(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, accounts)
}

func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req models.OperationRequest
	if !h.decode(w, r, &req) {
		return
	}
	account, err := h.svc.Deposit(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !ownedByCaller(r, account) {
		h.respond(w, http.StatusOK, receiptFor(account))
		return
	}
	h.respond(w, http.StatusOK, account)
}

func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req models.OperationRequest
	if !h.decode(w, r, &req) {
		return
	}
	account, err := h.svc.Withdraw(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, account)
}

func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req models.TransferRequest
	if !h.decode(w, r, &req) {
		return
	}
	source, dest, err := h.svc.Transfer(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	resp := TransferResponse{Source: source}
	if ownedByCaller(r, dest) {
		resp.Destination = dest
	} else {
		resp.Receipt = receiptFor(dest)
	}
	h.respond(w, http.StatusOK, resp)
}

// RequestLoan returns 200 for approvals and business rejections alike; the
// status field tells them apart
func (h *Handler) RequestLoan(w http.ResponseWriter, r *http.Request) {
	var req models.LoanRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.CustomerID == 0 {
		req.CustomerID, _ = service.CallerFromContext(r.Context())
	}
	resp, err := h.svc.RequestLoan(r.Context(), req)
	if err != nil {
		h.log.WithField("request_id", middleware.RequestIDFromContext(r.Context())).Errorf("Loan request failed: %v", err)
		if resp != nil {
			h.respond(w, http.StatusInternalServerError, resp)
			return
		}
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, resp)
}

func (h *Handler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loan, err := h.svc.GetLoan(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, loan)
}

// ActiveLoans lists a customer's APPROVED and ACTIVE loans
func (h *Handler) ActiveLoans(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	loans, err := h.svc.ListActiveLoans(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, loans)
}

func ownedByCaller(r *http.Request, account *models.Account) bool {
	caller, ok := service.CallerFromContext(r.Context())
	return ok && caller == account.CustomerID
}

// receiptFor keeps only the latest movement, which the current request recorded
func receiptFor(account *models.Account) *AccountReceipt {
	receipt := &AccountReceipt{AccountID: account.ID}
	if n := len(account.Movements); n > 0 {
		receipt.Movement = account.Movements[n-1]
	}
	return receipt
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		http.Error(w, "invalid "+name, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *Handler) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	entry := h.log.WithField("request_id", middleware.RequestIDFromContext(r.Context()))
	if status == http.StatusInternalServerError {
		entry.Errorf("Request failed: %v", err)
		h.respond(w, status, map[string]string{"error": "internal error"})
		return
	}
	entry.Debugf("Request rejected: %v", err)
	h.respond(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrAccountNotFound),
		errors.Is(err, models.ErrCustomerNotFound),
		errors.Is(err, models.ErrLoanNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrCustomerExists):
		return http.StatusConflict
	case errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrInsufficientFunds),
		errors.Is(err, models.ErrCurrencyMismatch),
		errors.Is(err, models.ErrInvalidOperation),
		errors.Is(err, models.ErrInvalidTerm),
		errors.Is(err, models.ErrDuplicateAccountType),
		errors.Is(err, models.ErrUnsupportedAccountType),
		errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
