package handler

import (
	"net/http"

	"github.com/Dan9191/bank-ledger/internal/middleware"
	"github.com/gorilla/mux"
)

// Router wires public and token-protected routes
func (h *Handler) Router(auth mux.MiddlewareFunc) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestID, middleware.Logging(h.log))

	// Public routes
	r.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/loan-rate", h.LoanRate).Methods(http.MethodGet)

	// Protected routes
	api := r.PathPrefix("/").Subrouter()
	api.Use(auth)
	api.HandleFunc("/accounts", h.CreateAccount).Methods(http.MethodPost)
	api.HandleFunc("/accounts/deposit", h.Deposit).Methods(http.MethodPost)
	api.HandleFunc("/accounts/withdraw", h.Withdraw).Methods(http.MethodPost)
	api.HandleFunc("/accounts/{id:[0-9]+}/balance", h.Balance).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{id:[0-9]+}/movements", h.Movements).Methods(http.MethodGet)
	api.HandleFunc("/transfers", h.Transfer).Methods(http.MethodPost)
	api.HandleFunc("/loans", h.RequestLoan).Methods(http.MethodPost)
	api.HandleFunc("/loans/{id}", h.GetLoan).Methods(http.MethodGet)
	api.HandleFunc("/customers/{id:[0-9]+}/accounts", h.CustomerAccounts).Methods(http.MethodGet)
	api.HandleFunc("/customers/{id:[0-9]+}/loans", h.ActiveLoans).Methods(http.MethodGet)

	return r
}
