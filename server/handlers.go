package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sig-0/bankrates/storage/types"
)

var (
	errUnableToFetchRates = errors.New("unable to fetch rates")
	errBankNotFound       = errors.New("bank not found")
	errNoRates            = errors.New("no rates available")
)

func (s *Server) Rates(w http.ResponseWriter, r *http.Request) {
	items, err := s.storage.ListRates(r.Context())
	if err != nil {
		s.logger.Debug(
			"unable to fetch rates",
			"err", err,
		)

		writeError(
			w,
			http.StatusInternalServerError,
			errUnableToFetchRates,
		)

		return
	}

	if items == nil {
		items = []*types.StoredRate{}
	}

	resp := &RatesResponse{
		Results: items,
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) RatesForBank(w http.ResponseWriter, r *http.Request) {
	// Bank keys are matched exactly, as stored
	bank := strings.TrimSpace(chi.URLParam(r, "bank"))

	rate, err := s.storage.RateByBank(r.Context(), bank)
	if err != nil {
		s.logger.Debug(
			"unable to fetch bank rate",
			"bank", bank,
			"err", err,
		)

		writeError(
			w,
			http.StatusInternalServerError,
			errUnableToFetchRates,
		)

		return
	}

	if rate == nil {
		writeError(w, http.StatusNotFound, errBankNotFound)

		return
	}

	writeJSON(w, http.StatusOK, rate)
}

// BestBuy serves the best (lowest) purchase rate for the currency
func (s *Server) BestBuy(w http.ResponseWriter, r *http.Request) {
	s.bestRate(w, r, types.OperationBuy)
}

// BestSell serves the best (highest) sale rate for the currency
func (s *Server) BestSell(w http.ResponseWriter, r *http.Request) {
	s.bestRate(w, r, types.OperationSell)
}

func (s *Server) bestRate(w http.ResponseWriter, r *http.Request, operation types.Operation) {
	// Parse the currency
	currency, err := types.ParseCurrency(chi.URLParam(r, "currency"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	best, err := s.engine.BestRate(r.Context(), currency, operation)
	if err != nil {
		s.logger.Debug(
			"unable to compute best rate",
			"currency", currency,
			"operation", operation,
			"err", err,
		)

		writeError(
			w,
			http.StatusInternalServerError,
			errUnableToFetchRates,
		)

		return
	}

	if best == nil {
		writeError(w, http.StatusNotFound, errNoRates)

		return
	}

	resp := &BestRateResponse{
		Currency:  currency,
		Operation: operation,
		Banks:     best.Banks,
		Rate:      best.Rate,
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // Fine to ignore
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := &ErrorResponse{
		Error: err.Error(),
	}

	writeJSON(w, status, resp)
}
