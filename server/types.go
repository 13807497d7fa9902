package server

import "github.com/sig-0/bankrates/storage/types"

type RatesResponse struct {
	Results []*types.StoredRate `json:"results"`
}

type BestRateResponse struct {
	Currency  types.Currency  `json:"currency"`
	Operation types.Operation `json:"operation"`
	Banks     []string        `json:"banks"`
	Rate      float64         `json:"rate"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
