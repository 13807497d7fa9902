package types

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidCurrency  = errors.New("invalid currency (must be usd or eur)")
	ErrInvalidOperation = errors.New("invalid operation (must be buy or sell)")
)

type Currency string

const (
	CurrencyUSD Currency = "usd"
	CurrencyEUR Currency = "eur"
)

func (c Currency) String() string {
	return string(c)
}

// ParseCurrency parses a case-insensitive currency symbol
func ParseCurrency(v string) (Currency, error) {
	c := Currency(strings.ToLower(strings.TrimSpace(v)))

	switch c {
	case CurrencyUSD, CurrencyEUR:
		return c, nil
	default:
		return "", ErrInvalidCurrency
	}
}

// Operation is the side of the quote, from the bank's point of view
type Operation string

const (
	OperationBuy  Operation = "buy"
	OperationSell Operation = "sell"
)

func (o Operation) String() string {
	return string(o)
}

// ParseOperation parses a case-insensitive quote operation
func ParseOperation(v string) (Operation, error) {
	o := Operation(strings.ToLower(strings.TrimSpace(v)))

	switch o {
	case OperationBuy, OperationSell:
		return o, nil
	default:
		return "", ErrInvalidOperation
	}
}

// Quote is a single bank's currency quotes, as scraped from the listing
type Quote struct {
	SourceURL  string  `json:"source_url"`
	BankKey    string  `json:"bank_key"`
	BankName   string  `json:"bank_name"`
	ObservedAt string  `json:"observed_at"`
	USDBuy     float64 `json:"usd_buy"`
	USDSell    float64 `json:"usd_sell"`
	EURBuy     float64 `json:"eur_buy"`
	EURSell    float64 `json:"eur_sell"`
}

// StoredRate is the persisted counterpart of a Quote, one per bank key
type StoredRate struct {
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	SourceURL  string    `json:"source_url"`
	BankKey    string    `json:"bank_key"`
	BankName   string    `json:"bank_name"`
	ObservedAt string    `json:"observed_at"`
	ID         int64     `json:"id"`
	USDBuy     float64   `json:"usd_buy"`
	USDSell    float64   `json:"usd_sell"`
	EURBuy     float64   `json:"eur_buy"`
	EURSell    float64   `json:"eur_sell"`
}

// Rate returns the stored value for the given currency and operation
func (r *StoredRate) Rate(c Currency, o Operation) (float64, bool) {
	switch {
	case c == CurrencyUSD && o == OperationBuy:
		return r.USDBuy, true
	case c == CurrencyUSD && o == OperationSell:
		return r.USDSell, true
	case c == CurrencyEUR && o == OperationBuy:
		return r.EURBuy, true
	case c == CurrencyEUR && o == OperationSell:
		return r.EURSell, true
	default:
		return 0, false
	}
}

// NewStoredRate builds a fresh row out of a quote
func NewStoredRate(q *Quote, now time.Time) StoredRate {
	return StoredRate{
		CreatedAt:  now,
		UpdatedAt:  now,
		SourceURL:  q.SourceURL,
		BankKey:    q.BankKey,
		BankName:   q.BankName,
		ObservedAt: q.ObservedAt,
		USDBuy:     q.USDBuy,
		USDSell:    q.USDSell,
		EURBuy:     q.EURBuy,
		EURSell:    q.EURSell,
	}
}

// RatePatch is the set of fields written by a keyed update.
// Only non-nil fields are applied
type RatePatch struct {
	SourceURL  *string  `json:"source_url,omitempty"`
	BankName   *string  `json:"bank_name,omitempty"`
	ObservedAt *string  `json:"observed_at,omitempty"`
	USDBuy     *float64 `json:"usd_buy,omitempty"`
	USDSell    *float64 `json:"usd_sell,omitempty"`
	EURBuy     *float64 `json:"eur_buy,omitempty"`
	EURSell    *float64 `json:"eur_sell,omitempty"`
}

// PatchFromQuote builds the update set for a quote, leaving out
// the merge key and any text field the source left blank
func PatchFromQuote(q *Quote) *RatePatch {
	p := &RatePatch{
		USDBuy:  &q.USDBuy,
		USDSell: &q.USDSell,
		EURBuy:  &q.EURBuy,
		EURSell: &q.EURSell,
	}

	if q.SourceURL != "" {
		p.SourceURL = &q.SourceURL
	}

	if q.BankName != "" {
		p.BankName = &q.BankName
	}

	if q.ObservedAt != "" {
		p.ObservedAt = &q.ObservedAt
	}

	return p
}

// Empty returns true if the patch has nothing to write
func (p *RatePatch) Empty() bool {
	return p == nil ||
		(p.SourceURL == nil &&
			p.BankName == nil &&
			p.ObservedAt == nil &&
			p.USDBuy == nil &&
			p.USDSell == nil &&
			p.EURBuy == nil &&
			p.EURSell == nil)
}

// Apply writes the patch fields onto the given row
func (p *RatePatch) Apply(r *StoredRate, now time.Time) {
	if p.SourceURL != nil {
		r.SourceURL = *p.SourceURL
	}

	if p.BankName != nil {
		r.BankName = *p.BankName
	}

	if p.ObservedAt != nil {
		r.ObservedAt = *p.ObservedAt
	}

	if p.USDBuy != nil {
		r.USDBuy = *p.USDBuy
	}

	if p.USDSell != nil {
		r.USDSell = *p.USDSell
	}

	if p.EURBuy != nil {
		r.EURBuy = *p.EURBuy
	}

	if p.EURSell != nil {
		r.EURSell = *p.EURSell
	}

	r.UpdatedAt = now
}

// BestRate is the extreme rate for a currency / operation,
// and all the banks offering it
type BestRate struct {
	Banks []string `json:"banks"`
	Rate  float64  `json:"rate"`
}
