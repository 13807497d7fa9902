package model

import (
	"fmt"
	"io"
	"strconv"
)

type BankRate struct {
	CreatedAt  Time
	UpdatedAt  Time
	ID         string
	BankKey    string
	BankName   string
	SourceURL  string
	ObservedAt string
	UsdBuy     float64
	UsdSell    float64
	EurBuy     float64
	EurSell    float64
}

type BestRate struct {
	Currency  Currency
	Operation Operation
	Banks     []string
	Rate      float64
}

type Currency string

const (
	CurrencyUsd Currency = "USD"
	CurrencyEur Currency = "EUR"
)

func (e Currency) IsValid() bool {
	switch e {
	case CurrencyUsd, CurrencyEur:
		return true
	}

	return false
}

func (e Currency) String() string {
	return string(e)
}

func (e *Currency) UnmarshalGQL(v any) error {
	str, ok := v.(string)
	if !ok {
		return fmt.Errorf("enums must be strings")
	}

	*e = Currency(str)
	if !e.IsValid() {
		return fmt.Errorf("%s is not a valid Currency", str)
	}

	return nil
}

func (e Currency) MarshalGQL(w io.Writer) {
	_, _ = fmt.Fprint(w, strconv.Quote(e.String()))
}

type Operation string

const (
	OperationBuy  Operation = "BUY"
	OperationSell Operation = "SELL"
)

func (e Operation) IsValid() bool {
	switch e {
	case OperationBuy, OperationSell:
		return true
	}

	return false
}

func (e Operation) String() string {
	return string(e)
}

func (e *Operation) UnmarshalGQL(v any) error {
	str, ok := v.(string)
	if !ok {
		return fmt.Errorf("enums must be strings")
	}

	*e = Operation(str)
	if !e.IsValid() {
		return fmt.Errorf("%s is not a valid Operation", str)
	}

	return nil
}

func (e Operation) MarshalGQL(w io.Writer) {
	_, _ = fmt.Fprint(w, strconv.Quote(e.String()))
}
