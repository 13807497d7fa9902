package graph

import (
	"strconv"

	"github.com/sig-0/bankrates/server/graph/model"
	"github.com/sig-0/bankrates/storage/types"
)

func parseCurrencyAndOperation(
	currency model.Currency,
	operation model.Operation,
) (types.Currency, types.Operation, error) {
	ccy, err := types.ParseCurrency(currency.String())
	if err != nil {
		return "", "", err
	}

	op, err := types.ParseOperation(operation.String())
	if err != nil {
		return "", "", err
	}

	return ccy, op, nil
}

func toModelBankRate(in *types.StoredRate) *model.BankRate {
	return &model.BankRate{
		CreatedAt:  model.Time(in.CreatedAt),
		UpdatedAt:  model.Time(in.UpdatedAt),
		ID:         strconv.FormatInt(in.ID, 10),
		BankKey:    in.BankKey,
		BankName:   in.BankName,
		SourceURL:  in.SourceURL,
		ObservedAt: in.ObservedAt,
		UsdBuy:     in.USDBuy,
		UsdSell:    in.USDSell,
		EurBuy:     in.EURBuy,
		EurSell:    in.EURSell,
	}
}
