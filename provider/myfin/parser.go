package myfin

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"github.com/sig-0/bankrates/storage/types"
)

const DefaultSiteBase = "https://ru.myfin.by"

var (
	errMissingCell = errors.New("missing cell")
	errInvalidLink = errors.New("invalid bank link")
	errInvalidRate = errors.New("invalid rate")
)

// maxRate bounds the rates to what the rate store
// can hold (NUMERIC(18, 4))
var maxRate = decimal.New(1, 14)

var rateReplacer = strings.NewReplacer(
	" ", "",
	"\u00a0", "",
	",", ".",
)

// Parser extracts bank quotes from listing page markup
type Parser struct {
	logger *slog.Logger
	base   *url.URL
}

// NewParser creates a new listing parser, resolving bank links
// against the given site base (https://ru.myfin.by)
func NewParser(siteBase string, logger *slog.Logger) (*Parser, error) {
	base, err := url.Parse(siteBase)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid site base %q", siteBase)
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Parser{
		logger: logger,
		base:   base,
	}, nil
}

// Parse parses the listing table out of the page markup.
// Malformed rows are skipped, and a page without
// the listing table yields no quotes
func (p *Parser) Parse(markup []byte) []*types.Quote {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		p.logger.Warn("unable to parse listing page", "err", err)

		return []*types.Quote{}
	}

	table := doc.Find("table.content_table").First()
	if table.Length() == 0 {
		p.logger.Warn("listing table not found on page")

		return []*types.Quote{}
	}

	quotes := make([]*types.Quote, 0)

	table.Find("tbody tr").Each(func(i int, row *goquery.Selection) {
		quote, err := p.parseRow(row)
		if err != nil {
			p.logger.Debug(
				"skipping listing row",
				"row", i,
				"err", err,
			)

			return
		}

		quotes = append(quotes, quote)
	})

	return quotes
}

func (p *Parser) parseRow(row *goquery.Selection) (*types.Quote, error) {
	nameCell := row.Find("td.bank_name").First()
	if nameCell.Length() == 0 {
		return nil, fmt.Errorf("%w: bank_name", errMissingCell)
	}

	name := strings.TrimSpace(nameCell.Text())

	var (
		usd = row.Find("td.USD")
		eur = row.Find("td.EUR")
	)

	usdBuy, err := parseRate(usd.Eq(0))
	if err != nil {
		return nil, fmt.Errorf("unable to parse USD buy for %q: %w", name, err)
	}

	usdSell, err := parseRate(usd.Eq(1))
	if err != nil {
		return nil, fmt.Errorf("unable to parse USD sell for %q: %w", name, err)
	}

	eurBuy, err := parseRate(eur.Eq(0))
	if err != nil {
		return nil, fmt.Errorf("unable to parse EUR buy for %q: %w", name, err)
	}

	eurSell, err := parseRate(eur.Eq(1))
	if err != nil {
		return nil, fmt.Errorf("unable to parse EUR sell for %q: %w", name, err)
	}

	href, _ := row.Find("a[href]").First().Attr("href")

	key, sourceURL, err := p.resolveLink(href)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve link for %q: %w", name, err)
	}

	return &types.Quote{
		SourceURL:  sourceURL,
		BankKey:    key,
		BankName:   name,
		ObservedAt: strings.TrimSpace(row.Find("time").First().Text()),
		USDBuy:     usdBuy,
		USDSell:    usdSell,
		EURBuy:     eurBuy,
		EURSell:    eurSell,
	}, nil
}

// resolveLink resolves the bank link (/bank/<key>/currency) against the
// site base, returning the bank key and the canonical bank URL
// (query kept, fragment dropped). Links leading off-site are rejected
func (p *Parser) resolveLink(href string) (string, string, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", "", fmt.Errorf("%w: no link", errInvalidLink)
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", errInvalidLink, err)
	}

	resolved := p.base.ResolveReference(ref)
	if !strings.EqualFold(resolved.Host, p.base.Host) {
		return "", "", fmt.Errorf("%w: off-site host %q", errInvalidLink, resolved.Host)
	}

	// "/bank/sberbank/currency" -> ["", "bank", "sberbank", "currency"]
	parts := strings.Split(resolved.Path, "/")
	if len(parts) < 3 || strings.TrimSpace(parts[2]) == "" {
		return "", "", fmt.Errorf("%w: no bank key in %q", errInvalidLink, resolved.Path)
	}

	canonical := url.URL{
		Scheme:   p.base.Scheme,
		Host:     p.base.Host,
		Path:     resolved.Path,
		RawQuery: resolved.RawQuery,
	}

	return parts[2], canonical.String(), nil
}

// parseRate parses a listing rate cell ("92,50", "1 020,5")
func parseRate(cell *goquery.Selection) (float64, error) {
	if cell.Length() == 0 {
		return 0, errMissingCell
	}

	return parseRateText(cell.Text())
}

// parseRateText parses a plain decimal rate. Signs, exponents
// and values out of the stored range are rejected
func parseRateText(text string) (float64, error) {
	raw := rateReplacer.Replace(strings.TrimSpace(text))

	if !isPlainDecimal(raw) {
		return 0, fmt.Errorf("%w: %q", errInvalidRate, raw)
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", errInvalidRate, raw, err)
	}

	if d.GreaterThanOrEqual(maxRate) {
		return 0, fmt.Errorf("%w: %q out of range", errInvalidRate, raw)
	}

	return d.InexactFloat64(), nil
}

// isPlainDecimal checks the value is digits with at most one decimal point
func isPlainDecimal(raw string) bool {
	var (
		digits int
		points int
	)

	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			points++
		default:
			return false
		}
	}

	return digits > 0 && points <= 1
}
