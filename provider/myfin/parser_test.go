package myfin

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/bankrates/storage/types"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()

	p, err := NewParser(DefaultSiteBase, nil)
	require.NoError(t, err)

	return p
}

func readListing(t *testing.T) []byte {
	t.Helper()

	markup, err := os.ReadFile("testdata/listing.html")
	require.NoError(t, err)

	return markup
}

func TestParser_Parse(t *testing.T) {
	t.Parallel()

	t.Run("valid rows are extracted, malformed rows skipped", func(t *testing.T) {
		t.Parallel()

		quotes := newTestParser(t).Parse(readListing(t))

		expected := []*types.Quote{
			{
				SourceURL:  "https://ru.myfin.by/bank/sberbank/currency",
				BankKey:    "sberbank",
				BankName:   "Сбербанк",
				ObservedAt: "10:15",
				USDBuy:     92.5,
				USDSell:    95.1,
				EURBuy:     99.8,
				EURSell:    103.4,
			},
			{
				SourceURL:  "https://ru.myfin.by/bank/vtb/currency?city=moskva",
				BankKey:    "vtb",
				BankName:   "ВТБ",
				ObservedAt: "10:20",
				USDBuy:     1092.25,
				USDSell:    1095.75,
				EURBuy:     99.5,
				EURSell:    103.9,
			},
			{
				SourceURL:  "https://ru.myfin.by/bank/tinkoff/currency",
				BankKey:    "tinkoff",
				BankName:   "Т-Банк",
				ObservedAt: "",
				USDBuy:     92.45,
				USDSell:    95.05,
				EURBuy:     99.75,
				EURSell:    103.35,
			},
		}

		assert.Equal(t, expected, quotes)
	})

	t.Run("deterministic", func(t *testing.T) {
		t.Parallel()

		var (
			p      = newTestParser(t)
			markup = readListing(t)
		)

		assert.Equal(t, p.Parse(markup), p.Parse(markup))
	})

	t.Run("missing table", func(t *testing.T) {
		t.Parallel()

		quotes := newTestParser(t).Parse([]byte(`<html><body><p>Технические работы</p></body></html>`))

		assert.NotNil(t, quotes)
		assert.Empty(t, quotes)
	})

	t.Run("empty markup", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, newTestParser(t).Parse(nil))
	})
}

func TestParser_ResolveLink(t *testing.T) {
	t.Parallel()

	testTable := []struct {
		name      string
		href      string
		key       string
		sourceURL string
		valid     bool
	}{
		{
			"relative link",
			"/bank/sberbank/currency",
			"sberbank",
			"https://ru.myfin.by/bank/sberbank/currency",
			true,
		},
		{
			"absolute same-host link",
			"https://ru.myfin.by/bank/vtb/currency?city=moskva",
			"vtb",
			"https://ru.myfin.by/bank/vtb/currency?city=moskva",
			true,
		},
		{
			"fragment dropped",
			"/bank/sberbank/currency#usd",
			"sberbank",
			"https://ru.myfin.by/bank/sberbank/currency",
			true,
		},
		{
			"off-site link",
			"https://ads.example.com/bank/promo/currency",
			"",
			"",
			false,
		},
		{
			"missing key segment",
			"/bank",
			"",
			"",
			false,
		},
		{
			"no link",
			"",
			"",
			"",
			false,
		},
	}

	p := newTestParser(t)

	for _, testCase := range testTable {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			key, sourceURL, err := p.resolveLink(testCase.href)
			if !testCase.valid {
				assert.ErrorIs(t, err, errInvalidLink)

				return
			}

			require.NoError(t, err)

			assert.Equal(t, testCase.key, key)
			assert.Equal(t, testCase.sourceURL, sourceURL)
		})
	}
}

func TestParseRateText(t *testing.T) {
	t.Parallel()

	t.Run("valid rates", func(t *testing.T) {
		t.Parallel()

		testTable := []struct {
			name     string
			text     string
			expected float64
		}{
			{"decimal comma", "92,50", 92.5},
			{"decimal point", "92.50", 92.5},
			{"integer", "95", 95},
			{"thousands space", "1 092,25", 1092.25},
			{"thousands nbsp", "1\u00a0095,75", 1095.75},
			{"surrounding whitespace", "  99,80 ", 99.8},
		}

		for _, testCase := range testTable {
			t.Run(testCase.name, func(t *testing.T) {
				t.Parallel()

				rate, err := parseRateText(testCase.text)
				require.NoError(t, err)

				assert.Equal(t, testCase.expected, rate)
			})
		}
	})

	t.Run("invalid rates", func(t *testing.T) {
		t.Parallel()

		testTable := []struct {
			name string
			text string
		}{
			{"empty", ""},
			{"dash", "—"},
			{"overflowing exponent", "1e400"},
			{"exponent", "1e20"},
			{"upper case exponent", "9E3"},
			{"negative", "-92,50"},
			{"explicit sign", "+92,50"},
			{"infinity", "Inf"},
			{"not a number", "NaN"},
			{"two decimal points", "92.50.1"},
			{"lone point", "."},
			{"out of range", "100000000000000"},
		}

		for _, testCase := range testTable {
			t.Run(testCase.name, func(t *testing.T) {
				t.Parallel()

				_, err := parseRateText(testCase.text)

				assert.ErrorIs(t, err, errInvalidRate)
			})
		}
	})
}

func TestNewParser_InvalidBase(t *testing.T) {
	t.Parallel()

	_, err := NewParser("not a url", nil)

	assert.Error(t, err)
}
