package dealers_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"offer-aggregator-api/internal/dealers"
)

func TestParseRoundTrip(t *testing.T) {
	rq := require.New(t)

	for _, d := range dealers.All() {
		parsed, err := dealers.Parse(d.String())
		rq.NoError(err)
		rq.Equal(d, parsed)

		parsed, err = dealers.Parse(strings.ToUpper(d.String()))
		rq.NoError(err)
		rq.Equal(d, parsed)
	}
}

func TestParseAliasesAndWhitespace(t *testing.T) {
	rq := require.New(t)

	cases := map[string]dealers.Dealer{
		"rema 1000":      dealers.Rema1000,
		"REMA 1000":      dealers.Rema1000,
		"dagli'brugsen":  dealers.DagliBrugsen,
		"foetex":         dealers.Foetex,
		"  netto  ":      dealers.Netto,
		"\tkvickly\n":    dealers.Kvickly,
		" SuperBrugsen ": dealers.SuperBrugsen,
	}

	for input, want := range cases {
		got, err := dealers.Parse(input)
		rq.NoError(err, "input %q", input)
		rq.Equal(want, got, "input %q", input)
	}
}

func TestParseUnknownDealer(t *testing.T) {
	rq := require.New(t)

	_, err := dealers.Parse("walmart")
	rq.ErrorIs(err, dealers.ErrUnknownDealer)
	rq.ErrorContains(err, "walmart")

	_, err = dealers.Parse("")
	rq.ErrorIs(err, dealers.ErrUnknownDealer)
}

func TestIDsAreUniqueAndTotal(t *testing.T) {
	rq := require.New(t)

	all := dealers.All()
	rq.Len(all, 13)

	seen := make(map[string]dealers.Dealer)
	for _, d := range all {
		id := d.ID()
		rq.NotEmpty(id, "dealer %s has no id", d)
		prev, dup := seen[id]
		rq.False(dup, "dealers %s and %s share id %s", prev, d, id)
		seen[id] = d
	}
}

func TestUnregisteredDealerHasNoID(t *testing.T) {
	require.Empty(t, dealers.Dealer("Walmart").ID())
}
