// Package dealers holds the fixed set of retail chains known to the
// catalog API, together with the opaque ids the API expects and the
// spellings accepted from user input.
package dealers

import (
	"errors"
	"fmt"
	"strings"
)

// Dealer is the canonical display name of a known retail chain.
type Dealer string

const (
	Rema1000     Dealer = "Rema1000"
	Netto        Dealer = "Netto"
	DagliBrugsen Dealer = "DagliBrugsen"
	SuperBrugsen Dealer = "SuperBrugsen"
	Aldi         Dealer = "Aldi"
	Bilka        Dealer = "Bilka"
	Coop365      Dealer = "Coop365"
	Irma         Dealer = "Irma"
	Foetex       Dealer = "Føtex"
	Lidl         Dealer = "Lidl"
	Meny         Dealer = "Meny"
	Kvickly      Dealer = "Kvickly"
	Spar         Dealer = "Spar"
)

// ErrUnknownDealer is returned by Parse for input that matches no known
// dealer name or alias.
var ErrUnknownDealer = errors.New("unknown dealer")

// entry keeps everything the API and the parser need about one dealer in
// one place.
type entry struct {
	dealer  Dealer
	id      string
	aliases []string
}

var registry = []entry{
	{Rema1000, "11deC", []string{"rema 1000"}},
	{Netto, "9ba51", nil},
	{DagliBrugsen, "d311fg", []string{"dagli'brugsen"}},
	{SuperBrugsen, "0b1e8", nil},
	{Aldi, "98b7e", nil},
	{Bilka, "93f13", nil},
	{Coop365, "DWZE1w", nil},
	{Irma, "d432U", nil},
	{Foetex, "bdf5A", []string{"foetex", "fotex"}},
	{Lidl, "71c90", nil},
	{Meny, "267e1m", nil},
	{Kvickly, "c1edq", nil},
	{Spar, "88ddE", nil},
}

// ID returns the opaque token the catalog API uses for the dealer. It is
// total over the registry; an unregistered Dealer value yields "".
func (d Dealer) ID() string {
	for _, e := range registry {
		if e.dealer == d {
			return e.id
		}
	}
	return ""
}

func (d Dealer) String() string {
	return string(d)
}

// Parse maps user input onto a known dealer. Matching is case-insensitive
// and ignores surrounding whitespace; both canonical names and aliases
// are accepted. Unknown input is an error, never a default dealer.
func Parse(text string) (Dealer, error) {
	needle := strings.ToLower(strings.TrimSpace(text))
	for _, e := range registry {
		if strings.ToLower(string(e.dealer)) == needle {
			return e.dealer, nil
		}
		for _, alias := range e.aliases {
			if alias == needle {
				return e.dealer, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDealer, text)
}

// All lists every known dealer in registry order.
func All() []Dealer {
	out := make([]Dealer, 0, len(registry))
	for _, e := range registry {
		out = append(out, e.dealer)
	}
	return out
}
