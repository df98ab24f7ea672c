package domain

import "math/rand/v2"

// PickQuote returns one element of quotes chosen by r.
// It returns "" for an empty list.
func PickQuote(r *rand.Rand, quotes []string) string {
	if len(quotes) == 0 {
		return ""
	}
	return quotes[r.IntN(len(quotes))]
}
