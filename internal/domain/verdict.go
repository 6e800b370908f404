package domain

// Verdict is the wire-stable recommendation label derived from the
// composite score.
type Verdict string

const (
	VerdictStrongBuy  Verdict = "strong_buy"
	VerdictBuy        Verdict = "buy"
	VerdictHold       Verdict = "hold"
	VerdictSell       Verdict = "sell"
	VerdictStrongSell Verdict = "strong_sell"
)

// Valid reports whether v is one of the five canonical labels. Anything
// else, including an empty string, is rejected.
func (v Verdict) Valid() bool {
	switch v {
	case VerdictStrongBuy, VerdictBuy, VerdictHold, VerdictSell, VerdictStrongSell:
		return true
	}
	return false
}
