package voting

// Outcome is the ledger transition for one vote request. Stored is the
// direction kept in the ledger afterwards (None removes the row) and
// Delta the resulting change to the target's net score.
type Outcome struct {
	Stored Direction
	Delta  int
}

// Resolve applies the toggle-or-switch rule:
//
//	stored  requested  ->  stored  delta
//	none    up             up      +1
//	none    down           down    -1
//	up      up             none    -1
//	down    down           none    +1
//	up      down           down    -2
//	down    up             up      +2
//
// Repeating the same direction retracts the vote; the opposite
// direction flips it, so the delta removes the old contribution and
// adds the new one.
func Resolve(stored, requested Direction) Outcome {
	switch {
	case stored == None:
		return Outcome{Stored: requested, Delta: requested.Value()}
	case stored == requested:
		return Outcome{Stored: None, Delta: -stored.Value()}
	default:
		return Outcome{Stored: requested, Delta: 2 * requested.Value()}
	}
}
