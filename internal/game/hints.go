package game

// Hints lists the piles a pending selection could legally land on. It is
// advisory only and never gates TryMove.
type Hints struct {
	Tableau    []int
	Foundation []int
}

// Empty reports whether no destination is highlighted
func (h Hints) Empty() bool {
	return len(h.Tableau) == 0 && len(h.Foundation) == 0
}

// Allows reports whether ref is one of the hinted destinations
func (h Hints) Allows(ref PileRef) bool {
	var set []int
	switch ref.Kind {
	case Tableau:
		set = h.Tableau
	case Foundation:
		set = h.Foundation
	default:
		return false
	}
	for _, i := range set {
		if i == ref.Index {
			return true
		}
	}
	return false
}

// ComputeHints runs the move validator against every pile except the one the
// selection came from. A nil selection yields no hints.
func ComputeHints(s State, sel *Selection) Hints {
	hints := Hints{Tableau: []int{}, Foundation: []int{}}
	if sel == nil {
		return hints
	}
	run := Run(s, *sel)
	if len(run) == 0 {
		return hints
	}

	for i, pile := range s.Tableau {
		if sel.Source == TableauRef(i) {
			continue
		}
		if CanMoveToTableau(run, pile) {
			hints.Tableau = append(hints.Tableau, i)
		}
	}

	if len(run) == 1 {
		for i, pile := range s.Foundations {
			if sel.Source == FoundationRef(i) {
				continue
			}
			if CanMoveToFoundation(run[0], pile) {
				hints.Foundation = append(hints.Foundation, i)
			}
		}
	}
	return hints
}
