package types

// TypeVarSet is an insertion-ordered set of type variables.
type TypeVarSet struct {
	index map[TypeVariable]int
	order []TypeVariable
}

// NewTypeVarSet collects tvs, keeping the first occurrence of each.
func NewTypeVarSet(tvs ...TypeVariable) TypeVarSet {
	set := TypeVarSet{index: make(map[TypeVariable]int, len(tvs))}
	for _, tv := range tvs {
		if _, dup := set.index[tv]; dup {
			continue
		}
		set.index[tv] = len(set.order)
		set.order = append(set.order, tv)
	}
	return set
}

func (tvs TypeVarSet) Contains(tv TypeVariable) bool {
	_, ok := tvs.index[tv]
	return ok
}

func (tvs TypeVarSet) Len() int {
	return len(tvs.order)
}

// Slice returns the members in insertion order.
func (tvs TypeVarSet) Slice() []TypeVariable {
	return tvs.order
}
