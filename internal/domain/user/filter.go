package user

// ListFilter selects users for listing. Nil and empty fields impose no
// constraint; all supplied predicates must hold at once.
type ListFilter struct {
	NamePattern string // case-insensitive regular expression on Name
	MinAge      *int   // inclusive lower bound on Age
	MaxAge      *int   // inclusive upper bound on Age
	IsActive    *bool  // exact match on IsActive
}
