package view

// Selection tracks which record ids are marked in the table.
type Selection map[string]bool

// NewSelection returns an empty selection set.
func NewSelection() Selection {
	return make(Selection)
}

// Toggle flips membership for one id.
func (s Selection) Toggle(id string) {
	if s[id] {
		delete(s, id)
	} else {
		s[id] = true
	}
}

// AllSelected reports whether every projected row is selected. An empty
// projection counts as not-all-selected.
func (s Selection) AllSelected(rows []Row) bool {
	if len(rows) == 0 {
		return false
	}
	for _, row := range rows {
		if !s[row.ID] {
			return false
		}
	}
	return true
}

// ToggleAll flips the whole projected set in one step: everything on unless
// all rows were already on, in which case everything off.
func (s Selection) ToggleAll(rows []Row) {
	if s.AllSelected(rows) {
		for _, row := range rows {
			delete(s, row.ID)
		}
		return
	}
	for _, row := range rows {
		s[row.ID] = true
	}
}

// IDs returns the selected ids in no particular order.
func (s Selection) IDs() []string {
	out := make([]string, 0, len(s))
	for id, on := range s {
		if on {
			out = append(out, id)
		}
	}
	return out
}
