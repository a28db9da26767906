package valueobjects

import (
	pkgerrors "catmenu/pkg/errors"
)

// Selection is the set of category identifiers chosen for one request.
// Order of first occurrence is kept so that materialization follows the
// caller's ordering; repeated identifiers are collapsed.
type Selection struct {
	ids []CategoryID
}

// NewSelection builds a selection from raw identifiers.
// An empty input is rejected with a validation error naming category_ids.
// Non-positive identifiers are kept: they simply fail to resolve later.
func NewSelection(raw []int64) (Selection, error) {
	if len(raw) == 0 {
		return Selection{}, pkgerrors.NewFieldValidationError("category_ids", "category_ids must contain at least one category")
	}

	seen := make(map[int64]struct{}, len(raw))
	ids := make([]CategoryID, 0, len(raw))
	for _, id := range raw {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, CategoryID(id))
	}
	return Selection{ids: ids}, nil
}

// IDs returns a copy of the selected identifiers
func (s Selection) IDs() []CategoryID {
	out := make([]CategoryID, len(s.ids))
	copy(out, s.ids)
	return out
}

// Len returns the number of distinct identifiers
func (s Selection) Len() int { return len(s.ids) }

// IsEmpty reports whether nothing was selected
func (s Selection) IsEmpty() bool { return len(s.ids) == 0 }
