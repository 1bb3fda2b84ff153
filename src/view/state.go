// Package view holds the list page state. Transitions are value methods that
// return the next state; the receiver is never modified.
package view

import (
	"sort"

	"gourmet/src/types"
)

type Mode string

const (
	ModeCard  Mode = "card"
	ModeTable Mode = "table"
)

// PageSize is the number of cards on one page.
const PageSize = 9

// AreaLookup is the slice of the dataset index the list page needs.
type AreaLookup interface {
	Area(area string) []types.Shop
}

type State struct {
	Area     string
	Items    []types.Shop
	Page     int
	ByRating bool
	Mode     Mode
	// Notice is a message key shown instead of results, e.g. when no area is chosen.
	Notice string
}

const NoticeChooseArea = "list.choose_area"

// New returns the NoAreaSelected state.
func New() State {
	return State{Page: 1, Mode: ModeCard}
}

func (s State) Selected() bool { return s.Area != "" }

// ControlsEnabled reports whether sort and view toggles are usable.
func (s State) ControlsEnabled() bool { return s.Selected() && len(s.Items) > 0 }

// TotalPages is ceil(len(Items)/PageSize).
func (s State) TotalPages() int { return (len(s.Items) + PageSize - 1) / PageSize }

// SelectArea resets the state to the chosen area, page 1, original order and card mode.
func (s State) SelectArea(areas AreaLookup, area string) State {
	if area == "" || areas == nil {
		next := New()
		next.Notice = NoticeChooseArea
		return next
	}
	return State{
		Area:  area,
		Items: areas.Area(area),
		Page:  1,
		Mode:  ModeCard,
	}
}

// ToggleSort switches between descending rating (unrated counts as 0, ties
// keep their order) and original order. It is a no-op without results.
func (s State) ToggleSort() State {
	if !s.ControlsEnabled() {
		return s
	}
	items := make([]types.Shop, len(s.Items))
	copy(items, s.Items)
	if s.ByRating {
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].OriginalIndex < items[j].OriginalIndex
		})
	} else {
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].RatingOrZero() > items[j].RatingOrZero()
		})
	}
	s.Items = items
	s.ByRating = !s.ByRating
	s.Page = 1
	return s
}

// ToggleMode flips between card and table display, keeping page and order.
func (s State) ToggleMode() State {
	if !s.ControlsEnabled() {
		return s
	}
	if s.Mode == ModeCard {
		s.Mode = ModeTable
	} else {
		s.Mode = ModeCard
	}
	return s
}

// ChangePage moves to page n. The bool reports whether the card view has to be
// re-rendered: false when n is already current, out of range, or the table is shown.
func (s State) ChangePage(n int) (State, bool) {
	if n == s.Page || n < 1 || n > s.TotalPages() {
		return s, false
	}
	s.Page = n
	return s, s.Mode == ModeCard
}
