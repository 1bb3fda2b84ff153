package render

import (
	"gourmet/src/format"
	"gourmet/src/marker"
	"gourmet/src/types"
	"gourmet/src/view"
)

// FallbackImage replaces a shop photo that fails to load.
const FallbackImage = "/images/default.jpg"

var rankMarkers = [...]string{"🥇", "🥈", "🥉"}

type Card struct {
	ShopID      types.ShopID
	GlobalIndex int
	RankMarker  string
	Name        string
	Category    string
	Rating      string
	Rated       bool
	Hours       string
	Image       string
	Fallback    string
}

type CardList struct {
	Cards []Card
	Empty bool
}

type PageControl struct {
	Page   int
	Active bool
}

// Pagination has no controls when everything fits on one page.
type Pagination struct {
	Controls []PageControl
}

type Row struct {
	No       int
	Name     string
	Category string
	Hours    []string
	Rating   string
	Rated    bool
}

type Table struct {
	Rows            []Row
	HighlightRating bool
	Empty           bool
}

// PageCount is ceil(n / view.PageSize).
func PageCount(n int) int {
	return (n + view.PageSize - 1) / view.PageSize
}

// RankMarker returns the medal for the top three positions while ranked by rating.
func RankMarker(globalIndex int, byRating bool) string {
	if !byRating || globalIndex < 0 || globalIndex >= len(rankMarkers) {
		return ""
	}
	return rankMarkers[globalIndex]
}

// Cards renders one page of seq. Rank markers follow the position in the
// whole sequence, not in the page.
func Cards(seq []types.Shop, page int, byRating bool) (CardList, Pagination) {
	if len(seq) == 0 {
		return CardList{Empty: true}, Pagination{}
	}
	if page < 1 {
		page = 1
	}
	start := min((page-1)*view.PageSize, len(seq))
	end := min(start+view.PageSize, len(seq))

	list := CardList{Cards: make([]Card, 0, end-start)}
	for i, shop := range seq[start:end] {
		global := start + i
		rating, rated := format.Score(shop.Rating)
		list.Cards = append(list.Cards, Card{
			ShopID:      shop.ID,
			GlobalIndex: global,
			RankMarker:  RankMarker(global, byRating),
			Name:        shop.Name,
			Category:    shop.Category,
			Rating:      rating,
			Rated:       rated,
			Hours:       shop.Hours,
			Image:       marker.ImagePath(shop.ID),
			Fallback:    FallbackImage,
		})
	}
	return list, paginate(len(seq), page)
}

func paginate(total, page int) Pagination {
	pages := PageCount(total)
	if pages <= 1 {
		return Pagination{}
	}
	p := Pagination{Controls: make([]PageControl, pages)}
	for i := range p.Controls {
		p.Controls[i] = PageControl{Page: i + 1, Active: i+1 == page}
	}
	return p
}

// BuildTable renders every item of seq; rows are numbered by their position in seq.
func BuildTable(seq []types.Shop, byRating bool) Table {
	if len(seq) == 0 {
		return Table{Empty: true}
	}
	t := Table{Rows: make([]Row, len(seq)), HighlightRating: byRating}
	for i, shop := range seq {
		rating, rated := format.Score(shop.Rating)
		t.Rows[i] = Row{
			No:       i + 1,
			Name:     shop.Name,
			Category: shop.Category,
			Hours:    format.Lines(shop.Hours),
			Rating:   rating,
			Rated:    rated,
		}
	}
	return t
}

// Results is everything the list page shows for one state.
type Results struct {
	State      view.State
	Cards      CardList
	Pagination Pagination
	Table      Table
}

func BuildResults(st view.State) Results {
	r := Results{State: st}
	if !st.Selected() {
		return r
	}
	if st.Mode == view.ModeTable {
		r.Table = BuildTable(st.Items, st.ByRating)
	} else {
		r.Cards, r.Pagination = Cards(st.Items, st.Page, st.ByRating)
	}
	return r
}
