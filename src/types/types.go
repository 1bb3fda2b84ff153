package types

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedRecord marks a single feed entry that failed validation.
// It is logged and the entry skipped; it never fails a whole load.
var ErrMalformedRecord = errors.New("malformed record")

// ShopID accepts both numeric and string identifiers from the feeds.
type ShopID string

func (id *ShopID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*id = ShopID(strings.TrimSpace(v))
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("shop id %s: %w", s, err)
	}
	// 1, 1.0 and 1e0 name the same shop
	*id = ShopID(strconv.FormatFloat(v, 'f', -1, 64))
	return nil
}

func (id ShopID) String() string { return string(id) }

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lng"`
}

// RawShop is one entry of the shop feed as it arrives on the wire.
type RawShop struct {
	ID        ShopID          `json:"shop_id"`
	Name      string          `json:"name"`
	Area      string          `json:"area"`
	Category  string          `json:"category"`
	Price     string          `json:"price"`
	Address   string          `json:"address"`
	Phone     string          `json:"phone"`
	Time      string          `json:"time"`
	Review    *float64        `json:"review,omitempty"`
	Latitude  json.RawMessage `json:"latitude,omitempty"`
	Longitude json.RawMessage `json:"longitude,omitempty"`
}

// RawReview is one entry of the review feed as it arrives on the wire.
type RawReview struct {
	ShopID      ShopID   `json:"shop_id"`
	UserID      string   `json:"user_id"`
	ReviewScore *float64 `json:"review_score,omitempty"`
	ReviewText  string   `json:"review_text"`
	Recommend   string   `json:"Recommend,omitempty"`
	UpdateDate  string   `json:"update_date"`
}

// Shop is a validated shop record. OriginalIndex is the position of the
// shop inside its area at load time and is assigned exactly once.
type Shop struct {
	ID            ShopID   `json:"shop_id"`
	Name          string   `json:"name"`
	Area          string   `json:"area"`
	Category      string   `json:"category"`
	Price         string   `json:"price"`
	Address       string   `json:"address"`
	Phone         string   `json:"phone"`
	Hours         string   `json:"time"`
	Rating        *float64 `json:"review,omitempty"`
	Location      GeoPoint `json:"location"`
	OriginalIndex int      `json:"original_index"`
}

// RatingOrZero is the comparison value used when ranking: unrated counts as 0.
func (s Shop) RatingOrZero() float64 {
	if s.Rating == nil {
		return 0
	}
	return *s.Rating
}

type Review struct {
	ShopID    ShopID   `json:"shop_id"`
	Author    string   `json:"user_id"`
	Score     *float64 `json:"review_score,omitempty"`
	Comment   string   `json:"review_text"`
	Recommend string   `json:"recommend,omitempty"`
	UpdatedAt string   `json:"update_date"`
}

// Source delivers one feed as a sequence of undecoded JSON records.
type Source interface {
	Fetch(ctx context.Context) ([]json.RawMessage, error)
}

// DecodeShop validates one raw shop entry.
func DecodeShop(raw json.RawMessage) (Shop, error) {
	var r RawShop
	if err := json.Unmarshal(raw, &r); err != nil {
		return Shop{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if r.ID == "" {
		return Shop{}, fmt.Errorf("%w: missing shop_id", ErrMalformedRecord)
	}
	if strings.TrimSpace(r.Area) == "" {
		return Shop{}, fmt.Errorf("%w: shop %s has no area", ErrMalformedRecord, r.ID)
	}
	loc, err := ParsePosition(r.Latitude, r.Longitude)
	if err != nil {
		return Shop{}, fmt.Errorf("shop %s: %w", r.ID, err)
	}
	return Shop{
		ID:       r.ID,
		Name:     r.Name,
		Area:     r.Area,
		Category: r.Category,
		Price:    r.Price,
		Address:  r.Address,
		Phone:    r.Phone,
		Hours:    r.Time,
		Rating:   r.Review,
		Location: loc,
	}, nil
}

// DecodeReview validates one raw review entry.
func DecodeReview(raw json.RawMessage) (Review, error) {
	var r RawReview
	if err := json.Unmarshal(raw, &r); err != nil {
		return Review{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if r.ShopID == "" {
		return Review{}, fmt.Errorf("%w: review without shop_id", ErrMalformedRecord)
	}
	return Review{
		ShopID:    r.ShopID,
		Author:    r.UserID,
		Score:     r.ReviewScore,
		Comment:   r.ReviewText,
		Recommend: r.Recommend,
		UpdatedAt: r.UpdateDate,
	}, nil
}
