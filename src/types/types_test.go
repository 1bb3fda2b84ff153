package types

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePositionStringPair(t *testing.T) {
	p, err := ParsePosition(json.RawMessage(`"35.6, 139.7"`), nil)
	require.NoError(t, err)
	assert.Equal(t, GeoPoint{Lat: 35.6, Lon: 139.7}, p)
}

func TestParsePositionNumericPair(t *testing.T) {
	p, err := ParsePosition(json.RawMessage(`35.6`), json.RawMessage(`139.7`))
	require.NoError(t, err)
	assert.Equal(t, GeoPoint{Lat: 35.6, Lon: 139.7}, p)
}

func TestParsePositionRejects(t *testing.T) {
	cases := map[string][2]string{
		"bad string":        {`"bad"`, ``},
		"one part":          {`"35.6"`, ``},
		"three parts":       {`"35.6, 139.7, 1"`, ``},
		"bad lng in string": {`"35.6, east"`, ``},
		"missing longitude": {`35.6`, ``},
		"null longitude":    {`35.6`, `null`},
		"string longitude":  {`35.6`, `"139.7"`},
		"missing latitude":  {``, `139.7`},
		"bool latitude":     {`true`, `139.7`},
		"out of range":      {`95.0`, `139.7`},
		"infinite":          {`"Inf, 10"`, ``},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			var lat, lng json.RawMessage
			if c[0] != "" {
				lat = json.RawMessage(c[0])
			}
			if c[1] != "" {
				lng = json.RawMessage(c[1])
			}
			_, err := ParsePosition(lat, lng)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedRecord))
		})
	}
}

func TestDecodeShopAcceptsNumericID(t *testing.T) {
	s, err := DecodeShop(json.RawMessage(`{"shop_id": 10, "name": "Kura", "area": "Osaka",
		"review": 4.2, "latitude": "34.7, 135.5"}`))
	require.NoError(t, err)
	assert.Equal(t, ShopID("10"), s.ID)
	require.NotNil(t, s.Rating)
	assert.InDelta(t, 4.2, *s.Rating, 1e-9)
	assert.Equal(t, GeoPoint{Lat: 34.7, Lon: 135.5}, s.Location)
}

func TestDecodeShopWithoutRating(t *testing.T) {
	s, err := DecodeShop(json.RawMessage(`{"shop_id": "a1", "area": "Kyoto", "latitude": 35, "longitude": 135.7}`))
	require.NoError(t, err)
	assert.Nil(t, s.Rating)
	assert.Equal(t, 0.0, s.RatingOrZero())
}

func TestDecodeShopRejectsBrokenEntries(t *testing.T) {
	for _, raw := range []string{
		`{"shop_id": 1, "area": "Osaka", "latitude": "bad"}`,
		`{"shop_id": 1, "latitude": 35, "longitude": 135}`,
		`{"area": "Osaka", "latitude": 35, "longitude": 135}`,
		`{"shop_id": 1, "area": "Osaka", "review": "five", "latitude": 35, "longitude": 135}`,
		`[1, 2]`,
	} {
		_, err := DecodeShop(json.RawMessage(raw))
		assert.ErrorIs(t, err, ErrMalformedRecord, raw)
	}
}

func TestDecodeReview(t *testing.T) {
	r, err := DecodeReview(json.RawMessage(`{"shop_id": 3, "user_id": "siwon", "review_score": 4.5,
		"review_text": "good\nvery", "Recommend": "ramen", "update_date": "2024-05-01"}`))
	require.NoError(t, err)
	assert.Equal(t, ShopID("3"), r.ShopID)
	assert.Equal(t, "ramen", r.Recommend)
	assert.Equal(t, "good\nvery", r.Comment)

	_, err = DecodeReview(json.RawMessage(`{"user_id": "x"}`))
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestShopIDNormalisesNumbers(t *testing.T) {
	tests := []struct {
		in   string
		want ShopID
	}{
		{`1`, "1"},
		{`1.0`, "1"},
		{`1e0`, "1"},
		{`12345678`, "12345678"},
		{`2.5`, "2.5"},
		{`"1.0"`, "1.0"},
		{`" 7 "`, "7"},
	}
	for _, tt := range tests {
		var id ShopID
		require.NoError(t, json.Unmarshal([]byte(tt.in), &id), tt.in)
		assert.Equal(t, tt.want, id, tt.in)
	}

	s, err := DecodeShop(json.RawMessage(`{"shop_id": 1.0, "area": "Osaka", "latitude": "34.7, 135.5"}`))
	require.NoError(t, err)
	r, err := DecodeReview(json.RawMessage(`{"shop_id": 1, "user_id": "siwon"}`))
	require.NoError(t, err)
	assert.Equal(t, s.ID, r.ShopID)
}
