package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"gourmet/src/types"
)

type staticSource struct {
	records []json.RawMessage
	err     error
}

func (s staticSource) Fetch(ctx context.Context) ([]json.RawMessage, error) {
	return s.records, s.err
}

func raws(items ...string) []json.RawMessage {
	out := make([]json.RawMessage, len(items))
	for i, s := range items {
		out[i] = json.RawMessage(s)
	}
	return out
}

func shop(id int, area string) string {
	return fmt.Sprintf(`{"shop_id": %d, "name": "shop-%d", "area": %q, "latitude": 34.7, "longitude": 135.5}`, id, id, area)
}

func TestBuildGroupsByAreaInSourceOrder(t *testing.T) {
	ix := Build(raws(
		shop(1, "Osaka"),
		shop(2, "Tokyo"),
		shop(3, "Osaka"),
		`{"shop_id": 4, "area": "Osaka", "latitude": "bad"}`,
		shop(5, "Osaka"),
		shop(6, "Tokyo"),
	), nil, nil)

	assert.Equal(t, []string{"Osaka", "Tokyo"}, ix.Areas())
	assert.Equal(t, 1, ix.Rejected())

	osaka := ix.Area("Osaka")
	require.Len(t, osaka, 3)
	for i, s := range osaka {
		assert.Equal(t, i, s.OriginalIndex)
	}
	assert.Equal(t, types.ShopID("5"), osaka[2].ID)

	total := 0
	for _, a := range ix.Areas() {
		total += len(ix.Area(a))
	}
	assert.Equal(t, 6-ix.Rejected(), total)
	assert.Empty(t, ix.Area("Sapporo"))
}

func TestBuildRejectsDuplicateShopIDs(t *testing.T) {
	ix := Build(raws(shop(1, "Osaka"), shop(1, "Tokyo")), nil, nil)
	assert.Equal(t, 1, ix.Rejected())
	assert.Len(t, ix.Shops(), 1)
	assert.Empty(t, ix.Area("Tokyo"))
}

func TestAreaReturnsCopy(t *testing.T) {
	ix := Build(raws(shop(1, "Osaka"), shop(2, "Osaka")), nil, nil)
	a := ix.Area("Osaka")
	a[0], a[1] = a[1], a[0]
	assert.Equal(t, types.ShopID("1"), ix.Area("Osaka")[0].ID)
}

func TestBuildGroupsReviewsByShop(t *testing.T) {
	ix := Build(raws(shop(1, "Osaka")), raws(
		`{"shop_id": 1, "user_id": "a", "review_text": "first"}`,
		`{"shop_id": 2, "user_id": "b", "review_text": "other"}`,
		`{"user_id": "c"}`,
		`{"shop_id": 1, "user_id": "d", "review_text": "second"}`,
	), nil)

	got := ix.Reviews("1")
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Comment)
	assert.Equal(t, "second", got[1].Comment)
	assert.Len(t, ix.Reviews("2"), 1)
	assert.Empty(t, ix.Reviews("99"))
	assert.Equal(t, 3, ix.ReviewCount())
}

func TestBuildLogsMalformedRecords(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	Build(raws(`{"shop_id": 1, "area": "Osaka"}`), raws(`"nope"`), zap.New(core))
	assert.Equal(t, 2, logs.Len())
	assert.Equal(t, "skipping shop record", logs.All()[0].Message)
}

func TestLoadRequiresBothSources(t *testing.T) {
	ok := staticSource{records: raws(shop(1, "Osaka"))}
	broken := staticSource{err: errors.New("connection refused")}

	_, err := Load(context.Background(), ok, broken, nil)
	assert.ErrorIs(t, err, ErrDataUnavailable)

	_, err = Load(context.Background(), broken, ok, nil)
	assert.ErrorIs(t, err, ErrDataUnavailable)

	ix, err := Load(context.Background(), ok, staticSource{}, nil)
	require.NoError(t, err)
	assert.Len(t, ix.Shops(), 1)
	s, found := ix.Shop("1")
	require.True(t, found)
	assert.Equal(t, "shop-1", s.Name)
}

type flakySource struct {
	calls int
}

func (f *flakySource) Fetch(ctx context.Context) ([]json.RawMessage, error) {
	f.calls++
	if f.calls == 1 {
		return nil, errors.New("timeout")
	}
	return raws(shop(1, "Osaka")), nil
}

func TestCatalogRetriesAfterFailure(t *testing.T) {
	flaky := &flakySource{}
	c := NewCatalog(flaky, staticSource{}, nil)

	status, _, _ := c.Snapshot()
	assert.Equal(t, StatusLoading, status)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c.Start(ctx)
	_, err := c.Wait(ctx)
	assert.ErrorIs(t, err, ErrDataUnavailable)
	status, _, _ = c.Snapshot()
	assert.Equal(t, StatusFailed, status)

	c.Start(ctx)
	ix, err := c.Wait(ctx)
	require.NoError(t, err)
	require.NotNil(t, ix)
	status, _, _ = c.Snapshot()
	assert.Equal(t, StatusReady, status)

	// loaded data is kept
	c.Start(ctx)
	assert.Equal(t, 2, flaky.calls)
}
