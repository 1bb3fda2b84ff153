// Package index builds the lookup structures the list and map views read from:
// shops grouped by area in source order, and reviews grouped by shop.
package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gourmet/src/types"
)

// ErrDataUnavailable is returned when either feed cannot be fetched or parsed.
// Partial loads are not supported.
var ErrDataUnavailable = errors.New("data unavailable")

type Index struct {
	shops     []types.Shop
	areas     map[string][]types.Shop
	areaOrder []string
	reviews   map[types.ShopID][]types.Review
	byID      map[types.ShopID]int
	rejected  int
}

// Load fetches both feeds concurrently and builds the index. Both must succeed.
func Load(ctx context.Context, shopSrc, reviewSrc types.Source, logger *zap.Logger) (*Index, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var rawShops, rawReviews []json.RawMessage
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rawShops, err = shopSrc.Fetch(gctx)
		if err != nil {
			return fmt.Errorf("shops: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		rawReviews, err = reviewSrc.Fetch(gctx)
		if err != nil {
			return fmt.Errorf("reviews: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Error("dataset load failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	ix := Build(rawShops, rawReviews, logger)
	logger.Info("dataset loaded",
		zap.Int("shops", len(ix.shops)),
		zap.Int("areas", len(ix.areaOrder)),
		zap.Int("reviews", ix.ReviewCount()),
		zap.Int("rejected", ix.rejected))
	return ix, nil
}

// Build decodes and groups already fetched records. Malformed entries are
// logged and skipped.
func Build(rawShops, rawReviews []json.RawMessage, logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	ix := &Index{
		areas:   make(map[string][]types.Shop),
		reviews: make(map[types.ShopID][]types.Review),
		byID:    make(map[types.ShopID]int),
	}

	for pos, raw := range rawShops {
		shop, err := types.DecodeShop(raw)
		if err != nil {
			ix.rejected++
			logger.Warn("skipping shop record", zap.Int("position", pos), zap.Error(err))
			continue
		}
		if _, dup := ix.byID[shop.ID]; dup {
			ix.rejected++
			logger.Warn("skipping shop record", zap.Int("position", pos),
				zap.Error(fmt.Errorf("%w: duplicate shop_id %s", types.ErrMalformedRecord, shop.ID)))
			continue
		}
		group, seen := ix.areas[shop.Area]
		if !seen {
			ix.areaOrder = append(ix.areaOrder, shop.Area)
		}
		shop.OriginalIndex = len(group)
		ix.areas[shop.Area] = append(group, shop)
		ix.byID[shop.ID] = len(ix.shops)
		ix.shops = append(ix.shops, shop)
	}

	for pos, raw := range rawReviews {
		review, err := types.DecodeReview(raw)
		if err != nil {
			logger.Warn("skipping review record", zap.Int("position", pos), zap.Error(err))
			continue
		}
		ix.reviews[review.ShopID] = append(ix.reviews[review.ShopID], review)
	}
	return ix
}

// Area returns a copy of the shops of one area in original order. Unknown
// areas yield an empty sequence.
func (ix *Index) Area(area string) []types.Shop {
	group := ix.areas[area]
	out := make([]types.Shop, len(group))
	copy(out, group)
	return out
}

// Areas lists area keys in first-seen order.
func (ix *Index) Areas() []string {
	out := make([]string, len(ix.areaOrder))
	copy(out, ix.areaOrder)
	return out
}

// Shops returns every accepted shop in source order.
func (ix *Index) Shops() []types.Shop {
	out := make([]types.Shop, len(ix.shops))
	copy(out, ix.shops)
	return out
}

func (ix *Index) Shop(id types.ShopID) (types.Shop, bool) {
	i, ok := ix.byID[id]
	if !ok {
		return types.Shop{}, false
	}
	return ix.shops[i], true
}

// Reviews returns the reviews of a shop in source order; nil when there are none.
func (ix *Index) Reviews(id types.ShopID) []types.Review {
	group := ix.reviews[id]
	if len(group) == 0 {
		return nil
	}
	out := make([]types.Review, len(group))
	copy(out, group)
	return out
}

func (ix *Index) ReviewCount() int {
	n := 0
	for _, g := range ix.reviews {
		n += len(g)
	}
	return n
}

// Rejected is the number of shop records skipped as malformed.
func (ix *Index) Rejected() int { return ix.rejected }
