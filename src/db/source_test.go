package db

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSourceFetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shops.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"shop_id":1},{"shop_id":2}]`), 0o600))

	records, err := FileSource{Path: path}.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.JSONEq(t, `{"shop_id":2}`, string(records[1]))
}

func TestFileSourceRejectsNonArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shops.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"shop_id":1}`), 0o600))

	_, err := FileSource{Path: path}.Fetch(context.Background())
	assert.Error(t, err)

	_, err = FileSource{Path: filepath.Join(t.TempDir(), "missing.json")}.Fetch(context.Background())
	assert.Error(t, err)
}

func TestHTTPSourceFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data/reviews.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"shop_id":1,"user_id":"somin"}]`)
	}))
	defer srv.Close()

	records, err := HTTPSource{URL: srv.URL + "/data/reviews.json"}.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)

	_, err = HTTPSource{URL: srv.URL + "/data/missing.json"}.Fetch(context.Background())
	assert.ErrorContains(t, err, "status 404")
}

func TestOpenerResolvesReferences(t *testing.T) {
	o := &Opener{ElasticURL: "http://127.0.0.1:9200"}

	src, err := o.Open("https://example.com/shops.json")
	require.NoError(t, err)
	assert.IsType(t, HTTPSource{}, src)

	src, err = o.Open("data/shops.json")
	require.NoError(t, err)
	assert.Equal(t, FileSource{Path: "data/shops.json"}, src)

	src, err = o.Open("es:shops")
	require.NoError(t, err)
	es, ok := src.(*ElasticStore)
	require.True(t, ok)
	assert.Equal(t, "shops", es.Index)

	_, err = o.Open("es:")
	assert.Error(t, err)
	_, err = o.Open("")
	assert.Error(t, err)
}

// fakeElastic answers the handful of endpoints the store uses. Documents are
// keyed by id, so indexing an existing id overwrites it.
type fakeElastic struct {
	mu      sync.Mutex
	exists  bool
	created bool
	docs    map[int]string
}

func (f *fakeElastic) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.docs == nil {
		f.docs = map[int]string{}
	}
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodHead && r.URL.Path == "/shops":
		if !f.exists {
			w.WriteHeader(http.StatusNotFound)
		}
	case r.Method == http.MethodPut && r.URL.Path == "/shops":
		f.created = true
		f.exists = true
		_, _ = io.WriteString(w, `{"acknowledged":true,"shards_acknowledged":true,"index":"shops"}`)
	case r.URL.Path == "/_bulk":
		var items []string
		var action struct {
			Index struct {
				ID string `json:"_id"`
			} `json:"index"`
		}
		sc := bufio.NewScanner(r.Body)
		line := 0
		for sc.Scan() {
			if line%2 == 0 {
				if err := json.Unmarshal(sc.Bytes(), &action); err != nil {
					http.Error(w, `{"error":"bad action"}`, http.StatusBadRequest)
					return
				}
			} else {
				id, _ := strconv.Atoi(action.Index.ID)
				f.docs[id] = sc.Text()
				items = append(items, fmt.Sprintf(`{"index":{"_index":"shops","_id":"%d","status":200}}`, id))
			}
			line++
		}
		_, _ = io.WriteString(w, `{"took":1,"errors":false,"items":[`+strings.Join(items, ",")+`]}`)
	case r.URL.Path == "/shops/_delete_by_query":
		var body struct {
			Query struct {
				Range struct {
					Seq struct {
						From int `json:"from"`
					} `json:"seq"`
				} `json:"range"`
			} `json:"query"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, `{"error":"bad query"}`, http.StatusBadRequest)
			return
		}
		deleted := 0
		for id := range f.docs {
			if id >= body.Query.Range.Seq.From {
				delete(f.docs, id)
				deleted++
			}
		}
		_, _ = fmt.Fprintf(w, `{"took":1,"timed_out":false,"total":%d,"deleted":%d,"batches":1,"failures":[]}`, deleted, deleted)
	case strings.HasSuffix(r.URL.Path, "/_search"):
		ids := make([]int, 0, len(f.docs))
		for id := range f.docs {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		hits := make([]string, 0, len(ids))
		for _, id := range ids {
			hits = append(hits, fmt.Sprintf(`{"_index":"shops","_id":"%d","_source":%s}`, id, f.docs[id]))
		}
		_, _ = fmt.Fprintf(w, `{"took":1,"timed_out":false,"hits":{"total":{"value":%d,"relation":"eq"},"hits":[%s]}}`,
			len(hits), strings.Join(hits, ","))
	default:
		http.Error(w, `{"error":"unexpected"}`, http.StatusBadRequest)
	}
}

func TestElasticStoreRoundTrip(t *testing.T) {
	fake := &fakeElastic{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	client, err := NewElasticClient(srv.URL)
	require.NoError(t, err)
	store := NewElasticStore(client, "shops", nil)
	ctx := context.Background()

	require.NoError(t, store.CreateIndex(ctx))
	assert.True(t, fake.created)

	records := []json.RawMessage{
		json.RawMessage(`{"shop_id":1,"latitude":"34.7, 135.5"}`),
		json.RawMessage(`{"shop_id":2,"latitude":35.0,"longitude":135.7}`),
	}
	require.NoError(t, store.BulkLoad(ctx, records))
	require.Len(t, fake.docs, 2)

	got, err := store.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.JSONEq(t, string(records[0]), string(got[0]))
	assert.JSONEq(t, string(records[1]), string(got[1]))

	// second create is a no-op
	fake.created = false
	require.NoError(t, store.CreateIndex(ctx))
	assert.False(t, fake.created)

	// a shorter feed replaces the longer one
	require.NoError(t, store.BulkLoad(ctx, records[1:]))
	got, err = store.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.JSONEq(t, string(records[1]), string(got[0]))

	require.NoError(t, store.BulkLoad(ctx, nil))
	got, err = store.Fetch(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}
