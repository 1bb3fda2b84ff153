package db

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/olivere/elastic/v7"
	"go.uber.org/zap"

	"gourmet/src/types"
)

// FileSource reads a feed from a local JSON array file.
type FileSource struct {
	Path string
}

func (fs FileSource) Fetch(ctx context.Context) ([]json.RawMessage, error) {
	data, err := os.ReadFile(fs.Path)
	if err != nil {
		return nil, err
	}
	return decodeFeed(data)
}

// HTTPSource fetches a feed from a URL serving a JSON array.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (hs HTTPSource) Fetch(ctx context.Context) ([]json.RawMessage, error) {
	client := hs.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, hs.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", hs.URL, resp.StatusCode)
	}
	var records []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", hs.URL, err)
	}
	return records, nil
}

func decodeFeed(data []byte) ([]json.RawMessage, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("feed is not a JSON array: %w", err)
	}
	return records, nil
}

// Opener resolves feed references to sources:
//
//	http://... or https://...  HTTPSource
//	es:<index>                  ElasticStore on ElasticURL
//	anything else               FileSource
type Opener struct {
	ElasticURL string
	Logger     *zap.Logger

	once   sync.Once
	client *elastic.Client
	err    error
}

func (o *Opener) Open(ref string) (types.Source, error) {
	switch {
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return HTTPSource{URL: ref}, nil
	case strings.HasPrefix(ref, "es:"):
		index := strings.TrimPrefix(ref, "es:")
		if index == "" {
			return nil, fmt.Errorf("empty index name in %q", ref)
		}
		client, err := o.Elastic()
		if err != nil {
			return nil, err
		}
		return NewElasticStore(client, index, o.Logger), nil
	case ref == "":
		return nil, fmt.Errorf("empty feed reference")
	default:
		return FileSource{Path: ref}, nil
	}
}

// Elastic returns the shared Elasticsearch client, creating it on first use.
func (o *Opener) Elastic() (*elastic.Client, error) {
	o.once.Do(func() {
		o.client, o.err = NewElasticClient(o.ElasticURL)
	})
	return o.client, o.err
}
