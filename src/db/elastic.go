package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/olivere/elastic/v7"
	"go.uber.org/zap"
)

const (
	fetchPageSize   = 1000
	maxResultWindow = 20000
)

// feedMapping keeps each record untouched under "record" and orders the feed
// by "seq", the record's position in the source file.
const feedMapping = `{
	"settings": {"index": {"max_result_window": 20000}},
	"mappings": {
		"properties": {
			"seq":    {"type": "integer"},
			"record": {"type": "object", "enabled": false}
		}
	}
}`

type feedDoc struct {
	Seq    int             `json:"seq"`
	Record json.RawMessage `json:"record"`
}

// ElasticStore serves one feed (shops or reviews) out of an Elasticsearch index.
type ElasticStore struct {
	Client *elastic.Client
	Index  string
	Logger *zap.Logger
}

func NewElasticClient(url string) (*elastic.Client, error) {
	client, err := elastic.NewClient(
		elastic.SetURL(url),
		elastic.SetSniff(false),
		elastic.SetHealthcheck(false),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	return client, nil
}

func NewElasticStore(client *elastic.Client, index string, logger *zap.Logger) *ElasticStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ElasticStore{Client: client, Index: index, Logger: logger}
}

// Fetch returns every record of the feed in source order.
func (es *ElasticStore) Fetch(ctx context.Context) ([]json.RawMessage, error) {
	var records []json.RawMessage
	for from := 0; from < maxResultWindow; from += fetchPageSize {
		searchResult, err := es.Client.Search().
			Index(es.Index).
			Query(elastic.NewMatchAllQuery()).
			Sort("seq", true).
			From(from).
			Size(fetchPageSize).
			Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", es.Index, err)
		}
		if searchResult.Hits == nil {
			break
		}
		for _, hit := range searchResult.Hits.Hits {
			var doc feedDoc
			if err := json.Unmarshal(hit.Source, &doc); err != nil || len(doc.Record) == 0 {
				// Surfaces downstream as a malformed record rather than failing the feed.
				es.Logger.Warn("undecodable feed document", zap.String("index", es.Index), zap.String("id", hit.Id))
				records = append(records, json.RawMessage(`null`))
				continue
			}
			records = append(records, doc.Record)
		}
		if len(searchResult.Hits.Hits) < fetchPageSize {
			break
		}
	}
	return records, nil
}

// CreateIndex creates the feed index unless it already exists.
func (es *ElasticStore) CreateIndex(ctx context.Context) error {
	exists, err := es.Client.IndexExists(es.Index).Do(ctx)
	if err != nil {
		return fmt.Errorf("check index %s: %w", es.Index, err)
	}
	if exists {
		es.Logger.Info("index already exists", zap.String("index", es.Index))
		return nil
	}

	createIndex, err := es.Client.CreateIndex(es.Index).BodyString(feedMapping).Do(ctx)
	if err != nil {
		return fmt.Errorf("create index %s: %w", es.Index, err)
	}
	if !createIndex.Acknowledged {
		es.Logger.Warn("create index was not acknowledged", zap.String("index", es.Index))
	}
	es.Logger.Info("index created", zap.String("index", es.Index))
	return nil
}

// BulkLoad replaces the feed with records, keeping their order. Records left
// over from a longer previous feed are deleted afterwards.
func (es *ElasticStore) BulkLoad(ctx context.Context, records []json.RawMessage) error {
	if len(records) > maxResultWindow {
		return fmt.Errorf("feed %s has %d records, limit is %d", es.Index, len(records), maxResultWindow)
	}

	if len(records) > 0 {
		if err := es.index(ctx, records); err != nil {
			return err
		}
	}
	return es.truncate(ctx, len(records))
}

func (es *ElasticStore) index(ctx context.Context, records []json.RawMessage) error {
	bulkRequest := es.Client.Bulk().Refresh("true")
	for i, rec := range records {
		req := elastic.NewBulkIndexRequest().
			Index(es.Index).
			Id(strconv.Itoa(i)).
			Doc(feedDoc{Seq: i, Record: rec})
		bulkRequest = bulkRequest.Add(req)
	}

	bulkResponse, err := bulkRequest.Do(ctx)
	if err != nil {
		return fmt.Errorf("bulk load %s: %w", es.Index, err)
	}

	failed := bulkResponse.Failed()
	for _, item := range failed {
		reason := ""
		if item.Error != nil {
			reason = item.Error.Reason
		}
		es.Logger.Warn("bulk item failed", zap.String("index", es.Index), zap.String("id", item.Id), zap.String("reason", reason))
	}
	if len(failed) > 0 {
		return fmt.Errorf("bulk load %s: %d of %d records failed", es.Index, len(failed), len(records))
	}
	return nil
}

// truncate drops every document at or past position n.
func (es *ElasticStore) truncate(ctx context.Context, n int) error {
	res, err := es.Client.DeleteByQuery(es.Index).
		Query(elastic.NewRangeQuery("seq").Gte(n)).
		Refresh("true").
		Do(ctx)
	if err != nil {
		return fmt.Errorf("truncate %s: %w", es.Index, err)
	}
	if res.Deleted > 0 {
		es.Logger.Info("stale records deleted", zap.String("index", es.Index), zap.Int64("deleted", res.Deleted))
	}
	return nil
}
