package projections

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/scaffold/services/platform/config"
)

// Constants for index names
const (
	ProjectsIndex      = "projects"
	ProjectEventsIndex = "project-events"
	TemplatesIndex     = "templates"
	ProvisioningsIndex = "provisionings"
	AnalysisRunsIndex  = "analysis-runs"
)

// NewElasticsearchClient creates a new Elasticsearch client
func NewElasticsearchClient(cfg config.Config) (*elasticsearch.Client, error) {
	elasticCfg := elasticsearch.Config{
		Addresses: []string{cfg.ElasticSearchURL},
		Username:  cfg.ElasticSearchUsername,
		Password:  cfg.ElasticSearchPassword,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 10,
		},
	}

	client, err := elasticsearch.NewClient(elasticCfg)
	if err != nil {
		return nil, errors.Wrap(err, "error creating Elasticsearch client")
	}

	res, err := client.Info()
	if err != nil {
		return nil, errors.Wrap(err, "error connecting to Elasticsearch")
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.Errorf("Elasticsearch returned error: %s", res.String())
	}

	log.Info().Msg("Successfully connected to Elasticsearch")
	return client, nil
}

// FormatIndex adds the prefix to the index name
func FormatIndex(indexName string, cfg config.Config) string {
	return cfg.ElasticSearchPrefix + "-" + indexName
}

// EnsureIndices ensures that all required indices exist
func EnsureIndices(client *elasticsearch.Client, cfg config.Config) error {
	indices := []string{
		ProjectsIndex,
		ProjectEventsIndex,
		TemplatesIndex,
		ProvisioningsIndex,
		AnalysisRunsIndex,
	}

	for _, index := range indices {
		formattedIndex := FormatIndex(index, cfg)

		exists, err := indexExists(client, formattedIndex)
		if err != nil {
			return err
		}

		if !exists {
			log.Info().Msgf("Creating index %s", formattedIndex)
			if err := createIndex(client, formattedIndex); err != nil {
				return err
			}
		}
	}

	return nil
}

// indexDocument writes a document into Elasticsearch. A nil client
// disables indexing, and failures are logged rather than failing the
// projection since the database row is the source of truth for reads.
func indexDocument(ctx context.Context, client *elasticsearch.Client, index, docID string, doc interface{}) {
	if client == nil {
		return
	}

	body, err := json.Marshal(doc)
	if err != nil {
		log.Warn().Err(err).Str("index", index).Msg("Failed to marshal document for Elasticsearch")
		return
	}

	res, err := client.Index(
		index,
		bytes.NewReader(body),
		client.Index.WithDocumentID(docID),
		client.Index.WithContext(ctx),
	)
	if err != nil {
		log.Warn().Err(err).Str("index", index).Msg("Failed to index document in Elasticsearch")
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Warn().Str("index", index).Str("response", res.String()).Msg("Elasticsearch rejected document")
	}
}

// indexExists checks if an index exists
func indexExists(client *elasticsearch.Client, index string) (bool, error) {
	res, err := client.Indices.Exists([]string{index})
	if err != nil {
		return false, errors.Wrapf(err, "error checking if index %s exists", index)
	}
	defer res.Body.Close()

	return res.StatusCode == 200, nil
}

// createIndex creates an index
func createIndex(client *elasticsearch.Client, index string) error {
	res, err := client.Indices.Create(index)
	if err != nil {
		return errors.Wrapf(err, "error creating index %s", index)
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.Errorf("error creating index %s: %s", index, res.String())
	}

	return nil
}
