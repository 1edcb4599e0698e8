package indexer

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/opensearch-project/opensearch-go/v2"

	"github.com/streamhub-systems/streamhub/internal/metrics"
)

// MirrorConfig holds OpenSearch connection settings for the signal mirror.
type MirrorConfig struct {
	URL      string
	Username string
	Password string
	Insecure bool
	Index    string
}

// Mirror copies signal documents into OpenSearch for richer search than the
// jsonb containment predicate. It is strictly best-effort: the Postgres
// index_folders row is the consistency surface, the mirror may lag.
type Mirror struct {
	client *opensearch.Client
	index  string
}

// NewMirror creates the OpenSearch client and verifies connectivity.
func NewMirror(cfg MirrorConfig) (*Mirror, error) {
	httpClient := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.Insecure,
			},
		},
	}

	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: httpClient.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create opensearch client: %w", err)
	}

	info, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to ping opensearch: %w", err)
	}
	defer info.Body.Close()
	if info.IsError() {
		return nil, fmt.Errorf("opensearch returned error: %s", info.Status())
	}

	index := cfg.Index
	if index == "" {
		index = "streamhub-signals"
	}
	return &Mirror{client: client, index: index}, nil
}

// Initialize creates the signal index with keyword mappings. An existing
// index is left alone.
func (m *Mirror) Initialize(ctx context.Context) error {
	mapping := map[string]interface{}{
		"settings": map[string]interface{}{
			"number_of_shards":   1,
			"number_of_replicas": 0,
		},
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"streamId":  map[string]interface{}{"type": "keyword"},
				"tip":       map[string]interface{}{"type": "keyword"},
				"dappId":    map[string]interface{}{"type": "keyword"},
				"account":   map[string]interface{}{"type": "keyword"},
				"modelId":   map[string]interface{}{"type": "keyword"},
				"contentId": map[string]interface{}{"type": "keyword"},
			},
		},
	}

	body, err := json.Marshal(mapping)
	if err != nil {
		return err
	}

	res, err := m.client.Indices.Create(
		m.index,
		m.client.Indices.Create.WithBody(bytes.NewReader(body)),
		m.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to create signal index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusBadRequest {
		// 400 resource_already_exists is fine on restart.
		bodyBytes, _ := io.ReadAll(res.Body)
		return fmt.Errorf("failed to create signal index: %s - %s", res.Status(), string(bodyBytes))
	}
	return nil
}

// IndexSignal upserts a signal document keyed by stream id. Errors are
// returned for the caller to log; they never fail the submission.
func (m *Mirror) IndexSignal(ctx context.Context, streamID string, signal json.RawMessage) error {
	if m == nil {
		return nil
	}

	res, err := m.client.Index(
		m.index,
		bytes.NewReader(signal),
		m.client.Index.WithDocumentID(streamID),
		m.client.Index.WithContext(ctx),
	)
	if err != nil {
		metrics.SignalMirrorErrors.Inc()
		return fmt.Errorf("failed to index signal: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		metrics.SignalMirrorErrors.Inc()
		bodyBytes, _ := io.ReadAll(res.Body)
		return fmt.Errorf("failed to index signal: %s - %s", res.Status(), string(bodyBytes))
	}
	return nil
}
