// Package indexmgr prepares the search cluster for shipped Lambda logs.
package indexmgr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/telhawk-systems/lambda-log-shipper/internal/client"
	"github.com/telhawk-systems/lambda-log-shipper/internal/config"
	"github.com/telhawk-systems/lambda-log-shipper/internal/sink"
)

const (
	TemplateName = "lambda-template"
	PolicyName   = "lambda-policy"
)

type IndexManager struct {
	client *client.OpenSearchClient
	config config.IndexConfig
}

func NewIndexManager(client *client.OpenSearchClient, cfg config.IndexConfig) *IndexManager {
	return &IndexManager{
		client: client,
		config: cfg,
	}
}

// Initialize installs the index template and the retention policy for the
// daily lambda-* indices. Both calls are idempotent.
func (m *IndexManager) Initialize(ctx context.Context) error {
	if err := m.createIndexTemplate(ctx); err != nil {
		return fmt.Errorf("failed to create index template: %w", err)
	}

	if err := m.createISMPolicy(ctx); err != nil {
		return fmt.Errorf("failed to create ISM policy: %w", err)
	}

	return nil
}

func (m *IndexManager) createIndexTemplate(ctx context.Context) error {
	body, err := json.Marshal(m.indexTemplate())
	if err != nil {
		return err
	}

	indices := m.client.Client().Indices
	res, err := indices.PutIndexTemplate(
		TemplateName,
		bytes.NewReader(body),
		indices.PutIndexTemplate.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		bodyBytes, _ := io.ReadAll(res.Body)
		return fmt.Errorf("%s - %s", res.Status(), string(bodyBytes))
	}

	return nil
}

func (m *IndexManager) indexTemplate() map[string]interface{} {
	return map[string]interface{}{
		"index_patterns": []string{sink.IndexPattern},
		"template": map[string]interface{}{
			"settings": map[string]interface{}{
				"number_of_shards":   m.config.ShardCount,
				"number_of_replicas": m.config.ReplicaCount,
				"refresh_interval":   m.config.RefreshInterval,
				"codec":              "best_compression",
			},
			"mappings": logMappings(),
		},
		"priority": 100,
	}
}

func logMappings() map[string]interface{} {
	return map[string]interface{}{
		"properties": map[string]interface{}{
			"@timestamp": map[string]interface{}{
				"type": "date",
			},
			"log_type": map[string]interface{}{
				"type": "keyword",
			},
			"log_stream_name": map[string]interface{}{
				"type": "keyword",
			},
			"log": map[string]interface{}{
				"type": "text",
			},
		},
	}
}

func (m *IndexManager) ismPolicy() map[string]interface{} {
	return map[string]interface{}{
		"policy": map[string]interface{}{
			"description":   "Lambda log index retention policy",
			"default_state": "hot",
			"states": []map[string]interface{}{
				{
					"name":    "hot",
					"actions": []map[string]interface{}{},
					"transitions": []map[string]interface{}{
						{
							"state_name": "delete",
							"conditions": map[string]interface{}{
								"min_index_age": fmt.Sprintf("%dd", m.config.RetentionDays),
							},
						},
					},
				},
				{
					"name": "delete",
					"actions": []map[string]interface{}{
						{
							"delete": map[string]interface{}{},
						},
					},
				},
			},
			"ism_template": []map[string]interface{}{
				{
					"index_patterns": []string{sink.IndexPattern},
					"priority":       100,
				},
			},
		},
	}
}

func (m *IndexManager) createISMPolicy(ctx context.Context) error {
	if m.config.RetentionDays <= 0 {
		return nil
	}

	body, err := json.Marshal(m.ismPolicy())
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPut,
		"/_plugins/_ism/policies/"+PolicyName,
		bytes.NewReader(body),
	)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := m.client.Client().Transport.Perform(httpReq)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	// 404: ISM plugin not installed. 409: policy already present.
	if res.StatusCode >= 400 && res.StatusCode != http.StatusNotFound && res.StatusCode != http.StatusConflict {
		bodyBytes, _ := io.ReadAll(res.Body)
		return fmt.Errorf("%d - %s", res.StatusCode, string(bodyBytes))
	}

	return nil
}
