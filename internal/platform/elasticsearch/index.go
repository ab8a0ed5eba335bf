// File: internal/platform/elasticsearch/index.go
package elasticsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

const ProductsIndexName = "products"

// defineProductsMapping returns the JSON string for the products index mapping.
func defineProductsMapping() (string, error) {
	mapping := map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"name":        map[string]interface{}{"type": "text", "fields": map[string]interface{}{"keyword": map[string]interface{}{"type": "keyword", "ignore_above": 256}}},
				"description": map[string]interface{}{"type": "text"},
				"category":    map[string]interface{}{"type": "keyword"},
				"price":       map[string]interface{}{"type": "double"},
				"stock":       map[string]interface{}{"type": "integer"},
				"status":      map[string]interface{}{"type": "keyword"},
				"user_id":     map[string]interface{}{"type": "keyword"},
				"rating":      map[string]interface{}{"type": "double"},
				"num_reviews": map[string]interface{}{"type": "integer"},
				"created_at":  map[string]interface{}{"type": "date"},
				"updated_at":  map[string]interface{}{"type": "date"},
			},
		},
	}
	mappingBytes, err := json.Marshal(mapping)
	if err != nil {
		return "", fmt.Errorf("error marshalling products mapping to JSON: %w", err)
	}
	return string(mappingBytes), nil
}

// CreateProductsIndexIfNotExists creates the products index with the defined
// mapping if it does not already exist.
func CreateProductsIndexIfNotExists(client *ESClientWrapper, logger *zap.Logger) error {
	ctx := context.Background()
	log := logger.Named("elasticsearch_index_setup")

	req := esapi.IndicesExistsRequest{
		Index: []string{ProductsIndexName},
	}
	res, err := req.Do(ctx, client.Client)
	if err != nil {
		log.Error("Error checking if products index exists", zap.Error(err))
		return fmt.Errorf("error checking if products index exists: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		log.Info("Products index already exists", zap.String("index_name", ProductsIndexName))
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		log.Error("Error checking if products index exists, unexpected status",
			zap.String("status", res.Status()),
			zap.String("index_name", ProductsIndexName),
		)
		return fmt.Errorf("error checking if products index exists: status %s", res.Status())
	}

	mappingJSON, err := defineProductsMapping()
	if err != nil {
		log.Error("Failed to define products mapping", zap.Error(err))
		return err
	}

	createReq := esapi.IndicesCreateRequest{
		Index: ProductsIndexName,
		Body:  strings.NewReader(mappingJSON),
	}
	createRes, err := createReq.Do(ctx, client.Client)
	if err != nil {
		log.Error("Error creating products index", zap.Error(err), zap.String("index_name", ProductsIndexName))
		return fmt.Errorf("error creating products index %s: %w", ProductsIndexName, err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		var errorBody map[string]interface{}
		if err := json.NewDecoder(createRes.Body).Decode(&errorBody); err != nil {
			log.Error("Failed to parse products index creation error response body", zap.Error(err), zap.String("status", createRes.Status()))
		} else {
			log.Error("Failed to create products index",
				zap.String("status", createRes.Status()),
				zap.Any("error_details", errorBody),
				zap.String("index_name", ProductsIndexName),
			)
		}
		return fmt.Errorf("failed to create products index %s: status %s", ProductsIndexName, createRes.Status())
	}

	log.Info("Products index created successfully", zap.String("index_name", ProductsIndexName))
	return nil
}
