// File: cmd/server/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"green_planet_backend/internal/config"
	"green_planet_backend/internal/platform/database"
	platformElasticsearch "green_planet_backend/internal/platform/elasticsearch"
	"green_planet_backend/internal/platform/logger"
	"green_planet_backend/internal/product"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// provideCleanup is shared between the Wire injector and the generated code.
func provideCleanup(logger *zap.Logger, db *gorm.DB) func() {
	return func() {
		logger.Info("Executing cleanup tasks...")
		database.CloseGORMDB(db)
		if err := logger.Sync(); err != nil {
			log.Printf("ERROR: Failed to sync logger during cleanup: %v", err)
		}
		log.Println("Cleanup finished.")
	}
}

func main() {
	syncProductsCmd := flag.NewFlagSet("sync-products", flag.ExitOnError)
	batchSize := syncProductsCmd.Int("batch-size", 100, "Batch size for syncing products")
	esRefresh := syncProductsCmd.String("es-refresh", "false", "Elasticsearch refresh policy (true, false, wait_for)")

	if len(os.Args) > 1 && os.Args[1] == "sync-products" {
		syncProductsCmd.Parse(os.Args[2:])

		cfg, err := config.Load()
		if err != nil {
			log.Fatalf("FATAL: Failed to load configuration for sync: %v", err)
		}
		appLogger, err := logger.New(cfg)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize logger for sync: %v", err)
		}
		db, err := database.NewGORM(cfg)
		if err != nil {
			appLogger.Fatal("FATAL: Failed to initialize database for sync", zap.Error(err))
		}
		sqlDB, _ := db.DB()
		defer sqlDB.Close()

		esClient, err := platformElasticsearch.NewClient(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("FATAL: Failed to initialize Elasticsearch client for sync", zap.Error(err))
		}
		if esClient == nil {
			appLogger.Fatal("FATAL: ELASTICSEARCH_URL must be set to sync products")
		}

		if err := platformElasticsearch.CreateProductsIndexIfNotExists(esClient, appLogger); err != nil {
			appLogger.Fatal("FATAL: Failed to create/verify products index before sync", zap.Error(err))
		}

		productRepo := product.NewGORMRepository(db)

		if err := runProductSync(productRepo, esClient, appLogger, *batchSize, *esRefresh); err != nil {
			appLogger.Fatal("FATAL: Product synchronization failed", zap.Error(err))
		}
		appLogger.Info("Product synchronization completed successfully.")
		return
	}

	startServer()
}

func startServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	server, cleanup, err := initializeServer(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize server: %v", err)
	}
	defer cleanup()

	if server.ESClient != nil {
		if err := platformElasticsearch.CreateProductsIndexIfNotExists(server.ESClient, server.AppLogger); err != nil {
			server.AppLogger.Error("Failed to create products index; search falls back to the database", zap.Error(err))
		}
	} else {
		server.AppLogger.Info("Elasticsearch client not initialized, skipping index creation.")
	}

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("FATAL: Server failed to start or crashed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("INFO: Received signal '%s'. Shutting down server...", sig)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ServerTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: Server forced to shutdown due to error: %v", err)
	} else {
		log.Println("INFO: Server shutdown complete.")
	}
	log.Println("INFO: Application exiting.")
}

// runProductSync bulk-reindexes all products into Elasticsearch in batches.
func runProductSync(
	productRepo product.Repository,
	esClient *platformElasticsearch.ESClientWrapper,
	logger *zap.Logger,
	batchSize int,
	esRefresh string,
) error {
	logger.Info("Starting product synchronization to Elasticsearch...",
		zap.Int("batchSize", batchSize),
		zap.String("esRefreshPolicy", esRefresh),
	)

	offset := 0
	totalSynced := 0
	totalFailed := 0

	for {
		products, err := productRepo.FindAllForSync(context.Background(), offset, batchSize)
		if err != nil {
			return fmt.Errorf("fetching batch at offset %d: %w", offset, err)
		}
		if len(products) == 0 {
			break
		}

		var bulkBody strings.Builder
		for i := range products {
			p := &products[i]
			doc := product.ToESDocument(p)
			docJSON, marshalErr := json.Marshal(doc)
			if marshalErr != nil {
				logger.Error("Failed to marshal product document",
					zap.String("productID", p.ID.String()), zap.Error(marshalErr))
				totalFailed++
				continue
			}
			fmt.Fprintf(&bulkBody, `{ "index" : { "_index" : "%s", "_id" : "%s" } }%s`,
				platformElasticsearch.ProductsIndexName, p.ID.String(), "\n")
			bulkBody.Write(docJSON)
			bulkBody.WriteString("\n")
		}

		if bulkBody.Len() > 0 {
			synced, failed, bulkErr := sendBulk(esClient, bulkBody.String(), esRefresh, logger)
			if bulkErr != nil {
				return bulkErr
			}
			totalSynced += synced
			totalFailed += failed
		}

		offset += len(products)
	}

	logger.Info("Product sync finished",
		zap.Int("synced", totalSynced),
		zap.Int("failed", totalFailed),
	)
	if totalFailed > 0 {
		return fmt.Errorf("%d product(s) failed to index", totalFailed)
	}
	return nil
}

func sendBulk(esClient *platformElasticsearch.ESClientWrapper, body, refresh string, logger *zap.Logger) (synced, failed int, err error) {
	req := esapi.BulkRequest{
		Body:    strings.NewReader(body),
		Refresh: refresh,
	}
	res, err := req.Do(context.Background(), esClient.Client)
	if err != nil {
		return 0, 0, fmt.Errorf("sending bulk request: %w", err)
	}
	defer res.Body.Close()

	var bulkResponse struct {
		Errors bool `json:"errors"`
		Items  []struct {
			Index struct {
				ID     string                 `json:"_id"`
				Status int                    `json:"status"`
				Error  map[string]interface{} `json:"error,omitempty"`
			} `json:"index"`
		} `json:"items"`
	}
	if decErr := json.NewDecoder(res.Body).Decode(&bulkResponse); decErr != nil {
		return 0, 0, fmt.Errorf("parsing bulk response: %w", decErr)
	}

	for _, item := range bulkResponse.Items {
		if item.Index.Error != nil {
			logger.Error("Failed to index product document",
				zap.String("productID", item.Index.ID),
				zap.Any("error", item.Index.Error),
			)
			failed++
		} else {
			synced++
		}
	}
	return synced, failed, nil
}
