// Command seed-taxonomy loads a YAML taxonomy fixture into the DynamoDB table.
//
//	seed-taxonomy -file configs/taxonomy.example.yaml
//
// Categories are upserted; menus that already exist are left untouched.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"catmenu/domain/core/entities"
	"catmenu/infrastructure/config"
	"catmenu/infrastructure/di"
	"catmenu/infrastructure/persistence/dynamodb"
	"catmenu/infrastructure/persistence/fixtures"
	pkgerrors "catmenu/pkg/errors"

	"go.uber.org/zap"
)

func main() {
	file := flag.String("file", "", "taxonomy fixture (defaults to TAXONOMY_FILE)")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall timeout")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *file == "" {
		*file = cfg.TaxonomyFile
	}
	if *file == "" {
		log.Fatal("No taxonomy file given; use -file or TAXONOMY_FILE")
	}

	logger, err := di.ProvideLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	tax, err := fixtures.LoadFile(*file)
	if err != nil {
		logger.Fatal("Failed to load taxonomy", zap.Error(err))
	}

	cfg.StoreBackend = config.BackendDynamoDB
	awsCfg, err := di.ProvideAWSConfig(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to load AWS configuration", zap.Error(err))
	}
	client := di.ProvideDynamoDBClient(awsCfg)
	table := di.ProvideTableConfig(cfg)

	categories := dynamodb.NewCategoryRepository(client, table, nil, logger)
	menus := dynamodb.NewMenuRepository(client, table, nil, logger)

	skipExisting := func(m entities.Menu, err error) bool {
		if !pkgerrors.IsConflict(err) {
			return false
		}
		logger.Info("Menu already exists, skipping", zap.Int64("menuID", m.ID.Int64()))
		return true
	}

	if err := tax.Seed(ctx, categories, menus, skipExisting); err != nil {
		logger.Fatal("Failed to seed taxonomy", zap.Error(err))
	}

	logger.Info("Taxonomy seeded",
		zap.String("table", cfg.TableName),
		zap.Int("categories", len(tax.Categories)),
		zap.Int("menus", len(tax.Menus)),
	)
}
