// Command seed_recipes loads a recipe corpus dump, embeds each record, and
// writes it to the store. The corpus may be a local file or an s3:// URL,
// containing either a JSON array or newline-delimited JSON objects.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"github.com/fridgechef/backend/config"
	"github.com/fridgechef/backend/internal/database"
	"github.com/fridgechef/backend/internal/logging"
	"github.com/fridgechef/backend/internal/model"
	"github.com/fridgechef/backend/internal/service"
)

type seedRecord struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	Tags         []string `json:"tags"`
	Source       string   `json:"source"`
}

func main() {
	corpusPath := flag.String("corpus", "", "path to the corpus dump (local file or s3://bucket/key)")
	batchSize := flag.Int("batch", 32, "records embedded per provider call")
	flag.Parse()

	if *corpusPath == "" {
		log.Fatal("usage: seed_recipes -corpus <file|s3://bucket/key> [-batch n]")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	db, err := database.New(cfg.DB, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	store := service.NewRecipeStoreService(db, logger)
	embedder := service.NewEmbeddingService(cfg.Embedding, nil, logger)

	records, err := loadCorpus(ctx, *corpusPath)
	if err != nil {
		logger.Fatal("failed to load corpus", zap.String("corpus", *corpusPath), zap.Error(err))
	}
	logger.Info("corpus loaded", zap.String("corpus", *corpusPath), zap.Int("records", len(records)))

	start := time.Now()
	seeded, skipped := 0, 0
	for offset := 0; offset < len(records); offset += *batchSize {
		end := offset + *batchSize
		if end > len(records) {
			end = len(records)
		}

		recipes := make([]*model.Recipe, 0, end-offset)
		texts := make([]string, 0, end-offset)
		for _, rec := range records[offset:end] {
			if rec.Title == "" || len(rec.Ingredients) == 0 {
				skipped++
				continue
			}
			recipe := &model.Recipe{
				Title:        rec.Title,
				Description:  rec.Description,
				Ingredients:  model.JSONBStringArray(rec.Ingredients),
				Instructions: model.JSONBStringArray(rec.Instructions),
				Tags:         model.JSONBStringArray(rec.Tags),
				Source:       rec.Source,
			}
			recipes = append(recipes, recipe)
			texts = append(texts, service.RecipeText(recipe))
		}
		if len(recipes) == 0 {
			continue
		}

		vectors, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			logger.Fatal("batch embedding failed", zap.Int("offset", offset), zap.Error(err))
		}
		for i, recipe := range recipes {
			recipe.Embedding = pgvector.NewVector(vectors[i])
			if err := store.CreateRecipe(ctx, recipe); err != nil {
				logger.Fatal("failed to store recipe",
					zap.String("title", recipe.Title),
					zap.Error(err),
				)
			}
			seeded++
		}
		logger.Info("batch seeded", zap.Int("seeded", seeded), zap.Int("total", len(records)))
	}

	logger.Info("seeding complete",
		zap.Int("seeded", seeded),
		zap.Int("skipped", skipped),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// loadCorpus reads the dump from local disk or S3.
func loadCorpus(ctx context.Context, path string) ([]seedRecord, error) {
	var reader io.ReadCloser
	if strings.HasPrefix(path, "s3://") {
		bucket, key, err := parseS3Path(path)
		if err != nil {
			return nil, err
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client := s3.NewFromConfig(awsCfg)
		obj, err := client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch s3://%s/%s: %w", bucket, key, err)
		}
		reader = obj.Body
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		reader = f
	}
	defer reader.Close()

	return parseCorpus(reader)
}

func parseS3Path(path string) (bucket, key string, err error) {
	trimmed := strings.TrimPrefix(path, "s3://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid s3 path %q, want s3://bucket/key", path)
	}
	return parts[0], parts[1], nil
}

// parseCorpus accepts a JSON array or NDJSON.
func parseCorpus(r io.Reader) ([]seedRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var records []seedRecord
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var rec seedRecord
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return nil, fmt.Errorf("invalid record on line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("corpus contains no records")
	}
	return records, nil
}
