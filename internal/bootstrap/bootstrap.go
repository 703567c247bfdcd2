// Package bootstrap builds the external clients shared by the binaries from
// configuration.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/reviewinsight/internal/cache"
	"github.com/nikhilbhutani/reviewinsight/internal/config"
	"github.com/nikhilbhutani/reviewinsight/internal/database"
	"github.com/nikhilbhutani/reviewinsight/internal/embedding"
	"github.com/nikhilbhutani/reviewinsight/internal/llm"
	"github.com/nikhilbhutani/reviewinsight/internal/search"
	"github.com/nikhilbhutani/reviewinsight/internal/storage"
)

// Index returns the configured search backend. The pool is nil for the Azure
// backend; callers close it when set.
func Index(ctx context.Context, cfg *config.Config) (search.Index, *pgxpool.Pool, error) {
	switch cfg.Search.Backend {
	case "azure":
		return search.NewAzureIndex(cfg.Search.Endpoint, cfg.Search.APIKey, cfg.Search.IndexName, cfg.Search.APIVersion), nil, nil
	case "pgvector":
		pool, err := database.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return search.NewPgVectorIndex(pool, cfg.Search.IndexName), pool, nil
	default:
		return nil, nil, fmt.Errorf("unknown search backend %q", cfg.Search.Backend)
	}
}

// Schema is the review index definition for the configured backend.
func Schema(cfg *config.Config) search.Schema {
	return search.ReviewSchema(cfg.Search.IndexName, cfg.Search.EmbeddingDim, cfg.Search.SemanticConfig)
}

func Embedder(cfg *config.Config, gw llm.Gateway) *embedding.Service {
	return embedding.NewService(gw, cfg.LLM.EmbeddingProvider, cfg.LLM.EmbeddingModel)
}

// QueryEmbedder returns the embedder for the answer path, or nil when the
// backend ranks by text alone.
func QueryEmbedder(cfg *config.Config, gw llm.Gateway) embedding.Embedder {
	if cfg.Search.Backend == "pgvector" || cfg.Search.Hybrid {
		return Embedder(cfg, gw)
	}
	return nil
}

func BlobStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case "azure":
		return storage.NewAzureBlobStore(cfg.Storage.Account, cfg.Storage.AccountKey, cfg.Storage.Container, cfg.Storage.Endpoint)
	case "supabase":
		return storage.NewSupabaseStorage(cfg.Storage.SupabaseURL, cfg.Storage.SupabaseKey, cfg.Storage.Container), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func Redis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// SessionCache is the Redis JSON cache that backs the redis session store.
func SessionCache(rdb *redis.Client) *cache.Cache {
	return cache.NewCache(rdb, "session:")
}
