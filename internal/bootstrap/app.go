package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"gopherai-rag/internal/ai"
	"gopherai-rag/internal/app"
	"gopherai-rag/internal/cache"
	"gopherai-rag/internal/config"
	"gopherai-rag/internal/logger"
	mysqlClient "gopherai-rag/internal/platform/mysql"
	rabbitmqClient "gopherai-rag/internal/platform/rabbitmq"
	redisClient "gopherai-rag/internal/platform/redis"
	"gopherai-rag/internal/repository"
	"gopherai-rag/internal/vectorindex"
	"gopherai-rag/internal/worker"
)

// App owns every long-lived component. Optional infrastructure (MySQL, Redis,
// RabbitMQ) is only connected when the configuration asks for it.
type App struct {
	Config *config.Config
	Logger logger.Logger

	MySQL  *gorm.DB
	Redis  *redis.Client
	MQConn *amqp.Connection

	Embedder  ai.Embedder
	Store     vectorindex.Store
	Generator *ai.ChatClient
	Engine    *app.QueryEngine
	Sessions  *app.ChatSessions

	Chunks    *app.ChunkService
	Indexer   *app.IndexService
	Pipeline  *app.IndexPipeline
	Publisher *rabbitmqClient.IndexJobPublisher
	Worker    *worker.IndexBuildWorker

	StartedAt time.Time
}

func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	if log == nil {
		log = logger.Discard()
	}
	a := &App{Config: cfg, Logger: log, StartedAt: time.Now()}

	if err := a.connect(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	embedder, err := NewEmbedder(cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	if a.Redis != nil {
		embedder = cache.NewCachedEmbedder(
			embedder,
			cache.NewEmbeddingCache(a.Redis, cfg.EmbeddingCacheTTL()),
			log.With("component", "embedding-cache"),
		)
	}
	a.Embedder = embedder

	if cfg.Index.Backend == config.IndexBackendMySQL {
		repo := repository.NewIndexRepository(a.MySQL)
		if err := repo.AutoMigrate(); err != nil {
			_ = a.Close()
			return nil, err
		}
		a.Store = repo
	} else {
		a.Store = vectorindex.NewDirStore(cfg.Paths.IndexDir)
	}

	a.Chunks = app.NewChunkService(cfg.Chunk.Size, cfg.Chunk.Overlap, log.With("component", "chunker"))
	a.Indexer = app.NewIndexService(a.Embedder, a.Store, cfg.Embedding.BatchSize, log.With("component", "indexer"))
	if a.MQConn != nil {
		a.Publisher = rabbitmqClient.NewIndexJobPublisher(a.MQConn, cfg.RabbitMQ.IndexJobQueue)
	}

	a.UseAPIKey(cfg.LLM.APIKey)
	return a, nil
}

func (a *App) connect(ctx context.Context) error {
	cfg := a.Config
	if cfg.Index.Backend == config.IndexBackendMySQL {
		db, err := mysqlClient.New(ctx, cfg.MySQLDSN())
		if err != nil {
			return err
		}
		a.MySQL = db
	}
	if cfg.Redis.Enabled {
		cli, err := redisClient.New(ctx, redisClient.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		a.Redis = cli
	}
	if cfg.RabbitMQ.URL != "" {
		conn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
		if err != nil {
			return err
		}
		a.MQConn = conn
	}
	return nil
}

// UseAPIKey (re)creates the generator and everything that depends on it, so a
// key entered interactively takes effect without restarting.
func (a *App) UseAPIKey(key string) {
	cfg := a.Config
	cfg.LLM.APIKey = strings.TrimSpace(key)
	a.Generator = ai.NewChatClient(ai.ChatConfig{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: float32(cfg.LLM.Temperature),
	})
	a.Engine = app.NewQueryEngine(a.Store, a.Embedder, a.Generator, app.QueryOptions{
		TopK:    cfg.Index.TopK,
		Timeout: cfg.LLMTimeout(),
		Logger:  a.Logger.With("component", "engine"),
	})
	a.Sessions = app.NewChatSessions(a.Engine, cfg.JWTExpiration())
	a.Pipeline = app.NewIndexPipeline(a.Chunks, a.Indexer, cfg.Paths.DataDir, cfg.Paths.ChunkFile, a.Engine)
}

// LoadIndex loads the index if one exists. A missing index is not fatal: the
// engine retries on the first query.
func (a *App) LoadIndex(ctx context.Context) {
	if err := a.Engine.Load(ctx); err != nil {
		a.Logger.Warn("index not loaded", "store", a.Store.Describe(), "err", err)
	}
}

// StartWorker consumes index build jobs in this process.
func (a *App) StartWorker(ctx context.Context) error {
	if a.MQConn == nil {
		return fmt.Errorf("start index worker failed: rabbitmq url is not configured")
	}
	a.Worker = worker.NewIndexBuildWorker(a.MQConn, a.Pipeline, a.Config.RabbitMQ.IndexJobQueue, a.Logger)
	if err := a.Worker.Start(ctx); err != nil {
		return fmt.Errorf("start index worker failed: %w", err)
	}
	return nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Worker != nil {
		a.Worker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		if err := mysqlClient.Close(a.MySQL); err != nil {
			closeErr = err
		}
	}
	return closeErr
}

// NewEmbedder builds the embedder named by the configuration.
func NewEmbedder(cfg *config.Config) (ai.Embedder, error) {
	switch cfg.Embedding.Provider {
	case config.EmbeddingProviderOpenAI:
		return ai.NewOpenAIEmbedder(ai.EmbeddingConfig{
			BaseURL:   cfg.Embedding.BaseURL,
			APIKey:    cfg.Embedding.APIKey,
			Model:     cfg.Embedding.Model,
			Dimension: cfg.Embedding.Dimension,
		})
	default:
		return ai.NewHashingEmbedder(cfg.Embedding.Dimension)
	}
}
