package cli

import (
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	backend "github.com/redis/go-redis/v9"

	"github.com/cloud8421/recipe"
	"github.com/cloud8421/recipe/pkg/adapters/file"
	loamcatalog "github.com/cloud8421/recipe/pkg/adapters/loam"
	"github.com/cloud8421/recipe/pkg/adapters/memory"
	"github.com/cloud8421/recipe/pkg/adapters/process"
	redisstore "github.com/cloud8421/recipe/pkg/adapters/redis"
	"github.com/cloud8421/recipe/pkg/adapters/sqlite"
	"github.com/cloud8421/recipe/pkg/persistence/middleware"
	"github.com/cloud8421/recipe/pkg/ports"
	"github.com/cloud8421/recipe/pkg/registry"
)

// Options contains the shared engine configuration for CLI commands.
type Options struct {
	CatalogDir string
	StepsPath  string
	Store      string // none, memory, file, sqlite or redis
	StorePath  string
	RedisURL   string
	StoreKey   string   // base64, 32 bytes decoded
	Redact     []string // key patterns masked before save
	Debug      bool

	// EngineOptions are appended to the assembled engine configuration,
	// letting commands attach observers or other extras.
	EngineOptions []recipe.Option
}

// Runtime bundles an engine with the adapters the CLI wired for it, so
// commands can reach the store and catalog directly.
type Runtime struct {
	Engine  *recipe.Engine
	Store   ports.RunStore
	Catalog ports.Loader

	closer io.Closer
}

// Close releases store connections. Safe to call when the configured
// store holds none.
func (rt *Runtime) Close() error {
	if rt.closer == nil {
		return nil
	}
	return rt.closer.Close()
}

// CreateRuntime initializes a recipe engine with standard CLI conventions.
func CreateRuntime(opts Options, logger *slog.Logger) (*Runtime, error) {
	catalog, err := loamcatalog.Open(opts.CatalogDir)
	if err != nil {
		return nil, fmt.Errorf("error opening catalog: %w", err)
	}

	reg := registry.NewRegistry()

	// Smart Convention: a steps.yaml next to the catalog is loaded
	// automatically, so projects get command steps without extra flags.
	stepsPath := opts.StepsPath
	if stepsPath == "" {
		candidate := filepath.Join(opts.CatalogDir, "steps.yaml")
		if _, err := os.Stat(candidate); err == nil {
			stepsPath = candidate
		}
	}
	if stepsPath != "" {
		steps, err := process.LoadSteps(stepsPath)
		if err != nil {
			return nil, fmt.Errorf("error loading steps config: %w", err)
		}
		runner := process.NewRunner(
			process.WithCatalog(steps),
			process.WithBaseDir(filepath.Dir(stepsPath)),
		)
		reg.RegisterAll(runner.Steps())
	}

	store, closer, err := OpenStore(opts)
	if err != nil {
		return nil, err
	}

	engineOpts := []recipe.Option{
		recipe.WithLogger(logger),
		recipe.WithSource(catalog),
		recipe.WithRegistry(reg),
	}
	if store != nil {
		engineOpts = append(engineOpts, recipe.WithStore(store))
	}
	engineOpts = append(engineOpts, opts.EngineOptions...)

	return &Runtime{
		Engine:  recipe.New(engineOpts...),
		Store:   store,
		Catalog: catalog,
		closer:  closer,
	}, nil
}

// OpenStore builds the run store selected by flags, layered with the
// configured persistence middleware. The second return value carries a
// closer for stores that hold connections.
func OpenStore(opts Options) (ports.RunStore, io.Closer, error) {
	store, closer, err := openBackend(opts)
	if err != nil || store == nil {
		return store, closer, err
	}

	secured, err := secureStore(store, opts)
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, nil, err
	}
	return secured, closer, nil
}

func openBackend(opts Options) (ports.RunStore, io.Closer, error) {
	switch opts.Store {
	case "none":
		return nil, nil, nil
	case "memory":
		return memory.NewStore(), nil, nil
	case "", "file":
		path := opts.StorePath
		if path == "" {
			path = filepath.Join(opts.CatalogDir, ".recipe", "runs")
		}
		return file.New(path), nil, nil
	case "sqlite":
		path := opts.StorePath
		if path == "" {
			path = filepath.Join(opts.CatalogDir, ".recipe", "runs.db")
		}
		st, err := sqlite.New(path)
		if err != nil {
			return nil, nil, fmt.Errorf("error opening sqlite store: %w", err)
		}
		return st, st, nil
	case "redis":
		ropts, err := backend.ParseURL(opts.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid redis url: %w", err)
		}
		st := redisstore.NewFromClient(backend.NewClient(ropts))
		return st, st, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q (supported: none, memory, file, sqlite, redis)", opts.Store)
	}
}

// secureStore wraps the backend with value redaction and at-rest
// encryption. Redaction wraps outermost so masked values are what gets
// encrypted. The middleware constructors panic on malformed input, so
// keys and patterns are validated first.
func secureStore(store ports.RunStore, opts Options) (ports.RunStore, error) {
	if opts.StoreKey != "" {
		key, err := base64.StdEncoding.DecodeString(opts.StoreKey)
		if err != nil {
			return nil, fmt.Errorf("invalid store key: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("store key must decode to 32 bytes (AES-256), got %d", len(key))
		}
		store = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})(store)
	}

	if len(opts.Redact) > 0 {
		for _, pattern := range opts.Redact {
			if _, err := regexp.Compile(pattern); err != nil {
				return nil, fmt.Errorf("invalid redact pattern %q: %w", pattern, err)
			}
		}
		store = middleware.NewPIIMiddleware(opts.Redact)(store)
	}

	return store, nil
}
