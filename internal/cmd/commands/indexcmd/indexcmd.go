// Package indexcmd implements "stacdex index": discover metadata
// documents under an object-storage location pattern and register them
// as datasets in the catalog.
package indexcmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/datacube-forge/stacdex/internal/cmd/base"
	"github.com/datacube-forge/stacdex/internal/config"
	catalogdb "github.com/datacube-forge/stacdex/pkg/catalog/db"
	"github.com/datacube-forge/stacdex/pkg/indexer"
	"github.com/datacube-forge/stacdex/pkg/store"
	"github.com/datacube-forge/stacdex/pkg/store/gcs"
	"github.com/datacube-forge/stacdex/pkg/store/local"
	s3store "github.com/datacube-forge/stacdex/pkg/store/s3"
)

type Command struct {
	*base.Command

	flagConfig          string
	flagCatalogDriver   string
	flagCatalogDSN      string
	flagUpdateIfExists  bool
	flagAllowUnsafe     bool
	flagTolerateUnsafe  bool
	flagDryRun          bool
	flagWorkers         int
	flagNoSignRequest   bool
	flagEndpoint        string
	flagRegion          string
	flagMaxObjectSizeMB int

	// Pool settings come from the config file only.
	maxIdleConns int
	maxOpenConns int
}

func (c *Command) Synopsis() string {
	return "Index metadata documents from object storage into the catalog"
}

func (c *Command) Help() string {
	return `Usage: stacdex index [options] <location-pattern> <product> [product...]

  Enumerate metadata documents matching the location pattern, parse and
  validate each one, and add or update the corresponding dataset records
  in the catalog. STAC item JSON (*.json) and EO3 metadata YAML
  (*.yaml) documents are both accepted.

  The location pattern is an object-store URI whose path segments may
  contain glob wildcards, e.g.

    stacdex index 's3://bucket/wapor/**/*.stac-item.json' wapor_soil_moisture

  Re-running over an unmodified document set performs zero catalog
  writes.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("index", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "",
		"Path to an HCL configuration file",
	)
	f.StringVar(
		&c.flagCatalogDriver, "catalog-driver", "",
		"[STACDEX_CATALOG_DRIVER] Catalog database driver (postgres or sqlite)",
	)
	f.StringVar(
		&c.flagCatalogDSN, "catalog-dsn", "",
		"[STACDEX_CATALOG_DSN] Catalog database connection string",
	)
	f.BoolVar(
		&c.flagUpdateIfExists, "update-if-exists", false,
		"Update existing datasets instead of failing on changed documents",
	)
	f.BoolVar(
		&c.flagAllowUnsafe, "allow-unsafe", false,
		"Permit updates that change identity-relevant fields",
	)
	f.BoolVar(
		&c.flagTolerateUnsafe, "tolerate-unsafe", false,
		"Exit zero even when unsafe changes were skipped",
	)
	f.BoolVar(
		&c.flagDryRun, "dry-run", false,
		"Report the decisions that would be made without writing to the catalog",
	)
	f.IntVar(
		&c.flagWorkers, "workers", indexer.DefaultWorkers,
		"Number of documents processed concurrently",
	)
	f.BoolVar(
		&c.flagNoSignRequest, "no-sign-request", false,
		"Access the object store anonymously (public buckets)",
	)
	f.StringVar(
		&c.flagEndpoint, "endpoint", "",
		"[AWS_S3_ENDPOINT] Custom S3-compatible endpoint",
	)
	f.StringVar(
		&c.flagRegion, "region", "",
		"[AWS_REGION] S3 region",
	)
	f.IntVar(
		&c.flagMaxObjectSizeMB, "max-object-size-mb", 0,
		"Per-document size ceiling in MiB (default 64)",
	)

	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return indexer.ExitFatal
	}

	rest := f.Args()
	if len(rest) < 2 {
		c.UI.Error("a location pattern and at least one product are required")
		c.UI.Error(c.Help())
		return indexer.ExitFatal
	}
	rawPattern, products := rest[0], rest[1:]

	// Environment fallback for flags not set on the command line.
	if c.flagCatalogDriver == "" {
		c.flagCatalogDriver = os.Getenv("STACDEX_CATALOG_DRIVER")
	}
	if c.flagCatalogDSN == "" {
		c.flagCatalogDSN = os.Getenv("STACDEX_CATALOG_DSN")
	}
	if c.flagEndpoint == "" {
		c.flagEndpoint = os.Getenv("AWS_S3_ENDPOINT")
	}
	if c.flagRegion == "" {
		c.flagRegion = os.Getenv("AWS_REGION")
	}

	// Config file fills whatever is still unset.
	if c.flagConfig != "" {
		cfg, err := config.Load(c.flagConfig)
		if err != nil {
			c.UI.Error(err.Error())
			return indexer.ExitFatal
		}
		c.applyConfig(cfg)
	}

	if c.flagCatalogDSN == "" {
		c.UI.Error("catalog DSN is required (-catalog-dsn or STACDEX_CATALOG_DSN)")
		return indexer.ExitFatal
	}

	pattern, err := store.ParsePattern(rawPattern)
	if err != nil {
		c.UI.Error(err.Error())
		return indexer.ExitFatal
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st, err := c.buildStore(ctx, pattern)
	if err != nil {
		c.UI.Error(err.Error())
		return indexer.ExitFatal
	}

	gdb, err := catalogdb.Connect(catalogdb.Config{
		Driver:       c.flagCatalogDriver,
		DSN:          c.flagCatalogDSN,
		MaxIdleConns: c.maxIdleConns,
		MaxOpenConns: c.maxOpenConns,
	}, c.Log)
	if err != nil {
		c.UI.Error(fmt.Sprintf("connecting to catalog: %v", err))
		return indexer.ExitFatal
	}
	cat := catalogdb.NewClient(gdb, c.Log)

	fetcherCfg := store.FetcherConfig{}
	if c.flagMaxObjectSizeMB > 0 {
		fetcherCfg.MaxObjectSize = int64(c.flagMaxObjectSizeMB) << 20
	}

	orch, err := indexer.NewOrchestrator(
		indexer.WithResolver(store.NewResolver(st, pattern, c.Log)),
		indexer.WithFetcher(store.NewFetcher(st, fetcherCfg, c.Log)),
		indexer.WithCatalog(cat),
		indexer.WithLogger(c.Log),
		indexer.WithWorkers(c.flagWorkers),
		indexer.WithProducts(products...),
		indexer.WithUpdateIfExists(c.flagUpdateIfExists),
		indexer.WithAllowUnsafe(c.flagAllowUnsafe),
		indexer.WithDryRun(c.flagDryRun),
	)
	if err != nil {
		c.UI.Error(err.Error())
		return indexer.ExitFatal
	}

	summary, runErr := orch.Run(ctx)

	reporter := &indexer.Reporter{TolerateUnsafe: c.flagTolerateUnsafe}
	reporter.Report(os.Stdout, summary)

	switch {
	case runErr == nil:
		return reporter.ExitCode(summary)
	case errors.Is(runErr, context.Canceled):
		c.UI.Warn("run interrupted")
		return indexer.ExitFailures
	default:
		c.UI.Error(runErr.Error())
		return indexer.ExitFatal
	}
}

// applyConfig fills flag values that are still unset from the config
// file.
func (c *Command) applyConfig(cfg *config.Config) {
	if cfg.Catalog != nil {
		if c.flagCatalogDriver == "" {
			c.flagCatalogDriver = cfg.Catalog.Driver
		}
		if c.flagCatalogDSN == "" {
			c.flagCatalogDSN = cfg.Catalog.DSN
		}
		c.maxIdleConns = cfg.Catalog.MaxIdleConns
		c.maxOpenConns = cfg.Catalog.MaxOpenConns
	}
	if cfg.Store != nil {
		if c.flagEndpoint == "" {
			c.flagEndpoint = cfg.Store.Endpoint
		}
		if c.flagRegion == "" {
			c.flagRegion = cfg.Store.Region
		}
		if !c.flagNoSignRequest {
			c.flagNoSignRequest = cfg.Store.NoSignRequest
		}
		if c.flagMaxObjectSizeMB == 0 {
			c.flagMaxObjectSizeMB = cfg.Store.MaxObjectSizeMB
		}
	}
}

// buildStore creates the object-store backend the pattern addresses.
func (c *Command) buildStore(ctx context.Context, pattern *store.Pattern) (store.Store, error) {
	switch pattern.Scheme() {
	case store.SchemeS3:
		return s3store.New(ctx, s3store.Config{
			Bucket:        pattern.Bucket(),
			Region:        c.flagRegion,
			Endpoint:      c.flagEndpoint,
			NoSignRequest: c.flagNoSignRequest,
		}, c.Log)
	case store.SchemeGCS:
		return gcs.New(ctx, gcs.Config{
			Bucket:    pattern.Bucket(),
			Anonymous: c.flagNoSignRequest,
		}, c.Log)
	default:
		return local.New(c.Log), nil
	}
}
