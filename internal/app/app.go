package app

import (
	"errors"

	"go.uber.org/zap"

	"github.com/Serafin06/DeclarationGenerator/internal/catalog"
	"github.com/Serafin06/DeclarationGenerator/internal/config"
	"github.com/Serafin06/DeclarationGenerator/internal/orders"
	"github.com/Serafin06/DeclarationGenerator/internal/pipeline"
	"github.com/Serafin06/DeclarationGenerator/internal/render"
	"github.com/Serafin06/DeclarationGenerator/internal/storage"
)

// App holds the components shared by the CLI and the HTTP server.
type App struct {
	Config   config.Config
	Log      *zap.Logger
	DB       *storage.DB
	Files    *catalog.FileSource
	Catalog  *catalog.Repository
	Orders   orders.Source
	Renderer *render.Renderer
	Service  *pipeline.DeclarationService

	closers []func() error
}

// New opens the local database, selects the catalog source from CATALOG_SOURCE and
// connects to the order database when one is configured.
func New(cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{Config: cfg, Log: log, Files: catalog.NewFileSource(cfg.DataDir)}

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	a.DB = db
	a.closers = append(a.closers, db.Close)

	var src catalog.Source = a.Files
	if cfg.CatalogSource == "sqlite" {
		src = db
	}
	a.Catalog = catalog.NewRepository(src, log.Named("catalog"))

	a.Orders = orders.Disabled{}
	if cfg.OrdersEnabled() {
		sqlSrc, err := orders.Open(cfg)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.Orders = sqlSrc
		a.closers = append(a.closers, sqlSrc.Close)
	} else {
		log.Info("order database not configured; order lookups disabled")
	}

	a.Renderer, err = render.New(cfg.TemplatesDir)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Service = pipeline.NewDeclarationService(a.Catalog, a.Orders, a.Renderer, db, cfg, log.Named("declarations"))
	return a, nil
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
