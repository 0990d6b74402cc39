// Package apps wires each app into the shared registries at startup:
// permissions, catalog entries, search fields, menus, task queues and
// signal receivers.
package apps

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/localnerve/docsdb/internal/catalog"
	"github.com/localnerve/docsdb/internal/config"
	"github.com/localnerve/docsdb/internal/navigation"
	"github.com/localnerve/docsdb/internal/parsers"
	"github.com/localnerve/docsdb/internal/permissions"
	"github.com/localnerve/docsdb/internal/search"
	"github.com/localnerve/docsdb/internal/services"
	"github.com/localnerve/docsdb/internal/storage"
	"github.com/localnerve/docsdb/internal/tasks"
)

// Menu names
const (
	MenuFacet     = "facet"
	MenuMultiItem = "multi_item"
	MenuObject    = "object"
	MenuSecondary = "secondary"
	MenuTools     = "tools"
)

// Search model names
const (
	SearchDocuments     = "documents.document"
	SearchDocumentPages = "documents.documentpage"
)

// Apps holds the registries and services shared by the apps
type Apps struct {
	Config     *config.Config
	DB         *gorm.DB
	Broker     *tasks.Broker
	Catalog    *catalog.Registry
	Search     *search.Registry
	Navigation *navigation.Registry
	Checker    *permissions.Checker
	Storage    storage.FileStorage
	Parsers    *parsers.Registry

	Documents *services.DocumentService
	Parsing   *services.ParsingService
	Linking   *services.LinkingService

	log *logrus.Entry
}

// New creates the registries and services. Ready must be called before the
// apps are used.
func New(cfg *config.Config, db *gorm.DB, fs storage.FileStorage, broker *tasks.Broker) *Apps {
	reg := catalog.NewRegistry()
	checker := permissions.NewChecker(db)
	parserRegistry := parsers.NewDefaultRegistry()

	a := &Apps{
		Config:     cfg,
		DB:         db,
		Broker:     broker,
		Catalog:    reg,
		Search:     search.NewRegistry(reg),
		Navigation: navigation.NewRegistry(),
		Checker:    checker,
		Storage:    fs,
		Parsers:    parserRegistry,
		log:        logrus.WithField("component", "apps"),
	}
	a.Documents = services.NewDocumentService(db, fs, parserRegistry)
	a.Parsing = services.NewParsingService(db, broker, fs, parserRegistry, a.Documents, services.ParsingOptions{
		SubmitDelay:        cfg.DBSyncTaskDelay,
		AutoParsingDefault: cfg.AutoParsingDefault,
	})
	a.Linking = services.NewLinkingService(db, checker, reg, a.Documents)
	return a
}

// Ready runs the ready step of every app in dependency order
func (a *Apps) Ready() error {
	steps := []struct {
		name  string
		ready func() error
	}{
		{"documents", a.readyDocuments},
		{"document_parsing", a.readyDocumentParsing},
		{"linking", a.readyLinking},
	}
	for _, step := range steps {
		if err := step.ready(); err != nil {
			return errors.Wrapf(err, "app %s", step.name)
		}
		a.log.WithField("app", step.name).Debug("app ready")
	}
	return nil
}

func (a *Apps) menus() (facet, multiItem, object, secondary, tools *navigation.Menu) {
	return a.Navigation.Menu(MenuFacet, "Facet"),
		a.Navigation.Menu(MenuMultiItem, "Multi item"),
		a.Navigation.Menu(MenuObject, "Object"),
		a.Navigation.Menu(MenuSecondary, "Secondary"),
		a.Navigation.Menu(MenuTools, "Tools")
}
