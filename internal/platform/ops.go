package platform

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/aretw0/dusk/pkg/adapters/fs"
	"github.com/aretw0/dusk/pkg/adapters/memory"
	"github.com/aretw0/dusk/pkg/adapters/pebble"
	"github.com/aretw0/dusk/pkg/adapters/sqlite"
	"github.com/aretw0/dusk/pkg/core"
)

const (
	pebbleDir  = "pebble"
	sqliteFile = "dusk.db"
)

// Init opens the storage selected by the options. The uri is the data
// directory; the pebble and sqlite adapters keep their files inside it.
func Init(ctx context.Context, uri string, opts ...Option) (core.Storage, error) {
	o := defaultOptions().apply(opts)
	return openStorage(ctx, uri, o)
}

func openStorage(ctx context.Context, uri string, o *options) (core.Storage, error) {
	if o.storage != nil {
		return o.storage, nil
	}
	if o.adapter == AdapterMemory {
		o.logger.Debug("using in-memory storage; nothing will be persisted")
		return memory.New(), nil
	}

	path := resolvePath(uri, o)

	switch o.adapter {
	case AdapterFS:
		s := fs.New(fs.Config{
			Path:         path,
			AutoInit:     o.autoInit,
			ReadOnly:     o.readOnly,
			Logger:       o.logger,
			ErrorHandler: o.errorHandler,
		})
		if err := s.Initialize(ctx); err != nil {
			return nil, err
		}
		return s, nil
	case AdapterPebble:
		return pebble.Open(filepath.Join(path, pebbleDir), pebble.WithLogger(o.logger))
	case AdapterSQLite:
		return sqlite.Open(ctx, filepath.Join(path, sqliteFile), sqlite.WithLogger(o.logger))
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}
}

// resolvePath applies the dev sandbox. Read-only runs and an explicit
// WithDevSafety(false) bypass it.
func resolvePath(uri string, o *options) string {
	bypass := o.readOnly || !o.devSafety
	dev := IsDevRun()
	useTemp := o.forceTemp || (dev && !bypass)
	path := ResolveDataPath(uri, useTemp)

	switch {
	case useTemp:
		o.logger.Warn("running in SAFE MODE (dev/test)", "original_path", uri, "resolved_path", path)
	case dev && o.readOnly:
		o.logger.Debug("running in READ-ONLY mode (bypassing dev sandbox)", "path", path)
	case dev:
		o.logger.Warn("running in UNSAFE mode (bypassing dev sandbox)", "path", path)
	}
	return path
}
