// Package factory opens the tabular store named by STORE_DRIVER
package factory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"likert/internal/adapters/tabular"
	"likert/internal/adapters/tabular/csvfile"
	"likert/internal/adapters/tabular/memory"
	"likert/internal/adapters/tabular/pgtable"
	"likert/internal/adapters/tabular/s3object"
	"likert/internal/adapters/tabular/sheets"
	"likert/internal/platform/config"
	"likert/internal/platform/logger"
	"likert/internal/platform/store"
)

// DefaultCSVPath is where the csv driver writes when CSV_PATH is unset
const DefaultCSVPath = "data/responses.csv"

// Config selects a driver and carries the settings of every driver
type Config struct {
	Driver  tabular.Driver
	AppName string
	CSVPath string
	S3      s3object.Config
	Sheets  sheets.Config
	PG      store.Config
	PGTable string
}

// FromEnv reads driver settings below c, which is normally the LIKERT_ view
func FromEnv(c config.Conf) Config {
	s3c := c.Prefix("S3_")
	shc := c.Prefix("SHEETS_")
	pgc := c.Prefix("PG_")

	cfg := Config{
		Driver:  tabular.Driver(strings.ToLower(c.MayString("STORE_DRIVER", string(tabular.DriverCSV)))),
		AppName: c.MayString("APP_NAME", "likert"),
		CSVPath: c.MayString("CSV_PATH", DefaultCSVPath),
		S3: s3object.Config{
			Bucket:          s3c.MayString("BUCKET", ""),
			Key:             s3c.MayString("KEY", s3object.DefaultKey),
			Region:          s3c.MayString("REGION", ""),
			Endpoint:        s3c.MayString("ENDPOINT", ""),
			PathStyle:       s3c.MayBool("PATH_STYLE", false),
			Conditional:     s3c.MayBool("CONDITIONAL", true),
			AccessKeyID:     s3c.MayString("ACCESS_KEY_ID", ""),
			SecretAccessKey: s3c.MaySecret("SECRET_ACCESS_KEY", ""),
			SessionToken:    s3c.MaySecret("SESSION_TOKEN", ""),
		},
		Sheets: sheets.Config{
			SpreadsheetID:   shc.MayString("ID", ""),
			Sheet:           shc.MayString("RANGE", sheets.DefaultSheet),
			CredentialsFile: shc.MayString("CREDENTIALS_FILE", ""),
		},
		PG: store.Config{
			URL:      pgc.MaySecret("DBURL", ""),
			MaxConns: int32(pgc.MayInt("MAX_CONNS", 4)),
			LogSQL:   pgc.MayBool("LOG_SQL", false),
			SlowMs:   pgc.MayInt("SLOW_MS", 200),
		},
		PGTable: pgc.MayString("TABLE", pgtable.DefaultTable),
	}
	if js := shc.MaySecret("CREDENTIALS_JSON", ""); js != "" {
		cfg.Sheets.CredentialsJSON = []byte(js)
	}
	return cfg
}

// Closer releases whatever Open acquired
type Closer func(context.Context) error

func noClose(context.Context) error { return nil }

// Open builds the configured adapter. The pg driver opens the pool and creates its
// tables; every other driver holds no resources
func Open(ctx context.Context, cfg Config, log logger.Logger) (tabular.Adapter, Closer, error) {
	log = log.With().Str("store", string(cfg.Driver)).Logger()

	switch cfg.Driver {
	case tabular.DriverMemory:
		log.Warn().Msg("memory store: responses are lost on restart")
		return memory.New(), noClose, nil

	case tabular.DriverCSV:
		if dir := filepath.Dir(cfg.CSVPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("csv dir: %w", err)
			}
		}
		log.Info().Str("path", cfg.CSVPath).Msg("csv store")
		return csvfile.New(cfg.CSVPath), noClose, nil

	case tabular.DriverS3:
		a, err := s3object.New(ctx, cfg.S3)
		if err != nil {
			return nil, nil, fmt.Errorf("s3 store: %w", err)
		}
		log.Info().Str("bucket", cfg.S3.Bucket).Str("key", cfg.S3.Key).Bool("conditional", cfg.S3.Conditional).Msg("s3 store")
		return a, noClose, nil

	case tabular.DriverSheets:
		a, err := sheets.New(ctx, cfg.Sheets)
		if err != nil {
			return nil, nil, fmt.Errorf("sheets store: %w", err)
		}
		log.Info().Str("sheet", cfg.Sheets.Sheet).Msg("sheets store")
		return a, noClose, nil

	case tabular.DriverPG:
		pg := cfg.PG
		if pg.URL == "" {
			return nil, nil, fmt.Errorf("pg store: PG_DBURL required")
		}
		if pg.AppName == "" {
			pg.AppName = cfg.AppName
		}
		db, err := store.Open(ctx, pg, log)
		if err != nil {
			return nil, nil, fmt.Errorf("pg store: %w", err)
		}
		a := pgtable.New(db, cfg.PGTable)
		if err := a.EnsureSchema(ctx); err != nil {
			_ = db.Close(ctx)
			return nil, nil, fmt.Errorf("pg store: %w", err)
		}
		log.Info().Str("table", cfg.PGTable).Msg("pg store")
		return a, db.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q (want one of %s)", cfg.Driver, strings.Join(tabular.Drivers(), ", "))
}
