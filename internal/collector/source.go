package collector

import "fmt"

// SourceConfig selects and configures a row source.
type SourceConfig struct {
	Kind    string // sqlite, rest, yahoo, parquet, csv, mock
	Path    string
	Table   string
	BaseURL string
	APIKey  string
	Range   string
	Proxy   string
}

// NewSource builds the Source named by cfg.Kind.
func NewSource(cfg SourceConfig) (Source, error) {
	switch cfg.Kind {
	case "sqlite":
		return &SQLiteSource{Path: cfg.Path, Table: cfg.Table}, nil
	case "rest":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("rest source requires a base url")
		}
		return NewRESTSource(cfg.BaseURL, cfg.APIKey, cfg.Table, cfg.Proxy), nil
	case "yahoo":
		return NewYahooSource(cfg.Range, cfg.Proxy), nil
	case "parquet":
		return &ParquetSource{Path: cfg.Path}, nil
	case "csv":
		return &CSVSource{Path: cfg.Path}, nil
	case "mock", "":
		return &MockSource{}, nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}
}
