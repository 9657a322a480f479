package collector

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteSource reads rows from a local SQLite table holding the raw feed,
// one table per symbol unless Table is set.
type SQLiteSource struct {
	Path  string
	Table string
}

func (s *SQLiteSource) Name() string { return "sqlite" }

func (s *SQLiteSource) FetchRows(symbol string) ([]Row, error) {
	table := s.Table
	if table == "" {
		table = symbol
	}
	if !identPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	db, err := sql.Open("sqlite", s.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	q := fmt.Sprintf(`SELECT "Date", "Open", "High", "Low", "Close", "Volume" FROM "%s" ORDER BY rowid`, table)
	rs, err := db.Query(q)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rs.Close()

	var rows []Row
	for rs.Next() {
		var vals [6]sql.NullString
		if err := rs.Scan(&vals[0], &vals[1], &vals[2], &vals[3], &vals[4], &vals[5]); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		row := make(Row, len(Columns))
		for i, col := range Columns {
			row[col] = vals[i].String
		}
		rows = append(rows, row)
	}
	return rows, rs.Err()
}
