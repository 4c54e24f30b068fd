package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"nanpa/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

const prefixesSchema = `
CREATE TABLE prefixes (
  prefix TEXT PRIMARY KEY,
  ocn TEXT,
  company TEXT,
  company_original TEXT,
  carrier TEXT,
  type TEXT,
  rate_center TEXT,
  city TEXT,
  state TEXT,
  last_source TEXT
)`

const prefixColumns = `prefix, ocn, company, company_original, carrier, type, rate_center, city, state, last_source`

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  timingsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`
	if _, err := d.conn.Exec(schema); err != nil {
		return err
	}
	var exists int
	err := d.conn.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'prefixes'`).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		_, err = d.conn.Exec(prefixesSchema)
	}
	return err
}

// ReplacePrefixes drops and recreates the prefixes table and loads the
// dataset in prefix order, all in one transaction.
func (d *DB) ReplacePrefixes(data internal.Dataset) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DROP TABLE IF EXISTS prefixes`); err != nil {
		return err
	}
	if _, err := tx.Exec(prefixesSchema); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO prefixes (` + prefixColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		r := data[k]
		if _, err := stmt.Exec(
			r.Prefix, r.OCN, r.Company, r.CompanyOriginal, r.Carrier,
			string(r.Type), r.RateCenter, r.City, r.State, r.LastSource,
		); err != nil {
			return fmt.Errorf("insert %s: %w", r.Prefix, err)
		}
	}

	return tx.Commit()
}

func (d *DB) GetPrefix(prefix string) (*internal.PrefixRecord, error) {
	row := d.conn.QueryRow(`SELECT `+prefixColumns+` FROM prefixes WHERE prefix = ?`, prefix)
	rec, err := scanPrefix(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (d *DB) ListPrefixes() ([]internal.PrefixRecord, error) {
	rows, err := d.conn.Query(`SELECT ` + prefixColumns + ` FROM prefixes ORDER BY prefix`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.PrefixRecord
	for rows.Next() {
		rec, err := scanPrefix(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CountByType returns the stored histogram; blank types are keyed by "".
func (d *DB) CountByType() (map[internal.ServiceType]int, error) {
	rows, err := d.conn.Query(`SELECT COALESCE(type, ''), COUNT(*) FROM prefixes GROUP BY COALESCE(type, '')`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[internal.ServiceType]int{}
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		out[internal.ServiceType(t)] = n
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPrefix(s scanner) (internal.PrefixRecord, error) {
	var r internal.PrefixRecord
	var ocn, company, original, carrier, typ, rateCenter, city, state, source sql.NullString
	if err := s.Scan(&r.Prefix, &ocn, &company, &original, &carrier, &typ, &rateCenter, &city, &state, &source); err != nil {
		return r, err
	}
	r.OCN = ocn.String
	r.Company = company.String
	r.CompanyOriginal = original.String
	r.Carrier = carrier.String
	r.Type = internal.ServiceType(typ.String)
	r.RateCenter = rateCenter.String
	r.City = city.String
	r.State = state.String
	r.LastSource = source.String
	return r, nil
}

func (d *DB) InsertRun(traceID string, timings map[string]float64, counts map[string]int) error {
	timingsJSON, _ := json.Marshal(timings)
	countsJSON, _ := json.Marshal(counts)
	_, err := d.conn.Exec(`INSERT INTO runs (traceId, timingsJson, countsJson) VALUES (?, ?, ?)`, traceID, string(timingsJSON), string(countsJSON))
	return err
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
