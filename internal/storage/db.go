package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Serafin06/DeclarationGenerator/internal"
	"github.com/Serafin06/DeclarationGenerator/internal/catalog"
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
		return nil, err
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

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS materials (
  name TEXT PRIMARY KEY,
  position INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS manifests (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  material TEXT NOT NULL,
  position INTEGER NOT NULL,
  supplier TEXT NOT NULL,
  updatedAt TEXT,
  FOREIGN KEY(material) REFERENCES materials(name)
);
CREATE INDEX IF NOT EXISTS idx_manifests_material ON manifests(material);

CREATE TABLE IF NOT EXISTS manifest_sml (
  manifestId INTEGER NOT NULL,
  position INTEGER NOT NULL,
  substanceId TEXT NOT NULL,
  value REAL NOT NULL,
  FOREIGN KEY(manifestId) REFERENCES manifests(id)
);

CREATE TABLE IF NOT EXISTS manifest_dual_use (
  manifestId INTEGER NOT NULL,
  position INTEGER NOT NULL,
  substanceId TEXT NOT NULL,
  FOREIGN KEY(manifestId) REFERENCES manifests(id)
);

CREATE TABLE IF NOT EXISTS substances (
  id TEXT PRIMARY KEY,
  cas TEXT NOT NULL DEFAULT '',
  nameEn TEXT NOT NULL DEFAULT '',
  namePl TEXT NOT NULL DEFAULT '',
  refNo TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS dual_use (
  id TEXT PRIMARY KEY,
  cas TEXT NOT NULL DEFAULT '',
  nameEn TEXT NOT NULL DEFAULT '',
  namePl TEXT NOT NULL DEFAULT '',
  eSymbol TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS texts (
  lang TEXT NOT NULL,
  key TEXT NOT NULL,
  valueJson TEXT NOT NULL,
  PRIMARY KEY(lang, key)
);

CREATE TABLE IF NOT EXISTS generations (
  id TEXT PRIMARY KEY,
  type TEXT NOT NULL,
  language TEXT NOT NULL,
  structure TEXT NOT NULL,
  product TEXT NOT NULL,
  substanceCount INTEGER NOT NULL,
  dualUseCount INTEGER NOT NULL,
  warnings INTEGER NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_generations_createdAt ON generations(createdAt);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// ReplaceCatalog swaps the stored catalog for data in one transaction.
func (d *DB) ReplaceCatalog(ctx context.Context, data *catalog.Data) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"manifest_sml", "manifest_dual_use", "manifests", "materials", "substances", "dual_use", "texts"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for pos, name := range data.MaterialNames() {
		if _, err := tx.ExecContext(ctx, `INSERT INTO materials (name, position) VALUES (?, ?)`, name, pos); err != nil {
			return err
		}
		for mpos, m := range data.Manifests(name) {
			res, err := tx.ExecContext(ctx, `INSERT INTO manifests (material, position, supplier, updatedAt) VALUES (?, ?, ?, ?)`,
				name, mpos, m.Supplier, m.UpdatedAt)
			if err != nil {
				return err
			}
			manifestID, err := res.LastInsertId()
			if err != nil {
				return err
			}
			for i, e := range m.SML {
				if _, err := tx.ExecContext(ctx, `INSERT INTO manifest_sml (manifestId, position, substanceId, value) VALUES (?, ?, ?, ?)`,
					manifestID, i, e.SubstanceID, e.Value); err != nil {
					return err
				}
			}
			for i, id := range m.DualUse {
				if _, err := tx.ExecContext(ctx, `INSERT INTO manifest_dual_use (manifestId, position, substanceId) VALUES (?, ?, ?)`,
					manifestID, i, id); err != nil {
					return err
				}
			}
		}
	}

	for id, s := range data.Substances {
		if _, err := tx.ExecContext(ctx, `INSERT INTO substances (id, cas, nameEn, namePl, refNo) VALUES (?, ?, ?, ?, ?)`,
			id, s.CAS, s.NameEN, s.NamePL, s.RefNo); err != nil {
			return err
		}
	}
	for id, r := range data.DualUse {
		if _, err := tx.ExecContext(ctx, `INSERT INTO dual_use (id, cas, nameEn, namePl, eSymbol) VALUES (?, ?, ?, ?, ?)`,
			id, r.CAS, r.NameEN, r.NamePL, r.ESymbol); err != nil {
			return err
		}
	}
	for lang, texts := range data.Texts {
		for key, value := range texts {
			raw, err := json.Marshal(value)
			if err != nil {
				return fmt.Errorf("encode text %s/%s: %w", lang, key, err)
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO texts (lang, key, valueJson) VALUES (?, ?, ?)`, lang, key, string(raw)); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// Load reads the stored catalog, so the database can back a catalog.Repository.
func (d *DB) Load(ctx context.Context) (*catalog.Data, error) {
	data := catalog.NewData()

	rows, err := d.conn.QueryContext(ctx, `SELECT name FROM materials ORDER BY position`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, err
		}
		data.Materials[name] = []internal.SupplierManifest{}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	type manifestRef struct {
		material string
		index    int
	}
	byID := map[int64]manifestRef{}

	rows, err = d.conn.QueryContext(ctx, `SELECT id, material, supplier, COALESCE(updatedAt, '') FROM manifests ORDER BY material, position`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var (
			id  int64
			mat string
			m   internal.SupplierManifest
		)
		if err := rows.Scan(&id, &mat, &m.Supplier, &m.UpdatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		m.SML = []internal.SMLEntry{}
		m.DualUse = []string{}
		data.Materials[mat] = append(data.Materials[mat], m)
		byID[id] = manifestRef{material: mat, index: len(data.Materials[mat]) - 1}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = d.conn.QueryContext(ctx, `SELECT manifestId, substanceId, value FROM manifest_sml ORDER BY manifestId, position`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var (
			id int64
			e  internal.SMLEntry
		)
		if err := rows.Scan(&id, &e.SubstanceID, &e.Value); err != nil {
			rows.Close()
			return nil, err
		}
		if ref, ok := byID[id]; ok {
			m := &data.Materials[ref.material][ref.index]
			m.SML = append(m.SML, e)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = d.conn.QueryContext(ctx, `SELECT manifestId, substanceId FROM manifest_dual_use ORDER BY manifestId, position`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var (
			id  int64
			sid string
		)
		if err := rows.Scan(&id, &sid); err != nil {
			rows.Close()
			return nil, err
		}
		if ref, ok := byID[id]; ok {
			m := &data.Materials[ref.material][ref.index]
			m.DualUse = append(m.DualUse, sid)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := d.loadRegistries(ctx, data); err != nil {
		return nil, err
	}

	data.LoadedAt = time.Now().UTC()
	return data, nil
}

func (d *DB) loadRegistries(ctx context.Context, data *catalog.Data) error {
	rows, err := d.conn.QueryContext(ctx, `SELECT id, cas, nameEn, namePl, refNo FROM substances`)
	if err != nil {
		return err
	}
	for rows.Next() {
		var (
			id string
			s  internal.SubstanceRecord
		)
		if err := rows.Scan(&id, &s.CAS, &s.NameEN, &s.NamePL, &s.RefNo); err != nil {
			rows.Close()
			return err
		}
		data.Substances[id] = s
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = d.conn.QueryContext(ctx, `SELECT id, cas, nameEn, namePl, eSymbol FROM dual_use`)
	if err != nil {
		return err
	}
	for rows.Next() {
		var (
			id string
			r  internal.DualUseRecord
		)
		if err := rows.Scan(&id, &r.CAS, &r.NameEN, &r.NamePL, &r.ESymbol); err != nil {
			rows.Close()
			return err
		}
		data.DualUse[id] = r
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = d.conn.QueryContext(ctx, `SELECT lang, key, valueJson FROM texts`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var lang, key, raw string
		if err := rows.Scan(&lang, &key, &raw); err != nil {
			return err
		}
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			return fmt.Errorf("decode text %s/%s: %w", lang, key, err)
		}
		if data.Texts[lang] == nil {
			data.Texts[lang] = map[string]any{}
		}
		data.Texts[lang][key] = value
	}
	return rows.Err()
}

func (d *DB) InsertGeneration(ctx context.Context, g internal.GenerationRow) error {
	_, err := d.conn.ExecContext(ctx, `
INSERT INTO generations (id, type, language, structure, product, substanceCount, dualUseCount, warnings, createdAt)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, COALESCE(NULLIF(?, ''), CURRENT_TIMESTAMP))
`, g.ID, g.Type, g.Language, g.Structure, g.Product, g.SubstanceCount, g.DualUseCount, g.Warnings, g.CreatedAt)
	return err
}

// ListGenerations returns the most recent generation records first.
func (d *DB) ListGenerations(ctx context.Context, limit int) ([]internal.GenerationRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.conn.QueryContext(ctx, `
SELECT id, type, language, structure, product, substanceCount, dualUseCount, warnings, createdAt
FROM generations
ORDER BY createdAt DESC, rowid DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.GenerationRow
	for rows.Next() {
		var g internal.GenerationRow
		if err := rows.Scan(&g.ID, &g.Type, &g.Language, &g.Structure, &g.Product, &g.SubstanceCount, &g.DualUseCount, &g.Warnings, &g.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (d *DB) Ping(ctx context.Context) error {
	return d.conn.PingContext(ctx)
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
