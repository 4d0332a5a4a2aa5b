// Package persistence provides SQLite-based storage for trait vectors,
// relationship states, experiences, and the drift audit log.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/statecraft/internal/diplomacy"
)

// ErrVersionConflict reports a lost optimistic-concurrency race: the stored
// trait version moved between read and write. Callers retry the whole
// read-modify-write.
var ErrVersionConflict = errors.New("trait version conflict")

// ErrNotFound reports a missing country or pair.
var ErrNotFound = errors.New("not found")

// DB wraps a SQLite connection for engine state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS countries (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		region TEXT NOT NULL,
		traits_json TEXT NOT NULL,
		metrics_json TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS relationship_states (
		pair_key TEXT PRIMARY KEY,
		a_id INTEGER NOT NULL,
		b_id INTEGER NOT NULL,
		state INTEGER NOT NULL,
		strength REAL NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS experiences (
		id TEXT PRIMARY KEY,
		country_id INTEGER NOT NULL,
		kind INTEGER NOT NULL,
		occurred_at INTEGER NOT NULL,
		consumed INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS trait_changes (
		id TEXT PRIMARY KEY,
		country_id INTEGER NOT NULL,
		before_json TEXT NOT NULL,
		after_json TEXT NOT NULL,
		experience_ids_json TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tick INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS engine_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_experiences_country ON experiences(country_id, consumed);
	CREATE INDEX IF NOT EXISTS idx_trait_changes_country ON trait_changes(country_id);
	CREATE INDEX IF NOT EXISTS idx_events_tick ON events(tick);
	CREATE INDEX IF NOT EXISTS idx_relations_a ON relationship_states(a_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// HasCountries reports whether any countries are stored.
func (db *DB) HasCountries() bool {
	var count int
	if err := db.conn.Get(&count, "SELECT COUNT(*) FROM countries"); err != nil {
		return false
	}
	return count > 0
}

// SaveCountry inserts or fully replaces a country row.
func (db *DB) SaveCountry(c *diplomacy.Country) error {
	traitsJSON, _ := json.Marshal(c.Traits)
	metricsJSON, _ := json.Marshal(c.Metrics)

	_, err := db.conn.Exec(`INSERT OR REPLACE INTO countries
		(id, name, region, traits_json, metrics_json, version, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Region, string(traitsJSON), string(metricsJSON),
		c.Version, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("save country %d: %w", c.ID, err)
	}
	return nil
}

// GetCountry loads a single country.
func (db *DB) GetCountry(id diplomacy.CountryID) (*diplomacy.Country, error) {
	var row countryRow
	err := db.conn.Get(&row,
		"SELECT id, name, region, traits_json, metrics_json, version FROM countries WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("country %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get country %d: %w", id, err)
	}
	return row.toCountry()
}

// ListCountries loads all countries ordered by id.
func (db *DB) ListCountries() ([]*diplomacy.Country, error) {
	var rows []countryRow
	err := db.conn.Select(&rows,
		"SELECT id, name, region, traits_json, metrics_json, version FROM countries ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}

	countries := make([]*diplomacy.Country, 0, len(rows))
	for _, row := range rows {
		c, err := row.toCountry()
		if err != nil {
			return nil, err
		}
		countries = append(countries, c)
	}
	return countries, nil
}

type countryRow struct {
	ID          uint64 `db:"id"`
	Name        string `db:"name"`
	Region      string `db:"region"`
	TraitsJSON  string `db:"traits_json"`
	MetricsJSON string `db:"metrics_json"`
	Version     uint64 `db:"version"`
}

func (r countryRow) toCountry() (*diplomacy.Country, error) {
	c := &diplomacy.Country{
		ID:      diplomacy.CountryID(r.ID),
		Name:    r.Name,
		Region:  r.Region,
		Version: r.Version,
	}
	if err := json.Unmarshal([]byte(r.TraitsJSON), &c.Traits); err != nil {
		return nil, fmt.Errorf("decode traits for country %d: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.MetricsJSON), &c.Metrics); err != nil {
		return nil, fmt.Errorf("decode metrics for country %d: %w", r.ID, err)
	}
	return c, nil
}

// UpdateTraits writes a new trait vector for a country, guarded by the
// version the caller read. A stale version returns ErrVersionConflict and
// writes nothing.
func (db *DB) UpdateTraits(id diplomacy.CountryID, traits diplomacy.PersonalityTraits, readVersion uint64) error {
	traitsJSON, _ := json.Marshal(traits)

	res, err := db.conn.Exec(`UPDATE countries
		SET traits_json = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		string(traitsJSON), time.Now().Unix(), id, readVersion,
	)
	if err != nil {
		return fmt.Errorf("update traits for country %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("country %d at version %d: %w", id, readVersion, ErrVersionConflict)
	}
	return nil
}

// UpdateMetrics records the snapshot a refresh was computed from. The trait
// write itself goes through UpdateTraits; metrics carry no version guard.
func (db *DB) UpdateMetrics(id diplomacy.CountryID, m diplomacy.RelationshipMetricsSnapshot) error {
	metricsJSON, _ := json.Marshal(m)

	_, err := db.conn.Exec(
		"UPDATE countries SET metrics_json = ?, updated_at = ? WHERE id = ?",
		string(metricsJSON), time.Now().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("update metrics for country %d: %w", id, err)
	}
	return nil
}

// SaveRelation inserts or replaces a pair's relationship state.
func (db *DB) SaveRelation(p diplomacy.RelationPair) error {
	_, err := db.conn.Exec(`INSERT OR REPLACE INTO relationship_states
		(pair_key, a_id, b_id, state, strength, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.Key(), p.A, p.B, p.State, p.Strength, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("save relation %s: %w", p.Key(), err)
	}
	return nil
}

// GetRelation loads one ordered pair's relationship.
func (db *DB) GetRelation(a, b diplomacy.CountryID) (diplomacy.RelationPair, error) {
	var row relationRow
	err := db.conn.Get(&row,
		"SELECT a_id, b_id, state, strength FROM relationship_states WHERE pair_key = ?",
		diplomacy.PairKey(a, b))
	if errors.Is(err, sql.ErrNoRows) {
		return diplomacy.RelationPair{}, fmt.Errorf("relation %s: %w", diplomacy.PairKey(a, b), ErrNotFound)
	}
	if err != nil {
		return diplomacy.RelationPair{}, fmt.Errorf("get relation: %w", err)
	}
	return row.toPair(), nil
}

// ListRelations loads all stored pairs.
func (db *DB) ListRelations() ([]diplomacy.RelationPair, error) {
	var rows []relationRow
	err := db.conn.Select(&rows,
		"SELECT a_id, b_id, state, strength FROM relationship_states ORDER BY a_id, b_id")
	if err != nil {
		return nil, fmt.Errorf("list relations: %w", err)
	}

	pairs := make([]diplomacy.RelationPair, len(rows))
	for i, row := range rows {
		pairs[i] = row.toPair()
	}
	return pairs, nil
}

type relationRow struct {
	AID      uint64  `db:"a_id"`
	BID      uint64  `db:"b_id"`
	State    uint8   `db:"state"`
	Strength float64 `db:"strength"`
}

func (r relationRow) toPair() diplomacy.RelationPair {
	return diplomacy.RelationPair{
		A:        diplomacy.CountryID(r.AID),
		B:        diplomacy.CountryID(r.BID),
		State:    diplomacy.RelationshipState(r.State),
		Strength: r.Strength,
	}
}

// AddExperience records a drift-relevant event for later consumption.
func (db *DB) AddExperience(e diplomacy.Experience) error {
	_, err := db.conn.Exec(`INSERT OR IGNORE INTO experiences
		(id, country_id, kind, occurred_at, consumed) VALUES (?, ?, ?, ?, 0)`,
		e.ID, e.CountryID, e.Kind, e.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("add experience %s: %w", e.ID, err)
	}
	return nil
}

// PendingExperiences returns a country's unconsumed experiences in
// occurrence order.
func (db *DB) PendingExperiences(id diplomacy.CountryID) ([]diplomacy.Experience, error) {
	var rows []experienceRow
	err := db.conn.Select(&rows,
		`SELECT id, country_id, kind, occurred_at FROM experiences
		 WHERE country_id = ? AND consumed = 0 ORDER BY occurred_at, id`, id)
	if err != nil {
		return nil, fmt.Errorf("pending experiences for country %d: %w", id, err)
	}

	exps := make([]diplomacy.Experience, len(rows))
	for i, row := range rows {
		exps[i] = diplomacy.Experience{
			ID:         row.ID,
			CountryID:  diplomacy.CountryID(row.CountryID),
			Kind:       diplomacy.ExperienceKind(row.Kind),
			OccurredAt: row.OccurredAt,
		}
	}
	return exps, nil
}

type experienceRow struct {
	ID         string `db:"id"`
	CountryID  uint64 `db:"country_id"`
	Kind       uint8  `db:"kind"`
	OccurredAt int64  `db:"occurred_at"`
}

// MarkExperiencesConsumed archives a drift window so it is never replayed.
func (db *DB) MarkExperiencesConsumed(ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex("UPDATE experiences SET consumed = 1 WHERE id = ?")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.Exec(id); err != nil {
			return fmt.Errorf("consume experience %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// TraitChangeRecord is the auditable drift change record handed to the
// external store.
type TraitChangeRecord struct {
	ID            string                      `json:"id"`
	CountryID     diplomacy.CountryID         `json:"country_id"`
	Before        diplomacy.PersonalityTraits `json:"before"`
	After         diplomacy.PersonalityTraits `json:"after"`
	ExperienceIDs []string                    `json:"experience_ids"`
	Timestamp     int64                       `json:"timestamp"`
}

// SaveTraitChange appends a drift audit record.
func (db *DB) SaveTraitChange(rec TraitChangeRecord) error {
	beforeJSON, _ := json.Marshal(rec.Before)
	afterJSON, _ := json.Marshal(rec.After)
	idsJSON, _ := json.Marshal(rec.ExperienceIDs)

	_, err := db.conn.Exec(`INSERT INTO trait_changes
		(id, country_id, before_json, after_json, experience_ids_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CountryID, string(beforeJSON), string(afterJSON), string(idsJSON), rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("save trait change %s: %w", rec.ID, err)
	}
	return nil
}

// TraitChanges returns a country's drift audit trail, most recent first.
func (db *DB) TraitChanges(id diplomacy.CountryID, limit int) ([]TraitChangeRecord, error) {
	var rows []traitChangeRow
	err := db.conn.Select(&rows,
		`SELECT id, country_id, before_json, after_json, experience_ids_json, created_at
		 FROM trait_changes WHERE country_id = ? ORDER BY created_at DESC LIMIT ?`, id, limit)
	if err != nil {
		return nil, fmt.Errorf("trait changes for country %d: %w", id, err)
	}

	recs := make([]TraitChangeRecord, 0, len(rows))
	for _, row := range rows {
		rec := TraitChangeRecord{
			ID:        row.ID,
			CountryID: diplomacy.CountryID(row.CountryID),
			Timestamp: row.CreatedAt,
		}
		if err := json.Unmarshal([]byte(row.BeforeJSON), &rec.Before); err != nil {
			return nil, fmt.Errorf("decode trait change %s: %w", row.ID, err)
		}
		if err := json.Unmarshal([]byte(row.AfterJSON), &rec.After); err != nil {
			return nil, fmt.Errorf("decode trait change %s: %w", row.ID, err)
		}
		if err := json.Unmarshal([]byte(row.IDsJSON), &rec.ExperienceIDs); err != nil {
			return nil, fmt.Errorf("decode trait change %s: %w", row.ID, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

type traitChangeRow struct {
	ID         string `db:"id"`
	CountryID  uint64 `db:"country_id"`
	BeforeJSON string `db:"before_json"`
	AfterJSON  string `db:"after_json"`
	IDsJSON    string `db:"experience_ids_json"`
	CreatedAt  int64  `db:"created_at"`
}

// Event mirrors the engine's event record for storage.
type Event struct {
	Tick        uint64 `db:"tick" json:"tick"`
	Description string `db:"description" json:"description"`
	Category    string `db:"category" json:"category"`
}

// SaveEvents appends events to the database.
func (db *DB) SaveEvents(events []Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO events (tick, description, category) VALUES (?, ?, ?)",
			e.Tick, e.Description, e.Category,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecentEvents returns the most recent N events.
func (db *DB) RecentEvents(limit int) ([]Event, error) {
	var events []Event
	err := db.conn.Select(&events,
		"SELECT tick, description, category FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	return events, err
}

// SaveMeta stores a key-value pair in engine metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO engine_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM engine_meta WHERE key = ?", key)
	return value, err
}

// SaveAll persists the full set of countries and relations in one pass.
func (db *DB) SaveAll(countries []*diplomacy.Country, relations []diplomacy.RelationPair) error {
	slog.Info("saving engine state", "countries", len(countries), "relations", len(relations))

	for _, c := range countries {
		if err := db.SaveCountry(c); err != nil {
			return err
		}
	}
	for _, p := range relations {
		if err := db.SaveRelation(p); err != nil {
			return err
		}
	}

	return nil
}
