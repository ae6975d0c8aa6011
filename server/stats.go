package server

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/burbokop/fast-pased-mp-game/game"
)

// StatsDB persists the frag log. The world itself is never persisted, a
// restarted server starts an empty arena; only aggregate bookkeeping
// survives.
type StatsDB struct {
	conn *sql.DB
}

// OpenStatsDB opens (creating if needed) the stats database at path.
func OpenStatsDB(path string) (*StatsDB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open stats db: %w", err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	db := &StatsDB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func (db *StatsDB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS frags (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		killer_id INTEGER NOT NULL,
		victim_id INTEGER NOT NULL,
		weapon TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_frags_killer ON frags(killer_id);
	CREATE INDEX IF NOT EXISTS idx_frags_victim ON frags(victim_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

func (db *StatsDB) Close() error {
	return db.conn.Close()
}

// InsertFrags writes a batch of lethal hits in a single transaction.
func (db *StatsDB) InsertFrags(frags []game.Frag) error {
	if len(frags) == 0 {
		return nil
	}
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO frags (killer_id, victim_id, weapon, created_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, f := range frags {
		if _, err := stmt.Exec(f.KillerID, f.VictimID, string(f.Weapon), f.At.UTC().Format(time.RFC3339)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LeaderboardEntry is one row of the kill leaderboard.
type LeaderboardEntry struct {
	PlayerID uint64 `json:"player_id"`
	Kills    int    `json:"kills"`
	Deaths   int    `json:"deaths"`
}

// Leaderboard returns the top killers with their death counts.
func (db *StatsDB) Leaderboard(limit int) ([]LeaderboardEntry, error) {
	rows, err := db.conn.Query(`
		SELECT killer_id, COUNT(*) AS kills,
			(SELECT COUNT(*) FROM frags d WHERE d.victim_id = f.killer_id) AS deaths
		FROM frags f
		GROUP BY killer_id
		ORDER BY kills DESC, killer_id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.PlayerID, &e.Kills, &e.Deaths); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// WeaponUsage returns how many frags each projectile kind scored.
func (db *StatsDB) WeaponUsage() (map[string]int, error) {
	rows, err := db.conn.Query(`
		SELECT weapon, COUNT(*) FROM frags
		GROUP BY weapon ORDER BY COUNT(*) DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var weapon string
		var count int
		if err := rows.Scan(&weapon, &count); err != nil {
			return nil, err
		}
		result[weapon] = count
	}
	return result, rows.Err()
}
