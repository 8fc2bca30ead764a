// Package db persists episode and streaming telemetry in sqlite and exposes
// the admin debugging surface over the same database.
package db

import (
	"compress/gzip"
	"database/sql"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"
)

type DB struct {
	*sql.DB
}

// NewDB opens (or creates) the sqlite database at path and brings its schema
// up to date.
func NewDB(path string) (*DB, error) {
	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// WAL keeps the admin read surface from blocking telemetry writes.
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := sqldb.Exec(pragma); err != nil {
			sqldb.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	db := &DB{sqldb}
	if err := db.MigrateUp(); err != nil {
		sqldb.Close()
		return nil, err
	}
	return db, nil
}

// Episode is one persisted episode row.
type Episode struct {
	ID        string  `json:"id"`
	MapName   string  `json:"map_name"`
	StartedAt string  `json:"started_at"`
	EndedAt   *string `json:"ended_at,omitempty"`
}

func (db *DB) RecordEpisodeStart(id, mapName string) error {
	_, err := db.Exec("INSERT INTO episodes (id, map_name) VALUES (?, ?)", id, mapName)
	return err
}

func (db *DB) RecordEpisodeEnd(id string) error {
	_, err := db.Exec("UPDATE episodes SET ended_at = CURRENT_TIMESTAMP WHERE id = ?", id)
	return err
}

func (db *DB) Episodes() ([]Episode, error) {
	rows, err := db.Query("SELECT id, map_name, started_at, ended_at FROM episodes ORDER BY started_at DESC LIMIT 100")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var episodes []Episode
	for rows.Next() {
		var e Episode
		if err := rows.Scan(&e.ID, &e.MapName, &e.StartedAt, &e.EndedAt); err != nil {
			return nil, err
		}
		episodes = append(episodes, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return episodes, nil
}

// BatchRow is one persisted streaming batch.
type BatchRow struct {
	ID          string  `json:"id"`
	EpisodeID   *string `json:"episode_id,omitempty"`
	Op          string  `json:"op"`
	Mask        uint32  `json:"mask"`
	LayerNames  string  `json:"layer_names"`
	SubMapCount int     `json:"sub_map_count"`
	IssuedAt    string  `json:"issued_at"`
	SettledAt   *string `json:"settled_at,omitempty"`
}

func (db *DB) recordBatchIssued(id, episodeID, op string, mask uint32, layerNames string, subMaps int) error {
	var eid any
	if episodeID != "" {
		eid = episodeID
	}
	_, err := db.Exec(
		`INSERT INTO streaming_batches (id, episode_id, op, mask, layer_names, sub_map_count)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, eid, op, mask, layerNames, subMaps,
	)
	return err
}

func (db *DB) recordBatchSettled(id string) error {
	_, err := db.Exec("UPDATE streaming_batches SET settled_at = CURRENT_TIMESTAMP WHERE id = ?", id)
	return err
}

func (db *DB) Batches(limit int) ([]BatchRow, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(
		`SELECT id, episode_id, op, mask, layer_names, sub_map_count, issued_at, settled_at
		 FROM streaming_batches ORDER BY issued_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []BatchRow
	for rows.Next() {
		var b BatchRow
		if err := rows.Scan(&b.ID, &b.EpisodeID, &b.Op, &b.Mask, &b.LayerNames, &b.SubMapCount, &b.IssuedAt, &b.SettledAt); err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return batches, nil
}

func (db *DB) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	// create a tailSQL instance and point it to our DB
	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		log.Fatalf("failed to create tailsql server: %v", err)
	}
	tsql.SetDB("sqlite://simhost.db", db.DB, &tailsql.DBOptions{
		Label: "Simhost DB",
	})

	// mount the tailSQL server on the debug /tailsql path
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("backup", "Create and download a backup of the database now", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		unixTime := time.Now().Unix()
		backupPath := fmt.Sprintf("backup-%d.db", unixTime)
		if _, err := db.DB.Exec("VACUUM INTO ?", backupPath); err != nil {
			http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", backupPath))
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Encoding", "gzip")

		backupFile, err := os.Open(backupPath)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to open backup file: %v", err), http.StatusInternalServerError)
			return
		}

		// close the backup file after sending it
		// and remove it from the filesystem
		defer func() {
			backupFile.Close()
			if err := os.Remove(backupPath); err != nil {
				log.Printf("Failed to remove backup file: %v", err)
			}
		}()

		gzipWriter := gzip.NewWriter(w)
		defer gzipWriter.Close()

		if _, err := io.Copy(gzipWriter, backupFile); err != nil {
			http.Error(w, fmt.Sprintf("Failed to write backup file: %v", err), http.StatusInternalServerError)
			return
		}
	}))
}
