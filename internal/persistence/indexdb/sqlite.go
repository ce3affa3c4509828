package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"starlane.io/internal/protocol"
)

// ErrClosed is returned by queries after Close.
var ErrClosed = errors.New("indexdb: closed")

// SQLiteIndex keeps a queryable history of a client's sessions: joins, hull
// readings, travel mode confirmations and scan results. Writes are queued to
// a single writer goroutine and never block the caller.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropped atomic.Uint64

	now func() time.Time
}

type reqKind int

const (
	reqJoin reqKind = iota + 1
	reqHull
	reqTravelMode
	reqScan
)

type req struct {
	kind reqKind
	at   time.Time

	selfID string
	pos    protocol.Vec3
	hull   float64
	mode   protocol.TravelMode
	speed  float64
	scan   protocol.ScannedObject
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db:  db,
		ch:  make(chan req, 4096),
		now: time.Now,
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS joins (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			at TEXT NOT NULL,
			self_id TEXT NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			z REAL NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS hull (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			at TEXT NOT NULL,
			hull REAL NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS travel_modes (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			at TEXT NOT NULL,
			mode TEXT NOT NULL,
			speed REAL NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS scans (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			at TEXT NOT NULL,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			distance REAL NOT NULL,
			details_json TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_scans_name ON scans(name);`,
		`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1');`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close drains queued writes and closes the database.
func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// Dropped counts writes discarded because the queue was full.
func (s *SQLiteIndex) Dropped() uint64 { return s.dropped.Load() }

func (s *SQLiteIndex) enqueue(r req) {
	if s == nil || s.closed.Load() {
		return
	}
	r.at = s.now().UTC()
	select {
	case s.ch <- r:
	default:
		// The recorded frames are the source of truth; the index may lag.
		s.dropped.Add(1)
	}
}

func (s *SQLiteIndex) RecordJoin(selfID string, pos protocol.Vec3) {
	s.enqueue(req{kind: reqJoin, selfID: selfID, pos: pos})
}

func (s *SQLiteIndex) RecordHull(hull float64) {
	s.enqueue(req{kind: reqHull, hull: hull})
}

func (s *SQLiteIndex) RecordTravelMode(mode protocol.TravelMode, speed float64) {
	s.enqueue(req{kind: reqTravelMode, mode: mode, speed: speed})
}

func (s *SQLiteIndex) RecordScan(obj protocol.ScannedObject) {
	s.enqueue(req{kind: reqScan, scan: obj})
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertJoin, _ := s.db.Prepare(`INSERT INTO joins(at,self_id,x,y,z) VALUES(?,?,?,?,?)`)
	insertHull, _ := s.db.Prepare(`INSERT INTO hull(at,hull) VALUES(?,?)`)
	insertMode, _ := s.db.Prepare(`INSERT INTO travel_modes(at,mode,speed) VALUES(?,?,?)`)
	insertScan, _ := s.db.Prepare(`INSERT INTO scans(at,name,type,distance,details_json) VALUES(?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertJoin, insertHull, insertMode, insertScan} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 256
		commitMaxWait = time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	exec := func(st *sql.Stmt, args ...any) {
		if st == nil || tx == nil {
			return
		}
		if _, err := tx.Stmt(st).Exec(args...); err != nil {
			rollback()
			return
		}
		opCount++
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		at := r.at.Format(time.RFC3339Nano)
		switch r.kind {
		case reqJoin:
			exec(insertJoin, at, r.selfID, r.pos.X, r.pos.Y, r.pos.Z)
		case reqHull:
			exec(insertHull, at, r.hull)
		case reqTravelMode:
			exec(insertMode, at, string(r.mode), r.speed)
		case reqScan:
			var details any
			if len(r.scan.Details) > 0 {
				b, _ := json.Marshal(r.scan.Details)
				details = string(b)
			}
			exec(insertScan, at, r.scan.Name, r.scan.Type, r.scan.Distance, details)
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	commit()
}
