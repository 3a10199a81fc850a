package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/codecoach/sessiond/internal/model"
	"github.com/codecoach/sessiond/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Sessions() store.Sessions { return &sessions{db: s.db} }
func (s *pgStore) Memories() store.Memories { return &memories{db: s.db} }

// HealthPing implements health.HealthPinger for the Postgres-backed store.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureSchema creates the tables when they do not exist yet. Deployments
// with managed migrations can skip this; local and test setups call it once
// at startup.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			title      TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user_updated ON sessions(user_id, updated_at DESC)`,
		`CREATE TABLE IF NOT EXISTS messages (
			session_id TEXT NOT NULL,
			seq        BIGINT NOT NULL,
			role       TEXT NOT NULL,
			content    TEXT NOT NULL,
			PRIMARY KEY (session_id, seq)
		)`,
		`CREATE TABLE IF NOT EXISTS memories (
			id         BIGSERIAL PRIMARY KEY,
			memory_id  TEXT NOT NULL UNIQUE,
			user_id    TEXT NOT NULL,
			session_id TEXT,
			content    TEXT NOT NULL,
			importance DOUBLE PRECISION NOT NULL,
			mem_type   TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_memories_user_created ON memories(user_id, created_at DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("postgres schema: %w", err)
		}
	}
	return nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, model.ErrStorage, err)
}

// --- Sessions ---

type sessions struct{ db *sql.DB }

func (s *sessions) Create(ctx context.Context, userID, title string) (*model.Session, error) {
	id := uuid.New().String()
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO sessions (session_id, user_id, title, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5)
    `, id, userID, title, now, now)
	if err != nil {
		return nil, storageErr("create session", err)
	}
	return &model.Session{
		ID:        id,
		UserID:    userID,
		Title:     title,
		Messages:  []model.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func getSession(ctx context.Context, q querier, sessionID string) (*model.Session, error) {
	out := &model.Session{ID: sessionID, Messages: []model.Message{}}
	row := q.QueryRowContext(ctx, `
        SELECT user_id, title, created_at, updated_at FROM sessions WHERE session_id=$1
    `, sessionID)
	if err := row.Scan(&out.UserID, &out.Title, &out.CreatedAt, &out.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session %s: %w", sessionID, model.ErrNotFound)
		}
		return nil, storageErr("get session", err)
	}

	rows, err := q.QueryContext(ctx, `
        SELECT role, content FROM messages WHERE session_id=$1 ORDER BY seq
    `, sessionID)
	if err != nil {
		return nil, storageErr("get session messages", err)
	}
	defer rows.Close()
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.Role, &m.Content); err != nil {
			return nil, storageErr("scan message", err)
		}
		out.Messages = append(out.Messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("get session messages", err)
	}
	return out, nil
}

func (s *sessions) Get(ctx context.Context, sessionID string) (*model.Session, error) {
	return getSession(ctx, s.db, sessionID)
}

func (s *sessions) ListByUser(ctx context.Context, userID string) ([]*model.SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT s.session_id, s.title, s.created_at, s.updated_at,
               (SELECT m.content FROM messages m WHERE m.session_id = s.session_id ORDER BY m.seq DESC LIMIT 1)
        FROM sessions s
        WHERE s.user_id=$1
        ORDER BY s.updated_at DESC, s.created_at DESC
    `, userID)
	if err != nil {
		return nil, storageErr("list sessions", err)
	}
	defer rows.Close()
	var out []*model.SessionSummary
	for rows.Next() {
		sum := &model.SessionSummary{UserID: userID}
		var preview sql.NullString
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.CreatedAt, &sum.UpdatedAt, &preview); err != nil {
			return nil, storageErr("scan session summary", err)
		}
		if preview.Valid {
			sum.Preview = &preview.String
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list sessions", err)
	}
	return out, nil
}

func (s *sessions) AppendMessage(ctx context.Context, sessionID string, msg model.Message) (*model.Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr("append message", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Row lock serializes concurrent appends to this session without
	// blocking appends to other sessions.
	var one int
	row := tx.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE session_id=$1 FOR UPDATE`, sessionID)
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session %s: %w", sessionID, model.ErrNotFound)
		}
		return nil, storageErr("append message", err)
	}

	var seq int64
	row = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE session_id=$1`, sessionID)
	if err := row.Scan(&seq); err != nil {
		return nil, storageErr("append message", err)
	}

	if _, err := tx.ExecContext(ctx, `
        INSERT INTO messages (session_id, seq, role, content) VALUES ($1,$2,$3,$4)
    `, sessionID, seq, msg.Role, msg.Content); err != nil {
		return nil, storageErr("append message", err)
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `UPDATE sessions SET updated_at=$1 WHERE session_id=$2`, now, sessionID); err != nil {
		return nil, storageErr("append message", err)
	}

	out, err := getSession(ctx, tx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, storageErr("append message", err)
	}
	return out, nil
}

func (s *sessions) Rename(ctx context.Context, sessionID, title string) (*model.Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr("rename session", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
        UPDATE sessions SET title=$1, updated_at=$2 WHERE session_id=$3
    `, title, now, sessionID)
	if err != nil {
		return nil, storageErr("rename session", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("session %s: %w", sessionID, model.ErrNotFound)
	}

	out, err := getSession(ctx, tx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, storageErr("rename session", err)
	}
	return out, nil
}

func (s *sessions) Delete(ctx context.Context, sessionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("delete session", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id=$1`, sessionID); err != nil {
		return storageErr("delete session", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE session_id=$1`, sessionID)
	if err != nil {
		return storageErr("delete session", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %s: %w", sessionID, model.ErrNotFound)
	}
	if err := tx.Commit(); err != nil {
		return storageErr("delete session", err)
	}
	return nil
}

// --- Memories ---

type memories struct{ db *sql.DB }

func (m *memories) Insert(ctx context.Context, in *model.Memory) (*model.Memory, error) {
	id := uuid.New().String()
	var created time.Time
	row := m.db.QueryRowContext(ctx, `
        INSERT INTO memories (memory_id, user_id, session_id, content, importance, mem_type, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,now())
        RETURNING created_at
    `, id, in.UserID, in.SessionID, in.Content, in.Importance, in.Type)
	if err := row.Scan(&created); err != nil {
		return nil, storageErr("insert memory", err)
	}
	out := *in
	out.ID = id
	out.Timestamp = created
	return &out, nil
}

func (m *memories) ListByScope(ctx context.Context, userID string, sessionID *string) ([]*model.Memory, error) {
	q := `SELECT memory_id, session_id, content, importance, mem_type, created_at
	      FROM memories WHERE user_id=$1`
	args := []interface{}{userID}
	if sessionID != nil {
		q += ` AND (session_id=$2 OR session_id IS NULL)`
		args = append(args, *sessionID)
	}
	q += ` ORDER BY created_at DESC, id DESC`

	rows, err := m.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, storageErr("list memories", err)
	}
	defer rows.Close()
	var out []*model.Memory
	for rows.Next() {
		mem := &model.Memory{UserID: userID}
		var sid sql.NullString
		if err := rows.Scan(&mem.ID, &sid, &mem.Content, &mem.Importance, &mem.Type, &mem.Timestamp); err != nil {
			return nil, storageErr("scan memory", err)
		}
		if sid.Valid {
			mem.SessionID = &sid.String
		}
		out = append(out, mem)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list memories", err)
	}
	return out, nil
}

func (m *memories) DeleteOne(ctx context.Context, userID, memoryID string) error {
	res, err := m.db.ExecContext(ctx, `DELETE FROM memories WHERE memory_id=$1 AND user_id=$2`, memoryID, userID)
	if err != nil {
		return storageErr("delete memory", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("memory %s: %w", memoryID, model.ErrNotFound)
	}
	return nil
}

func (m *memories) ClearAll(ctx context.Context, userID string) (int64, error) {
	res, err := m.db.ExecContext(ctx, `DELETE FROM memories WHERE user_id=$1`, userID)
	if err != nil {
		return 0, storageErr("clear memories", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("clear memories", err)
	}
	return n, nil
}
