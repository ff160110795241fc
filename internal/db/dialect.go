package db

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect hides the differences between the supported SQL engines.
type Dialect interface {
	Name() string
	DriverName() string
	DSN(opts Options) string
	// Rebind rewrites ? placeholders into the engine's native form.
	Rebind(query string) string
	Placeholder() squirrel.PlaceholderFormat
	Configure(db *sql.DB)
	// LockSuffix is appended to a SELECT that must hold its rows until the
	// transaction ends.
	LockSuffix() string
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string       { return "sqlite" }
func (sqliteDialect) DriverName() string { return "sqlite3" }

func (sqliteDialect) DSN(opts Options) string {
	sep := "?"
	if strings.Contains(opts.Path, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_busy_timeout=5000&_foreign_keys=on&_journal_mode=WAL&_synchronous=NORMAL", opts.Path, sep)
}

func (sqliteDialect) Rebind(query string) string               { return query }
func (sqliteDialect) Placeholder() squirrel.PlaceholderFormat { return squirrel.Question }

// Configure keeps a single connection: SQLite has one writer, and an
// in-memory database lives only as long as its connection.
func (sqliteDialect) Configure(db *sql.DB) {
	db.SetMaxOpenConns(1)
}

// LockSuffix is empty; the single connection already serializes writers.
func (sqliteDialect) LockSuffix() string { return "" }

type postgresDialect struct{}

func (postgresDialect) Name() string       { return "postgres" }
func (postgresDialect) DriverName() string { return "postgres" }

func (postgresDialect) DSN(opts Options) string { return opts.URL }

func (postgresDialect) Rebind(query string) string {
	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			sb.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			sb.WriteString("$" + strconv.Itoa(n))
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func (postgresDialect) Placeholder() squirrel.PlaceholderFormat { return squirrel.Dollar }

func (postgresDialect) Configure(db *sql.DB) {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)
}

func (postgresDialect) LockSuffix() string { return " FOR UPDATE" }

// DialectFor returns the dialect registered under name.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "", "sqlite", "sqlite3":
		return sqliteDialect{}, nil
	case "postgres", "postgresql":
		return postgresDialect{}, nil
	}
	return nil, fmt.Errorf("unsupported database driver: %s", name)
}
