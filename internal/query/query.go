// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package query executes parameterized SQL statements and normalizes their
// results. Reads come back as ordered rows of column→value maps; writes come
// back as an affected-rows count plus the generated row ID when one exists.
// Every call made through an Executor acquires its own connection and
// releases it before returning.
package query

import (
	"context"
	"database/sql"
	"regexp"
	"strings"
)

// Conn is anything a statement can be prepared on. *sql.DB, *sql.Conn and
// *sql.Tx all satisfy it.
type Conn interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// Row is one result row keyed by column name.
type Row map[string]any

// Result is the normalized outcome of a statement.
type Result struct {
	// Rows holds the row set for statements that produce one, in the order
	// the database returned them. Nil for plain writes.
	Rows []Row

	// AffectedRows is the number of rows changed by a write. For statements
	// with a RETURNING clause it equals len(Rows).
	AffectedRows int64

	// InsertID is the generated identifier of an inserted row, or nil when
	// the driver does not report one and no "id" column was returned.
	InsertID *int64

	rowSet bool
}

// IsRowSet reports whether the statement produced a row set.
func (r *Result) IsRowSet() bool {
	return r.rowSet
}

// First returns the first row, or nil if the row set is empty.
func (r *Result) First() Row {
	if len(r.Rows) == 0 {
		return nil
	}
	return r.Rows[0]
}

// Executor runs statements against a connection pool.
type Executor struct {
	db *sql.DB
}

// NewExecutor returns an Executor backed by the given pool.
func NewExecutor(db *sql.DB) *Executor {
	return &Executor{db: db}
}

// DB exposes the underlying pool for callers that need to open a
// transaction and pass it to RunOn.
func (e *Executor) DB() *sql.DB {
	return e.db
}

// Run acquires a dedicated connection, executes stmt with positional args,
// and releases the connection on every exit path.
func (e *Executor) Run(ctx context.Context, stmt string, args ...any) (*Result, error) {
	conn, err := e.db.Conn(ctx)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}
	defer conn.Close()

	return RunOn(ctx, conn, stmt, args...)
}

// RunOn executes stmt on a connection or transaction owned by the caller.
// The caller keeps responsibility for commit, rollback and closing.
func RunOn(ctx context.Context, c Conn, stmt string, args ...any) (*Result, error) {
	prepared, err := c.PrepareContext(ctx, stmt)
	if err != nil {
		return nil, newQueryError(StagePrepare, stmt, err)
	}
	defer prepared.Close()

	if Classify(stmt) == KindRowSet {
		return queryRows(ctx, prepared, stmt, args)
	}

	res, err := prepared.ExecContext(ctx, args...)
	if err != nil {
		return nil, newQueryError(StageExecute, stmt, err)
	}

	out := &Result{}
	if n, err := res.RowsAffected(); err == nil {
		out.AffectedRows = n
	}
	if id, err := res.LastInsertId(); err == nil {
		out.InsertID = &id
	}
	return out, nil
}

// queryRows runs a row-producing statement and collects every row.
func queryRows(ctx context.Context, prepared *sql.Stmt, stmt string, args []any) (*Result, error) {
	rows, err := prepared.QueryContext(ctx, args...)
	if err != nil {
		return nil, newQueryError(StageExecute, stmt, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, newQueryError(StageScan, stmt, err)
	}

	out := &Result{rowSet: true, Rows: []Row{}}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, newQueryError(StageScan, stmt, err)
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			row[col] = normalize(values[i])
		}
		out.Rows = append(out.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, newQueryError(StageExecute, stmt, err)
	}

	if hasReturning(stmt) {
		out.AffectedRows = int64(len(out.Rows))
		if first := out.First(); first != nil {
			if id, ok := AsInt64(first["id"]); ok {
				out.InsertID = &id
			}
		}
	}
	return out, nil
}

// normalize converts driver byte slices to strings so rows are safe to keep
// after the underlying buffers are reused.
func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// Kind says whether a statement yields a row set or only a write summary.
type Kind int

const (
	KindWrite Kind = iota
	KindRowSet
)

var (
	// leadingComment strips SQL comments ahead of the first keyword.
	leadingComment = regexp.MustCompile(`(?s)^(\s*(--[^\n]*\n|/\*.*?\*/))*\s*`)
	returningRe    = regexp.MustCompile(`(?is)\bRETURNING\b`)

	// quotedOrComment matches string literals, quoted identifiers, $$
	// bodies and comments, none of which can hold a RETURNING clause.
	// Backslash escapes in E'' literals are not understood.
	quotedOrComment = regexp.MustCompile(`(?s)'(?:[^']|'')*'|"(?:[^"]|"")*"|\$\$.*?\$\$|--[^\n]*|/\*.*?\*/`)
)

// rowSetKeywords are leading keywords of statements that return rows.
var rowSetKeywords = map[string]bool{
	"SELECT":  true,
	"WITH":    true,
	"SHOW":    true,
	"VALUES":  true,
	"TABLE":   true,
	"EXPLAIN": true,
}

// Classify reports whether stmt produces a row set.
func Classify(stmt string) Kind {
	s := leadingComment.ReplaceAllString(stmt, "")
	s = strings.TrimLeft(s, "( \t\r\n")

	end := strings.IndexFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '('
	})
	if end == -1 {
		end = len(s)
	}
	if rowSetKeywords[strings.ToUpper(s[:end])] {
		return KindRowSet
	}
	if hasReturning(stmt) {
		return KindRowSet
	}
	return KindWrite
}

func hasReturning(stmt string) bool {
	return returningRe.MatchString(quotedOrComment.ReplaceAllString(stmt, " "))
}
