// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package query

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

// fakeDriver is a minimal database/sql driver whose behaviour is keyed off
// substrings in the statement text.
type fakeDriver struct{}

func (fakeDriver) Open(string) (driver.Conn, error) { return &fakeConn{}, nil }

type fakeConn struct{}

func (c *fakeConn) Prepare(q string) (driver.Stmt, error) {
	if strings.Contains(q, "BROKEN") {
		return nil, errors.New(`syntax error at or near "BROKEN"`)
	}
	return &fakeStmt{query: q}, nil
}
func (c *fakeConn) Close() error              { return nil }
func (c *fakeConn) Begin() (driver.Tx, error) { return fakeTx{}, nil }

type fakeTx struct{}

func (fakeTx) Commit() error   { return nil }
func (fakeTx) Rollback() error { return nil }

type fakeStmt struct{ query string }

func (s *fakeStmt) Close() error  { return nil }
func (s *fakeStmt) NumInput() int { return -1 }

func (s *fakeStmt) Exec(args []driver.Value) (driver.Result, error) {
	switch {
	case strings.Contains(s.query, "FAIL"):
		return nil, errors.New("duplicate key value violates unique constraint")
	case strings.Contains(s.query, "NOID"):
		return driver.RowsAffected(3), nil
	}
	return fakeResult{affected: 1, id: 42}, nil
}

func (s *fakeStmt) Query(args []driver.Value) (driver.Rows, error) {
	if strings.Contains(s.query, "RETURNING") {
		return &fakeRows{cols: []string{"id"}, data: [][]driver.Value{{int64(7)}}}, nil
	}
	return &fakeRows{
		cols: []string{"id", "name"},
		data: [][]driver.Value{
			{int64(1), []byte("alpha")},
			{int64(2), "beta"},
		},
	}, nil
}

type fakeResult struct{ affected, id int64 }

func (r fakeResult) LastInsertId() (int64, error) { return r.id, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.affected, nil }

type fakeRows struct {
	cols []string
	data [][]driver.Value
	pos  int
}

func (r *fakeRows) Columns() []string { return r.cols }
func (r *fakeRows) Close() error      { return nil }
func (r *fakeRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.data) {
		return io.EOF
	}
	copy(dest, r.data[r.pos])
	r.pos++
	return nil
}

func init() {
	sql.Register("querytest", fakeDriver{})
}

func testExecutor(t *testing.T) *Executor {
	t.Helper()
	db, err := sql.Open("querytest", "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewExecutor(db)
}

func assertReleased(t *testing.T, e *Executor) {
	t.Helper()
	if inUse := e.DB().Stats().InUse; inUse != 0 {
		t.Errorf("connections in use after call: got %d, want 0", inUse)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		stmt string
		want Kind
	}{
		{"SELECT 1", KindRowSet},
		{"  select * from themes", KindRowSet},
		{"WITH t AS (SELECT 1) SELECT * FROM t", KindRowSet},
		{"(SELECT 1) UNION (SELECT 2)", KindRowSet},
		{"-- comment\nSELECT 1", KindRowSet},
		{"/* multi\nline */ SELECT 1", KindRowSet},
		{"SHOW server_version", KindRowSet},
		{"INSERT INTO activity_log (user_id) VALUES ($1)", KindWrite},
		{"INSERT INTO activity_log (user_id) VALUES ($1) RETURNING id", KindRowSet},
		{"UPDATE system_settings SET setting_value = $1", KindWrite},
		{"update themes set is_active = false returning id", KindRowSet},
		{"DELETE FROM themes WHERE id = $1", KindWrite},
		{"UPDATE themes SET description = 'returning soon' WHERE id = $1", KindWrite},
		{"UPDATE themes SET description = 'it''s returning' WHERE id = $1", KindWrite},
		{`UPDATE themes SET "returning" = 1`, KindWrite},
		{"INSERT INTO t (body) VALUES ($$ RETURNING $$)", KindWrite},
		{"DELETE FROM t -- returning nothing\nWHERE id = 1", KindWrite},
		{"UPDATE t SET note = 'x' RETURNING id", KindRowSet},
		{"", KindWrite},
	}

	for _, tt := range tests {
		t.Run(tt.stmt, func(t *testing.T) {
			if got := Classify(tt.stmt); got != tt.want {
				t.Errorf("Classify(%q): got %v, want %v", tt.stmt, got, tt.want)
			}
		})
	}
}

func TestRunSelect(t *testing.T) {
	e := testExecutor(t)

	res, err := e.Run(context.Background(), "SELECT id, name FROM themes WHERE is_active = $1", true)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	assertReleased(t, e)

	if !res.IsRowSet() {
		t.Fatal("expected a row set")
	}
	if len(res.Rows) != 2 {
		t.Fatalf("rows: got %d, want 2", len(res.Rows))
	}

	// Byte slices are converted to strings; order is preserved.
	if got := res.Rows[0]["name"]; got != "alpha" {
		t.Errorf("row 0 name: got %#v, want %q", got, "alpha")
	}
	if got := res.Rows[1]["id"]; got != int64(2) {
		t.Errorf("row 1 id: got %#v, want 2", got)
	}
	if res.InsertID != nil {
		t.Errorf("InsertID: got %d, want nil for a plain select", *res.InsertID)
	}
}

func TestRunWrite(t *testing.T) {
	e := testExecutor(t)

	res, err := e.Run(context.Background(), "UPDATE system_settings SET setting_value = $1 WHERE setting_name = $2", "x", "y")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	assertReleased(t, e)

	if res.IsRowSet() {
		t.Error("write should not be a row set")
	}
	if res.AffectedRows != 1 {
		t.Errorf("AffectedRows: got %d, want 1", res.AffectedRows)
	}
	if res.InsertID == nil || *res.InsertID != 42 {
		t.Errorf("InsertID: got %v, want 42", res.InsertID)
	}
}

func TestRunWriteWithoutInsertID(t *testing.T) {
	e := testExecutor(t)

	res, err := e.Run(context.Background(), "DELETE FROM themes NOID")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.AffectedRows != 3 {
		t.Errorf("AffectedRows: got %d, want 3", res.AffectedRows)
	}
	if res.InsertID != nil {
		t.Errorf("InsertID: got %d, want nil", *res.InsertID)
	}
}

func TestRunReturning(t *testing.T) {
	e := testExecutor(t)

	res, err := e.Run(context.Background(), "INSERT INTO activity_log (user_id) VALUES ($1) RETURNING id", 1)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.IsRowSet() {
		t.Error("RETURNING statement should produce a row set")
	}
	if res.AffectedRows != 1 {
		t.Errorf("AffectedRows: got %d, want 1", res.AffectedRows)
	}
	if res.InsertID == nil || *res.InsertID != 7 {
		t.Errorf("InsertID: got %v, want 7", res.InsertID)
	}
}

func TestRunPrepareError(t *testing.T) {
	e := testExecutor(t)

	_, err := e.Run(context.Background(), "SELEC BROKEN")
	assertReleased(t, e)

	var qerr *QueryError
	if !errors.As(err, &qerr) {
		t.Fatalf("expected *QueryError, got %T: %v", err, err)
	}
	if qerr.Stage != StagePrepare {
		t.Errorf("stage: got %q, want %q", qerr.Stage, StagePrepare)
	}
	if !strings.Contains(qerr.Message(), "BROKEN") {
		t.Errorf("message should carry driver diagnostic, got %q", qerr.Message())
	}
}

func TestRunExecuteError(t *testing.T) {
	e := testExecutor(t)

	_, err := e.Run(context.Background(), "INSERT INTO themes FAIL")
	assertReleased(t, e)

	var qerr *QueryError
	if !errors.As(err, &qerr) {
		t.Fatalf("expected *QueryError, got %T: %v", err, err)
	}
	if qerr.Stage != StageExecute {
		t.Errorf("stage: got %q, want %q", qerr.Stage, StageExecute)
	}
}

func TestRunConnectionError(t *testing.T) {
	e := testExecutor(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Run(ctx, "SELECT 1")
	if !IsConnection(err) {
		t.Fatalf("expected ConnectionError, got %T: %v", err, err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ConnectionError should wrap context.Canceled, got %v", err)
	}
}

func TestRunOnLeavesConnectionOpen(t *testing.T) {
	e := testExecutor(t)
	ctx := context.Background()

	conn, err := e.DB().Conn(ctx)
	if err != nil {
		t.Fatalf("Conn: %v", err)
	}
	defer conn.Close()

	if _, err := RunOn(ctx, conn, "SELECT 1"); err != nil {
		t.Fatalf("RunOn: %v", err)
	}

	// The caller still owns the connection and can keep using it.
	if inUse := e.DB().Stats().InUse; inUse != 1 {
		t.Errorf("connections in use: got %d, want 1", inUse)
	}
	if _, err := RunOn(ctx, conn, "UPDATE themes SET name = $1", "again"); err != nil {
		t.Errorf("second RunOn on same conn: %v", err)
	}
}

func TestRunOnTransaction(t *testing.T) {
	e := testExecutor(t)
	ctx := context.Background()

	tx, err := e.DB().BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	if _, err := RunOn(ctx, tx, "UPDATE themes SET is_active = FALSE"); err != nil {
		t.Fatalf("RunOn: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
}

func TestQueryErrorPostgresMessage(t *testing.T) {
	pgErr := &pgconn.PgError{
		Severity: "ERROR",
		Code:     "23505",
		Message:  "duplicate key value violates unique constraint \"system_settings_pkey\"",
		Detail:   "Key (setting_name)=(site_name) already exists.",
	}
	qerr := newQueryError(StageExecute, "INSERT ...", pgErr)

	if qerr.Code() != "23505" {
		t.Errorf("Code: got %q, want 23505", qerr.Code())
	}
	want := pgErr.Message + ": " + pgErr.Detail
	if qerr.Message() != want {
		t.Errorf("Message: got %q, want %q", qerr.Message(), want)
	}
	if !errors.Is(qerr, pgErr) {
		t.Error("QueryError should unwrap to the driver error")
	}
}

func TestValueConversions(t *testing.T) {
	if n, ok := AsInt64(int32(5)); !ok || n != 5 {
		t.Errorf("AsInt64(int32): got %d, %v", n, ok)
	}
	if n, ok := AsInt64("12"); !ok || n != 12 {
		t.Errorf("AsInt64(string): got %d, %v", n, ok)
	}
	if _, ok := AsInt64(nil); ok {
		t.Error("AsInt64(nil) should fail")
	}
	if AsString(nil) != "" {
		t.Error("AsString(nil) should be empty")
	}
	if AsNullString(nil) != nil {
		t.Error("AsNullString(nil) should be nil")
	}
	if !AsBool("true") || AsBool(int64(0)) {
		t.Error("AsBool conversions wrong")
	}
}
