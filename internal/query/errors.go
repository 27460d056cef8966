// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package query

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Stages at which a statement can fail.
const (
	StagePrepare = "prepare"
	StageExecute = "execute"
	StageScan    = "scan"
)

// ConnectionError means no database connection could be obtained.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("database connection: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// QueryError wraps a prepare, execute or scan failure together with the
// statement that caused it.
type QueryError struct {
	Stage     string
	Statement string
	Err       error
}

func newQueryError(stage, stmt string, err error) *QueryError {
	return &QueryError{Stage: stage, Statement: stmt, Err: err}
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s: %s", e.Stage, e.Message())
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Message returns the driver's diagnostic text. For PostgreSQL errors this
// is the server message without the severity and SQLSTATE decoration.
func (e *QueryError) Message() string {
	var pgErr *pgconn.PgError
	if errors.As(e.Err, &pgErr) {
		if pgErr.Detail != "" {
			return pgErr.Message + ": " + pgErr.Detail
		}
		return pgErr.Message
	}
	return e.Err.Error()
}

// Code returns the SQLSTATE of a PostgreSQL error, or "" for other errors.
func (e *QueryError) Code() string {
	var pgErr *pgconn.PgError
	if errors.As(e.Err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsConnection reports whether err is (or wraps) a ConnectionError.
func IsConnection(err error) bool {
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}
