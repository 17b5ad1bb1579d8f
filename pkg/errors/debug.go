package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// StoreDetail is what the database driver said about a failed statement.
type StoreDetail struct {
	Driver     string `json:"driver"`
	SQLState   string `json:"sql_state,omitempty"`
	Constraint string `json:"constraint,omitempty"`
	Table      string `json:"table,omitempty"`
	Column     string `json:"column,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Message    string `json:"message,omitempty"`
}

// Report is the log-only view of an error. It is never written to clients.
type Report struct {
	Message string       `json:"message"`
	Code    Code         `json:"code,omitempty"`
	Chain   []string     `json:"chain,omitempty"`
	Store   *StoreDetail `json:"store,omitempty"`
}

// Dump walks err and collects its code, wrap chain and any driver detail.
func Dump(err error) Report {
	if err == nil {
		return Report{}
	}

	r := Report{Message: err.Error()}
	if te := As(err); te != nil {
		r.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		r.Chain = append(r.Chain, fmt.Sprintf("%T: %v", e, e))
	}
	r.Store = storeDetail(err)
	return r
}

// Fields flattens the report for the structured logger.
func (r Report) Fields() map[string]any {
	fields := map[string]any{
		"error":       r.Message,
		"error_code":  r.Code,
		"error_chain": r.Chain,
	}
	if r.Store != nil {
		fields["db_driver"] = r.Store.Driver
		fields["db_sql_state"] = r.Store.SQLState
		fields["db_constraint"] = r.Store.Constraint
		fields["db_table"] = r.Store.Table
		fields["db_column"] = r.Store.Column
		fields["db_detail"] = r.Store.Detail
		fields["db_message"] = r.Store.Message
	}
	return fields
}

func storeDetail(err error) *StoreDetail {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return &StoreDetail{
			Driver:     "pgx",
			SQLState:   pgxErr.Code,
			Constraint: pgxErr.ConstraintName,
			Table:      pgxErr.TableName,
			Column:     pgxErr.ColumnName,
			Detail:     pgxErr.Detail,
			Message:    pgxErr.Message,
		}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &StoreDetail{
			Driver:     "pq",
			SQLState:   string(pqErr.Code),
			Constraint: pqErr.Constraint,
			Table:      pqErr.Table,
			Column:     pqErr.Column,
			Detail:     pqErr.Detail,
			Message:    pqErr.Message,
		}
	}

	// sqlite surfaces constraint failures as plain messages
	for e := err; e != nil; e = errors.Unwrap(e) {
		msg := e.Error()
		if strings.Contains(msg, "constraint failed") {
			return &StoreDetail{Driver: "sqlite", Message: msg}
		}
	}
	return nil
}
