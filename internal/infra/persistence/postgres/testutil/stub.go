// Package testutil provides a stub database for postgres store tests: an
// in-memory driver that understands the store's records and cursor
// statements and can inject failures.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

// StubConn backs a sql.DB with in-memory tables shaped like the store's
// schema. Failure toggles simulate backend faults; LockErr is returned for
// FOR UPDATE NOWAIT selects to simulate a held cursor lock.
type StubConn struct {
	Execs   []string
	Queries []string

	Records map[string]map[int64][]byte
	Cursor  []byte

	FailPing   bool
	FailExec   bool
	FailBegin  bool
	FailCommit bool
	LockErr    error
}

// NewStubDB registers a sql.DB backed by an in-memory stub connection.
func NewStubDB() (*sql.DB, *StubConn) {
	conn := &StubConn{Records: make(map[string]map[int64][]byte)}
	name := fmt.Sprintf("stubpg%d", time.Now().UnixNano())
	sql.Register(name, &stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	return db, conn
}

type stubDriver struct {
	conn *StubConn
}

func (d *stubDriver) Open(string) (driver.Conn, error) {
	return d.conn, nil
}

// Prepare implements driver.Conn.
func (c *StubConn) Prepare(string) (driver.Stmt, error) { return nil, fmt.Errorf("not implemented") }

// Close implements driver.Conn.
func (c *StubConn) Close() error { return nil }

// Begin implements driver.Conn.
func (c *StubConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

// Ping implements driver.Pinger.
func (c *StubConn) Ping(_ context.Context) error {
	if c.FailPing {
		return fmt.Errorf("ping fail")
	}
	return nil
}

// BeginTx implements driver.ConnBeginTx.
func (c *StubConn) BeginTx(_ context.Context, _ driver.TxOptions) (driver.Tx, error) {
	if c.FailBegin {
		return nil, fmt.Errorf("begin fail")
	}
	return &stubTx{conn: c}, nil
}

// ExecContext implements driver.ExecerContext.
func (c *StubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.Execs = append(c.Execs, query)
	if c.FailExec {
		return nil, fmt.Errorf("exec fail")
	}
	normalized := strings.ToUpper(strings.Join(strings.Fields(query), " "))
	switch {
	case strings.HasPrefix(normalized, "INSERT INTO RECORDS"):
		kind, ok1 := args[0].Value.(string)
		id, ok2 := args[1].Value.(int64)
		payload, ok3 := args[2].Value.([]byte)
		if !ok1 || !ok2 || !ok3 {
			return nil, fmt.Errorf("unexpected args for records insert: %v", args)
		}
		table := c.Records[kind]
		if table == nil {
			table = make(map[int64][]byte)
			c.Records[kind] = table
		}
		table[id] = append([]byte(nil), payload...)
		return driver.RowsAffected(1), nil
	case strings.HasPrefix(normalized, "DELETE FROM RECORDS"):
		kind, _ := args[0].Value.(string)
		id, _ := args[1].Value.(int64)
		delete(c.Records[kind], id)
		return driver.RowsAffected(1), nil
	case strings.HasPrefix(normalized, "INSERT INTO CURSOR"):
		if len(args) == 0 {
			// schema seed with a literal payload
			if c.Cursor == nil {
				c.Cursor = []byte("{}")
			}
			return driver.RowsAffected(1), nil
		}
		payload, _ := args[0].Value.([]byte)
		c.Cursor = append([]byte(nil), payload...)
		return driver.RowsAffected(1), nil
	case strings.HasPrefix(normalized, "UPDATE CURSOR"):
		payload, _ := args[0].Value.([]byte)
		c.Cursor = append([]byte(nil), payload...)
		return driver.RowsAffected(1), nil
	}
	return driver.RowsAffected(0), nil
}

// QueryContext implements driver.QueryerContext.
func (c *StubConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.Queries = append(c.Queries, query)
	normalized := strings.ToUpper(strings.Join(strings.Fields(query), " "))
	switch {
	case strings.Contains(normalized, "FROM CURSOR"):
		if strings.Contains(normalized, "NOWAIT") && c.LockErr != nil {
			return nil, c.LockErr
		}
		if c.Cursor == nil {
			return &stubRows{cols: []string{"payload"}}, nil
		}
		return &stubRows{cols: []string{"payload"}, rows: [][]driver.Value{{append([]byte(nil), c.Cursor...)}}}, nil
	case strings.Contains(normalized, "MAX(ID)"):
		kind, _ := args[0].Value.(string)
		var max int64
		for id := range c.Records[kind] {
			if id > max {
				max = id
			}
		}
		return &stubRows{cols: []string{"max"}, rows: [][]driver.Value{{max}}}, nil
	case strings.Contains(normalized, "FROM RECORDS") && strings.Contains(normalized, "AND ID="):
		kind, _ := args[0].Value.(string)
		id, _ := args[1].Value.(int64)
		payload, ok := c.Records[kind][id]
		if !ok {
			return &stubRows{cols: []string{"payload"}}, nil
		}
		return &stubRows{cols: []string{"payload"}, rows: [][]driver.Value{{append([]byte(nil), payload...)}}}, nil
	case strings.Contains(normalized, "FROM RECORDS"):
		kind, _ := args[0].Value.(string)
		table := c.Records[kind]
		ids := make([]int64, 0, len(table))
		for id := range table {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		values := make([][]driver.Value, 0, len(ids))
		for _, id := range ids {
			values = append(values, []driver.Value{append([]byte(nil), table[id]...)})
		}
		return &stubRows{cols: []string{"payload"}, rows: values}, nil
	}
	return nil, fmt.Errorf("cannot parse query: %s", query)
}

type stubTx struct {
	conn *StubConn
}

func (t *stubTx) Commit() error {
	if t.conn.FailCommit {
		return fmt.Errorf("commit fail")
	}
	return nil
}

func (t *stubTx) Rollback() error { return nil }

type stubRows struct {
	cols []string
	rows [][]driver.Value
	idx  int
}

func (r *stubRows) Columns() []string { return r.cols }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}
