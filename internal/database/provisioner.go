// Package database provisions the users database and table, then inserts
// validated records over a single PostgreSQL connection.
//
// A Provisioner owns exactly one database-scoped connection. Insert and the
// Ensure methods are not safe for concurrent use; callers that share one must
// serialize access. Stage may be read from any goroutine.
package database

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/JonMunkholm/userdata/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// sqlStateDuplicateDatabase is returned when CREATE DATABASE loses a race.
const sqlStateDuplicateDatabase = "42P04"

// Conn is the subset of *pgx.Conn the provisioner uses.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close(ctx context.Context) error
	IsClosed() bool
}

// Connector opens a connection from a connection string.
type Connector func(ctx context.Context, connString string) (Conn, error)

func pgxConnector(ctx context.Context, connString string) (Conn, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Config identifies the server and the target database.
type Config struct {
	// ServerConnString points at a maintenance database on the same server.
	// PostgreSQL has no database-less sessions, so this stands in for a
	// server-level connection.
	ServerConnString string

	// ConnString points at the target database.
	ConnString string

	// Name is the target database name.
	Name string
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithConnector replaces the pgx dialer, mainly for tests.
func WithConnector(c Connector) Option {
	return func(p *Provisioner) {
		if c != nil {
			p.connect = c
		}
	}
}

// WithLogger sets the logger used for stage transitions.
func WithLogger(l *slog.Logger) Option {
	return func(p *Provisioner) {
		if l != nil {
			p.logger = l
		}
	}
}

// Provisioner ensures the schema exists and inserts users.
type Provisioner struct {
	cfg     Config
	connect Connector
	conn    Conn
	logger  *slog.Logger

	// lost is set when the Ready connection was closed underneath us.
	// The next Insert re-dials instead of failing.
	lost bool

	mu    sync.RWMutex
	stage core.Stage
}

// New returns a Provisioner in the Disconnected stage. Nothing is dialed.
func New(cfg Config, opts ...Option) *Provisioner {
	p := &Provisioner{
		cfg:     cfg,
		connect: pgxConnector,
		stage:   core.StageDisconnected,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Open runs the full startup sequence and returns a Ready provisioner.
//
// On failure every connection opened so far is released and the returned
// error is a *core.PersistenceError. A database or table created before the
// failure is left in place.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Provisioner, error) {
	p := New(cfg, opts...)

	if err := p.EnsureDatabase(ctx); err != nil {
		return nil, err
	}
	if err := p.connectDatabase(ctx); err != nil {
		return nil, err
	}
	if err := p.EnsureTable(ctx); err != nil {
		_ = p.Close(ctx)
		return nil, err
	}

	p.advance(core.StageReady)
	return p, nil
}

// Stage returns the current startup stage.
func (p *Provisioner) Stage() core.Stage {
	if p == nil {
		return core.StageDisconnected
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stage
}

// EnsureDatabase creates the target database if it does not exist.
// It uses its own short-lived server-level connection and is safe to call
// on every run.
func (p *Provisioner) EnsureDatabase(ctx context.Context) error {
	server, err := p.connect(ctx, p.cfg.ServerConnString)
	if err != nil {
		return p.fail("connect to server", err)
	}
	defer func() {
		if cerr := server.Close(ctx); cerr != nil {
			p.logger.Warn("close server connection", "error", cerr)
		}
	}()
	p.advance(core.StageServerConnected)

	var exists bool
	if err := server.QueryRow(ctx, databaseExistsSQL, p.cfg.Name).Scan(&exists); err != nil {
		return p.fail("check database", err)
	}

	if !exists {
		_, err := server.Exec(ctx, createDatabaseSQL(p.cfg.Name))
		switch {
		case err == nil:
			p.logger.Info("database created", "database", p.cfg.Name)
		case isDuplicateDatabase(err):
			p.logger.Debug("database created concurrently", "database", p.cfg.Name)
		default:
			return p.fail("create database", err)
		}
	}

	p.advance(core.StageDatabaseEnsured)
	return nil
}

// EnsureTable creates the users table if it does not exist.
// It needs the database-scoped connection opened by Open.
func (p *Provisioner) EnsureTable(ctx context.Context) error {
	if p.conn == nil {
		return p.fail("create table", core.ErrNotReady)
	}
	if _, err := p.conn.Exec(ctx, createUsersTableSQL); err != nil {
		return p.fail("create table", err)
	}
	p.advance(core.StageTableEnsured)
	return nil
}

// Insert stores one validated user and returns its generated id.
// Failures are returned as *core.PersistenceError and never retried.
//
// If a failed insert leaves the connection closed (pgx closes it when the
// context ends mid-query), the provisioner drops back to DatabaseEnsured and
// the next Insert dials the database again.
func (p *Provisioner) Insert(ctx context.Context, user core.ValidatedUser) (int64, error) {
	if err := p.ensureConnected(ctx); err != nil {
		return 0, err
	}

	var id int64
	if err := p.conn.QueryRow(ctx, insertUserSQL, user.InsertArgs()...).Scan(&id); err != nil {
		ferr := p.fail("insert user", err)
		if p.conn.IsClosed() {
			p.dropConnection(ctx)
		}
		return 0, ferr
	}
	return id, nil
}

// ensureConnected makes sure a Ready connection exists, re-dialing one that
// was lost. The table is not re-created: it was ensured before the loss.
func (p *Provisioner) ensureConnected(ctx context.Context) error {
	if p.conn != nil && p.conn.IsClosed() {
		p.dropConnection(ctx)
	}
	if p.Stage() == core.StageReady {
		return nil
	}
	if !p.lost {
		return p.fail("insert user", core.ErrNotReady)
	}

	conn, err := p.connect(ctx, p.cfg.ConnString)
	if err != nil {
		return p.fail("reconnect to database", err)
	}
	p.conn = conn
	p.lost = false
	p.setStage(core.StageReady)
	p.logger.Info("database connection restored", "database", p.cfg.Name)
	return nil
}

// dropConnection forgets a connection that is already closed and moves the
// stage back so health checks stop reporting ready.
func (p *Provisioner) dropConnection(ctx context.Context) {
	if p.conn == nil {
		return
	}
	_ = p.conn.Close(ctx)
	p.conn = nil
	p.lost = true
	p.setStage(core.StageDatabaseEnsured)
	p.logger.Warn("database connection lost", "database", p.cfg.Name)
}

// Close releases the database-scoped connection.
// Closing a nil, never-opened or already-closed provisioner is a no-op.
func (p *Provisioner) Close(ctx context.Context) error {
	if p == nil {
		return nil
	}
	if p.conn == nil {
		if p.lost {
			p.lost = false
			p.setStage(core.StageClosed)
		}
		return nil
	}

	conn := p.conn
	p.conn = nil
	p.lost = false
	p.setStage(core.StageClosed)

	if err := conn.Close(ctx); err != nil {
		return &core.PersistenceError{Stage: core.StageClosed, Op: "close connection", Err: err}
	}
	p.logger.Debug("database connection closed", "database", p.cfg.Name)
	return nil
}

func (p *Provisioner) connectDatabase(ctx context.Context) error {
	if p.conn != nil {
		return nil
	}
	conn, err := p.connect(ctx, p.cfg.ConnString)
	if err != nil {
		return p.fail("connect to database", err)
	}
	p.conn = conn
	p.advance(core.StageDatabaseConnected)
	return nil
}

// advance moves the stage forward. Repeated Ensure calls never move it back,
// and a closed provisioner stays closed.
func (p *Provisioner) advance(s core.Stage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stage == core.StageClosed || s <= p.stage {
		return
	}
	p.logger.Debug("persistence stage", "from", p.stage.String(), "to", s.String())
	p.stage = s
}

func (p *Provisioner) setStage(s core.Stage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stage = s
}

func (p *Provisioner) fail(op string, err error) error {
	return &core.PersistenceError{Stage: p.Stage(), Op: op, Err: err}
}

func isDuplicateDatabase(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == sqlStateDuplicateDatabase
}
