package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/JonMunkholm/userdata/internal/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePostgres records what the CLI asks of the database.
type fakePostgres struct {
	mu       sync.Mutex
	dials    []string
	execs    []string
	inserts  [][]any
	dbExists bool
	dialErr  error
}

func (f *fakePostgres) connect(ctx context.Context, connString string) (database.Conn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dials = append(f.dials, connString)
	if f.dialErr != nil {
		return nil, f.dialErr
	}
	return &fakeConn{pg: f}, nil
}

func (f *fakePostgres) dialCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.dials)
}

type fakeConn struct{ pg *fakePostgres }

func (c *fakeConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.pg.mu.Lock()
	defer c.pg.mu.Unlock()
	c.pg.execs = append(c.pg.execs, sql)
	if strings.HasPrefix(sql, "CREATE DATABASE") {
		c.pg.dbExists = true
	}
	return pgconn.NewCommandTag("OK"), nil
}

func (c *fakeConn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	c.pg.mu.Lock()
	defer c.pg.mu.Unlock()
	switch {
	case strings.Contains(sql, "pg_database"):
		return fakeRow{val: c.pg.dbExists}
	case strings.HasPrefix(sql, "INSERT INTO users"):
		c.pg.inserts = append(c.pg.inserts, args)
		return fakeRow{val: int64(len(c.pg.inserts))}
	}
	return fakeRow{err: fmt.Errorf("unexpected query: %s", sql)}
}

func (c *fakeConn) Close(context.Context) error { return nil }

func (c *fakeConn) IsClosed() bool { return false }

type fakeRow struct {
	val any
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	switch p := dest[0].(type) {
	case *bool:
		*p = r.val.(bool)
	case *int64:
		*p = r.val.(int64)
	default:
		return fmt.Errorf("unsupported scan type %T", p)
	}
	return nil
}

type cliResult struct {
	stdout string
	stderr string
	err    error
}

func runCLI(t *testing.T, pg *fakePostgres, stdin string, args ...string) cliResult {
	t.Helper()

	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var stdout, stderr bytes.Buffer
	a := &app{
		stdin:  strings.NewReader(stdin),
		stdout: &stdout,
		stderr: &stderr,
		dbOpts: []database.Option{database.WithConnector(pg.connect)},
	}
	err := a.run(args)
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

const aliceInput = "Alice\n30\nalice@example.com\n(555) 123-4567\nF\nunited states\n1994-05-01\n"

func TestAdd_SavesRecord(t *testing.T) {
	pg := &fakePostgres{}

	res := runCLI(t, pg, aliceInput, "add")

	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Enter Name: ")
	assert.Contains(t, res.stdout, "Enter Date of Birth (YYYY-MM-DD): ")
	assert.True(t, strings.HasSuffix(res.stdout, "User data saved successfully!\n"))

	require.Len(t, pg.inserts, 1)
	assert.Equal(t, []any{"Alice", 30, "alice@example.com", "5551234567", "Female", "United states", "1994-05-01"}, pg.inserts[0])
	assert.Equal(t, 2, pg.dialCount(), "one server connection and one database connection")
}

func TestRoot_DefaultsToAdd(t *testing.T) {
	pg := &fakePostgres{}

	res := runCLI(t, pg, aliceInput)

	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "User data saved successfully!")
	assert.Len(t, pg.inserts, 1)
}

func TestAdd_InvalidInputNeverConnects(t *testing.T) {
	tests := []struct {
		name    string
		stdin   string
		wantErr string
	}{
		{"age out of range", strings.Replace(aliceInput, "30", "121", 1), "Error: Invalid age"},
		{"age not a number", strings.Replace(aliceInput, "30", "abc", 1), "Error: Invalid age"},
		{"bad email", strings.Replace(aliceInput, "alice@example.com", "abc", 1), "Error: Invalid email"},
		{"short phone", strings.Replace(aliceInput, "(555) 123-4567", "555-123", 1), "Error: Invalid phone"},
		{"input ends early", "Alice\n30\n", "Error: required field missing: email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pg := &fakePostgres{}

			res := runCLI(t, pg, tt.stdin, "add")

			require.Error(t, res.err)
			assert.Contains(t, res.stderr, tt.wantErr)
			assert.NotContains(t, res.stdout, "saved successfully")
			assert.Equal(t, 0, pg.dialCount(), "validation must fail before any connection")
		})
	}
}

func TestAdd_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bob.env")
	content := "NAME=Bob\nAGE=0\nEMAIL=bob@example.org\nPHONE=555.987.6543\nGENDER=\nCOUNTRY=canada\nDOB=\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	pg := &fakePostgres{}
	res := runCLI(t, pg, "", "add", "--file", path)

	require.NoError(t, res.err, res.stderr)
	assert.NotContains(t, res.stdout, "Enter Name")
	require.Len(t, pg.inserts, 1)
	assert.Equal(t, []any{"Bob", 0, "bob@example.org", "5559876543", "Other", "Canada", ""}, pg.inserts[0])
}

func TestAdd_ConnectFailure(t *testing.T) {
	pg := &fakePostgres{dialErr: errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")}

	res := runCLI(t, pg, aliceInput, "add")

	require.Error(t, res.err)
	assert.Contains(t, res.stderr, "Error: connect to server")
	assert.Contains(t, res.stderr, "(DB004)")
	assert.NotContains(t, res.stdout, "saved successfully")
}

func TestProvision_CreatesDatabaseOnce(t *testing.T) {
	pg := &fakePostgres{}

	first := runCLI(t, pg, "", "provision")
	second := runCLI(t, pg, "", "provision")

	require.NoError(t, first.err, first.stderr)
	require.NoError(t, second.err, second.stderr)
	assert.Contains(t, first.stdout, `Database "userdb" is ready.`)

	var creates int
	for _, sql := range pg.execs {
		if strings.HasPrefix(sql, "CREATE DATABASE") {
			creates++
		}
	}
	assert.Equal(t, 1, creates)
	assert.Empty(t, pg.inserts)
}

func TestEnvFile_Overrides(t *testing.T) {
	t.Setenv("DB_NAME", "userdb")

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("DB_NAME=people\n"), 0o600))

	pg := &fakePostgres{}
	res := runCLI(t, pg, "", "--env-file", path, "provision")

	require.NoError(t, res.err, res.stderr)
	require.NotEmpty(t, pg.dials)
	assert.Contains(t, pg.dials[len(pg.dials)-1], "/people?")
	assert.Contains(t, strings.Join(pg.execs, "\n"), `CREATE DATABASE "people"`)
}

func TestEnvFile_ExplicitMissing(t *testing.T) {
	pg := &fakePostgres{}

	res := runCLI(t, pg, "", "--env-file", filepath.Join(t.TempDir(), "absent.env"), "provision")

	require.Error(t, res.err)
	assert.Contains(t, res.stderr, "Error: env file")
	assert.Equal(t, 0, pg.dialCount())
}

func TestConfigError(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-port")

	pg := &fakePostgres{}
	res := runCLI(t, pg, "", "provision")

	require.Error(t, res.err)
	assert.True(t, strings.HasPrefix(res.stderr, "Error: config load"))
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	t.Setenv("SERVER_HOST", "127.0.0.1")

	pg := &fakePostgres{}
	a := &app{
		stdin:  strings.NewReader(""),
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		dbOpts: []database.Option{database.WithConnector(pg.connect)},
	}
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	// provision runs setup and leaves the app configured
	root := a.rootCmd()
	root.SetArgs([]string{"provision"})
	require.NoError(t, root.Execute())
	a.cfg.Server.Port = 0

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, a.serve(ctx))
	assert.Equal(t, 4, pg.dialCount(), "provision and serve each open two connections")
}
