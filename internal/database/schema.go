package database

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/userdata/internal/core"
	"github.com/jackc/pgx/v5"
)

// UsersTable is the table every record is inserted into.
const UsersTable = "users"

const createUsersTableSQL = `
CREATE TABLE IF NOT EXISTS users (
	id      SERIAL PRIMARY KEY,
	name    VARCHAR(100),
	age     INTEGER,
	email   VARCHAR(100),
	phone   VARCHAR(20),
	gender  VARCHAR(10),
	country VARCHAR(50),
	dob     DATE
)`

const databaseExistsSQL = `SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)`

// createDatabaseSQL quotes the name as an identifier; CREATE DATABASE
// cannot take a bind parameter.
func createDatabaseSQL(name string) string {
	return "CREATE DATABASE " + pgx.Identifier{name}.Sanitize()
}

// insertUserSQL is built from core.UserFields so column order always
// matches ValidatedUser.InsertArgs. A blank dob is stored as NULL.
var insertUserSQL = buildInsertSQL()

func buildInsertSQL() string {
	cols := make([]string, len(core.UserFields))
	params := make([]string, len(core.UserFields))
	for i, spec := range core.UserFields {
		cols[i] = spec.DBColumn
		params[i] = fmt.Sprintf("$%d", i+1)
		if spec.Field == core.FieldDOB {
			params[i] = fmt.Sprintf("NULLIF($%d::text, '')::date", i+1)
		}
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		UsersTable, strings.Join(cols, ", "), strings.Join(params, ", "))
}
