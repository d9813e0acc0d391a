package sql

import _ "embed"

// SQLiteSchema creates the key-value table on sqlite.
//
//go:embed sqlite.sql
var SQLiteSchema string

// MySQLSchema creates the key-value table on mysql.
//
//go:embed mysql.sql
var MySQLSchema string
