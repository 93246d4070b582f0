package database

import (
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// The legacy CRM (the system this one replaced) still runs on MySQL. The
// import job reads from it; nothing is ever written back.
const (
	MYSQL_CONN_MAX_LIFETIME = 5 * time.Minute
	MYSQL_MAX_OPEN_CONNS    = 10
	MYSQL_MAX_IDLE_CONNS    = 10
)

func OpenLegacyMySQL(uri string) (*sql.DB, error) {
	db, err := sql.Open("mysql", uri)
	if err != nil {
		return nil, err
	}

	db.SetConnMaxLifetime(MYSQL_CONN_MAX_LIFETIME)
	db.SetMaxOpenConns(MYSQL_MAX_OPEN_CONNS)
	db.SetMaxIdleConns(MYSQL_MAX_IDLE_CONNS)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
