// Package testenv creates throwaway Postgres databases for store tests.
// It requires a TEST_DATABASE_URL pointing at a server the test user can
// create and drop databases on.
package testenv

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"code.cloudfoundry.org/lager"
	"github.com/gofrs/uuid"
	_ "github.com/lib/pq"

	"github.com/metermill/rateplan-console/rateplanstore"
)

type TempDB struct {
	masterConnectionString string
	tempConnectionString   string
	Store                  *rateplanstore.Store
	Conn                   *sql.DB
}

// Close drops the temporary database
func (db *TempDB) Close() error {
	db.Conn.Close()
	conn, err := sql.Open("postgres", db.masterConnectionString)
	if err != nil {
		return err
	}
	defer conn.Close()
	u, err := url.Parse(db.tempConnectionString)
	if err != nil {
		return err
	}
	dbName := strings.TrimPrefix(u.Path, "/")
	try := 0
	for {
		_, err = conn.Exec(fmt.Sprintf(`DROP DATABASE IF EXISTS %s`, dbName))
		if err != nil {
			if try > 3 {
				return err
			}
			fmt.Println(err)
			try++
			time.Sleep(1 * time.Second)
			continue
		}
		return nil
	}
}

// Open creates a database named test_<uuid> and initializes the console
// schema in it
func Open(logger lager.Logger) (*TempDB, error) {
	masterConnectionString := os.Getenv("TEST_DATABASE_URL")
	if masterConnectionString == "" {
		return nil, errors.New("TEST_DATABASE_URL environment variable is required")
	}
	master, err := sql.Open("postgres", masterConnectionString)
	if err != nil {
		return nil, err
	}
	defer master.Close()
	dbName := "test_" + strings.Replace(uuid.Must(uuid.NewV4()).String(), "-", "_", -1)
	_, err = master.Exec(fmt.Sprintf(`CREATE DATABASE %s`, dbName))
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(masterConnectionString)
	if err != nil {
		return nil, err
	}
	u.Path = "/" + dbName
	conn, err := sql.Open("postgres", u.String())
	if err != nil {
		return nil, err
	}
	store := rateplanstore.New(context.Background(), conn, logger)
	if err := store.Init(); err != nil {
		return nil, err
	}
	tdb := &TempDB{
		tempConnectionString:   u.String(),
		masterConnectionString: masterConnectionString,
		Conn:                   conn,
		Store:                  store,
	}
	return tdb, nil
}

// MustOpen is a panicy version of Open
func MustOpen(logger lager.Logger) *TempDB {
	tdb, err := Open(logger)
	if err != nil {
		panic(err)
	}
	return tdb
}

// Get performs a query that returns a single row single column and
// returns whatever it is
func (db *TempDB) Get(q string, args ...interface{}) interface{} {
	var b []byte
	err := db.Conn.QueryRow(`select coalesce(to_json((`+q+`)), 'null'::json)`, args...).Scan(&b)
	if err != nil {
		return err
	}
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		panic(err)
	}
	return v
}

// Insert writes Row objects (generic json representations of data) into
// the database, which reads better in tests than raw sql
func (db *TempDB) Insert(tableName string, rows ...Row) error {
	tx, err := db.Conn.Begin()
	if err != nil {
		return err
	}
	for _, row := range rows {
		cols := []string{}
		vars := []string{}
		vals := []interface{}{}
		for k, v := range row {
			cols = append(cols, k)
			vars = append(vars, fmt.Sprintf("$%d", len(cols)))
			vals = append(vals, v)
		}
		sql := fmt.Sprintf(
			`insert into `+tableName+` (%s) values (%s)`,
			strings.Join(cols, ", "),
			strings.Join(vars, ", "),
		)
		if _, err := tx.Exec(sql, vals...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type Row map[string]interface{}

func (row Row) String() string {
	b, err := json.Marshal(row)
	if err != nil {
		panic(fmt.Errorf("cannot JSON stringify row %v", map[string]interface{}(row)))
	}
	return string(b)
}
