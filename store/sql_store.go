// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	mysqlmigrate "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/mattermost/mattermost-server/v6/shared/mlog"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const (
	maxOpenConns = 20
	maxIdleConns = 10
)

type SQLStore struct {
	db  *sql.DB
	dbx *sqlx.DB

	user    UserStore
	project ProjectStore
	issue   IssueStore
	comment CommentStore
	session SessionStore
}

// NormalizeDataSource makes sure the MySQL options the stores rely on are set.
func NormalizeDataSource(dataSource string) (string, error) {
	cfg, err := mysql.ParseDSN(dataSource)
	if err != nil {
		return "", fmt.Errorf("invalid data source: %w", err)
	}
	cfg.ParseTime = true
	cfg.MultiStatements = true
	return cfg.FormatDSN(), nil
}

func initConnection(driverName, dataSource string) (*SQLStore, error) {
	dsn, err := NormalizeDataSource(dataSource)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)

	mlog.Info("pinging db")
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not ping db: %w", err)
	}

	return newSQLStoreWithDB(db, driverName), nil
}

func newSQLStoreWithDB(db *sql.DB, driverName string) *SQLStore {
	sqlStore := &SQLStore{
		db:  db,
		dbx: sqlx.NewDb(db, driverName),
	}

	sqlStore.user = NewSQLUserStore(sqlStore)
	sqlStore.project = NewSQLProjectStore(sqlStore)
	sqlStore.issue = NewSQLIssueStore(sqlStore)
	sqlStore.comment = NewSQLCommentStore(sqlStore)
	sqlStore.session = NewSQLSessionStore(sqlStore)

	return sqlStore
}

// NewSQLStore connects to the database and brings the schema up to date.
func NewSQLStore(driverName, dataSource string) (*SQLStore, error) {
	sqlStore, err := initConnection(driverName, dataSource)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(driverName, dataSource, 0); err != nil {
		sqlStore.Close()
		return nil, err
	}

	return sqlStore, nil
}

func (ss *SQLStore) DB() *sql.DB {
	return ss.db
}

func (ss *SQLStore) Close() {
	mlog.Info("closing db")
	if err := ss.db.Close(); err != nil {
		mlog.Error("failed to close db", mlog.Err(err))
	}
}

func (ss *SQLStore) User() UserStore {
	return ss.user
}

func (ss *SQLStore) Project() ProjectStore {
	return ss.project
}

func (ss *SQLStore) Issue() IssueStore {
	return ss.issue
}

func (ss *SQLStore) Comment() CommentStore {
	return ss.comment
}

func (ss *SQLStore) Session() SessionStore {
	return ss.session
}

func (ss *SQLStore) Mutex(key string) (Locker, error) {
	return NewMutexStore(key, ss.db)
}

// DropAllTables empties every table, children first.
func (ss *SQLStore) DropAllTables() {
	for _, table := range []string{"Sessions", "Comments", "Issues", "Projects", "Users"} {
		if _, err := ss.db.Exec("DELETE FROM " + table); err != nil {
			mlog.Error("failed to clean table", mlog.String("table", table), mlog.Err(err))
		}
	}
}

// RunMigrations migrates the schema up to the latest version, or to the
// given version when it is positive. It uses its own connection pool.
func RunMigrations(driverName, dataSource string, version int) error {
	dsn, err := NormalizeDataSource(dataSource)
	if err != nil {
		return err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	dbDriver, err := mysqlmigrate.WithInstance(db, &mysqlmigrate.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	srcDriver, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create source instance: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", srcDriver, "mysql", dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create db instance: %w", err)
	}
	defer m.Close()

	if version > 0 {
		err = m.Migrate(uint(version))
	} else {
		err = m.Up()
	}
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migration: %w", err)
	}

	if v, dirty, verr := m.Version(); verr == nil {
		mlog.Info("database schema", mlog.Int("version", int(v)), mlog.Bool("dirty", dirty))
	}
	return nil
}

// isDuplicateEntry reports whether err is a MySQL unique key violation.
func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
