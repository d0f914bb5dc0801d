package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/go-sql-driver/mysql"
)

const (
	DriverMysql  = "mysql"
	DriverSqlite = "sqlite3"
)

type DatabaseConfig struct {
	DriverType string
	DriverArgs string
}

// ParseDatabaseConfigFromEnv reads DB_DRIVER_TYPE and DB_DRIVER_ARGS. A mysql
// config without explicit args is assembled from MYSQL_HOST, MYSQL_PORT,
// MYSQL_USERNAME, MYSQL_PASSWORD and MYSQL_DATABASE.
func ParseDatabaseConfigFromEnv() (*DatabaseConfig, error) {
	driverType := os.Getenv("DB_DRIVER_TYPE")
	if driverType == "" {
		driverType = DriverSqlite
	}
	driverArgs := os.Getenv("DB_DRIVER_ARGS")

	switch driverType {
	case DriverSqlite:
		if driverArgs == "" {
			driverArgs = "ieflow.db"
		}
	case DriverMysql:
		if driverArgs == "" {
			cfg := mysql.NewConfig()
			cfg.Net = "tcp"
			cfg.Addr = envOrDefault("MYSQL_HOST", "127.0.0.1") + ":" + envOrDefault("MYSQL_PORT", "3306")
			cfg.User = envOrDefault("MYSQL_USERNAME", "root")
			cfg.Passwd = os.Getenv("MYSQL_PASSWORD")
			cfg.DBName = envOrDefault("MYSQL_DATABASE", "ieflow")
			cfg.ParseTime = true
			cfg.Params = map[string]string{"charset": "utf8mb4"}
			driverArgs = cfg.FormatDSN()
		}
		args, err := withFoundRows(driverArgs)
		if err != nil {
			return nil, err
		}
		driverArgs = args
	default:
		return nil, errors.New("unsupported database driver type '" + driverType + "'")
	}

	return &DatabaseConfig{DriverType: driverType, DriverArgs: driverArgs}, nil
}

// PrepareMysqlDatabase creates the database named in the DSN if it does not exist yet.
func PrepareMysqlDatabase(driverArgs string) error {
	cfg, err := mysql.ParseDSN(driverArgs)
	if err != nil {
		return err
	}
	databaseName := cfg.DBName
	if databaseName == "" {
		return errors.New("database name is required")
	}
	cfg.DBName = ""

	db, err := sql.Open(DriverMysql, cfg.FormatDSN())
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.Exec(fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s` DEFAULT CHARACTER SET utf8mb4 DEFAULT COLLATE utf8mb4_unicode_ci", databaseName))
	return err
}

// withFoundRows makes UPDATE report matched rows, optimistic writes compare RowsAffected against it.
func withFoundRows(driverArgs string) (string, error) {
	cfg, err := mysql.ParseDSN(driverArgs)
	if err != nil {
		return "", err
	}
	cfg.ClientFoundRows = true
	return cfg.FormatDSN(), nil
}

func envOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
