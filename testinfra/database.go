package testinfra

import (
	"ieflow/persistence"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type TestDatabase struct {
	TestDatabaseName string
	DS               *persistence.DataSourceManager

	driverType string
	filePath   string
}

// StartTestDatabase starts a mysql database when TEST_DB_DRIVER=mysql, otherwise a sqlite file database.
func StartTestDatabase(baseName string) *TestDatabase {
	if os.Getenv("TEST_DB_DRIVER") == persistence.DriverMysql {
		return StartMysqlTestDatabase(baseName)
	}
	return StartSqliteTestDatabase(baseName)
}

func StopTestDatabase(testDatabase *TestDatabase) {
	if testDatabase == nil {
		return
	}
	if testDatabase.driverType == persistence.DriverMysql {
		StopMysqlTestDatabase(testDatabase)
		return
	}
	StopSqliteTestDatabase(testDatabase)
}

func StartSqliteTestDatabase(baseName string) *TestDatabase {
	databaseName := testDatabaseName(baseName)
	filePath := filepath.Join(os.TempDir(), databaseName+".db")
	dbConfig := &persistence.DatabaseConfig{
		DriverType: persistence.DriverSqlite, DriverArgs: "file:" + filePath + "?_busy_timeout=5000&_foreign_keys=0",
	}

	ds := &persistence.DataSourceManager{DatabaseConfig: dbConfig}
	if err := ds.Start(); err != nil {
		defer ds.Stop()
		log.Fatalf("database connection failed %v\n", err)
	}
	return &TestDatabase{TestDatabaseName: databaseName, DS: ds, driverType: persistence.DriverSqlite, filePath: filePath}
}

func StopSqliteTestDatabase(testDatabase *TestDatabase) {
	if testDatabase == nil || testDatabase.DS == nil {
		return
	}
	testDatabase.DS.Stop()
	if err := os.Remove(testDatabase.filePath); err != nil {
		log.Println("failed to remove test database file: " + testDatabase.filePath)
	}
}

// StartMysqlTestDatabase TEST_MYSQL_SERVICE=root:root@(127.0.0.1:3306)
func StartMysqlTestDatabase(baseName string) *TestDatabase {
	mysqlSvc := os.Getenv("TEST_MYSQL_SERVICE")
	if mysqlSvc == "" {
		mysqlSvc = "root:root@(127.0.0.1:3306)"
	}
	databaseName := testDatabaseName(baseName)

	dbConfig := &persistence.DatabaseConfig{
		DriverType: persistence.DriverMysql, DriverArgs: mysqlSvc + "/" + databaseName + "?charset=utf8mb4&parseTime=True&loc=Local&timeout=5s&clientFoundRows=true",
	}

	// create database (no conflict)
	if err := persistence.PrepareMysqlDatabase(dbConfig.DriverArgs); err != nil {
		log.Fatalf("failed to prepare database %v\n", err)
	}

	ds := &persistence.DataSourceManager{DatabaseConfig: dbConfig}
	if err := ds.Start(); err != nil {
		defer ds.Stop()
		log.Fatalf("database connection failed %v\n", err)
	}

	return &TestDatabase{TestDatabaseName: databaseName, DS: ds, driverType: persistence.DriverMysql}
}

func StopMysqlTestDatabase(testDatabase *TestDatabase) {
	if testDatabase == nil || testDatabase.DS == nil {
		return
	}
	if db := testDatabase.DS.GormDB(nil); db != nil {
		if err := db.Exec("DROP DATABASE " + testDatabase.TestDatabaseName).Error; err != nil {
			log.Println("failed to drop test database: " + testDatabase.TestDatabaseName)
		} else {
			log.Println("test database " + testDatabase.TestDatabaseName + " dropped")
		}
	}
	testDatabase.DS.Stop()
}

func testDatabaseName(baseName string) string {
	return baseName + "_test_" + strings.ReplaceAll(uuid.New().String(), "-", "")
}
