package main

import (
	"ieflow/account"
	"ieflow/authority"
	"ieflow/domain"
	"ieflow/domain/performance"
	"ieflow/domain/shift"
	"ieflow/domain/workorder/workorderrest"
	"ieflow/es"
	"ieflow/event"
	"ieflow/indices"
	"ieflow/infra/tracing"
	"ieflow/persistence"
	"ieflow/servehttp"
	"ieflow/session"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Infof("no .env file loaded: %v", err)
	}
	logrus.Infoln("service start")

	closer, err := tracing.InitGlobalTracerFromEnv()
	if err != nil {
		logrus.Fatalf("tracer initialization failed %v", err)
	}
	defer closer.Close()

	dbConfig, err := persistence.ParseDatabaseConfigFromEnv()
	if err != nil {
		logrus.Fatalf("parse database config failed %v", err)
	}

	// create database (no conflict)
	if dbConfig.DriverType == persistence.DriverMysql {
		if err := persistence.PrepareMysqlDatabase(dbConfig.DriverArgs); err != nil {
			logrus.Fatalf("failed to prepare database %v", err)
		}
	}

	ds := &persistence.DataSourceManager{DatabaseConfig: dbConfig}
	if err := ds.Start(); err != nil {
		logrus.Fatalf("database connection failed %v", err)
	}
	defer ds.Stop()
	persistence.ActiveDataSourceManager = ds

	err = ds.GormDB(nil).AutoMigrate(&account.User{}, &domain.WorkOrder{}, &domain.WorkOrderMember{}, &domain.WorkOrderLog{},
		&domain.Shift{}, &domain.ShiftSchedule{}).Error
	if err != nil {
		logrus.Fatalf("database migration failed %v", err)
	}
	if err := account.DefaultSecurityConfiguration(); err != nil {
		logrus.Fatalf("default security configuration failed %v", err)
	}
	authority.ActivePolicy = authority.LoadPolicyFromEnv()

	engine := servehttp.NewEngine()
	auth := session.SimpleAuthFilter()

	account.RegisterSessionsHandler(engine, auth)
	account.RegisterUsersHandler(engine, auth)
	workorderrest.RegisterWorkOrdersRestAPI(engine, auth)
	shift.RegisterShiftsRestAPI(engine, auth)
	performance.RegisterPerformancesRestAPI(engine, auth)

	esClient, err := es.ConnectFromEnv()
	if err != nil {
		logrus.Fatalf("elasticsearch client creation failed %v", err)
	}
	if esClient != nil {
		event.EventHandlers = append(event.EventHandlers, indices.IndexWorkOrderEventHandle)
		indices.RegisterIndicesRestAPI(engine, auth)
		crontab, err := indices.StartCron()
		if err != nil {
			logrus.Fatalf("indices cron start failed %v", err)
		}
		defer crontab.Stop()
	}

	servehttp.StartHTTPServer(engine)
}
