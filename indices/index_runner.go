package indices

import (
	"os"

	cron "github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const DefaultSyncSchedule = "0 0 23 * * ?"

// StartCron schedules the full sync with INDEX_SYNC_CRON, a six field cron expression.
func StartCron() (*cron.Cron, error) {
	schedule := os.Getenv("INDEX_SYNC_CRON")
	if schedule == "" {
		schedule = DefaultSyncSchedule
	}
	crontab := cron.New(cron.WithSeconds())
	if _, err := crontab.AddFunc(schedule, runScheduledSync); err != nil {
		return nil, err
	}
	crontab.Start()
	logrus.Infof("indices full sync scheduled at '%s'", schedule)
	return crontab, nil
}

func runScheduledSync() {
	lock.Lock()
	if running {
		lock.Unlock()
		logrus.Infoln("indices full sync skipped, another run is in progress")
		return
	}
	running = true
	lock.Unlock()

	defer func() {
		lock.Lock()
		running = false
		lock.Unlock()
	}()
	if err := IndicesFullSyncFunc(false); err != nil {
		logrus.Errorf("scheduled indices full sync failed: %v", err)
	}
}
