package indices

import (
	"context"
	"fmt"
	"ieflow/authority"
	"ieflow/bizerror"
	"ieflow/domain"
	"ieflow/domain/workorder"
	"ieflow/es"
	"ieflow/event"
	"ieflow/session"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	SyncStarted     = "started"
	SyncRunning     = "already running"
	SyncRateLimited = "request rate limited"
)

var (
	WorkOrderIndexEventHandlerName = "workOrderIndexer"
	indexRobot                     = &session.Session{
		Identity: session.Identity{ID: 10, Name: "index-robot", Role: authority.RoleAdmin},
		Context:  context.Background(),
	}

	lock    sync.Mutex
	running bool

	syncRequestLimiter = rate.NewLimiter(rate.Every(time.Minute), 1)

	SyncBatchSize = 500

	IndicesFullSyncFunc    = IndicesFullSync
	ScheduleNewSyncRunFunc = ScheduleNewSyncRun
)

// ScheduleNewSyncRun starts a full sync in background, a rebuild drops the index first.
func ScheduleNewSyncRun(rebuild bool, sec *session.Session) (string, error) {
	if !authority.ActivePolicy.IsManager(&sec.Identity) {
		return "", bizerror.ErrForbidden
	}
	if !syncRequestLimiter.Allow() {
		return SyncRateLimited, nil
	}

	lock.Lock()
	if running {
		lock.Unlock()
		return SyncRunning, nil
	}
	running = true
	lock.Unlock()

	waitRunning := sync.WaitGroup{}
	waitRunning.Add(1)
	go func() {
		waitRunning.Done()
		defer func() {
			lock.Lock()
			running = false
			lock.Unlock()
		}()
		if err := IndicesFullSyncFunc(rebuild); err != nil {
			logrus.Errorf("indices full sync requested by %s failed: %v", sec.Identity.DisplayName(), err)
		}
	}()
	waitRunning.Wait()
	return SyncStarted, nil
}

func IndicesFullSync(rebuild bool) (err error) {
	defer func() {
		if ret := recover(); ret != nil {
			e, ok := ret.(error)
			if ok {
				err = e
			} else {
				err = fmt.Errorf("error on indices full sync: %v", ret)
			}
		}
	}()

	if rebuild {
		if err := es.ResetWorkOrdersFunc(indexRobot); err != nil {
			return err
		}
	}

	page := 1
	for {
		orders, err := workorder.LoadWorkOrdersFunc(page, SyncBatchSize, indexRobot)
		if err != nil {
			return fmt.Errorf("load work orders (page = %d, pageSize = %d): %w", page, SyncBatchSize, err)
		}
		if len(orders) == 0 {
			logrus.Infof("indices fully sync: %d pages of work orders indexed", page-1)
			return nil
		}
		if err := IndexWorkOrders(orders, indexRobot); err != nil {
			logrus.Warnf("indices fully sync: error on index work orders (page = %d, pageSize = %d): %v", page, SyncBatchSize, err)
		}
		page++
	}
}

func IndexWorkOrderEventHandle(e *event.Event) *event.EventHandleResult {
	if e.SourceType != workorder.EventSourceType {
		return nil
	}

	if e.EventCategory == event.EventCategoryDeleted {
		if err := es.RemoveWorkOrderFunc(e.SourceId, indexRobot); err != nil {
			return &event.EventHandleResult{
				Message:           fmt.Sprintf("delete work order index %d, %v", e.SourceId, err),
				HandlerIdentifier: WorkOrderIndexEventHandlerName,
			}
		}
		return &event.EventHandleResult{Success: true, HandlerIdentifier: WorkOrderIndexEventHandlerName}
	}

	detail, err := workorder.DetailWorkOrderFunc(e.SourceId.String(), indexRobot)
	if err != nil {
		return &event.EventHandleResult{
			Message:           fmt.Sprintf("detail work order when index work order %d, %v", e.SourceId, err),
			HandlerIdentifier: WorkOrderIndexEventHandlerName,
		}
	}
	if err := IndexWorkOrders([]domain.WorkOrderDetail{*detail}, indexRobot); err != nil {
		return &event.EventHandleResult{
			Message:           fmt.Sprintf("index work order %d, %v", e.SourceId, err),
			HandlerIdentifier: WorkOrderIndexEventHandlerName,
		}
	}
	return &event.EventHandleResult{Success: true, HandlerIdentifier: WorkOrderIndexEventHandlerName}
}
