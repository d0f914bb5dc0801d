package performance

import (
	"ieflow/domain"
	"math"
	"sort"

	"github.com/fundwit/go-commons/types"
)

const minutesPerDay = 24 * 60

// ScheduledShift is one shift-schedule row joined with its shift.
type ScheduledShift struct {
	ShiftID   types.ID
	Name      string
	StartTime string
	EndTime   string
	Day       string
}

// Completion is the part of a completed work order that accounting reads.
type Completion struct {
	WorkOrderID     types.ID
	ShiftID         *types.ID
	ShiftName       string
	RealizedMinutes int
}

type PeriodStat struct {
	AvailableMinutes         int `json:"availableMinutes"`
	CompletedMinutes         int `json:"completedMinutes"`
	CompletedCount           int `json:"completedCount"`
	WorkRate                 int `json:"workRate"`
	AverageCompletionMinutes int `json:"averageCompletionMinutes"`
}

type ShiftStat struct {
	ShiftID   *types.ID `json:"shiftId"`
	ShiftName string    `json:"shiftName"`
	Scheduled bool      `json:"scheduled"`
	PeriodStat
}

// ShiftMinutes returns the length of a shift, wrapping past midnight when end is not after start.
func ShiftMinutes(start, end string) (int, error) {
	s, err := domain.ParseClock(start)
	if err != nil {
		return 0, err
	}
	e, err := domain.ParseClock(end)
	if err != nil {
		return 0, err
	}
	if e > s {
		return e - s, nil
	}
	return minutesPerDay - s + e, nil
}

func WorkRate(completedMinutes, availableMinutes int) int {
	if availableMinutes <= 0 || completedMinutes <= 0 {
		return 0
	}
	return int(math.Round(float64(completedMinutes) / float64(availableMinutes) * 100))
}

func Summarize(schedules []ScheduledShift, completions []Completion) (PeriodStat, error) {
	stat := PeriodStat{}
	for _, s := range schedules {
		minutes, err := ShiftMinutes(s.StartTime, s.EndTime)
		if err != nil {
			return PeriodStat{}, err
		}
		stat.AvailableMinutes += minutes
	}
	addCompletions(&stat, completions)
	return stat, nil
}

// BreakdownByShift partitions the completions of one day by their shift tag.
// Only scheduled shifts contribute available minutes, completions tagged with another shift
// are still reported with zero availability. Untagged completions are grouped last with a nil shift id.
func BreakdownByShift(schedules []ScheduledShift, completions []Completion) ([]ShiftStat, error) {
	var stats []*ShiftStat
	index := map[types.ID]*ShiftStat{}
	for _, s := range schedules {
		minutes, err := ShiftMinutes(s.StartTime, s.EndTime)
		if err != nil {
			return nil, err
		}
		stat, found := index[s.ShiftID]
		if !found {
			id := s.ShiftID
			stat = &ShiftStat{ShiftID: &id, ShiftName: s.Name, Scheduled: true}
			index[s.ShiftID] = stat
			stats = append(stats, stat)
		}
		stat.AvailableMinutes += minutes
	}

	grouped := map[types.ID][]Completion{}
	var untagged []Completion
	for _, c := range completions {
		if c.ShiftID == nil || *c.ShiftID == 0 {
			untagged = append(untagged, c)
			continue
		}
		if _, found := index[*c.ShiftID]; !found {
			id := *c.ShiftID
			stat := &ShiftStat{ShiftID: &id, ShiftName: c.ShiftName}
			index[id] = stat
			stats = append(stats, stat)
		}
		grouped[*c.ShiftID] = append(grouped[*c.ShiftID], c)
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].Scheduled != stats[j].Scheduled {
			return stats[i].Scheduled
		}
		return *stats[i].ShiftID < *stats[j].ShiftID
	})

	result := make([]ShiftStat, 0, len(stats)+1)
	for _, stat := range stats {
		addCompletions(&stat.PeriodStat, grouped[*stat.ShiftID])
		result = append(result, *stat)
	}
	if len(untagged) > 0 {
		stat := ShiftStat{}
		addCompletions(&stat.PeriodStat, untagged)
		result = append(result, stat)
	}
	return result, nil
}

func addCompletions(stat *PeriodStat, completions []Completion) {
	for _, c := range completions {
		stat.CompletedMinutes += c.RealizedMinutes
		stat.CompletedCount++
	}
	if stat.CompletedCount > 0 {
		stat.AverageCompletionMinutes = int(math.Round(float64(stat.CompletedMinutes) / float64(stat.CompletedCount)))
	}
	stat.WorkRate = WorkRate(stat.CompletedMinutes, stat.AvailableMinutes)
}
