package analytics

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"linketron/internal/storage"
)

// KindStats считает исходы одного типа событий
type KindStats struct {
	OK     int `json:"ok"`
	Failed int `json:"failed"`
}

// UserStats содержит статистику по пользователю
type UserStats struct {
	UserID    int64 `json:"user_id"`
	Research  int   `json:"research"`
	Drafts    int   `json:"drafts"`
	Publishes int   `json:"publishes"`
	Failures  int   `json:"failures"`
}

// DailyStats содержит статистику за день
type DailyStats struct {
	Date        string                     `json:"date"`
	TotalEvents int                        `json:"total_events"`
	UniqueUsers int                        `json:"unique_users"`
	ByKind      map[storage.Kind]KindStats `json:"by_kind"`
	UserStats   map[int64]UserStats        `json:"user_stats"`
}

// AnalyzeDailyLogs анализирует журнал за указанную дату
func AnalyzeDailyLogs(events []storage.Event, targetDate time.Time) *DailyStats {
	startOfDay := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, targetDate.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	stats := &DailyStats{
		Date:      startOfDay.Format("2006-01-02"),
		ByKind:    make(map[storage.Kind]KindStats),
		UserStats: make(map[int64]UserStats),
	}

	for _, event := range events {
		if event.Timestamp.Before(startOfDay) || !event.Timestamp.Before(endOfDay) {
			continue
		}
		stats.TotalEvents++

		ks := stats.ByKind[event.Kind]
		us, ok := stats.UserStats[event.UserID]
		if !ok {
			us = UserStats{UserID: event.UserID}
		}
		if event.OK {
			ks.OK++
		} else {
			ks.Failed++
			us.Failures++
		}
		switch event.Kind {
		case storage.KindResearch:
			us.Research++
		case storage.KindDraft:
			us.Drafts++
		case storage.KindPublish:
			if event.OK {
				us.Publishes++
			}
		}
		stats.ByKind[event.Kind] = ks
		stats.UserStats[event.UserID] = us
	}

	stats.UniqueUsers = len(stats.UserStats)
	return stats
}

// Kinds returns the event kinds present, sorted.
func (ds *DailyStats) Kinds() []storage.Kind {
	out := make([]storage.Kind, 0, len(ds.ByKind))
	for k := range ds.ByKind {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Users returns per-user stats ordered by user id.
func (ds *DailyStats) Users() []UserStats {
	out := make([]UserStats, 0, len(ds.UserStats))
	for _, u := range ds.UserStats {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// GenerateReportSummary создает текстовый отчет для администратора
func (ds *DailyStats) GenerateReportSummary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Linketron activity for %s\n\n", ds.Date)
	fmt.Fprintf(&b, "Events: %d\nUnique users: %d\n", ds.TotalEvents, ds.UniqueUsers)

	if len(ds.ByKind) > 0 {
		b.WriteString("\nBy step:\n")
		for _, k := range ds.Kinds() {
			ks := ds.ByKind[k]
			fmt.Fprintf(&b, "- %s: %d ok, %d failed\n", k, ks.OK, ks.Failed)
		}
	}
	if len(ds.UserStats) > 0 {
		fmt.Fprintf(&b, "\nUsers (%d):\n", len(ds.UserStats))
		for _, u := range ds.Users() {
			fmt.Fprintf(&b, "- %d: %d research, %d drafts, %d published", u.UserID, u.Research, u.Drafts, u.Publishes)
			if u.Failures > 0 {
				fmt.Fprintf(&b, ", %d failures", u.Failures)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// ToJSON сериализует статистику в JSON для детального анализа
func (ds *DailyStats) ToJSON() (string, error) {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
