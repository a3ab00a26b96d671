// Package analytics aggregates committed appointments into dashboard figures.
// Compute is pure; callers load the appointments and pass the reporting clock.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/interval"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
)

const (
	TrailingDays = 30
	TopN         = 5
)

type StatusBreakdown struct {
	Pending   int `json:"PENDING"`
	Confirmed int `json:"CONFIRMED"`
	Completed int `json:"COMPLETED"`
	Cancelled int `json:"CANCELLED"`
}

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type DayRevenue struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
}

type ServiceCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

type Report struct {
	TotalAppointments int             `json:"total_appointments"`
	StatusBreakdown   StatusBreakdown `json:"status_breakdown"`
	Revenue           float64         `json:"revenue"`
	AppointmentsByDay []DayCount      `json:"appointments_by_day"`
	RevenueByDay      []DayRevenue    `json:"revenue_by_day"`
	TopServices       []ServiceCount  `json:"top_services"`
	PeakHours         []HourCount     `json:"peak_hours"`
}

// Compute builds a Report. Records without a service or user are ignored
// entirely; records with a zero start time count toward totals but not toward
// any day or hour bucket. Days and hours are taken in loc.
func Compute(appts []model.AppointmentDetail, now time.Time, loc *time.Location) Report {
	if loc == nil {
		loc = time.UTC
	}

	days := trailingDays(now, loc)
	dayIndex := make(map[string]int, len(days))
	report := Report{
		AppointmentsByDay: make([]DayCount, len(days)),
		RevenueByDay:      make([]DayRevenue, len(days)),
		TopServices:       []ServiceCount{},
		PeakHours:         []HourCount{},
	}
	for i, d := range days {
		dayIndex[d] = i
		report.AppointmentsByDay[i] = DayCount{Date: d}
		report.RevenueByDay[i] = DayRevenue{Date: d}
	}

	serviceCounts := map[string]int{}
	var serviceOrder []string
	hourCounts := map[int]int{}

	for _, a := range appts {
		if a.Service == nil || a.User == nil {
			continue
		}
		report.TotalAppointments++

		switch a.Status {
		case model.StatusPending:
			report.StatusBreakdown.Pending++
		case model.StatusConfirmed:
			report.StatusBreakdown.Confirmed++
		case model.StatusCompleted:
			report.StatusBreakdown.Completed++
		case model.StatusCancelled:
			report.StatusBreakdown.Cancelled++
		}

		earned := earns(a.Status)
		price := priceOf(a.Service)
		if earned {
			report.Revenue += price
		}

		if name := a.Service.Name; name != "" {
			if _, seen := serviceCounts[name]; !seen {
				serviceOrder = append(serviceOrder, name)
			}
			serviceCounts[name]++
		}

		if a.StartTime.IsZero() {
			continue
		}
		local := a.StartTime.In(loc)
		hourCounts[local.Hour()]++
		if i, ok := dayIndex[local.Format(interval.DateLayout)]; ok {
			report.AppointmentsByDay[i].Count++
			if earned {
				report.RevenueByDay[i].Revenue += price
			}
		}
	}

	for _, name := range serviceOrder {
		report.TopServices = append(report.TopServices, ServiceCount{Name: name, Count: serviceCounts[name]})
	}
	sort.SliceStable(report.TopServices, func(i, j int) bool {
		return report.TopServices[i].Count > report.TopServices[j].Count
	})
	if len(report.TopServices) > TopN {
		report.TopServices = report.TopServices[:TopN]
	}

	// Ties between hours resolve to the earlier hour.
	for h := 0; h < 24; h++ {
		if c := hourCounts[h]; c > 0 {
			report.PeakHours = append(report.PeakHours, HourCount{Hour: h, Count: c})
		}
	}
	sort.SliceStable(report.PeakHours, func(i, j int) bool {
		return report.PeakHours[i].Count > report.PeakHours[j].Count
	})
	if len(report.PeakHours) > TopN {
		report.PeakHours = report.PeakHours[:TopN]
	}

	return report
}

func earns(s model.Status) bool {
	return s == model.StatusConfirmed || s == model.StatusCompleted
}

func priceOf(s *model.ServiceSummary) float64 {
	if s.Price == nil {
		return 0
	}
	p := *s.Price
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0
	}
	return p
}

// trailingDays returns TrailingDays local dates ending with now's date, oldest first.
func trailingDays(now time.Time, loc *time.Location) []string {
	y, m, d := now.In(loc).Date()
	out := make([]string, TrailingDays)
	for i := 0; i < TrailingDays; i++ {
		day := time.Date(y, m, d-(TrailingDays-1-i), 12, 0, 0, 0, loc)
		out[i] = day.Format(interval.DateLayout)
	}
	return out
}
