package services

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"

	"bikerental-api/models"
	"bikerental-api/repositories"
)

var ErrInvalidWeek = errors.New("week must be between 1 and the number of ISO weeks in the year")

const newUserWindow = 30 * 24 * time.Hour

// AnalyticsService computes dashboard figures. Day, week and month
// boundaries are taken in loc.
type AnalyticsService struct {
	reports *repositories.ReportRepository
	clock   clockwork.Clock
	loc     *time.Location
}

func NewAnalyticsService(reports *repositories.ReportRepository, clock clockwork.Clock, loc *time.Location) *AnalyticsService {
	return &AnalyticsService{reports: reports, clock: clock, loc: loc}
}

func (s *AnalyticsService) now() time.Time {
	return s.clock.Now().In(s.loc)
}

func (s *AnalyticsService) startOfDay(t time.Time) time.Time {
	y, m, d := t.In(s.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

// CurrentYear is the default for the yearly reports.
func (s *AnalyticsService) CurrentYear() int {
	return s.now().Year()
}

// CurrentWeek is the default for the weekly report.
func (s *AnalyticsService) CurrentWeek() (year, week int) {
	return s.now().ISOWeek()
}

func (s *AnalyticsService) QuickStats() (*models.QuickStats, error) {
	totalBikes, err := s.reports.CountBikes()
	if err != nil {
		return nil, fmt.Errorf("count bikes: %w", err)
	}
	active, err := s.reports.CountRentalsByStatus(models.RentalStatusActive)
	if err != nil {
		return nil, fmt.Errorf("count active rentals: %w", err)
	}

	now := s.now()
	newUsers, err := s.reports.CountUsersJoined(now.Add(-newUserWindow), now.Add(time.Nanosecond))
	if err != nil {
		return nil, fmt.Errorf("count new users: %w", err)
	}

	today := s.startOfDay(now)
	revenue, err := s.reports.SumRevenue(today, today.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	return &models.QuickStats{
		TotalBikes:    totalBikes,
		ActiveRentals: active,
		NewUsers:      newUsers,
		TodaysRevenue: revenue,
	}, nil
}

func (s *AnalyticsService) monthRange(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, s.loc)
	return start, start.AddDate(0, 1, 0)
}

// MonthlyRentalCounts returns twelve entries, January first.
func (s *AnalyticsService) MonthlyRentalCounts(year int) ([]models.MonthlyRentalCount, error) {
	data := make([]models.MonthlyRentalCount, 0, 12)
	for month := time.January; month <= time.December; month++ {
		from, to := s.monthRange(year, month)
		count, err := s.reports.CountRentalsPickedUp(from, to)
		if err != nil {
			return nil, fmt.Errorf("count rentals for %s %d: %w", month, year, err)
		}
		data = append(data, models.MonthlyRentalCount{
			Month:   month.String()[:3],
			Rentals: count,
		})
	}
	return data, nil
}

// MonthlyRevenue returns rentals and revenue per month of year.
func (s *AnalyticsService) MonthlyRevenue(year int) ([]models.MonthlyRevenue, error) {
	data := make([]models.MonthlyRevenue, 0, 12)
	for month := time.January; month <= time.December; month++ {
		from, to := s.monthRange(year, month)
		count, err := s.reports.CountRentalsPickedUp(from, to)
		if err != nil {
			return nil, fmt.Errorf("count rentals for %s %d: %w", month, year, err)
		}
		revenue, err := s.reports.SumRevenue(from, to)
		if err != nil {
			return nil, err
		}
		data = append(data, models.MonthlyRevenue{
			Month:   month.String()[:3],
			Rentals: count,
			Revenue: revenue,
		})
	}
	return data, nil
}

// HourlyUsage counts distinct active users per hour of today. Hours without
// activity are omitted.
func (s *AnalyticsService) HourlyUsage() ([]models.HourlyUsage, error) {
	start := s.startOfDay(s.now())
	activities, err := s.reports.ActivitiesBetween(start, start.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("load activities: %w", err)
	}

	users := map[int]map[string]struct{}{}
	for _, a := range activities {
		hour := a.Timestamp.In(s.loc).Hour()
		if users[hour] == nil {
			users[hour] = map[string]struct{}{}
		}
		users[hour][a.UserID] = struct{}{}
	}

	hours := make([]int, 0, len(users))
	for h := range users {
		hours = append(hours, h)
	}
	sort.Ints(hours)

	data := make([]models.HourlyUsage, 0, len(hours))
	for _, h := range hours {
		label := time.Date(start.Year(), start.Month(), start.Day(), h, 0, 0, 0, s.loc).Format("03 PM")
		data = append(data, models.HourlyUsage{Hour: label, Users: int64(len(users[h]))})
	}
	return data, nil
}

// BikeDistribution counts bikes per status in chart order.
func (s *AnalyticsService) BikeDistribution() ([]models.ChartPoint, error) {
	data := make([]models.ChartPoint, 0, len(models.BikeStatuses))
	for _, st := range models.BikeStatuses {
		count, err := s.reports.CountBikesByStatus(st.Status)
		if err != nil {
			return nil, fmt.Errorf("count %s bikes: %w", st.Status, err)
		}
		data = append(data, models.ChartPoint{Name: st.Label, Value: count})
	}
	return data, nil
}

// ISOWeekStart returns Monday 00:00 of the given ISO week in loc.
func ISOWeekStart(year, week int, loc *time.Location) time.Time {
	// January 4th always falls in week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, loc)
	offset := (int(jan4.Weekday()) + 6) % 7
	return jan4.AddDate(0, 0, -offset+(week-1)*7)
}

// ISOWeeksInYear returns 52 or 53.
func ISOWeeksInYear(year int) int {
	_, week := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return week
}

// WeeklyUsers returns, for each day of the ISO week, how many users last
// logged in and how many joined that day.
func (s *AnalyticsService) WeeklyUsers(year, week int) ([]models.DailyUserCount, error) {
	if week < 1 || week > ISOWeeksInYear(year) {
		return nil, ErrInvalidWeek
	}

	start := ISOWeekStart(year, week, s.loc)
	data := make([]models.DailyUserCount, 0, 7)
	for day := 0; day < 7; day++ {
		from := start.AddDate(0, 0, day)
		to := from.AddDate(0, 0, 1)

		active, err := s.reports.CountUsersLoggedIn(from, to)
		if err != nil {
			return nil, fmt.Errorf("count active users: %w", err)
		}
		joined, err := s.reports.CountUsersJoined(from, to)
		if err != nil {
			return nil, fmt.Errorf("count new users: %w", err)
		}
		data = append(data, models.DailyUserCount{
			Name:   from.Format("Mon"),
			Active: active,
			New:    joined,
		})
	}
	return data, nil
}

// PaymentMethodStats groups payment counts into the four dashboard
// categories.
func (s *AnalyticsService) PaymentMethodStats() ([]models.ChartPoint, error) {
	counts, err := s.reports.CountPaymentsByMethod()
	if err != nil {
		return nil, err
	}

	totals := map[string]int64{}
	for _, method := range models.PaymentMethods {
		totals[method.Category()] += counts[method]
	}

	data := make([]models.ChartPoint, 0, len(models.PaymentCategories))
	for _, name := range models.PaymentCategories {
		data = append(data, models.ChartPoint{Name: name, Value: totals[name]})
	}
	return data, nil
}
