// File: /controllers/analytics_controller.go
package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bikerental-api/services"
	"bikerental-api/utils"
)

type AnalyticsController struct {
	analytics *services.AnalyticsService
	logger    *zap.Logger
}

func NewAnalyticsController(analytics *services.AnalyticsService, logger *zap.Logger) *AnalyticsController {
	return &AnalyticsController{analytics: analytics, logger: logger}
}

func (ac *AnalyticsController) QuickStats(c *gin.Context) {
	stats, err := ac.analytics.QuickStats()
	if err != nil {
		ac.fail(c, "quick stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (ac *AnalyticsController) MonthlyRentals(c *gin.Context) {
	year, ok := queryInt(c, "year", ac.analytics.CurrentYear(), 1, 9999)
	if !ok {
		return
	}

	data, err := ac.analytics.MonthlyRentalCounts(year)
	if err != nil {
		ac.fail(c, "monthly rentals", err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (ac *AnalyticsController) HourlyUsage(c *gin.Context) {
	data, err := ac.analytics.HourlyUsage()
	if err != nil {
		ac.fail(c, "hourly usage", err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (ac *AnalyticsController) BikeDistribution(c *gin.Context) {
	data, err := ac.analytics.BikeDistribution()
	if err != nil {
		ac.fail(c, "bike distribution", err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (ac *AnalyticsController) MonthlyRevenue(c *gin.Context) {
	year, ok := queryInt(c, "year", ac.analytics.CurrentYear(), 1, 9999)
	if !ok {
		return
	}

	data, err := ac.analytics.MonthlyRevenue(year)
	if err != nil {
		ac.fail(c, "monthly revenue", err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (ac *AnalyticsController) WeeklyUsers(c *gin.Context) {
	currentYear, currentWeek := ac.analytics.CurrentWeek()
	year, ok := queryInt(c, "year", currentYear, 1, 9999)
	if !ok {
		return
	}
	week, ok := queryInt(c, "week", currentWeek, 1, 53)
	if !ok {
		return
	}

	data, err := ac.analytics.WeeklyUsers(year, week)
	if err != nil {
		if errors.Is(err, services.ErrInvalidWeek) {
			c.JSON(http.StatusBadRequest, gin.H{"week": []string{"Week " + strconv.Itoa(week) + " does not exist in " + strconv.Itoa(year) + "."}})
			return
		}
		ac.fail(c, "weekly users", err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (ac *AnalyticsController) PaymentMethods(c *gin.Context) {
	data, err := ac.analytics.PaymentMethodStats()
	if err != nil {
		ac.fail(c, "payment methods", err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (ac *AnalyticsController) fail(c *gin.Context, report string, err error) {
	ac.logger.Error("analytics query failed", zap.String("report", report), zap.Error(err))
	utils.SendError(c, http.StatusInternalServerError, "Failed to load "+report)
}

// queryInt reads an optional integer query parameter within [lo, hi].
// On bad input it writes a 400 and returns false.
func queryInt(c *gin.Context, name string, def, lo, hi int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{name: []string{"A valid integer is required."}})
		return 0, false
	}
	if v < lo || v > hi {
		c.JSON(http.StatusBadRequest, gin.H{name: []string{"Ensure this value is between " + strconv.Itoa(lo) + " and " + strconv.Itoa(hi) + "."}})
		return 0, false
	}
	return v, true
}
