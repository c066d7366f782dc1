// File: /controllers/bike_controller.go
package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"bikerental-api/models"
	"bikerental-api/repositories"
	"bikerental-api/utils"
)

type BikeController struct {
	bikes  *repositories.BikeRepository
	clock  clockwork.Clock
	logger *zap.Logger
}

func NewBikeController(bikes *repositories.BikeRepository, clock clockwork.Clock, logger *zap.Logger) *BikeController {
	return &BikeController{bikes: bikes, clock: clock, logger: logger}
}

func (bc *BikeController) GetBikes(c *gin.Context) {
	page, limit := utils.Pagination(c)
	filter := models.BikeFilter{
		Search: c.Query("search"),
		Brand:  c.Query("brand"),
		Model:  c.Query("model"),
		Year:   c.Query("year"),
		Color:  c.Query("color"),
		Start:  c.Query("start"),
		Status: strings.ToUpper(c.Query("status")),
		Page:   page,
		Limit:  limit,
	}
	if raw := c.Query("location_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"location_id": []string{"Enter a valid number."}})
			return
		}
		locationID := uint(id)
		filter.LocationID = &locationID
	}
	if raw := c.Query("price"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"price": []string{"Enter a number."}})
			return
		}
		filter.Price = &price
	}
	if raw := c.Query("date"); raw != "" {
		day, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"date": []string{"Enter a valid date (YYYY-MM-DD)."}})
			return
		}
		filter.Date = &day
	}

	bikes, total, err := bc.bikes.List(filter)
	if err != nil {
		bc.logger.Error("list bikes failed", zap.Error(err))
		utils.SendError(c, http.StatusInternalServerError, "Failed to fetch bikes")
		return
	}

	utils.SendPaginated(c, bikes, page, limit, total)
}

func (bc *BikeController) GetBike(c *gin.Context) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		utils.SendDetail(c, http.StatusNotFound, "Bike does not exist.")
		return
	}

	bike, err := bc.bikes.FindByID(id)
	if err != nil {
		bc.handleLookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, bike)
}

func (bc *BikeController) CreateBike(c *gin.Context) {
	var req models.CreateBikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err)
		return
	}
	if !req.Price.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"price": []string{"Ensure this value is greater than 0."}})
		return
	}
	if !bc.checkLocation(c, req.LocationID) {
		return
	}

	bike := models.Bike{
		Brand:       req.Brand,
		Model:       req.Model,
		Year:        req.Year,
		Color:       req.Color,
		Start:       req.Start,
		Price:       req.Price.Round(2),
		Description: req.Description,
		Image:       req.Image,
		Status:      req.Status,
		LocationID:  req.LocationID,
	}
	if bike.Status == "" {
		bike.Status = models.BikeStatusAvailable
	}
	if req.Date != nil {
		bike.Date = req.Date.UTC()
	} else {
		bike.Date = bc.clock.Now().UTC()
	}

	if err := bc.bikes.Create(&bike); err != nil {
		bc.logger.Error("create bike failed", zap.Error(err))
		utils.SendError(c, http.StatusInternalServerError, "Failed to create bike")
		return
	}

	created, err := bc.bikes.FindByID(bike.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	bc.logger.Info("bike created", zap.Uint("bike_id", bike.ID))
	c.JSON(http.StatusCreated, created)
}

func (bc *BikeController) UpdateBike(c *gin.Context) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		utils.SendDetail(c, http.StatusNotFound, "Bike does not exist.")
		return
	}

	var req models.UpdateBikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err)
		return
	}
	if req.Price != nil {
		if !req.Price.IsPositive() {
			c.JSON(http.StatusBadRequest, gin.H{"price": []string{"Ensure this value is greater than 0."}})
			return
		}
		rounded := req.Price.Round(2)
		req.Price = &rounded
	}
	if !bc.checkLocation(c, req.LocationID) {
		return
	}

	bike, err := bc.bikes.Update(id, req.Updates())
	if err != nil {
		bc.handleLookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, bike)
}

func (bc *BikeController) DeleteBike(c *gin.Context) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		utils.SendDetail(c, http.StatusNotFound, "Bike does not exist.")
		return
	}

	if err := bc.bikes.Delete(id); err != nil {
		bc.handleLookupError(c, err)
		return
	}

	bc.logger.Info("bike deleted", zap.Uint("bike_id", id))
	c.Status(http.StatusNoContent)
}

// checkLocation writes a 400 and returns false when locationID points
// nowhere.
func (bc *BikeController) checkLocation(c *gin.Context, locationID *uint) bool {
	if locationID == nil {
		return true
	}
	exists, err := bc.bikes.LocationExists(*locationID)
	if err != nil {
		_ = c.Error(err)
		return false
	}
	if !exists {
		c.JSON(http.StatusBadRequest, gin.H{"location_id": []string{"Location does not exist."}})
		return false
	}
	return true
}

func (bc *BikeController) handleLookupError(c *gin.Context, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.SendDetail(c, http.StatusNotFound, "Bike does not exist.")
		return
	}
	_ = c.Error(err)
}
