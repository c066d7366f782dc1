// File: /controllers/location_controller.go
package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"bikerental-api/models"
	"bikerental-api/repositories"
	"bikerental-api/utils"
)

type LocationController struct {
	locations *repositories.LocationRepository
	logger    *zap.Logger
}

func NewLocationController(locations *repositories.LocationRepository, logger *zap.Logger) *LocationController {
	return &LocationController{locations: locations, logger: logger}
}

func (lc *LocationController) CreateLocation(c *gin.Context) {
	var req models.CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err)
		return
	}

	location := models.Location{
		City:      req.City,
		Address:   req.Address,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}
	if err := lc.locations.Create(&location); err != nil {
		lc.logger.Error("create location failed", zap.Error(err))
		utils.SendError(c, http.StatusInternalServerError, "Failed to create location")
		return
	}

	lc.logger.Info("location created", zap.Uint("location_id", location.ID), zap.String("city", location.City))
	utils.SendSuccess(c, http.StatusCreated, "Location Added Successfully.")
}

func (lc *LocationController) GetLocations(c *gin.Context) {
	locations, err := lc.locations.List()
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, locations)
}

func (lc *LocationController) GetLocation(c *gin.Context) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		utils.SendDetail(c, http.StatusNotFound, "Location does not exist.")
		return
	}

	location, err := lc.locations.FindByID(id)
	if err != nil {
		lc.handleLookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, location)
}

func (lc *LocationController) UpdateLocation(c *gin.Context) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		utils.SendDetail(c, http.StatusNotFound, "Location does not exist.")
		return
	}

	var req models.UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err)
		return
	}

	if _, err := lc.locations.Update(id, req.Updates()); err != nil {
		lc.handleLookupError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Location Updated Successfully.")
}

func (lc *LocationController) DeleteLocation(c *gin.Context) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		utils.SendDetail(c, http.StatusNotFound, "Location does not exist.")
		return
	}

	if err := lc.locations.Delete(id); err != nil {
		lc.handleLookupError(c, err)
		return
	}

	lc.logger.Info("location deleted", zap.Uint("location_id", id))
	c.Status(http.StatusNoContent)
}

// SearchLocations matches city by substring; an empty query lists all.
func (lc *LocationController) SearchLocations(c *gin.Context) {
	locations, err := lc.locations.Search(c.Query("search"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, locations)
}

func (lc *LocationController) handleLookupError(c *gin.Context, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.SendDetail(c, http.StatusNotFound, "Location does not exist.")
		return
	}
	_ = c.Error(err)
}
