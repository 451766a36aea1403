package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/grupoterrena/terrena-api/internal/models"
	"github.com/grupoterrena/terrena-api/internal/repository"
	"github.com/grupoterrena/terrena-api/internal/services"
)

type UnitHandler struct {
	unitService *services.UnitService
}

func NewUnitHandler(unitService *services.UnitService) *UnitHandler {
	return &UnitHandler{unitService: unitService}
}

// @Summary List Units
// @Description Get a paginated list of units
// @Tags Units
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param search_term query string false "Search term"
// @Param status query string false "Filter by status"
// @Success 200 {object} map[string]interface{}
// @Router /units [get]
func (h *UnitHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Search = c.Query("search_term")
	if status := c.Query("status"); status != "" {
		query.Filters["status"] = status
	}

	units, total, err := h.unitService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	var responses []interface{}
	for i := range units {
		responses = append(responses, units[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"units": responses,
		"pagination": gin.H{
			"page":     query.Page,
			"per_page": query.PerPage,
			"total":    total,
		},
	})
}

func (h *UnitHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("unit_id"), 10, 32)
	unit, err := h.unitService.FindByID(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unit": unit.ToResponse()})
}

func (h *UnitHandler) Create(c *gin.Context) {
	var unit models.Unit
	if err := BindNestedOrFlat(c, "unit", &unit); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.unitService.Create(c.Request.Context(), &unit, actorFrom(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"unit": unit.ToResponse()})
}

func (h *UnitHandler) Update(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("unit_id"), 10, 32)
	var unit models.Unit
	if err := BindNestedOrFlat(c, "unit", &unit); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	unit.ID = uint(id)

	if err := h.unitService.Update(c.Request.Context(), &unit, actorFrom(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unit": unit.ToResponse()})
}

// ActiveSale returns the sale currently holding the unit
func (h *UnitHandler) ActiveSale(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("unit_id"), 10, 32)
	sale, err := h.unitService.ActiveSale(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sale": sale.ToResponse()})
}
