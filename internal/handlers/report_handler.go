package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/grupoterrena/terrena-api/internal/repository"
	"github.com/grupoterrena/terrena-api/internal/services"
)

type ReportHandler struct {
	reportService *services.ReportService
}

func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// OverdueCSV downloads the collections report of overdue installments
func (h *ReportHandler) OverdueCSV(c *gin.Context) {
	today := time.Now()
	if asOf := c.Query("as_of"); asOf != "" {
		parsed, err := time.Parse("2006-01-02", asOf)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "as_of inválida, formato esperado AAAA-MM-DD"})
			return
		}
		today = parsed
	}

	buf, err := h.reportService.GenerateOverdueCSV(c.Request.Context(), today)
	if err != nil {
		respondError(c, err)
		return
	}

	filename := "mora_" + today.Format("2006-01-02") + ".csv"
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

// SalesCSV downloads the sale list matching the query
func (h *ReportHandler) SalesCSV(c *gin.Context) {
	query := &repository.SaleQuery{ListQuery: repository.NewListQuery()}
	query.Status = c.Query("status")
	query.Search = c.Query("search_term")
	if clientID, err := strconv.ParseUint(c.Query("client_id"), 10, 32); err == nil {
		query.ClientID = uint(clientID)
	}

	buf, err := h.reportService.GenerateSalesCSV(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	filename := "ventas_" + time.Now().Format("2006-01-02") + ".csv"
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}
