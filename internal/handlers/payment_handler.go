package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/grupoterrena/terrena-api/internal/repository"
	"github.com/grupoterrena/terrena-api/internal/services"
)

type PaymentHandler struct {
	saleService *services.SaleService
}

func NewPaymentHandler(saleService *services.SaleService) *PaymentHandler {
	return &PaymentHandler{saleService: saleService}
}

// @Summary List Payments
// @Description Get a paginated list of ledger entries
// @Tags Payments
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param kind query string false "Filter by kind"
// @Success 200 {object} map[string]interface{}
// @Router /payments [get]
func (h *PaymentHandler) Index(c *gin.Context) {
	query := &repository.PaymentQuery{ListQuery: repository.NewListQuery()}
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Search = c.Query("search_term")
	query.Kind = c.Query("kind")
	if saleID, err := strconv.ParseUint(c.Query("sale_id"), 10, 32); err == nil {
		query.SaleID = uint(saleID)
	}
	if clientID, err := strconv.ParseUint(c.Query("client_id"), 10, 32); err == nil {
		query.ClientID = uint(clientID)
	}

	payments, total, err := h.saleService.ListPayments(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	var responses []interface{}
	for i := range payments {
		responses = append(responses, payments[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"payments": responses,
		"pagination": gin.H{
			"page":     query.Page,
			"per_page": query.PerPage,
			"total":    total,
		},
	})
}

// Overdue lists overdue installments as of today or an explicit as_of date.
// Overdue truth comes from due dates, never from the stored status flag.
func (h *PaymentHandler) Overdue(c *gin.Context) {
	today := time.Now()
	if asOf := c.Query("as_of"); asOf != "" {
		parsed, err := time.Parse("2006-01-02", asOf)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "as_of inválida, formato esperado AAAA-MM-DD"})
			return
		}
		today = parsed
	}

	overdue, err := h.saleService.FindOverdueInstallments(c.Request.Context(), today)
	if err != nil {
		respondError(c, err)
		return
	}

	var responses []gin.H
	var totalOutstanding float64
	for i := range overdue {
		inst := &overdue[i]
		entry := gin.H{
			"installment": inst.ToResponseAt(today),
		}
		if inst.Sale.ID != 0 {
			entry["sale_guid"] = inst.Sale.GUID
			if inst.Sale.Client.ID != 0 {
				entry["client_name"] = inst.Sale.Client.FullName
				entry["client_phone"] = inst.Sale.Client.Phone
			}
		}
		responses = append(responses, entry)
		totalOutstanding += inst.Outstanding()
	}

	c.JSON(http.StatusOK, gin.H{
		"overdue":           responses,
		"count":             len(responses),
		"total_outstanding": totalOutstanding,
		"as_of":             today.Format("2006-01-02"),
	})
}
