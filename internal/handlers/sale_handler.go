package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/grupoterrena/terrena-api/internal/repository"
	"github.com/grupoterrena/terrena-api/internal/services"
)

type SaleHandler struct {
	saleService   *services.SaleService
	reportService *services.ReportService
	exportService *services.ExportService
}

func NewSaleHandler(saleService *services.SaleService, reportService *services.ReportService, exportService *services.ExportService) *SaleHandler {
	return &SaleHandler{
		saleService:   saleService,
		reportService: reportService,
		exportService: exportService,
	}
}

// @Summary List Sales
// @Description Get a paginated list of sales
// @Tags Sales
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param search_term query string false "Search term"
// @Param status query string false "Filter by status"
// @Success 200 {object} map[string]interface{}
// @Router /sales [get]
func (h *SaleHandler) Index(c *gin.Context) {
	query := &repository.SaleQuery{ListQuery: repository.NewListQuery()}
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Search = c.Query("search_term")
	query.Status = c.Query("status")
	if clientID, err := strconv.ParseUint(c.Query("client_id"), 10, 32); err == nil {
		query.ClientID = uint(clientID)
	}
	if statusIn := c.Query("status_in"); statusIn != "" {
		query.Filters["status_in"] = statusIn
	}

	sales, total, err := h.saleService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	var responses []interface{}
	for i := range sales {
		responses = append(responses, sales[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"sales": responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// @Summary Get Sale Stats
// @Tags Sales
// @Produce json
// @Success 200 {object} repository.SaleStats
// @Router /sales/stats [get]
func (h *SaleHandler) GetStats(c *gin.Context) {
	stats, err := h.saleService.GetStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *SaleHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("sale_id"), 10, 32)
	sale, err := h.saleService.FindByIDWithDetails(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sale": sale.ToResponse()})
}

type CreateSaleRequest struct {
	ClientID          uint    `json:"client_id" binding:"required"`
	UnitIDs           []uint  `json:"unit_ids" binding:"required"`
	PaymentMode       string  `json:"payment_mode" binding:"required"`
	ReservationAmount float64 `json:"reservation_amount"`
	DeadlineDate      *string `json:"deadline_date"`
	MonthCount        int     `json:"month_count"`
	MonthlyAmount     float64 `json:"monthly_amount"`
	Note              *string `json:"note"`
}

// @Summary Create Sale
// @Description Reserve units and open a sale awaiting payment
// @Tags Sales
// @Accept json
// @Produce json
// @Param request body CreateSaleRequest true "Sale Data"
// @Success 201 {object} models.SaleResponse
// @Router /sales [post]
func (h *SaleHandler) Create(c *gin.Context) {
	var req CreateSaleRequest
	if err := BindNestedOrFlat(c, "sale", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := &services.CreateSaleInput{
		ClientID:          req.ClientID,
		UnitIDs:           req.UnitIDs,
		PaymentMode:       req.PaymentMode,
		ReservationAmount: req.ReservationAmount,
		MonthCount:        req.MonthCount,
		MonthlyAmount:     req.MonthlyAmount,
		Note:              req.Note,
		Actor:             actorFrom(c),
	}
	if req.DeadlineDate != nil {
		deadline, err := time.Parse("2006-01-02", *req.DeadlineDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "deadline_date inválida, formato esperado AAAA-MM-DD"})
			return
		}
		input.DeadlineDate = &deadline
	}

	sale, err := h.saleService.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"sale": sale.ToResponse()})
}

type ConfirmFullRequest struct {
	UnitID *uint `json:"unit_id"`
}

// ConfirmFull confirms the full payment of a sale. unit_id is required when
// the sale bundles more than one unit.
func (h *SaleHandler) ConfirmFull(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("sale_id"), 10, 32)
	var req ConfirmFullRequest
	_ = BindNestedOrFlat(c, "sale", &req)

	sale, err := h.saleService.ConfirmFull(c.Request.Context(), uint(id), req.UnitID, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sale": sale.ToResponse()})
}

type ConfirmAdvanceRequest struct {
	AdvanceAmount float64 `json:"advance_amount"`
	StartDate     string  `json:"start_date" binding:"required"`
	MonthCount    int     `json:"month_count"`
	MonthlyAmount float64 `json:"monthly_amount"`
	UnitID        *uint   `json:"unit_id"`
}

// ConfirmAdvance confirms the advance of an installment sale and generates
// its schedule
func (h *SaleHandler) ConfirmAdvance(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("sale_id"), 10, 32)
	var req ConfirmAdvanceRequest
	if err := BindNestedOrFlat(c, "sale", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_date inválida, formato esperado AAAA-MM-DD"})
		return
	}

	sale, installments, err := h.saleService.ConfirmAdvance(c.Request.Context(), &services.ConfirmAdvanceInput{
		SaleID:        uint(id),
		AdvancePaid:   req.AdvanceAmount,
		StartDate:     startDate,
		MonthCount:    req.MonthCount,
		MonthlyAmount: req.MonthlyAmount,
		UnitID:        req.UnitID,
		Actor:         actorFrom(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	var schedule []interface{}
	for i := range installments {
		schedule = append(schedule, installments[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"sale": sale.ToResponse(), "installments": schedule})
}

type RecordPaymentRequest struct {
	Amount        float64 `json:"amount" binding:"required"`
	MonthsToApply int     `json:"months_to_apply"`
	PaymentDate   string  `json:"payment_date"`
	ReceiptNumber *string `json:"receipt_number"`
}

// RecordPayment applies a payment across the sale's next unpaid installments
func (h *SaleHandler) RecordPayment(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("sale_id"), 10, 32)
	var req RecordPaymentRequest
	if err := BindNestedOrFlat(c, "payment", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := &services.RecordPaymentInput{
		SaleID:        uint(id),
		Amount:        req.Amount,
		MonthsToApply: req.MonthsToApply,
		ReceiptNumber: req.ReceiptNumber,
		Actor:         actorFrom(c),
	}
	if req.MonthsToApply == 0 {
		input.MonthsToApply = 1
	}
	if req.PaymentDate != "" {
		paymentDate, err := time.Parse("2006-01-02", req.PaymentDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "payment_date inválida, formato esperado AAAA-MM-DD"})
			return
		}
		input.PaymentDate = paymentDate
	}

	result, err := h.saleService.RecordPayment(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	var touched, payments []interface{}
	for i := range result.Touched {
		touched = append(touched, result.Touched[i].ToResponse())
	}
	for i := range result.Payments {
		payments = append(payments, result.Payments[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{
		"installments": touched,
		"payments":     payments,
		"sale_paid":    result.AllPaid,
	})
}

type CancelSaleRequest struct {
	RefundAmount *float64 `json:"refund_amount"`
	UnitID       *uint    `json:"unit_id"`
}

// Cancel cancels a sale or extracts and cancels one unit of a multi-unit sale
func (h *SaleHandler) Cancel(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("sale_id"), 10, 32)
	var req CancelSaleRequest
	_ = BindNestedOrFlat(c, "sale", &req)

	sale, err := h.saleService.Cancel(c.Request.Context(), uint(id), req.RefundAmount, req.UnitID, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sale": sale.ToResponse()})
}

// Installments returns the schedule of a sale with overdue fields computed
// against an optional explicit date.
func (h *SaleHandler) Installments(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("sale_id"), 10, 32)
	sale, err := h.saleService.FindByIDWithDetails(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	today := time.Now()
	if asOf := c.Query("as_of"); asOf != "" {
		parsed, err := time.Parse("2006-01-02", asOf)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "as_of inválida, formato esperado AAAA-MM-DD"})
			return
		}
		today = parsed
	}

	var responses []interface{}
	for i := range sale.Installments {
		responses = append(responses, sale.Installments[i].ToResponseAt(today))
	}
	c.JSON(http.StatusOK, gin.H{"installments": responses})
}

// Payments returns the payment ledger of a sale
func (h *SaleHandler) Payments(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("sale_id"), 10, 32)
	sale, err := h.saleService.FindByIDWithDetails(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	var responses []interface{}
	for i := range sale.Payments {
		responses = append(responses, sale.Payments[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"payments": responses})
}

// StatementPDF downloads the account statement of a sale
func (h *SaleHandler) StatementPDF(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("sale_id"), 10, 32)
	data, filename, err := h.reportService.GenerateStatementPDF(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/pdf", data)
}

// ScheduleXLSX downloads the installment schedule workbook of a sale
func (h *SaleHandler) ScheduleXLSX(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("sale_id"), 10, 32)
	data, filename, err := h.exportService.ExportScheduleXLSX(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
