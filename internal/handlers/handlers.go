package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/grupoterrena/terrena-api/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health  *HealthHandler
	Sale    *SaleHandler
	Unit    *UnitHandler
	Client  *ClientHandler
	Payment *PaymentHandler
	Report  *ReportHandler
	Audit   *AuditHandler
	Job     *JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(),
		Sale:    NewSaleHandler(svcs.Sale, svcs.Report, svcs.Export),
		Unit:    NewUnitHandler(svcs.Unit),
		Client:  NewClientHandler(svcs.Client),
		Payment: NewPaymentHandler(svcs.Sale),
		Report:  NewReportHandler(svcs.Report),
		Audit:   NewAuditHandler(svcs.Audit),
		Job:     NewJobHandler(svcs.Job),
	}
}

// respondError translates service errors into HTTP responses. Validation
// failures map to 422, state and availability conflicts to 409, broken
// invariants to 500.
func respondError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	var stateErr *services.StateError
	var conflictErr *services.AvailabilityConflictError
	var inconsistencyErr *services.InconsistencyError

	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Registro no encontrado"})
	case errors.Is(err, services.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": "Registro duplicado"})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": validationErr.Message,
			"field": validationErr.Field,
		})
	case errors.As(err, &stateErr):
		c.JSON(http.StatusConflict, gin.H{"error": stateErr.Error()})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":                "Una o más unidades ya no están disponibles",
			"conflicting_unit_ids": conflictErr.UnitIDs,
		})
	case errors.As(err, &inconsistencyErr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": inconsistencyErr.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// actorFrom identifies the operator behind a request for the audit trail
func actorFrom(c *gin.Context) string {
	if actor := c.GetHeader("X-Actor"); actor != "" {
		return actor
	}
	return "admin"
}
