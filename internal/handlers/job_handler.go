package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/grupoterrena/terrena-api/internal/services"
)

type JobHandler struct {
	jobService *services.JobService
}

func NewJobHandler(jobService *services.JobService) *JobHandler {
	return &JobHandler{jobService: jobService}
}

// Status reports background worker statistics
func (h *JobHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.jobService.GetStatus())
}

// TriggerDeadlineRelease queues an immediate expired-sale release pass
func (h *JobHandler) TriggerDeadlineRelease(c *gin.Context) {
	h.jobService.TriggerDeadlineRelease()
	c.JSON(http.StatusAccepted, gin.H{"message": "Liberación de ventas vencidas encolada"})
}

// TriggerLateSync queues an immediate late-status sync pass
func (h *JobHandler) TriggerLateSync(c *gin.Context) {
	h.jobService.TriggerLateSync()
	c.JSON(http.StatusAccepted, gin.H{"message": "Sincronización de mora encolada"})
}
