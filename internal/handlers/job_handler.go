package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rkco/fuel-ledger/internal/services"
)

type JobHandler struct {
	jobService            *services.JobService
	reconciliationService *services.ReconciliationService
}

func NewJobHandler(jobSvc *services.JobService, reconciliationSvc *services.ReconciliationService) *JobHandler {
	return &JobHandler{
		jobService:            jobSvc,
		reconciliationService: reconciliationSvc,
	}
}

// Status returns the current worker status
// @Summary Get background job status
// @Description Worker statistics and the last run of each scheduled job
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /jobs/status [get]
func (h *JobHandler) Status(c *gin.Context) {
	status := h.jobService.GetStatus()
	c.JSON(http.StatusOK, status)
}

// Reconciliation runs a read-only scan for orders whose stored paid amount
// or status disagrees with their total
// @Summary Reconciliation scan
// @Description Lists orders with paid > total, negative paid, or a stale status. Nothing is repaired.
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.ReconciliationReport
// @Router /reconciliation [get]
func (h *JobHandler) Reconciliation(c *gin.Context) {
	report, err := h.reconciliationService.Scan(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
