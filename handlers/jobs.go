package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/margindesk/margindesk_backend/models"
)

type billDetailsRequest struct {
	DateRange string `json:"date_range" binding:"required"`
}

type jobResponse struct {
	*models.DetailSyncJob
	ProgressPercentage float64 `json:"progress_percentage"`
}

func newJobResponse(j *models.DetailSyncJob) jobResponse {
	if j.ErrorMessages == nil {
		j.ErrorMessages = models.StringList{}
	}
	return jobResponse{DetailSyncJob: j, ProgressPercentage: j.ProgressPercentage()}
}

func StartBillDetailsHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body billDetailsRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, err)
			return
		}
		job, err := d.Jobs.StartBillDetails(c.Request.Context(), body.DateRange)
		if err != nil {
			abortWithError(c, d, "StartBillDetailsHandler", body, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"job_id": job.ID, "status": job.Status})
	}
}

func GetJobHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, err := d.Jobs.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			abortWithError(c, d, "GetJobHandler", c.Param("id"), err)
			return
		}
		c.JSON(http.StatusOK, newJobResponse(job))
	}
}

func CancelJobHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, err := d.Jobs.Cancel(c.Request.Context(), c.Param("id"))
		if err != nil {
			abortWithError(c, d, "CancelJobHandler", c.Param("id"), err)
			return
		}
		c.JSON(http.StatusOK, newJobResponse(job))
	}
}
