package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/margindesk/margindesk_backend/models"
	"github.com/margindesk/margindesk_backend/store"
	"github.com/margindesk/margindesk_backend/syncer"
	"github.com/margindesk/margindesk_backend/utils"
)

type syncRequest struct {
	SyncType  string `json:"sync_type" binding:"required"`
	DateRange string `json:"date_range"`
}

// SyncHandler runs a sync synchronously and answers with its SyncLog, or the list of logs for "all".
// Run failures still carry the logs so callers see the counts.
func SyncHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body syncRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, err)
			return
		}
		t, err := models.ParseSyncType(body.SyncType)
		if err != nil {
			badRequest(c, err)
			return
		}
		cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		req := syncer.Request{
			SyncType:      t,
			DateRange:     body.DateRange,
			TriggeredBy:   utils.TriggeredBy(c.Request.Context()),
			CorrelationID: cid,
		}
		if err := d.Syncer.Validate(req); err != nil {
			badRequest(c, err)
			return
		}

		logs, err := d.Syncer.Run(c.Request.Context(), req)
		if err != nil && len(logs) == 0 {
			abortWithError(c, d, "SyncHandler", body, err)
			return
		}

		status := http.StatusOK
		resp := gin.H{}
		if err != nil {
			status = http.StatusInternalServerError
			resp["error"] = err.Error()
			_ = c.Error(err)
		}
		if t == models.SyncTypeAll {
			if err == nil {
				c.JSON(status, logs)
				return
			}
			resp["sync_logs"] = logs
			c.JSON(status, resp)
			return
		}
		if err == nil {
			c.JSON(status, logs[0])
			return
		}
		resp["sync_log"] = logs[0]
		c.JSON(status, resp)
	}
}

type syncLogsQuery struct {
	SyncType string `form:"sync_type"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

func SyncLogsHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q syncLogsQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			badRequest(c, err)
			return
		}
		f := store.SyncLogFilter{Limit: q.Limit}
		if f.Limit == 0 {
			f.Limit = 50
		}
		if q.SyncType != "" {
			f.SyncType = models.SyncType(q.SyncType)
			if !f.SyncType.IsValid() && f.SyncType != models.SyncTypeBillDetails {
				badRequest(c, errors.New("unknown sync type "+q.SyncType))
				return
			}
		}
		logs, err := d.Store.ListSyncLogs(c.Request.Context(), f)
		if err != nil {
			abortWithError(c, d, "SyncLogsHandler", q, err)
			return
		}
		if logs == nil {
			logs = []models.SyncLog{}
		}
		c.JSON(http.StatusOK, logs)
	}
}
