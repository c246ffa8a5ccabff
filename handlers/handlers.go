// Package handlers exposes the sync triggers, detail job control and pod reports over gin.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/margindesk/margindesk_backend/config"
	"github.com/margindesk/margindesk_backend/finance"
	"github.com/margindesk/margindesk_backend/jobs"
	"github.com/margindesk/margindesk_backend/store"
	"github.com/margindesk/margindesk_backend/syncer"
	"github.com/sirupsen/logrus"
)

// ArchiveFunc stores an exported file somewhere durable and returns its location.
type ArchiveFunc func(ctx context.Context, objectName, contentType string, data []byte) (string, error)

type Deps struct {
	Syncer   *syncer.Syncer
	Jobs     *jobs.Runner
	Reports  *finance.Engine
	Store    store.Store
	Settings *config.Settings
	Logger   *logrus.Logger
	Archive  ArchiveFunc
	Now      func() time.Time
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Deps) cacheTTL() time.Duration {
	if d.Settings == nil || d.Settings.ReportCacheTTL <= 0 {
		return 5 * time.Minute
	}
	return d.Settings.ReportCacheTTL
}

// Register mounts every /api route on r.
func Register(r gin.IRouter, d *Deps) {
	api := r.Group("/api")

	api.POST("/sync", SyncHandler(d))
	api.GET("/sync/logs", SyncLogsHandler(d))
	api.POST("/sync/bill-details", StartBillDetailsHandler(d))
	api.GET("/sync/jobs/:id", GetJobHandler(d))
	api.DELETE("/sync/jobs/:id", CancelJobHandler(d))

	api.GET("/reports/pod-financials", PodFinancialsHandler(d))
	api.GET("/reports/pod-financials/export", PodFinancialsExportHandler(d))

	api.PATCH("/bills/:id/inclusion", BillInclusionHandler(d))
	api.PATCH("/expenses/:id/inclusion", ExpenseInclusionHandler(d))
	api.GET("/exclusion-rules", ListExclusionRulesHandler(d))
	api.POST("/exclusion-rules", CreateExclusionRuleHandler(d))
}

func HealthzHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	}
}

// errorStatus maps domain errors onto HTTP status codes.
func errorStatus(err error) int {
	var ve validator.ValidationErrors
	switch {
	case errors.As(err, &ve),
		errors.Is(err, syncer.ErrDateRangeRequired),
		errors.Is(err, syncer.ErrInvalidDateRange),
		errors.Is(err, finance.ErrInvalidRange),
		errors.Is(err, finance.ErrBadReportDate):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, syncer.ErrSyncInProgress),
		errors.Is(err, jobs.ErrJobNotRunning),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
}

// abortWithError logs server side failures and answers with the mapped status.
func abortWithError(c *gin.Context, d *Deps, funcName string, data any, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		config.LogError(d.Logger, "handlers", funcName, c.Request.URL.Path, data, err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
