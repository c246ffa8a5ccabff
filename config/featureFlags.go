package config

import (
	"os"
	"strings"
)

func flag(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// ReportCacheDisabled bypasses the Redis report cache.
//
// Set via env:
// - DISABLE_REPORT_CACHE=true
func ReportCacheDisabled() bool {
	return flag("DISABLE_REPORT_CACHE")
}

// SchedulerEnabled turns on the cron registrations in the worker binary.
func SchedulerEnabled() bool {
	v := strings.TrimSpace(os.Getenv("ENABLE_SYNC_SCHEDULER"))
	if v == "" {
		return true
	}
	return flag("ENABLE_SYNC_SCHEDULER")
}

// AuthRequired enables bearer token verification on /api routes.
func AuthRequired() bool {
	return flag("REQUIRE_AUTH")
}
