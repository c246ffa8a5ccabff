package handlers

import (
	"strconv"

	"github.com/margindesk/margindesk_backend/store"
)

func itoa(i int) string { return strconv.Itoa(i) }

func storeFilterAll() store.SyncLogFilter { return store.SyncLogFilter{} }
