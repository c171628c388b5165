package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// StrictCatalogLines controls whether a manually-typed line (no catalog
// product behind it) blocks submission. The legacy console let such rows
// reach the order endpoint; the backend team considers that a latent bug,
// so strict is the default.
//
// Set via env:
// - STRICT_CATALOG_LINES=false to restore the permissive legacy behavior
func StrictCatalogLines() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("STRICT_CATALOG_LINES")))
	if v == "" {
		return true
	}
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// WorkspaceSessionTTL is how long an idle editing session survives in Redis
// before it is discarded. Nothing is persisted until submission, so an
// expired session simply means the user starts over.
//
// Set via env:
// - WORKSPACE_SESSION_TTL_MINUTES (default 120)
func WorkspaceSessionTTL() time.Duration {
	minutes, err := strconv.Atoi(os.Getenv("WORKSPACE_SESSION_TTL_MINUTES"))
	if err != nil || minutes <= 0 {
		minutes = 120
	}
	return time.Duration(minutes) * time.Minute
}

// DebugTransferWorkspace enables verbose submission tracing.
//
// Set via env:
// - DEBUG_TRANSFER_WORKSPACE=true
func DebugTransferWorkspace() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("DEBUG_TRANSFER_WORKSPACE")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
