package middlewares

import (
	"log"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

var (
	adminUserIDs []string
	adminOnce    sync.Once
)

func init() {
	// Try to load .env if present (optional)
	_ = godotenv.Load()
}

// loadAdminList populates adminUserIDs from env variable ADMIN_USER_IDS
// Format: comma separated user IDs, e.g. "user1,user2,user3"
func loadAdminList() {
	adminOnce.Do(func() {
		raw := os.Getenv("ADMIN_USER_IDS")
		if raw == "" {
			adminUserIDs = []string{}
			return
		}
		parts := strings.Split(raw, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			t := strings.TrimSpace(p)
			if t != "" {
				out = append(out, t)
			}
		}
		adminUserIDs = out
	})
}

// IsAdminOverrideEnabled checks whether admin override is globally enabled
// Controlled by env var ENABLE_ADMIN_OVERRIDE=true
func IsAdminOverrideEnabled() bool {
	return strings.ToLower(strings.TrimSpace(os.Getenv("ENABLE_ADMIN_OVERRIDE"))) == "true"
}

// IsAdminUser returns true if the given userID is present in ADMIN_USER_IDS
// and the override is enabled. Used as an operational escape hatch when a
// profile row is missing its admin role.
func IsAdminUser(userID string) bool {
	if userID == "" || !IsAdminOverrideEnabled() {
		return false
	}
	loadAdminList()
	for _, id := range adminUserIDs {
		if id == userID {
			log.Printf("[AUDIT] admin override applied for user=%s", userID)
			return true
		}
	}
	return false
}
