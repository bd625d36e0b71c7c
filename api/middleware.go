package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"MvpxArtistSaas/api/auth"
	"MvpxArtistSaas/api/constants"
)

type contextKey string

const (
	SessionKey        contextKey = "session"
	OwnedArtistIDsKey contextKey = "ownedArtistIDs"
)

// Helper functions for context retrieval (used by downstream handlers)
func GetSessionFromCtx(ctx context.Context) *auth.UserSession {
	if session, ok := ctx.Value(SessionKey).(*auth.UserSession); ok {
		return session
	}
	return nil
}

func GetUserIDFromCtx(ctx context.Context) string {
	if session := GetSessionFromCtx(ctx); session != nil {
		return session.UserID
	}
	return ""
}

func GetOwnedArtistIDsFromCtx(ctx context.Context) []string {
	if ids, ok := ctx.Value(OwnedArtistIDsKey).([]string); ok {
		return ids
	}
	return []string{}
}

// IsArtistAllowed reports whether the request's session may touch the
// given artist. Admin sessions pass unconditionally.
func IsArtistAllowed(ctx context.Context, artistID string) bool {
	session := GetSessionFromCtx(ctx)
	if session == nil {
		return false
	}
	if session.Role == constants.RoleAdmin {
		return true
	}
	target := strings.TrimSpace(artistID)
	for _, id := range GetOwnedArtistIDsFromCtx(ctx) {
		if strings.TrimSpace(id) == target {
			return true
		}
	}
	return false
}

// SessionMiddleware extracts user_id from the request body, validates it
// against the active sessions and attaches the session plus the caller's
// owned artist ids to the request context.
func SessionMiddleware(db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var userID string
			ct := r.Header.Get(constants.HeaderContentType)
			if strings.HasPrefix(ct, constants.ContentTypeJSON) && (r.Method == "POST" || r.Method == "PUT") {
				var bodyMap map[string]interface{}
				_ = json.NewDecoder(r.Body).Decode(&bodyMap)
				if uid, ok := bodyMap[constants.KeyUserID].(string); ok {
					userID = uid
				}
				// Re-marshal and reset body for downstream handlers
				bodyBytes, _ := json.Marshal(bodyMap)
				r.Body = io.NopCloser(strings.NewReader(string(bodyBytes)))
			} else if strings.HasPrefix(ct, constants.ContentTypeMultipart) && (r.Method == "POST" || r.Method == "PUT") {
				err := r.ParseMultipartForm(32 << 20)
				if err == nil {
					userID = r.FormValue(constants.KeyUserID)
				}
			}

			if userID == "" {
				log.Println("[ERROR] Missing user_id in request")
				w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
				json.NewEncoder(w).Encode(map[string]interface{}{
					constants.ValueSuccess: false,
					constants.ValueError:   constants.ErrMissingUserID,
				})
				return
			}

			// Validate session
			var session *auth.UserSession
			for _, s := range auth.GetActiveSessions() {
				if s.UserID == userID {
					session = s
					break
				}
			}
			if session == nil {
				log.Println("[ERROR] Invalid session for user_id:", userID)
				w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
				json.NewEncoder(w).Encode(map[string]interface{}{
					constants.ValueSuccess: false,
					constants.ValueError:   constants.ErrInvalidSession,
				})
				return
			}

			// Refresh artist ownership from the DB, the session copy can
			// go stale when an admin reassigns an artist mid-session.
			ownedIDs := session.OwnedArtistIDs
			if session.Role != constants.RoleAdmin {
				rows, err := db.Query(`SELECT id FROM artists WHERE user_id = $1`, userID)
				if err == nil {
					fresh := make([]string, 0, len(ownedIDs))
					for rows.Next() {
						var id string
						if err := rows.Scan(&id); err == nil {
							fresh = append(fresh, id)
						}
					}
					rows.Close()
					ownedIDs = fresh
				} else {
					log.Printf("[WARN] artist ownership query failed: %v", err)
				}
			}

			ctx := context.WithValue(r.Context(), SessionKey, session)
			ctx = context.WithValue(ctx, OwnedArtistIDsKey, ownedIDs)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
