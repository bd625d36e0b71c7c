package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"MvpxArtistSaas/internal/logger"
	"MvpxArtistSaas/internal/serviceiface"

	"github.com/google/uuid"
)

type UserSession struct {
	SessionID      string
	UserID         string
	Name           string
	Email          string
	Role           string
	OwnedArtistIDs []string
	LastLoginTime  string
	ClientIP       string
	IsLoggedIn     bool
}

type AuthService struct {
	db           *sql.DB
	maxUsers     int
	users        map[string]*UserSession
	userPointers map[string]*UserSession
	mu           sync.Mutex
	stopCh       chan struct{}
}

func NewAuthService(db *sql.DB, maxUsers int) serviceiface.Service {
	return &AuthService{
		db:           db,
		maxUsers:     maxUsers,
		users:        make(map[string]*UserSession),
		userPointers: make(map[string]*UserSession),
		stopCh:       make(chan struct{}),
	}
}

func (a *AuthService) Name() string { return "auth" }

func (a *AuthService) Start() error {
	go a.sessionCleaner()
	return nil
}

func (a *AuthService) Stop() error {
	close(a.stopCh)
	return nil
}

func (a *AuthService) Login(username, password string, clientIP string) (*UserSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, session := range a.users {
		if session.Email == username && session.IsLoggedIn {
			session.LastLoginTime = time.Now().Format(time.RFC3339)
			session.ClientIP = clientIP
			if logger.GlobalLogger != nil {
				logger.GlobalLogger.LogAudit(fmt.Sprintf("User %s re-logged in, returning existing session", username))
			}
			return session, nil
		}
	}

	if len(a.users) >= a.maxUsers {
		return nil, errors.New("maximum concurrent users reached")
	}

	var (
		userID, name, email string
		role                sql.NullString
	)

	query := `
    SELECT
        u.id AS user_id,
        u.full_name,
        u.email,
        p.role
    FROM users u
    LEFT JOIN profiles p ON p.user_id = u.id
    WHERE u.email = $1 AND u.password = crypt($2, u.password)
    `

	err := a.db.QueryRow(query, username, password).Scan(&userID, &name, &email, &role)
	if err != nil {
		return nil, errors.New("invalid credentials or user not found")
	}

	owned, err := a.loadOwnedArtists(userID)
	if err != nil {
		return nil, err
	}

	sessionID := uuid.NewString()
	session := &UserSession{
		SessionID:      sessionID,
		UserID:         userID,
		Name:           name,
		Email:          email,
		Role:           role.String,
		OwnedArtistIDs: owned,
		LastLoginTime:  time.Now().Format(time.RFC3339),
		ClientIP:       clientIP,
		IsLoggedIn:     true,
	}

	a.users[sessionID] = session
	a.userPointers[userID] = session

	if logger.GlobalLogger != nil {
		logger.GlobalLogger.LogAudit(fmt.Sprintf("User logged in: %s", username))
	}

	return session, nil
}

// loadOwnedArtists fetches the artist ids linked to the user. Admins get
// an empty list here; their access is role-based, not ownership-based.
func (a *AuthService) loadOwnedArtists(userID string) ([]string, error) {
	rows, err := a.db.Query(`SELECT id FROM artists WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load artist ownership: %w", err)
	}
	defer rows.Close()

	var owned []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		owned = append(owned, id)
	}
	return owned, rows.Err()
}

func (a *AuthService) Logout(sessionID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	session, exists := a.users[sessionID]
	if !exists {
		return errors.New("session not found")
	}
	delete(a.users, sessionID)
	delete(a.userPointers, session.UserID)

	if logger.GlobalLogger != nil {
		logger.GlobalLogger.LogAudit("User logged out: " + session.UserID)
	}

	return nil
}

var globalAuthService *AuthService

// SetGlobalAuthService sets the global AuthService instance
func SetGlobalAuthService(svc *AuthService) {
	globalAuthService = svc
}

// GetActiveSessions returns active sessions from the global AuthService
func GetActiveSessions() []*UserSession {
	if globalAuthService == nil {
		return nil
	}
	return globalAuthService.GetActiveSessions()
}

func (a *AuthService) GetActiveSessions() []*UserSession {
	a.mu.Lock()
	defer a.mu.Unlock()
	sessions := make([]*UserSession, 0, len(a.users))
	for _, s := range a.users {
		sessions = append(sessions, s)
	}
	return sessions
}

func (a *AuthService) sessionCleaner() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-a.stopCh:
			return
		case <-ticker.C:
			// session expiry logic can be added here
		}
	}
}
