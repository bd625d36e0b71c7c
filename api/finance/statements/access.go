package statements

import "MvpxArtistSaas/api/constants"

// Requester is the authenticated caller as seen by the engine: the role
// plus, for plain users, the explicit set of artist ids they own.
type Requester struct {
	UserID         string
	Name           string
	Role           string
	OwnedArtistIDs []string
}

func (rq Requester) IsAdmin() bool {
	return rq.Role == constants.RoleAdmin
}

// CanAccessArtist reports whether the requester may read or import
// statements for the given artist. Admins see everything.
func (rq Requester) CanAccessArtist(artistID string) bool {
	if rq.IsAdmin() {
		return true
	}
	for _, id := range rq.OwnedArtistIDs {
		if id == artistID {
			return true
		}
	}
	return false
}

// FilterStatements drops every statement outside the requester's scope.
// Applied on every read path regardless of what the store returned, so
// a widened query can never leak another manager's artists.
func FilterStatements(rq Requester, stmts []Statement) []Statement {
	if rq.IsAdmin() {
		return stmts
	}
	out := make([]Statement, 0, len(stmts))
	for _, s := range stmts {
		if rq.CanAccessArtist(s.ArtistID) {
			out = append(out, s)
		}
	}
	return out
}
