package statements

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanAccessArtist(t *testing.T) {
	admin := Requester{UserID: "u1", Role: "admin"}
	assert.True(t, admin.CanAccessArtist("any-artist"))

	user := Requester{UserID: "u2", Role: "user", OwnedArtistIDs: []string{"a1", "a2"}}
	assert.True(t, user.CanAccessArtist("a1"))
	assert.False(t, user.CanAccessArtist("a3"))

	nobody := Requester{UserID: "u3", Role: "user"}
	assert.False(t, nobody.CanAccessArtist("a1"))
}

func TestFilterStatements(t *testing.T) {
	stmts := []Statement{
		{ID: "s1", ArtistID: "a1"},
		{ID: "s2", ArtistID: "a2"},
		{ID: "s3", ArtistID: "a3"},
	}

	admin := Requester{Role: "admin"}
	assert.Len(t, FilterStatements(admin, stmts), 3)

	user := Requester{Role: "user", OwnedArtistIDs: []string{"a2"}}
	filtered := FilterStatements(user, stmts)
	require.Len(t, filtered, 1)
	assert.Equal(t, "s2", filtered[0].ID)

	nobody := Requester{Role: "user"}
	assert.Empty(t, FilterStatements(nobody, stmts))
}
