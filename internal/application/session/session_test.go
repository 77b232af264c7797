package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/influstock/internal/application/session"
	"github.com/alejandrodnm/influstock/internal/domain"
)

func TestConnect(t *testing.T) {
	s := session.Connect("  chihuahua1abc ")
	assert.True(t, s.Connected())
	assert.Equal(t, "chihuahua1abc", s.Account)
	assert.NotEmpty(t, s.ID)

	acct, err := s.RequireAccount()
	require.NoError(t, err)
	assert.Equal(t, "chihuahua1abc", acct)
}

func TestConnect_EmptyAccountIsDisconnected(t *testing.T) {
	s := session.Connect("   ")
	assert.False(t, s.Connected())
	_, err := s.RequireAccount()
	assert.ErrorIs(t, err, domain.ErrNotConnected)
}

func TestZeroSessionIsDisconnected(t *testing.T) {
	var s session.Session
	_, err := s.RequireAccount()
	assert.ErrorIs(t, err, domain.ErrNotConnected)
}

func TestSessionsGetDistinctIDs(t *testing.T) {
	a := session.Connect("acct")
	b := session.Connect("acct")
	assert.NotEqual(t, a.ID, b.ID)
}
