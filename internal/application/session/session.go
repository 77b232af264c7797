// Package session models the connected-wallet context passed explicitly to
// every account-scoped operation.
package session

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/influstock/internal/domain"
)

// Session identifies who is acting. The zero value is a disconnected session.
type Session struct {
	ID        string
	Account   string
	StartedAt time.Time
}

// Connect abre una sesión nueva para account. Un account vacío produce una
// sesión desconectada.
func Connect(account string) Session {
	account = strings.TrimSpace(account)
	if account == "" {
		return Disconnected()
	}
	return Session{
		ID:        uuid.NewString(),
		Account:   account,
		StartedAt: time.Now(),
	}
}

// Disconnected returns a session with no account, with its own id so snapshots
// built for it can still be told apart.
func Disconnected() Session {
	return Session{ID: uuid.NewString(), StartedAt: time.Now()}
}

func (s Session) Connected() bool {
	return s.Account != ""
}

// RequireAccount returns the account or ErrNotConnected.
func (s Session) RequireAccount() (string, error) {
	if !s.Connected() {
		return "", domain.ErrNotConnected
	}
	return s.Account, nil
}
