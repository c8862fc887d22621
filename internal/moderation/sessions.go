package moderation

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// AdminSessions is the set of users that authenticated with the admin password.
// Membership never expires; it lives as long as the process.
type AdminSessions struct {
	users *xsync.MapOf[string, struct{}]
}

func NewAdminSessions() *AdminSessions {
	return &AdminSessions{users: xsync.NewMapOf[string, struct{}]()}
}

// Add returns false when the user was already authenticated.
func (s *AdminSessions) Add(userID string) bool {
	_, loaded := s.users.LoadOrStore(userID, struct{}{})
	return !loaded
}

func (s *AdminSessions) Has(userID string) bool {
	_, ok := s.users.Load(userID)
	return ok
}

func (s *AdminSessions) Size() int {
	return s.users.Size()
}
