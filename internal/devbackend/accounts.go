package devbackend

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/karsaku/session-gate/internal/domain"
)

var (
	errAccountExists   = errors.New("account already exists")
	errAccountNotFound = errors.New("account not found")
)

// accountStore keeps dev accounts and their questionnaires in memory.
type accountStore struct {
	mu          sync.RWMutex
	byLogin     map[string]*domain.Account
	preferences map[string]domain.Preferences
}

func newAccountStore() *accountStore {
	return &accountStore{
		byLogin:     make(map[string]*domain.Account),
		preferences: make(map[string]domain.Preferences),
	}
}

func loginKey(role domain.Role, login string) string {
	return string(role) + "|" + strings.ToLower(strings.TrimSpace(login))
}

func (s *accountStore) create(account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := loginKey(account.Role, account.Login)
	if _, exists := s.byLogin[key]; exists {
		return fmt.Errorf("%w: %s", errAccountExists, account.Login)
	}
	account.ID = uuid.NewString()
	account.CreatedAt = time.Now().UTC()
	if account.Status == "" {
		account.Status = domain.AccountStatusActive
	}
	s.byLogin[key] = account
	return nil
}

func (s *accountStore) getByLogin(role domain.Role, login string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.byLogin[loginKey(role, login)]
	if !ok {
		return nil, errAccountNotFound
	}
	copied := *account
	return &copied, nil
}

func (s *accountStore) savePreferences(accountID string, answers domain.OnboardingAnswers) domain.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs, ok := s.preferences[accountID]
	if !ok {
		prefs = domain.Preferences{ID: uuid.NewString(), AccountID: accountID}
	}
	prefs.Answers = answers
	prefs.CreatedAt = time.Now().UTC()
	s.preferences[accountID] = prefs
	return prefs
}

func (s *accountStore) getPreferences(accountID string) (domain.Preferences, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	prefs, ok := s.preferences[accountID]
	return prefs, ok
}

// ParseSeed parses "role:login:password[:display name]" entries separated by ';'.
func ParseSeed(seed string) ([]SeedAccount, error) {
	var out []SeedAccount
	for _, entry := range strings.Split(seed, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 4)
		if len(parts) < 3 {
			return nil, fmt.Errorf("invalid seed entry %q", entry)
		}
		role, ok := domain.ParseRole(parts[0])
		if !ok {
			return nil, fmt.Errorf("invalid seed role %q", parts[0])
		}
		account := SeedAccount{Role: role, Login: parts[1], Password: parts[2], DisplayName: parts[1]}
		if len(parts) == 4 && parts[3] != "" {
			account.DisplayName = parts[3]
		}
		out = append(out, account)
	}
	return out, nil
}

// SeedAccount describes an account to create at startup.
type SeedAccount struct {
	Role        domain.Role
	Login       string
	Password    string
	DisplayName string
}
