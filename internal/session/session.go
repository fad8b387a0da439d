// Package session keeps per-visitor UI state (language, page selections,
// dashboard filters) in domain.Cache.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/typeboard/typeboard/internal/cache"
	"github.com/typeboard/typeboard/internal/domain"
	"github.com/typeboard/typeboard/internal/page"
)

// Namespace is the cache namespace sessions live in.
const Namespace = domain.SessionNamespace

// ErrInvalidID is returned for a session id that is not a UUID.
var ErrInvalidID = errors.New("invalid session id")

// State is what one visitor has selected so far.
type State struct {
	Locale  string                        `json:"locale,omitempty"`
	Pages   map[string]domain.CategoryKey `json:"pages,omitempty"`
	Filters *domain.FilterSelection       `json:"filters,omitempty"`
	Query   string                        `json:"query,omitempty"`
	Updated time.Time                     `json:"updated"`
}

// Selection returns the single-select input for pageID, at its default
// when nothing was chosen yet.
func (s *State) Selection(pageID string) *page.Selection {
	return page.SelectionOf(s.Pages[pageID])
}

// Select records key for pageID. Unknown keys are rejected and leave the state unchanged.
func (s *State) Select(pageID string, raw string) (domain.CategoryKey, error) {
	sel := s.Selection(pageID)
	key, err := sel.Select(raw)
	if err != nil {
		return key, err
	}
	if s.Pages == nil {
		s.Pages = make(map[string]domain.CategoryKey)
	}
	s.Pages[pageID] = key
	return key, nil
}

// Store loads and saves State with a sliding TTL.
type Store struct {
	cache domain.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewStore creates a session store.
func NewStore(c domain.Cache, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{cache: c, ttl: ttl, now: time.Now}
}

// NewID returns a fresh session id.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like a session id.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Load returns the state for id, or an empty state when none is stored.
func (s *Store) Load(ctx context.Context, id string) (*State, error) {
	if !ValidID(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	var st State
	found, err := cache.GetJSON(ctx, s.cache, Namespace, id, &st)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if !found {
		return &State{}, nil
	}
	return &st, nil
}

// Save stores st for id and restarts its TTL.
func (s *Store) Save(ctx context.Context, id string, st *State) error {
	if !ValidID(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	st.Updated = s.now().UTC()
	if err := cache.SetJSON(ctx, s.cache, Namespace, id, st, s.ttl); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete forgets id.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.cache.Delete(ctx, Namespace, id)
}
