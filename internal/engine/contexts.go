package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"compass/internal/storage"
)

type ContextPort interface {
	LoadContexts(ctx context.Context) ([]storage.Context, bool, error)
	SaveContexts(ctx context.Context, contexts []storage.Context) error
}

// DefaultContexts seeds a fresh database.
func DefaultContexts() []storage.Context {
	seed := []struct{ name, icon string }{
		{"@home", "🏠"},
		{"@work", "💼"},
		{"@errands", "🛒"},
		{"@computer", "💻"},
		{"@phone", "📞"},
	}
	out := make([]storage.Context, 0, len(seed))
	for _, s := range seed {
		out = append(out, storage.Context{ID: uuid.NewString(), Name: s.name, Icon: s.icon})
	}
	return out
}

// ContextStore owns the user's context tags. Tasks hold context names, so a
// rename does not reach existing tasks.
type ContextStore struct {
	mu       sync.Mutex
	repo     ContextPort
	contexts []storage.Context
}

func NewContextStore(ctx context.Context, repo ContextPort) (*ContextStore, error) {
	s := &ContextStore{repo: repo}
	if err := s.reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// NormalizeContextName trims the name and adds the leading "@".
func NormalizeContextName(name string) (string, error) {
	n := strings.TrimSpace(name)
	if n == "" || n == "@" {
		return "", ValidationError{Field: "context", Reason: "name is required"}
	}
	if !strings.HasPrefix(n, "@") {
		n = "@" + n
	}
	return n, nil
}

func (s *ContextStore) List() []storage.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]storage.Context(nil), s.contexts...)
}

// Lookup finds a context by name.
func (s *ContextStore) Lookup(name string) (storage.Context, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.contexts {
		if c.Name == name {
			return c, true
		}
	}
	return storage.Context{}, false
}

func (s *ContextStore) Add(ctx context.Context, name string, icon string) (*storage.Context, error) {
	n, err := NormalizeContextName(name)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nameTaken(n, "") {
		return nil, ValidationError{Field: "context", Reason: fmt.Sprintf("%s already exists", n)}
	}
	c := storage.Context{ID: uuid.NewString(), Name: n, Icon: strings.TrimSpace(icon)}
	s.contexts = append(s.contexts, c)
	if err := s.save(ctx); err != nil {
		return nil, err
	}
	return &c, nil
}

// Rename changes the context name only; tasks keep the old name. Unknown ids
// return (nil, nil).
func (s *ContextStore) Rename(ctx context.Context, id string, name string) (*storage.Context, error) {
	n, err := NormalizeContextName(name)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return nil, nil
	}
	if s.nameTaken(n, id) {
		return nil, ValidationError{Field: "context", Reason: fmt.Sprintf("%s already exists", n)}
	}
	s.contexts[i].Name = n
	if err := s.save(ctx); err != nil {
		return nil, err
	}
	out := s.contexts[i]
	return &out, nil
}

func (s *ContextStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return false, nil
	}
	s.contexts = append(s.contexts[:i], s.contexts[i+1:]...)
	if err := s.save(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Find resolves an id, id prefix or name.
func (s *ContextStore) Find(ref string) *storage.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil
	}
	for _, c := range s.contexts {
		if c.ID == ref || c.Name == ref || c.Name == "@"+ref || strings.HasPrefix(c.ID, ref) {
			out := c
			return &out
		}
	}
	return nil
}

func (s *ContextStore) reload(ctx context.Context) error {
	list, found, err := s.repo.LoadContexts(ctx)
	if err != nil {
		return fmt.Errorf("load contexts: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !found {
		s.contexts = DefaultContexts()
		return s.save(ctx)
	}
	s.contexts = list
	return nil
}

func (s *ContextStore) nameTaken(name string, exceptID string) bool {
	for _, c := range s.contexts {
		if c.Name == name && c.ID != exceptID {
			return true
		}
	}
	return false
}

func (s *ContextStore) index(id string) int {
	for i := range s.contexts {
		if s.contexts[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *ContextStore) save(ctx context.Context) error {
	if err := s.repo.SaveContexts(ctx, s.contexts); err != nil {
		return fmt.Errorf("save contexts: %w", err)
	}
	return nil
}
