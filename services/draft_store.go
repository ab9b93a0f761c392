package services

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrDraftNotFound = errors.New("application draft not found")

type draftEntry struct {
	form  *Form
	timer *time.Timer
}

// DraftStore keeps each applicant's Form in memory until it is deleted or
// has been idle for ttl. Nothing is persisted.
type DraftStore struct {
	drafts  sync.Map
	ttl     time.Duration
	newForm func(id string) *Form
	logger  *slog.Logger
}

func NewDraftStore(ttl time.Duration, newForm func(id string) *Form, logger *slog.Logger) *DraftStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &DraftStore{ttl: ttl, newForm: newForm, logger: logger}
}

func (s *DraftStore) Create() *Form {
	id := uuid.New().String()
	entry := &draftEntry{form: s.newForm(id)}
	// id is unknown to callers until Create returns, so timer is set in time
	s.drafts.Store(id, entry)
	entry.timer = time.AfterFunc(s.ttl, func() {
		if s.drafts.CompareAndDelete(id, entry) {
			entry.form.Close()
			s.logger.Info("draft expired", "draft_id", id)
		}
	})
	return entry.form
}

// Get returns the draft and extends its lifetime.
func (s *DraftStore) Get(id string) (*Form, error) {
	v, ok := s.drafts.Load(id)
	if !ok {
		return nil, ErrDraftNotFound
	}
	entry := v.(*draftEntry)
	entry.timer.Reset(s.ttl)
	return entry.form, nil
}

func (s *DraftStore) Delete(id string) error {
	v, ok := s.drafts.LoadAndDelete(id)
	if !ok {
		return ErrDraftNotFound
	}
	entry := v.(*draftEntry)
	if entry.timer != nil {
		entry.timer.Stop()
	}
	entry.form.Close()
	return nil
}

func (s *DraftStore) Len() int {
	n := 0
	s.drafts.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Close discards every draft.
func (s *DraftStore) Close() {
	s.drafts.Range(func(k, _ any) bool {
		_ = s.Delete(k.(string))
		return true
	})
}
