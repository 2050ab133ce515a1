package id

import "github.com/google/uuid"

// UUID generates random (version 4) identifiers in canonical string form.
type UUID struct{}

func NewUUID() UUID { return UUID{} }

func (UUID) New() string { return uuid.NewString() }

// Sequence hands out a fixed list of ids, then falls back to UUIDs. Tests only.
type Sequence struct {
	ids []string
}

func NewSequence(ids ...string) *Sequence { return &Sequence{ids: ids} }

func (s *Sequence) New() string {
	if len(s.ids) == 0 {
		return uuid.NewString()
	}
	next := s.ids[0]
	s.ids = s.ids[1:]
	return next
}
