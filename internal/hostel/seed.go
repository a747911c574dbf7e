package hostel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"go.yaml.in/yaml/v3"
)

// Roster is the YAML document accepted by `roomcast student import`.
//
//	students:
//	  - username: asha
//	    full_name: Asha K
//	    room_no: B-12
type Roster struct {
	Students []RosterEntry `yaml:"students"`
}

// RosterEntry is one student in a roster. RoomNo is optional.
type RosterEntry struct {
	Username string `yaml:"username"`
	FullName string `yaml:"full_name"`
	RoomNo   string `yaml:"room_no"`
}

// LoadRoster parses a roster file.
func LoadRoster(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading roster: %w", err)
	}
	return ParseRoster(data)
}

// ParseRoster parses roster YAML.
func ParseRoster(data []byte) (*Roster, error) {
	var r Roster
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing roster: %w", err)
	}
	for i, e := range r.Students {
		if e.Username == "" {
			return nil, fmt.Errorf("%w: entry %d has no username", ErrInvalidStudent, i+1)
		}
	}
	return &r, nil
}

// Import creates every roster student that does not exist yet and applies
// the listed rooms. It returns how many students were created.
func (s *Service) Import(ctx context.Context, r *Roster) (int, error) {
	created := 0
	for _, e := range r.Students {
		st, err := s.store.FindByUsername(ctx, e.Username)
		if errors.Is(err, ErrStudentNotFound) {
			st, err = s.store.Create(ctx, e.Username, e.FullName)
			if err != nil {
				return created, err
			}
			created++
		} else if err != nil {
			return created, err
		}
		if e.RoomNo != "" && e.RoomNo != st.RoomNo {
			if _, err := s.AssignRoom(ctx, st.ID, e.RoomNo); err != nil {
				return created, fmt.Errorf("assigning %s to %s: %w", e.RoomNo, e.Username, err)
			}
		}
	}
	slog.Info("hostel: roster imported", "entries", len(r.Students), "created", created)
	return created, nil
}
