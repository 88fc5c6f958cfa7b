package schedule

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	apperrors "github.com/csaptu/flow/analytics/common/errors"
	"github.com/csaptu/flow/analytics/common/models"
	"github.com/csaptu/flow/analytics/schedule/calendar"
	"github.com/csaptu/flow/analytics/schedule/workload"
)

// Snapshot is the complete, immutable input of one project analysis
type Snapshot struct {
	Project   models.Project    `json:"project" yaml:"project"`
	Tasks     []models.Task     `json:"tasks" yaml:"tasks" validate:"dive"`
	Resources []models.Resource `json:"resources" yaml:"resources" validate:"dive"`

	// Now is the reference instant; analysis never reads the clock
	Now time.Time `json:"now" yaml:"now" validate:"required"`

	View workload.View `json:"view,omitempty" yaml:"view,omitempty" validate:"omitempty,oneof=daily weekly monthly"`
	From *time.Time    `json:"from,omitempty" yaml:"from,omitempty"`
	To   *time.Time    `json:"to,omitempty" yaml:"to,omitempty"`
}

var validate = validator.New()

// Validate checks field constraints and date ordering. Graph problems
// (cycles, duplicate ids) are reported by the analysis itself.
func (s *Snapshot) Validate() error {
	if err := validate.Struct(s); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return fmt.Errorf("%w: %v", apperrors.ErrInvalidSnapshot, err)
		}
		msgs := make([]string, 0, len(verrs))
		for _, e := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", e.Namespace(), e.Tag()))
		}
		return fmt.Errorf("%w: %s", apperrors.ErrInvalidSnapshot, strings.Join(msgs, "; "))
	}
	if s.From != nil && s.To != nil && s.To.Before(*s.From) {
		return fmt.Errorf("%w: range ends before it starts", apperrors.ErrInvalidSnapshot)
	}
	for i := range s.Tasks {
		t := &s.Tasks[i]
		if t.StartDate != nil && t.EndDate != nil && calendar.Day(*t.EndDate).Before(calendar.Day(*t.StartDate)) {
			return fmt.Errorf("%w: task %s ends before it starts", apperrors.ErrInvalidSnapshot, t.ID)
		}
	}
	return nil
}

// ValidateRange rejects an explicit From/To range longer than maxDays.
// A non-positive maxDays disables the check.
func (s *Snapshot) ValidateRange(maxDays int) error {
	if maxDays <= 0 || s.From == nil || s.To == nil {
		return nil
	}
	if n := calendar.SpanDays(*s.From, *s.To); n > maxDays {
		return fmt.Errorf("%w: range spans %d days, limit %d", apperrors.ErrInvalidSnapshot, n, maxDays)
	}
	return nil
}

// ParseSnapshot decodes a YAML (or JSON) snapshot
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidSnapshot, err)
	}
	return &s, nil
}

// LoadSnapshot reads a snapshot file
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return ParseSnapshot(data)
}
