// Package editor implements the add/edit dialogs of the curation console:
// a draft is loaded with its lookup lists, validated locally, and saved as a
// sequence of gateway writes followed by an audit entry.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Annany2002/taxacurator/internal/domain"
	"github.com/Annany2002/taxacurator/internal/logger"
)

var customLog = logger.NewLogger()

var (
	ErrDuplicateID     = errors.New("duplicate ID found")
	ErrValidation      = errors.New("validation failed")
	ErrNotEditing      = errors.New("dialog is not editing")
	ErrAlreadyOpen     = errors.New("dialog is already open")
	ErrNotEditMode     = errors.New("operation requires an existing record")
	ErrIndexOutOfRange = errors.New("sub-record index out of range")
)

// Mode tells whether a dialog creates a record or edits an existing one.
type Mode string

const (
	ModeAdd  Mode = "add"
	ModeEdit Mode = "edit"
)

// State of a dialog.
type State int

const (
	StateClosed State = iota
	StateLoadingMasters
	StateEditing
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateLoadingMasters:
		return "loading_masters"
	case StateEditing:
		return "editing"
	case StateSubmitting:
		return "submitting"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ValidationError lists the invalid draft fields with a message for each.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Outcome describes a completed save or delete.
type Outcome struct {
	Saved       bool                          `json:"saved"`
	Action      string                        `json:"action"`
	Table       string                        `json:"table"`
	RowID       string                        `json:"row_id"`
	Diff        map[string]domain.FieldChange `json:"diff"`
	AuditLogged bool                          `json:"audit_logged"`
}

// Dialog is the state machine shared by every edit dialog.
//
//	Closed -> LoadingMasters -> Editing -> Submitting -> Closed (saved)
//	                              ^            |
//	                              +------------+ (failure)
//
// Cancel closes an editing dialog without saving.
type Dialog struct {
	mu      sync.Mutex
	state   State
	saved   bool
	lastErr error
}

// State returns the current state.
func (d *Dialog) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Saved reports whether the dialog closed after a successful submission.
func (d *Dialog) Saved() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.saved
}

// LastError returns the error of the latest failed submission.
func (d *Dialog) LastError() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastErr
}

// open runs load while the dialog is in LoadingMasters, then enters Editing.
// A failing load closes the dialog again.
func (d *Dialog) open(ctx context.Context, load func(context.Context) error) error {
	d.mu.Lock()
	if d.state != StateClosed {
		d.mu.Unlock()
		return ErrAlreadyOpen
	}
	d.state = StateLoadingMasters
	d.saved = false
	d.lastErr = nil
	d.mu.Unlock()

	var err error
	if load != nil {
		err = load(ctx)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		d.state = StateClosed
		return err
	}
	d.state = StateEditing
	return nil
}

// Cancel closes an editing dialog with saved=false.
func (d *Dialog) Cancel() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != StateEditing {
		return ErrNotEditing
	}
	d.state = StateClosed
	d.saved = false
	return nil
}

// editing runs fn while the dialog is in Editing. Draft mutations go through it.
func (d *Dialog) editing(fn func() error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != StateEditing {
		return ErrNotEditing
	}
	return fn()
}

// submit validates, then runs save in Submitting. Validation failures keep
// the dialog in Editing without calling save. A failed save returns to
// Editing with the draft untouched; success closes the dialog.
func (d *Dialog) submit(ctx context.Context, validate func() error, save func(context.Context) (Outcome, error)) (Outcome, error) {
	d.mu.Lock()
	if d.state != StateEditing {
		d.mu.Unlock()
		return Outcome{}, ErrNotEditing
	}
	if validate != nil {
		if err := validate(); err != nil {
			d.lastErr = err
			d.mu.Unlock()
			return Outcome{}, err
		}
	}
	d.state = StateSubmitting
	d.mu.Unlock()

	out, err := save(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		d.state = StateEditing
		d.lastErr = err
		return Outcome{}, err
	}
	d.state = StateClosed
	d.saved = true
	d.lastErr = nil
	out.Saved = true
	return out, nil
}

// nullable trims s and maps the empty string to nil.
func nullable(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return s
}
