package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/portfoliodash/backend/internal/errs"
	"github.com/portfoliodash/backend/internal/models"
)

// layoutStore persists the active dashboard layout, one document per
// breakpoint, plus a visibility-flags document. This is the durable source
// of truth for the current dashboard state; named snapshots live in the
// saved-layout catalog instead.
type layoutStore struct {
	client *firestore.Client
}

func NewLayoutStore(client *firestore.Client) *layoutStore {
	return &layoutStore{client: client}
}

const visibilityDoc = "widget-visibility"

type breakpointDoc struct {
	Rects     []models.GridRect `firestore:"rects"`
	UpdatedAt time.Time         `firestore:"updatedAt"`
}

type visibilityFlagsDoc struct {
	Hidden    map[string]bool `firestore:"hidden"`
	UpdatedAt time.Time       `firestore:"updatedAt"`
}

func (s *layoutStore) collection(uid string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(uid).Collection("dashboard_layout")
}

// Load reads every persisted breakpoint. Breakpoints with no document are
// absent from the returned layout; a user with no state at all gets an
// empty layout and no error.
func (s *layoutStore) Load(ctx context.Context, uid string) (models.Layout, error) {
	layout := make(models.Layout)
	for _, bp := range models.Breakpoints {
		doc, err := s.collection(uid).Doc(string(bp)).Get(ctx)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				continue
			}
			return nil, errs.NewDatabaseError("read", "failed to load layout", err)
		}
		var d breakpointDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse layout document", err)
		}
		layout[bp] = d.Rects
	}
	return layout, nil
}

// Save replaces every breakpoint of the layout in one flush, so an edit
// that touches all breakpoints does not land on only some of them.
func (s *layoutStore) Save(ctx context.Context, uid string, layout models.Layout) error {
	bw := s.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(models.Breakpoints))
	now := time.Now()

	for _, bp := range models.Breakpoints {
		job, err := bw.Set(s.collection(uid).Doc(string(bp)), breakpointDoc{
			Rects:     layout[bp],
			UpdatedAt: now,
		})
		if err != nil {
			bw.End()
			return errs.NewDatabaseError("update", "failed to save layout", err)
		}
		jobs = append(jobs, job)
	}

	bw.End()
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return errs.NewDatabaseError("update", "failed to save layout", err)
		}
	}
	return nil
}

// SaveBreakpoint replaces the rect list for one breakpoint.
func (s *layoutStore) SaveBreakpoint(ctx context.Context, uid string, bp models.Breakpoint, rects []models.GridRect) error {
	_, err := s.collection(uid).Doc(string(bp)).Set(ctx, breakpointDoc{
		Rects:     rects,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		return errs.NewDatabaseError("update", "failed to save layout breakpoint", err)
	}
	return nil
}

// Clear removes every breakpoint document and the visibility flags.
func (s *layoutStore) Clear(ctx context.Context, uid string) error {
	for _, bp := range models.Breakpoints {
		if _, err := s.collection(uid).Doc(string(bp)).Delete(ctx); err != nil {
			return errs.NewDatabaseError("delete", "failed to clear layout", err)
		}
	}
	if _, err := s.collection(uid).Doc(visibilityDoc).Delete(ctx); err != nil {
		return errs.NewDatabaseError("delete", "failed to clear visibility flags", err)
	}
	return nil
}

// VisibilityFlags returns the hidden-state map; empty map when unset.
func (s *layoutStore) VisibilityFlags(ctx context.Context, uid string) (map[string]bool, error) {
	doc, err := s.collection(uid).Doc(visibilityDoc).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return map[string]bool{}, nil
		}
		return nil, errs.NewDatabaseError("read", "failed to load visibility flags", err)
	}
	var d visibilityFlagsDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse visibility flags", err)
	}
	if d.Hidden == nil {
		d.Hidden = map[string]bool{}
	}
	return d.Hidden, nil
}

// SetVisibilityFlag marks one widget instance hidden or visible.
func (s *layoutStore) SetVisibilityFlag(ctx context.Context, uid, instanceID string, hidden bool) error {
	flags, err := s.VisibilityFlags(ctx, uid)
	if err != nil {
		return err
	}
	if hidden {
		flags[instanceID] = true
	} else {
		delete(flags, instanceID)
	}
	_, err = s.collection(uid).Doc(visibilityDoc).Set(ctx, visibilityFlagsDoc{
		Hidden:    flags,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		return errs.NewDatabaseError("update", "failed to save visibility flags", err)
	}
	return nil
}
