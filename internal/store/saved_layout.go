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

// savedLayoutStore is the Firestore catalog of named layout snapshots.
type savedLayoutStore struct {
	client *firestore.Client
}

func NewSavedLayoutStore(client *firestore.Client) *savedLayoutStore {
	return &savedLayoutStore{client: client}
}

func (s *savedLayoutStore) collection(uid string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(uid).Collection("saved_layouts")
}

func (s *savedLayoutStore) Create(ctx context.Context, uid string, rec *models.SavedLayout) error {
	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	if _, err := s.collection(uid).Doc(rec.ID).Set(ctx, rec); err != nil {
		return errs.NewDatabaseError("create", "failed to create saved layout", err)
	}
	return nil
}

func (s *savedLayoutStore) Get(ctx context.Context, uid, id string) (*models.SavedLayout, error) {
	doc, err := s.collection(uid).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errs.NewNotFoundError("saved layout not found")
		}
		return nil, errs.NewDatabaseError("read", "failed to get saved layout", err)
	}
	var rec models.SavedLayout
	if err := doc.DataTo(&rec); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse saved layout", err)
	}
	return &rec, nil
}

func (s *savedLayoutStore) List(ctx context.Context, uid string) ([]*models.SavedLayout, error) {
	docs, err := s.collection(uid).OrderBy("createdAt", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list saved layouts", err)
	}
	recs := make([]*models.SavedLayout, 0, len(docs))
	for _, d := range docs {
		var rec models.SavedLayout
		if err := d.DataTo(&rec); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse saved layout", err)
		}
		recs = append(recs, &rec)
	}
	return recs, nil
}

func (s *savedLayoutStore) Update(ctx context.Context, uid string, rec *models.SavedLayout) error {
	rec.UpdatedAt = time.Now()
	if _, err := s.collection(uid).Doc(rec.ID).Set(ctx, rec); err != nil {
		return errs.NewDatabaseError("update", "failed to update saved layout", err)
	}
	return nil
}

func (s *savedLayoutStore) Delete(ctx context.Context, uid, id string) error {
	if _, err := s.collection(uid).Doc(id).Delete(ctx); err != nil {
		return errs.NewDatabaseError("delete", "failed to delete saved layout", err)
	}
	return nil
}

// ClearDefault unsets is_default on every record except keepID. Only one
// saved layout may be the default at a time.
func (s *savedLayoutStore) ClearDefault(ctx context.Context, uid, keepID string) error {
	docs, err := s.collection(uid).Where("isDefault", "==", true).Documents(ctx).GetAll()
	if err != nil {
		return errs.NewDatabaseError("read", "failed to query default layouts", err)
	}
	for _, d := range docs {
		if d.Ref.ID == keepID {
			continue
		}
		_, err := d.Ref.Update(ctx, []firestore.Update{
			{Path: "isDefault", Value: false},
			{Path: "updatedAt", Value: time.Now()},
		})
		if err != nil {
			return errs.NewDatabaseError("update", "failed to unset default layout", err)
		}
	}
	return nil
}
