package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/pagecurl-labs/flipbookd/internal/domain"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore persists flipbook records across the two tier collections.
type Firestore struct {
	client      *firestore.Client
	collections map[domain.Tier]string
}

// NewFirestore creates a record store over an existing Firestore client.
func NewFirestore(client *firestore.Client, publicCollection, pendingCollection string) *Firestore {
	return &Firestore{
		client: client,
		collections: map[domain.Tier]string{
			domain.TierPublic:  publicCollection,
			domain.TierPending: pendingCollection,
		},
	}
}

func (s *Firestore) col(tier domain.Tier) (*firestore.CollectionRef, error) {
	name, ok := s.collections[tier]
	if !ok {
		return nil, domain.RecordsError(fmt.Sprintf("unknown tier %q", tier), nil)
	}
	return s.client.Collection(name), nil
}

// Get loads a record by its bookId.
func (s *Firestore) Get(ctx context.Context, tier domain.Tier, bookID string) (*domain.Flipbook, error) {
	col, err := s.col(tier)
	if err != nil {
		return nil, err
	}

	snap, err := col.Doc(bookID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, domain.NotFoundError(fmt.Sprintf("flipbook %s not found", bookID), err)
	}
	if err != nil {
		return nil, domain.RecordsError(fmt.Sprintf("failed to read flipbook %s", bookID), err)
	}

	var fb domain.Flipbook
	if err := snap.DataTo(&fb); err != nil {
		return nil, domain.RecordsError(fmt.Sprintf("failed to decode flipbook %s", bookID), err)
	}
	return &fb, nil
}

// Put creates or overwrites a record.
func (s *Firestore) Put(ctx context.Context, tier domain.Tier, bookID string, fb *domain.Flipbook) error {
	col, err := s.col(tier)
	if err != nil {
		return err
	}

	if _, err := col.Doc(bookID).Set(ctx, fb); err != nil {
		return domain.RecordsError(fmt.Sprintf("failed to write flipbook %s", bookID), err)
	}
	return nil
}

// Update applies a partial field update to an existing record.
func (s *Firestore) Update(ctx context.Context, tier domain.Tier, bookID string, fields map[string]any) error {
	col, err := s.col(tier)
	if err != nil {
		return err
	}

	updates := make([]firestore.Update, 0, len(fields))
	for path, value := range fields {
		if value == nil {
			value = firestore.Delete
		}
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}

	_, err = col.Doc(bookID).Update(ctx, updates)
	if status.Code(err) == codes.NotFound {
		return domain.NotFoundError(fmt.Sprintf("flipbook %s not found", bookID), err)
	}
	if err != nil {
		return domain.RecordsError(fmt.Sprintf("failed to update flipbook %s", bookID), err)
	}
	return nil
}

// Delete removes a record.
func (s *Firestore) Delete(ctx context.Context, tier domain.Tier, bookID string) error {
	col, err := s.col(tier)
	if err != nil {
		return err
	}

	if _, err := col.Doc(bookID).Delete(ctx); err != nil {
		return domain.RecordsError(fmt.Sprintf("failed to delete flipbook %s", bookID), err)
	}
	return nil
}

// Promote moves a record from the pending collection to the public collection
// in one transaction. The public copy carries no owner. Concurrent promotions
// of the same bookId serialize on the transaction; the losers observe the
// pending document as already gone.
func (s *Firestore) Promote(ctx context.Context, bookID string) error {
	pendingCol, err := s.col(domain.TierPending)
	if err != nil {
		return err
	}
	publicCol, err := s.col(domain.TierPublic)
	if err != nil {
		return err
	}

	pendingRef := pendingCol.Doc(bookID)
	publicRef := publicCol.Doc(bookID)

	err = s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(pendingRef)
		if status.Code(err) == codes.NotFound {
			return domain.NotFoundError(fmt.Sprintf("pending flipbook %s does not exist", bookID), err)
		}
		if err != nil {
			return err
		}

		var fb domain.Flipbook
		if err := snap.DataTo(&fb); err != nil {
			return err
		}
		fb.OwnerUID = ""

		if err := tx.Set(publicRef, &fb); err != nil {
			return err
		}
		return tx.Delete(pendingRef)
	})
	if err != nil {
		if domain.IsNotFound(err) {
			return err
		}
		return domain.TransactionError(fmt.Sprintf("failed to promote flipbook %s", bookID), err)
	}
	return nil
}

// List returns the records of a tier matching the filter.
func (s *Firestore) List(ctx context.Context, tier domain.Tier, filter domain.RecordFilter) ([]domain.FlipbookEntry, error) {
	col, err := s.col(tier)
	if err != nil {
		return nil, err
	}

	query := col.Query
	if filter.MainCategory != "" {
		query = query.Where("mainCategory", "==", filter.MainCategory)
	}
	if filter.Subcategory != "" {
		query = query.Where("subcategory", "==", filter.Subcategory)
	}
	if filter.OwnerUID != "" {
		query = query.Where("uid", "==", filter.OwnerUID)
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, domain.RecordsError("failed to list flipbooks", err)
	}

	entries := make([]domain.FlipbookEntry, 0, len(docs))
	for _, doc := range docs {
		var fb domain.Flipbook
		if err := doc.DataTo(&fb); err != nil {
			return nil, domain.RecordsError(fmt.Sprintf("failed to decode flipbook %s", doc.Ref.ID), err)
		}
		entries = append(entries, domain.FlipbookEntry{BookID: doc.Ref.ID, Flipbook: fb})
	}
	return entries, nil
}
