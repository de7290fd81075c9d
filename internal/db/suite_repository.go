package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"cloud.google.com/go/firestore"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"qaflow-backend-go/internal/models"
)

const suitesCollection = "suites"

// firestoreSuiteRepository implements the SuiteRepository interface using Firestore.
type firestoreSuiteRepository struct {
	client *firestore.Client
}

// NewFirestoreSuiteRepository creates a new instance of firestoreSuiteRepository.
func NewFirestoreSuiteRepository(client *firestore.Client) SuiteRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for SuiteRepository.")
	}
	return &firestoreSuiteRepository{client: client}
}

// Create adds a new suite document to Firestore with an auto-generated ID.
// It sets suite.ID with the new document ID before creation.
func (r *firestoreSuiteRepository) Create(ctx context.Context, suite *models.Suite) (string, error) {
	docRef := r.client.Collection(suitesCollection).NewDoc()
	suite.ID = docRef.ID

	// CreatedAt and UpdatedAt are handled by serverTimestamp tags in the model
	_, err := docRef.Create(ctx, suite)
	if err != nil {
		return "", fmt.Errorf("failed to create suite: %w", err)
	}
	return docRef.ID, nil
}

// GetByID retrieves a suite document from Firestore by its ID.
func (r *firestoreSuiteRepository) GetByID(ctx context.Context, suiteID string) (*models.Suite, error) {
	if suiteID == "" {
		return nil, errors.New("suiteID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(suitesCollection).Doc(suiteID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("suite with ID '%s' not found: %w", suiteID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get suite with ID '%s': %w", suiteID, err)
	}

	var suite models.Suite
	if err := docSnap.DataTo(&suite); err != nil {
		return nil, fmt.Errorf("failed to decode suite data for ID '%s': %w", suiteID, err)
	}
	suite.ID = docSnap.Ref.ID

	return &suite, nil
}

// ListVisible runs the owned, member and admin queries in parallel and merges
// the results, deduplicated and ordered by descending creation time.
//
// Permission-denied failures on individual queries are tolerated: whatever
// succeeded is merged and PartialFailure is set, even when every query was
// denied (the caller then sees an empty list, not an error). Any
// non-permission failure aborts the merge.
func (r *firestoreSuiteRepository) ListVisible(ctx context.Context, ownerID, uid string) (*SuiteListResult, error) {
	if uid == "" {
		return nil, errors.New("uid cannot be empty for ListVisible operation")
	}

	queries := []firestore.Query{
		r.client.Collection(suitesCollection).Where("ownerId", "==", ownerID),
		r.client.Collection(suitesCollection).Where("members", "array-contains", uid),
		r.client.Collection(suitesCollection).Where("admins", "array-contains", uid),
	}

	var mu sync.Mutex
	results := make([][]*models.Suite, len(queries))
	var denied int

	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			suites, err := r.runSuiteQuery(gctx, q)
			if err != nil {
				if status.Code(err) == codes.PermissionDenied {
					mu.Lock()
					denied++
					mu.Unlock()
					return nil
				}
				return err
			}
			mu.Lock()
			results[i] = suites
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to list visible suites for user '%s': %w", uid, err)
	}

	return assembleSuiteList(results, denied), nil
}

// assembleSuiteList merges the per-query result sets, deduplicated (a suite
// can match more than one query) and ordered by descending creation time.
// A nonzero denied count only sets PartialFailure; an all-denied merge is an
// empty list, not an error.
func assembleSuiteList(results [][]*models.Suite, denied int) *SuiteListResult {
	seen := make(map[string]struct{})
	var merged []*models.Suite
	for _, batch := range results {
		for _, s := range batch {
			if _, dup := seen[s.ID]; dup {
				continue
			}
			seen[s.ID] = struct{}{}
			merged = append(merged, s)
		}
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})

	return &SuiteListResult{Suites: merged, PartialFailure: denied > 0}
}

// runSuiteQuery executes a single suite query and decodes the results.
func (r *firestoreSuiteRepository) runSuiteQuery(ctx context.Context, query firestore.Query) ([]*models.Suite, error) {
	iter := query.Documents(ctx)
	defer iter.Stop()

	var suites []*models.Suite
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate suites: %w", err)
		}

		var suite models.Suite
		if err := doc.DataTo(&suite); err != nil {
			// Log and skip problematic document rather than failing the list.
			log.Printf("Error decoding suite data (ID: %s): %v. Skipping.", doc.Ref.ID, err)
			continue
		}
		suite.ID = doc.Ref.ID
		suites = append(suites, &suite)
	}
	return suites, nil
}

// CountByOwnerID counts the suites owned by an account, for plan limit checks.
func (r *firestoreSuiteRepository) CountByOwnerID(ctx context.Context, ownerID string) (int, error) {
	if ownerID == "" {
		return 0, errors.New("ownerID cannot be empty for CountByOwnerID operation")
	}
	iter := r.client.Collection(suitesCollection).Where("ownerId", "==", ownerID).Documents(ctx)
	defer iter.Stop()

	count := 0
	for {
		_, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to iterate suites for counting (owner '%s'): %w", ownerID, err)
		}
		count++
	}
	return count, nil
}

// Update modifies an existing suite document in Firestore.
func (r *firestoreSuiteRepository) Update(ctx context.Context, suite *models.Suite) error {
	if suite.ID == "" {
		return errors.New("suite ID cannot be empty for Update operation")
	}
	_, err := r.client.Collection(suitesCollection).Doc(suite.ID).Set(ctx, suite, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to update suite with ID '%s': %w", suite.ID, err)
	}
	return nil
}

// Delete removes a suite document from Firestore. Subcollections (reports,
// sprints) are not removed automatically; the service layer handles them.
func (r *firestoreSuiteRepository) Delete(ctx context.Context, suiteID string) error {
	if suiteID == "" {
		return errors.New("suiteID cannot be empty for Delete operation")
	}
	_, err := r.client.Collection(suitesCollection).Doc(suiteID).Delete(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("suite with ID '%s' not found for deletion: %w", suiteID, ErrNotFound)
		}
		return fmt.Errorf("failed to delete suite with ID '%s': %w", suiteID, err)
	}
	return nil
}

// FlagInactive marks the given suites inactive in a single batched write.
// Used by trial expiry handling to deactivate suites beyond the free limit.
func (r *firestoreSuiteRepository) FlagInactive(ctx context.Context, suiteIDs []string) error {
	if len(suiteIDs) == 0 {
		return nil
	}

	batch := r.client.Batch()
	for _, id := range suiteIDs {
		ref := r.client.Collection(suitesCollection).Doc(id)
		batch.Update(ref, []firestore.Update{{Path: "inactive", Value: true}})
	}
	if _, err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("failed to flag %d suite(s) inactive: %w", len(suiteIDs), err)
	}
	return nil
}
