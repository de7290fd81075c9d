package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"qaflow-backend-go/internal/models"
)

const sprintsSubcollection = "sprints"

// firestoreSprintRepository implements the SprintRepository interface using
// Firestore. Sprints are stored under suites/{suiteID}/sprints.
type firestoreSprintRepository struct {
	client *firestore.Client
}

// NewFirestoreSprintRepository creates a new instance of firestoreSprintRepository.
func NewFirestoreSprintRepository(client *firestore.Client) SprintRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for SprintRepository.")
	}
	return &firestoreSprintRepository{client: client}
}

func (r *firestoreSprintRepository) sprints(suiteID string) *firestore.CollectionRef {
	return r.client.Collection(suitesCollection).Doc(suiteID).Collection(sprintsSubcollection)
}

// Create adds a new sprint document under the suite's subcollection.
func (r *firestoreSprintRepository) Create(ctx context.Context, suiteID string, sprint *models.Sprint) (string, error) {
	if suiteID == "" {
		return "", errors.New("suiteID cannot be empty for Create operation")
	}
	docRef := r.sprints(suiteID).NewDoc()
	sprint.ID = docRef.ID
	sprint.SuiteID = suiteID

	_, err := docRef.Create(ctx, sprint)
	if err != nil {
		return "", fmt.Errorf("failed to create sprint in suite '%s': %w", suiteID, err)
	}
	return docRef.ID, nil
}

// GetByID retrieves a sprint by its ID within a suite.
func (r *firestoreSprintRepository) GetByID(ctx context.Context, suiteID, sprintID string) (*models.Sprint, error) {
	if suiteID == "" || sprintID == "" {
		return nil, errors.New("suiteID and sprintID cannot be empty for GetByID operation")
	}
	docSnap, err := r.sprints(suiteID).Doc(sprintID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("sprint '%s' not found in suite '%s': %w", sprintID, suiteID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get sprint '%s' in suite '%s': %w", sprintID, suiteID, err)
	}

	var sprint models.Sprint
	if err := docSnap.DataTo(&sprint); err != nil {
		return nil, fmt.Errorf("failed to decode sprint data for ID '%s': %w", sprintID, err)
	}
	sprint.ID = docSnap.Ref.ID
	sprint.SuiteID = suiteID

	return &sprint, nil
}

// GetBySuiteID retrieves the sprints of a suite ordered by descending
// creation time.
func (r *firestoreSprintRepository) GetBySuiteID(ctx context.Context, suiteID string) ([]*models.Sprint, error) {
	if suiteID == "" {
		return nil, errors.New("suiteID cannot be empty for GetBySuiteID operation")
	}

	iter := r.sprints(suiteID).OrderBy("createdAt", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var sprints []*models.Sprint
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate sprints for suite '%s': %w", suiteID, err)
		}

		var sprint models.Sprint
		if err := doc.DataTo(&sprint); err != nil {
			log.Printf("Error decoding sprint data (ID: %s) in suite '%s': %v. Skipping.", doc.Ref.ID, suiteID, err)
			continue
		}
		sprint.ID = doc.Ref.ID
		sprint.SuiteID = suiteID
		sprints = append(sprints, &sprint)
	}

	return sprints, nil
}

// Update modifies an existing sprint document.
func (r *firestoreSprintRepository) Update(ctx context.Context, suiteID string, sprint *models.Sprint) error {
	if suiteID == "" || sprint.ID == "" {
		return errors.New("suiteID and sprint ID cannot be empty for Update operation")
	}
	_, err := r.sprints(suiteID).Doc(sprint.ID).Set(ctx, sprint, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to update sprint '%s' in suite '%s': %w", sprint.ID, suiteID, err)
	}
	return nil
}

// Delete removes a sprint document.
func (r *firestoreSprintRepository) Delete(ctx context.Context, suiteID, sprintID string) error {
	if suiteID == "" || sprintID == "" {
		return errors.New("suiteID and sprintID cannot be empty for Delete operation")
	}
	_, err := r.sprints(suiteID).Doc(sprintID).Delete(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("sprint '%s' not found in suite '%s' for deletion: %w", sprintID, suiteID, ErrNotFound)
		}
		return fmt.Errorf("failed to delete sprint '%s' in suite '%s': %w", sprintID, suiteID, err)
	}
	return nil
}
