package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"qaflow-backend-go/internal/models"
)

const profilesCollection = "profiles"

// ErrNotFound is a common error for when a document is not found in Firestore.
var ErrNotFound = errors.New("document not found")

// firestoreProfileRepository implements the ProfileRepository interface using Firestore.
type firestoreProfileRepository struct {
	client *firestore.Client
}

// NewFirestoreProfileRepository creates a new instance of firestoreProfileRepository.
func NewFirestoreProfileRepository(client *firestore.Client) ProfileRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for ProfileRepository.")
	}
	return &firestoreProfileRepository{client: client}
}

// Create adds a new profile document to Firestore. The profile.UID (Firebase
// Auth UID) is used as the Firestore document ID. CreatedAt and UpdatedAt are
// populated server-side via the serverTimestamp tags.
func (r *firestoreProfileRepository) Create(ctx context.Context, profile *models.UserProfile) error {
	if profile.UID == "" {
		return errors.New("profile UID cannot be empty for Create operation")
	}
	_, err := r.client.Collection(profilesCollection).Doc(profile.UID).Create(ctx, profile)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("profile with UID '%s' already exists: %w", profile.UID, err)
		}
		return fmt.Errorf("failed to create profile with UID '%s': %w", profile.UID, err)
	}
	return nil
}

// GetByUID retrieves a profile document from Firestore by its UID.
func (r *firestoreProfileRepository) GetByUID(ctx context.Context, uid string) (*models.UserProfile, error) {
	if uid == "" {
		return nil, errors.New("uid cannot be empty for GetByUID operation")
	}
	docSnap, err := r.client.Collection(profilesCollection).Doc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("profile with UID '%s' not found: %w", uid, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get profile with UID '%s': %w", uid, err)
	}

	var profile models.UserProfile
	if err := docSnap.DataTo(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile data for UID '%s': %w", uid, err)
	}
	profile.UID = docSnap.Ref.ID

	return &profile, nil
}

// Update overwrites the mutable fields of an existing profile document.
// Set with MergeAll keeps fields that the struct does not carry.
func (r *firestoreProfileRepository) Update(ctx context.Context, profile *models.UserProfile) error {
	if profile.UID == "" {
		return errors.New("profile UID cannot be empty for Update operation")
	}
	_, err := r.client.Collection(profilesCollection).Doc(profile.UID).Set(ctx, profile, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to update profile with UID '%s': %w", profile.UID, err)
	}
	return nil
}

// UpdateFields writes only the given field paths of the profile document.
// Used by trial reconciliation, which must persist exactly the drifted
// fields plus the update timestamp.
func (r *firestoreProfileRepository) UpdateFields(ctx context.Context, uid string, fields map[string]interface{}) error {
	if uid == "" {
		return errors.New("uid cannot be empty for UpdateFields operation")
	}
	if len(fields) == 0 {
		return nil
	}

	updates := make([]firestore.Update, 0, len(fields))
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}

	_, err := r.client.Collection(profilesCollection).Doc(uid).Update(ctx, updates)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("profile with UID '%s' not found for field update: %w", uid, ErrNotFound)
		}
		return fmt.Errorf("failed to update profile fields for UID '%s': %w", uid, err)
	}
	return nil
}
