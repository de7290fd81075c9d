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

const reportsSubcollection = "bugReports"

// firestoreBugReportRepository implements the BugReportRepository interface
// using Firestore. Reports are stored under suites/{suiteID}/bugReports.
type firestoreBugReportRepository struct {
	client *firestore.Client
}

// NewFirestoreBugReportRepository creates a new instance of firestoreBugReportRepository.
func NewFirestoreBugReportRepository(client *firestore.Client) BugReportRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for BugReportRepository.")
	}
	return &firestoreBugReportRepository{client: client}
}

func (r *firestoreBugReportRepository) reports(suiteID string) *firestore.CollectionRef {
	return r.client.Collection(suitesCollection).Doc(suiteID).Collection(reportsSubcollection)
}

// Create adds a new bug report document under the suite's subcollection.
func (r *firestoreBugReportRepository) Create(ctx context.Context, suiteID string, report *models.BugReport) (string, error) {
	if suiteID == "" {
		return "", errors.New("suiteID cannot be empty for Create operation")
	}
	docRef := r.reports(suiteID).NewDoc()
	report.ID = docRef.ID
	report.SuiteID = suiteID

	_, err := docRef.Create(ctx, report)
	if err != nil {
		return "", fmt.Errorf("failed to create bug report in suite '%s': %w", suiteID, err)
	}
	return docRef.ID, nil
}

// GetByID retrieves a bug report by its ID within a suite.
func (r *firestoreBugReportRepository) GetByID(ctx context.Context, suiteID, reportID string) (*models.BugReport, error) {
	if suiteID == "" || reportID == "" {
		return nil, errors.New("suiteID and reportID cannot be empty for GetByID operation")
	}
	docSnap, err := r.reports(suiteID).Doc(reportID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("bug report '%s' not found in suite '%s': %w", reportID, suiteID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get bug report '%s' in suite '%s': %w", reportID, suiteID, err)
	}

	var report models.BugReport
	if err := docSnap.DataTo(&report); err != nil {
		return nil, fmt.Errorf("failed to decode bug report data for ID '%s': %w", reportID, err)
	}
	report.ID = docSnap.Ref.ID
	report.SuiteID = suiteID

	return &report, nil
}

// GetBySuiteID retrieves the bug reports of a suite ordered by descending
// creation time. A limit of 0 means no limit.
func (r *firestoreBugReportRepository) GetBySuiteID(ctx context.Context, suiteID string, limit int) ([]*models.BugReport, error) {
	if suiteID == "" {
		return nil, errors.New("suiteID cannot be empty for GetBySuiteID operation")
	}

	query := r.reports(suiteID).OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var reports []*models.BugReport
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate bug reports for suite '%s': %w", suiteID, err)
		}

		var report models.BugReport
		if err := doc.DataTo(&report); err != nil {
			log.Printf("Error decoding bug report data (ID: %s) in suite '%s': %v. Skipping.", doc.Ref.ID, suiteID, err)
			continue
		}
		report.ID = doc.Ref.ID
		report.SuiteID = suiteID
		reports = append(reports, &report)
	}

	return reports, nil
}

// Update modifies an existing bug report document.
func (r *firestoreBugReportRepository) Update(ctx context.Context, suiteID string, report *models.BugReport) error {
	if suiteID == "" || report.ID == "" {
		return errors.New("suiteID and report ID cannot be empty for Update operation")
	}
	_, err := r.reports(suiteID).Doc(report.ID).Set(ctx, report, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to update bug report '%s' in suite '%s': %w", report.ID, suiteID, err)
	}
	return nil
}

// Delete removes a bug report document.
func (r *firestoreBugReportRepository) Delete(ctx context.Context, suiteID, reportID string) error {
	if suiteID == "" || reportID == "" {
		return errors.New("suiteID and reportID cannot be empty for Delete operation")
	}
	_, err := r.reports(suiteID).Doc(reportID).Delete(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("bug report '%s' not found in suite '%s' for deletion: %w", reportID, suiteID, ErrNotFound)
		}
		return fmt.Errorf("failed to delete bug report '%s' in suite '%s': %w", reportID, suiteID, err)
	}
	return nil
}
