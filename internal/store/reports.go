package store

import (
	"context"
)

// ReportExists probes for the public report blob of a lesson.
func (s *Store) ReportExists(ctx context.Context, email, lessonID string) (bool, error) {
	return s.backend.StatObject(ctx, s.reportObjectKey(SanitizeAccount(email), lessonID))
}

// PutReport stores the rendered public report HTML (generation is the
// report collaborator's concern) and returns the object key.
func (s *Store) PutReport(ctx context.Context, email, lessonID, html string) (string, error) {
	key := s.reportObjectKey(SanitizeAccount(email), lessonID)
	if err := s.backend.PutObject(ctx, key, []byte(html), "text/html"); err != nil {
		return "", err
	}
	return key, nil
}

// GetReport reads the rendered report; (nil, nil) when absent.
func (s *Store) GetReport(ctx context.Context, email, lessonID string) ([]byte, error) {
	raw, err := s.backend.GetObject(ctx, s.reportObjectKey(SanitizeAccount(email), lessonID))
	if err != nil {
		if isAbsent(err) {
			return nil, nil
		}
		return nil, err
	}
	return raw, nil
}
