package store

import (
	"fmt"
	"strings"
	"unicode"
)

// SanitizeAccount normalizes an email-like owner identity into the storage
// partition token used in every key path.
func SanitizeAccount(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	var b strings.Builder
	for _, ch := range email {
		switch {
		case unicode.IsLetter(ch) || unicode.IsDigit(ch):
			b.WriteRune(ch)
		case ch == '@':
			b.WriteString("_at_")
		case ch == '.':
			b.WriteString("_dot_")
		default:
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "_")
}

func (s *Store) accountPrefix(account string) string {
	return fmt.Sprintf("%s/%s/", s.prefix, account)
}

func (s *Store) indexKey(account string) string {
	return fmt.Sprintf("%s/%s/lessons/_meta/index.json", s.prefix, account)
}

func (s *Store) lessonKey(account, lessonID string) string {
	return fmt.Sprintf("%s/%s/lessons/%s/index.json", s.prefix, account, lessonID)
}

func (s *Store) lessonPrefix(account, lessonID string) string {
	return fmt.Sprintf("%s/%s/lessons/%s/", s.prefix, account, lessonID)
}

func (s *Store) sectionObjectKey(account, lessonID, filename string) string {
	return fmt.Sprintf("%s/%s/lessons/%s/%s", s.prefix, account, lessonID, filename)
}

func (s *Store) iconObjectKey(account, lessonID, extension string) string {
	ext := strings.ToLower(strings.TrimLeft(extension, "."))
	return fmt.Sprintf("%s/%s/lessons/_meta/icon_%s.%s", s.prefix, account, lessonID, ext)
}

func (s *Store) reportObjectKey(account, lessonID string) string {
	return fmt.Sprintf("%s/%s/lessons/%s/public-lesson.html", s.prefix, account, lessonID)
}

func (s *Store) profileObjectKey(account string) string {
	return fmt.Sprintf("%s/%s/teacher.json", s.prefix, account)
}

// IconKey exposes the icon object key to collaborators that own icon
// upload/validation.
func (s *Store) IconKey(email, lessonID, extension string) string {
	return s.iconObjectKey(SanitizeAccount(email), lessonID, extension)
}

// ReportKey exposes the report object key to the report-generation
// collaborator.
func (s *Store) ReportKey(email, lessonID string) string {
	return s.reportObjectKey(SanitizeAccount(email), lessonID)
}
