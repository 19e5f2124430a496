package store

import (
	"context"
	"encoding/json"
)

// GetProfile reads the author profile blob; a missing or corrupt blob
// reads as an empty profile.
func (s *Store) GetProfile(ctx context.Context, email string) (*Profile, error) {
	return s.GetProfileByAccount(ctx, SanitizeAccount(email))
}

func (s *Store) GetProfileByAccount(ctx context.Context, account string) (*Profile, error) {
	raw, err := s.backend.GetObject(ctx, s.profileObjectKey(account))
	if err != nil {
		if isAbsent(err) {
			return &Profile{}, nil
		}
		return nil, err
	}
	var profile Profile
	if len(raw) == 0 || json.Unmarshal(raw, &profile) != nil {
		return &Profile{}, nil
	}
	return &profile, nil
}

// PutProfile overwrites the author profile blob; nil fields write as
// empty strings.
func (s *Store) PutProfile(ctx context.Context, email string, name, school *string) (*Profile, error) {
	account := SanitizeAccount(email)
	profile := &Profile{}
	if name != nil {
		profile.Name = *name
	}
	if school != nil {
		profile.School = *school
	}
	payload, err := marshalIndent(profile)
	if err != nil {
		return nil, err
	}
	if err := s.backend.PutObject(ctx, s.profileObjectKey(account), payload, contentTypeJSON); err != nil {
		return nil, err
	}
	return profile, nil
}
