package objstore

import (
	"context"
)

// ObjectStore is the flat key-object capability everything above builds on.
// A missing object surfaces as pkgerr.ErrNotFound; any other backend fault
// propagates unchanged.
type ObjectStore interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
	DeleteObject(ctx context.Context, key string) error
	StatObject(ctx context.Context, key string) (bool, error)
	CopyObject(ctx context.Context, srcKey, dstKey, contentType string) error
	ListKeys(ctx context.Context, prefix string) ([]string, error)
	ListCommonPrefixes(ctx context.Context, prefix string) ([]string, error)
	// DeletePrefix removes every object under prefix, including any
	// backend-maintained version history. Best effort.
	DeletePrefix(ctx context.Context, prefix string) error
}

type Mode string

const (
	ModeGCS         Mode = "gcs"
	ModeGCSEmulator Mode = "gcs_emulator"
	ModeMemory      Mode = "memory"
)

func IsSupportedMode(mode Mode) bool {
	switch mode {
	case ModeGCS, ModeGCSEmulator, ModeMemory:
		return true
	default:
		return false
	}
}

type Config struct {
	Mode         Mode
	Bucket       string
	EmulatorHost string
}
