package app

import (
	"fmt"
	"strings"

	"github.com/yungbote/lessonforge-backend/internal/platform/logger"
	"github.com/yungbote/lessonforge-backend/internal/platform/objstore"
)

type StorageBootstrapErrorCode string

const (
	StorageBootstrapErrorInvalidMode         StorageBootstrapErrorCode = "invalid_mode"
	StorageBootstrapErrorMissingEmulatorHost StorageBootstrapErrorCode = "missing_emulator_host"
	StorageBootstrapErrorConnectFailed       StorageBootstrapErrorCode = "connect_failed"
)

type StorageBootstrapError struct {
	Code         StorageBootstrapErrorCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *StorageBootstrapError) Error() string {
	if e == nil {
		return "object storage bootstrap failed"
	}
	return fmt.Sprintf(
		"object storage bootstrap failed (code=%s mode=%q emulator_host=%q): %v",
		e.Code,
		e.Mode,
		e.EmulatorHost,
		e.Cause,
	)
}

func (e *StorageBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func resolveObjectStore(log *logger.Logger, cfg Config) (objstore.ObjectStore, error) {
	mode := objstore.Mode(strings.TrimSpace(string(cfg.StorageMode)))
	if !objstore.IsSupportedMode(mode) {
		return nil, &StorageBootstrapError{
			Code: StorageBootstrapErrorInvalidMode,
			Mode: string(mode),
		}
	}
	switch mode {
	case objstore.ModeMemory:
		log.Warn("Using in-memory object storage; contents do not survive restarts")
		return objstore.NewMemoryStore(), nil
	case objstore.ModeGCSEmulator:
		host := strings.TrimSpace(cfg.EmulatorHost)
		if host == "" {
			return nil, &StorageBootstrapError{
				Code: StorageBootstrapErrorMissingEmulatorHost,
				Mode: string(mode),
			}
		}
		backend, err := objstore.NewGCSStore(log, objstore.Config{
			Mode:         mode,
			Bucket:       cfg.Bucket,
			EmulatorHost: host,
		})
		if err != nil {
			return nil, &StorageBootstrapError{
				Code:         StorageBootstrapErrorConnectFailed,
				Mode:         string(mode),
				EmulatorHost: host,
				Cause:        err,
			}
		}
		return backend, nil
	default:
		backend, err := objstore.NewGCSStore(log, objstore.Config{
			Mode:   mode,
			Bucket: cfg.Bucket,
		})
		if err != nil {
			return nil, &StorageBootstrapError{
				Code:  StorageBootstrapErrorConnectFailed,
				Mode:  string(mode),
				Cause: err,
			}
		}
		return backend, nil
	}
}
