package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	pkgerr "github.com/yungbote/lessonforge-backend/internal/pkg/errors"
	"github.com/yungbote/lessonforge-backend/internal/platform/logger"
)

type gcsStore struct {
	log    *logger.Logger
	client *storage.Client
	bucket string
}

func NewGCSStore(log *logger.Logger, cfg Config) (ObjectStore, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("gcs object store: %w: bucket name missing", pkgerr.ErrNotConfigured)
	}

	ctx := context.Background()
	var opts []option.ClientOption
	if cfg.Mode == ModeGCSEmulator {
		host := strings.TrimSpace(cfg.EmulatorHost)
		if host == "" {
			return nil, fmt.Errorf("gcs object store: %w: emulator host missing", pkgerr.ErrNotConfigured)
		}
		if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
			host = "http://" + host
		}
		opts = append(opts,
			option.WithEndpoint(strings.TrimRight(host, "/")+"/storage/v1/"),
			option.WithoutAuthentication(),
		)
	} else {
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &gcsStore{
		log:    log.With("service", "ObjectStore", "mode", string(cfg.Mode)),
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

func isNotFound(err error) bool {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return true
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusNotFound
	}
	return false
}

func (s *gcsStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	r, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("object %q: %w", key, pkgerr.ErrNotFound)
		}
		return nil, fmt.Errorf("open GCS reader for %q: %w", key, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read GCS object %q: %w", key, err)
	}
	return data, nil
}

func (s *gcsStore) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write GCS object %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close GCS writer for %q: %w", key, err)
	}
	return nil
}

func (s *gcsStore) DeleteObject(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := s.client.Bucket(s.bucket).Object(key).Delete(ctx); err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("delete GCS object %q: %w", key, err)
	}
	return nil
}

func (s *gcsStore) StatObject(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	_, err := s.client.Bucket(s.bucket).Object(key).Attrs(ctx)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat GCS object %q: %w", key, err)
	}
	return true, nil
}

func (s *gcsStore) CopyObject(ctx context.Context, srcKey, dstKey, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	src := s.client.Bucket(s.bucket).Object(srcKey)
	dst := s.client.Bucket(s.bucket).Object(dstKey)
	copier := dst.CopierFrom(src)
	if contentType != "" {
		copier.ContentType = contentType
	}
	if _, err := copier.Run(ctx); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("copy source %q: %w", srcKey, pkgerr.ErrNotFound)
		}
		return fmt.Errorf("copy %s->%s: %w", srcKey, dstKey, err)
	}
	return nil
}

func (s *gcsStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	out := []string{}
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list GCS prefix %q: %w", prefix, err)
		}
		out = append(out, attrs.Name)
	}
	return out, nil
}

func (s *gcsStore) ListCommonPrefixes(ctx context.Context, prefix string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: prefix, Delimiter: "/"})
	out := []string{}
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list GCS common prefixes %q: %w", prefix, err)
		}
		if attrs.Prefix == "" {
			continue
		}
		child := strings.TrimSuffix(strings.TrimPrefix(attrs.Prefix, prefix), "/")
		if child != "" {
			out = append(out, child)
		}
	}
	return out, nil
}

func (s *gcsStore) DeletePrefix(ctx context.Context, prefix string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	// Versions:true sweeps noncurrent generations when bucket versioning
	// is enabled; deleting by generation removes the history entry.
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: prefix, Versions: true})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("list versions for prefix %q: %w", prefix, err)
		}
		obj := s.client.Bucket(s.bucket).Object(attrs.Name)
		if attrs.Generation != 0 {
			obj = obj.Generation(attrs.Generation)
		}
		if err := obj.Delete(ctx); err != nil && !isNotFound(err) {
			s.log.Warn("Failed to delete object under prefix", "key", attrs.Name, "generation", attrs.Generation, "error", err)
		}
	}
	return nil
}
