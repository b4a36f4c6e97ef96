package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Archiver writes raw probe responses into the archive bucket.
type Archiver struct {
	client Client
	bucket string
	logger *zap.Logger

	// now is swappable for tests.
	now func() time.Time
}

// New creates an Archiver over the given client and bucket.
func New(client Client, bucket string, logger *zap.Logger) *Archiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archiver{
		client: client,
		bucket: bucket,
		logger: logger,
		now:    time.Now,
	}
}

// EnsureBucket creates the archive bucket if it does not exist yet.
func (a *Archiver) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check archive bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create archive bucket: %w", err)
	}
	return nil
}

// Store archives one raw probe response for the given phone number. The
// object key embeds the capture time so successive probes never overwrite
// each other.
func (a *Archiver) Store(ctx context.Context, phone string, raw []byte) error {
	key := a.objectKey(phone)
	_, err := a.client.PutObject(ctx, a.bucket, key,
		bytes.NewReader(raw), int64(len(raw)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("failed to archive probe response for %s: %w", phone, err)
	}

	a.logger.Debug("Archived probe response",
		zap.String("phone", phone),
		zap.String("object", key),
	)
	return nil
}

// Fetch returns one archived probe response. The object name is the
// timestamped file name as returned by List, without the prefix.
func (a *Archiver) Fetch(ctx context.Context, phone, object string) ([]byte, error) {
	key := "probes/" + phone + "/" + object
	reader, err := a.client.GetObject(ctx, a.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch archived probe %s: %w", key, err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read archived probe %s: %w", key, err)
	}
	return raw, nil
}

// List returns the archived object keys for one phone number.
func (a *Archiver) List(ctx context.Context, phone string) ([]string, error) {
	var keys []string
	objects := a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{
		Prefix:    "probes/" + phone + "/",
		Recursive: true,
	})
	for obj := range objects {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list archived probes for %s: %w", phone, obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func (a *Archiver) objectKey(phone string) string {
	return fmt.Sprintf("probes/%s/%s.json", phone, a.now().UTC().Format("20060102T150405.000"))
}
