package gstorage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/Daskott/raksha/server/apperr"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const GCS_REF_PREFIX = "gs://"

type GStorage struct {
	storageClient *storage.Client
}

func NewGStorage(credentialsFilePath string) (*GStorage, error) {
	var client *storage.Client
	var err error

	if credentialsFilePath != "" {
		client, err = storage.NewClient(context.Background(), option.WithCredentialsFile(credentialsFilePath))
	} else {
		client, err = storage.NewClient(context.Background())
	}

	if err != nil {
		return nil, fmt.Errorf("NewGStorage: %v", err)
	}

	return &GStorage{storageClient: client}, nil
}

// UploadFile uploads the local file in filePath to bucket as 'object'
func (gs *GStorage) UploadFile(bucket, object, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("os.Open: %v", err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*50)
	defer cancel()

	wc := gs.storageClient.Bucket(bucket).Object(object).NewWriter(ctx)
	if _, err = io.Copy(wc, f); err != nil {
		return fmt.Errorf("io.Copy: %v", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("Writer.Close: %v", err)
	}

	return nil
}

// BucketStore keeps uploaded documents as objects in a GCS bucket
type BucketStore struct {
	gs     *GStorage
	bucket string
	prefix string
}

func (gs *GStorage) BucketStore(bucket, prefix string) *BucketStore {
	return &BucketStore{gs: gs, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// Save writes r to an object called name & returns a 'gs://bucket/object' reference
func (bs *BucketStore) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	object := path.Join(bs.prefix, name)

	wc := bs.gs.storageClient.Bucket(bs.bucket).Object(object).NewWriter(ctx)
	if _, err := io.Copy(wc, r); err != nil {
		wc.Close()
		return "", fmt.Errorf("io.Copy: %v", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("Writer.Close: %v", err)
	}

	return GCS_REF_PREFIX + path.Join(bs.bucket, object), nil
}

func (bs *BucketStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	object, err := bs.object(ref)
	if err != nil {
		return nil, err
	}

	rc, err := bs.gs.storageClient.Bucket(bs.bucket).Object(object).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, apperr.Wrap(err, apperr.NotFound, "document file not found")
	}
	if err != nil {
		return nil, fmt.Errorf("Object(%q).NewReader: %v", object, err)
	}

	return rc, nil
}

func (bs *BucketStore) Delete(ctx context.Context, ref string) error {
	object, err := bs.object(ref)
	if err != nil {
		return err
	}

	err = bs.gs.storageClient.Bucket(bs.bucket).Object(object).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("Object(%q).Delete: %v", object, err)
	}

	return nil
}

// List returns a 'gs://bucket/object' reference for every object under the store's prefix
func (bs *BucketStore) List(ctx context.Context) ([]string, error) {
	query := &storage.Query{}
	if bs.prefix != "" {
		query.Prefix = bs.prefix + "/"
	}

	refs := []string{}
	it := bs.gs.storageClient.Bucket(bs.bucket).Objects(ctx, query)
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("Bucket(%q).Objects: %v", bs.bucket, err)
		}
		refs = append(refs, GCS_REF_PREFIX+path.Join(bs.bucket, attrs.Name))
	}

	return refs, nil
}

func (bs *BucketStore) object(ref string) (string, error) {
	bucketPrefix := GCS_REF_PREFIX + bs.bucket + "/"
	if !strings.HasPrefix(ref, bucketPrefix) {
		return "", apperr.Errorf(apperr.NotFound, "%q is not in bucket %q", ref, bs.bucket)
	}

	return strings.TrimPrefix(ref, bucketPrefix), nil
}
