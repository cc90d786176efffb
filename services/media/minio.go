// Package mediasvc stores question and code block images in a MinIO/S3 bucket.
package mediasvc

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"

	"github.com/examprep/portal/core"
)

const uploadPrefix = "uploads"

// sniffLen is how much of an upload http.DetectContentType looks at.
const sniffLen = 512

var (
	errEmptyRef = errors.New("empty image reference")
	errNotImage = core.NewFieldError("file", "only png, jpeg, gif and webp images are allowed")
)

// allowed upload content types and the extension their objects get.
// Script-capable formats such as svg are left out.
var imageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type minioStore struct {
	client *minio.Client
	bucket string
	expiry time.Duration
}

var _ core.MediaStore = (*minioStore)(nil)

func NewMinioStore(conf core.MediaConfig) (core.MediaStore, error) {
	client, err := minio.New(conf.Endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(conf.AccessKey, conf.SecretKey, ""),
		Secure:       conf.UseSSL,
		Region:       conf.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating minio client")
	}
	expiry := conf.URLExpiry
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &minioStore{client: client, bucket: conf.Bucket, expiry: expiry}, nil
}

// New returns the configured object store, or a passthrough store when media is not configured.
func New(conf *core.Config) (core.MediaStore, error) {
	if !conf.MediaEnabled() {
		return passthroughStore{}, nil
	}
	return NewMinioStore(conf.Media)
}

// URL presigns a GET of ref. Absolute URLs (legacy references) are returned as-is.
func (s *minioStore) URL(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimLeft(strings.TrimSpace(ref), "/")
	if ref == "" {
		return "", errEmptyRef
	}
	if isAbsolute(ref) {
		return ref, nil
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, ref, s.expiry, nil)
	if err != nil {
		return "", errors.Wrapf(err, "presigning %s", ref)
	}
	return u.String(), nil
}

// Upload stores r under a new unique key and returns that key.
// The client-declared content type is ignored, the stored one is sniffed from the data.
func (s *minioStore) Upload(ctx context.Context, name string, r io.Reader, size int64, _ string) (string, error) {
	r, contentType, err := SniffImage(r)
	if err != nil {
		return "", err
	}
	key, err := ObjectKey(name, contentType)
	if err != nil {
		return "", err
	}
	_, err = s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		if minio.ToErrorResponse(err).StatusCode == http.StatusNotFound {
			return "", errors.Wrapf(err, "bucket %s", s.bucket)
		}
		return "", errors.Wrapf(err, "uploading %s", name)
	}
	return key, nil
}

// ObjectKey names an upload: uploads/<yyyy>/<mm>/<uuid><ext>. Only images are accepted.
func ObjectKey(name, contentType string) (string, error) {
	contentType = strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	ext, ok := imageTypes[contentType]
	if !ok {
		return "", errNotImage
	}
	if e := strings.ToLower(path.Ext(name)); e == ".jpeg" && ext == ".jpg" {
		ext = e
	}
	now := time.Now().UTC()
	return path.Join(uploadPrefix, now.Format("2006"), now.Format("01"), uuid.New().String()+ext), nil
}

// SniffImage detects the content type of r from its first bytes and refuses anything
// but an allowed image. The returned reader yields the whole of r.
func SniffImage(r io.Reader) (io.Reader, string, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, "", errors.Wrap(err, "reading upload")
	}
	head = head[:n]
	contentType := http.DetectContentType(head)
	if _, ok := imageTypes[contentType]; !ok {
		return nil, "", errNotImage
	}
	return io.MultiReader(bytes.NewReader(head), r), contentType, nil
}

func isAbsolute(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// passthroughStore serves references as URLs and refuses uploads.
type passthroughStore struct {
	core.PassthroughMedia
}

func (passthroughStore) Upload(context.Context, string, io.Reader, int64, string) (string, error) {
	return "", errors.New("media storage is not configured")
}
