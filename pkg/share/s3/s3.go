// Package s3 implements share.FileStore over Amazon S3 or S3-compatible
// object storage.
//
// Addresses are key prefixes inside the configured bucket; names become
// the final key segment. Unlike the SMB backend there is no external
// tool and no staging: operations map directly onto SDK calls, with
// SDK errors translated into the share error taxonomy.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/diegodancourt/SmbSharp/pkg/share"
)

// S3Store implements share.FileStore against one bucket.
//
// Thread Safety:
// The underlying SDK client is safe for concurrent use; the store adds
// no state of its own beyond configuration.
type S3Store struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
}

// Config contains the settings for an S3Store.
type Config struct {
	// Client is the configured S3 client.
	Client *s3.Client

	// Bucket is the bucket name. The bucket must already exist.
	Bucket string

	// KeyPrefix is an optional prefix applied to every key.
	KeyPrefix string
}

// New creates an S3-backed FileStore and verifies bucket access.
func New(ctx context.Context, cfg Config) (*S3Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	_, err := cfg.Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access bucket %s: %w", cfg.Bucket, err)
	}

	return &S3Store{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: strings.Trim(cfg.KeyPrefix, "/"),
	}, nil
}

// joinKey builds an object key from non-empty segments.
func (s *S3Store) joinKey(segments ...string) string {
	parts := make([]string, 0, len(segments)+1)
	if s.keyPrefix != "" {
		parts = append(parts, s.keyPrefix)
	}
	for _, seg := range segments {
		seg = strings.Trim(seg, "/")
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	return strings.Join(parts, "/")
}

// ListFiles enumerates the objects directly under the address prefix.
// "Subdirectories" (deeper common prefixes) are excluded via the
// delimiter, mirroring the file/directory split of the other backends.
func (s *S3Store) ListFiles(ctx context.Context, address string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := s.joinKey(address)
	if prefix != "" {
		prefix += "/"
	}

	var names []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %v", address, share.ErrRemoteFailure, err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if name != "" {
				names = append(names, name)
			}
		}
	}

	return names, nil
}

// ReadFile returns a reader streaming the object's content.
func (s *S3Store) ReadFile(ctx context.Context, address, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := s.joinKey(address, name)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, s.translate(address+"/"+name, err)
	}

	return out.Body, nil
}

// WriteFile uploads the stream's contents as one object.
//
// S3 has no append primitive, so Append is synthesized the same way the
// SMB backend does it: fetch the existing content (absence is fine) and
// re-upload the concatenation. CreateNew issues a HeadObject pre-flight
// and fails with ErrAlreadyExists before uploading anything.
func (s *S3Store) WriteFile(ctx context.Context, address, name string, r io.Reader, mode share.WriteMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := s.joinKey(address, name)

	var prefixData []byte

	switch mode {
	case share.CreateNew:
		_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err == nil {
			return fmt.Errorf("%s/%s: %w", address, name, share.ErrAlreadyExists)
		}
		if translated := s.translate(address+"/"+name, err); !errors.Is(translated, share.ErrNotFound) {
			return translated
		}

	case share.Append:
		existing, err := s.ReadFile(ctx, address, name)
		if err != nil && !errors.Is(err, share.ErrNotFound) {
			return err
		}
		if err == nil {
			prefixData, err = io.ReadAll(existing)
			existing.Close()
			if err != nil {
				return fmt.Errorf("%s/%s: failed to read existing content: %w", address, name, err)
			}
		}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("%s/%s: failed to read stream: %w", address, name, err)
	}
	if prefixData != nil {
		data = append(prefixData, data...)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("%s/%s: %w: %v", address, name, share.ErrRemoteFailure, err)
	}

	return nil
}

// DeleteFile removes the object. A HeadObject first surfaces ErrNotFound
// for missing names, since S3 deletes are silently idempotent.
func (s *S3Store) DeleteFile(ctx context.Context, address, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := s.joinKey(address, name)

	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return s.translate(address+"/"+name, err)
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("%s/%s: %w: %v", address, name, share.ErrRemoteFailure, err)
	}

	return nil
}

// MoveFile moves an object with a server-side copy followed by a delete
// of the source. The copy-then-delete pair is not atomic, but unlike the
// SMB backend no bytes transit through this process.
func (s *S3Store) MoveFile(ctx context.Context, srcAddress, srcName, dstAddress, dstName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	srcKey := s.joinKey(srcAddress, srcName)
	dstKey := s.joinKey(dstAddress, dstName)

	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		Key:        aws.String(dstKey),
		CopySource: aws.String(s.bucket + "/" + srcKey),
	})
	if err != nil {
		return s.translate(srcAddress+"/"+srcName, err)
	}

	return s.DeleteFile(ctx, srcAddress, srcName)
}

// MakeDirectory creates a zero-byte directory marker, the usual
// convention for modeling folders in flat object storage.
func (s *S3Store) MakeDirectory(ctx context.Context, address string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := s.joinKey(address) + "/"
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(nil),
	})
	if err != nil {
		return fmt.Errorf("%s: %w: %v", address, share.ErrRemoteFailure, err)
	}

	return nil
}

// CanConnect reports whether the bucket (and thereby the prefix) is
// reachable. All failures are absorbed into false by contract.
func (s *S3Store) CanConnect(ctx context.Context, address string) bool {
	if ctx.Err() != nil {
		return false
	}

	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	return err == nil
}

// translate maps SDK errors onto the share error taxonomy.
func (s *S3Store) translate(contextPath string, err error) error {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return fmt.Errorf("%s: %w", contextPath, share.ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %v", contextPath, share.ErrRemoteFailure, err)
}
