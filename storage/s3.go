package storage

import (
	"context"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/halstead/image-delivery-backend/interfaces"
)

// s3DefaultRegion is used when the endpoint embedded in the location URI
// carries no region information, which is the normal case for
// S3-compatible services addressed by host name.
const s3DefaultRegion = "us-east-1"

// S3Backend serves s3:// locations of the form
//
//	s3://access_key:secret_key@s3_host/bucket/key
//
// The URI shape and tokenization are shared with the swift backend, so
// keys are single path segments and credentials ride in the authority
// component. The named endpoint is addressed path-style, which keeps
// bucket names out of DNS and works with any S3-compatible service.
//
// Like the swift backend, the stored object size is fetched up front
// (via HeadObject) and verified against the caller's expectation before
// the object body is opened.
type S3Backend struct {
	log *slog.Logger
}

// NewS3Backend creates an S3 backend. Sessions are established per
// retrieval from the credentials in each location URI.
func NewS3Backend(log *slog.Logger) *S3Backend {
	return &S3Backend{log: log}
}

// Get resolves the bucket and key named by loc, verifies the stored size
// when expectedSize is non-negative, and returns the object body as a
// chunk stream.
func (b *S3Backend) Get(ctx context.Context, loc interfaces.Location, expectedSize int64, opts ...interfaces.GetOption) (interfaces.ChunkStream, error) {
	o := interfaces.ApplyGetOptions(opts)

	parsed, err := parseObjectStoreURI(loc)
	if err != nil {
		return nil, err
	}

	conn := interfaces.ObjectStoreConnector(s3Connector{})
	if o.ObjectConnector != nil {
		conn = o.ObjectConnector
	}

	sess, err := conn.Connect(ctx, interfaces.ObjectStoreCredentials{
		User:    parsed.user,
		APIKey:  parsed.apiKey,
		AuthURL: parsed.authURL,
	})
	if err != nil {
		return nil, err
	}

	handle, err := sess.Object(ctx, parsed.container, parsed.object)
	if err != nil {
		return nil, err
	}

	if expectedSize >= 0 && handle.Size() != expectedSize {
		return nil, interfaces.NewBackendError(
			"expected %d byte object at %s, S3 reports %d bytes",
			expectedSize, loc.Raw, handle.Size())
	}

	rc, err := handle.Open(ctx)
	if err != nil {
		return nil, err
	}

	b.log.Debug("Opened S3 object stream",
		slog.String("bucket", parsed.container),
		slog.String("key", parsed.object),
		slog.Int64("size", handle.Size()))

	return NewChunkReader(rc, DefaultChunkSize), nil
}

// s3Connector is the production connector backed by the AWS SDK. The
// credential URI's auth host becomes the service endpoint; anonymous
// access (empty credentials) falls back to the SDK's default chain.
type s3Connector struct{}

func (s3Connector) Connect(ctx context.Context, creds interfaces.ObjectStoreCredentials) (interfaces.ObjectStoreSession, error) {
	cfg := aws.Config{
		Region:           aws.String(s3DefaultRegion),
		Endpoint:         aws.String(creds.AuthURL),
		S3ForcePathStyle: aws.Bool(true),
	}
	if creds.User != "" {
		cfg.Credentials = credentials.NewStaticCredentials(creds.User, creds.APIKey, "")
	}

	sess, err := session.NewSession(&cfg)
	if err != nil {
		return nil, err
	}
	return &s3Session{client: s3.New(sess)}, nil
}

type s3Session struct {
	client *s3.S3
}

func (s *s3Session) Object(ctx context.Context, bucket, key string) (interfaces.ObjectHandle, error) {
	head, err := s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}

	return &s3Object{
		client: s.client,
		bucket: bucket,
		key:    key,
		size:   aws.Int64Value(head.ContentLength),
	}, nil
}

type s3Object struct {
	client *s3.S3
	bucket string
	key    string
	size   int64
}

func (o *s3Object) Size() int64 {
	return o.size
}

func (o *s3Object) Open(ctx context.Context) (io.ReadCloser, error) {
	out, err := o.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(o.key),
	})
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}
