package source

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ritzau/causegraph/pkg/logging"
	"github.com/ritzau/causegraph/pkg/model"
)

// objectGetter is the part of the S3 client the source uses.
type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads a graph document from an S3-compatible bucket.
type S3Source struct {
	client objectGetter
	bucket string
	key    string
}

// NewS3Source creates an S3 source. If endpoint is non-empty, path-style
// addressing is enabled (for MinIO and similar).
func NewS3Source(ctx context.Context, bucket, key, region, endpoint string) (*S3Source, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var s3opts []func(*s3.Options)
	if endpoint != "" {
		s3opts = append(s3opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3Source{
		client: s3.NewFromConfig(cfg, s3opts...),
		bucket: bucket,
		key:    key,
	}, nil
}

func (s *S3Source) Name() string {
	return "s3://" + s.bucket + "/" + s.key
}

func (s *S3Source) Load(ctx context.Context) (model.RawGraph, error) {
	logger := logging.New("source.s3")
	logger.Debug("fetching graph document", "bucket", s.bucket, "key", s.key)

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return model.RawGraph{}, fmt.Errorf("s3 get object: %w", err)
	}
	defer out.Body.Close()

	raw, err := model.DecodeRaw(out.Body)
	if err != nil {
		return model.RawGraph{}, fmt.Errorf("%s: %w", s.Name(), err)
	}

	logger.Debug("graph document fetched", "nodes", len(raw.Nodes), "links", len(raw.Links))
	return raw, nil
}
