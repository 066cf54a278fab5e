package storage

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go/middleware"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// defaultRegion is used when no region is configured. Request signing needs
// one even for S3-compatible services that ignore it.
const defaultRegion = "us-east-1"

// S3Options describes how to reach an S3-compatible bucket.
type S3Options struct {
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Region          string

	// Endpoint overrides the AWS endpoint, e.g. "https://minio.local:9000".
	// A scheme of https is assumed when none is given.
	Endpoint string

	// PathStyle addresses the bucket as a path segment rather than a
	// subdomain.
	PathStyle bool

	// InsecureSkipVerify disables certificate validation. It applies to the
	// transport of this uploader only.
	InsecureSkipVerify bool
}

// S3Uploader uploads objects with single PutObject calls.
type S3Uploader struct {
	client *s3.Client
	bucket string
}

var _ Uploader = (*S3Uploader)(nil)

// NewS3Uploader creates an S3Uploader with its own HTTP transport, so the
// TLS policy of one uploader never leaks into another. SDK retries are
// disabled; a failed request fails the upload.
func NewS3Uploader(ctx context.Context, opts S3Options) (*S3Uploader, error) {
	if opts.Bucket == "" {
		return nil, errors.New("storage: bucket is required")
	}

	region := opts.Region
	if region == "" {
		region = defaultRegion
	}

	httpClient := awshttp.NewBuildableClient().WithTransportOptions(func(tr *http.Transport) {
		if !opts.InsecureSkipVerify {
			return
		}
		if tr.TLSClientConfig == nil {
			tr.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		tr.TLSClientConfig.InsecureSkipVerify = true //nolint:gosec // opted into per profile
	})

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		),
		awsconfig.WithHTTPClient(httpClient),
		awsconfig.WithRetryer(func() aws.Retryer { return aws.NopRetryer{} }),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: unable to load S3 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(normaliseEndpoint(opts.Endpoint))
		}
		o.UsePathStyle = opts.PathStyle
	})

	return &S3Uploader{client: client, bucket: opts.Bucket}, nil
}

// Upload puts the full content in one request. The returned URL is the
// address the object was written to.
func (u *S3Uploader) Upload(ctx context.Context, req *UploadRequest) (*UploadResult, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(req.ObjectName),
		Body:   req.Content,
	}
	if req.ContentType != "" {
		input.ContentType = aws.String(req.ContentType)
	}
	if req.ContentEncoding != "" {
		input.ContentEncoding = aws.String(req.ContentEncoding)
	}
	if req.ACL != "" {
		input.ACL = types.ObjectCannedACL(req.ACL)
	}

	var location string
	if _, err := u.client.PutObject(ctx, input, recordLocation(&location)); err != nil {
		return nil, fmt.Errorf("storage: put object %q failed: %w", req.ObjectName, err)
	}

	return &UploadResult{
		ObjectName: req.ObjectName,
		URL:        location,
	}, nil
}

// recordLocation captures the final request URL, minus its query, once the
// endpoint has been resolved and the request signed.
func recordLocation(dst *string) func(*s3.Options) {
	return func(o *s3.Options) {
		o.APIOptions = append(o.APIOptions, func(stack *middleware.Stack) error {
			return stack.Finalize.Add(middleware.FinalizeMiddlewareFunc("RecordObjectLocation",
				func(ctx context.Context, in middleware.FinalizeInput, next middleware.FinalizeHandler) (
					middleware.FinalizeOutput, middleware.Metadata, error,
				) {
					if req, ok := in.Request.(*smithyhttp.Request); ok {
						u := *req.URL
						u.RawQuery = ""
						u.Fragment = ""
						*dst = u.String()
					}
					return next.HandleFinalize(ctx, in)
				}), middleware.After)
		})
	}
}

func normaliseEndpoint(endpoint string) string {
	if strings.Contains(endpoint, "://") {
		return strings.TrimSuffix(endpoint, "/")
	}
	return "https://" + strings.TrimSuffix(endpoint, "/")
}
