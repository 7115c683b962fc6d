package assets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/campusbridge/projects-backend/config"
	"github.com/campusbridge/projects-backend/internal/projects/domain"
)

// Artifact names stored under every project's path prefix.
const (
	RequirementsBlob = "requirements.html"
	MenusBlob        = "menus.json"
	DeliverablesBlob = "deliverables.json"
)

// BlobAPI is the slice of the S3 client the gateway uses. Narrowing the
// surface keeps the gateway testable with a fake client.
type BlobAPI interface {
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Gateway stores and retrieves the three per-project artifacts in a
// namespaced bucket, addressed by a path prefix.
type Gateway struct {
	client BlobAPI
	bucket string
	log    *zap.Logger
}

func NewGateway(client BlobAPI, bucket string, log *zap.Logger) *Gateway {
	return &Gateway{client: client, bucket: bucket, log: log}
}

// NewClient builds an S3 client from storage configuration. A custom endpoint
// and path-style addressing cover S3-compatible stores like MinIO.
func NewClient(ctx context.Context, cfg config.StorageConfig) (*s3.Client, error) {
	var loadOpts []func(*awscfg.LoadOptions) error
	loadOpts = append(loadOpts, awscfg.WithRegion(cfg.Region))

	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsConfig, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load storage config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	return client, nil
}

// PathPrefix derives the artifact location for one publish:
// {enterprise_id}/{project_name}_{utc timestamp, colons replaced}.
// Uniqueness rests on timestamp resolution; two publishes of the same name in
// the same microsecond would overwrite one another.
func PathPrefix(enterpriseID, projectName string, t time.Time) string {
	ts := strings.ReplaceAll(t.UTC().Format("2006-01-02T15:04:05.000000"), ":", "-")
	return fmt.Sprintf("%s/%s_%s", enterpriseID, projectName, ts)
}

// EnsureContainer creates the bucket if needed. "Already exists" is success.
func (g *Gateway) EnsureContainer(ctx context.Context) error {
	_, err := g.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(g.bucket),
	})
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		var exists *types.BucketAlreadyExists
		if errors.As(err, &owned) || errors.As(err, &exists) {
			return nil
		}
		return fmt.Errorf("create container %q: %w", g.bucket, err)
	}
	return nil
}

// UploadArtifacts writes the three named blobs under the prefix. Writes are
// sequential and not rolled back: a failure on the second or third artifact
// leaves the earlier ones in place and surfaces the error to the caller.
func (g *Gateway) UploadArtifacts(ctx context.Context, prefix, requirementsHTML string, menus json.RawMessage, deliverables []domain.Deliverable) error {
	if err := g.EnsureContainer(ctx); err != nil {
		return err
	}

	if len(menus) == 0 {
		menus = json.RawMessage("{}")
	}
	if deliverables == nil {
		deliverables = []domain.Deliverable{}
	}

	deliverablesJSON, err := json.Marshal(deliverables)
	if err != nil {
		return fmt.Errorf("marshal deliverables: %w", err)
	}

	blobs := []struct {
		name        string
		body        []byte
		contentType string
	}{
		{RequirementsBlob, []byte(requirementsHTML), "text/html; charset=utf-8"},
		{MenusBlob, menus, "application/json"},
		{DeliverablesBlob, deliverablesJSON, "application/json"},
	}

	for _, b := range blobs {
		key := prefix + "/" + b.name
		// PutObject replaces any prior content at the same key.
		_, err := g.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(g.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(b.body),
			ContentType: aws.String(b.contentType),
		})
		if err != nil {
			return fmt.Errorf("upload %s: %w", key, err)
		}
	}

	return nil
}

// FetchRequirements reads {prefix}/requirements.html as UTF-8 text. Any
// fault (missing blob, transport error, bad encoding) is logged and absorbed
// into an empty result: the read path treats it the same as "no requirements".
func (g *Gateway) FetchRequirements(ctx context.Context, prefix string) string {
	key := prefix + "/" + RequirementsBlob

	out, err := g.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		g.log.Warn("requirements fetch failed",
			zap.String("blob_path", prefix),
			zap.Error(err))
		return ""
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		g.log.Warn("requirements read failed",
			zap.String("blob_path", prefix),
			zap.Error(err))
		return ""
	}

	if !utf8.Valid(data) {
		g.log.Warn("requirements blob is not valid UTF-8",
			zap.String("blob_path", prefix))
		return ""
	}

	return string(data)
}

// ListPrefixes walks the bucket and returns every distinct path prefix that
// holds artifacts. Used by the orphan sweep; the publish path never lists.
func (g *Gateway) ListPrefixes(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string

	var token *string
	for {
		page, err := g.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(g.bucket),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("list container %q: %w", g.bucket, err)
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			idx := strings.LastIndex(key, "/")
			if idx <= 0 {
				continue
			}
			prefix := key[:idx]
			if _, ok := seen[prefix]; ok {
				continue
			}
			seen[prefix] = struct{}{}
			out = append(out, prefix)
		}

		if page.IsTruncated == nil || !*page.IsTruncated {
			break
		}
		token = page.NextContinuationToken
	}

	return out, nil
}
