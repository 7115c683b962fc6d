package assets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusbridge/projects-backend/internal/projects/domain"
)

// fakeBlobAPI is an in-memory stand-in for the S3 client.
type fakeBlobAPI struct {
	objects         map[string][]byte
	bucketErr       error
	failOnKeySubstr string
}

func newFakeBlobAPI() *fakeBlobAPI {
	return &fakeBlobAPI{objects: make(map[string][]byte)}
}

func (f *fakeBlobAPI) CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	if f.bucketErr != nil {
		return nil, f.bucketErr
	}
	return &s3.CreateBucketOutput{}, nil
}

func (f *fakeBlobAPI) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	key := aws.ToString(params.Key)
	if f.failOnKeySubstr != "" && strings.Contains(key, f.failOnKeySubstr) {
		return nil, fmt.Errorf("put %s: transport failure", key)
	}
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.objects[key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeBlobAPI) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeBlobAPI) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for key := range f.objects {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(key)})
	}
	return out, nil
}

func newTestGateway(api BlobAPI) *Gateway {
	return NewGateway(api, "projects", zap.NewNop())
}

func TestPathPrefix(t *testing.T) {
	ts := time.Date(2026, 8, 31, 14, 30, 5, 123456000, time.UTC)
	prefix := PathPrefix("E1", "Alpha", ts)

	assert.Equal(t, "E1/Alpha_2026-08-31T14-30-05.123456", prefix)
	assert.NotContains(t, prefix, ":")
	assert.Regexp(t, regexp.MustCompile(`^E1/Alpha_\d{4}-\d{2}-\d{2}T\d{2}-\d{2}-\d{2}\.\d{6}$`), prefix)
}

func TestUploadArtifacts(t *testing.T) {
	t.Run("writes exactly three blobs under the prefix", func(t *testing.T) {
		api := newFakeBlobAPI()
		g := newTestGateway(api)

		menus := json.RawMessage(`{"home":{"sections":["about","faq"]}}`)
		deliverables := []domain.Deliverable{
			{Name: "MVP", Tasks: []domain.Task{{Name: "design", EstimatedTime: 4}}},
		}

		err := g.UploadArtifacts(context.Background(), "E1/Alpha_ts", "<p>x</p>", menus, deliverables)
		require.NoError(t, err)

		require.Len(t, api.objects, 3)
		assert.Equal(t, []byte("<p>x</p>"), api.objects["E1/Alpha_ts/requirements.html"])

		// Structured documents must round-trip under structural equality.
		assert.JSONEq(t, string(menus), string(api.objects["E1/Alpha_ts/menus.json"]))

		var got []domain.Deliverable
		require.NoError(t, json.Unmarshal(api.objects["E1/Alpha_ts/deliverables.json"], &got))
		assert.Equal(t, deliverables, got)
	})

	t.Run("empty documents serialize as empty JSON", func(t *testing.T) {
		api := newFakeBlobAPI()
		g := newTestGateway(api)

		err := g.UploadArtifacts(context.Background(), "E1/Alpha_ts", "", nil, nil)
		require.NoError(t, err)

		assert.JSONEq(t, `{}`, string(api.objects["E1/Alpha_ts/menus.json"]))
		assert.JSONEq(t, `[]`, string(api.objects["E1/Alpha_ts/deliverables.json"]))
	})

	t.Run("a mid-sequence write failure propagates and leaves earlier blobs", func(t *testing.T) {
		api := newFakeBlobAPI()
		api.failOnKeySubstr = "menus.json"
		g := newTestGateway(api)

		err := g.UploadArtifacts(context.Background(), "E1/Alpha_ts", "<p>x</p>", nil, nil)
		require.Error(t, err)

		// requirements.html was already written; nothing rolls it back.
		assert.Contains(t, api.objects, "E1/Alpha_ts/requirements.html")
		assert.NotContains(t, api.objects, "E1/Alpha_ts/deliverables.json")
	})
}

func TestEnsureContainer(t *testing.T) {
	t.Run("already-exists is success", func(t *testing.T) {
		for _, existsErr := range []error{
			&types.BucketAlreadyOwnedByYou{},
			&types.BucketAlreadyExists{},
		} {
			api := newFakeBlobAPI()
			api.bucketErr = existsErr
			g := newTestGateway(api)

			assert.NoError(t, g.EnsureContainer(context.Background()))
		}
	})

	t.Run("other failures propagate", func(t *testing.T) {
		api := newFakeBlobAPI()
		api.bucketErr = errors.New("access denied")
		g := newTestGateway(api)

		err := g.EnsureContainer(context.Background())
		require.Error(t, err)

		// And they abort the upload before any blob is written.
		err = g.UploadArtifacts(context.Background(), "E1/Alpha_ts", "<p>x</p>", nil, nil)
		require.Error(t, err)
		assert.Empty(t, api.objects)
	})
}

func TestFetchRequirements(t *testing.T) {
	t.Run("returns stored text", func(t *testing.T) {
		api := newFakeBlobAPI()
		api.objects["E1/Alpha_ts/requirements.html"] = []byte("<p>x</p>")
		g := newTestGateway(api)

		assert.Equal(t, "<p>x</p>", g.FetchRequirements(context.Background(), "E1/Alpha_ts"))
	})

	t.Run("missing blob is absorbed into empty", func(t *testing.T) {
		g := newTestGateway(newFakeBlobAPI())

		assert.Equal(t, "", g.FetchRequirements(context.Background(), "E1/nope"))
	})

	t.Run("invalid encoding is absorbed into empty", func(t *testing.T) {
		api := newFakeBlobAPI()
		api.objects["E1/Alpha_ts/requirements.html"] = []byte{0xff, 0xfe, 0xfd}
		g := newTestGateway(api)

		assert.Equal(t, "", g.FetchRequirements(context.Background(), "E1/Alpha_ts"))
	})
}

func TestListPrefixes(t *testing.T) {
	api := newFakeBlobAPI()
	api.objects["E1/Alpha_ts/requirements.html"] = []byte("a")
	api.objects["E1/Alpha_ts/menus.json"] = []byte("{}")
	api.objects["E2/Beta_ts/requirements.html"] = []byte("b")
	g := newTestGateway(api)

	prefixes, err := g.ListPrefixes(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"E1/Alpha_ts", "E2/Beta_ts"}, prefixes)
}
