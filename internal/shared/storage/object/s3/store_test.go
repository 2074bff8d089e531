package s3

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-optimizer/internal/shared/storage/object"
)

type fakeAPI struct {
	put     *s3.PutObjectInput
	body    []byte
	deleted []string
	err     error
}

func (f *fakeAPI) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.put = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, f.err
}

func (f *fakeAPI) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(string(f.body)))}, nil
}

func (f *fakeAPI) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, *in.Key)
	return &s3.DeleteObjectOutput{}, f.err
}

func staticConfig() aws.Config {
	return aws.Config{
		Region:      "us-east-1",
		Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider("AKID", "SECRET", "")),
	}
}

func TestKeyJoinsPrefix(t *testing.T) {
	cases := map[string]string{
		"":          "temp/abc/gen.pdf",
		"root":      "root/temp/abc/gen.pdf",
		"/root/":    "root/temp/abc/gen.pdf",
		"root/sub/": "root/sub/temp/abc/gen.pdf",
	}
	for prefix, want := range cases {
		s := NewFromConfig(staticConfig(), "bucket", prefix, "")
		assert.Equal(t, want, s.key("/temp/abc/gen.pdf"), "prefix %q", prefix)
	}
}

func TestPutSetsEncryptionAndCounts(t *testing.T) {
	fake := &fakeAPI{}
	s := NewFromConfig(staticConfig(), "bucket", "artifacts", "kms-123")
	s.api = fake

	n, err := s.Put(context.Background(), "temp/u/g.pdf", "", strings.NewReader("%PDF-1.5 body"))
	require.NoError(t, err)
	assert.EqualValues(t, 13, n)
	assert.Equal(t, "artifacts/temp/u/g.pdf", *fake.put.Key)
	assert.Equal(t, "application/pdf", *fake.put.ContentType)
	assert.Equal(t, types.ServerSideEncryptionAwsKms, fake.put.ServerSideEncryption)
	assert.Equal(t, "kms-123", *fake.put.SSEKMSKeyId)
	assert.Equal(t, "retention=ephemeral", *fake.put.Tagging)
}

func TestMissingObjectsMapToErrNotFound(t *testing.T) {
	fake := &fakeAPI{err: &types.NoSuchKey{}}
	s := NewFromConfig(staticConfig(), "bucket", "", "")
	s.api = fake

	_, err := s.Open(context.Background(), "temp/u/g.pdf")
	assert.ErrorIs(t, err, object.ErrNotFound)

	err = s.Delete(context.Background(), "temp/u/g.pdf")
	assert.ErrorIs(t, err, object.ErrNotFound)
	assert.Equal(t, []string{"temp/u/g.pdf"}, fake.deleted)

	fake.err = errors.New("access denied")
	err = s.Delete(context.Background(), "temp/u/g.pdf")
	require.Error(t, err)
	assert.NotErrorIs(t, err, object.ErrNotFound)
}

func TestSignedURLCarriesPrefixExpiryAndFileName(t *testing.T) {
	store := NewFromConfig(staticConfig(), "bucket", "artifacts/", "")

	raw, err := store.SignedURL(context.Background(), "temp/user/gen.pdf", 30*time.Minute, "resume_Acme_2024-05-01_12-00-00.pdf")
	require.NoError(t, err)
	parsed, err := url.Parse(raw)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(parsed.Path, "/artifacts/temp/user/gen.pdf"), parsed.Path)
	q := parsed.Query()
	assert.Equal(t, "1800", q.Get("X-Amz-Expires"))
	assert.NotEmpty(t, q.Get("X-Amz-Signature"))
	assert.Contains(t, q.Get("response-content-disposition"), "resume_Acme_2024-05-01_12-00-00.pdf")
}
