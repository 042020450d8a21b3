package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{ETag: aws.String(`"etag"`)}, nil
}

func TestS3Store_Upload(t *testing.T) {
	fake := &fakeS3{}
	store := newS3Store(fake, "photos", "https://static.example/")

	url, err := store.Upload(context.Background(), "sunset/sunset.800x600.jpeg", []byte("jpeg"))
	require.NoError(t, err)
	assert.Equal(t, "https://static.example/sunset/sunset.800x600.jpeg", url)

	require.Len(t, fake.inputs, 1)
	in := fake.inputs[0]
	assert.Equal(t, "photos", aws.ToString(in.Bucket))
	assert.Equal(t, "sunset/sunset.800x600.jpeg", aws.ToString(in.Key))
	assert.Equal(t, "image/jpeg", aws.ToString(in.ContentType))
	assert.Equal(t, CacheControl, aws.ToString(in.CacheControl))
	assert.Equal(t, types.ObjectCannedACLPublicRead, in.ACL)
	assert.Equal(t, []byte("jpeg"), fake.bodies[0])
}

func TestS3Store_UploadErrors(t *testing.T) {
	fake := &fakeS3{err: errors.New("access denied")}
	store := newS3Store(fake, "photos", "https://static.example")

	_, err := store.Upload(context.Background(), "k", nil)
	assert.ErrorContains(t, err, "access denied")

	_, err = store.Upload(context.Background(), "", nil)
	assert.Error(t, err)
}

func TestS3Config_Validate(t *testing.T) {
	err := S3Config{}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket, access key id, secret access key, static host")

	ok := S3Config{Bucket: "b", AccessKeyID: "id", SecretAccessKey: "s", StaticHost: "https://x"}
	assert.NoError(t, ok.Validate())
}

func TestRegionFromEndpoint(t *testing.T) {
	assert.Equal(t, "fra1", regionFromEndpoint("https://fra1.digitaloceanspaces.com"))
	assert.Equal(t, "auto", regionFromEndpoint(""))
	assert.Equal(t, "auto", regionFromEndpoint("http://localhost:9000"))
}

func TestNewS3Store(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Config{})
	assert.Error(t, err)

	store, err := NewS3Store(context.Background(), S3Config{
		Endpoint:        "http://localhost:9000",
		Bucket:          "photos",
		AccessKeyID:     "id",
		SecretAccessKey: "secret",
		StaticHost:      "https://static.example",
		PathStyle:       true,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://static.example/a/b.jpeg", store.URL("a/b.jpeg"))
}
