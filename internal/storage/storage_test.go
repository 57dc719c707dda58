package storage

import (
	"context"
	"errors"
	"io/ioutil"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bobrnor/postpublisher/internal/publish"
)

type mockUploader struct {
	mock.Mock
	body []byte
}

func (m *mockUploader) Upload(in *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	return m.UploadWithContext(context.Background(), in, opts...)
}

func (m *mockUploader) UploadWithContext(ctx aws.Context, in *s3manager.UploadInput, _ ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	body, err := ioutil.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.body = body

	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3manager.UploadOutput)
	return out, args.Error(1)
}

func TestS3UploaderUpload(t *testing.T) {
	api := &mockUploader{}
	u := &S3Uploader{API: api}

	api.On("UploadWithContext", mock.Anything, mock.MatchedBy(func(in *s3manager.UploadInput) bool {
		return aws.StringValue(in.Bucket) == "posts" &&
			aws.StringValue(in.Key) == "hello.md" &&
			aws.StringValue(in.ContentType) == contentType &&
			aws.StringValue(in.Metadata["url"]) == "hello-world" &&
			aws.StringValue(in.Metadata["title"]) == "Hello World" &&
			aws.StringValue(in.Metadata["id"]) == "hello"
	})).Return(&s3manager.UploadOutput{Location: "https://posts.s3.amazonaws.com/hello.md"}, nil).Once()

	err := u.Upload(context.Background(), publish.Blob{
		Container: "posts",
		Name:      "hello.md",
		Body:      []byte("# Hello World\n"),
		Metadata:  map[string]string{"url": "hello-world", "title": "Hello World", "id": "hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("# Hello World\n"), api.body)
	api.AssertExpectations(t)
}

func TestS3UploaderUploadError(t *testing.T) {
	api := &mockUploader{}
	u := &S3Uploader{API: api}

	api.On("UploadWithContext", mock.Anything, mock.Anything).Return(nil, errors.New("AccessDenied"))

	err := u.Upload(context.Background(), publish.Blob{Container: "posts", Name: "x.md"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "posts/x.md")
	assert.Contains(t, err.Error(), "AccessDenied")
}

func TestNewSessionStaticCredentials(t *testing.T) {
	sess, err := NewSession("eu-west-1", "AKIDEXAMPLE", "secret")
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", aws.StringValue(sess.Config.Region))

	creds, err := sess.Config.Credentials.Get()
	require.NoError(t, err)
	assert.Equal(t, "AKIDEXAMPLE", creds.AccessKeyID)
	assert.Equal(t, "secret", creds.SecretAccessKey)
}
