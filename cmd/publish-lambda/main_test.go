package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobrnor/postpublisher/internal/config"
	"github.com/bobrnor/postpublisher/internal/publish"
)

type recordingUploader struct {
	blobs []publish.Blob
	fail  map[string]error
}

func (u *recordingUploader) Upload(_ context.Context, b publish.Blob) error {
	u.blobs = append(u.blobs, b)
	return u.fail[b.Name]
}

func setup(t *testing.T) *recordingUploader {
	t.Helper()

	up := &recordingUploader{}
	cfg = config.Config{Container: "posts", Dir: "posts"}
	uploader = up
	notifier = nil
	t.Cleanup(func() { uploader = nil })

	return up
}

func TestHandleRequest(t *testing.T) {
	up := setup(t)

	resp, err := HandleRequest(context.Background(), PublishRequest{
		Posts: []PostFile{
			{Path: "posts/hello.md", Content: "# Hello World\n"},
			{Path: "posts/untitled.md", Content: "nothing here\n"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Partial", resp.Status)
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, []string{"hello"}, resp.Published)
	assert.Equal(t, []string{"posts/untitled.md"}, resp.Failed)
	require.Len(t, up.blobs, 1)
	assert.Equal(t, "hello.md", up.blobs[0].Name)
	assert.Equal(t, "hello-world", up.blobs[0].Metadata["url"])
}

func TestHandleRequestEmpty(t *testing.T) {
	up := setup(t)

	resp, err := HandleRequest(context.Background(), PublishRequest{})
	require.NoError(t, err)
	assert.Equal(t, "OK", resp.Status)
	assert.Empty(t, resp.Published)
	assert.Empty(t, up.blobs)

	body, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"published":[]`)
	assert.Contains(t, string(body), `"failed":[]`)
}

func TestHandleRequestFailuresKeepInputOrder(t *testing.T) {
	up := setup(t)
	up.fail = map[string]error{"broken.md": errors.New("AccessDenied")}

	resp, err := HandleRequest(context.Background(), PublishRequest{
		Posts: []PostFile{
			{Path: "posts/first.md", Content: "no heading\n"},
			{Path: "posts/hello.md", Content: "# Hello World\n"},
			{Path: "posts/broken.md", Content: "# Broken\n"},
			{Path: "", Content: "# No Path\n"},
			{Path: "posts/last.md", Content: "#\n"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Partial", resp.Status)
	assert.Equal(t, []string{"hello"}, resp.Published)
	assert.Equal(t, []string{"posts/first.md", "posts/broken.md", "", "posts/last.md"}, resp.Failed)
	assert.Len(t, up.blobs, 2)
}
