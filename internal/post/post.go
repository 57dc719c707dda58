// Package post turns a markdown post file into the task that publishes it:
// title from the first heading line, a URL slug, and an id taken from the path.
package post

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"path"
	"strings"
)

const (
	// DefaultDir is the directory posts live under.
	DefaultDir = "posts"
	// Extension is stripped from paths to form ids and appended to form blob names.
	Extension = ".md"

	headingMarker = '#'
)

var (
	// ErrNoTitle is returned when a post has no heading line.
	ErrNoTitle = errors.New("no heading line")
	// ErrEmptyTitle is returned when the first heading line has no text.
	ErrEmptyTitle = errors.New("empty heading line")
	// ErrBadID is returned when a path does not name a post file.
	ErrBadID = errors.New("path does not name a post")
)

// Task holds everything needed to upload a single post.
type Task struct {
	Path    string
	Title   string
	Slug    string
	ID      string
	Content []byte
}

// BlobName is the name the post is stored under.
func (t Task) BlobName() string {
	return t.ID + Extension
}

// Metadata returns the key/value pairs attached to the uploaded blob.
func (t Task) Metadata() map[string]string {
	return map[string]string{
		"url":   t.Slug,
		"title": t.Title,
		"id":    t.ID,
	}
}

// ExtractTitle reads r until the first line that starts with '#' and returns
// its text with the marker removed and whitespace collapsed. Lines have no
// length limit. It returns ErrNoTitle when no heading line exists and
// ErrEmptyTitle when the first one is blank.
func ExtractTitle(r io.Reader) (string, error) {
	br := bufio.NewReader(r)

	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 && line[0] == headingMarker {
			title := strings.Join(strings.Fields(strings.TrimLeft(line, string(headingMarker))), " ")
			if title == "" {
				return "", ErrEmptyTitle
			}
			return title, nil
		}

		if err == io.EOF {
			return "", ErrNoTitle
		}
		if err != nil {
			return "", err
		}
	}
}

// Slugify replaces blank runs with '-', lowercases, and drops every
// character outside [a-z0-9-].
func Slugify(title string) string {
	hyphenated := strings.ToLower(strings.Join(strings.Fields(title), "-"))

	var b strings.Builder
	for _, r := range hyphenated {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}

	return b.String()
}

// IDFromPath strips the leading dir segment and the markdown extension.
func IDFromPath(p, dir string) string {
	id := path.Clean(strings.ReplaceAll(p, "\\", "/"))
	id = strings.TrimPrefix(id, "./")

	if dir != "" {
		id = strings.TrimPrefix(id, strings.TrimSuffix(path.Clean(dir), "/")+"/")
	}

	return strings.TrimSuffix(id, Extension)
}

// Parse builds a Task from a post's path and raw contents.
func Parse(p string, content []byte, dir string) (Task, error) {
	title, err := ExtractTitle(bytes.NewReader(content))
	if errors.Is(err, ErrNoTitle) || errors.Is(err, ErrEmptyTitle) {
		return Task{}, fmt.Errorf("%s: %w", p, err)
	}
	if err != nil {
		return Task{}, fmt.Errorf("can't read title of %s: %w", p, err)
	}

	id := IDFromPath(p, dir)
	if base := path.Base(id); id == "" || base == "." || base == ".." || strings.HasSuffix(id, "/") {
		return Task{}, fmt.Errorf("%q: %w", p, ErrBadID)
	}

	return Task{
		Path:    p,
		Title:   title,
		Slug:    Slugify(title),
		ID:      id,
		Content: content,
	}, nil
}

// Load reads the file at p and parses it.
func Load(p, dir string) (Task, error) {
	content, err := ioutil.ReadFile(p)
	if err != nil {
		return Task{}, err
	}

	return Parse(p, content, dir)
}
