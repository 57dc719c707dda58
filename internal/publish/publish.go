// Package publish uploads post files to a blob container one at a time.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/bobrnor/postpublisher/internal/notify"
	"github.com/bobrnor/postpublisher/internal/post"
)

// DefaultContainer is the container posts are uploaded to.
const DefaultContainer = "posts"

// Blob is a single object written to the container.
type Blob struct {
	Container string
	Name      string
	Body      []byte
	Metadata  map[string]string
}

// Uploader writes a blob, overwriting any blob with the same name.
type Uploader interface {
	Upload(ctx context.Context, blob Blob) error
}

// Notifier is told about every post that was uploaded.
type Notifier interface {
	Notify(ctx context.Context, m notify.Message) error
}

// Report lists what a run did.
type Report struct {
	RunID     string   `json:"run_id"`
	Published []string `json:"published"`
	Failed    []string `json:"failed"`
}

// Publisher uploads posts sequentially in the order they are given.
type Publisher struct {
	Uploader  Uploader
	Notifier  Notifier // optional
	Container string
	Dir       string
	RunID     string
	Logger    *log.Logger

	now func() time.Time
}

func (p *Publisher) logger() *log.Logger {
	if p.Logger == nil {
		return log.New(os.Stdout, "", log.LstdFlags)
	}
	return p.Logger
}

func (p *Publisher) container() string {
	if p.Container == "" {
		return DefaultContainer
	}
	return p.Container
}

func (p *Publisher) dir() string {
	if p.Dir == "" {
		return post.DefaultDir
	}
	return p.Dir
}

// File is a post whose contents are already in memory.
type File struct {
	Path    string
	Content []byte
}

func newReport(runID string) Report {
	return Report{RunID: runID, Published: []string{}, Failed: []string{}}
}

// PublishFiles loads and uploads each file. A file that fails is reported and
// the remaining files are still attempted; the returned error joins every
// failure.
func (p *Publisher) PublishFiles(ctx context.Context, files []string) (Report, error) {
	return p.each(ctx, len(files), func(i int) (string, post.Task, error) {
		task, err := post.Load(files[i], p.dir())
		return files[i], task, err
	})
}

// PublishContents parses and uploads in-memory files, like PublishFiles.
func (p *Publisher) PublishContents(ctx context.Context, files []File) (Report, error) {
	return p.each(ctx, len(files), func(i int) (string, post.Task, error) {
		task, err := post.Parse(files[i].Path, files[i].Content, p.dir())
		return files[i].Path, task, err
	})
}

// PublishTasks uploads tasks that were already parsed.
func (p *Publisher) PublishTasks(ctx context.Context, tasks []post.Task) (Report, error) {
	return p.each(ctx, len(tasks), func(i int) (string, post.Task, error) {
		return tasks[i].Path, tasks[i], nil
	})
}

// each loads and publishes n posts in order; failures keep input order in
// the report.
func (p *Publisher) each(ctx context.Context, n int, load func(i int) (string, post.Task, error)) (Report, error) {
	report := newReport(p.RunID)
	logger := p.logger()

	if n == 0 {
		logger.Println("Nothing changed")
		return report, nil
	}

	var errs []error
	for i := 0; i < n; i++ {
		name, task, err := load(i)
		if err == nil {
			err = p.publish(ctx, task)
		}

		if err != nil {
			logger.Println("Can't publish", name+":", err.Error())
			report.Failed = append(report.Failed, name)
			errs = append(errs, err)
			continue
		}

		report.Published = append(report.Published, task.ID)
	}

	return report, errors.Join(errs...)
}

func (p *Publisher) publish(ctx context.Context, task post.Task) error {
	if p.Uploader == nil {
		return errors.New("publisher has no uploader")
	}

	p.logger().Println("Uploading", task.ID)

	blob := Blob{
		Container: p.container(),
		Name:      task.BlobName(),
		Body:      task.Content,
		Metadata:  task.Metadata(),
	}

	if err := p.Uploader.Upload(ctx, blob); err != nil {
		return fmt.Errorf("can't upload %s: %w", blob.Name, err)
	}

	if p.Notifier == nil {
		return nil
	}

	now := time.Now
	if p.now != nil {
		now = p.now
	}

	err := p.Notifier.Notify(ctx, notify.Message{
		RunID:       p.RunID,
		ID:          task.ID,
		Slug:        task.Slug,
		Title:       task.Title,
		Container:   blob.Container,
		Blob:        blob.Name,
		PublishedAt: now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("can't notify about %s: %w", task.ID, err)
	}

	return nil
}
