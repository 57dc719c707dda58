package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/sanity-io/litter"
	uuid "github.com/satori/go.uuid"
	"github.com/spf13/cobra"

	"github.com/bobrnor/postpublisher/internal/config"
	"github.com/bobrnor/postpublisher/internal/notify"
	"github.com/bobrnor/postpublisher/internal/post"
	"github.com/bobrnor/postpublisher/internal/publish"
	"github.com/bobrnor/postpublisher/internal/storage"
)

type options struct {
	container  string
	dir        string
	dryRun     bool
	jsonOutput bool
}

// newUploader is swapped in tests.
var newUploader = func(cfg config.Config, account, key string) (publish.Uploader, publish.Notifier, error) {
	sess, err := storage.NewSession(cfg.Region, account, key)
	if err != nil {
		return nil, nil, err
	}

	var notifier publish.Notifier
	if cfg.SQSURL != "" {
		notifier = &notify.SQSNotifier{
			API:      sqs.New(sess),
			QueueURL: cfg.SQSURL,
			Sender:   cfg.Sender,
		}
	}

	return storage.NewS3Uploader(sess), notifier, nil
}

func newRootCmd(cfg config.Config) *cobra.Command {
	opts := options{}

	cmd := &cobra.Command{
		Use:   "publish-posts <account> <key> [files...]",
		Short: "Upload changed posts to the blog container",
		Long: `Uploads each listed post as <id>.md, where id is the path without the
posts directory and extension. The first '#' heading becomes the title and
the slug; both are attached as blob metadata with the id.`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			progress := cmd.OutOrStdout()
			if opts.jsonOutput {
				progress = cmd.ErrOrStderr()
			}

			return run(ctx, cmd.OutOrStdout(), progress, cfg, opts, args[0], args[1], args[2:])
		},
	}

	cmd.Flags().StringVar(&opts.container, "container", cfg.Container, "Blob container to upload to")
	cmd.Flags().StringVar(&opts.dir, "dir", cfg.Dir, "Directory stripped from paths to form post ids")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Parse posts and print them without uploading")
	cmd.Flags().BoolVarP(&opts.jsonOutput, "json", "j", false, "Print the run report as JSON")

	return cmd
}

// run writes progress lines to progress and the JSON report, when asked for,
// to out.
func run(ctx context.Context, out, progress io.Writer, cfg config.Config, opts options, account, key string, files []string) error {
	if opts.dryRun {
		return dryRun(out, opts.dir, files)
	}

	uploader, notifier, err := newUploader(cfg, account, key)
	if err != nil {
		return fmt.Errorf("can't create storage client: %w", err)
	}

	p := &publish.Publisher{
		Uploader:  uploader,
		Notifier:  notifier,
		Container: opts.container,
		Dir:       opts.dir,
		RunID:     uuid.NewV4().String(),
		Logger:    log.New(progress, "", 0),
	}

	report, err := p.PublishFiles(ctx, files)
	if opts.jsonOutput {
		printJSON(out, report)
	}

	return err
}

func dryRun(out io.Writer, dir string, files []string) error {
	if len(files) == 0 {
		fmt.Fprintln(out, "Nothing changed")
		return nil
	}

	type preview struct {
		Path     string
		BlobName string
		Metadata map[string]string
		Size     int
	}

	var failed int
	for _, file := range files {
		task, err := post.Load(file, dir)
		if err != nil {
			fmt.Fprintln(out, "Can't parse", file+":", err.Error())
			failed++
			continue
		}

		fmt.Fprintln(out, litter.Sdump(preview{
			Path:     task.Path,
			BlobName: task.BlobName(),
			Metadata: task.Metadata(),
			Size:     len(task.Content),
		}))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d posts can't be parsed", failed, len(files))
	}
	return nil
}

func printJSON(out io.Writer, v interface{}) {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Println("Can't encode report:", err.Error())
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalln("Bad config:", err.Error())
	}

	if err := newRootCmd(cfg).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
