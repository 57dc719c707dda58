package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/service/sqs"
	uuid "github.com/satori/go.uuid"

	"github.com/bobrnor/postpublisher/internal/config"
	"github.com/bobrnor/postpublisher/internal/notify"
	"github.com/bobrnor/postpublisher/internal/publish"
	"github.com/bobrnor/postpublisher/internal/storage"
)

type PostFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type PublishRequest struct {
	Posts []PostFile `json:"posts"`
}

type PublishResponse struct {
	Status    string   `json:"status"`
	RunID     string   `json:"run_id"`
	Published []string `json:"published"`
	Failed    []string `json:"failed"`
}

var cfg config.Config
var uploader publish.Uploader
var notifier publish.Notifier

func HandleRequest(ctx context.Context, event PublishRequest) (PublishResponse, error) {
	files := make([]publish.File, 0, len(event.Posts))
	for _, f := range event.Posts {
		files = append(files, publish.File{Path: f.Path, Content: []byte(f.Content)})
	}

	p := &publish.Publisher{
		Uploader:  uploader,
		Notifier:  notifier,
		Container: cfg.Container,
		Dir:       cfg.Dir,
		RunID:     uuid.NewV4().String(),
		Logger:    log.New(log.Writer(), "", log.LstdFlags),
	}

	report, err := p.PublishContents(ctx, files)
	if err != nil {
		log.Println("Publish finished with errors:", err.Error())
	}

	status := "OK"
	if len(report.Failed) > 0 {
		status = "Partial"
	}

	return PublishResponse{
		Status:    status,
		RunID:     report.RunID,
		Published: report.Published,
		Failed:    report.Failed,
	}, nil
}

func initClients() error {
	sess, err := storage.NewSession(cfg.Region, "", "")
	if err != nil {
		return err
	}

	uploader = storage.NewS3Uploader(sess)
	if cfg.SQSURL != "" {
		notifier = &notify.SQSNotifier{
			API:      sqs.New(sess),
			QueueURL: cfg.SQSURL,
			Sender:   cfg.Sender,
		}
	}
	return nil
}

func main() {
	var err error
	if cfg, err = config.Load(); err != nil {
		log.Fatalln("Bad config:", err.Error())
	}

	if err := initClients(); err != nil {
		log.Fatalln("Can't create storage client:", err.Error())
	}

	lambda.Start(HandleRequest)
}
