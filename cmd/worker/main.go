package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	"github.com/sanity-io/litter"

	"github.com/bobrnor/postpublisher/internal/config"
	"github.com/bobrnor/postpublisher/internal/index"
	"github.com/bobrnor/postpublisher/internal/notify"
)

var cfg config.Worker
var sqsClient sqsiface.SQSAPI
var store *index.Store

const receiveBackoff = 30 * time.Second

func loop(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		result, err := sqsClient.ReceiveMessageWithContext(ctx, &sqs.ReceiveMessageInput{
			AttributeNames: aws.StringSlice([]string{
				"All",
			}),
			MaxNumberOfMessages: aws.Int64(10),
			MessageAttributeNames: aws.StringSlice([]string{
				"All",
			}),
			QueueUrl:        aws.String(cfg.SQSURL),
			WaitTimeSeconds: aws.Int64(cfg.SQSLongpollTimeoutInSec),
		})

		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Println("Can't receive message from sqs:", err.Error())
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(receiveBackoff):
			}
			continue
		}

		for _, m := range result.Messages {
			handle(ctx, m)
		}
	}
}

// handle indexes one notice and deletes it. Messages that fail are left on
// the queue so they come back after the visibility timeout.
func handle(ctx context.Context, m *sqs.Message) bool {
	if m == nil || m.Body == nil {
		log.Println("Empty message:", litter.Sdump(m))
		return false
	}

	notice, err := notify.Decode(*m.Body)
	if err != nil {
		log.Println("Can't decode message:", litter.Sdump(m), ",", err.Error())
		return false
	}

	log.Println("Indexing post:", notice.ID)

	if err := store.Put(ctx, index.FromMessage(notice)); err != nil {
		log.Println("Can't index post:", notice.ID, ",", err.Error())
		return false
	}

	_, err = sqsClient.DeleteMessageWithContext(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(cfg.SQSURL),
		ReceiptHandle: m.ReceiptHandle,
	})

	if err != nil {
		log.Println("Can't delete message from sqs:", litter.Sdump(m), ",", err.Error())
		return false
	}

	log.Println("Message deleted:", aws.StringValue(m.MessageId))
	return true
}

func initClients() error {
	s, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.Region),
	})

	if err != nil {
		return err
	}

	sqsClient = sqs.New(s)
	store = &index.Store{API: dynamodb.New(s), Table: cfg.IndexTable}
	return nil
}

func main() {
	var err error
	if cfg, err = config.LoadWorker(); err != nil {
		log.Fatalln("Bad config:", err.Error())
	}

	if err := initClients(); err != nil {
		log.Fatalln("Can't create aws clients:", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := loop(ctx); err != nil {
		log.Fatalln("Error during loop:", err.Error())
	}
}
