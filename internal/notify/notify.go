// Package notify announces published posts on an SQS queue.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
)

// DefaultSender is the Sender attribute value when none is configured.
const DefaultSender = "post-publisher"

// Message is the body of a publication notice.
type Message struct {
	RunID       string    `json:"run_id"`
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Container   string    `json:"container"`
	Blob        string    `json:"blob"`
	PublishedAt time.Time `json:"published_at"`
}

// SQSNotifier sends one message per published post.
type SQSNotifier struct {
	API      sqsiface.SQSAPI
	QueueURL string
	Sender   string
}

// Notify implements publish.Notifier.
func (n *SQSNotifier) Notify(ctx context.Context, m Message) error {
	encodedBody, err := json.Marshal(m)
	if err != nil {
		return err
	}

	sender := n.Sender
	if sender == "" {
		sender = DefaultSender
	}

	result, err := n.API.SendMessageWithContext(ctx, &sqs.SendMessageInput{
		MessageAttributes: map[string]*sqs.MessageAttributeValue{
			"Sender": {
				DataType:    aws.String("String"),
				StringValue: aws.String(sender),
			},
		},
		MessageBody: aws.String(string(encodedBody)),
		QueueUrl:    aws.String(n.QueueURL),
	})
	if err != nil {
		return err
	}

	log.Println("Notice enqueued with id:", aws.StringValue(result.MessageId))
	return nil
}

// Decode parses a message body produced by Notify.
func Decode(body string) (Message, error) {
	var m Message
	if err := json.Unmarshal([]byte(body), &m); err != nil {
		return Message{}, fmt.Errorf("can't unmarshal %s: %w", body, err)
	}

	if m.ID == "" {
		return Message{}, fmt.Errorf("notice without id: %s", body)
	}

	return m, nil
}
