// Package index keeps a DynamoDB record of the latest publication of each post.
package index

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"

	"github.com/bobrnor/postpublisher/internal/notify"
)

// Record is one item in the index table, keyed by post id.
type Record struct {
	ID          string    `json:"id"`
	Slug        string    `json:"url"`
	Title       string    `json:"title"`
	Container   string    `json:"container"`
	Blob        string    `json:"blob"`
	RunID       string    `json:"run_id"`
	PublishedAt time.Time `json:"published_at"`
}

// FromMessage maps a publication notice to its index record.
func FromMessage(m notify.Message) Record {
	return Record{
		ID:          m.ID,
		Slug:        m.Slug,
		Title:       m.Title,
		Container:   m.Container,
		Blob:        m.Blob,
		RunID:       m.RunID,
		PublishedAt: m.PublishedAt,
	}
}

// Store writes records to a DynamoDB table.
type Store struct {
	API   dynamodbiface.DynamoDBAPI
	Table string
}

// Put overwrites the record for r.ID.
func (s *Store) Put(ctx context.Context, r Record) error {
	item, err := dynamodbattribute.MarshalMap(r)
	if err != nil {
		return fmt.Errorf("can't marshal record %s: %w", r.ID, err)
	}

	_, err = s.API.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		Item:      item,
		TableName: aws.String(s.Table),
	})
	if err != nil {
		return fmt.Errorf("can't put record %s: %w", r.ID, err)
	}

	return nil
}
