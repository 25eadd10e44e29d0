package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"
)

const deliveryTTL = 30 * 24 * time.Hour

// Delivery statuses.
const (
	DeliverySent    = "sent"
	DeliveryFailed  = "failed"
	DeliverySkipped = "skipped"
)

// DeliveryRecord is the outcome of one email attempt.
type DeliveryRecord struct {
	DeliveryID   string `dynamodbav:"deliveryId" json:"deliveryId"`
	JobID        string `dynamodbav:"jobId" json:"jobId"`
	LeadID       int64  `dynamodbav:"leadId" json:"leadId"`
	Kind         string `dynamodbav:"kind" json:"kind"`
	Recipient    string `dynamodbav:"recipient" json:"recipient"`
	Status       string `dynamodbav:"status" json:"status"`
	ErrorMessage string `dynamodbav:"errorMessage,omitempty" json:"errorMessage,omitempty"`
	UsedFallback bool   `dynamodbav:"usedFallback" json:"usedFallback"`
	CreatedAt    string `dynamodbav:"createdAt" json:"createdAt"`
	ExpiresAt    int64  `dynamodbav:"expiresAt,omitempty" json:"-"`
}

// DeliveryLog records email attempts for later inspection.
type DeliveryLog interface {
	Record(ctx context.Context, rec *DeliveryRecord) error
}

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoDeliveryLog writes delivery records to a DynamoDB table keyed by
// deliveryId, expiring them through the expiresAt TTL attribute.
type DynamoDeliveryLog struct {
	client    dynamoAPI
	tableName string
}

func NewDynamoDeliveryLog(client dynamoAPI, tableName string) *DynamoDeliveryLog {
	if client == nil {
		panic("notify: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("notify: table name cannot be empty")
	}
	return &DynamoDeliveryLog{client: client, tableName: tableName}
}

func (l *DynamoDeliveryLog) Record(ctx context.Context, rec *DeliveryRecord) error {
	if rec == nil {
		return errors.New("notify: delivery record cannot be nil")
	}
	now := time.Now().UTC()
	if rec.DeliveryID == "" {
		rec.DeliveryID = uuid.NewString()
	}
	if rec.CreatedAt == "" {
		rec.CreatedAt = now.Format(time.RFC3339Nano)
	}
	if rec.ExpiresAt == 0 {
		rec.ExpiresAt = now.Add(deliveryTTL).Unix()
	}

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("notify: failed to marshal delivery record: %w", err)
	}
	_, err = l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(l.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("notify: failed to persist delivery record: %w", err)
	}
	return nil
}
