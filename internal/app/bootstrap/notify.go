package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/dmanzer2/lead-gen/internal/config"
	"github.com/dmanzer2/lead-gen/internal/notify"
	"github.com/dmanzer2/lead-gen/internal/observability/metrics"
	"github.com/dmanzer2/lead-gen/pkg/logging"
)

// Queue backends selectable through NOTIFY_QUEUE.
const (
	QueueMemory = "memory"
	QueueRedis  = "redis"
	QueueSQS    = "sqs"
)

var (
	errRedisUnavailable = errors.New("bootstrap: NOTIFY_QUEUE=redis requires a reachable REDIS_ADDR")
	errSQSUnconfigured  = errors.New("bootstrap: NOTIFY_QUEUE=sqs requires NOTIFY_QUEUE_URL and AWS config")
)

// NeedsAWS reports whether any configured component talks to AWS.
func NeedsAWS(cfg *appconfig.Config) bool {
	return cfg.EmailProvider == "ses" ||
		cfg.NotifyQueue == QueueSQS ||
		strings.TrimSpace(cfg.TemplateBucket) != "" ||
		strings.TrimSpace(cfg.DeliveryLogTable) != ""
}

// BuildEmailSender picks the email provider. "auto" prefers SendGrid when an
// API key is present and otherwise logs instead of sending.
func BuildEmailSender(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) (notify.EmailSender, string) {
	provider := cfg.EmailProvider
	if provider == "" || provider == "auto" {
		provider = "stub"
		if strings.TrimSpace(cfg.SendGridAPIKey) != "" {
			provider = "sendgrid"
		}
	}

	switch provider {
	case "sendgrid":
		if sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		}, logger); sender != nil {
			return sender, "sendgrid"
		}
		logger.Warn("EMAIL_PROVIDER=sendgrid but SENDGRID_API_KEY is empty; emails will only be logged")
	case "ses":
		if awsCfg != nil {
			return notify.NewSESSender(sesv2.NewFromConfig(*awsCfg), notify.SESConfig{
				FromEmail: cfg.EmailFrom,
				FromName:  cfg.EmailFromName,
			}, logger), "ses"
		}
		logger.Warn("EMAIL_PROVIDER=ses but AWS config is unavailable; emails will only be logged")
	case "stub":
	default:
		logger.Warn("unknown EMAIL_PROVIDER, emails will only be logged", "provider", provider)
	}
	return notify.NewStubEmailSender(logger), "stub"
}

// BuildTemplateSource returns S3-backed templates when TEMPLATE_BUCKET is set.
func BuildTemplateSource(cfg *appconfig.Config, awsCfg *aws.Config) notify.TemplateSource {
	if strings.TrimSpace(cfg.TemplateBucket) == "" || awsCfg == nil {
		return notify.EmbeddedTemplates{}
	}
	client := s3.NewFromConfig(*awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.AWSEndpointOverride != ""
	})
	return notify.NewS3Templates(client, cfg.TemplateBucket, cfg.TemplatePrefix)
}

// BuildDeliveryLog returns the DynamoDB delivery log or nil when disabled.
func BuildDeliveryLog(cfg *appconfig.Config, awsCfg *aws.Config) notify.DeliveryLog {
	if strings.TrimSpace(cfg.DeliveryLogTable) == "" || awsCfg == nil {
		return nil
	}
	return notify.NewDynamoDeliveryLog(dynamodb.NewFromConfig(*awsCfg), cfg.DeliveryLogTable)
}

// BuildQueue returns the notification queue selected by NOTIFY_QUEUE.
func BuildQueue(cfg *appconfig.Config, awsCfg *aws.Config, redisClient *redis.Client) (notify.Queue, error) {
	switch cfg.NotifyQueue {
	case "", QueueMemory:
		return notify.NewMemoryQueue(128), nil
	case QueueRedis:
		if redisClient == nil {
			return nil, errRedisUnavailable
		}
		return notify.NewRedisQueue(redisClient, cfg.NotifyRedisKey), nil
	case QueueSQS:
		if strings.TrimSpace(cfg.NotifyQueueURL) == "" || awsCfg == nil {
			return nil, errSQSUnconfigured
		}
		return notify.NewSQSQueue(sqs.NewFromConfig(*awsCfg), cfg.NotifyQueueURL), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown NOTIFY_QUEUE %q", cfg.NotifyQueue)
	}
}

// Notifications bundles the notification pipeline for a binary.
type Notifications struct {
	Dispatcher *notify.Dispatcher
	Queue      notify.Queue
	Provider   string
	// InProcess is true when jobs never leave this process, so the caller
	// must run a Worker itself.
	InProcess bool

	redis *redis.Client
}

// Close releases the Redis connection, if any.
func (n *Notifications) Close() {
	if n != nil && n.redis != nil {
		_ = n.redis.Close()
	}
}

// BuildNotifications wires queue, sender, templates and delivery log.
// labels may be nil.
func BuildNotifications(ctx context.Context, cfg *appconfig.Config, awsCfg *aws.Config, labels notify.ReferenceLabels, m *metrics.LeadMetrics, logger *logging.Logger) (*Notifications, error) {
	if logger == nil {
		logger = logging.Default()
	}

	var redisClient *redis.Client
	if cfg.NotifyQueue == QueueRedis {
		redisClient = BuildRedisClient(ctx, cfg, logger, true)
	}
	queue, err := BuildQueue(cfg, awsCfg, redisClient)
	if err != nil {
		if redisClient != nil {
			_ = redisClient.Close()
		}
		return nil, err
	}

	sender, provider := BuildEmailSender(cfg, awsCfg, logger)
	dispatcher := notify.NewDispatcher(notify.DispatcherConfig{
		Queue:      queue,
		Sender:     sender,
		Renderer:   notify.NewRenderer(BuildTemplateSource(cfg, awsCfg), logger),
		AdminEmail: cfg.AdminEmail,
		Labels:     labels,
		Deliveries: BuildDeliveryLog(cfg, awsCfg),
		JobTimeout: cfg.NotifyTimeout,
		Metrics:    m,
		Logger:     logger,
	})

	_, inProcess := queue.(*notify.MemoryQueue)
	logger.Info("notifications configured", "queue", cfg.NotifyQueue, "email_provider", provider, "in_process", inProcess)
	return &Notifications{Dispatcher: dispatcher, Queue: queue, Provider: provider, InProcess: inProcess, redis: redisClient}, nil
}
