package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Role says which side of the orders stream a process sits on. It decides
// which resource must exist before the process is considered healthy.
type Role int

const (
	// RolePublish needs the orders topic.
	RolePublish Role = iota
	// RoleConsume needs the orders subscription.
	RoleConsume
)

var errProjectIDRequired = errors.New("gcp project id is required")

type Client struct {
	client  *pubsub.Client
	project string
	role    Role
	cfg     config.PubSubConfig
}

// NewClient connects to Pub/Sub and refuses to start when the resource its role depends on is missing.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, role Role, logg *logger.Logger) (*Client, error) {
	project := strings.TrimSpace(gcp.ProjectID)
	if project == "" {
		return nil, errProjectIDRequired
	}

	var opts []option.ClientOption
	if creds := strings.TrimSpace(gcp.CredentialsJSON); creds != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	}
	raw, err := pubsub.NewClient(ctx, project, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	c := &Client{client: raw, project: project, role: role, cfg: cfg}
	if err := c.Ping(ctx); err != nil {
		_ = raw.Close()
		return nil, err
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "project", project), "pubsub client ready")
	}
	return c, nil
}

// Ping confirms the topic (publishers) or the subscription (consumers) still exists.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errors.New("pubsub client not initialized")
	}
	switch c.role {
	case RoleConsume:
		name := c.qualify("subscriptions", c.cfg.OrdersSubscription)
		if name == "" {
			return errors.New("orders subscription is not configured")
		}
		_, err := c.client.SubscriptionAdminClient.GetSubscription(ctx, &pubsubpb.GetSubscriptionRequest{Subscription: name})
		return describe("subscription", name, err)
	default:
		name := c.qualify("topics", c.cfg.OrdersTopic)
		if name == "" {
			return errors.New("orders topic is not configured")
		}
		_, err := c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: name})
		return describe("topic", name, err)
	}
}

func describe(kind, name string, err error) error {
	switch {
	case err == nil:
		return nil
	case status.Code(err) == codes.NotFound:
		return fmt.Errorf("%s %q does not exist", kind, name)
	default:
		return fmt.Errorf("checking %s %q: %w", kind, name, err)
	}
}

// Subscription returns a receiver for the given subscription id or full resource name.
func (c *Client) Subscription(name string) *pubsub.Subscriber {
	if c == nil || c.client == nil {
		return nil
	}
	if full := c.qualify("subscriptions", name); full != "" {
		return c.client.Subscriber(full)
	}
	return nil
}

func (c *Client) OrdersSubscription() *pubsub.Subscriber {
	if c == nil {
		return nil
	}
	return c.Subscription(c.cfg.OrdersSubscription)
}

// Publisher returns a batching publisher for the given topic id or full resource name.
func (c *Client) Publisher(name string) *pubsub.Publisher {
	if c == nil || c.client == nil {
		return nil
	}
	if full := c.qualify("topics", name); full != "" {
		return c.client.Publisher(full)
	}
	return nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// qualify turns "orders" into "projects/<p>/<collection>/orders". Already qualified names pass through.
func (c *Client) qualify(collection, name string) string {
	name = strings.TrimSpace(name)
	if name == "" || c.project == "" {
		return ""
	}
	if strings.HasPrefix(name, "projects/") && strings.Contains(name, "/"+collection+"/") {
		return name
	}
	return "projects/" + c.project + "/" + collection + "/" + name
}
