package pubsub

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

func TestQualify(t *testing.T) {
	c := &Client{project: "shop-prod"}

	cases := []struct {
		collection, name, want string
	}{
		{"subscriptions", "orders-worker", "projects/shop-prod/subscriptions/orders-worker"},
		{"subscriptions", "projects/other/subscriptions/x", "projects/other/subscriptions/x"},
		{"topics", " orders ", "projects/shop-prod/topics/orders"},
		{"topics", "projects/other/topics/y", "projects/other/topics/y"},
		{"topics", "", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, c.qualify(tc.collection, tc.name), "%s %q", tc.collection, tc.name)
	}

	assert.Empty(t, (&Client{}).qualify("topics", "orders"), "no project, no name")
}

func TestDescribe(t *testing.T) {
	assert.NoError(t, describe("topic", "t", nil))

	err := describe("subscription", "s", status.Error(codes.NotFound, "gone"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")

	cause := errors.New("deadline")
	assert.ErrorIs(t, describe("topic", "t", cause), cause)
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	assert.Nil(t, c.Publisher("orders"))
	assert.Nil(t, c.OrdersSubscription())
	assert.NoError(t, c.Close())
	assert.Error(t, c.Ping(context.Background()))
}

func TestNewClientRequiresProject(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCPConfig{ProjectID: "  "}, config.PubSubConfig{}, RoleConsume, nil)
	assert.ErrorIs(t, err, errProjectIDRequired)
}
