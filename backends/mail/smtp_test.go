package mail

import (
	"context"
	"testing"

	"github.com/generalbots/botengine/internal/capability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveDraftAccumulates(t *testing.T) {
	c := New(Config{})
	require.NoError(t, c.SaveDraft(context.Background(), "a@example.com", "hi", "body"))
	assert.Len(t, c.drafts, 1)
}

func TestListRecentSentToFiltersByAddressAndLimit(t *testing.T) {
	c := New(Config{})
	c.sentLog = []sentRecord{
		{Message: capability.Message{To: "a@example.com", Subject: "s1", Body: "b1"}},
		{Message: capability.Message{To: "b@example.com", Subject: "s2", Body: "b2"}},
		{Message: capability.Message{To: "a@example.com", Subject: "s3", Body: "b3"}},
	}

	out, err := c.ListRecentSentTo(context.Background(), "a@example.com", 1)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "s3", out[0].Subject)
}
