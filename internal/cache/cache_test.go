package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledHistorian(t *testing.T) {
	h, err := NewHistorian(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, h.Enabled())

	err = h.PublishAction(context.Background(), ActionRecord{
		SessionID:  "s1",
		ActionType: "publish",
	})
	assert.NoError(t, err, "disabled historian drops records silently")
	assert.NoError(t, h.Close())
}

func TestNilHistorian(t *testing.T) {
	var h *Historian
	assert.False(t, h.Enabled())
	assert.NoError(t, h.Close())
}
