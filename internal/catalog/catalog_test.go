package catalog

import (
	"testing"

	"github.com/referhub/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListSortedByCost(t *testing.T) {
	c := NewCatalog()

	rewards := c.List()
	require.Len(t, rewards, 4)
	for i := 1; i < len(rewards); i++ {
		assert.LessOrEqual(t, rewards[i-1].PointsCost, rewards[i].PointsCost)
	}
}

func TestGet(t *testing.T) {
	c := NewCatalog()

	reward, ok := c.Get("reward1")
	require.True(t, ok)
	assert.Equal(t, "Free eBook", reward.Name)
	assert.Equal(t, 30, reward.PointsCost)

	_, ok = c.Get("no-such-reward")
	assert.False(t, ok)
}

func TestEligible(t *testing.T) {
	c := NewCatalogWithRewards([]Reward{
		{ID: "r1", Name: "Cheap", PointsCost: 10},
		{ID: "r2", Name: "Pricey", PointsCost: 100},
	})

	user := &models.User{Points: 10}

	assert.True(t, c.Eligible(user, "r1"), "exact balance is enough")
	assert.False(t, c.Eligible(user, "r2"))
	assert.False(t, c.Eligible(user, "no-such-reward"))
	assert.False(t, c.Eligible(nil, "r1"))
}
