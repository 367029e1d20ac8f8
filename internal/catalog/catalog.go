package catalog

import (
	"sort"

	"github.com/referhub/backend/internal/models"
)

// Reward is a static catalog entry. The catalog is read-only at runtime;
// prices are snapshotted into redemption records so later edits to this list
// never rewrite history.
type Reward struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PointsCost  int    `json:"points_cost"`
	Image       string `json:"image"`
}

// Catalog is the static rewards catalog
type Catalog struct {
	rewards map[string]Reward
}

// defaultRewards is the launch catalog
var defaultRewards = []Reward{
	{
		ID:          "reward1",
		Name:        "Free eBook",
		Description: "Download our exclusive guide on maximizing your productivity",
		PointsCost:  30,
		Image:       "/images/rewards/ebook.svg",
	},
	{
		ID:          "reward2",
		Name:        "Amazon Coupon",
		Description: "$10 Amazon gift card for your next purchase",
		PointsCost:  100,
		Image:       "/images/rewards/coupon.svg",
	},
	{
		ID:          "reward3",
		Name:        "Premium Membership",
		Description: "One month of premium membership features",
		PointsCost:  150,
		Image:       "/images/rewards/premium.svg",
	},
	{
		ID:          "reward4",
		Name:        "Exclusive Webinar",
		Description: "Access to our upcoming expert webinar",
		PointsCost:  50,
		Image:       "/images/rewards/webinar.svg",
	},
}

// NewCatalog creates the default static catalog
func NewCatalog() *Catalog {
	return NewCatalogWithRewards(defaultRewards)
}

// NewCatalogWithRewards creates a catalog from an explicit reward list
func NewCatalogWithRewards(rewards []Reward) *Catalog {
	m := make(map[string]Reward, len(rewards))
	for _, r := range rewards {
		m[r.ID] = r
	}
	return &Catalog{rewards: m}
}

// List returns all rewards sorted by points cost
func (c *Catalog) List() []Reward {
	rewards := make([]Reward, 0, len(c.rewards))
	for _, r := range c.rewards {
		rewards = append(rewards, r)
	}
	sort.Slice(rewards, func(i, j int) bool {
		return rewards[i].PointsCost < rewards[j].PointsCost
	})
	return rewards
}

// Get looks up a reward by id
func (c *Catalog) Get(rewardID string) (Reward, bool) {
	r, ok := c.rewards[rewardID]
	return r, ok
}

// Eligible reports whether a user has enough points to redeem a reward.
// Unknown rewards are never eligible.
func (c *Catalog) Eligible(user *models.User, rewardID string) bool {
	if user == nil {
		return false
	}
	r, ok := c.rewards[rewardID]
	if !ok {
		return false
	}
	return user.Points >= r.PointsCost
}
