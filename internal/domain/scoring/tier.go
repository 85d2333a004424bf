package scoring

import "strings"

// Tier buckets a lead score for reporting and notifications.
type Tier string

// Lead tiers.
const (
	TierCold Tier = "cold"
	TierWarm Tier = "warm"
	TierHot  Tier = "hot"
)

// Tier boundaries, inclusive on the upper side.
const (
	coldMax = 15
	warmMax = 30
)

// TierOf maps a score onto its tier.
func TierOf(score int) Tier {
	switch {
	case score > warmMax:
		return TierHot
	case score > coldMax:
		return TierWarm
	default:
		return TierCold
	}
}

// Emoji returns the Slack shortcode used when announcing a lead of this tier.
func (t Tier) Emoji() string {
	switch t {
	case TierHot:
		return ":fire:"
	case TierWarm:
		return ":star:"
	default:
		return ":wave:"
	}
}

var registrationKeywords = []string{
	"sign up", "signup", "register", "registration", "interested", "join",
	"enroll", "book", "reserve", "spot", "count me in", "i want to", "i'd like to",
}

// WantsToRegister reports whether a chat message signals intent to sign up,
// in which case the widget offers the lead form.
func WantsToRegister(message string) bool {
	text := strings.ToLower(message)
	for _, k := range registrationKeywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
