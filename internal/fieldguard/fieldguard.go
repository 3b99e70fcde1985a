// AngelaMos | 2026
// fieldguard.go

// Package fieldguard decides which fields of an update payload may be
// persisted for a given entity kind and caller tier. It is the only place in
// the service where that decision is made.
package fieldguard

import (
	"slices"
	"sort"

	"github.com/carterperez-dev/finddetectives/internal/access"
)

type Kind string

const (
	KindUser            Kind = "user"
	KindDetective       Kind = "detective"
	KindService         Kind = "service"
	KindReview          Kind = "review"
	KindServiceCategory Kind = "service_category"
)

type Tier int

const (
	TierSelf Tier = iota
	TierAdmin
)

func (t Tier) String() string {
	if t == TierAdmin {
		return "admin"
	}
	return "self"
}

// TierFor maps a principal to its whitelist tier.
func TierFor(p *access.Principal) Tier {
	if p.IsAdmin() {
		return TierAdmin
	}
	return TierSelf
}

type whitelist struct {
	self      []string
	adminAdds []string
	adminOnly bool
}

var whitelists = map[Kind]whitelist{
	KindUser: {
		self: []string{"name", "avatar_url"},
	},
	KindDetective: {
		self: []string{
			"business_name",
			"bio",
			"location",
			"phone",
			"whatsapp",
			"languages",
			"recognitions",
		},
		adminAdds: []string{
			"status",
			"subscription_plan",
			"is_verified",
			"country",
		},
	},
	KindService: {
		self: []string{
			"title",
			"description",
			"category",
			"base_price",
			"offer_price",
			"images",
			"is_active",
		},
	},
	KindReview: {
		self: []string{"rating", "comment", "is_published"},
	},
	KindServiceCategory: {
		adminAdds: []string{"name", "description", "is_active"},
		adminOnly: true,
	},
}

// Allowed returns the sorted field names a tier may write for kind.
func Allowed(kind Kind, tier Tier) []string {
	wl, ok := whitelists[kind]
	if !ok {
		return nil
	}

	fields := make([]string, 0, len(wl.self)+len(wl.adminAdds))
	if !wl.adminOnly {
		fields = append(fields, wl.self...)
	}
	if tier == TierAdmin {
		fields = append(fields, wl.adminAdds...)
	}

	sort.Strings(fields)
	return fields
}

func IsAllowed(kind Kind, tier Tier, field string) bool {
	return slices.Contains(Allowed(kind, tier), field)
}

// Sanitize returns the subset of payload whose keys are on the whitelist for
// kind and tier. Disallowed and unknown keys are dropped without error. The
// input map is never modified.
func Sanitize(kind Kind, tier Tier, payload map[string]any) map[string]any {
	allowed := Allowed(kind, tier)
	out := make(map[string]any, len(payload))

	for key, value := range payload {
		if _, found := slices.BinarySearch(allowed, key); found {
			out[key] = value
		}
	}

	return out
}

// Dropped lists the payload keys Sanitize would discard, sorted.
func Dropped(kind Kind, tier Tier, payload map[string]any) []string {
	allowed := Allowed(kind, tier)
	var dropped []string

	for key := range payload {
		if _, found := slices.BinarySearch(allowed, key); !found {
			dropped = append(dropped, key)
		}
	}

	sort.Strings(dropped)
	return dropped
}
