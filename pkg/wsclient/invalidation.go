package wsclient

// CacheScope names a client-side cache region that a notification makes
// stale.
type CacheScope string

const (
	ScopeFeed        CacheScope = "feed"
	ScopeQA          CacheScope = "qa"
	ScopeEvents      CacheScope = "events"
	ScopeLeaderboard CacheScope = "leaderboard"
)

// scopeForType is the fixed notification-type to cache-scope table. It is
// deliberately not configurable; producers and clients agree on it out of
// band.
var scopeForType = map[string]CacheScope{
	"post":        ScopeFeed,
	"comment":     ScopeFeed,
	"like":        ScopeFeed,
	"answer":      ScopeQA,
	"event":       ScopeEvents,
	"achievement": ScopeLeaderboard,
}

// ScopeFor returns the cache scope invalidated by a notification type, and
// whether the type is known.
func ScopeFor(notificationType string) (CacheScope, bool) {
	scope, ok := scopeForType[notificationType]
	return scope, ok
}
