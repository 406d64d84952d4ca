// Package auth defines the credentials boundary used by the publication
// pipeline's write-ACL and moderation checks (spec.md §4.6, §6).
package auth

import "context"

// Permissions describes what a user may do inside one group.
type Permissions struct {
	CanRevise    bool
	CanOverwrite bool
	CanModerate  bool
}

// GroupMembership is one group a user belongs to, with their capabilities
// inside it.
type GroupMembership struct {
	GroupID     string
	Permissions Permissions
}

// Context is the resolved identity spec.md §4.6 calls "an ambient
// AuthContext": who is acting, and what group capabilities they carry.
type Context struct {
	UserID  string
	Groups  []GroupMembership
	// SpaceModerator is true when the user holds any-moderator capability
	// over the unified public spaces collection (spec.md §4.6 "space
	// moderation requires any-moderator capability").
	SpaceModerator bool
}

// HasGroupCapability reports whether the context's user can do something
// requiring the given predicate in at least one of the named groups.
func (c Context) HasGroupCapability(groupIDs []string, want func(Permissions) bool) bool {
	if c.UserID == "" {
		return false
	}
	wanted := make(map[string]bool, len(groupIDs))
	for _, g := range groupIDs {
		wanted[g] = true
	}
	for _, m := range c.Groups {
		if wanted[m.GroupID] && want(m.Permissions) {
			return true
		}
	}
	return false
}

// CredentialsFetcher resolves an opaque access token into an auth Context.
// canRevise/canOverwrite accept an optional fetcher (spec.md §4.6) so callers
// that already hold a resolved Context can skip the round trip.
type CredentialsFetcher interface {
	Resolve(ctx context.Context, token string) (Context, error)
}

// CredentialsFetcherFunc adapts a function to CredentialsFetcher.
type CredentialsFetcherFunc func(ctx context.Context, token string) (Context, error)

func (f CredentialsFetcherFunc) Resolve(ctx context.Context, token string) (Context, error) {
	return f(ctx, token)
}
