package publish

import (
	"context"

	"github.com/remembercore/memcore/pkg/auth"
	"github.com/remembercore/memcore/pkg/memtype"
)

// CanRevise resolves write-ACL for revising a published memory (spec.md
// §4.6): owner always; otherwise governed by write_mode. authCtx, when
// non-nil, is used directly; otherwise fetcher+token resolve one. Both may
// be nil/empty, in which case only owner_only/anyone modes are decidable.
func CanRevise(ctx context.Context, userID string, p *memtype.PublishedMemory, authCtx *auth.Context, fetcher auth.CredentialsFetcher, token string) (bool, error) {
	if userID == p.OwnerID {
		return true, nil
	}
	switch p.EffectiveWriteMode() {
	case memtype.WriteModeOwnerOnly:
		return false, nil
	case memtype.WriteModeAnyone:
		return true, nil
	case memtype.WriteModeGroupEditors:
		resolved, err := resolveAuthContext(ctx, authCtx, fetcher, token)
		if err != nil {
			return false, err
		}
		return resolved.HasGroupCapability(p.GroupIDs, func(perm auth.Permissions) bool { return perm.CanRevise }), nil
	default:
		return false, nil
	}
}

// CanOverwrite resolves write-ACL for overwriting a published memory
// (spec.md §4.6): owner or explicit allow-list always; otherwise governed
// by write_mode, mirroring CanRevise with the can_overwrite capability.
func CanOverwrite(ctx context.Context, userID string, p *memtype.PublishedMemory, authCtx *auth.Context, fetcher auth.CredentialsFetcher, token string) (bool, error) {
	if userID == p.OwnerID || containsString(p.OverwriteAllowedIDs, userID) {
		return true, nil
	}
	switch p.EffectiveWriteMode() {
	case memtype.WriteModeOwnerOnly:
		return false, nil
	case memtype.WriteModeAnyone:
		return true, nil
	case memtype.WriteModeGroupEditors:
		resolved, err := resolveAuthContext(ctx, authCtx, fetcher, token)
		if err != nil {
			return false, err
		}
		return resolved.HasGroupCapability(p.GroupIDs, func(perm auth.Permissions) bool { return perm.CanOverwrite }), nil
	default:
		return false, nil
	}
}

func resolveAuthContext(ctx context.Context, authCtx *auth.Context, fetcher auth.CredentialsFetcher, token string) (auth.Context, error) {
	if authCtx != nil {
		return *authCtx, nil
	}
	if fetcher == nil {
		return auth.Context{}, nil
	}
	return fetcher.Resolve(ctx, token)
}
