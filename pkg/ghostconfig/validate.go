package ghostconfig

import (
	"fmt"

	"github.com/remembercore/memcore/pkg/memtype"
)

// Validate checks cfg against spec.md §3's ghost config invariants: every
// trust value in [0,1], and enforcement_mode one of the three recognized
// values. An invalid input fails with no change persisted by the caller.
func Validate(cfg memtype.GhostConfig) error {
	if err := unitInterval("default_friend_trust", cfg.DefaultFriendTrust); err != nil {
		return err
	}
	if err := unitInterval("default_public_trust", cfg.DefaultPublicTrust); err != nil {
		return err
	}
	for user, t := range cfg.PerUserTrust {
		if err := unitInterval(fmt.Sprintf("per_user_trust[%s]", user), t); err != nil {
			return err
		}
	}
	switch cfg.EnforcementMode {
	case "", memtype.EnforcementQuery, memtype.EnforcementPrompt, memtype.EnforcementHybrid:
	default:
		return fmt.Errorf("ghostconfig: invalid enforcement_mode: %q", cfg.EnforcementMode)
	}
	return nil
}

func unitInterval(field string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("ghostconfig: invalid %s: %v is outside [0,1]", field, v)
	}
	return nil
}
