package ghostconfig

import (
	"fmt"

	"github.com/remembercore/memcore/pkg/memtype"
	"gopkg.in/yaml.v3"
)

// defaultDocument is the YAML shape accepted by LoadDefault, matching the
// same field names as memtype.GhostConfig for a direct operator-authored
// config file (spec.md places config-file parsing out of scope for the
// adapters, but a library-level "seed this owner's ghost config from a
// document" helper has an obvious home here).
type defaultDocument struct {
	Enabled            bool               `yaml:"enabled"`
	DefaultFriendTrust float64            `yaml:"default_friend_trust"`
	DefaultPublicTrust float64            `yaml:"default_public_trust"`
	PerUserTrust       map[string]float64 `yaml:"per_user_trust"`
	BlockedUsers       []string           `yaml:"blocked_users"`
	EnforcementMode    string             `yaml:"enforcement_mode"`
}

// LoadDefault parses a YAML document into a validated GhostConfig for
// ownerID. It does not persist anything; callers pass the result to
// Store.Create.
func LoadDefault(ownerID string, doc []byte) (memtype.GhostConfig, error) {
	var parsed defaultDocument
	if err := yaml.Unmarshal(doc, &parsed); err != nil {
		return memtype.GhostConfig{}, fmt.Errorf("ghostconfig: parse default document: %w", err)
	}

	blocked := make(map[string]bool, len(parsed.BlockedUsers))
	for _, u := range parsed.BlockedUsers {
		blocked[u] = true
	}

	cfg := memtype.GhostConfig{
		OwnerID:            ownerID,
		Enabled:            parsed.Enabled,
		DefaultFriendTrust: parsed.DefaultFriendTrust,
		DefaultPublicTrust: parsed.DefaultPublicTrust,
		PerUserTrust:       parsed.PerUserTrust,
		BlockedUsers:       blocked,
		EnforcementMode:    memtype.EnforcementMode(parsed.EnforcementMode),
	}
	if cfg.EnforcementMode == "" {
		cfg.EnforcementMode = memtype.EnforcementQuery
	}
	if err := Validate(cfg); err != nil {
		return memtype.GhostConfig{}, err
	}
	return cfg, nil
}
