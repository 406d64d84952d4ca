package ghostconfig

import "github.com/remembercore/memcore/pkg/memtype"

func encode(cfg memtype.GhostConfig) map[string]any {
	data := map[string]any{
		"enabled":              cfg.Enabled,
		"default_friend_trust": cfg.DefaultFriendTrust,
		"default_public_trust": cfg.DefaultPublicTrust,
		"enforcement_mode":     string(cfg.EnforcementMode),
	}
	if len(cfg.PerUserTrust) > 0 {
		data["per_user_trust"] = cfg.PerUserTrust
	}
	if len(cfg.BlockedUsers) > 0 {
		users := make([]string, 0, len(cfg.BlockedUsers))
		for u, blocked := range cfg.BlockedUsers {
			if blocked {
				users = append(users, u)
			}
		}
		data["blocked_users"] = users
	}
	return data
}

func decode(ownerID string, data map[string]any) *memtype.GhostConfig {
	cfg := &memtype.GhostConfig{
		OwnerID:      ownerID,
		PerUserTrust: map[string]float64{},
		BlockedUsers: map[string]bool{},
	}
	if v, ok := data["enabled"].(bool); ok {
		cfg.Enabled = v
	}
	if v, ok := data["default_friend_trust"].(float64); ok {
		cfg.DefaultFriendTrust = v
	}
	if v, ok := data["default_public_trust"].(float64); ok {
		cfg.DefaultPublicTrust = v
	}
	if v, ok := data["enforcement_mode"].(string); ok {
		cfg.EnforcementMode = memtype.EnforcementMode(v)
	}
	if m, ok := data["per_user_trust"].(map[string]float64); ok {
		for k, v := range m {
			cfg.PerUserTrust[k] = v
		}
	} else if m, ok := data["per_user_trust"].(map[string]any); ok {
		for k, v := range m {
			if f, ok := v.(float64); ok {
				cfg.PerUserTrust[k] = f
			}
		}
	}
	switch users := data["blocked_users"].(type) {
	case []string:
		for _, u := range users {
			cfg.BlockedUsers[u] = true
		}
	case []any:
		for _, u := range users {
			if s, ok := u.(string); ok {
				cfg.BlockedUsers[s] = true
			}
		}
	}
	return cfg
}
