package confirm

import (
	"time"

	"github.com/remembercore/memcore/pkg/memtype"
)

func encode(r *memtype.ConfirmationRequest) map[string]any {
	data := map[string]any{
		"user_id":    r.UserID,
		"token":      r.Token,
		"action":     string(r.Action),
		"payload":    r.Payload,
		"created_at": r.CreatedAt,
		"expires_at": r.ExpiresAt,
		"status":     string(r.Status),
	}
	if r.ConfirmedAt != nil {
		data["confirmed_at"] = *r.ConfirmedAt
	}
	return data
}

func decode(requestID string, data map[string]any) *memtype.ConfirmationRequest {
	req := &memtype.ConfirmationRequest{RequestID: requestID}
	if v, ok := data["user_id"].(string); ok {
		req.UserID = v
	}
	if v, ok := data["token"].(string); ok {
		req.Token = v
	}
	if v, ok := data["action"].(string); ok {
		req.Action = memtype.ConfirmationAction(v)
	}
	if v, ok := data["payload"].(map[string]any); ok {
		req.Payload = v
	}
	if v, ok := data["created_at"].(time.Time); ok {
		req.CreatedAt = v
	}
	if v, ok := data["expires_at"].(time.Time); ok {
		req.ExpiresAt = v
	}
	if v, ok := data["status"].(string); ok {
		req.Status = memtype.ConfirmationStatus(v)
	}
	if v, ok := data["confirmed_at"].(time.Time); ok {
		req.ConfirmedAt = &v
	}
	return req
}
