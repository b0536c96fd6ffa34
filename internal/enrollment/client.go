// Package enrollment talks to the external enrollment service that grants
// course access once a payment is approved.
package enrollment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/learnloop/payments/internal/model"
)

// Client grants enrollment over HTTP. The remote endpoint is idempotent:
// PUT on a (user, target) pair, so a retried approve cannot double-enroll.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates an enrollment client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type grantRequest struct {
	UserID     string `json:"user_id"`
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`
}

// Grant enrolls the user into the target item.
func (c *Client) Grant(ctx context.Context, userID uuid.UUID, targetType model.TargetType, targetID uuid.UUID) error {
	body, err := json.Marshal(grantRequest{
		UserID:     userID.String(),
		TargetType: string(targetType),
		TargetID:   targetID.String(),
	})
	if err != nil {
		return fmt.Errorf("encode grant request: %w", err)
	}

	url := fmt.Sprintf("%s/enrollments/%s/%s", c.baseURL, userID, targetID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build grant request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("grant enrollment: %w", err)
	}
	defer resp.Body.Close()

	// 200 and 409 both mean the grant exists; the endpoint is idempotent
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusConflict {
		return fmt.Errorf("grant enrollment: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Nop grants nothing and always succeeds. Used when no enrollment service
// is configured, e.g. in local development.
type Nop struct{}

// Grant logs and succeeds.
func (Nop) Grant(ctx context.Context, userID uuid.UUID, targetType model.TargetType, targetID uuid.UUID) error {
	log.Info().
		Str("user_id", userID.String()).
		Str("target_type", string(targetType)).
		Str("target_id", targetID.String()).
		Msg("enrollment grant (nop)")
	return nil
}
