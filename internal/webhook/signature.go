package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// GenerateSignedPayload serializes a benefit event and signs it with the
// client's secret so webhook consumers can authenticate deliveries.
// Returns the JSON payload, the X-Webhook-Signature header value and the
// signing timestamp.
func GenerateSignedPayload(secret string, event WebhookEvent) (payload []byte, signature string, timestamp int64, err error) {
	payload, err = json.Marshal(event)
	if err != nil {
		return nil, "", 0, fmt.Errorf("failed to marshal event: %w", err)
	}

	timestamp = time.Now().Unix()

	// Signature base: {timestamp}.{event_id}.{json_body}. Covering the
	// timestamp lets clients reject replays, and the event id lets them
	// deduplicate redelivered benefit events.
	signaturePayload := fmt.Sprintf("%d.%s.%s", timestamp, event.EventID, string(payload))

	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(signaturePayload))

	// Header format: "sha256=<hex_signature>"
	signature = "sha256=" + hex.EncodeToString(h.Sum(nil))

	return payload, signature, timestamp, nil
}
