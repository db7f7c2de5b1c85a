package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPNotifier posts notifications to the notifications service.
type HTTPNotifier struct {
	url string
	hc  *http.Client
	now func() time.Time
}

func NewHTTPNotifier(baseURL string, hc *http.Client) *HTTPNotifier {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &HTTPNotifier{
		url: strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/api/v1/notifications",
		hc:  hc,
		now: time.Now,
	}
}

func (n *HTTPNotifier) Send(ctx context.Context, residentID int64, message string) error {
	body, err := json.Marshal(newNotification(residentID, message, n.now()))
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.hc.Do(req)
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("notifications service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
