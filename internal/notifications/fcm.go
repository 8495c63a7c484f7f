package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"StagePasswebserver/internal/domain"
)

const fcmScope = "https://www.googleapis.com/auth/firebase.messaging"

// Permanent delivery failures. The provider reports these for tokens that will
// never accept delivery again; callers retire the device. Anything else is
// transient and leaves the device alone.
var (
	ErrInvalidToken = errors.New("push_invalid_token")
	ErrUnregistered = errors.New("push_unregistered")
)

// IsPermanent reports whether err means the device token is dead for good.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrUnregistered)
}

// Message is one push payload. Notification is optional; data-only messages
// omit it entirely.
type Message struct {
	Data         map[string]string
	Notification *Notification
}

type Notification struct {
	Title string
	Body  string
}

// Target pairs a token with its platform so the sender can shape the message.
type Target struct {
	Token    string
	Platform domain.Platform
}

// PushSender is the provider abstraction the delivery engine depends on.
// Implementations must surface invalid-token and unregistered-device failures
// as ErrInvalidToken / ErrUnregistered, never as message text.
type PushSender interface {
	Send(ctx context.Context, target Target, msg Message) error
	SendAll(ctx context.Context, targets []Target, msg Message) []error
}

type FCMSender struct {
	projectID   string
	tokenSource oauth2.TokenSource
	client      *http.Client
}

func NewFCMSender(ctx context.Context, projectID, credentialsPath string) (*FCMSender, error) {
	if strings.TrimSpace(credentialsPath) == "" {
		return nil, fmt.Errorf("fcm credentials path required")
	}
	raw, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read fcm credentials: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, raw, fcmScope)
	if err != nil {
		return nil, fmt.Errorf("load fcm credentials: %w", err)
	}
	if projectID == "" {
		projectID = creds.ProjectID
	}
	if projectID == "" {
		return nil, fmt.Errorf("fcm project id required")
	}
	return &FCMSender{
		projectID:   projectID,
		tokenSource: creds.TokenSource,
		client:      http.DefaultClient,
	}, nil
}

func (s *FCMSender) Send(ctx context.Context, target Target, msg Message) error {
	if s == nil {
		return fmt.Errorf("fcm sender not configured")
	}
	if strings.TrimSpace(target.Token) == "" {
		return fmt.Errorf("fcm token required")
	}

	req := fcmRequest{
		Message: fcmMessage{
			Token: target.Token,
			Data:  msg.Data,
		},
	}
	if msg.Notification != nil {
		req.Message.Notification = &fcmNotification{
			Title: msg.Notification.Title,
			Body:  msg.Notification.Body,
		}
	}
	switch target.Platform {
	case domain.PlatformAndroid:
		req.Message.Android = &fcmAndroidConfig{Priority: "HIGH"}
	case domain.PlatformIOS:
		if msg.Notification != nil {
			req.Message.APNS = &fcmAPNSConfig{
				Headers: map[string]string{
					"apns-push-type": "alert",
					"apns-priority":  "10",
				},
			}
		}
	case domain.PlatformWeb:
		if msg.Notification != nil {
			req.Message.Webpush = &fcmWebpushConfig{
				Notification: &fcmNotification{
					Title: msg.Notification.Title,
					Body:  msg.Notification.Body,
				},
			}
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal fcm payload: %w", err)
	}
	accessToken, err := s.tokenSource.Token()
	if err != nil {
		return fmt.Errorf("fcm access token: %w", err)
	}
	url := fmt.Sprintf("https://fcm.googleapis.com/v1/projects/%s/messages:send", s.projectID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build fcm request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+accessToken.AccessToken)
	httpReq.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send fcm request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	rawBody, _ := io.ReadAll(resp.Body)
	if err := fcmErrorFromResponse(rawBody); err != nil {
		return err
	}
	return fmt.Errorf("fcm send failed: status %d: %s", resp.StatusCode, string(rawBody))
}

// SendAll dispatches the same message to every target sequentially, collecting
// one error slot per target. A nil slot means that target was accepted.
func (s *FCMSender) SendAll(ctx context.Context, targets []Target, msg Message) []error {
	errs := make([]error, len(targets))
	for i, target := range targets {
		errs[i] = s.Send(ctx, target, msg)
	}
	return errs
}

type fcmRequest struct {
	Message fcmMessage `json:"message"`
}

type fcmMessage struct {
	Token        string            `json:"token"`
	Data         map[string]string `json:"data,omitempty"`
	Notification *fcmNotification  `json:"notification,omitempty"`
	Android      *fcmAndroidConfig `json:"android,omitempty"`
	APNS         *fcmAPNSConfig    `json:"apns,omitempty"`
	Webpush      *fcmWebpushConfig `json:"webpush,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title,omitempty"`
	Body  string `json:"body,omitempty"`
}

type fcmAndroidConfig struct {
	Priority string `json:"priority,omitempty"`
}

type fcmAPNSConfig struct {
	Headers map[string]string `json:"headers,omitempty"`
}

type fcmWebpushConfig struct {
	Notification *fcmNotification `json:"notification,omitempty"`
}

type fcmErrorResponse struct {
	Error struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Details []struct {
			Type      string `json:"@type"`
			ErrorCode string `json:"errorCode"`
		} `json:"details"`
	} `json:"error"`
}

// fcmErrorFromResponse maps the FCM v1 error body onto the closed failure
// taxonomy. UNREGISTERED and INVALID_ARGUMENT are the two error codes FCM
// documents as terminal for a token.
func fcmErrorFromResponse(body []byte) error {
	if len(body) == 0 {
		return fmt.Errorf("fcm send failed: empty response")
	}
	var resp fcmErrorResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("fcm send failed: %s", string(body))
	}
	for _, detail := range resp.Error.Details {
		switch detail.ErrorCode {
		case "UNREGISTERED":
			return fmt.Errorf("%w: %s", ErrUnregistered, resp.Error.Message)
		case "INVALID_ARGUMENT":
			return fmt.Errorf("%w: %s", ErrInvalidToken, resp.Error.Message)
		}
	}
	return fmt.Errorf("fcm send failed: %s", resp.Error.Message)
}
