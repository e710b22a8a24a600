package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	appbilling "github.com/facturio/backend/internal/application/billing"
	"github.com/facturio/backend/internal/infrastructure/config"
)

// maxErrorBodySize caps how much of an error response is read back (64KB)
const maxErrorBodySize = 64 * 1024

// EmailServiceClient delivers e-mail through the external transactional
// e-mail service. It implements the application's EmailSender port.
type EmailServiceClient struct {
	baseURL     string
	apiKey      string
	fromAddress string
	httpClient  *http.Client
}

// NewEmailServiceClient creates a new e-mail service client
func NewEmailServiceClient(cfg config.DispatchConfig) *EmailServiceClient {
	return &EmailServiceClient{
		baseURL:     cfg.EmailServiceURL,
		apiKey:      cfg.EmailAPIKey,
		fromAddress: cfg.FromAddress,
		httpClient: &http.Client{
			Timeout: cfg.EmailTimeout,
		},
	}
}

// emailAttachment carries the attachment; []byte marshals as base64
type emailAttachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"content"`
}

// emailRequest is the payload sent to the e-mail service
type emailRequest struct {
	From        string            `json:"from"`
	FromName    string            `json:"from_name,omitempty"`
	ReplyTo     string            `json:"reply_to,omitempty"`
	To          string            `json:"to"`
	Subject     string            `json:"subject"`
	TextBody    string            `json:"text_body"`
	Attachments []emailAttachment `json:"attachments,omitempty"`
}

// Send delivers an e-mail with its PDF attachment
func (c *EmailServiceClient) Send(ctx context.Context, msg appbilling.EmailMessage) error {
	payload := emailRequest{
		From:     c.fromAddress,
		FromName: msg.FromName,
		ReplyTo:  msg.ReplyTo,
		To:       msg.To,
		Subject:  msg.Subject,
		TextBody: msg.Body,
	}
	if len(msg.Attachment) > 0 {
		payload.Attachments = []emailAttachment{{
			Filename:    msg.AttachmentName,
			ContentType: "application/pdf",
			Content:     msg.Attachment,
		}}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("email: failed to encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("email: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("email: send request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return fmt.Errorf("email: service returned HTTP %d: %s", resp.StatusCode, string(detail))
	}

	return nil
}

// Ensure EmailServiceClient implements EmailSender
var _ appbilling.EmailSender = (*EmailServiceClient)(nil)
