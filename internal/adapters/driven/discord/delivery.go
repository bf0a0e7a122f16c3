// Package discord delivers answers back to the chat platform and
// registers the slash command.
//
// Deferred interactions are completed by editing the original response
// through the interaction webhook; that endpoint is authorised by the
// interaction token alone, so no bot token is needed on the hot path.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/campuswatch/watcher/internal/core/ports/driven"
)

// Ensure DeliveryService implements the interface.
var _ driven.DeliveryService = (*DeliveryService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://discord.com/api/v10"
	DefaultTimeout = 15 * time.Second
)

// Config holds configuration for the delivery service.
type Config struct {
	// BaseURL is the platform API root (default: https://discord.com/api/v10).
	BaseURL string

	// BotToken authorises command registration. Not needed for
	// delivering answers.
	BotToken string

	// Timeout is the per-request timeout (default: 15s).
	Timeout time.Duration
}

// DeliveryService performs outbound platform calls.
type DeliveryService struct {
	client   *http.Client
	baseURL  string
	botToken string
}

// NewDeliveryService creates a delivery service.
func NewDeliveryService(cfg Config) *DeliveryService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &DeliveryService{
		client:   &http.Client{Timeout: cfg.Timeout},
		baseURL:  cfg.BaseURL,
		botToken: cfg.BotToken,
	}
}

// editPayload is the follow-up message body.
type editPayload struct {
	Content string `json:"content"`
}

// EditOriginal replaces the deferred "thinking" placeholder with the
// final answer.
func (s *DeliveryService) EditOriginal(ctx context.Context, applicationID, token, content string) error {
	url := fmt.Sprintf("%s/webhooks/%s/%s/messages/@original", s.baseURL, applicationID, token)

	jsonBody, err := json.Marshal(editPayload{Content: content})
	if err != nil {
		return fmt.Errorf("marshal edit payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create edit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("edit original: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("edit original (status %d): %s", resp.StatusCode, string(body))
	}
	return nil
}

// commandPayload is the command registration body.
type commandPayload struct {
	Name        string          `json:"name"`
	Type        int             `json:"type"`
	Description string          `json:"description"`
	Options     []commandOption `json:"options"`
}

type commandOption struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        int    `json:"type"`
	Required    bool   `json:"required"`
}

// RegisterCommand registers the slash command globally for the
// application. Registration is idempotent on the platform side; the
// command is replaced when it already exists.
func (s *DeliveryService) RegisterCommand(ctx context.Context, applicationID string, cmd driven.Command) error {
	if s.botToken == "" {
		return fmt.Errorf("discord: bot token is required to register commands")
	}

	url := fmt.Sprintf("%s/applications/%s/commands", s.baseURL, applicationID)

	payload := commandPayload{
		Name:        cmd.Name,
		Type:        1, // chat input
		Description: cmd.Description,
		Options: []commandOption{
			{
				Name:        cmd.OptionName,
				Description: cmd.OptionDescription,
				Type:        3, // string
				Required:    true,
			},
		},
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal command payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create register request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bot "+s.botToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("register command: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("register command (status %d): %s", resp.StatusCode, string(body))
	}
	return nil
}
