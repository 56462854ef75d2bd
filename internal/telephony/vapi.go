package telephony

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"voice-campaign-platform/internal/config"
)

// VapiProvider places calls through the Vapi HTTP API and reads call state
// back from its status endpoint.
type VapiProvider struct {
	apiKey        string
	phoneNumberID string
	baseURL       string

	http *http.Client
}

func NewVapiProvider(cfg config.VapiConfig) *VapiProvider {
	return &VapiProvider{
		apiKey:        cfg.APIKey,
		phoneNumberID: cfg.PhoneNumberID,
		baseURL:       cfg.BaseURL,
		http:          &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *VapiProvider) Name() string { return "vapi" }

// Assistant behavior is fixed: speak the first message and hang up. The
// voice is a multilingual one so a single assistant covers every roster
// language.
const (
	assistantName    = "ReminderBot"
	assistantVoiceID = "zh-CN-XiaoxiaoMultilingualNeural"
	assistantPrompt  = "You are an automated reminder bot. Your only task is to deliver the firstMessage and immediately end the call. Do NOT wait for user response. Do NOT engage in conversation. As soon as you finish speaking the firstMessage, immediately call the endCall function."

	silenceTimeoutSeconds = 30
)

type vapiAssistant struct {
	Name  string    `json:"name"`
	Voice vapiVoice `json:"voice"`
	Model vapiModel `json:"model"`
}

type vapiVoice struct {
	Provider string `json:"provider"`
	VoiceID  string `json:"voiceId"`
}

type vapiModel struct {
	Provider string            `json:"provider"`
	Model    string            `json:"model"`
	Messages []vapiChatMessage `json:"messages"`
	Tools    []vapiTool        `json:"tools"`
}

type vapiChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type vapiTool struct {
	Type string `json:"type"`
}

type vapiCallPayload struct {
	PhoneNumberID string        `json:"phoneNumberId"`
	Customer      vapiCustomer  `json:"customer"`
	Assistant     vapiAssistant `json:"assistant"`

	ServerURL       string `json:"serverUrl"`
	ServerURLSecret string `json:"serverUrlSecret"`

	FirstMessage          string   `json:"firstMessage"`
	SilenceTimeoutSeconds int      `json:"silenceTimeoutSeconds"`
	EndCallMessage        string   `json:"endCallMessage"`
	EndCallPhrases        []string `json:"endCallPhrases"`
}

type vapiCustomer struct {
	Number string `json:"number"`
}

type vapiCallResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

func (p *VapiProvider) PlaceCall(ctx context.Context, req PlaceCallRequest) (PlaceCallResult, error) {
	payload := vapiCallPayload{
		PhoneNumberID: p.phoneNumberID,
		Customer:      vapiCustomer{Number: req.CustomerNumber},
		Assistant: vapiAssistant{
			Name:  assistantName,
			Voice: vapiVoice{Provider: "azure", VoiceID: assistantVoiceID},
			Model: vapiModel{
				Provider: "openai",
				Model:    "gpt-4o",
				Messages: []vapiChatMessage{{Role: "system", Content: assistantPrompt}},
				Tools:    []vapiTool{{Type: "endCall"}},
			},
		},
		ServerURL:             req.WebhookURL,
		ServerURLSecret:       req.WebhookSecret,
		FirstMessage:          req.FirstMessage,
		SilenceTimeoutSeconds: silenceTimeoutSeconds,
		EndCallMessage:        " ",
		EndCallPhrases:        []string{},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return PlaceCallResult{}, fmt.Errorf("telephony: encode call payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/call", bytes.NewReader(body))
	if err != nil {
		return PlaceCallResult{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(httpReq)
	if err != nil {
		return PlaceCallResult{}, fmt.Errorf("telephony: place call: %w", err)
	}
	defer resp.Body.Close()

	var out vapiCallResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	_ = json.Unmarshal(raw, &out)

	if resp.StatusCode != http.StatusCreated {
		msg := out.Message
		if msg == "" {
			msg = string(raw)
		}
		return PlaceCallResult{HTTPStatus: resp.StatusCode},
			fmt.Errorf("%w: http %d: %s", ErrPlacementRejected, resp.StatusCode, msg)
	}
	if out.ID == "" {
		return PlaceCallResult{HTTPStatus: resp.StatusCode},
			fmt.Errorf("%w: created response without call id", ErrPlacementRejected)
	}
	return PlaceCallResult{CallID: out.ID, HTTPStatus: resp.StatusCode}, nil
}

type vapiStatusResponse struct {
	Status          string  `json:"status"`
	EndedReason     string  `json:"endedReason"`
	DurationSeconds int     `json:"durationSeconds"`
	Cost            float64 `json:"cost"`
	StartedAt       string  `json:"startedAt"`
	EndedAt         string  `json:"endedAt"`
}

func (p *VapiProvider) CallStatus(ctx context.Context, callID string) (CallStatusResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/call/"+callID, nil)
	if err != nil {
		return CallStatusResult{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.http.Do(httpReq)
	if err != nil {
		return CallStatusResult{}, fmt.Errorf("%w: %v", ErrStatusUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return CallStatusResult{}, fmt.Errorf("%w: http %d", ErrStatusUnavailable, resp.StatusCode)
	}

	var out vapiStatusResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return CallStatusResult{}, fmt.Errorf("%w: decode: %v", ErrStatusUnavailable, err)
	}
	return CallStatusResult{
		Status:          out.Status,
		EndedReason:     out.EndedReason,
		DurationSeconds: out.DurationSeconds,
		Cost:            out.Cost,
		StartedAt:       out.StartedAt,
		EndedAt:         out.EndedAt,
	}, nil
}
