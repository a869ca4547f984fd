package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-sonnet-4-5-20250929"

// maxAuditPerRun caps how many archived mentions one audit pass will send out.
const maxAuditPerRun = 200

const toneAuditSystemPrompt = `You classify the tone of media-mention records about a company. ` +
	`Tone text is free-form Indonesian or English. For each item decide whether the mention is ` +
	`Positive, Neutral, or Negative toward the company, using the tone text first and the headline ` +
	`as context. Respond with ONLY a JSON array, one object per item: ` +
	`[{"id": <id>, "label": "Positive|Neutral|Negative", "confidence": <0.0-1.0>}]`

type toneAuditRequestItem struct {
	ID       int64  `json:"id"`
	ToneText string `json:"tone_text"`
	Headline string `json:"headline"`
}

type toneAuditDecision struct {
	ID         int64   `json:"id"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// RunToneAudit asks the LLM for a second opinion on archived mentions whose
// tone text matched no vocabulary word. Decisions are advisory: they are
// stored in tone_audits and never overwrite the keyword label the aggregates
// use. Only decisions at or above the configured confidence are kept.
func RunToneAudit(ctx context.Context, cfg Config, db *sql.DB) error {
	candidates, err := GetToneAuditCandidates(db, maxAuditPerRun)
	if err != nil {
		return fmt.Errorf("loading audit candidates: %w", err)
	}
	if len(candidates) == 0 {
		return nil
	}

	model := cfg.LLMModel
	if model == "" {
		model = defaultAnthropicModel
	}

	batchSize := cfg.LLMBatchSize
	if batchSize < 1 {
		batchSize = 25
	}

	stored := 0
	for start := 0; start < len(candidates); start += batchSize {
		end := start + batchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		batch := candidates[start:end]

		items := make([]toneAuditRequestItem, 0, len(batch))
		for _, m := range batch {
			items = append(items, toneAuditRequestItem{ID: m.ID, ToneText: m.ToneRaw, Headline: m.Headline})
		}
		payload, err := json.Marshal(items)
		if err != nil {
			return fmt.Errorf("encoding audit batch: %w", err)
		}

		log.Printf("tone-audit model=%s items=%d", model, len(batch))
		responseText, err := callAnthropic(ctx, cfg.LLMAPIKey, model, toneAuditSystemPrompt, string(payload))
		if err != nil {
			return err
		}

		decisions, err := parseToneAuditResponse(responseText)
		if err != nil {
			return err
		}
		stored += storeToneAudits(db, decisions, cfg.LLMConfidence, model)
	}

	log.Printf("tone-audit complete candidates=%d stored=%d", len(candidates), stored)
	return nil
}

// storeToneAudits persists decisions at or above the confidence threshold and
// returns how many were stored. Insert errors skip the decision.
func storeToneAudits(db *sql.DB, decisions []toneAuditDecision, threshold float64, model string) int {
	stored := 0
	for _, d := range decisions {
		if d.Confidence < threshold {
			continue
		}
		if err := InsertToneAudit(db, ToneAudit{
			MentionID:  d.ID,
			Label:      d.Label,
			Confidence: d.Confidence,
			Model:      model,
		}); err != nil {
			log.Printf("Error storing tone audit for mention %d: %v", d.ID, err)
			continue
		}
		stored++
	}
	return stored
}

// parseToneAuditResponse extracts the JSON array from the model's reply and
// drops decisions with an unknown label or out-of-range confidence.
func parseToneAuditResponse(text string) ([]toneAuditDecision, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in tone audit response")
	}

	var raw []toneAuditDecision
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("parsing tone audit response: %w", err)
	}

	out := raw[:0]
	for _, d := range raw {
		switch d.Label {
		case TonePositive, ToneNeutral, ToneNegative:
		default:
			log.Printf("tone-audit skipped id=%d unknown label %q", d.ID, d.Label)
			continue
		}
		if d.Confidence < 0 || d.Confidence > 1 {
			log.Printf("tone-audit skipped id=%d confidence out of range %f", d.ID, d.Confidence)
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func callAnthropic(ctx context.Context, apiKey, model, systemPrompt, userPrompt string) (string, error) {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	message, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: 4096,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		log.Printf("llm anthropic error: %v", err)
		return "", fmt.Errorf("Anthropic API error: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			log.Printf("llm anthropic response size=%d tokens_in=%d tokens_out=%d",
				len(block.Text), message.Usage.InputTokens, message.Usage.OutputTokens)
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in Anthropic response")
}
