package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/yungbote/sheetgrader-backend/internal/logger"
	"github.com/yungbote/sheetgrader-backend/internal/types"
)

var (
	// ErrKeyParse marks a failure of the answer-key parsing stage.
	ErrKeyParse = errors.New("answer key parsing failed")
	// ErrGrading marks a failure of the grading stage.
	ErrGrading = errors.New("grading failed")
)

// GradedItem is the grading model's verdict for one question before
// normalization. Mark is the "received/total" pair as reported.
type GradedItem struct {
	Question   int    `json:"question"`
	Mark       string `json:"mark"`
	Reason     string `json:"reason"`
	HasDiagram bool   `json:"has_diagram"`
}

// GradingService parses answer keys into structured form and grades
// transcribed answers against them.
type GradingService interface {
	ParseKey(ctx context.Context, keyURL string) ([]types.AnswerKeyItem, error)
	Grade(ctx context.Context, answers []types.TranscribedItem, key []types.AnswerKeyItem) ([]types.FeedbackItem, error)
}

type gradingService struct {
	log         *logger.Logger
	ai          OpenAIClient
	transcriber TranscriptionService
}

func NewGradingService(log *logger.Logger, ai OpenAIClient, transcriber TranscriptionService) GradingService {
	serviceLog := log.With("service", "GradingService")
	return &gradingService{log: serviceLog, ai: ai, transcriber: transcriber}
}

var answerKeySchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"items": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"question": map[string]any{"type": "integer"},
					"answer":   map[string]any{"type": "string"},
				},
				"required":             []string{"question", "answer"},
				"additionalProperties": false,
			},
		},
	},
	"required":             []string{"items"},
	"additionalProperties": false,
}

func (gs *gradingService) ParseKey(ctx context.Context, keyURL string) ([]types.AnswerKeyItem, error) {
	keyText, err := gs.transcriber.ExtractText(ctx, keyURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyParse, err)
	}
	if strings.TrimSpace(keyText) == "" {
		return nil, fmt.Errorf("%w: key document contained no text", ErrKeyParse)
	}

	system := "You convert a teacher's answer key document into structured data. " +
		"Extract every question number and its correct answer exactly as written. " +
		"Keep the question order of the document."
	out, err := gs.ai.GenerateJSON(ctx, system, keyText, "answer_key", answerKeySchema)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyParse, err)
	}

	var parsed struct {
		Items []types.AnswerKeyItem `json:"items"`
	}
	if err := roundTrip(out, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyParse, err)
	}
	if len(parsed.Items) == 0 {
		return nil, fmt.Errorf("%w: no questions recognized in key", ErrKeyParse)
	}
	sort.SliceStable(parsed.Items, func(i, j int) bool { return parsed.Items[i].Question < parsed.Items[j].Question })
	return parsed.Items, nil
}

var gradingSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"results": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"question":    map[string]any{"type": "integer"},
					"mark":        map[string]any{"type": "string", "description": "received/total, e.g. 2/3"},
					"reason":      map[string]any{"type": "string"},
					"has_diagram": map[string]any{"type": "boolean"},
				},
				"required":             []string{"question", "mark", "reason", "has_diagram"},
				"additionalProperties": false,
			},
		},
	},
	"required":             []string{"results"},
	"additionalProperties": false,
}

func (gs *gradingService) Grade(ctx context.Context, answers []types.TranscribedItem, key []types.AnswerKeyItem) ([]types.FeedbackItem, error) {
	if len(answers) == 0 {
		return nil, fmt.Errorf("%w: no transcribed answers to grade", ErrGrading)
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: empty answer key", ErrGrading)
	}

	payload := struct {
		Answers []types.TranscribedItem `json:"answers"`
		Key     []types.AnswerKeyItem   `json:"key"`
	}{Answers: answers, Key: key}
	user, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGrading, err)
	}

	system := "You grade student answers against an answer key. " +
		"For every question in the key produce a mark as \"received/total\", " +
		"a short reason, and whether the question needs a diagram you cannot " +
		"assess. Award partial marks where the answer is partially correct. " +
		"Keep question order."
	out, err := gs.ai.GenerateJSON(ctx, system, string(user), "grading_result", gradingSchema)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGrading, err)
	}

	var parsed struct {
		Results []GradedItem `json:"results"`
	}
	if err := roundTrip(out, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGrading, err)
	}
	if len(parsed.Results) == 0 {
		return nil, fmt.Errorf("%w: grader returned no results", ErrGrading)
	}

	feedback, err := NormalizeFeedback(parsed.Results)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGrading, err)
	}
	return feedback, nil
}

// roundTrip re-marshals a generic JSON map into a typed struct.
func roundTrip(in map[string]any, out any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// ParseMark splits a "received/total" pair. Totals must be positive and
// received may not exceed total.
func ParseMark(mark string) (float64, float64, error) {
	parts := strings.SplitN(strings.TrimSpace(mark), "/", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed mark %q", mark)
	}
	received, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed mark %q", mark)
	}
	total, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed mark %q", mark)
	}
	if total <= 0 || received < 0 || received > total {
		return 0, 0, fmt.Errorf("mark out of range %q", mark)
	}
	return received, total, nil
}

// NormalizeFeedback converts raw graded items into persistable feedback
// entries, rejecting any malformed mark.
func NormalizeFeedback(results []GradedItem) ([]types.FeedbackItem, error) {
	out := make([]types.FeedbackItem, 0, len(results))
	for _, r := range results {
		received, total, err := ParseMark(r.Mark)
		if err != nil {
			return nil, fmt.Errorf("question %d: %v", r.Question, err)
		}
		out = append(out, types.FeedbackItem{
			Question:   r.Question,
			Received:   received,
			Total:      total,
			Reason:     r.Reason,
			HasDiagram: r.HasDiagram,
		})
	}
	return out, nil
}

// ComputeAggregate sums per-item marks. The aggregate is always derived from
// the current items, never patched from a previous aggregate.
func ComputeAggregate(items []types.FeedbackItem) (total, max, percentage float64) {
	for _, item := range items {
		total += item.Received
		max += item.Total
	}
	if max > 0 {
		percentage = RoundPercent(total / max * 100)
	}
	return total, max, percentage
}

// RoundPercent rounds half-up to two decimals.
func RoundPercent(p float64) float64 {
	return math.Round(p*100) / 100
}
