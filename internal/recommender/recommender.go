package recommender

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"outfit-planner/internal/llm"
	"outfit-planner/internal/outfit"
	"outfit-planner/internal/wardrobe"
)

//go:embed stylist_prompt.md
var stylistPrompt string

var promptTemplate = template.Must(template.New("Stylist").Parse(stylistPrompt))

const agentName = "Stylist"

// ErrEmptyWardrobe is returned when there is nothing to choose from.
var ErrEmptyWardrobe = errors.New("no clothing items found in your wardrobe")

// Request is everything the stylist needs to plan a week.
type Request struct {
	Wardrobe []wardrobe.Garment
	// AverageTemperature is nil when no city was given.
	AverageTemperature *float64
	PreviousPlan       *outfit.PreviousPlan
	Today              outfit.Date
}

// Result is the generated plan plus execution metadata.
type Result struct {
	Plan []outfit.DayPlan
	Meta llm.AgentMeta
}

// Recommender turns a wardrobe into a weekly outfit plan with an LLM.
type Recommender struct {
	textGen llm.TextGenerator
}

// NewRecommender creates a new Recommender.
func NewRecommender(textGen llm.TextGenerator) *Recommender {
	return &Recommender{textGen: textGen}
}

type modelPlan struct {
	Plan []struct {
		Date string `json:"date"`
		Top  *struct {
			ID int64 `json:"id"`
		} `json:"top"`
		Bottom *struct {
			ID int64 `json:"id"`
		} `json:"bottom"`
	} `json:"plan"`
}

// Recommend asks the model for a plan and resolves its garment ids against
// the wardrobe. Ids the user does not own come back as absent garments.
// Day i of the result is dated Today+i regardless of what the model returned.
func (r *Recommender) Recommend(ctx context.Context, req Request) (Result, error) {
	if len(req.Wardrobe) == 0 {
		return Result{}, ErrEmptyWardrobe
	}

	start := time.Now()
	prompt, err := buildPrompt(req)
	if err != nil {
		return Result{}, err
	}

	resp, err := r.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return Result{}, fmt.Errorf("failed to generate outfit plan: %w", err)
	}
	meta := llm.AgentMeta{
		AgentName: agentName,
		Usage:     resp.Usage,
		Latency:   time.Since(start),
	}

	var parsed modelPlan
	if err := json.Unmarshal([]byte(stripFences(resp.Content)), &parsed); err != nil {
		return Result{Meta: meta}, fmt.Errorf("failed to parse outfit plan %w: %s", err, resp.Content)
	}

	byID := make(map[int64]wardrobe.Garment, len(req.Wardrobe))
	for _, g := range req.Wardrobe {
		byID[g.ID] = g
	}
	resolve := func(id int64) *outfit.GarmentRef {
		g, ok := byID[id]
		if !ok {
			return nil
		}
		return garmentRef(g)
	}

	days := parsed.Plan
	if len(days) > outfit.WeekLength {
		days = days[:outfit.WeekLength]
	}

	plan := make([]outfit.DayPlan, 0, len(days))
	for i, d := range days {
		day := outfit.DayPlan{Date: req.Today.AddDays(i)}
		if d.Top != nil {
			day.Top = resolve(d.Top.ID)
		}
		if d.Bottom != nil {
			day.Bottom = resolve(d.Bottom.ID)
		}
		plan = append(plan, day)
	}

	return Result{Plan: plan, Meta: meta}, nil
}

func garmentRef(g wardrobe.Garment) *outfit.GarmentRef {
	return &outfit.GarmentRef{
		ID:          g.ID,
		ImageURL:    g.ImageURL,
		ItemType:    g.ItemType,
		Color:       g.Color,
		IsAvailable: g.IsAvailable,
	}
}

type promptData struct {
	Wardrobe       []wardrobe.Garment
	HasTemperature bool
	Temperature    string
	PreviousPlan   string
	Today          outfit.Date
}

func buildPrompt(req Request) (string, error) {
	data := promptData{
		Wardrobe: req.Wardrobe,
		Today:    req.Today,
	}
	if req.AverageTemperature != nil {
		data.HasTemperature = true
		data.Temperature = fmt.Sprintf("%.1f", *req.AverageTemperature)
	}
	if req.PreviousPlan != nil && len(req.PreviousPlan.Plan) > 0 {
		prev, err := json.Marshal(req.PreviousPlan)
		if err != nil {
			return "", fmt.Errorf("failed to encode previous plan: %w", err)
		}
		data.PreviousPlan = string(prev)
	}

	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render stylist prompt: %w", err)
	}
	return buf.String(), nil
}

// stripFences removes a markdown code fence some models wrap JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
