package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shinyyama/carbon-credit-backend/internal/co2ctx"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const defaultModel = "gemini-2.5-flash"

// TreeCO2Client asks Gemini for a yearly sequestration estimate. The API key
// comes from GEMINI_API_KEY / GOOGLE_API_KEY as read by genai.
type TreeCO2Client struct {
	model  string
	logger *zap.Logger
}

func NewTreeCO2Client(model string, logger *zap.Logger) *TreeCO2Client {
	if model == "" {
		model = defaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TreeCO2Client{model: model, logger: logger}
}

// Estimate returns kgCO2e for the farm described by cropType, area and trees.
func (c *TreeCO2Client) Estimate(ctx context.Context, cropType, area, trees string) (float64, error) {
	log := c.logger.With(
		zap.String("rid", co2ctx.RID(ctx)),
		zap.String("submission", co2ctx.SubmissionID(ctx)),
		zap.String("model", c.model))
	start := time.Now()

	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		log.Warn("co2 client init failed", zap.Error(err))
		return 0, err
	}

	prompt := BuildCO2Prompt(FarmInput{CropType: cropType, Area: area, Trees: trees})
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}
	temp := float32(0)
	config := &genai.GenerateContentConfig{Temperature: &temp}

	log.Debug("co2 gemini start")
	res, err := client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		log.Warn("co2 gemini failed", zap.Error(err))
		return 0, fmt.Errorf("gemini generate: %w", err)
	}
	genMs := time.Since(start).Milliseconds()

	raw := res.Text()
	val, err := ParseKgCO2(raw)
	if err != nil {
		text := strings.ReplaceAll(raw, "\n", " ")
		if len(text) > 80 {
			text = text[:80]
		}
		log.Warn("co2 parse failed", zap.String("text", text), zap.Error(err))
		return 0, err
	}
	log.Info("co2 estimated",
		zap.Float64("kg", val),
		zap.Int64("gen_ms", genMs),
		zap.Int64("total_ms", time.Since(start).Milliseconds()))
	return val, nil
}
