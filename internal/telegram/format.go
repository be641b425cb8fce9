package telegram

import (
	"fmt"
	"strings"

	"outfit-planner/internal/metrics"
	"outfit-planner/internal/outfit"
	"outfit-planner/internal/planner"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func formatWeekMarkdown(view planner.View) string {
	var sb strings.Builder
	sb.WriteString("👕 *Your Week*\n\n")

	if view.Generating {
		sb.WriteString("⏳ _Generating outfits..._\n\n")
	}

	for _, day := range view.Window {
		fmt.Fprintf(&sb, "*%s*\n", day.Date.Label())
		fmt.Fprintf(&sb, "  Top: %s\n", garmentText(day.Top, view.Generating))
		fmt.Fprintf(&sb, "  Bottom: %s\n\n", garmentText(day.Bottom, view.Generating))
	}

	if view.PastWeek {
		sb.WriteString("_Some of these days are already behind you._\n")
	}
	return sb.String()
}

func garmentText(ref *outfit.GarmentRef, generating bool) string {
	switch {
	case ref != nil:
		return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, ref.Describe())
	case generating:
		return "…"
	default:
		return "—"
	}
}

func weekKeyboard(view planner.View) *tgbotapi.InlineKeyboardMarkup {
	if view.Generating || len(view.Window) == 0 {
		return nil
	}
	row := tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✨ "+string(view.Label), callbackGenerate),
	)
	if view.CanSave {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("💾 Save", callbackSave))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(row)
	return &kb
}

func formatMetricsMarkdown(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		fmt.Fprintf(&sb, "• *%s*: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution)
	}

	sb.WriteString("\n🧠 *System Health*\n")
	fmt.Fprintf(&sb, "• RAM: %dMB (Heap) / %dMB (Sys)\n", health.HeapMB, health.SysMB)
	fmt.Fprintf(&sb, "• Goroutines: %d, up %s\n", health.Goroutines, health.Uptime)
	for _, d := range health.Storage {
		fmt.Fprintf(&sb, "• Disk %s: %s\n", tgbotapi.EscapeText(tgbotapi.ModeMarkdown, d.Path), d.Size)
	}
	return sb.String()
}
