package main

import (
	"fmt"
	"io"
	"strings"

	"outfit-planner/internal/outfit"
	"outfit-planner/internal/planner"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

type dayDoc struct {
	Date        string `yaml:"date"`
	Label       string `yaml:"label"`
	Top         string `yaml:"top,omitempty"`
	TopImage    string `yaml:"top_image"`
	Bottom      string `yaml:"bottom,omitempty"`
	BottomImage string `yaml:"bottom_image"`
}

type weekDoc struct {
	Today      string   `yaml:"today"`
	Action     string   `yaml:"action"`
	CanSave    bool     `yaml:"can_save"`
	PastWeek   bool     `yaml:"past_week"`
	Generating bool     `yaml:"generating"`
	Days       []dayDoc `yaml:"days"`
}

func toDoc(view planner.View, assetBase string) weekDoc {
	doc := weekDoc{
		Today:      string(view.Today),
		Action:     string(view.Label),
		CanSave:    view.CanSave,
		PastWeek:   view.PastWeek,
		Generating: view.Generating,
	}
	for _, day := range view.Window {
		doc.Days = append(doc.Days, dayDoc{
			Date:        string(day.Date),
			Label:       day.Date.Label(),
			Top:         day.Top.Describe(),
			TopImage:    outfit.ImageSource(day.Top, outfit.SlotTop, assetBase),
			Bottom:      day.Bottom.Describe(),
			BottomImage: outfit.ImageSource(day.Bottom, outfit.SlotBottom, assetBase),
		})
	}
	return doc
}

func printView(w io.Writer, view planner.View, assetBase, format string) error {
	doc := toDoc(view, assetBase)

	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(doc)
	case "text", "":
	default:
		return fmt.Errorf("unknown output format %q", format)
	}

	fmt.Fprintln(w, bold("Outfits for the week of "+doc.Today))
	for _, day := range doc.Days {
		fmt.Fprintf(w, "\n%s\n", bold(day.Label))
		fmt.Fprintf(w, "  Top:    %s %s\n", garment(day.Top), gray(day.TopImage))
		fmt.Fprintf(w, "  Bottom: %s %s\n", garment(day.Bottom), gray(day.BottomImage))
	}

	actions := []string{"[" + doc.Action + "]"}
	if doc.CanSave {
		actions = append(actions, "[Save]")
	}
	fmt.Fprintf(w, "\n%s\n", strings.Join(actions, " "))
	if doc.PastWeek {
		fmt.Fprintln(w, yellow("Some of these days are already in the past."))
	}
	return nil
}

func garment(desc string) string {
	if desc == "" {
		return gray("-")
	}
	return desc
}

func printNotification(w io.Writer, n planner.Notification) {
	if n.Level == planner.LevelError {
		if n.Err != nil {
			fmt.Fprintf(w, "%s %s (%v)\n", red("✘"), n.Message, n.Err)
			return
		}
		fmt.Fprintf(w, "%s %s\n", red("✘"), n.Message)
		return
	}
	fmt.Fprintf(w, "%s %s\n", green("✔"), n.Message)
}
