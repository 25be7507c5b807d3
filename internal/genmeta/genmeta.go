// Package genmeta extracts AI-generation metadata (prompt + model name)
// from the tEXt/iTXt chunks of PNG files produced by ComfyUI or
// Automatic1111, grounded on original_source/src-imgui/src/aimeta.rs.
package genmeta

import (
	"encoding/json"
	"errors"
	"os"
	"strings"

	"github.com/shirk33y/lv/internal/pngtext"
)

// Result is the extracted prompt/model pair. Both fields may be empty
// when extraction partially succeeds.
type Result struct {
	Prompt string
	Model  string
}

// ErrNoMetadata is returned when neither a ComfyUI "prompt" JSON chunk nor
// an A1111 "parameters" chunk was found.
var ErrNoMetadata = errors.New("genmeta: no AI metadata found")

// Combined renders r the way content_meta.generator_info stores it: the
// prompt, a blank line, then "Model: <name>" when a model was found.
func (r Result) Combined() string {
	if r.Model == "" {
		return r.Prompt
	}
	if r.Prompt == "" {
		return "Model: " + r.Model
	}
	return r.Prompt + "\n\nModel: " + r.Model
}

// ExtractFile opens path and extracts AI generation metadata from its PNG
// text chunks.
func ExtractFile(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer f.Close()

	chunks, err := pngtext.ReadTextChunks(f)
	if err != nil {
		return Result{}, err
	}
	return Extract(chunks)
}

// Extract tries the ComfyUI JSON format first, then the A1111 text format.
func Extract(chunks []pngtext.TextChunk) (Result, error) {
	for _, c := range chunks {
		if c.Key == "prompt" && strings.HasPrefix(strings.TrimSpace(c.Value), "{") {
			if r, ok := parseComfyUI(c.Value); ok {
				return r, nil
			}
		}
	}
	for _, c := range chunks {
		if c.Key == "parameters" {
			return parseA1111(c.Value), nil
		}
	}
	return Result{}, ErrNoMetadata
}

type comfyNode struct {
	ClassType string                     `json:"class_type"`
	Inputs    map[string]json.RawMessage `json:"inputs"`
	Meta      struct {
		Title string `json:"title"`
	} `json:"_meta"`
}

func parseComfyUI(raw string) (Result, bool) {
	var nodes map[string]comfyNode
	if err := json.Unmarshal([]byte(raw), &nodes); err != nil {
		return Result{}, false
	}

	var prompt, model string
	for _, node := range nodes {
		switch node.ClassType {
		case "CLIPTextEncode":
			text, ok := stringField(node.Inputs, "text")
			if !ok {
				continue
			}
			titleLower := strings.ToLower(node.Meta.Title)
			isNeg := strings.Contains(titleLower, "negative")
			if !isNeg && (prompt == "" || strings.Contains(titleLower, "positive")) {
				prompt = text
			}
		case "UNETLoader", "CheckpointLoaderSimple", "CheckpointLoader":
			if name, ok := stringField(node.Inputs, "unet_name"); ok {
				model = name
			} else if name, ok := stringField(node.Inputs, "ckpt_name"); ok {
				model = name
			}
		}
	}

	if prompt == "" && model == "" {
		return Result{}, false
	}
	return Result{Prompt: prompt, Model: model}, true
}

func stringField(inputs map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := inputs[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// parseA1111 follows aimeta.rs::parse_a1111 exactly: the prompt is every
// line up to the first line that looks like "Negative prompt:" or a
// comma-and-colon metadata line; Model: is recognized on that break line
// and on any later comma-separated line, last write wins.
func parseA1111(params string) Result {
	lines := strings.Split(params, "\n")
	var model string
	var promptLines []string

	i := 0
	for ; i < len(lines); i++ {
		line := lines[i]
		if strings.HasPrefix(line, "Negative prompt:") || (strings.Contains(line, ": ") && strings.Contains(line, ", ")) {
			if strings.Contains(line, "Model:") || strings.Contains(line, "Steps:") {
				if m, ok := extractModel(line); ok {
					model = m
				}
			}
			i++
			break
		}
		promptLines = append(promptLines, line)
	}
	prompt := strings.Join(promptLines, "\n")

	for ; i < len(lines); i++ {
		line := lines[i]
		if strings.Contains(line, "Model:") || strings.Contains(line, "Steps:") {
			if m, ok := extractModel(line); ok {
				model = m
			}
		}
	}

	return Result{Prompt: prompt, Model: model}
}

func extractModel(line string) (string, bool) {
	var model string
	found := false
	for _, pair := range strings.Split(line, ", ") {
		k, v, ok := strings.Cut(pair, ": ")
		if ok && k == "Model" {
			model = v
			found = true
		}
	}
	return model, found
}
