package genmeta

import (
	"testing"

	"github.com/shirk33y/lv/internal/pngtext"
)

func TestParseComfyUI_ExtractsPromptAndModel(t *testing.T) {
	raw := `{"3":{"inputs":{"seed":123,"steps":9,"cfg":1.0,"sampler_name":"euler","model":["16",0],"positive":["6",0],"negative":["7",0],"latent_image":["13",0]},"class_type":"KSampler","_meta":{"title":"KSampler"}},"6":{"inputs":{"text":"a cute cat","clip":["18",0]},"class_type":"CLIPTextEncode","_meta":{"title":"CLIP Text Encode (Positive Prompt)"}},"7":{"inputs":{"text":"ugly","clip":["18",0]},"class_type":"CLIPTextEncode","_meta":{"title":"CLIP Text Encode (Negative Prompt)"}},"16":{"inputs":{"unet_name":"model.safetensors"},"class_type":"UNETLoader","_meta":{"title":"Load Diffusion Model"}}}`

	r, ok := parseComfyUI(raw)
	if !ok {
		t.Fatal("parseComfyUI returned ok=false")
	}
	if r.Prompt != "a cute cat" {
		t.Errorf("Prompt = %q, want %q", r.Prompt, "a cute cat")
	}
	if r.Model != "model.safetensors" {
		t.Errorf("Model = %q, want %q", r.Model, "model.safetensors")
	}
}

func TestParseComfyUI_EmptyReturnsNotOK(t *testing.T) {
	if _, ok := parseComfyUI(`{"1":{"inputs":{},"class_type":"Unrelated","_meta":{"title":""}}}`); ok {
		t.Error("expected not-ok for a graph with no prompt or model node")
	}
}

func TestParseA1111_ExtractsPromptAndModel(t *testing.T) {
	params := "a beautiful landscape\nNegative prompt: ugly\nSteps: 20, Sampler: Euler a, CFG scale: 7, Seed: 42, Model: sd_xl_base"
	r := parseA1111(params)
	if r.Prompt != "a beautiful landscape" {
		t.Errorf("Prompt = %q", r.Prompt)
	}
	if r.Model != "sd_xl_base" {
		t.Errorf("Model = %q", r.Model)
	}
}

func TestParseA1111_ModelOnLaterLine(t *testing.T) {
	// The break line has no Model:, but a subsequent comma-separated line does.
	params := "a portrait\nNegative prompt: blurry\nSteps: 20, Sampler: Euler a\nModel: some_checkpoint, Hash: abc123"
	r := parseA1111(params)
	if r.Model != "some_checkpoint" {
		t.Errorf("Model = %q, want some_checkpoint", r.Model)
	}
}

func TestParseA1111_LastWriteWinsAcrossLines(t *testing.T) {
	params := "prompt text\nSteps: 1, Model: first\nModel: second, Extra: x"
	r := parseA1111(params)
	if r.Model != "second" {
		t.Errorf("Model = %q, want second (last write wins)", r.Model)
	}
}

func TestExtract_PrefersComfyUIOverA1111(t *testing.T) {
	chunks := []pngtext.TextChunk{
		{Key: "prompt", Value: `{"6":{"inputs":{"text":"from comfy"},"class_type":"CLIPTextEncode","_meta":{"title":"Positive"}}}`},
		{Key: "parameters", Value: "from a1111"},
	}
	r, err := Extract(chunks)
	if err != nil {
		t.Fatal(err)
	}
	if r.Prompt != "from comfy" {
		t.Errorf("Prompt = %q, want ComfyUI result to win", r.Prompt)
	}
}

func TestExtract_FallsBackToA1111(t *testing.T) {
	chunks := []pngtext.TextChunk{
		{Key: "parameters", Value: "a lone prompt\nSteps: 1, Model: m1"},
	}
	r, err := Extract(chunks)
	if err != nil {
		t.Fatal(err)
	}
	if r.Prompt != "a lone prompt" || r.Model != "m1" {
		t.Errorf("r = %+v", r)
	}
}

func TestExtract_NoMetadataFound(t *testing.T) {
	_, err := Extract([]pngtext.TextChunk{{Key: "Comment", Value: "unrelated"}})
	if err != ErrNoMetadata {
		t.Errorf("err = %v, want ErrNoMetadata", err)
	}
}

func TestCombined_FormatsPromptAndModel(t *testing.T) {
	r := Result{Prompt: "a cat", Model: "m.safetensors"}
	if got := r.Combined(); got != "a cat\n\nModel: m.safetensors" {
		t.Errorf("Combined() = %q", got)
	}
}

func TestCombined_PromptOnly(t *testing.T) {
	r := Result{Prompt: "a cat"}
	if got := r.Combined(); got != "a cat" {
		t.Errorf("Combined() = %q", got)
	}
}
