package generation

import (
	"sort"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"

	"github.com/cheahjs/genstudio/internal/models"
)

func sdxlDescriptor() models.Descriptor {
	return models.Descriptor{
		Key:      "sdxl",
		Upstream: "stability-ai/sdxl:abc",
		Defaults: map[string]any{
			"width":               1024,
			"height":              1024,
			"num_outputs":         1,
			"num_inference_steps": 30,
			"guidance_scale":      7.5,
			"refiner":             nil,
		},
		Params: map[string]string{
			"steps":    "num_inference_steps",
			"guidance": "guidance_scale",
		},
	}
}

func ptr[T any](v T) *T {
	return &v
}

func TestCompact(t *testing.T) {
	var nilPtr *int
	var nilMap map[string]any
	var nilSlice []string
	in := map[string]any{
		"keep":      "x",
		"zero":      0,
		"empty":     "",
		"false":     false,
		"nil":       nil,
		"nil_ptr":   nilPtr,
		"nil_map":   nilMap,
		"nil_slice": nilSlice,
		"ptr":       ptr(3),
	}
	out := Compact(in)

	assert.Equal(t, []string{"empty", "false", "keep", "ptr", "zero"}, sortedKeys(out))
	assert.Len(t, in, 9, "input must not be modified")
}

func TestMergeLaterWinsPerField(t *testing.T) {
	base := map[string]any{"a": 1, "b": 2, "c": 3}
	out := Merge(base,
		map[string]any{"a": 10, "b": nil},
		map[string]any{"a": 100, "d": 4},
	)
	assert.Equal(t, map[string]any{"a": 100, "b": 2, "c": 3, "d": 4}, out)
	assert.Equal(t, map[string]any{"a": 1, "b": 2, "c": 3}, base)
}

func TestMergeIdempotent(t *testing.T) {
	base := map[string]any{"width": 1024, "height": 1024}
	override := map[string]any{"width": 512, "seed": nil}

	once := Merge(base, override)
	twice := Merge(Merge(base, override), override)
	assert.Equal(t, once, twice)
}

func TestBuildInputDefaultsOnly(t *testing.T) {
	input := BuildInput(sdxlDescriptor(), Request{Prompt: "a cat", Model: "sdxl"})

	assert.Equal(t, map[string]any{
		"prompt":              "a cat",
		"width":               1024,
		"height":              1024,
		"num_outputs":         1,
		"num_inference_steps": 30,
		"guidance_scale":      7.5,
	}, input)
}

func TestBuildInputUserOverrides(t *testing.T) {
	req := Request{
		Prompt:         "a cat",
		NegativePrompt: "dogs",
		Model:          "sdxl",
		Width:          ptr(512),
		NumOutputs:     ptr(3),
		Steps:          ptr(12),
		Guidance:       ptr(0.0),
		Seed:           ptr(int64(99)),
	}
	input := BuildInput(sdxlDescriptor(), req)

	assert.Equal(t, map[string]any{
		"prompt":              "a cat",
		"negative_prompt":     "dogs",
		"width":               512,
		"height":              1024,
		"num_outputs":         3,
		"num_inference_steps": 12,
		"guidance_scale":      0.0,
		"seed":                int64(99),
	}, input)
}

func TestBuildInputWidthPriority(t *testing.T) {
	d := sdxlDescriptor()
	for _, width := range []int{64, 1024, 2048} {
		input := BuildInput(d, Request{Prompt: "a cat", Width: ptr(width)})
		assert.Equal(t, width, input["width"])
	}
	input := BuildInput(d, Request{Prompt: "a cat"})
	assert.Equal(t, 1024, input["width"])
}

func TestBuildInputUnmappedParams(t *testing.T) {
	d := models.Descriptor{Key: "plain", Defaults: map[string]any{"steps": 20}}
	input := BuildInput(d, Request{Prompt: "a cat", Steps: ptr(5), Guidance: ptr(4.0)})

	assert.Equal(t, 5, input["steps"])
	assert.Equal(t, 4.0, input["guidance"])
	assert.NotContains(t, input, "negative_prompt")
}

func TestBuildInputDoesNotTouchDefaults(t *testing.T) {
	d := sdxlDescriptor()
	_ = BuildInput(d, Request{Prompt: "a cat", Width: ptr(1)})
	assert.Equal(t, 1024, d.Defaults["width"])
}

func sortedKeys(m map[string]any) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
