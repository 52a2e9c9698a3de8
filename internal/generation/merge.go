package generation

import (
	"reflect"

	"github.com/samber/lo"

	"github.com/cheahjs/genstudio/internal/models"
)

// Compact returns a copy of m without the keys whose value is nil, including
// typed nil pointers, maps and slices. Upstream treats an explicit null
// differently from an omitted parameter.
func Compact(m map[string]any) map[string]any {
	return lo.OmitBy(m, func(_ string, v any) bool {
		return isNil(v)
	})
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// Merge layers each override map over base, key by key. Later layers win;
// nil values in an override never replace an earlier value.
func Merge(base map[string]any, overrides ...map[string]any) map[string]any {
	layers := make([]map[string]any, 0, len(overrides)+1)
	layers = append(layers, base)
	for _, o := range overrides {
		layers = append(layers, Compact(o))
	}
	return Compact(lo.Assign(layers...))
}

// BuildInput produces the upstream input for req from the model defaults.
// Parameter names go through the descriptor so models that call "steps"
// num_inference_steps get the right key.
func BuildInput(d models.Descriptor, req Request) map[string]any {
	overrides := map[string]any{
		"prompt": req.Prompt,
	}
	set := func(name string, value any) {
		overrides[d.Field(name)] = value
	}
	set("negative_prompt", lo.Ternary[any](req.NegativePrompt != "", req.NegativePrompt, nil))
	set("width", optional(req.Width))
	set("height", optional(req.Height))
	set("num_outputs", optional(req.NumOutputs))
	set("steps", optional(req.Steps))
	set("guidance", optional(req.Guidance))
	set("seed", optional(req.Seed))

	return Merge(d.Defaults, overrides)
}

func optional[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
