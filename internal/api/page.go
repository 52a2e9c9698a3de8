package api

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"html/template"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/cheahjs/genstudio/internal/models"
)

//go:embed templates/index.html
var indexTmpl string

const defaultPrompt = "a neon banana spaceship flying over a cyberpunk city, ultra-detailed"

type pageRenderer struct {
	tmpl *template.Template
}

func newPageRenderer() *pageRenderer {
	return &pageRenderer{tmpl: template.Must(template.New("index").Parse(indexTmpl))}
}

// formValues holds the raw form fields. Numeric fields stay strings so an
// empty input can be told apart from zero.
type formValues struct {
	Prompt         string
	NegativePrompt string
	Model          string
	Width          string
	Height         string
	NumOutputs     string
	Steps          string
	Guidance       string
	Seed           string
}

type modelOption struct {
	Key      string
	Label    string
	Selected bool
}

type pageData struct {
	Form          formValues
	Models        []modelOption
	OutputCounts  []string
	Help          string
	WidthDefault  string
	HeightDefault string
	Images        []string
	Error         string
}

func (p *pageRenderer) render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to render page")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func (router *Router) pageHandler(w http.ResponseWriter, r *http.Request) {
	form := formValues{
		Prompt:     defaultPrompt,
		Model:      router.catalog.DefaultKey(),
		NumOutputs: "1",
	}
	router.page.render(w, r, http.StatusOK, router.pageData(form))
}

// pageSubmitHandler runs a form submission through the same pipeline as the
// JSON endpoint and renders either the images or the error message.
func (router *Router) pageSubmitHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, router.opts.MaxBodyBytes)
	if err := r.ParseForm(); err != nil {
		data := router.pageData(formValues{Model: router.catalog.DefaultKey(), NumOutputs: "1"})
		data.Error = "Could not read the form: " + err.Error()
		router.page.render(w, r, http.StatusBadRequest, data)
		return
	}

	form := formValues{
		Prompt:         r.PostFormValue("prompt"),
		NegativePrompt: r.PostFormValue("negativePrompt"),
		Model:          r.PostFormValue("model"),
		Width:          strings.TrimSpace(r.PostFormValue("width")),
		Height:         strings.TrimSpace(r.PostFormValue("height")),
		NumOutputs:     strings.TrimSpace(r.PostFormValue("num_outputs")),
		Steps:          strings.TrimSpace(r.PostFormValue("steps")),
		Guidance:       strings.TrimSpace(r.PostFormValue("guidance")),
		Seed:           strings.TrimSpace(r.PostFormValue("seed")),
	}
	data := router.pageData(form)

	body, err := json.Marshal(form.toRequestBody())
	if err != nil {
		data.Error = err.Error()
		router.page.render(w, r, http.StatusInternalServerError, data)
		return
	}

	images, err := router.service.Generate(r.Context(), body)
	if err != nil {
		status, _ := router.errorPayload(err)
		data.Error = router.errorMessage(err)
		router.page.render(w, r, status, data)
		return
	}
	data.Images = images
	router.page.render(w, r, http.StatusOK, data)
}

// toRequestBody builds the JSON request the form stands for. Empty numeric
// inputs are left out; unparsable ones are sent as strings so validation
// reports them against the field.
func (f formValues) toRequestBody() map[string]any {
	body := map[string]any{
		"prompt":         f.Prompt,
		"negativePrompt": f.NegativePrompt,
		"model":          f.Model,
	}
	numbers := map[string]string{
		"width":       f.Width,
		"height":      f.Height,
		"num_outputs": f.NumOutputs,
		"steps":       f.Steps,
		"guidance":    f.Guidance,
		"seed":        f.Seed,
	}
	for field, raw := range numbers {
		if raw == "" {
			continue
		}
		if n, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
			body[field] = n
		} else {
			body[field] = raw
		}
	}
	return body
}

func (router *Router) pageData(form formValues) pageData {
	selected, err := router.catalog.Lookup(form.Model)
	if err != nil {
		selected, _ = router.catalog.Lookup(router.catalog.DefaultKey())
	}

	data := pageData{
		Form: form,
		Models: lo.Map(router.catalog.List(), func(d models.Descriptor, _ int) modelOption {
			return modelOption{Key: d.Key, Label: d.Label, Selected: d.Key == selected.Key}
		}),
		OutputCounts: []string{"1", "2", "3", "4"},
		Help:         "Using " + selected.Label + " · " + selected.Strengths,
	}
	if width, ok := selected.DefaultInt("width"); ok {
		data.WidthDefault = strconv.Itoa(width)
	}
	if height, ok := selected.DefaultInt("height"); ok {
		data.HeightDefault = strconv.Itoa(height)
	}
	return data
}
