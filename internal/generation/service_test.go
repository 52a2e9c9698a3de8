package generation

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cheahjs/genstudio/internal/models"
)

// MockRunner records its calls and returns a canned response.
type MockRunner struct {
	RunFunc func(ctx context.Context, token, model string, input map[string]any) (json.RawMessage, error)
	Calls   int
	Model   string
	Token   string
	Input   map[string]any
}

func (m *MockRunner) Run(ctx context.Context, token, model string, input map[string]any) (json.RawMessage, error) {
	m.Calls++
	m.Model, m.Token, m.Input = model, token, input
	if m.RunFunc != nil {
		return m.RunFunc(ctx, token, model, input)
	}
	return json.RawMessage(`["u1"]`), nil
}

func newTestService(t *testing.T, runner Runner, token string) *Service {
	t.Helper()
	catalog, err := models.Builtin()
	require.NoError(t, err)
	return NewService(catalog, runner, func() string { return token })
}

func TestGenerateSuccess(t *testing.T) {
	runner := &MockRunner{}
	svc := newTestService(t, runner, "r8_token")

	images, err := svc.Generate(context.Background(), []byte(`{"prompt":"a cat","model":"sdxl","width":640}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"u1"}, images)
	assert.Equal(t, 1, runner.Calls)
	assert.Equal(t, "r8_token", runner.Token)
	assert.Contains(t, runner.Model, "stability-ai/sdxl:")
	assert.Equal(t, 640, runner.Input["width"])
	assert.Equal(t, 1024, runner.Input["height"])
	assert.Equal(t, "a cat", runner.Input["prompt"])
}

func TestGenerateMissingCredential(t *testing.T) {
	runner := &MockRunner{}
	svc := newTestService(t, runner, "")

	_, err := svc.Generate(context.Background(), []byte(`{"prompt":"a cat","model":"sdxl"}`))
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Zero(t, runner.Calls)
}

func TestGenerateCredentialCheckedBeforeBody(t *testing.T) {
	svc := newTestService(t, &MockRunner{}, "")

	_, err := svc.Generate(context.Background(), []byte(`not json`))
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestGenerateValidationError(t *testing.T) {
	runner := &MockRunner{}
	svc := newTestService(t, runner, "r8_token")

	_, err := svc.Generate(context.Background(), []byte(`{"prompt":"a","model":"sdxl"}`))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Zero(t, runner.Calls)
}

func TestGenerateUnknownModel(t *testing.T) {
	runner := &MockRunner{}
	svc := newTestService(t, runner, "r8_token")

	_, err := svc.Generate(context.Background(), []byte(`{"prompt":"a cat","model":"bogus"}`))
	assert.ErrorIs(t, err, models.ErrUnknownModel)
	assert.Zero(t, runner.Calls)
}

func TestGenerateUpstreamError(t *testing.T) {
	boom := errors.New("quota exceeded")
	runner := &MockRunner{RunFunc: func(context.Context, string, string, map[string]any) (json.RawMessage, error) {
		return nil, boom
	}}
	svc := newTestService(t, runner, "r8_token")

	_, err := svc.Generate(context.Background(), []byte(`{"prompt":"a cat","model":"flux-schnell"}`))
	var upErr *UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "quota exceeded", err.Error())
	assert.Equal(t, "flux-schnell", upErr.Model)
}

func TestGenerateNoImages(t *testing.T) {
	runner := &MockRunner{RunFunc: func(context.Context, string, string, map[string]any) (json.RawMessage, error) {
		return json.RawMessage(`{"status":"weird"}`), nil
	}}
	svc := newTestService(t, runner, "r8_token")

	_, err := svc.Generate(context.Background(), []byte(`{"prompt":"a cat","model":"flux-schnell"}`))
	var noImages *NoImagesError
	require.ErrorAs(t, err, &noImages)
	assert.JSONEq(t, `{"status":"weird"}`, string(noImages.Raw))
	assert.Equal(t, "model returned no images", err.Error())
}

func TestGenerateObjectOutput(t *testing.T) {
	runner := &MockRunner{RunFunc: func(context.Context, string, string, map[string]any) (json.RawMessage, error) {
		return json.RawMessage(`{"images":["c.png","d.png"]}`), nil
	}}
	svc := newTestService(t, runner, "r8_token")

	images, err := svc.Generate(context.Background(), []byte(`{"prompt":"a cat","model":"flux-dev","numOutputs":2}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"c.png", "d.png"}, images)
	assert.Equal(t, 2, runner.Input["num_outputs"])
}
