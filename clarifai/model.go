// Package clarifai calls a model hosted on Clarifai through the native
// predict endpoint.
package clarifai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bitrise-io/bitrise-plugins-ai-research/common"
	"github.com/bitrise-io/bitrise-plugins-ai-research/credential"
	"github.com/bitrise-io/bitrise-plugins-ai-research/logger"
	"github.com/tidwall/gjson"
)

// statusSuccess is Clarifai's SUCCESS status code
const statusSuccess = 10000

// ErrEmptyPrompt is returned before dispatch when the prompt is blank
var ErrEmptyPrompt = errors.New("prompt cannot be empty")

// ModelRef identifies a model by owner, app, id and optional version
type ModelRef struct {
	UserID    string
	AppID     string
	ModelID   string
	VersionID string
}

// Path returns the REST path of the model's outputs endpoint
func (m ModelRef) Path() string {
	p := fmt.Sprintf("/v2/users/%s/apps/%s/models/%s", m.UserID, m.AppID, m.ModelID)
	if m.VersionID != "" {
		p += "/versions/" + m.VersionID
	}
	return p + "/outputs"
}

// ParseModelURL accepts https://clarifai.com/{user}/{app}/models/{model}[/versions/{version}]
func ParseModelURL(modelURL string) (ModelRef, error) {
	u, err := url.Parse(strings.TrimSpace(modelURL))
	if err != nil {
		return ModelRef{}, fmt.Errorf("invalid model URL %q: %w", modelURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return ModelRef{}, fmt.Errorf("invalid model URL %q: expected an absolute URL", modelURL)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	switch {
	case len(parts) == 4 && parts[2] == "models":
		return ModelRef{UserID: parts[0], AppID: parts[1], ModelID: parts[3]}, nil
	case len(parts) == 6 && parts[2] == "models" && parts[4] == "versions":
		return ModelRef{UserID: parts[0], AppID: parts[1], ModelID: parts[3], VersionID: parts[5]}, nil
	}

	return ModelRef{}, fmt.Errorf("invalid model URL %q: expected /{user}/{app}/models/{model}[/versions/{version}]", modelURL)
}

// OptionType defines the type of option
type OptionType string

const (
	PATOption          OptionType = "pat"
	DeploymentIDOption OptionType = "deployment_id"
	BaseURLOption      OptionType = "base_url"
	HTTPClientOption   OptionType = "http_client"
)

// Option configures a Model
type Option struct {
	Type  OptionType
	Value any
}

// WithPAT sets the personal access token
func WithPAT(pat string) Option {
	return Option{Type: PATOption, Value: pat}
}

// WithDeploymentID routes the prediction to a dedicated deployment
func WithDeploymentID(id string) Option {
	return Option{Type: DeploymentIDOption, Value: id}
}

// WithBaseURL overrides the API root
func WithBaseURL(baseURL string) Option {
	return Option{Type: BaseURLOption, Value: baseURL}
}

// WithHTTPClient overrides the HTTP client
func WithHTTPClient(client *http.Client) Option {
	return Option{Type: HTTPClientOption, Value: client}
}

// Model is a client for one hosted model
type Model struct {
	ref          ModelRef
	pat          string
	deploymentID string
	baseURL      string
	client       *http.Client
}

// NewModel builds a client for the model at modelURL
func NewModel(modelURL string, opts ...Option) (*Model, error) {
	ref, err := ParseModelURL(modelURL)
	if err != nil {
		return nil, err
	}

	m := &Model{
		ref:     ref,
		baseURL: common.ClarifaiAPIBaseURL,
	}

	for _, opt := range opts {
		switch opt.Type {
		case PATOption:
			if pat, ok := opt.Value.(string); ok {
				m.pat = strings.TrimSpace(pat)
			}
		case DeploymentIDOption:
			if id, ok := opt.Value.(string); ok {
				m.deploymentID = strings.TrimSpace(id)
			}
		case BaseURLOption:
			if baseURL, ok := opt.Value.(string); ok && baseURL != "" {
				m.baseURL = strings.TrimRight(baseURL, "/")
			}
		case HTTPClientOption:
			if client, ok := opt.Value.(*http.Client); ok && client != nil {
				m.client = client
			}
		}
	}

	if m.pat == "" {
		return nil, credential.ErrMissing
	}

	if m.client == nil {
		m.client = common.NewRetryableClient(common.DefaultRetryConfig()).StandardClient()
	}

	logger.Debugf("Clarifai model client initialized for %s/%s/%s (deployment: %q)",
		ref.UserID, ref.AppID, ref.ModelID, m.deploymentID)

	return m, nil
}

// Ref returns the parsed model reference
func (m *Model) Ref() ModelRef {
	return m.ref
}

type textData struct {
	Raw string `json:"raw"`
}

type inputData struct {
	Text textData `json:"text"`
}

type input struct {
	Data inputData `json:"data"`
}

type deployment struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
}

type runnerSelector struct {
	Deployment deployment `json:"deployment"`
}

type predictRequest struct {
	Inputs         []input         `json:"inputs"`
	RunnerSelector *runnerSelector `json:"runner_selector,omitempty"`
}

// Predict sends prompt to the model and returns the generated text.
// Failures from the remote service are returned as is, without retry.
func (m *Model) Predict(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}

	body := predictRequest{
		Inputs: []input{{Data: inputData{Text: textData{Raw: prompt}}}},
	}
	if m.deploymentID != "" {
		body.RunnerSelector = &runnerSelector{
			Deployment: deployment{ID: m.deploymentID, UserID: m.ref.UserID},
		}
	}

	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(body); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+m.ref.Path(), buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Key "+m.pat)
	req.Header.Set("Content-Type", "application/json")

	logger.Infof("Sending prediction to Clarifai model %s", m.ref.ModelID)

	res, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call model: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read model response: %w", err)
	}

	return parseOutput(res.StatusCode, data)
}

func parseOutput(httpStatus int, data []byte) (string, error) {
	if !gjson.ValidBytes(data) {
		if httpStatus < 200 || httpStatus >= 300 {
			return "", fmt.Errorf("clarifai error: status %d: %s", httpStatus, strings.TrimSpace(string(data)))
		}
		return "", fmt.Errorf("clarifai returned malformed response: %s", strings.TrimSpace(string(data)))
	}

	result := gjson.ParseBytes(data)
	code := result.Get("status.code").Int()
	if httpStatus < 200 || httpStatus >= 300 || (code != 0 && code != statusSuccess) {
		return "", fmt.Errorf("clarifai error: status %d: %s", httpStatus, describeStatus(result))
	}

	output := result.Get("outputs.0")
	if !output.Exists() {
		return "", errors.New("clarifai response contained no outputs")
	}
	if oc := output.Get("status.code").Int(); oc != 0 && oc != statusSuccess {
		return "", fmt.Errorf("clarifai output failed: %s", describeStatus(output))
	}

	text := output.Get("data.text.raw")
	if !text.Exists() {
		return "", errors.New("clarifai output contained no text")
	}
	return text.String(), nil
}

func describeStatus(r gjson.Result) string {
	parts := []string{}
	for _, key := range []string{"status.description", "status.details"} {
		if v := r.Get(key).String(); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return r.Get("status.code").String()
	}
	return strings.Join(parts, ": ")
}
