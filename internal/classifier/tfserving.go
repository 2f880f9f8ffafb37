package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TFServingModel calls a model hosted by TensorFlow Serving over its REST API.
type TFServingModel struct {
	baseURL    string
	name       string
	httpClient *http.Client
}

var _ Model = (*TFServingModel)(nil)

func NewTFServingModel(endpoint, name string, timeout time.Duration) *TFServingModel {
	return &TFServingModel{
		baseURL:    strings.TrimRight(endpoint, "/"),
		name:       name,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type predictRequest struct {
	Instances [][][][]float32 `json:"instances"`
}

type predictResponse struct {
	Predictions [][]float32 `json:"predictions"`
	Error       string      `json:"error"`
}

type modelStatusResponse struct {
	ModelVersionStatus []struct {
		Version string `json:"version"`
		State   string `json:"state"`
	} `json:"model_version_status"`
}

// Predict calls POST /v1/models/{name}:predict with a single instance.
func (m *TFServingModel) Predict(ctx context.Context, input Tensor) ([]float32, error) {
	if len(input.Shape) != 4 || input.Shape[0] != 1 {
		return nil, fmt.Errorf("%w: expected a batch of one, got shape %v", ErrModelInference, input.Shape)
	}
	body, err := json.Marshal(predictRequest{Instances: [][][][]float32{input.nested()}})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrModelInference, err)
	}

	path := "/v1/models/" + m.name + ":predict"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelInference, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelInference, err)
	}
	defer resp.Body.Close()

	if err := checkResp(resp, path); err != nil {
		return nil, err
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: tf-serving %s: decode: %v", ErrModelInference, path, err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("%w: tf-serving %s: %s", ErrModelInference, path, out.Error)
	}
	if len(out.Predictions) != 1 {
		return nil, fmt.Errorf("%w: tf-serving %s: expected 1 prediction, got %d", ErrModelInference, path, len(out.Predictions))
	}
	return out.Predictions[0], nil
}

// Ready reports whether at least one version of the model is AVAILABLE.
func (m *TFServingModel) Ready(ctx context.Context) error {
	path := "/v1/models/" + m.name
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tf-serving %s: %w", path, err)
	}
	defer resp.Body.Close()

	if err := checkResp(resp, path); err != nil {
		return err
	}

	var st modelStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return fmt.Errorf("tf-serving %s: decode: %w", path, err)
	}
	for _, v := range st.ModelVersionStatus {
		if v.State == "AVAILABLE" {
			return nil
		}
	}
	return fmt.Errorf("tf-serving %s: no AVAILABLE version", path)
}

// checkResp returns an error carrying the upstream body for non-2xx responses.
func checkResp(resp *http.Response, path string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	return fmt.Errorf("%w: tf-serving %s returned %d: %s", ErrModelInference, path, resp.StatusCode, strings.TrimSpace(string(body)))
}
