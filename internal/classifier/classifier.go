package classifier

import (
	"context"
	"errors"
	"fmt"

	"cellscan/internal/logger"
)

var (
	ErrUnreadableImage = errors.New("unreadable image")
	ErrModelInference  = errors.New("model inference failed")
)

// Model runs inference on a preprocessed batch and returns one probability
// per label, in Labels order.
type Model interface {
	Predict(ctx context.Context, input Tensor) ([]float32, error)
}

// Prediction is the outcome of classifying one image.
type Prediction struct {
	Label         string    `json:"label"`
	Index         int       `json:"index"`
	Probabilities []float32 `json:"probabilities"`
}

// Classifier wraps a loaded model. It holds no mutable state and is safe for
// concurrent use.
type Classifier struct {
	model  Model
	labels []string
	log    *logger.Logger
}

func New(model Model, log *logger.Logger) *Classifier {
	return &Classifier{model: model, labels: Labels, log: log}
}

// Classify decodes data, runs the model and maps the arg-max to a label.
// Errors wrap ErrUnreadableImage or ErrModelInference.
func (c *Classifier) Classify(ctx context.Context, data []byte) (Prediction, error) {
	img, err := Decode(data)
	if err != nil {
		return Prediction{}, err
	}

	probs, err := c.model.Predict(ctx, Preprocess(img))
	if err != nil {
		if errors.Is(err, ErrModelInference) {
			return Prediction{}, err
		}
		return Prediction{}, fmt.Errorf("%w: %v", ErrModelInference, err)
	}
	if len(probs) != len(c.labels) {
		return Prediction{}, fmt.Errorf("%w: model returned %d scores for %d labels", ErrModelInference, len(probs), len(c.labels))
	}

	idx := argmax(probs)
	p := Prediction{Label: c.labels[idx], Index: idx, Probabilities: probs}
	c.log.Debugw("classify_probabilities", "probabilities", probs, "label", p.Label)
	return p, nil
}

// argmax returns the first index of the largest value.
func argmax(v []float32) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
