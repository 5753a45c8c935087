package predictive

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/verdant-ops/facility-backend-go/internal/core/alerts"
	"github.com/verdant-ops/facility-backend-go/internal/core/sensors"
)

// ModelKind selects the scoring function used for a model.
type ModelKind string

const (
	KindAnomalyDetection  ModelKind = "anomaly_detection"
	KindFailurePrediction ModelKind = "failure_prediction"
)

// Model is a named, periodically retrained scoring function over the
// readings of its input sensors.
type Model struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Kind           ModelKind     `json:"kind"`
	InputSensors   []string      `json:"input_sensors"`
	TargetVariable string        `json:"target_variable"`
	Horizon        time.Duration `json:"horizon"`
	Active         bool          `json:"active"`
	TrainedSamples int           `json:"trained_samples"`
	Accuracy       float64       `json:"accuracy"`
	LastTrained    time.Time     `json:"last_trained"`
}

// Prediction is one scoring pass of a model.
type Prediction struct {
	ModelID     string             `json:"model_id"`
	ModelName   string             `json:"model_name"`
	Scores      map[string]float64 `json:"scores"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// ScoreFunc produces named confidence scores in [0, 1] for a model from its
// relevant training samples. Scorers are swappable per model kind.
type ScoreFunc func(m Model, samples []sensors.Reading, now time.Time) map[string]float64

// Config sizes the training queue and scoring cadence.
type Config struct {
	UpdateInterval      time.Duration
	MinTrainingSamples  int
	QueueCapacity       int
	IngestPerTick       int
	ConfidenceThreshold float64
}

// Engine maintains the bounded training queue, retrains per-model statistics
// on a fixed cadence, and raises alerts for high-confidence anomalies.
type Engine struct {
	mu         sync.RWMutex
	cfg        Config
	models     map[string]*Model
	queue      []sensors.Reading
	scorers    map[ModelKind]ScoreFunc
	alerts     *alerts.Store
	logger     *logrus.Logger
	lastUpdate time.Time
	onPredict  func(Prediction)
}

// NewEngine creates a predictive engine with the default scorers installed.
func NewEngine(cfg Config, alertStore *alerts.Store, logger *logrus.Logger) *Engine {
	e := &Engine{
		cfg:    cfg,
		models: make(map[string]*Model),
		alerts: alertStore,
		logger: logger,
		scorers: map[ModelKind]ScoreFunc{
			KindAnomalyDetection:  scoreAnomaly,
			KindFailurePrediction: scoreFailure,
		},
	}
	return e
}

// OnPrediction registers a single observer invoked for every generated
// prediction.
func (e *Engine) OnPrediction(fn func(Prediction)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onPredict = fn
}

// RegisterScorer installs or replaces the scoring function for a model kind.
func (e *Engine) RegisterScorer(kind ModelKind, fn ScoreFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scorers[kind] = fn
}

// RegisterModel validates and stores a model, returning its id.
func (e *Engine) RegisterModel(m Model) (string, error) {
	if m.Name == "" {
		return "", fmt.Errorf("model name is required")
	}
	if len(m.InputSensors) == 0 {
		return "", fmt.Errorf("model requires at least one input sensor")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if _, exists := e.models[m.ID]; exists {
		return "", fmt.Errorf("model %s already registered", m.ID)
	}
	stored := m
	e.models[m.ID] = &stored

	e.logger.WithFields(logrus.Fields{
		"model_id": m.ID,
		"kind":     string(m.Kind),
	}).Info("Predictive model registered")

	return m.ID, nil
}

// Models returns copies of every model, ordered by name.
func (e *Engine) Models() []Model {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Model, 0, len(e.models))
	for _, m := range e.models {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// QueueDepth returns the current training-queue length.
func (e *Engine) QueueDepth() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.queue)
}

// Ingest feeds this tick's readings into the FIFO training queue. At most
// IngestPerTick of the most recent readings are taken, and the queue never
// grows past QueueCapacity: the oldest samples are dropped silently.
func (e *Engine) Ingest(batch []sensors.Reading) {
	if len(batch) == 0 {
		return
	}
	if n := e.cfg.IngestPerTick; n > 0 && len(batch) > n {
		batch = batch[len(batch)-n:]
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.queue = append(e.queue, batch...)
	if over := len(e.queue) - e.cfg.QueueCapacity; over > 0 {
		e.queue = append(e.queue[:0:0], e.queue[over:]...)
	}
}

// Update retrains and scores every active model when the update interval has
// elapsed, returning the predictions generated. Scores above the confidence
// threshold raise one Warning alert each.
func (e *Engine) Update(now time.Time) []Prediction {
	e.mu.Lock()
	if !e.lastUpdate.IsZero() && now.Sub(e.lastUpdate) < e.cfg.UpdateInterval {
		e.mu.Unlock()
		return nil
	}
	e.lastUpdate = now

	type scored struct {
		model  Model
		scores map[string]float64
	}
	results := make([]scored, 0, len(e.models))
	for _, m := range e.models {
		if !m.Active {
			continue
		}
		samples := relevantSamples(e.queue, m.InputSensors)
		if len(samples) >= e.cfg.MinTrainingSamples {
			m.TrainedSamples = len(samples)
			// Placeholder accuracy: improves with sample volume, capped
			// short of certainty.
			m.Accuracy = math.Min(0.95, 0.70+float64(len(samples))/40000.0)
			m.LastTrained = now
		}
		scorer, ok := e.scorers[m.Kind]
		if !ok {
			continue
		}
		results = append(results, scored{*m, scorer(*m, samples, now)})
	}
	threshold := e.cfg.ConfidenceThreshold
	onPredict := e.onPredict
	e.mu.Unlock()

	predictions := make([]Prediction, 0, len(results))
	for _, r := range results {
		if len(r.scores) == 0 {
			continue
		}
		p := Prediction{
			ModelID:     r.model.ID,
			ModelName:   r.model.Name,
			Scores:      r.scores,
			GeneratedAt: now,
		}
		predictions = append(predictions, p)
		if onPredict != nil {
			onPredict(p)
		}

		names := make([]string, 0, len(r.scores))
		for name := range r.scores {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			score := r.scores[name]
			if score <= threshold {
				continue
			}
			e.alerts.Raise(alerts.Alert{
				Timestamp:   now,
				Severity:    alerts.SeverityWarning,
				Title:       fmt.Sprintf("Predictive alert: %s", name),
				Description: fmt.Sprintf("model %q predicts %s with confidence %.0f%%", r.model.Name, name, score*100),
			})
		}
	}
	return predictions
}

// relevantSamples filters the queue to readings whose sensor is among the
// model's inputs.
func relevantSamples(queue []sensors.Reading, inputs []string) []sensors.Reading {
	set := make(map[string]struct{}, len(inputs))
	for _, id := range inputs {
		set[id] = struct{}{}
	}
	out := make([]sensors.Reading, 0)
	for _, r := range queue {
		if _, ok := set[r.SensorID]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Clear drops all models and queued samples. Part of system shutdown.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.models = make(map[string]*Model)
	e.queue = nil
}
