package domain

import "time"

type Label string

const (
	LabelParkinsons Label = "Parkinson's"
	LabelHealthy    Label = "Healthy"
)

// PredictionColumn is the header of the label column added to exported tables.
const PredictionColumn = "Prediction"

// LabelFor maps a raw classifier output to a label. Only an exact 1 is the positive class.
func LabelFor(raw float64) Label {
	if raw == 1 {
		return LabelParkinsons
	}
	return LabelHealthy
}

// Display returns the decorated variant shown on the results page.
func (l Label) Display() string {
	switch l {
	case LabelParkinsons:
		return "🩺 Parkinson's"
	default:
		return "✅ Healthy"
	}
}

type FlowState string

const (
	StateIdle             FlowState = "idle"
	StateFileReceived     FlowState = "file_received"
	StateValidationFailed FlowState = "validation_failed"
	StateValidated        FlowState = "validated"
	StatePredictionFailed FlowState = "prediction_failed"
	StatePredicted        FlowState = "predicted"
	StateReported         FlowState = "reported"
)

func (s FlowState) Terminal() bool {
	switch s {
	case StateValidationFailed, StatePredictionFailed, StateReported:
		return true
	default:
		return false
	}
}

type Summary struct {
	Parkinsons int `json:"parkinsons_count"`
	Healthy    int `json:"healthy_count"`
}

func (s Summary) Total() int {
	return s.Parkinsons + s.Healthy
}

type BannerKind string

const (
	BannerWarning BannerKind = "warning"
	BannerSuccess BannerKind = "success"
)

type Banner struct {
	Kind    BannerKind `json:"kind"`
	Message string     `json:"message"`
}

// Screening is the outcome of one uploaded file going through the flow.
type Screening struct {
	RunID        string    `json:"run_id"`
	Filename     string    `json:"filename"`
	State        FlowState `json:"state"`
	Rows         int       `json:"rows"`
	Missing      []string  `json:"missing_columns,omitempty"`
	Error        string    `json:"error,omitempty"`
	Labels       []Label   `json:"labels,omitempty"`
	Summary      Summary   `json:"summary"`
	Banner       *Banner   `json:"banner,omitempty"`
	ModelVersion string    `json:"model_version"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`

	Err       error  `json:"-"`
	Upload    *Table `json:"-"`
	Augmented *Table `json:"-"`
}

func (s *Screening) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// ScreeningEvent is the audit projection of a Screening. It never carries cell values.
type ScreeningEvent struct {
	RunID           string    `json:"run_id"`
	Filename        string    `json:"filename"`
	State           FlowState `json:"state"`
	Rows            int       `json:"rows"`
	ParkinsonsCount int       `json:"parkinsons_count"`
	HealthyCount    int       `json:"healthy_count"`
	Missing         []string  `json:"missing_columns"`
	Error           string    `json:"error,omitempty"`
	ModelVersion    string    `json:"model_version"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	DurationMS      float64   `json:"duration_ms"`
}

func (s *Screening) Event() ScreeningEvent {
	missing := s.Missing
	if missing == nil {
		missing = []string{}
	}
	return ScreeningEvent{
		RunID:           s.RunID,
		Filename:        s.Filename,
		State:           s.State,
		Rows:            s.Rows,
		ParkinsonsCount: s.Summary.Parkinsons,
		HealthyCount:    s.Summary.Healthy,
		Missing:         missing,
		Error:           s.Error,
		ModelVersion:    s.ModelVersion,
		StartedAt:       s.StartedAt,
		FinishedAt:      s.FinishedAt,
		DurationMS:      float64(s.Duration().Microseconds()) / 1000.0,
	}
}
