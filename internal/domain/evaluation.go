package domain

// Evaluation groups the classification and distribution outputs computed over
// the model evaluation dataset.
type Evaluation struct {
	Records    int              `json:"records"`
	Confusion  *ConfusionMatrix `json:"confusion,omitempty"`
	ROC        *ROCCurve        `json:"roc,omitempty"`
	Precision  *Histogram       `json:"precision,omitempty"`
	Efficiency *BoxStats        `json:"efficiency,omitempty"`
	Scatter    []ScatterSeries  `json:"scatter,omitempty"`
}

// ConfusionMatrix counts Matrix[actual][predicted] over Labels.
type ConfusionMatrix struct {
	Labels   []string `json:"labels"`
	Matrix   [][]int  `json:"matrix"`
	Accuracy float64  `json:"accuracy"`
}

type ROCCurve struct {
	PositiveLabel string    `json:"positive_label"`
	FPR           []float64 `json:"fpr"`
	TPR           []float64 `json:"tpr"`
	Thresholds    []float64 `json:"thresholds"`
	AUC           float64   `json:"auc"`
}

type Histogram struct {
	Metric   string    `json:"metric"`
	Dividers []float64 `json:"dividers"`
	Counts   []float64 `json:"counts"`
}

type BoxStats struct {
	Metric       string    `json:"metric"`
	Min          float64   `json:"min"`
	Q1           float64   `json:"q1"`
	Median       float64   `json:"median"`
	Q3           float64   `json:"q3"`
	Max          float64   `json:"max"`
	LowerWhisker float64   `json:"lower_whisker"`
	UpperWhisker float64   `json:"upper_whisker"`
	Outliers     []float64 `json:"outliers,omitempty"`
}

type ScatterPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type ScatterSeries struct {
	Status string         `json:"status"`
	Points []ScatterPoint `json:"points"`
}
