// Package risk maps a binary classifier output onto the user-facing risk
// interpretation shown by the questionnaire front end.
package risk

import "fmt"

// Prediction labels produced by the classifiers.
const (
	LowRisk  = 0
	HighRisk = 1
)

// Interpretation is the fixed template selected for a prediction.
type Interpretation struct {
	Label           string   `json:"label"`
	Level           string   `json:"level"`
	Title           string   `json:"title"`
	Message         string   `json:"message"`
	Recommendations []string `json:"recommendations"`
}

var templates = map[int]Interpretation{
	LowRisk: {
		Label: "Low Risk",
		Level: "Low",
		Title: "Low Risk of Alzheimer's Disease",
		Message: "Based on the data provided, the model indicates a low risk of developing Alzheimer's disease. " +
			"This is not a medical diagnosis; regular check-ups with a healthcare professional are still recommended.",
		Recommendations: []string{
			"Maintain a healthy lifestyle",
			"Exercise regularly and keep a balanced diet",
			"Keep up cognitive stimulation",
			"Attend periodic medical check-ups",
		},
	},
	HighRisk: {
		Label: "High Risk",
		Level: "High",
		Title: "Elevated Risk of Alzheimer's Disease",
		Message: "The model indicates an elevated risk of developing Alzheimer's disease. " +
			"Please consult a neurologist or specialist for a complete evaluation and a follow-up plan.",
		Recommendations: []string{
			"Seek a medical consultation promptly",
			"Complete a full neuropsychological evaluation",
			"Monitor cognitive function regularly",
			"Put prevention strategies in place",
		},
	},
}

// Interpret returns the template for prediction. Values other than HighRisk
// get the low-risk template. A non-nil, non-zero confidence is appended to the
// message as a percentage.
func Interpret(prediction int, confidence *float64) Interpretation {
	tpl, ok := templates[prediction]
	if !ok {
		tpl = templates[LowRisk]
	}

	out := tpl
	out.Recommendations = append([]string(nil), tpl.Recommendations...)
	if confidence != nil && *confidence != 0 {
		out.Message += fmt.Sprintf(" (Model confidence: %.1f%%)", *confidence*100)
	}
	return out
}
