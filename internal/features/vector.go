package features

import (
	"errors"
	"fmt"
)

// NumFeatures is the width of the vector every model was trained on.
const NumFeatures = 31

// ErrMissingField is returned when a required questionnaire answer is absent.
var ErrMissingField = errors.New("missing required field")

// Vector is one patient row in training column order.
type Vector [NumFeatures]float32

// Matrix returns the vector shaped as a single-row input matrix.
func (v Vector) Matrix() [][]float32 {
	row := make([]float32, NumFeatures)
	copy(row, v[:])
	return [][]float32{row}
}

type column struct {
	name string
	// value reports false when the answer is absent.
	value func(r *PredictionRequest) (float32, bool)
}

// columns is the positional contract. Reordering it silently corrupts every
// prediction, the order must match training.
var columns = [NumFeatures]column{
	{"Age", intField(func(r *PredictionRequest) *int { return r.Age })},
	{"EducationLevel", intField(func(r *PredictionRequest) *int { return r.EducationLevel })},
	{"BMI", floatField(func(r *PredictionRequest) *float64 { return r.BMI })},
	{"SystolicBP", floatField(func(r *PredictionRequest) *float64 { return r.SystolicBP })},
	{"DiastolicBP", floatField(func(r *PredictionRequest) *float64 { return r.DiastolicBP })},
	{"CholesterolTotal", floatField(func(r *PredictionRequest) *float64 { return r.CholesterolTotal })},
	{"Hypertension", intField(func(r *PredictionRequest) *int { return r.Hypertension })},
	{"Diabetes", intField(func(r *PredictionRequest) *int { return r.Diabetes })},
	{"CardiovascularDisease", intField(func(r *PredictionRequest) *int { return r.CardiovascularDisease })},
	{"Depression", intField(func(r *PredictionRequest) *int { return r.Depression })},
	{"HeadInjury", intField(func(r *PredictionRequest) *int { return r.HeadInjury })},
	{"Smoking", intField(func(r *PredictionRequest) *int { return r.Smoking })},
	{"AlcoholConsumption", floatField(func(r *PredictionRequest) *float64 { return r.AlcoholConsumption })},
	{"PhysicalActivity", floatField(func(r *PredictionRequest) *float64 { return r.PhysicalActivity })},
	{"DietQuality", floatField(func(r *PredictionRequest) *float64 { return r.DietQuality })},
	{"SleepQuality", floatField(func(r *PredictionRequest) *float64 { return r.SleepQuality })},
	{"FamilyHistoryAlzheimers", intField(func(r *PredictionRequest) *int { return r.FamilyHistoryAlzheimers })},
	{"MMSE", floatField(func(r *PredictionRequest) *float64 { return r.MMSE })},
	{"FunctionalAssessment", floatField(func(r *PredictionRequest) *float64 { return r.FunctionalAssessment })},
	{"ADL", floatField(func(r *PredictionRequest) *float64 { return r.ADL })},
	{"MemoryComplaints", intField(func(r *PredictionRequest) *int { return r.MemoryComplaints })},
	{"BehavioralProblems", behavioralProblems},
	{"HighCognitiveRisk", intField(func(r *PredictionRequest) *int { return r.HighCognitiveRisk })},
	{"HealthRiskIndex", intField(func(r *PredictionRequest) *int { return r.HealthRiskIndex })},
	{"LifestyleScore", floatField(func(r *PredictionRequest) *float64 { return r.LifestyleScore })},
	{"Gender_1", boolField(func(r *PredictionRequest) *Flag { return r.Gender1 })},
	{"Ethnicity_1", boolField(func(r *PredictionRequest) *Flag { return r.Ethnicity1 })},
	{"Ethnicity_2", boolField(func(r *PredictionRequest) *Flag { return r.Ethnicity2 })},
	{"Ethnicity_3", boolField(func(r *PredictionRequest) *Flag { return r.Ethnicity3 })},
	{"AgeGroup_70_79", boolField(func(r *PredictionRequest) *Flag { return r.AgeGroup70 })},
	{"AgeGroup_80_90", boolField(func(r *PredictionRequest) *Flag { return r.AgeGroup80 })},
}

// FeatureNames lists the vector columns in positional order.
var FeatureNames = func() []string {
	names := make([]string, NumFeatures)
	for i, c := range columns {
		names[i] = c.name
	}
	return names
}()

// Build assembles the feature vector for a validated request.
// BehavioralProblems falls back to 0 when absent; any other absent answer
// yields ErrMissingField.
func Build(r *PredictionRequest) (Vector, error) {
	var v Vector
	if r == nil {
		return v, fmt.Errorf("build feature vector: nil request")
	}

	for i, c := range columns {
		val, ok := c.value(r)
		if !ok {
			return Vector{}, fmt.Errorf("%w: %s", ErrMissingField, c.name)
		}
		v[i] = val
	}
	return v, nil
}

func behavioralProblems(r *PredictionRequest) (float32, bool) {
	if r.BehavioralProblems == nil {
		return 0, true
	}
	return float32(*r.BehavioralProblems), true
}

func intField(get func(*PredictionRequest) *int) func(*PredictionRequest) (float32, bool) {
	return func(r *PredictionRequest) (float32, bool) {
		p := get(r)
		if p == nil {
			return 0, false
		}
		return float32(*p), true
	}
}

func floatField(get func(*PredictionRequest) *float64) func(*PredictionRequest) (float32, bool) {
	return func(r *PredictionRequest) (float32, bool) {
		p := get(r)
		if p == nil {
			return 0, false
		}
		return float32(*p), true
	}
}

func boolField(get func(*PredictionRequest) *Flag) func(*PredictionRequest) (float32, bool) {
	return func(r *PredictionRequest) (float32, bool) {
		p := get(r)
		if p == nil {
			return 0, false
		}
		if *p {
			return 1, true
		}
		return 0, true
	}
}
