// Package features turns a validated patient questionnaire into the positional
// feature vector the pre-trained classifiers were fitted on.
package features

import (
	"bytes"
	"encoding/json"
	"reflect"

	"github.com/MariluHA/cognitive-risk-prediction/internal/common"
)

// PredictionRequest is the questionnaire accepted by POST /predict.
// Required fields are pointers so that a zero or false answer is not
// mistaken for a missing one during binding.
type PredictionRequest struct {
	// Demographics
	Age            *int  `json:"Age" binding:"required"`
	EducationLevel *int  `json:"EducationLevel" binding:"required"`
	Gender1        *Flag `json:"Gender_1" binding:"required"`

	// Physical and clinical measurements
	BMI              *float64 `json:"BMI" binding:"required"`
	SystolicBP       *float64 `json:"SystolicBP" binding:"required"`
	DiastolicBP      *float64 `json:"DiastolicBP" binding:"required"`
	CholesterolTotal *float64 `json:"CholesterolTotal" binding:"required"`

	// Medical history (0/1)
	Hypertension          *int `json:"Hypertension" binding:"required"`
	Diabetes              *int `json:"Diabetes" binding:"required"`
	CardiovascularDisease *int `json:"CardiovascularDisease" binding:"required"`
	Depression            *int `json:"Depression" binding:"required"`
	HeadInjury            *int `json:"HeadInjury" binding:"required"`

	// Lifestyle
	Smoking            *int     `json:"Smoking" binding:"required"`
	AlcoholConsumption *float64 `json:"AlcoholConsumption" binding:"required"`
	PhysicalActivity   *float64 `json:"PhysicalActivity" binding:"required"`
	DietQuality        *float64 `json:"DietQuality" binding:"required"`
	SleepQuality       *float64 `json:"SleepQuality" binding:"required"`

	FamilyHistoryAlzheimers *int `json:"FamilyHistoryAlzheimers" binding:"required"`

	// Cognitive assessment
	MMSE                 *float64 `json:"MMSE" binding:"required"`
	FunctionalAssessment *float64 `json:"FunctionalAssessment" binding:"required"`
	ADL                  *float64 `json:"ADL" binding:"required"`

	// Symptoms
	MemoryComplaints   *int `json:"MemoryComplaints" binding:"required"`
	BehavioralProblems *int `json:"BehavioralProblems" binding:"required"`

	// Derived model variables
	Diagnosis         *int     `json:"Diagnosis,omitempty"`
	HighCognitiveRisk *int     `json:"HighCognitiveRisk" binding:"required"`
	HealthRiskIndex   *int     `json:"HealthRiskIndex" binding:"required"`
	LifestyleScore    *float64 `json:"LifestyleScore" binding:"required"`

	// One-hot categorical encodings
	Ethnicity1 *Flag `json:"Ethnicity_1" binding:"required"`
	Ethnicity2 *Flag `json:"Ethnicity_2" binding:"required"`
	Ethnicity3 *Flag `json:"Ethnicity_3" binding:"required"`
	AgeGroup70 *Flag `json:"AgeGroup_70_79" binding:"required"`
	AgeGroup80 *Flag `json:"AgeGroup_80_90" binding:"required"`

	ModelName string `json:"model_name"`
}

// Model returns the requested model identifier, defaulting to random_forest
// when the field was left empty.
func (r *PredictionRequest) Model() string {
	if r.ModelName == "" {
		return common.DefaultModel
	}
	return r.ModelName
}

// Flag is a yes/no answer. It decodes from JSON true/false and from the
// numeric codes 0 and 1 used by the questionnaire.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true", "1":
		*f = true
	case "false", "0":
		*f = false
	case "null":
		// Leave the value untouched, like encoding/json does for bool.
	default:
		return &json.UnmarshalTypeError{Value: string(data), Type: reflect.TypeOf(false)}
	}
	return nil
}
