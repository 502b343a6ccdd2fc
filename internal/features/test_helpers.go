package features

// SampleRequest returns a complete questionnaire with plausible answers for a
// 72 year old patient. Callers may modify the returned value freely.
func SampleRequest() *PredictionRequest {
	return &PredictionRequest{
		Age:                     intPtr(72),
		EducationLevel:          intPtr(2),
		Gender1:                 flagPtr(true),
		BMI:                     floatPtr(26.4),
		SystolicBP:              floatPtr(138),
		DiastolicBP:             floatPtr(86),
		CholesterolTotal:        floatPtr(212.5),
		Hypertension:            intPtr(1),
		Diabetes:                intPtr(0),
		CardiovascularDisease:   intPtr(0),
		Depression:              intPtr(0),
		HeadInjury:              intPtr(0),
		Smoking:                 intPtr(0),
		AlcoholConsumption:      floatPtr(4.5),
		PhysicalActivity:        floatPtr(3),
		DietQuality:             floatPtr(3),
		SleepQuality:            floatPtr(6.5),
		FamilyHistoryAlzheimers: intPtr(1),
		MMSE:                    floatPtr(18),
		FunctionalAssessment:    floatPtr(3.5),
		ADL:                     floatPtr(4),
		MemoryComplaints:        intPtr(1),
		BehavioralProblems:      intPtr(0),
		HighCognitiveRisk:       intPtr(1),
		HealthRiskIndex:         intPtr(3),
		LifestyleScore:          floatPtr(5.5),
		Ethnicity1:              flagPtr(false),
		Ethnicity2:              flagPtr(true),
		Ethnicity3:              flagPtr(false),
		AgeGroup70:              flagPtr(true),
		AgeGroup80:              flagPtr(false),
		ModelName:               "random_forest",
	}
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func flagPtr(v bool) *Flag        { f := Flag(v); return &f }
