package model

import "time"

// LogHistoryLimit caps every log collection at the most recent entries.
// The collections serve as display lists and as conversational context
// for the assistant; anything older is refetchable, never kept local.
const LogHistoryLimit = 30

type MedicationLog struct {
	ID        string    `json:"id,omitempty"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Dosage    string    `json:"dosage"`
	Frequency string    `json:"frequency"`
	Notes     string    `json:"notes"`
	TakenAt   time.Time `json:"taken_at"`
}

type SymptomLog struct {
	ID       string    `json:"id,omitempty"`
	UserID   string    `json:"user_id"`
	Symptom  string    `json:"symptom"`
	Severity int       `json:"severity"`
	Notes    string    `json:"notes"`
	LoggedAt time.Time `json:"logged_at"`
}

type FoodLog struct {
	ID          string    `json:"id,omitempty"`
	UserID      string    `json:"user_id"`
	MealType    string    `json:"meal_type"`
	Description string    `json:"description"`
	Calories    int       `json:"calories"`
	LoggedAt    time.Time `json:"logged_at"`
}
