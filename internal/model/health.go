package model

import "time"

// HealthData is the current-value snapshot mirrored from the remote
// health_data_cache row. Every numeric field defaults to zero so UI
// arithmetic never has to guard against missing values.
type HealthData struct {
	UserID        string      `json:"user_id"`
	Steps         int         `json:"steps"`
	HeartRate     int         `json:"heart_rate"`
	Calories      int         `json:"calories"`
	SleepHours    float64     `json:"sleep_hours"`
	ActiveMinutes int         `json:"active_minutes"`
	DistanceKM    float64     `json:"distance_km"`
	WeightKG      float64     `json:"weight_kg"`
	BPSystolic    int         `json:"bp_systolic"`
	BPDiastolic   int         `json:"bp_diastolic"`
	Goals         HealthGoals `json:"goals"`
	LastUpdated   time.Time   `json:"last_updated"`
}

type HealthGoals struct {
	Steps         int     `json:"steps"`
	Calories      int     `json:"calories"`
	SleepHours    float64 `json:"sleep_hours"`
	ActiveMinutes int     `json:"active_minutes"`
	DistanceKM    float64 `json:"distance_km"`
	WeightKG      float64 `json:"weight_kg"`
}

func DefaultHealthData() HealthData {
	return HealthData{
		Goals: HealthGoals{
			Steps:         10000,
			Calories:      2000,
			SleepHours:    8,
			ActiveMinutes: 30,
			DistanceKM:    5,
		},
	}
}

// HealthDataUpdate carries a partial snapshot write.
type HealthDataUpdate struct {
	Steps         *int         `json:"steps,omitempty"`
	HeartRate     *int         `json:"heart_rate,omitempty"`
	Calories      *int         `json:"calories,omitempty"`
	SleepHours    *float64     `json:"sleep_hours,omitempty"`
	ActiveMinutes *int         `json:"active_minutes,omitempty"`
	DistanceKM    *float64     `json:"distance_km,omitempty"`
	WeightKG      *float64     `json:"weight_kg,omitempty"`
	BPSystolic    *int         `json:"bp_systolic,omitempty"`
	BPDiastolic   *int         `json:"bp_diastolic,omitempty"`
	Goals         *HealthGoals `json:"goals,omitempty"`
}

func (h *HealthData) ApplyUpdate(u HealthDataUpdate) {
	if u.Steps != nil {
		h.Steps = *u.Steps
	}
	if u.HeartRate != nil {
		h.HeartRate = *u.HeartRate
	}
	if u.Calories != nil {
		h.Calories = *u.Calories
	}
	if u.SleepHours != nil {
		h.SleepHours = *u.SleepHours
	}
	if u.ActiveMinutes != nil {
		h.ActiveMinutes = *u.ActiveMinutes
	}
	if u.DistanceKM != nil {
		h.DistanceKM = *u.DistanceKM
	}
	if u.WeightKG != nil {
		h.WeightKG = *u.WeightKG
	}
	if u.BPSystolic != nil {
		h.BPSystolic = *u.BPSystolic
	}
	if u.BPDiastolic != nil {
		h.BPDiastolic = *u.BPDiastolic
	}
	if u.Goals != nil {
		h.Goals = *u.Goals
	}
	h.LastUpdated = time.Now()
}

type TerraConnection struct {
	UserID      string    `json:"user_id"`
	Provider    string    `json:"provider"`
	TerraUserID string    `json:"terra_user_id"`
	ConnectedAt time.Time `json:"connected_at"`
}
