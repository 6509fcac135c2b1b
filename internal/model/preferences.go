package model

// UserPreferences mirrors the remote user_preferences row. The
// notification toggles live in a JSON sub-object on the row.
type UserPreferences struct {
	UserID             string                  `json:"user_id"`
	Notifications      NotificationPreferences `json:"notification_preferences"`
	TerraConnected     bool                    `json:"terra_connected"`
	AppleHealthEnabled bool                    `json:"apple_health_enabled"`
}

type NotificationPreferences struct {
	Achievements bool `json:"achievements"`
	HealthAlerts bool `json:"health_alerts"`
	Medications  bool `json:"medications"`
	Appointments bool `json:"appointments"`
}

func DefaultPreferences() UserPreferences {
	return UserPreferences{
		Notifications: NotificationPreferences{
			Achievements: true,
			HealthAlerts: true,
			Medications:  true,
			Appointments: true,
		},
	}
}

// PreferencesUpdate carries a partial preferences write. The
// notifications sub-object is merged toggle by toggle so flipping one
// switch cannot reset its siblings.
type PreferencesUpdate struct {
	Notifications      *NotificationUpdate `json:"notification_preferences,omitempty"`
	TerraConnected     *bool               `json:"terra_connected,omitempty"`
	AppleHealthEnabled *bool               `json:"apple_health_enabled,omitempty"`
}

type NotificationUpdate struct {
	Achievements *bool `json:"achievements,omitempty"`
	HealthAlerts *bool `json:"health_alerts,omitempty"`
	Medications  *bool `json:"medications,omitempty"`
	Appointments *bool `json:"appointments,omitempty"`
}

func (p *UserPreferences) ApplyUpdate(u PreferencesUpdate) {
	if u.Notifications != nil {
		if u.Notifications.Achievements != nil {
			p.Notifications.Achievements = *u.Notifications.Achievements
		}
		if u.Notifications.HealthAlerts != nil {
			p.Notifications.HealthAlerts = *u.Notifications.HealthAlerts
		}
		if u.Notifications.Medications != nil {
			p.Notifications.Medications = *u.Notifications.Medications
		}
		if u.Notifications.Appointments != nil {
			p.Notifications.Appointments = *u.Notifications.Appointments
		}
	}
	if u.TerraConnected != nil {
		p.TerraConnected = *u.TerraConnected
	}
	if u.AppleHealthEnabled != nil {
		p.AppleHealthEnabled = *u.AppleHealthEnabled
	}
}
