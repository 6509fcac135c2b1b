package model

import "time"

type UserProfile struct {
	ID                  string    `json:"id"`
	Email               string    `json:"email"`
	FirstName           string    `json:"first_name"`
	LastName            string    `json:"last_name"`
	Street              string    `json:"street"`
	City                string    `json:"city"`
	State               string    `json:"state"`
	ZipCode             string    `json:"zip_code"`
	Country             string    `json:"country"`
	Conditions          []string  `json:"conditions"`
	Provider            string    `json:"provider"`
	ProviderID          string    `json:"provider_id"`
	EmailVerified       bool      `json:"email_verified"`
	OnboardingCompleted bool      `json:"onboarding_completed"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// ProfileUpdate carries a partial profile write. Nil fields are left
// untouched by the remote update and the local merge.
type ProfileUpdate struct {
	FirstName           *string   `json:"first_name,omitempty"`
	LastName            *string   `json:"last_name,omitempty"`
	Street              *string   `json:"street,omitempty"`
	City                *string   `json:"city,omitempty"`
	State               *string   `json:"state,omitempty"`
	ZipCode             *string   `json:"zip_code,omitempty"`
	Country             *string   `json:"country,omitempty"`
	Conditions          *[]string `json:"conditions,omitempty"`
	OnboardingCompleted *bool     `json:"onboarding_completed,omitempty"`
}

func (p *UserProfile) ApplyUpdate(u ProfileUpdate) {
	if u.FirstName != nil {
		p.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		p.LastName = *u.LastName
	}
	if u.Street != nil {
		p.Street = *u.Street
	}
	if u.City != nil {
		p.City = *u.City
	}
	if u.State != nil {
		p.State = *u.State
	}
	if u.ZipCode != nil {
		p.ZipCode = *u.ZipCode
	}
	if u.Country != nil {
		p.Country = *u.Country
	}
	if u.Conditions != nil {
		p.Conditions = *u.Conditions
	}
	if u.OnboardingCompleted != nil {
		p.OnboardingCompleted = *u.OnboardingCompleted
	}
}
