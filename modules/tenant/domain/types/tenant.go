package types

import "time"

// Translations maps a two letter language code to a text.
type Translations map[string]string

const DefaultLanguage = "de"

// Tenant is the stored tenant record.
type Tenant struct {
	ID         int64     `json:"id,omitempty" yaml:"id"`
	Name       string    `json:"name" yaml:"name"`
	Subdomain  string    `json:"subdomain" yaml:"subdomain"`
	Licensing  Licensing `json:"licensing" yaml:"licensing"`
	Theming    Theming   `json:"theming" yaml:"theming"`
	Content    Content   `json:"content" yaml:"content"`
	Settings   Settings  `json:"settings" yaml:"settings"`
	CreateDate time.Time `json:"createDate,omitzero" yaml:"-"`
	UpdateDate time.Time `json:"updateDate,omitzero" yaml:"-"`
}

type Licensing struct {
	AllowedNumberOfUsers int `json:"allowedNumberOfUsers" yaml:"allowed_number_of_users"`
}

type Theming struct {
	Logo           string `json:"logo" yaml:"logo"`
	Favicon        string `json:"favicon" yaml:"favicon"`
	PrimaryColor   string `json:"primaryColor" yaml:"primary_color"`
	SecondaryColor string `json:"secondaryColor" yaml:"secondary_color"`
}

// Content holds the tenant texts. Impressum, Claim and DataPrivacy are the
// legal texts; Privacy is the content visibility policy.
type Content struct {
	Impressum   Translations `json:"impressum" yaml:"impressum"`
	Claim       Translations `json:"claim" yaml:"claim"`
	DataPrivacy Translations `json:"dataPrivacy" yaml:"data_privacy"`
	Privacy     string       `json:"privacy" yaml:"privacy"`
}

type Settings struct {
	TopicsEnabled               bool `json:"featureTopicsEnabled" yaml:"topics_enabled"`
	DemographicsEnabled         bool `json:"featureDemographicsEnabled" yaml:"demographics_enabled"`
	TopicsInRegistrationEnabled bool `json:"topicsInRegistrationEnabled" yaml:"topics_in_registration_enabled"`
	StatisticsEnabled           bool `json:"featureStatisticsEnabled" yaml:"statistics_enabled"`
	AppointmentsEnabled         bool `json:"featureAppointmentsEnabled" yaml:"appointments_enabled"`
}

// ApplicationSettings are deployment wide switches owned by another service.
type ApplicationSettings struct {
	SingleDomainEnabled                     bool
	LegalContentEditableBySingleTenantAdmin bool
	MainTenantSubdomain                     string
}
