package types

// RestrictedTenant is the public, single language projection of a tenant.
type RestrictedTenant struct {
	ID        int64             `json:"id"`
	Name      string            `json:"name"`
	Subdomain string            `json:"subdomain"`
	Theming   Theming           `json:"theming"`
	Content   RestrictedContent `json:"content"`
	Settings  Settings          `json:"settings"`
}

type RestrictedContent struct {
	Impressum   string `json:"impressum"`
	Claim       string `json:"claim"`
	DataPrivacy string `json:"dataPrivacy"`
	Privacy     string `json:"privacy"`
}

// BasicTenantLicensing is the listing row shown to tenant admins.
type BasicTenantLicensing struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Subdomain  string    `json:"subdomain"`
	Licensing  Licensing `json:"licensing"`
	CreateDate string    `json:"createDate,omitempty"`
	UpdateDate string    `json:"updateDate,omitempty"`
}

func (t Tenant) Restricted(lang string) RestrictedTenant {
	return RestrictedTenant{
		ID:        t.ID,
		Name:      t.Name,
		Subdomain: t.Subdomain,
		Theming:   t.Theming,
		Content: RestrictedContent{
			Impressum:   t.Content.Impressum.In(lang),
			Claim:       t.Content.Claim.In(lang),
			DataPrivacy: t.Content.DataPrivacy.In(lang),
			Privacy:     t.Content.Privacy,
		},
		Settings: t.Settings,
	}
}

func (t Tenant) BasicLicensing() BasicTenantLicensing {
	out := BasicTenantLicensing{
		ID:        t.ID,
		Name:      t.Name,
		Subdomain: t.Subdomain,
		Licensing: t.Licensing,
	}
	if !t.CreateDate.IsZero() {
		out.CreateDate = t.CreateDate.UTC().Format("2006-01-02T15:04:05Z")
	}
	if !t.UpdateDate.IsZero() {
		out.UpdateDate = t.UpdateDate.UTC().Format("2006-01-02T15:04:05Z")
	}
	return out
}

// In returns the text for lang, falling back to the default language.
func (tr Translations) In(lang string) string {
	if v, ok := tr[lang]; ok {
		return v
	}
	return tr[DefaultLanguage]
}

// Equal treats nil and empty as the same text set.
func (tr Translations) Equal(other Translations) bool {
	if len(tr) != len(other) {
		return false
	}
	for k, v := range tr {
		ov, ok := other[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}
