package model

import "strings"

// ApplicantProfile is the read-only source of field values and LLM context.
// The orchestrator never mutates it.
type ApplicantProfile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`

	Address struct {
		Street  string `json:"street"`
		City    string `json:"city"`
		State   string `json:"state"`
		Zip     string `json:"zip"`
		Country string `json:"country"`
	} `json:"address"`

	LinkedIn string `json:"linkedin"`
	GitHub   string `json:"github"`
	Website  string `json:"website"`

	WorkAuthorization struct {
		AuthorizedUS        bool   `json:"authorized_us"`
		RequiresSponsorship bool   `json:"requires_sponsorship"`
		VisaStatus          string `json:"visa_status"`
	} `json:"work_authorization"`

	Demographics struct {
		Gender           string `json:"gender"`
		Ethnicity        string `json:"ethnicity"`
		VeteranStatus    string `json:"veteran_status"`
		DisabilityStatus string `json:"disability_status"`
	} `json:"demographics"`

	Experience []Experience `json:"experience"`
	Education  []Education  `json:"education"`
	Skills     []string     `json:"skills"`

	// Documents maps a document kind ("resume", "resume_backend",
	// "cover_letter") to a local file path.
	Documents map[string]string `json:"documents"`
}

type Experience struct {
	Company   string `json:"company"`
	Title     string `json:"title"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Summary   string `json:"summary"`
}

type Education struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Field       string `json:"field"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

func (p *ApplicantProfile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// FieldValue resolves a canonical field key to a profile value. The second
// return is false when the profile has no value for the key; required fields
// that resolve false escalate instead of being submitted blank.
func (p *ApplicantProfile) FieldValue(key string) (string, bool) {
	var v string
	switch key {
	case "first_name":
		v = p.FirstName
	case "last_name":
		v = p.LastName
	case "full_name", "name":
		v = p.FullName()
	case "email":
		v = p.Email
	case "phone":
		v = p.Phone
	case "street":
		v = p.Address.Street
	case "city":
		v = p.Address.City
	case "state":
		v = p.Address.State
	case "zip":
		v = p.Address.Zip
	case "country":
		v = p.Address.Country
	case "location":
		if p.Address.City != "" && p.Address.State != "" {
			v = p.Address.City + ", " + p.Address.State
		} else {
			v = p.Address.City + p.Address.State
		}
	case "linkedin":
		v = p.LinkedIn
	case "github":
		v = p.GitHub
	case "website":
		v = p.Website
	case "authorized_us":
		return yesNo(p.WorkAuthorization.AuthorizedUS), true
	case "requires_sponsorship":
		return yesNo(p.WorkAuthorization.RequiresSponsorship), true
	case "gender":
		v = p.Demographics.Gender
	case "ethnicity":
		v = p.Demographics.Ethnicity
	case "veteran_status":
		v = p.Demographics.VeteranStatus
	case "disability_status":
		v = p.Demographics.DisabilityStatus
	}
	return v, v != ""
}

// Document returns the path of the best-matching document for a kind,
// falling back to the plain "resume" variant.
func (p *ApplicantProfile) Document(kind string) (string, bool) {
	if path, ok := p.Documents[kind]; ok && path != "" {
		return path, true
	}
	if kind != "resume" {
		if path, ok := p.Documents["resume"]; ok && path != "" {
			return path, true
		}
	}
	return "", false
}
