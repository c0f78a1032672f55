package profile

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// DOBLayout is the date-of-birth format.
const DOBLayout = "2006-01-02"

// MinimumAge is the youngest age allowed to create a profile.
const MinimumAge = 18

// Profile is the single user profile.
type Profile struct {
	FullName               string `json:"full_name"`
	DOB                    string `json:"dob"`
	Gender                 string `json:"gender"`
	MedicalConditions      string `json:"medical_conditions"`
	Medications            string `json:"medications"`
	Allergies              string `json:"allergies"`
	EmergencyContactName   string `json:"emergency_contact_name"`
	EmergencyContactNumber string `json:"emergency_contact_number"`
	PreferredPharmacy      string `json:"preferred_pharmacy"`
}

// Merge overlays the non-empty fields of patch onto p.
func (p Profile) Merge(patch Profile) Profile {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&p.FullName, patch.FullName)
	set(&p.DOB, patch.DOB)
	set(&p.Gender, patch.Gender)
	set(&p.MedicalConditions, patch.MedicalConditions)
	set(&p.Medications, patch.Medications)
	set(&p.Allergies, patch.Allergies)
	set(&p.EmergencyContactName, patch.EmergencyContactName)
	set(&p.EmergencyContactNumber, patch.EmergencyContactNumber)
	set(&p.PreferredPharmacy, patch.PreferredPharmacy)
	return p
}

// ValidationError maps field names to messages.
type ValidationError map[string]string

func (v ValidationError) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v[f])
	}
	return "invalid profile: " + strings.Join(parts, "; ")
}

var tenDigitsRe = regexp.MustCompile(`^\d{10}$`)

// Validate checks the profile as of now. It returns nil or a ValidationError.
func (p Profile) Validate(now time.Time) error {
	errs := ValidationError{}

	switch name := strings.TrimSpace(p.FullName); {
	case name == "":
		errs["full_name"] = "Full Name is required"
	case len([]rune(name)) < 2:
		errs["full_name"] = "Full Name must be at least 2 characters"
	}

	if p.DOB == "" {
		errs["dob"] = "Date of Birth is required"
	} else if age, err := CalculateAge(p.DOB, now); err != nil {
		errs["dob"] = "Invalid Date of Birth"
	} else if age < MinimumAge {
		errs["dob"] = fmt.Sprintf("You must be %d or older", MinimumAge)
	}

	switch num := strings.TrimSpace(p.EmergencyContactNumber); {
	case num == "":
		errs["emergency_contact_number"] = "Emergency Contact Number is required"
	case !tenDigitsRe.MatchString(p.EmergencyContactNumber):
		errs["emergency_contact_number"] = "Invalid phone number (10 digits required)"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// CalculateAge returns the age in whole years on now's date.
func CalculateAge(dob string, now time.Time) (int, error) {
	birth, err := time.Parse(DOBLayout, dob)
	if err != nil {
		return 0, fmt.Errorf("invalid dob %q: %w", dob, err)
	}
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age, nil
}

// FormatIndianPhone renders a 10-digit number as "+91 XXXXX XXXXX". Anything
// else is returned unchanged.
func FormatIndianPhone(number string) string {
	if number == "" {
		return "Not provided"
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, number)
	if len(digits) != 10 {
		return number
	}
	return "+91 " + digits[:5] + " " + digits[5:]
}

// View is the profile as displayed, with derived fields.
type View struct {
	Profile
	Age                     *int   `json:"age"`
	EmergencyContactDisplay string `json:"emergency_contact_display"`
}

// NewView derives the display fields as of now.
func NewView(p Profile, now time.Time) View {
	v := View{Profile: p, EmergencyContactDisplay: FormatIndianPhone(p.EmergencyContactNumber)}
	if age, err := CalculateAge(p.DOB, now); err == nil {
		v.Age = &age
	}
	return v
}
