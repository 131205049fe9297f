// Package referral turns a predicted condition into doctor suggestions.
package referral

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BTreeMap/TriagePipe/internal/directory"
	"github.com/BTreeMap/TriagePipe/internal/models"
	"github.com/BTreeMap/TriagePipe/internal/util"
)

// MaxDoctors is the number of doctors listed per referral.
const MaxDoctors = 3

// specializations maps normalized condition labels to the specialist who treats them.
// Keys keep the spelling of the classifier's labels.
var specializations = map[string]string{
	"fungal infection":                       "Dermatologist",
	"allergy":                                "Allergist",
	"gerd":                                   "Gastroenterologist",
	"chronic cholestasis":                    "Hepatologist",
	"drug reaction":                          "Dermatologist",
	"peptic ulcer diseae":                    "Gastroenterologist",
	"aids":                                   "Infectious Disease Specialist",
	"diabetes":                               "Endocrinologist",
	"gastroenteritis":                        "Gastroenterologist",
	"bronchial asthma":                       "Pulmonologist",
	"hypertension":                           "Cardiologist",
	"migraine":                               "Neurologist",
	"cervical spondylosis":                   "Orthopedist",
	"paralysis (brain hemorrhage)":           "Neurologist",
	"jaundice":                               "Hepatologist",
	"malaria":                                "Infectious Disease Specialist",
	"chicken pox":                            "Dermatologist",
	"dengue":                                 "Infectious Disease Specialist",
	"typhoid":                                "Infectious Disease Specialist",
	"hepatitis a":                            "Hepatologist",
	"hepatitis b":                            "Hepatologist",
	"hepatitis c":                            "Hepatologist",
	"hepatitis d":                            "Hepatologist",
	"hepatitis e":                            "Hepatologist",
	"alcoholic hepatitis":                    "Hepatologist",
	"tuberculosis":                           "Pulmonologist",
	"common cold":                            "General Physician",
	"pneumonia":                              "Pulmonologist",
	"dimorphic hemmorhoids(piles)":           "Proctologist",
	"heart attack":                           "Cardiologist",
	"varicose veins":                         "Vascular Surgeon",
	"hypothyroidism":                         "Endocrinologist",
	"hyperthyroidism":                        "Endocrinologist",
	"hypoglycemia":                           "Endocrinologist",
	"osteoarthristis":                        "Orthopedist",
	"arthritis":                              "Rheumatologist",
	"(vertigo) paroymsal positional vertigo": "ENT Specialist",
	"acne":                                   "Dermatologist",
	"urinary tract infection":                "Urologist",
	"psoriasis":                              "Dermatologist",
	"impetigo":                               "Dermatologist",
}

// SpecialityFor returns the specialist for a condition label.
func SpecialityFor(disease string) (string, bool) {
	spec, ok := specializations[util.NormalizeLabel(disease)]
	return spec, ok
}

// Result is the referral reply: message parts in order plus an optional map payload.
type Result struct {
	Parts   []string
	MapData *models.MapData
}

// Referrer builds referrals from a doctor directory. A nil directory behaves as an empty one.
type Referrer struct {
	dir directory.Directory
}

// New returns a Referrer over dir.
func New(dir directory.Directory) *Referrer {
	return &Referrer{dir: dir}
}

// Refer never fails; lookup problems degrade to an explanatory message.
// name is the user's display name, used in the no-mapping apology.
func (r *Referrer) Refer(ctx context.Context, disease, name string) Result {
	title := util.Title(disease)
	spec, ok := SpecialityFor(disease)
	if !ok {
		slog.Info("Referrer.Refer: no speciality mapping", "disease", disease)
		return Result{Parts: []string{fmt.Sprintf(
			"I'm sorry, %s, I couldn't immediately find doctors specifically listed for '%s' or its related specialty in my current database.",
			name, title)}}
	}

	var doctors []models.Doctor
	if r.dir != nil {
		found, err := r.dir.FindBySpeciality(ctx, spec)
		if err != nil {
			slog.Error("Referrer.Refer: directory lookup failed", "error", err, "speciality", spec)
		} else {
			doctors = found
		}
	}
	if len(doctors) == 0 {
		slog.Info("Referrer.Refer: no doctors for speciality", "disease", disease, "speciality", spec)
		return Result{Parts: []string{fmt.Sprintf(
			"While a **%s** would be suitable for **%s**, I don't have specific doctors listed under that exact specialty title with location data in my current BD database. You may need to search more broadly or consult a general physician for a referral.",
			spec, title)}}
	}
	if len(doctors) > MaxDoctors {
		doctors = doctors[:MaxDoctors]
	}

	parts := []string{fmt.Sprintf(
		"For a condition like **%s**, you would typically consult a **%s**. Here are a few doctors listed with that or a similar specialty in Bangladesh. I can also show them on a map.",
		title, spec)}
	var markers []models.MapDoctor
	for i, d := range doctors {
		parts = append(parts, Card(i+1, d))
		if d.HasCoordinates() {
			markers = append(markers, Marker(d))
		}
	}

	res := Result{}
	if len(markers) > 0 {
		res.MapData = &models.MapData{Doctors: markers}
		parts = append(parts, "Check the map display for their locations.")
	} else {
		parts = append(parts, "I found some doctors, but unfortunately, I don't have location data for them to display on a map.")
	}
	res.Parts = append(parts, "It's always best to call ahead to confirm availability and suitability.")
	slog.Debug("Referrer.Refer: referral built", "disease", disease, "speciality", spec, "doctors", len(doctors))
	return res
}

// Card renders one doctor as a numbered text block.
func Card(n int, d models.Doctor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d. **%s**\n_%s_\nHospital: %s\nAddress: %s", n, d.Name, d.Speciality, d.Hospital, d.Address)
	if d.Number != "" {
		fmt.Fprintf(&b, "\nPhone: %s", d.Number)
	}
	return b.String()
}

// Marker converts a doctor with coordinates into a map marker.
func Marker(d models.Doctor) models.MapDoctor {
	contact := d.Number
	if contact == "" {
		contact = directory.UnknownField
	}
	image := d.Image
	if image == "" {
		image = directory.PlaceholderImage
	}
	m := models.MapDoctor{
		Name:       d.Name,
		Speciality: d.Speciality,
		Hospital:   d.Hospital,
		Address:    d.Address,
		Contact:    contact,
		Image:      image,
	}
	if d.Latitude != nil {
		m.Lat = *d.Latitude
	}
	if d.Longitude != nil {
		m.Lng = *d.Longitude
	}
	return m
}
