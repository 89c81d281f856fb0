package reviews

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/MarkoPoloResearchLab/reviewloop/internal/model"
)

const (
	personaMinimumAge      = 25
	personaMaximumAge      = 65
	recentReviewWindowDays = 30
)

// fabricatePersona draws an independent synthetic reviewer identity. Personas
// within one batch carry no uniqueness guarantee.
func fabricatePersona() model.Persona {
	return model.Persona{
		Name:       gofakeit.Name(),
		Age:        gofakeit.Number(personaMinimumAge, personaMaximumAge),
		Occupation: gofakeit.JobTitle(),
		Location:   fmt.Sprintf("%s, %s", gofakeit.City(), gofakeit.Country()),
	}
}

// recentReviewDate draws a timestamp within the last thirty days.
func recentReviewDate() time.Time {
	currentTime := time.Now().UTC()
	return gofakeit.DateRange(currentTime.AddDate(0, 0, -recentReviewWindowDays), currentTime)
}
