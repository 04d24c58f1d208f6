// Package score derives a coarse lead temperature from questionnaire answers.
package score

import (
	"strings"

	"github.com/rksstudio/detailbot/internal/catalog"
	"github.com/rksstudio/detailbot/internal/domain"
)

// Signal weights and bucket thresholds. These are policy, not physics:
// tune with the sales team, keep the function pure.
const (
	weightUrgentNow   = 2
	weightUrgentWeek  = 1
	weightPhone       = 1
	weightMultiSvc    = 1
	weightValuableSet = 1

	hotThreshold  = 3
	warmThreshold = 1
)

// strong urgency: the client wants the car in the shop within a day or two.
var urgentNowWords = []string{"сегодня", "завтра", "сейчас", "срочно"}

// medium urgency: within the week.
var urgentWeekWords = []string{"недел", "выходн", "суббот", "воскрес"}

// Input is everything the scorer looks at. It is deliberately small so two
// sessions with the same services, urgency class and phone presence always
// land in the same bucket.
type Input struct {
	ServiceCodes []string
	WhenText     string
	HasPhone     bool
}

// FromLead extracts the scorer input from a finished lead.
func FromLead(lead *domain.Lead) Input {
	return Input{
		ServiceCodes: lead.ServiceCodes(),
		WhenText:     lead.WhenText,
		HasPhone:     lead.HasPhone(),
	}
}

// Score buckets the summed signals into hot/warm/cold.
func Score(in Input) domain.Temperature {
	total := urgencyWeight(in.WhenText)

	if in.HasPhone {
		total += weightPhone
	}
	if len(in.ServiceCodes) >= 2 {
		total += weightMultiSvc
	}
	if hasValuablePair(in.ServiceCodes) {
		total += weightValuableSet
	}

	switch {
	case total >= hotThreshold:
		return domain.TemperatureHot
	case total >= warmThreshold:
		return domain.TemperatureWarm
	default:
		return domain.TemperatureCold
	}
}

func urgencyWeight(whenText string) int {
	text := strings.ToLower(whenText)
	for _, w := range urgentNowWords {
		if strings.Contains(text, w) {
			return weightUrgentNow
		}
	}
	for _, w := range urgentWeekWords {
		if strings.Contains(text, w) {
			return weightUrgentWeek
		}
	}
	return 0
}

// hasValuablePair reports the polish + protective coating combination,
// the studio's highest-margin package.
func hasValuablePair(codes []string) bool {
	var polish, protect bool
	for _, c := range codes {
		switch c {
		case catalog.CodePolish:
			polish = true
		case catalog.CodeProtect:
			protect = true
		}
	}
	return polish && protect
}
