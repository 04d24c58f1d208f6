package score

import (
	"testing"

	"github.com/rksstudio/detailbot/internal/catalog"
	"github.com/rksstudio/detailbot/internal/domain"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want domain.Temperature
	}{
		{
			name: "no signals is cold",
			in: Input{
				ServiceCodes: []string{catalog.CodeTint},
				WhenText:     "09.09 10:00",
			},
			want: domain.TemperatureCold,
		},
		{
			name: "phone alone is warm",
			in: Input{
				ServiceCodes: []string{catalog.CodeTint},
				WhenText:     "09.09 10:00",
				HasPhone:     true,
			},
			want: domain.TemperatureWarm,
		},
		{
			name: "urgent today alone is warm",
			in: Input{
				ServiceCodes: []string{catalog.CodeTint},
				WhenText:     "сегодня 18:00",
			},
			want: domain.TemperatureWarm,
		},
		{
			name: "urgent today plus phone is hot",
			in: Input{
				ServiceCodes: []string{catalog.CodeTint},
				WhenText:     "сегодня 18:00",
				HasPhone:     true,
			},
			want: domain.TemperatureHot,
		},
		{
			name: "week urgency plus phone is warm",
			in: Input{
				ServiceCodes: []string{catalog.CodeTint},
				WhenText:     "на выходных, суббота 11:00",
				HasPhone:     true,
			},
			want: domain.TemperatureWarm,
		},
		{
			name: "two services plus phone plus week urgency is hot",
			in: Input{
				ServiceCodes: []string{catalog.CodeTint, catalog.CodeGlass},
				WhenText:     "на неделе 11:00",
				HasPhone:     true,
			},
			want: domain.TemperatureHot,
		},
		{
			name: "polish and protect pair counts extra",
			in: Input{
				ServiceCodes: []string{catalog.CodePolish, catalog.CodeProtect},
				WhenText:     "09.09 10:00",
				HasPhone:     true,
			},
			// phone + two services + valuable pair = 3
			want: domain.TemperatureHot,
		},
		{
			name: "polish alone has no pair bonus",
			in: Input{
				ServiceCodes: []string{catalog.CodePolish},
				WhenText:     "09.09 10:00",
				HasPhone:     true,
			},
			want: domain.TemperatureWarm,
		},
		{
			name: "urgency words matched case insensitively",
			in: Input{
				ServiceCodes: []string{catalog.CodeTint},
				WhenText:     "Завтра 18:00",
			},
			want: domain.TemperatureWarm,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.in); got != tt.want {
				t.Errorf("Score() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScoreDeterministic(t *testing.T) {
	in := Input{
		ServiceCodes: []string{catalog.CodePolish, catalog.CodeProtect},
		WhenText:     "завтра 10:00",
		HasPhone:     true,
	}

	first := Score(in)
	for i := 0; i < 100; i++ {
		if got := Score(in); got != first {
			t.Fatalf("Score() changed between calls: %v then %v", first, got)
		}
	}
}

func TestFromLead(t *testing.T) {
	lead := domain.NewLead(42, "client")
	lead.Services = []domain.LeadService{
		{Code: catalog.CodePolish, Label: "Полировка"},
		{Code: catalog.CodeProtect, Label: "Защитные покрытия"},
	}
	lead.WhenText = "сегодня 18:00"
	lead.Phone = "+79991234567"

	in := FromLead(lead)
	if len(in.ServiceCodes) != 2 {
		t.Fatalf("ServiceCodes = %v, want 2 codes", in.ServiceCodes)
	}
	if !in.HasPhone {
		t.Error("HasPhone = false, want true")
	}
	if got := Score(in); got != domain.TemperatureHot {
		t.Errorf("Score(FromLead()) = %v, want %v", got, domain.TemperatureHot)
	}
}
