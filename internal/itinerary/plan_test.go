package itinerary

import (
	"errors"
	"strings"
	"testing"
)

func validPlan() *Plan {
	return &Plan{
		Destination: "Chengdu",
		Days:        2,
		DailyPlan: map[string][]Stop{
			"1": {
				{Time: "09:00-11:00", Attraction: "Panda Base", Address: "1375 Panda Rd", Transport: "metro line 3", Duration: "2h"},
				{Time: "13:00-15:00", Attraction: "Wenshu Monastery", Address: "66 Wenshuyuan St", Transport: "taxi, 15 min", Duration: "2h"},
			},
			"2": {
				{Time: "10:00-12:00", Attraction: "Kuanzhai Alley", Address: "Kuanzhai Xiangzi", Transport: "metro line 4", Duration: "2h"},
			},
		},
	}
}

func TestValidate_ValidPlan(t *testing.T) {
	if err := validPlan().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Violations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Plan)
		field  string
	}{
		{
			name:   "empty destination",
			mutate: func(p *Plan) { p.Destination = "" },
			field:  "destination",
		},
		{
			name:   "zero days",
			mutate: func(p *Plan) { p.Days = 0 },
			field:  "days",
		},
		{
			name:   "day count mismatch",
			mutate: func(p *Plan) { p.Days = 3 },
			field:  "daily_plan",
		},
		{
			name: "non-contiguous day keys",
			mutate: func(p *Plan) {
				p.DailyPlan["3"] = p.DailyPlan["2"]
				delete(p.DailyPlan, "2")
			},
			field: "daily_plan",
		},
		{
			name:   "empty day",
			mutate: func(p *Plan) { p.DailyPlan["2"] = nil },
			field:  "daily_plan.2",
		},
		{
			name:   "missing attraction",
			mutate: func(p *Plan) { p.DailyPlan["1"][0].Attraction = "" },
			field:  "daily_plan.1[0].attraction",
		},
		{
			name:   "missing transport",
			mutate: func(p *Plan) { p.DailyPlan["2"][0].Transport = "" },
			field:  "daily_plan.2[0].transport",
		},
		{
			name:   "malformed time window",
			mutate: func(p *Plan) { p.DailyPlan["1"][0].Time = "morning" },
			field:  "daily_plan.1[0].time",
		},
		{
			name:   "starts before daily window",
			mutate: func(p *Plan) { p.DailyPlan["1"][0].Time = "07:00-09:00" },
			field:  "daily_plan.1[0].time",
		},
		{
			name:   "ends after daily window",
			mutate: func(p *Plan) { p.DailyPlan["2"][0].Time = "16:30-18:30" },
			field:  "daily_plan.2[0].time",
		},
		{
			name:   "overlapping stops",
			mutate: func(p *Plan) { p.DailyPlan["1"][1].Time = "10:30-12:00" },
			field:  "daily_plan.1[1].time",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPlan()
			tt.mutate(p)

			err := p.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if verr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, verr.Field)
			}
		})
	}
}

func TestValidate_BoundaryTimes(t *testing.T) {
	p := validPlan()
	p.DailyPlan["1"][0].Time = "08:00-10:00"
	p.DailyPlan["1"][1].Time = "16:00-18:00"

	if err := p.Validate(); err != nil {
		t.Errorf("stops at the exact window edges should be valid, got %v", err)
	}
}

func TestValidate_BackToBackStops(t *testing.T) {
	p := validPlan()
	p.DailyPlan["1"][0].Time = "09:00-11:00"
	p.DailyPlan["1"][1].Time = "11:00-13:00"

	if err := p.Validate(); err != nil {
		t.Errorf("adjacent stops sharing a boundary should be valid, got %v", err)
	}
}

func TestParseTimeWindow(t *testing.T) {
	tests := []struct {
		window  string
		start   int
		end     int
		wantErr bool
	}{
		{window: "09:00-11:30", start: 540, end: 690},
		{window: "08:00-18:00", start: 480, end: 1080},
		{window: "9:05-10:00", start: 545, end: 600},
		{window: "11:00-09:00", wantErr: true},
		{window: "10:00-10:00", wantErr: true},
		{window: "25:00-26:00", wantErr: true},
		{window: "10:75-11:00", wantErr: true},
		{window: "morning", wantErr: true},
		{window: "", wantErr: true},
	}

	for _, tt := range tests {
		start, end, err := ParseTimeWindow(tt.window)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseTimeWindow(%q): expected error", tt.window)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTimeWindow(%q): unexpected error %v", tt.window, err)
			continue
		}
		if start != tt.start || end != tt.end {
			t.Errorf("ParseTimeWindow(%q) = (%d, %d), want (%d, %d)", tt.window, start, end, tt.start, tt.end)
		}
	}
}

func TestHasAttraction(t *testing.T) {
	p := validPlan()

	if !p.HasAttraction(1, "Panda Base") {
		t.Error("expected Panda Base on day 1")
	}
	if p.HasAttraction(2, "Panda Base") {
		t.Error("did not expect Panda Base on day 2")
	}
	if p.HasAttraction(5, "Panda Base") {
		t.Error("out-of-range day should have no attractions")
	}
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Field: "days", Reason: "must be >= 1, got 0"}
	if !strings.Contains(err.Error(), "days") {
		t.Errorf("error message should name the field: %q", err.Error())
	}
}
