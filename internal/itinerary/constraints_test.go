package itinerary

import "testing"

func TestConstraints_Validate(t *testing.T) {
	tests := []struct {
		name    string
		c       Constraints
		wantErr bool
	}{
		{
			name: "valid",
			c:    Constraints{Destination: "Chengdu", Days: 3, Budget: 5000},
		},
		{
			name: "boundaries",
			c:    Constraints{Destination: "Chengdu", Days: 10, Budget: 20000},
		},
		{
			name: "minimums",
			c:    Constraints{Destination: "Chengdu", Days: 1, Budget: 1000},
		},
		{
			name:    "empty destination",
			c:       Constraints{Days: 3, Budget: 5000},
			wantErr: true,
		},
		{
			name:    "zero days",
			c:       Constraints{Destination: "Chengdu", Days: 0, Budget: 5000},
			wantErr: true,
		},
		{
			name:    "too many days",
			c:       Constraints{Destination: "Chengdu", Days: 11, Budget: 5000},
			wantErr: true,
		},
		{
			name:    "budget below floor",
			c:       Constraints{Destination: "Chengdu", Days: 3, Budget: 999},
			wantErr: true,
		},
		{
			name:    "budget above ceiling",
			c:       Constraints{Destination: "Chengdu", Days: 3, Budget: 20001},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
