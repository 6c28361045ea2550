package validation

import (
	"errors"
	"math"
	"strings"
	"testing"
)

type routeRecord struct {
	ID       string  `json:"id" validate:"entity_id"`
	Mode     string  `json:"mode" validate:"transport_mode"`
	Distance float64 `json:"distance_km" validate:"finite,gt=0"`
	Capacity float64 `json:"capacity" validate:"finite,gte=0"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name      string
		rec       routeRecord
		wantField string
	}{
		{
			name: "valid",
			rec:  routeRecord{ID: "R1", Mode: "road", Distance: 160, Capacity: 10},
		},
		{
			name:      "empty id",
			rec:       routeRecord{ID: "", Mode: "road", Distance: 1},
			wantField: "id",
		},
		{
			name:      "bad mode",
			rec:       routeRecord{ID: "R2", Mode: "teleport", Distance: 1},
			wantField: "mode",
		},
		{
			name:      "zero distance",
			rec:       routeRecord{ID: "R3", Mode: "rail", Distance: 0},
			wantField: "distance_km",
		},
		{
			name:      "NaN capacity",
			rec:       routeRecord{ID: "R4", Mode: "sea", Distance: 1, Capacity: math.NaN()},
			wantField: "capacity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.rec)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("ValidateStruct() = %v, want nil", err)
				}
				return
			}
			var fe *FieldError
			if !errors.As(err, &fe) {
				t.Fatalf("expected *FieldError, got %T (%v)", err, err)
			}
			if fe.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", fe.Field, tt.wantField)
			}
		})
	}
}

func TestValidateStruct_Nil(t *testing.T) {
	if err := ValidateStruct(nil); err == nil {
		t.Error("expected error for nil value")
	}
}

func TestValidateID(t *testing.T) {
	valid := []string{"Nairobi_DC", "R17", "dc-1", "node.a:b"}
	for _, id := range valid {
		if err := ValidateID(id); err != nil {
			t.Errorf("ValidateID(%q) = %v", id, err)
		}
	}

	invalid := []string{"", "_leading", "has space", strings.Repeat("x", MaxIDLength+1)}
	for _, id := range invalid {
		if err := ValidateID(id); err == nil {
			t.Errorf("ValidateID(%q) should fail", id)
		}
	}
}

func TestValidateStruct_Archetype(t *testing.T) {
	type scenarioRecord struct {
		Archetype string `json:"archetype" validate:"archetype"`
	}
	if err := ValidateStruct(&scenarioRecord{Archetype: "pandemic"}); err != nil {
		t.Fatalf("ValidateStruct() = %v", err)
	}
	err := ValidateStruct(&scenarioRecord{Archetype: "meteor"})
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Field != "archetype" {
		t.Fatalf("expected archetype field error, got %v", err)
	}
	if !strings.Contains(fe.Message, "natural_disaster") {
		t.Errorf("message should list archetypes: %q", fe.Message)
	}
}
