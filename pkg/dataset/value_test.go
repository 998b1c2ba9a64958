package dataset

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func TestValueKinds(t *testing.T) {
	ts := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		v    Value
		kind Kind
	}{
		{"null", Null(), KindNull},
		{"zero value is null", Value{}, KindNull},
		{"string", String("hello"), KindString},
		{"number", Number(42.5), KindNumber},
		{"bool", Bool(true), KindBool},
		{"time", Time(ts), KindTime},
		{"sequence", Sequence([]Value{Number(1)}), KindSequence},
		{"mapping", Mapping(map[string]Value{"a": Number(1)}), KindMapping},
		{"nan collapses to null", Number(math.NaN()), KindNull},
		{"inf collapses to null", Number(math.Inf(1)), KindNull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Kind(); got != tt.kind {
				t.Errorf("Kind() = %v, want %v", got, tt.kind)
			}
		})
	}
}

func TestValueDisplayString(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"null is empty", Null(), ""},
		{"string", String("Alpha"), "Alpha"},
		{"integer-valued number", Number(12), "12"},
		{"fractional number", Number(12.5), "12.5"},
		{"no trailing zeros", Number(3.10), "3.1"},
		{"bool", Bool(false), "false"},
		{"time shows date part", Time(time.Date(2024, 1, 5, 13, 45, 0, 0, time.UTC)), "2024-01-05"},
		{"sequence", Sequence([]Value{String("a"), Number(2)}), "[a, 2]"},
		{"mapping sorts keys", Mapping(map[string]Value{"b": Number(2), "a": Number(1)}), "{a=1, b=2}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.DisplayString(); got != tt.want {
				t.Errorf("DisplayString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValueCoerce(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want float64
	}{
		{"number passes through", Number(7.25), 7.25},
		{"null is zero", Null(), 0},
		{"numeric string parses", String("12.5"), 12.5},
		{"padded numeric string parses", String(" 3 "), 3},
		{"non-numeric string is zero", String("abc"), 0},
		{"true is one", Bool(true), 1},
		{"false is zero", Bool(false), 0},
		{"time is zero", Time(time.Now()), 0},
		{"sequence is zero", Sequence(nil), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Coerce(); got != tt.want {
				t.Errorf("Coerce() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValueMarshalJSON(t *testing.T) {
	ts := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"null", Null(), `null`},
		{"string", String("x"), `"x"`},
		{"number", Number(2.5), `2.5`},
		{"bool", Bool(true), `true`},
		{"time as RFC3339", Time(ts), `"2024-03-15T10:30:00Z"`},
		{"sequence", Sequence([]Value{Number(1), String("a")}), `[1,"a"]`},
		{"nil sequence is empty array", Sequence(nil), `[]`},
		{"mapping", Mapping(map[string]Value{"k": Bool(false)}), `{"k":false}`},
		{"nil mapping is empty object", Mapping(nil), `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.v)
			if err != nil {
				t.Fatalf("Marshal() error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestValueMarshalUnknownKind(t *testing.T) {
	v := Value{kind: Kind(99)}
	if _, err := json.Marshal(v); err == nil {
		t.Error("expected error for unknown kind, got nil")
	}
}

func TestValueUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  Kind
		show  string
	}{
		{"null", `null`, KindNull, ""},
		{"string stays string", `"2024-01-05"`, KindString, "2024-01-05"},
		{"number", `3.5`, KindNumber, "3.5"},
		{"large integer keeps precision", `9007199254740993`, KindNumber, "9007199254740992"},
		{"bool", `true`, KindBool, "true"},
		{"array", `[1,"a"]`, KindSequence, "[1, a]"},
		{"object", `{"a":1}`, KindMapping, "{a=1}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v Value
			if err := json.Unmarshal([]byte(tt.input), &v); err != nil {
				t.Fatalf("Unmarshal(%s) error: %v", tt.input, err)
			}
			if v.Kind() != tt.kind {
				t.Errorf("Kind() = %v, want %v", v.Kind(), tt.kind)
			}
			if got := v.DisplayString(); got != tt.show {
				t.Errorf("DisplayString() = %q, want %q", got, tt.show)
			}
		})
	}
}

func TestValueAccessors(t *testing.T) {
	if _, ok := String("x").AsNumber(); ok {
		t.Error("AsNumber on string should not be ok")
	}
	if n, ok := Number(4).AsNumber(); !ok || n != 4 {
		t.Errorf("AsNumber() = %v, %v, want 4, true", n, ok)
	}
	if s, ok := String("x").AsString(); !ok || s != "x" {
		t.Errorf("AsString() = %v, %v, want x, true", s, ok)
	}
	ts := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	if got, ok := Time(ts).AsTime(); !ok || !got.Equal(ts) {
		t.Errorf("AsTime() = %v, %v", got, ok)
	}
	if !Null().IsNull() {
		t.Error("Null().IsNull() = false")
	}
	if String("").IsNull() {
		t.Error("empty string should not be null")
	}
}
