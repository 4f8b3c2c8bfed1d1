package scatter

import (
	"errors"
	"testing"

	"github.com/gogpu/scatter/dataset"
)

func TestOpsToArray(t *testing.T) {
	enc := newTestEncoder(t, testTable(t))
	filter := enc.Aesthetic(Filter)

	tests := []struct {
		enc  any
		want [3]float32
	}{
		{map[string]any{"field": "mass", "op": "within", "a": 5, "b": 2}, [3]float32{4, 5, 2}},
		{map[string]any{"field": "mass", "op": "gt", "a": 3}, [3]float32{2, 3, 0}},
		{map[string]any{"field": "mass", "op": "lt", "a": -1.5}, [3]float32{1, -1.5, 0}},
		{map[string]any{"field": "mass", "op": "eq", "a": 7}, [3]float32{3, 7, 0}},
		{map[string]any{"constant": 1}, [3]float32{0, 0, 0}},
		{map[string]any{"field": "mass", "lambda": "d => d > 2"}, [3]float32{0, 0, 0}},
		{nil, [3]float32{0, 0, 0}},
	}
	for _, tt := range tests {
		if err := filter.Update(tt.enc); err != nil {
			t.Fatalf("Update(%v) error = %v", tt.enc, err)
		}
		if got := filter.OpsToArray(); got != tt.want {
			t.Errorf("OpsToArray() after %v = %v, want %v", tt.enc, got, tt.want)
		}
	}
}

func TestApply_Eq(t *testing.T) {
	enc := newTestEncoder(t, testTable(t))
	if err := enc.Aesthetic(Filter).Update(map[string]any{"field": "mass", "op": "eq", "a": 7}); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		row  dataset.Row
		want bool
	}{
		{dataset.Row{"mass": 7.0}, true},
		{dataset.Row{"mass": 7}, true},
		{dataset.Row{"mass": 6.5}, false},
		{dataset.Row{"other": 7.0}, false},
		{dataset.Row{"mass": nil}, false},
	}
	for _, tt := range tests {
		got, err := enc.Filter(tt.row)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("Filter(%v) = %v, want %v", tt.row, got, tt.want)
		}
	}
}

func TestApply_Ops(t *testing.T) {
	enc := newTestEncoder(t, testTable(t))
	filter := enc.Aesthetic(Filter)
	tests := []struct {
		enc  map[string]any
		v    float64
		want bool
	}{
		{map[string]any{"field": "mass", "op": "gt", "a": 3}, 4, true},
		{map[string]any{"field": "mass", "op": "gt", "a": 3}, 3, false},
		{map[string]any{"field": "mass", "op": "lt", "a": 3}, 2, true},
		{map[string]any{"field": "mass", "op": "within", "a": 5, "b": 2}, 6.9, true},
		{map[string]any{"field": "mass", "op": "within", "a": 5, "b": 2}, 7, false},
		{map[string]any{"field": "mass", "op": "within", "a": 5, "b": 2}, 3.5, true},
	}
	for _, tt := range tests {
		if err := filter.Update(tt.enc); err != nil {
			t.Fatal(err)
		}
		got, err := filter.Apply(dataset.Row{"mass": tt.v})
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("%v Apply(mass=%v) = %v, want %v", tt.enc, tt.v, got, tt.want)
		}
	}
}

func TestApply_Constant(t *testing.T) {
	enc := newTestEncoder(t, testTable(t))
	filter := enc.Aesthetic(Filter)

	if ok, _ := filter.Apply(dataset.Row{}); !ok {
		t.Error("default filter rejected a row")
	}
	if err := filter.Update(0); err != nil {
		t.Fatal(err)
	}
	if ok, _ := filter.Apply(dataset.Row{}); ok {
		t.Error("constant 0 filter passed a row")
	}
}

func TestApply_Lambda(t *testing.T) {
	enc := newTestEncoder(t, testTable(t))
	filter := enc.Aesthetic(Filter)
	if err := filter.Update(map[string]any{"field": "letter", "lambda": "d => d === 'b' ? 1 : 0"}); err != nil {
		t.Fatal(err)
	}
	for label, want := range map[string]bool{"a": false, "b": true} {
		got, err := filter.Apply(dataset.Row{"letter": label})
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("Apply(letter=%s) = %v, want %v", label, got, want)
		}
	}
	if got, _ := filter.Apply(dataset.Row{}); got {
		t.Error("Apply() passed a row without the field")
	}
}

func TestApply_UnboundFunction(t *testing.T) {
	enc := newTestEncoder(t, testTable(t))
	filter := enc.Aesthetic(Filter)
	if err := filter.Update(LambdaChannel{Field: "mass"}); err != nil {
		t.Fatal(err)
	}
	if _, err := filter.Apply(dataset.Row{"mass": 1.0}); !errors.Is(err, ErrUnboundFunction) {
		t.Errorf("Apply() error = %v, want ErrUnboundFunction", err)
	}
}

func TestApply_UnboundField(t *testing.T) {
	enc := newTestEncoder(t, testTable(t))
	filter := enc.Aesthetic(Filter)
	if err := filter.Update(LambdaChannel{Lambda: "d => 1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := filter.Apply(dataset.Row{"mass": 1.0}); !errors.Is(err, ErrUnboundField) {
		t.Errorf("Apply() error = %v, want ErrUnboundField", err)
	}
}

func TestFilter_MissingColumn(t *testing.T) {
	enc := newTestEncoder(t, testTable(t))
	filter := enc.Aesthetic(Filter)
	if err := filter.Update(map[string]any{"field": "mass", "op": "gt", "a": 2}); err != nil {
		t.Fatal(err)
	}

	err := filter.Update(map[string]any{"field": "nope", "op": "gt", "a": 1})
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("Update() error = %v, want ErrMissingColumn", err)
	}
	if filter.Field() != "mass" {
		t.Errorf("field = %q after failed update, want mass", filter.Field())
	}
	ok, err := filter.Apply(dataset.Row{"mass": 3.0})
	if err != nil || !ok {
		t.Errorf("Apply(mass=3) = %v, %v, want true, nil", ok, err)
	}
}
