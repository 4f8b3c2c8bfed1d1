package scatter

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/scatter/dataset"
	"github.com/gogpu/scatter/scale"
)

const testTextureSize = 16

func testTable(t *testing.T) *dataset.Table {
	t.Helper()
	seq := make([]float64, 8)
	for i := range seq {
		seq[i] = float64(i * 15 / 7)
	}
	tab, err := dataset.NewBuilder().
		Add(dataset.Field{Name: "mass", Type: dataset.TypeFloat},
			[]float64{3, 1, 4, 1, 5, 9, 2, math.NaN()}).
		Add(dataset.Field{Name: "seq", Type: dataset.TypeInt}, seq).
		Add(dataset.Field{
			Name:     "when",
			Type:     dataset.TypeTimestamp,
			Metadata: map[string]string{dataset.MetadataExtent: `["2024-01-01", "2024-01-02"]`},
		}, make([]float64, 8)).
		Add(dataset.Field{
			Name:     "score",
			Type:     dataset.TypeFloat,
			Metadata: map[string]string{dataset.MetadataExtent: `[-5, 5]`},
		}, make([]float64, 8)).
		AddDictionary(dataset.Field{Name: "letter"},
			[]string{"a", "b", "c", "a", "b", "c", "a", "b"}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return tab
}

func newTestEncoder(t *testing.T, data dataset.Dataset) *Encoder {
	t.Helper()
	enc, err := New(data, WithTextureSize(testTextureSize))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return enc
}

func TestDefaults(t *testing.T) {
	enc := newTestEncoder(t, testTable(t))
	tests := []struct {
		kind      Kind
		domain    Extent
		rng       Extent
		constant  float64
		transform scale.Transform
	}{
		{Size, Extent{0, 10}, Extent{0, 1}, 1.5, scale.Sqrt},
		{X, Extent{-1, 1}, Extent{-1, 1}, 0, scale.Literal},
		{Y0, Extent{-1, 1}, Extent{-1, 1}, 0, scale.Literal},
		{Filter, Extent{0, 1}, Extent{0, 1}, 1, scale.Linear},
		{JitterSpeed, Extent{0, 1}, Extent{0, 1}, 0, scale.Linear},
		{JitterRadius, Extent{0, 1}, Extent{0, 1}, 0, scale.Sqrt},
	}
	for _, tt := range tests {
		a := enc.Aesthetic(tt.kind)
		if a.Domain() != tt.domain || a.Range() != tt.rng || a.Constant() != tt.constant || a.Transform() != tt.transform {
			t.Errorf("%s defaults = %v %v %v %v, want %v %v %v %v", tt.kind,
				a.Domain(), a.Range(), a.Constant(), a.Transform(),
				tt.domain, tt.rng, tt.constant, tt.transform)
		}
		if got, want := a.Encoding(), Channel(ConstantChannel{Constant: tt.constant}); got != want {
			t.Errorf("%s encoding = %#v, want %#v", tt.kind, got, want)
		}
	}
}

func TestUpdate_NullIsIdempotent(t *testing.T) {
	enc := newTestEncoder(t, testTable(t))
	size := enc.Aesthetic(Size)

	if err := size.Update(map[string]any{"field": "mass", "transform": "log"}); err != nil {
		t.Fatal(err)
	}
	if err := size.Update(nil); err != nil {
		t.Fatal(err)
	}
	once := size.State()
	onceEnc := size.Encoding()

	if err := size.Update("null"); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(once, size.State()); diff != "" {
		t.Errorf("state after second reset differs (-once +twice):\n%s", diff)
	}
	if size.Encoding() != onceEnc {
		t.Errorf("encoding = %#v, want %#v", size.Encoding(), onceEnc)
	}
	if size.Field() != "" || size.Transform() != scale.Sqrt {
		t.Errorf("reset left field %q transform %q", size.Field(), size.Transform())
	}
}

func TestUpdate_UndefinedIsNoop(t *testing.T) {
	enc := newTestEncoder(t, testTable(t))
	size := enc.Aesthetic(Size)
	if err := size.Update(map[string]any{"field": "mass"}); err != nil {
		t.Fatal(err)
	}
	before, version := size.State(), size.Version()

	if err := size.Update(Undefined); err != nil {
		t.Fatalf("Update(Undefined) error = %v", err)
	}
	if size.Version() != version {
		t.Errorf("version moved from %d to %d", version, size.Version())
	}
	if diff := cmp.Diff(before, size.State()); diff != "" {
		t.Errorf("state changed (-before +after):\n%s", diff)
	}
}

func TestUpdate_Shorthands(t *testing.T) {
	enc := newTestEncoder(t, testTable(t))
	size := enc.Aesthetic(Size)

	if err := size.Update("mass"); err != nil {
		t.Fatal(err)
	}
	if size.Field() != "mass" || size.Domain() != (Extent{1, 9}) {
		t.Errorf("field shorthand: field %q domain %v, want mass [1 9]", size.Field(), size.Domain())
	}

	if err := size.Update(3); err != nil {
		t.Fatal(err)
	}
	if size.Field() != "" || size.Constant() != 3 {
		t.Errorf("number: field %q constant %v, want \"\" 3", size.Field(), size.Constant())
	}

	if err := size.Update(map[string]any{}); err != nil {
		t.Fatal(err)
	}
	if size.Constant() != 1.5 {
		t.Errorf("empty map did not reset: constant %v", size.Constant())
	}
}

func TestUpdate_InvalidatesScale(t *testing.T) {
	enc := newTestEncoder(t, testTable(t))
	size := enc.Aesthetic(Size)

	if err := size.Update(map[string]any{"field": "mass", "domain": []any{0, 100}, "range": []any{0, 1}, "transform": "linear"}); err != nil {
		t.Fatal(err)
	}
	s1, err := size.Scale()
	if err != nil {
		t.Fatal(err)
	}
	if again, _ := size.Scale(); again != s1 {
		t.Error("Scale() rebuilt without an encoding change")
	}

	if err := size.Update(map[string]any{"field": "mass", "domain": []any{0, 100}, "range": []any{0, 1}, "transform": "sqrt"}); err != nil {
		t.Fatal(err)
	}
	s2, err := size.Scale()
	if err != nil {
		t.Fatal(err)
	}
	if got := s2.Map(25); got != 0.5 {
		t.Errorf("scale after update Map(25) = %v, want 0.5 (stale scale?)", got)
	}
}

func TestUpdate_DomainNeedsRange(t *testing.T) {
	enc := newTestEncoder(t, testTable(t))
	size := enc.Aesthetic(Size)

	if err := size.Update(map[string]any{"field": "mass", "domain": []any{0, 100}}); err != nil {
		t.Fatal(err)
	}
	if got := size.Domain(); got != (Extent{1, 9}) {
		t.Errorf("domain without range = %v, want inferred [1 9]", got)
	}
	if got := size.Range(); got != (Extent{0, 1}) {
		t.Errorf("range = %v, want default [0 1]", got)
	}

	if err := size.Update(map[string]any{"field": "mass", "domain": []any{0, 100}, "range": []any{0, 2}}); err != nil {
		t.Fatal(err)
	}
	if size.Domain() != (Extent{0, 100}) || size.Range() != (Extent{0, 2}) {
		t.Errorf("explicit domain and range = %v %v, want [0 100] [0 2]", size.Domain(), size.Range())
	}
}

func TestUpdate_MissingColumnBeforeLoad(t *testing.T) {
	var loader dataset.Loader
	enc := newTestEncoder(t, &loader)
	filter := enc.Aesthetic(Filter)

	if err := filter.Update(map[string]any{"field": "later", "op": "gt", "a": 1}); err != nil {
		t.Fatalf("binding before load = %v, want nil", err)
	}
	if filter.Field() != "later" {
		t.Errorf("field = %q, want later", filter.Field())
	}
}

func TestScale_Transforms(t *testing.T) {
	enc := newTestEncoder(t, testTable(t))
	size := enc.Aesthetic(Size)
	tests := []struct {
		transform string
		in, want  float64
	}{
		{"linear", 50, 0.5},
		{"sqrt", 25, 0.5},
		{"literal", 42, 42},
		{"literal", -7, -7},
	}
	for _, tt := range tests {
		err := size.Update(map[string]any{
			"field": "mass", "domain": []any{0, 100}, "range": []any{0, 1}, "transform": tt.transform,
		})
		if err != nil {
			t.Fatal(err)
		}
		s, err := size.Scale()
		if err != nil {
			t.Fatal(err)
		}
		if got := s.Map(tt.in); got != tt.want {
			t.Errorf("%s Map(%v) = %v, want %v", tt.transform, tt.in, got, tt.want)
		}
	}
}

func TestInferDomain(t *testing.T) {
	tab := testTable(t)
	enc := newTestEncoder(t, tab)
	size := enc.Aesthetic(Size)

	tests := []struct {
		field string
		want  Extent
	}{
		{"", Extent{1, 1}},
		{"mass", Extent{1, 9}},
		{"letter", Extent{-2047, testTextureSize/2 - 1}},
		{"when", Extent{1704067200000, 1704153600000}},
		{"score", Extent{-5, 5}},
	}
	for _, tt := range tests {
		got, err := size.InferDomain(tt.field)
		if err != nil {
			t.Errorf("InferDomain(%q) error = %v", tt.field, err)
			continue
		}
		if got != tt.want {
			t.Errorf("InferDomain(%q) = %v, want %v", tt.field, got, tt.want)
		}
	}
	if n := tab.Scans("score"); n != 0 {
		t.Errorf("metadata extent scanned the column %d times", n)
	}

	if _, err := size.InferDomain("missing"); !errors.Is(err, ErrMissingColumn) {
		t.Errorf("InferDomain(missing) error = %v, want ErrMissingColumn", err)
	}
}

func TestInferDomain_CacheStable(t *testing.T) {
	tab := testTable(t)
	enc := newTestEncoder(t, tab)
	size := enc.Aesthetic(Size)

	first, err := size.InferDomain("mass")
	if err != nil {
		t.Fatal(err)
	}
	second, err := size.InferDomain("mass")
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("domains differ: %v then %v", first, second)
	}
	if n := tab.Scans("mass"); n != 1 {
		t.Errorf("column scanned %d times, want 1", n)
	}

	// Re-encoding the same field and switching away keeps the cache.
	for _, enc := range []any{map[string]any{"field": "mass"}, map[string]any{"field": "seq"}, nil, "mass"} {
		if err := size.Update(enc); err != nil {
			t.Fatal(err)
		}
	}
	if n := tab.Scans("mass"); n != 1 {
		t.Errorf("column scanned %d times after re-encoding, want 1", n)
	}

	size.Reset()
	if _, err := size.InferDomain("mass"); err != nil {
		t.Fatal(err)
	}
	if n := tab.Scans("mass"); n != 2 {
		t.Errorf("column scanned %d times after Reset, want 2", n)
	}
}

func TestInferDomain_NotLoaded(t *testing.T) {
	var loader dataset.Loader
	enc := newTestEncoder(t, &loader)
	size := enc.Aesthetic(Size)

	got, err := size.InferDomain("mass")
	if err != nil || got != (Extent{1, 1}) {
		t.Fatalf("InferDomain before load = %v, %v, want [1 1], nil", got, err)
	}

	loader.Load(testTable(t))
	got, err = size.InferDomain("mass")
	if err != nil || got != (Extent{1, 9}) {
		t.Errorf("InferDomain after load = %v, %v, want [1 9], nil", got, err)
	}
}

func TestUpdate_Errors(t *testing.T) {
	enc := newTestEncoder(t, testTable(t))
	size := enc.Aesthetic(Size)
	if err := size.Update(map[string]any{"field": "mass", "transform": "log"}); err != nil {
		t.Fatal(err)
	}
	before := size.State()

	tests := []struct {
		name string
		enc  any
		want error
	}{
		{"missing column", map[string]any{"field": "nope"}, ErrMissingColumn},
		{"missing column with explicit scale", map[string]any{"field": "nope", "domain": []any{0, 1}, "range": []any{0, 1}}, ErrMissingColumn},
		{"missing op column", map[string]any{"field": "nope", "op": "gt", "a": 1}, ErrMissingColumn},
		{"missing lambda column", map[string]any{"field": "nope", "lambda": "d => d"}, ErrMissingColumn},
		{"malformed lambda", map[string]any{"field": "mass", "lambda": "d * 2"}, ErrMalformedLambda},
		{"sandboxed lambda", map[string]any{"field": "mass", "lambda": "d => process.exit(1)"}, ErrMalformedLambda},
		{"bad transform", map[string]any{"field": "mass", "transform": "cubic"}, ErrInvalidChannel},
		{"unknown key", map[string]any{"field": "mass", "colour": "red"}, ErrInvalidChannel},
		{"within without b", map[string]any{"field": "mass", "op": "within", "a": 1}, ErrInvalidChannel},
		{"jitter on size", map[string]any{"method": "spiral"}, ErrInvalidChannel},
		{"bool", true, ErrInvalidChannel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := size.Update(tt.enc)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Update() error = %v, want %v", err, tt.want)
			}
			if diff := cmp.Diff(before, size.State()); diff != "" {
				t.Errorf("failed update changed state (-before +after):\n%s", diff)
			}
		})
	}
}

func TestUpdate_Jitter(t *testing.T) {
	enc := newTestEncoder(t, testTable(t))
	js := enc.Aesthetic(JitterSpeed)
	if err := js.Update(map[string]any{"method": "spiral"}); err != nil {
		t.Fatal(err)
	}
	if js.Jitter() != JitterSpiral || js.State().JitterMethod.Code() != 1 {
		t.Errorf("jitter = %v, want spiral (code 1)", js.Jitter())
	}
	if err := js.Update(map[string]any{"method": "wobble"}); !errors.Is(err, ErrInvalidChannel) {
		t.Errorf("unknown method error = %v, want ErrInvalidChannel", err)
	}
}

func TestTexture_RoundTrip(t *testing.T) {
	const n = testTextureSize
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = float64(i)
	}
	tab, err := dataset.NewBuilder().
		Add(dataset.Field{Name: "v", Type: dataset.TypeFloat}, vals).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	enc := newTestEncoder(t, tab)
	size := enc.Aesthetic(Size)

	if err := size.Update(map[string]any{"field": "v", "lambda": "d => d * 2"}); err != nil {
		t.Fatal(err)
	}
	if size.Domain() != (Extent{0, n - 1}) {
		t.Fatalf("domain = %v, want [0 %d]", size.Domain(), n-1)
	}

	idx := scale.Index(n, [2]float64{0, n - 1})
	want := make([]float32, n)
	for i := range want {
		want[i] = float32(2 * idx.Map(float64(i)))
	}
	if diff := cmp.Diff(want, size.Texture()); diff != "" {
		t.Errorf("texture mismatch (-want +got):\n%s", diff)
	}

	row, err := enc.Atlas().Row(size.ID())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, row); diff != "" {
		t.Errorf("atlas row mismatch (-want +got):\n%s", diff)
	}

	st := size.State()
	if !st.UseAtlasSlot || st.AtlasPosition < 0 {
		t.Errorf("State() UseAtlasSlot %v AtlasPosition %d, want true and a slot", st.UseAtlasSlot, st.AtlasPosition)
	}
}

func TestTexture_Dictionary(t *testing.T) {
	enc := newTestEncoder(t, testTable(t))
	size := enc.Aesthetic(Size)

	if err := size.Update(map[string]any{"field": "letter", "lambda": "d => d.length"}); err != nil {
		t.Fatal(err)
	}
	want := make([]float32, testTextureSize)
	want[0], want[1], want[2] = 1, 1, 1
	if diff := cmp.Diff(want, size.Texture()); diff != "" {
		t.Errorf("texture mismatch (-want +got):\n%s", diff)
	}
	if got := size.State().WebGLDomain; got != (Extent{0, testTextureSize - 1}) {
		t.Errorf("WebGLDomain = %v, want [0 %d]", got, testTextureSize-1)
	}
}

func TestTexture_Placeholder(t *testing.T) {
	var loader dataset.Loader
	enc := newTestEncoder(t, &loader)
	size := enc.Aesthetic(Size)

	if err := size.Update(map[string]any{"field": "mass", "lambda": "d => d * 10"}); err != nil {
		t.Fatal(err)
	}
	for i, v := range size.Texture() {
		if v != 1 {
			t.Fatalf("slot %d = %v before load, want 1", i, v)
		}
	}

	loader.Load(testTable(t))
	if err := enc.Refresh(); err != nil {
		t.Fatal(err)
	}
	tex := size.Texture()
	if tex[0] != 10 || tex[testTextureSize-1] != 90 {
		t.Errorf("after Refresh texture ends = %v, %v, want 10, 90", tex[0], tex[testTextureSize-1])
	}
}

func TestTexture_GoFunc(t *testing.T) {
	enc := newTestEncoder(t, testTable(t))
	radius := enc.Aesthetic(JitterRadius)
	err := radius.Update(LambdaChannel{Field: "mass", Func: func(d any) (any, error) { return 0.25, nil }})
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range radius.Texture() {
		if v != 0.25 {
			t.Fatalf("slot %d = %v, want 0.25", i, v)
		}
	}
}

func TestValue(t *testing.T) {
	enc := newTestEncoder(t, testTable(t))
	size := enc.Aesthetic(Size)

	if v, _ := size.Value(dataset.Row{"mass": 5.0}); v != 1.5 {
		t.Errorf("default Value = %v, want 1.5", v)
	}

	if err := size.Update(map[string]any{"field": "mass", "domain": []any{0, 10}, "range": []any{0, 1}, "transform": "linear"}); err != nil {
		t.Fatal(err)
	}
	if v, err := size.Value(dataset.Row{"mass": 5.0}); err != nil || v != 0.5 {
		t.Errorf("Value(mass=5) = %v, %v, want 0.5", v, err)
	}
	if v, _ := size.Value(dataset.Row{}); !math.IsNaN(v) {
		t.Errorf("Value(missing) = %v, want NaN", v)
	}

	if err := size.Update(map[string]any{"field": "mass", "lambda": "d => d + 1"}); err != nil {
		t.Fatal(err)
	}
	if v, err := size.Value(dataset.Row{"mass": 5.0}); err != nil || v != 6 {
		t.Errorf("lambda Value(mass=5) = %v, %v, want 6", v, err)
	}
}

func TestScale_Dictionary(t *testing.T) {
	enc := newTestEncoder(t, testTable(t))
	size := enc.Aesthetic(Size)
	if err := size.Update(map[string]any{"field": "letter"}); err != nil {
		t.Fatal(err)
	}
	s, err := size.Scale()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*scale.Ordinal); !ok {
		t.Fatalf("Scale() = %T, want *scale.Ordinal", s)
	}
	for label, want := range map[string]float64{"a": 0, "b": 1, "c": 0} {
		if v, err := size.Value(dataset.Row{"letter": label}); err != nil || v != want {
			t.Errorf("Value(letter=%s) = %v, %v, want %v", label, v, err, want)
		}
	}
}
