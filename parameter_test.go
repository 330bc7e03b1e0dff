package marionette

import "testing"

func TestParamSet_DefaultsClampedAtBuild(t *testing.T) {
	fake := newFakeRuntime()
	fake.params[0].def = 500 // out of [-30, 30]

	ps := newParamSet(fake)
	if got, _ := ps.Get("ParamAngleX"); got != 30 {
		t.Errorf("default-initialized value = %v, want 30", got)
	}
}

func TestParamSet_SetClampsToRange(t *testing.T) {
	ps := newParamSet(newFakeRuntime())

	ps.Set("ParamAngleX", 1000)
	if got, _ := ps.Get("ParamAngleX"); got != 30 {
		t.Errorf("over-max write = %v, want 30", got)
	}

	ps.Set("ParamAngleX", -1000)
	if got, _ := ps.Get("ParamAngleX"); got != -30 {
		t.Errorf("under-min write = %v, want -30", got)
	}

	ps.Set("ParamMouthOpen", 0.5)
	if got, _ := ps.Get("ParamMouthOpen"); got != 0.5 {
		t.Errorf("in-range write = %v, want 0.5", got)
	}
}

func TestParamSet_InvariantHoldsForAnyWrite(t *testing.T) {
	ps := newParamSet(newFakeRuntime())
	for _, v := range []float64{-1e9, -30.0001, 0, 29.9999, 1e9} {
		ps.Set("ParamAngleX", v)
		got, _ := ps.Get("ParamAngleX")
		p := ps.At(0)
		if got < p.Min || got > p.Max {
			t.Fatalf("write %v left value %v outside [%v, %v]", v, got, p.Min, p.Max)
		}
	}
}

func TestParamSet_UnknownParameter(t *testing.T) {
	ps := newParamSet(newFakeRuntime())
	if ps.Set("Nope", 1) {
		t.Errorf("Set on unknown parameter returned true")
	}
	if _, ok := ps.Get("Nope"); ok {
		t.Errorf("Get on unknown parameter returned ok")
	}
}

func TestParamSet_ResetRestoresDefault(t *testing.T) {
	ps := newParamSet(newFakeRuntime())
	ps.Set("ParamMouthOpen", 1)
	ps.Reset("ParamMouthOpen")
	if got, _ := ps.Get("ParamMouthOpen"); got != 0 {
		t.Errorf("after Reset = %v, want 0", got)
	}

	ps.Set("ParamAngleX", 10)
	ps.Set("ParamMouthOpen", 1)
	ps.ResetAll()
	for i := 0; i < ps.Len(); i++ {
		p := ps.At(i)
		if p.Value != clamp(p.Default, p.Min, p.Max) {
			t.Errorf("%s after ResetAll = %v, want default %v", p.ID, p.Value, p.Default)
		}
	}
}
