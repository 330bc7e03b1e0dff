package marionette

// Parameter is a named, bounded scalar driving the deformation runtime
// (e.g. mouth-open amount). The stored value always satisfies
// Min <= Value <= Max; writes clamp.
type Parameter struct {
	ID      string
	Value   float64
	Min     float64
	Max     float64
	Default float64
}

// ParamSet owns the parameters of one character runtime. It is built once at
// load from the runtime's declared ranges; values mutate every tick.
type ParamSet struct {
	params []Parameter
	index  map[string]int
}

// newParamSet reads the runtime's parameter table and initializes every
// value to its declared default (clamped, in case the model data disagrees
// with its own ranges).
func newParamSet(rt DeformationRuntime) *ParamSet {
	n := rt.ParameterCount()
	ps := &ParamSet{
		params: make([]Parameter, n),
		index:  make(map[string]int, n),
	}
	for i := 0; i < n; i++ {
		p := Parameter{
			ID:      rt.ParameterID(i),
			Min:     rt.ParameterMin(i),
			Max:     rt.ParameterMax(i),
			Default: rt.ParameterDefault(i),
		}
		p.Value = clamp(p.Default, p.Min, p.Max)
		ps.params[i] = p
		ps.index[p.ID] = i
	}
	return ps
}

// Len returns the number of parameters.
func (ps *ParamSet) Len() int { return len(ps.params) }

// At returns the parameter at index i.
func (ps *ParamSet) At(i int) Parameter { return ps.params[i] }

// Get returns the current value of the named parameter.
func (ps *ParamSet) Get(id string) (float64, bool) {
	i, ok := ps.index[id]
	if !ok {
		return 0, false
	}
	return ps.params[i].Value, true
}

// Set writes a value to the named parameter, clamped to [Min, Max].
// Returns false if the parameter does not exist.
func (ps *ParamSet) Set(id string, v float64) bool {
	i, ok := ps.index[id]
	if !ok {
		return false
	}
	p := &ps.params[i]
	p.Value = clamp(v, p.Min, p.Max)
	return true
}

// Reset restores the named parameter to its default value.
func (ps *ParamSet) Reset(id string) bool {
	i, ok := ps.index[id]
	if !ok {
		return false
	}
	p := &ps.params[i]
	p.Value = clamp(p.Default, p.Min, p.Max)
	return true
}

// ResetAll restores every parameter to its default value.
func (ps *ParamSet) ResetAll() {
	for i := range ps.params {
		p := &ps.params[i]
		p.Value = clamp(p.Default, p.Min, p.Max)
	}
}

// push writes all current values into the runtime. Called once per tick
// before the runtime's Update.
func (ps *ParamSet) push(rt DeformationRuntime) {
	for i := range ps.params {
		rt.SetParameterValue(i, ps.params[i].Value)
	}
}
