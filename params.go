package xembed

// ValuesFromParameters reduces a parameter list to the name -> values mapping
// the wire carries. Later duplicates of a name win.
func ValuesFromParameters(params []Parameter) map[string][]string {
	out := make(map[string][]string, len(params))
	for _, p := range params {
		values := make([]string, len(p.Values))
		copy(values, p.Values)
		out[p.Name] = values
	}
	return out
}

// ParametersFromValues expands a name -> values mapping back into a parameter
// list in deterministic name order. The round trip through
// ValuesFromParameters preserves every Name -> Values pair exactly.
func ParametersFromValues(values map[string][]string) []Parameter {
	out := make([]Parameter, 0, len(values))
	for _, name := range sortedKeys(values) {
		vs := make([]string, len(values[name]))
		copy(vs, values[name])
		out = append(out, Parameter{Name: name, Values: vs})
	}
	return out
}
