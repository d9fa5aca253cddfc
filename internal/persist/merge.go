package persist

// DeepMerge returns a copy of base with override applied on top. Nested
// objects are merged key by key; arrays and scalars in override replace the
// base value wholesale. Neither argument is modified.
func DeepMerge(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		src, srcIsMap := v.(map[string]any)
		dst, dstIsMap := out[k].(map[string]any)
		if srcIsMap && dstIsMap {
			out[k] = DeepMerge(dst, src)
			continue
		}
		out[k] = v
	}
	return out
}
