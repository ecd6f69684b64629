package idl

// Hash is the Candid field-id hash. It has to match every other Candid
// implementation bit for bit, since it decides wire ids for named fields.
func Hash(s string) uint32 {
	var h uint32
	for i := 0; i < len(s); i++ {
		h = h*223 + uint32(s[i])
	}
	return h
}
