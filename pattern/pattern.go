package pattern

// Emphasis is the stress level of a single sub-beat.
type Emphasis int

const (
	Plain  Emphasis = 0
	Accent Emphasis = 1
)

// Sequence is the flattened accent/plain pattern for one measure, one entry
// per sub-beat.
type Sequence []Emphasis

// Compile flattens subdivision counts into an emphasis sequence. Each group
// of v sub-beats becomes one accent followed by v-1 plain entries.
// Non-positive group sizes are dropped. The result is never empty: input that
// filters down to nothing compiles to a single accented beat per measure.
func Compile(subdivisions []int) Sequence {
	var seq Sequence
	for _, v := range subdivisions {
		if v <= 0 {
			continue
		}
		seq = append(seq, Accent)
		for i := 1; i < v; i++ {
			seq = append(seq, Plain)
		}
	}
	if len(seq) == 0 {
		return Sequence{Accent}
	}
	return seq
}
