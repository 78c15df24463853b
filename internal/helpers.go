package internal

// Panics if given non-nil error.
// Reserved for metadata table reads, which fail only on a corrupt file or
// an out of range row, neither of which the loaders can recover from.
func PanicOnError(err error) {
	if err != nil {
		panic(err)
	}
}
