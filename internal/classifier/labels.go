package classifier

// Labels is the model's output order. The training pipeline label-encoded the
// classes alphabetically, so position i of the probability vector is Labels[i].
var Labels = []string{"Benign", "Early", "Pre", "Pro"}

// IsLabel reports whether s is one of Labels.
func IsLabel(s string) bool {
	for _, l := range Labels {
		if l == s {
			return true
		}
	}
	return false
}
