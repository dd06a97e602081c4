package output

import (
	"fmt"
	"io"

	"hashvet/registry"
	"hashvet/reputation"
)

// PrintVerdict emits the human-readable verdict lines for one unique
// digest: either potentially malicious with the flagging-engine count,
// not recognized as malicious, or no data when no lookup succeeded.
// The raw service response is echoed unmodified.
func PrintVerdict(w io.Writer, e *registry.Entity, threshold float64) {
	agg := &e.Reputation
	switch agg.Verdict(threshold) {
	case reputation.VerdictMalicious:
		fmt.Fprintf(w, "Potentially malicious hash %s for the following files: %v\n", e.Digest, e.Paths)
		fmt.Fprintf(w, "%d of %d engines identified this content as malicious.\n", agg.Positives(), agg.TotalScanners())
		fmt.Fprintf(w, "Raw result: %s\n", agg.Raw())
	case reputation.VerdictBenign:
		fmt.Fprintf(w, "%v not recognized as malicious\n", e.Paths)
		fmt.Fprintf(w, "Raw result: %s\n", agg.Raw())
	default:
		fmt.Fprintf(w, "No reputation data for hash %s (files: %v)\n", e.Digest, e.Paths)
		if len(agg.Raw()) > 0 {
			fmt.Fprintf(w, "Raw result: %s\n", agg.Raw())
		}
	}
}
