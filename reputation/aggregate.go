package reputation

// Verdict classifies one unique digest after the query phase.
type Verdict int

const (
	// VerdictUnknown means no successful lookup was recorded; the
	// service either did not know the hash or the query failed.
	VerdictUnknown Verdict = iota
	VerdictBenign
	VerdictMalicious
)

func (v Verdict) String() string {
	switch v {
	case VerdictBenign:
		return "benign"
	case VerdictMalicious:
		return "malicious"
	default:
		return "unknown"
	}
}

// DefaultThreshold is the flagging-engine ratio at and above which
// content is deemed potentially malicious.
const DefaultThreshold = 0.10

// responseCodeFound is the service's response_code for a known hash.
const responseCodeFound = 1

// Aggregate holds the raw reputation response for one digest and the
// engine counts distilled from it. The zero total defaults to one
// scanner so the ratio is well defined before any lookup succeeds.
type Aggregate struct {
	raw           []byte
	recorded      bool
	found         bool
	totalScanners int
	positives     int
	scanDate      string
}

// NewAggregate returns an aggregate with the pre-lookup defaults
// (one scanner consulted, zero positives).
func NewAggregate() Aggregate {
	return Aggregate{totalScanners: 1}
}

// Record stores the raw response body. Engine counts are adopted only
// when the response code marks a successful lookup; an unknown-hash
// response leaves the defaults untouched and the verdict stays unknown.
func (a *Aggregate) Record(raw []byte, rep Report) {
	a.raw = append([]byte(nil), raw...)
	a.recorded = true
	if rep.ResponseCode != responseCodeFound {
		return
	}
	a.found = true
	a.positives = rep.Positives
	a.scanDate = rep.ScanDate
	if rep.Total > 0 {
		a.totalScanners = rep.Total
	}
}

// Raw returns the stored response body unmodified.
func (a *Aggregate) Raw() []byte {
	return a.raw
}

// Found reports whether a successful lookup was recorded.
func (a *Aggregate) Found() bool {
	return a.found
}

// TotalScanners returns the number of engines consulted, at least 1.
func (a *Aggregate) TotalScanners() int {
	if a.totalScanners < 1 {
		return 1
	}
	return a.totalScanners
}

// Positives returns the number of engines flagging the content.
func (a *Aggregate) Positives() int {
	return a.positives
}

// ScanDate returns the service's scan timestamp, if any.
func (a *Aggregate) ScanDate() string {
	return a.scanDate
}

// Ratio returns positives over total engines consulted.
func (a *Aggregate) Ratio() float64 {
	return float64(a.positives) / float64(a.TotalScanners())
}

// IsMalicious reports whether the flagging ratio meets the threshold.
// Equality counts as malicious. A non-positive threshold selects
// DefaultThreshold.
func (a *Aggregate) IsMalicious(threshold float64) bool {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return a.Ratio() >= threshold
}

// Verdict is the tri-state classification: unknown until a successful
// lookup was recorded, then benign or malicious by threshold.
func (a *Aggregate) Verdict(threshold float64) Verdict {
	if !a.found {
		return VerdictUnknown
	}
	if a.IsMalicious(threshold) {
		return VerdictMalicious
	}
	return VerdictBenign
}
