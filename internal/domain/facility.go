package domain

import "time"

// fingerprintSeparator is the ASCII unit separator; it does not occur in names or addresses
// typed by people or copied from the directory pages.
const fingerprintSeparator = "\x1f"

// InputRecord is one row of the facility table an operator wants looked up.
type InputRecord struct {
	Name    string
	Address string
}

// Fingerprint identifies the record for resumability.
func (r InputRecord) Fingerprint() string {
	return Fingerprint(r.Name, r.Address)
}

// Fingerprint builds the order-sensitive composite key of a name and an address.
func Fingerprint(name, address string) string {
	return name + fingerprintSeparator + address
}

// CandidateRecord is a single row returned by a directory search.
type CandidateRecord struct {
	ServiceType   string `json:"serviceType"`
	Name          string `json:"name"`
	Address       string `json:"address"`
	RegistryID    string `json:"registryId"`
	DetailLocator string `json:"detailLocator"`
}

// OutcomeError carries the message of a failed lookup.
type OutcomeError struct {
	Message string `json:"message"`
}

// MatchOutcome is the recorded result of looking up one InputRecord.
// Found is true iff Matches is non-empty and Error is nil.
type MatchOutcome struct {
	InputName    string            `json:"inputName"`
	InputAddress string            `json:"inputAddress"`
	Found        bool              `json:"found"`
	Matches      []CandidateRecord `json:"matches"`
	ObservedAt   time.Time         `json:"observedAt"`
	Error        *OutcomeError     `json:"error,omitempty"`
}

// NewMatchOutcome records a completed lookup. An empty match set is a not-found outcome.
func NewMatchOutcome(input InputRecord, matches []CandidateRecord, at time.Time) MatchOutcome {
	if matches == nil {
		matches = []CandidateRecord{}
	}
	return MatchOutcome{
		InputName:    input.Name,
		InputAddress: input.Address,
		Found:        len(matches) > 0,
		Matches:      matches,
		ObservedAt:   at,
	}
}

// NewErrorOutcome records a lookup that failed before a decision could be made.
func NewErrorOutcome(input InputRecord, err error, at time.Time) MatchOutcome {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return MatchOutcome{
		InputName:    input.Name,
		InputAddress: input.Address,
		Matches:      []CandidateRecord{},
		ObservedAt:   at,
		Error:        &OutcomeError{Message: msg},
	}
}

// Input returns the record the outcome was produced for.
func (o MatchOutcome) Input() InputRecord {
	return InputRecord{Name: o.InputName, Address: o.InputAddress}
}

// Fingerprint returns the fingerprint of the input the outcome belongs to.
func (o MatchOutcome) Fingerprint() string {
	return Fingerprint(o.InputName, o.InputAddress)
}

// Failed reports whether the lookup ended in an error.
func (o MatchOutcome) Failed() bool {
	return o.Error != nil
}

// Consistent reports whether the outcome satisfies the found/matches/error invariant.
func (o MatchOutcome) Consistent() bool {
	if o.Error != nil {
		return !o.Found && len(o.Matches) == 0
	}
	return o.Found == (len(o.Matches) > 0)
}

// Totals are counters derived from the outcomes of a JobLog.
type Totals struct {
	Processed int `json:"processed"`
	Found     int `json:"found"`
	NotFound  int `json:"notFound"`
	Errors    int `json:"errors"`
}

// JobLog is the batch-level record of every processed input.
type JobLog struct {
	Outcomes    []MatchOutcome `json:"outcomes"`
	LastUpdated time.Time      `json:"lastUpdated"`
	Totals      Totals         `json:"totals"`
}

// NewJobLog returns an empty log.
func NewJobLog(at time.Time) JobLog {
	return JobLog{Outcomes: []MatchOutcome{}, LastUpdated: at}
}

// CountTotals derives the counters from a list of outcomes.
func CountTotals(outcomes []MatchOutcome) Totals {
	t := Totals{Processed: len(outcomes)}
	for _, o := range outcomes {
		switch {
		case o.Failed():
			t.Errors++
		case o.Found:
			t.Found++
		default:
			t.NotFound++
		}
	}
	return t
}

// WithOutcome returns a new log with the outcome appended. The receiver is left untouched so
// a caller can keep the previous value if persisting the new one fails.
func (l JobLog) WithOutcome(o MatchOutcome, at time.Time) JobLog {
	outcomes := make([]MatchOutcome, len(l.Outcomes), len(l.Outcomes)+1)
	copy(outcomes, l.Outcomes)
	outcomes = append(outcomes, o)
	return JobLog{
		Outcomes:    outcomes,
		LastUpdated: at,
		Totals:      CountTotals(outcomes),
	}
}

// Balanced reports whether the stored totals agree with the outcomes.
func (l JobLog) Balanced() bool {
	t := l.Totals
	return t == CountTotals(l.Outcomes) && t.Found+t.NotFound+t.Errors == t.Processed
}
