package models

import (
	"fmt"
	"time"
)

// ReadinessStatus is the declared readiness of a hearing
type ReadinessStatus string

const (
	// StatusReady means counsel declared the matter ready to proceed
	StatusReady ReadinessStatus = "READY"
	// StatusNotReady means counsel declared the matter blocked, with a reason
	StatusNotReady ReadinessStatus = "NOT_READY"
	// StatusPending means no declaration has been made yet
	StatusPending ReadinessStatus = "PENDING"
)

// Valid reports whether s is one of the known statuses
func (s ReadinessStatus) Valid() bool {
	switch s {
	case StatusReady, StatusNotReady, StatusPending:
		return true
	}
	return false
}

// Priority is the listing priority tier of a hearing
type Priority string

// Priority tiers
const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Hearing holds the structure for one scheduled court session. It is also the document
// shape of the hearings and hearingarchives collections in mongo.
type Hearing struct {
	ID                string          `json:"id" bson:"_id" yaml:"id"`
	TimeSlot          string          `json:"timeSlot" bson:"timeSlot" yaml:"timeSlot"`
	Courtroom         string          `json:"courtroom" bson:"courtroom" yaml:"courtroom"`
	CaseNumber        string          `json:"caseNumber" bson:"caseNumber" yaml:"caseNumber"`
	PartyA            string          `json:"partyA" bson:"partyA" yaml:"partyA"`
	PartyB            string          `json:"partyB" bson:"partyB" yaml:"partyB"`
	CaseType          string          `json:"caseType" bson:"caseType" yaml:"caseType"`
	Status            ReadinessStatus `json:"status" bson:"status" yaml:"status"`
	AttendanceCount   int             `json:"attendanceCount" bson:"attendanceCount" yaml:"attendanceCount"`
	PredictedDuration string          `json:"predictedDuration" bson:"predictedDuration" yaml:"predictedDuration"`
	Stage             string          `json:"stage" bson:"stage" yaml:"stage"`
	Priority          Priority        `json:"priority" bson:"priority" yaml:"priority"`
	AdvocatePresent   bool            `json:"advocatePresent" bson:"advocatePresent" yaml:"advocatePresent"`
	Deadline          time.Time       `json:"deadline" bson:"deadline" yaml:"deadline"`

	// ReadinessReason is only set while Status is NOT_READY
	ReadinessReason string `json:"readinessReason,omitempty" bson:"readinessReason,omitempty" yaml:"readinessReason,omitempty"`

	// outcome, set on completion only
	Transcript  []TranscriptLine `json:"transcript,omitempty" bson:"transcript,omitempty" yaml:"-"`
	FinalOrder  string           `json:"finalOrder,omitempty" bson:"finalOrder,omitempty" yaml:"-"`
	CompletedAt *time.Time       `json:"completedAt,omitempty" bson:"completedAt,omitempty" yaml:"-"`
}

// Clone returns a deep copy of h so callers never share the transcript backing array
func (h Hearing) Clone() Hearing {
	c := h
	if h.Transcript != nil {
		c.Transcript = make([]TranscriptLine, len(h.Transcript))
		copy(c.Transcript, h.Transcript)
	}
	if h.CompletedAt != nil {
		t := *h.CompletedAt
		c.CompletedAt = &t
	}
	return c
}

// Speaker is the role of the person an utterance is attributed to
type Speaker string

// Speakers recognised in a hearing transcript
const (
	SpeakerJudge      Speaker = "Judge"
	SpeakerPetitioner Speaker = "Petitioner"
	SpeakerRespondent Speaker = "Respondent"
	SpeakerWitness    Speaker = "Witness"
)

// TranscriptLine holds one utterance within a hearing's proceedings
type TranscriptLine struct {
	ID         string  `json:"id" bson:"id"`
	Speaker    Speaker `json:"speaker" bson:"speaker"`
	Text       string  `json:"text" bson:"text"`
	Timestamp  string  `json:"timestamp" bson:"timestamp"`
	Confidence float64 `json:"confidence" bson:"confidence"`
}

// Validate checks the line can be attached to a hearing
func (l TranscriptLine) Validate() error {
	switch l.Speaker {
	case SpeakerJudge, SpeakerPetitioner, SpeakerRespondent, SpeakerWitness:
	default:
		return fmt.Errorf("unknown speaker %q", l.Speaker)
	}
	if l.Text == "" {
		return fmt.Errorf("transcript line text is empty")
	}
	if l.Confidence < 0 || l.Confidence > 1 {
		return fmt.Errorf("confidence %v outside [0, 1]", l.Confidence)
	}
	return nil
}
