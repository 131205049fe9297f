// Package models defines state management structures for TriagePipe dialogues.
package models

import "time"

// DialogueState is the position of a session in the triage conversation.
type DialogueState string

const (
	StateAwaitingName               DialogueState = "AWAITING_NAME"
	StateAwaitingInitialSymptoms    DialogueState = "AWAITING_INITIAL_SYMPTOMS"
	StateClarifyingSymptoms         DialogueState = "CLARIFYING_SYMPTOMS"
	StateTargetedQuestioning        DialogueState = "TARGETED_QUESTIONING"
	StateAwaitingAge                DialogueState = "AWAITING_AGE"
	StateAwaitingSex                DialogueState = "AWAITING_SEX"
	StateReadyToPredict             DialogueState = "READY_TO_PREDICT"
	StateAwaitingDoctorConfirmation DialogueState = "AWAITING_DOCTOR_CONFIRMATION"
)

// IsValid reports whether s is one of the known dialogue states.
func (s DialogueState) IsValid() bool {
	switch s {
	case StateAwaitingName, StateAwaitingInitialSymptoms, StateClarifyingSymptoms,
		StateTargetedQuestioning, StateAwaitingAge, StateAwaitingSex,
		StateReadyToPredict, StateAwaitingDoctorConfirmation:
		return true
	}
	return false
}

// FeatureVector maps every known feature key to 0 or 1.
// A 0 means either not yet asked or denied; the two are not distinguished.
type FeatureVector map[string]int

// Session is the per-user conversation record.
type Session struct {
	UserID           string        `json:"user_id"`
	State            DialogueState `json:"state"`
	Name             string        `json:"name,omitempty"`
	Features         FeatureVector `json:"features"`
	ConfirmedCount   int           `json:"confirmed_count"`
	Pending          []string      `json:"pending,omitempty"`  // extracted keys awaiting yes/no
	Targeted         []string      `json:"targeted,omitempty"` // proactively selected keys
	CurrentClarify   string        `json:"current_clarify,omitempty"`
	CurrentTargeted  string        `json:"current_targeted,omitempty"`
	Age              int           `json:"age,omitempty"` // 0 means unknown
	Sex              string        `json:"sex,omitempty"`
	PredictedDisease string        `json:"predicted_disease,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// NewSession returns a fresh session keyed over featureKeys.
// A non-empty name skips the name question.
func NewSession(userID string, featureKeys []string, name string) *Session {
	now := time.Now()
	s := &Session{
		UserID:    userID,
		State:     StateAwaitingName,
		Name:      name,
		Features:  make(FeatureVector, len(featureKeys)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, k := range featureKeys {
		s.Features[k] = 0
	}
	if name != "" {
		s.State = StateAwaitingInitialSymptoms
	}
	return s
}

// Clone returns a deep copy so a turn can be applied without touching the stored record.
func (s *Session) Clone() *Session {
	c := *s
	c.Features = make(FeatureVector, len(s.Features))
	for k, v := range s.Features {
		c.Features[k] = v
	}
	c.Pending = append([]string(nil), s.Pending...)
	c.Targeted = append([]string(nil), s.Targeted...)
	return &c
}

// Confirmed returns the keys currently marked present.
func (v FeatureVector) Confirmed() []string {
	var keys []string
	for k, val := range v {
		if val == 1 {
			keys = append(keys, k)
		}
	}
	return keys
}
