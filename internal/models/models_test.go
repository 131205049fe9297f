package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNewSessionKeysEveryFeature(t *testing.T) {
	keys := []string{"cough", "headache", "high_fever"}
	s := NewSession("u1", keys, "")
	if s.State != StateAwaitingName {
		t.Errorf("expected %s, got %s", StateAwaitingName, s.State)
	}
	if len(s.Features) != len(keys) {
		t.Fatalf("expected %d features, got %d", len(keys), len(s.Features))
	}
	for _, k := range keys {
		if v, ok := s.Features[k]; !ok || v != 0 {
			t.Errorf("feature %s: expected 0 present, got %d (ok=%v)", k, v, ok)
		}
	}
}

func TestNewSessionWithNameSkipsNameQuestion(t *testing.T) {
	s := NewSession("u1", []string{"cough"}, "Rahim")
	if s.State != StateAwaitingInitialSymptoms {
		t.Errorf("expected %s, got %s", StateAwaitingInitialSymptoms, s.State)
	}
	if s.Name != "Rahim" {
		t.Errorf("expected name Rahim, got %q", s.Name)
	}
}

func TestSessionCloneIsDeep(t *testing.T) {
	s := NewSession("u1", []string{"cough", "headache"}, "A")
	s.Pending = []string{"cough"}
	c := s.Clone()
	c.Features["cough"] = 1
	c.Pending[0] = "headache"
	if s.Features["cough"] != 0 {
		t.Error("clone shares feature vector with original")
	}
	if s.Pending[0] != "cough" {
		t.Error("clone shares pending queue with original")
	}
}

func TestDialogueStateIsValid(t *testing.T) {
	if !StateAwaitingDoctorConfirmation.IsValid() {
		t.Error("expected doctor confirmation state to be valid")
	}
	if DialogueState("SOMETHING_ELSE").IsValid() {
		t.Error("expected unknown state to be invalid")
	}
}

func TestChatResponseOmitsEmptyMapData(t *testing.T) {
	b, err := json.Marshal(ChatResponse{BotResponseParts: []string{"hi"}, UserID: "u"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(string(b), "map_data") {
		t.Errorf("expected map_data to be omitted, got %s", b)
	}
}

func TestErrorResponse(t *testing.T) {
	r := Error("boom")
	if r.Status != string(APIStatusError) || r.Message != "boom" {
		t.Errorf("unexpected response: %+v", r)
	}
}
