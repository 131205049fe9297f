package flow

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/BTreeMap/TriagePipe/internal/classifier"
	"github.com/BTreeMap/TriagePipe/internal/models"
	"github.com/BTreeMap/TriagePipe/internal/util"
)

var agePattern = regexp.MustCompile(`\d+`)

// turn is the working state of a single Handle call.
type turn struct {
	e       *Engine
	ctx     context.Context
	sess    *models.Session
	msg     string
	greet   string // computed from the name at the start of the turn
	parts   []string
	mapData *models.MapData
}

func (t *turn) say(parts ...string) {
	t.parts = append(t.parts, parts...)
}

func (t *turn) run() error {
	switch {
	case t.msg == "reset" || t.msg == "start over":
		t.sess = models.NewSession(t.sess.UserID, t.e.featureKeys, "")
		t.say(replyReset)
		return nil
	case strings.Contains(t.msg, "help symptoms"):
		phrases := t.e.lex.AllPhrases()
		if len(phrases) > helpPhraseCount {
			phrases = phrases[:helpPhraseCount]
		}
		t.say(replyHelpPrefix + strings.Join(phrases, ", ") + replyHelpSuffix)
		return nil
	}

	if !t.sess.State.IsValid() {
		slog.Warn("turn.run: unknown state, restarting", "state", t.sess.State, "user_id", t.sess.UserID)
		t.sess = models.NewSession(t.sess.UserID, t.e.featureKeys, t.sess.Name)
		t.say(fmt.Sprintf(replyFallback, t.greet))
		return nil
	}

	switch t.sess.State {
	case models.StateAwaitingName:
		t.awaitingName()
	case models.StateAwaitingInitialSymptoms:
		t.awaitingInitialSymptoms()
	case models.StateClarifyingSymptoms:
		t.clarifying()
	case models.StateTargetedQuestioning:
		t.targeted()
	case models.StateAwaitingAge:
		t.awaitingAge()
	case models.StateAwaitingSex:
		t.awaitingSex()
	case models.StateAwaitingDoctorConfirmation:
		t.awaitingDoctorConfirmation()
	case models.StateReadyToPredict:
	}

	if t.sess.State == models.StateReadyToPredict {
		if err := t.predict(); err != nil {
			return err
		}
	}

	if len(t.parts) == 0 {
		t.say(fmt.Sprintf(replyFallback, t.greet))
	}
	return nil
}

func (t *turn) awaitingName() {
	if len(t.msg) <= 1 {
		t.say(replyAskName)
		return
	}
	t.sess.Name = util.Title(t.msg)
	t.sess.State = models.StateAwaitingInitialSymptoms
	t.say(fmt.Sprintf(replyNiceToMeet, t.sess.Name))
}

func (t *turn) awaitingInitialSymptoms() {
	extracted := t.e.extractor.Extract(t.ctx, t.msg)
	for _, key := range extracted {
		if t.sess.Features[key] == 0 && key != t.sess.CurrentClarify {
			t.sess.Pending = appendUnique(t.sess.Pending, key)
		}
	}

	switch {
	case len(t.sess.Pending) > 0:
		t.sess.CurrentClarify = t.popPending()
		t.sess.State = models.StateClarifyingSymptoms
		t.say(t.greet + t.e.lex.PromptFor(t.sess.CurrentClarify) + " (yes/no)")
	case len(extracted) > 0:
		t.say(t.greet + replyNotedThose)
	default:
		t.say(t.greet + replyNoSymptoms)
	}
}

func (t *turn) clarifying() {
	key := t.sess.CurrentClarify
	if !t.answer(key, "Noted: %s.") {
		t.say(replyYesNo + t.e.lex.PromptFor(key))
		return
	}
	t.sess.CurrentClarify = ""

	if len(t.sess.Pending) > 0 {
		t.sess.CurrentClarify = t.popPending()
		t.say(t.e.lex.PromptFor(t.sess.CurrentClarify) + " (yes/no)")
		return
	}
	if t.sess.ConfirmedCount >= MinConfirmedSymptoms {
		t.sess.State = models.StateAwaitingAge
		t.say(t.greet + replyAskAge)
		return
	}

	t.sess.Targeted = t.e.selector.Next(t.sess.Features, QuestionsPerRound)
	if len(t.sess.Targeted) == 0 {
		t.sess.State = models.StateAwaitingInitialSymptoms
		t.say(t.greet + replyMoreInfo)
		return
	}
	t.sess.CurrentTargeted = t.popTargeted()
	t.sess.State = models.StateTargetedQuestioning
	t.say(t.e.lex.PromptFor(t.sess.CurrentTargeted) + " (yes/no)")
}

func (t *turn) targeted() {
	key := t.sess.CurrentTargeted
	if !t.answer(key, "Understood: %s.") {
		t.say(replyYesNo + t.e.lex.PromptFor(key))
		return
	}
	t.sess.CurrentTargeted = ""

	switch {
	case len(t.sess.Targeted) > 0 && t.sess.ConfirmedCount < MinConfirmedSymptoms+1:
		t.sess.CurrentTargeted = t.popTargeted()
		t.say(t.e.lex.PromptFor(t.sess.CurrentTargeted) + " (yes/no)")
	case t.sess.ConfirmedCount < MinConfirmedSymptoms && len(t.sess.Targeted) == 0:
		t.sess.State = models.StateAwaitingInitialSymptoms
		t.say(t.greet + replyStillMore)
	default:
		// Leftover targeted questions are dropped, not carried into the next round.
		t.sess.Targeted = nil
		t.sess.State = models.StateAwaitingAge
		t.say(t.greet + replyAskAgeRoutine)
	}
}

// answer applies a yes/no reply to key and reports whether the message was one.
// "yes" wins when both words appear.
func (t *turn) answer(key, confirmFormat string) bool {
	human := util.Humanize(key)
	switch {
	case strings.Contains(t.msg, "yes"):
		if t.sess.Features[key] != 1 {
			t.sess.Features[key] = 1
			t.sess.ConfirmedCount++
		}
		slog.Debug("turn.answer: symptom confirmed", "user_id", t.sess.UserID, "feature_key", key, "confirmed", t.sess.ConfirmedCount)
		t.say(fmt.Sprintf(confirmFormat, human))
	case strings.Contains(t.msg, "no"):
		if t.sess.Features[key] == 1 && t.sess.ConfirmedCount > 0 {
			t.sess.ConfirmedCount--
		}
		t.sess.Features[key] = 0
		slog.Debug("turn.answer: symptom denied", "user_id", t.sess.UserID, "feature_key", key)
		t.say(fmt.Sprintf("Okay, no %s.", human))
	default:
		return false
	}
	return true
}

func (t *turn) awaitingAge() {
	m := agePattern.FindString(t.msg)
	if m == "" {
		t.say(replyAgeUnparsed)
		return
	}
	age, err := strconv.Atoi(m)
	if err != nil || age <= 0 || age >= 120 {
		t.say(replyAgeUnlikely)
		return
	}
	t.sess.Age = age
	t.sess.State = models.StateAwaitingSex
	t.say(t.greet + fmt.Sprintf(replyAgeNoted, age))
}

// parseSex checks "female" before "male" since the former contains the latter.
func parseSex(msg string) string {
	switch {
	case strings.Contains(msg, "female") || msg == "f":
		return "Female"
	case strings.Contains(msg, "male") || msg == "m":
		return "Male"
	case strings.Contains(msg, "other"), strings.Contains(msg, "prefer not to say"),
		strings.Contains(msg, "skip"), strings.Contains(msg, "n/a"):
		return "Prefer not to say"
	}
	return ""
}

func (t *turn) awaitingSex() {
	sex := parseSex(t.msg)
	if sex == "" {
		t.say(t.greet + replySexInvalid)
		return
	}
	t.sess.Sex = sex
	t.sess.State = models.StateReadyToPredict
	t.say(t.greet + fmt.Sprintf(replySexRecorded, sex))
}

func (t *turn) predict() error {
	switch {
	case t.sess.ConfirmedCount < 1:
		t.sess.State = models.StateAwaitingInitialSymptoms
		t.say(t.greet + replyTooFew)
		return nil
	case t.sess.Age == 0:
		t.sess.State = models.StateAwaitingAge
		t.say(t.greet + replyNeedAge)
		return nil
	case t.sess.Sex == "":
		t.sess.State = models.StateAwaitingSex
		t.say(t.greet + replyNeedSex)
		return nil
	}

	vec, err := classifier.Vectorize(t.e.classifier, t.sess.Features)
	if err != nil {
		return fmt.Errorf("failed to build feature vector: %w", err)
	}
	pred, err := classifier.Predict(t.e.classifier, vec)
	if err != nil {
		return fmt.Errorf("failed to predict: %w", err)
	}
	slog.Info("turn.predict: prediction made", "user_id", t.sess.UserID, "label", pred.Label, "confidence", pred.Confidence)

	t.sess.PredictedDisease = pred.Label
	title := util.Title(pred.Label)
	t.say(t.greet + fmt.Sprintf(replyPrediction, title, pred.Confidence*100))

	description := replyNoDescription
	var precautions []string
	info, ok, err := t.e.knowledge.Lookup(t.ctx, pred.Label)
	if err != nil {
		slog.Warn("turn.predict: disease info lookup failed", "error", err, "label", pred.Label)
	} else if ok {
		if info.Description != "" {
			description = info.Description
		}
		precautions = info.Precautions
	}
	t.say("*" + description + "*")
	if len(precautions) > 0 {
		t.say(replyPrecautions + strings.Join(precautions, "\n- "))
	}
	t.say(replyDisclaimer, fmt.Sprintf(replyOfferDoctors, title, t.sess.Name))
	t.sess.State = models.StateAwaitingDoctorConfirmation
	return nil
}

func (t *turn) awaitingDoctorConfirmation() {
	switch {
	case strings.Contains(t.msg, "yes") && t.sess.PredictedDisease != "":
		res := t.e.referrer.Refer(t.ctx, t.sess.PredictedDisease, t.sess.Name)
		t.say(res.Parts...)
		t.mapData = res.MapData
	case strings.Contains(t.msg, "no"):
		t.say(fmt.Sprintf(replyTakeCare, t.sess.Name))
	default:
		t.say(replyDoctorYesNo)
		return
	}
	t.say(replyAnythingElse)
	t.sess = models.NewSession(t.sess.UserID, t.e.featureKeys, t.sess.Name)
}

func (t *turn) popPending() string {
	key := t.sess.Pending[0]
	t.sess.Pending = t.sess.Pending[1:]
	return key
}

func (t *turn) popTargeted() string {
	key := t.sess.Targeted[0]
	t.sess.Targeted = t.sess.Targeted[1:]
	return key
}

func appendUnique(list []string, key string) []string {
	for _, k := range list {
		if k == key {
			return list
		}
	}
	return append(list, key)
}
