// Package flow drives the triage conversation: one Handle call is one user turn.
package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BTreeMap/TriagePipe/internal/classifier"
	"github.com/BTreeMap/TriagePipe/internal/extract"
	"github.com/BTreeMap/TriagePipe/internal/knowledge"
	"github.com/BTreeMap/TriagePipe/internal/lexicon"
	"github.com/BTreeMap/TriagePipe/internal/models"
	"github.com/BTreeMap/TriagePipe/internal/referral"
	"github.com/BTreeMap/TriagePipe/internal/selector"
	"github.com/BTreeMap/TriagePipe/internal/store"
	"github.com/BTreeMap/TriagePipe/internal/util"
)

const (
	// MinConfirmedSymptoms is the evidence needed before asking for demographics.
	MinConfirmedSymptoms = 4
	// QuestionsPerRound is how many targeted questions are drawn at a time.
	QuestionsPerRound = 2
	// helpPhraseCount is how many phrases the help reply lists.
	helpPhraseCount = 10
)

// SymptomExtractor maps free text to feature keys.
type SymptomExtractor interface {
	Extract(ctx context.Context, text string) []string
}

// Opts holds the collaborators of an Engine. Nil fields get defaults in NewEngine.
type Opts struct {
	Sessions   store.SessionStore
	Classifier classifier.Classifier
	Extractor  SymptomExtractor
	Selector   selector.Selector
	Knowledge  knowledge.Source
	Referrer   *referral.Referrer
}

// Option configures an Engine.
type Option func(*Opts)

// WithSessionStore sets where sessions are kept.
func WithSessionStore(s store.SessionStore) Option {
	return func(o *Opts) { o.Sessions = s }
}

// WithClassifier sets the disease model. Without one the engine is offline.
func WithClassifier(c classifier.Classifier) Option {
	return func(o *Opts) { o.Classifier = c }
}

// WithExtractor overrides the fuzzy extractor built from the lexicon.
func WithExtractor(x SymptomExtractor) Option {
	return func(o *Opts) { o.Extractor = x }
}

// WithSelector sets the targeted question strategy.
func WithSelector(s selector.Selector) Option {
	return func(o *Opts) { o.Selector = s }
}

// WithKnowledge sets the disease description and precaution source.
func WithKnowledge(k knowledge.Source) Option {
	return func(o *Opts) { o.Knowledge = k }
}

// WithReferrer sets the doctor referral builder.
func WithReferrer(r *referral.Referrer) Option {
	return func(o *Opts) { o.Referrer = r }
}

// Engine is the dialogue state machine. Turns for the same user are serialized;
// turns for different users run in parallel.
type Engine struct {
	sessions    store.SessionStore
	locks       *store.KeyedMutex
	lex         *lexicon.Lexicon
	extractor   SymptomExtractor
	selector    selector.Selector
	classifier  classifier.Classifier
	knowledge   knowledge.Source
	referrer    *referral.Referrer
	featureKeys []string
}

// NewEngine builds an Engine over lex. Sessions are keyed over the classifier's
// features, or over the lexicon keys when running offline.
func NewEngine(lex *lexicon.Lexicon, opts ...Option) *Engine {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	e := &Engine{
		sessions:   cfg.Sessions,
		locks:      store.NewKeyedMutex(),
		lex:        lex,
		extractor:  cfg.Extractor,
		selector:   cfg.Selector,
		classifier: cfg.Classifier,
		knowledge:  cfg.Knowledge,
		referrer:   cfg.Referrer,
	}
	if e.sessions == nil {
		e.sessions = store.NewInMemorySessionStore()
	}
	if e.extractor == nil {
		e.extractor = extract.New(lex)
	}
	if e.selector == nil {
		e.selector = selector.NewRandom(lex.Keys(), nil)
	}
	if e.knowledge == nil {
		e.knowledge = knowledge.NewTable()
	}
	if e.referrer == nil {
		e.referrer = referral.New(nil)
	}
	if e.classifier != nil {
		e.featureKeys = append([]string(nil), e.classifier.Features()...)
	} else {
		e.featureKeys = lex.Keys()
	}
	slog.Debug("flow.NewEngine: engine created", "online", e.Online(), "features", len(e.featureKeys))
	return e
}

// Online reports whether a classifier is loaded.
func (e *Engine) Online() bool {
	return e.classifier != nil
}

// Sessions returns the number of live sessions.
func (e *Engine) Sessions() int {
	return e.sessions.Len()
}

// Handle processes one message from userID. An empty userID gets a freshly
// minted anonymous id, returned in the response.
//
// The turn is applied to a copy of the session, which replaces the stored one only
// when the turn succeeds. Errors come from prediction or the session store.
func (e *Engine) Handle(ctx context.Context, userID, message string) (models.ChatResponse, error) {
	if userID == "" {
		userID = util.NewAnonymousUserID()
	}
	resp := models.ChatResponse{UserID: userID}
	if !e.Online() {
		resp.BotResponseParts = []string{replyOffline}
		return resp, nil
	}

	unlock := e.locks.Lock(userID)
	defer unlock()

	sess, err := e.sessions.Get(userID)
	if errors.Is(err, store.ErrSessionNotFound) {
		slog.Info("Engine.Handle: new session", "user_id", userID)
		sess, err = e.sessions.Create(userID, e.featureKeys)
	}
	if err != nil {
		slog.Error("Engine.Handle: failed to load session", "error", err, "user_id", userID)
		return models.ChatResponse{}, fmt.Errorf("failed to load session: %w", err)
	}

	t := &turn{
		e:     e,
		ctx:   ctx,
		sess:  sess.Clone(),
		msg:   strings.ToLower(strings.TrimSpace(message)),
		greet: greeting(sess.Name),
	}
	before := t.sess.State
	slog.Debug("Engine.Handle: turn started", "user_id", userID, "state", before, "name", sess.Name, "message", t.msg)

	if err := t.run(); err != nil {
		slog.Error("Engine.Handle: turn failed, session left unchanged", "error", err, "user_id", userID, "state", before)
		return models.ChatResponse{}, err
	}
	if err := e.sessions.Replace(t.sess); err != nil {
		slog.Error("Engine.Handle: failed to store session", "error", err, "user_id", userID)
		return models.ChatResponse{}, fmt.Errorf("failed to store session: %w", err)
	}

	slog.Debug("Engine.Handle: turn finished", "user_id", userID, "from", before, "to", t.sess.State, "confirmed", t.sess.ConfirmedCount)
	resp.BotResponseParts = t.parts
	resp.MapData = t.mapData
	return resp, nil
}

// Session returns a copy of the stored session for userID.
func (e *Engine) Session(userID string) (*models.Session, error) {
	return e.sessions.Get(userID)
}

func greeting(name string) string {
	if name == "" {
		return ""
	}
	return name + ", "
}
