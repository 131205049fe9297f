package api

import (
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/BTreeMap/TriagePipe/internal/flow"
	"github.com/BTreeMap/TriagePipe/internal/testutil"
	"github.com/BTreeMap/TriagePipe/internal/twiliowhatsapp"
)

const testFrom = "whatsapp:+8801700000000"

func TestTwilioWebhook_RepliesThroughSender(t *testing.T) {
	mock := twiliowhatsapp.NewMockClient()
	s := newTestServer(flow.NewMockClassifier("Fungal infection", 0.9), WithTwilioSender(mock))

	for _, body := range []string{"rahim", "itching and skin rash", "yes"} {
		rr := serve(s, testutil.CreateFormRequest(t, "/twilio/webhook", url.Values{"From": {testFrom}, "Body": {body}}))
		testutil.AssertHTTPStatus(t, http.StatusNoContent, rr.Code, "webhook "+body)
	}

	sent := mock.Sent()
	if len(sent) != 3 {
		t.Fatalf("expected 3 replies, got %d", len(sent))
	}
	if sent[0].To != testFrom {
		t.Errorf("expected reply to %s, got %s", testFrom, sent[0].To)
	}
	if sent[1].Body != "Rahim, Are you experiencing any itching? (yes/no)" {
		t.Errorf("unexpected second reply %q", sent[1].Body)
	}
	if sent[2].Body != "Noted: itching.\n\nDo you have a skin rash? (yes/no)" {
		t.Errorf("expected parts joined by a blank line, got %q", sent[2].Body)
	}
}

func TestTwilioWebhook_Signature(t *testing.T) {
	const token = "secret-token"
	const public = "https://triage.example.com"
	mock := twiliowhatsapp.NewMockClient()
	s := newTestServer(flow.NewMockClassifier("Fungal infection", 0.9),
		WithTwilioSender(mock), WithTwilioAuthToken(token), WithPublicURL(public+"/"))

	form := url.Values{"From": {testFrom}, "Body": {"rahim"}}

	bad := testutil.CreateFormRequest(t, "/twilio/webhook", form)
	bad.Header.Set("X-Twilio-Signature", "bogus")
	rr := serve(s, bad)
	testutil.AssertHTTPStatus(t, http.StatusForbidden, rr.Code, "bad signature")
	if len(mock.Sent()) != 0 {
		t.Fatal("nothing should be sent for a rejected request")
	}

	good := testutil.CreateFormRequest(t, "/twilio/webhook", form)
	good.Header.Set("X-Twilio-Signature", testutil.TwilioSignature(token, public+"/twilio/webhook", form))
	rr = serve(s, good)
	testutil.AssertHTTPStatus(t, http.StatusNoContent, rr.Code, "good signature")
	if len(mock.Sent()) != 1 {
		t.Errorf("expected one reply, got %d", len(mock.Sent()))
	}
}

func TestTwilioWebhook_MissingFrom(t *testing.T) {
	s := newTestServer(flow.NewMockClassifier("Fungal infection", 0.9), WithTwilioSender(twiliowhatsapp.NewMockClient()))
	rr := serve(s, testutil.CreateFormRequest(t, "/twilio/webhook", url.Values{"Body": {"hi"}}))
	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "missing From")
	testutil.AssertJSONResponse(t, rr, "error")
}

func TestTwilioWebhook_SendFailure(t *testing.T) {
	mock := twiliowhatsapp.NewMockClient()
	mock.Err = errors.New("twilio down")
	s := newTestServer(flow.NewMockClassifier("Fungal infection", 0.9), WithTwilioSender(mock))
	rr := serve(s, testutil.CreateFormRequest(t, "/twilio/webhook", url.Values{"From": {testFrom}, "Body": {"rahim"}}))
	testutil.AssertHTTPStatus(t, http.StatusBadGateway, rr.Code, "send failure")
}
