// Package testutil provides common test utilities and fixtures for TriagePipe tests.
package testutil

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// TrainingCSV is a tiny training set: three diseases over five symptoms.
const TrainingCSV = `itching,skin_rash,cough,high_fever,chills,prognosis
1,1,0,0,0,Fungal infection
1,1,0,0,0,Fungal infection
1,0,0,0,0,Fungal infection
0,0,1,0,0,Common Cold
0,0,1,1,0,Common Cold
0,0,0,1,1,Malaria
0,0,0,1,1,Malaria
`

// DoctorsCSV lists three doctors; the last has no usable coordinates.
const DoctorsCSV = `Name,Speciality,Hospital Name,Address,Number,Image Source,About,Latitude,Longitude
Dr. Karim,Dermatologist,Skin Care Hospital,Dhanmondi Dhaka,01700000000,https://example.com/k.png,Skin doctor,23.746,90.376
Dr. Noor,Medicine Specialist & Infectious Disease Specialist,Popular Hospital,Mirpur Dhaka,,,,23.806,90.368
Dr. Hasan,Dermatologist,Rural Clinic,Sylhet,,,,unknown,
`

// DescriptionsCSV has descriptions for two diseases.
const DescriptionsCSV = `Disease,Description
Fungal infection,A fungal infection of the skin.
Malaria,A mosquito-borne disease.
`

// PrecautionsCSV has precautions for one disease with a blank column.
const PrecautionsCSV = `Disease,Precaution_1,Precaution_2,Precaution_3,Precaution_4
Fungal infection,bath twice,use detol or neem in bathing water,,keep infected area dry
`

// WriteFile writes content to name under dir and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// AssertHTTPStatus checks the HTTP status code and fails the test if it doesn't match.
func AssertHTTPStatus(t *testing.T, expected, actual int, context string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected status %d, got %d", context, expected, actual)
	}
}

// AssertJSONResponse decodes JSON response and validates the status field.
func AssertJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, expectedStatus string) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}

	if status, ok := response["status"].(string); ok {
		if status != expectedStatus {
			t.Errorf("expected status '%s', got '%s'", expectedStatus, status)
		}
	} else {
		t.Error("response missing or invalid 'status' field")
	}

	return response
}

// CreateHTTPRequest creates an HTTP request with optional JSON body for testing.
// A string body is sent verbatim.
func CreateHTTPRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()
	reqBody := bytes.NewBuffer(nil)
	switch b := body.(type) {
	case nil:
	case string:
		reqBody.WriteString(b)
	default:
		reqBody.Write(MustMarshalJSON(t, b))
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("failed to create HTTP request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req
}

// CreateFormRequest creates a form-encoded POST request.
func CreateFormRequest(t *testing.T, target string, form url.Values) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("failed to create HTTP request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// TwilioSignature computes the X-Twilio-Signature Twilio would send for a
// form POST to fullURL.
func TwilioSignature(authToken, fullURL string, form url.Values) string {
	pairs := make([]string, 0, len(form))
	for k, v := range form {
		if len(v) > 0 {
			pairs = append(pairs, k+v[0])
		}
	}
	sort.Strings(pairs)
	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(fullURL + strings.Join(pairs, "")))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// MustMarshalJSON marshals an object to JSON and fails test on error.
func MustMarshalJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal JSON: %v", err)
	}
	return data
}

// MustUnmarshalJSON unmarshals JSON data into target and fails test on error.
func MustUnmarshalJSON(t *testing.T, data []byte, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, target); err != nil {
		t.Fatalf("failed to unmarshal JSON: %v", err)
	}
}
