package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/grhey0115/Tenant-Assessment/internal/applicant"
	"github.com/grhey0115/Tenant-Assessment/internal/client"
	"github.com/grhey0115/Tenant-Assessment/internal/pipeline"
)

// pipelineServer answers the applicant lookup and counts advance calls.
func pipelineServer(t *testing.T, stage pipeline.Stage, advances *atomic.Int32) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/applicants/3":
			resp := client.ShowResponse{Applicant: &applicant.Applicant{ID: 3, Name: "Sam Lee", Stage: stage}}
			if err := json.NewEncoder(w).Encode(resp); err != nil {
				t.Errorf("encode: %v", err)
			}
		case r.Method == http.MethodPost && r.URL.Path == "/api/applicants/3/advance":
			advances.Add(1)
			var body map[string]string
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode: %v", err)
			}
			if body["from"] != string(stage) {
				t.Errorf("from = %q, want %q", body["from"], stage)
			}
			next, _ := pipeline.Next(stage)
			if err := json.NewEncoder(w).Encode(applicant.Applicant{ID: 3, Name: "Sam Lee", Stage: next}); err != nil {
				t.Errorf("encode: %v", err)
			}
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	t.Setenv("HOME", t.TempDir())
	t.Setenv("TA_SERVER_URL", srv.URL)
	t.Setenv("TA_API_KEY", "ta_testkey1234567890")
}

func TestAdvanceConfirmed(t *testing.T) {
	var advances atomic.Int32
	pipelineServer(t, pipeline.StageShowing, &advances)

	var out bytes.Buffer
	if err := runAdvance(3, false, strings.NewReader("y\n"), &out); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if advances.Load() != 1 {
		t.Errorf("advance calls = %d, want 1", advances.Load())
	}
	if !strings.Contains(out.String(), "Move Sam Lee from Showing to Applied?") {
		t.Errorf("prompt missing: %q", out.String())
	}
	if !strings.Contains(out.String(), "Moved Sam Lee to Applied") {
		t.Errorf("result missing: %q", out.String())
	}
}

func TestAdvanceDeclined(t *testing.T) {
	var advances atomic.Int32
	pipelineServer(t, pipeline.StageLead, &advances)

	var out bytes.Buffer
	if err := runAdvance(3, false, strings.NewReader("n\n"), &out); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if advances.Load() != 0 {
		t.Errorf("advance calls = %d, want 0", advances.Load())
	}
	if !strings.Contains(out.String(), "Cancelled.") {
		t.Errorf("output = %q, want Cancelled.", out.String())
	}
}

func TestAdvanceYesSkipsPrompt(t *testing.T) {
	var advances atomic.Int32
	pipelineServer(t, pipeline.StageLead, &advances)

	var out bytes.Buffer
	if err := runAdvance(3, true, strings.NewReader(""), &out); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if advances.Load() != 1 {
		t.Errorf("advance calls = %d, want 1", advances.Load())
	}
	if strings.Contains(out.String(), "[y/N]") {
		t.Errorf("unexpected prompt: %q", out.String())
	}
}

func TestAdvanceApprovedIsFinal(t *testing.T) {
	var advances atomic.Int32
	pipelineServer(t, pipeline.StageApproved, &advances)

	err := runAdvance(3, true, strings.NewReader(""), &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "already approved") {
		t.Fatalf("err = %v, want already approved", err)
	}
	if advances.Load() != 0 {
		t.Errorf("advance calls = %d, want 0", advances.Load())
	}
}
