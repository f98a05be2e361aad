package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/grhey0115/Tenant-Assessment/internal/assessment"
	"github.com/grhey0115/Tenant-Assessment/internal/blobstore"
	"github.com/grhey0115/Tenant-Assessment/internal/email"
)

const maxVoiceNote = 10 << 20

type formData struct {
	Step            string
	Sections        []assessment.Section
	Properties      []*assessment.Property
	Units           []*assessment.Unit
	Agents          []string
	Recommendations []assessment.Recommendation
	Sub             assessment.Submission
	Errors          assessment.FieldErrors
	VoiceEnabled    bool

	PropertyName string
	UnitNumber   string

	Saved     *assessment.Assessment
	EmailSent bool
	EmailErr  string
}

func (d formData) Checked(group, value string) bool {
	for _, v := range d.Sub.Observations[group] {
		if v == value {
			return true
		}
	}
	return false
}

func (s *Server) newFormData(r *http.Request, sub assessment.Submission) (formData, error) {
	d := formData{
		Sections:        assessment.Sections(),
		Recommendations: []assessment.Recommendation{assessment.RecommendApprove, assessment.RecommendMaybe, assessment.RecommendHellNo},
		Sub:             sub,
		VoiceEnabled:    s.blobs != nil,
	}

	props, err := s.assessments.Properties(r.Context())
	if err != nil {
		return d, err
	}
	d.Properties = props
	for _, p := range props {
		if p.ID == sub.PropertyID {
			d.PropertyName = p.Name
		}
	}

	if sub.PropertyID > 0 {
		units, err := s.assessments.AvailableUnits(r.Context(), sub.PropertyID)
		if err != nil {
			return d, err
		}
		d.Units = units
		for _, u := range units {
			if u.ID == sub.UnitID {
				d.UnitNumber = u.Number
			}
		}
	}

	agents, err := s.users.Agents()
	if err != nil {
		return d, err
	}
	d.Agents = agents
	return d, nil
}

// handleForm serves the intake form. A POST with step=review validates and
// shows the answers back; step=confirm stores them.
func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		sub := assessment.Submission{
			ShowingDate: time.Now().Format(time.DateOnly),
			ShowingTime: time.Now().Format("15:04"),
		}
		sub.PropertyID, _ = strconv.ParseInt(r.URL.Query().Get("property_id"), 10, 64)
		s.renderForm(w, r, "form.html", sub, nil, http.StatusOK)
	case http.MethodPost:
		s.submitForm(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) renderForm(w http.ResponseWriter, r *http.Request, page string, sub assessment.Submission, fe assessment.FieldErrors, code int) {
	d, err := s.newFormData(r, sub)
	if err != nil {
		slog.Error("loading form data", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	d.Errors = fe
	s.renderStatus(w, page, d, code)
}

func (s *Server) submitForm(w http.ResponseWriter, r *http.Request) {
	sub, voice, fe, err := s.parseSubmission(r)
	if err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	step := r.FormValue("step")
	if step == "edit" {
		s.renderForm(w, r, "form.html", sub, nil, http.StatusOK)
		return
	}

	if verr := s.validator.Validate(&sub); verr != nil {
		var more assessment.FieldErrors
		if !errors.As(verr, &more) {
			slog.Error("validating assessment", "error", verr)
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		for k, v := range more {
			fe[k] = v
		}
	}
	if len(fe) > 0 {
		s.renderForm(w, r, "form.html", sub, fe, http.StatusUnprocessableEntity)
		return
	}

	if step != "confirm" {
		// The recording is stored once, when the answers are first accepted.
		// Later steps carry its link.
		if voice != nil {
			link, err := s.uploadVoiceNote(r.Context(), voice)
			if err != nil {
				s.renderForm(w, r, "form.html", sub, assessment.FieldErrors{"voice_note": err.Error()}, http.StatusUnprocessableEntity)
				return
			}
			sub.VoiceNoteURL = link
		}
		s.renderForm(w, r, "form_review.html", sub, nil, http.StatusOK)
		return
	}

	saved, err := s.assessments.Insert(r.Context(), &sub)
	if errors.Is(err, assessment.ErrUnitMismatch) {
		s.renderForm(w, r, "form.html", sub, assessment.FieldErrors{"unit_id": "is not in the selected property"}, http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		slog.Error("saving assessment", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	slog.Info("assessment submitted", "id", saved.ID, "agent", saved.Agent, "property", saved.PropertyCode)

	d := formData{Saved: saved}
	sent, err := s.confirmToProspect(r.Context(), saved)
	if err != nil {
		d.EmailErr = "The confirmation email could not be sent."
	}
	d.EmailSent = sent
	s.render(w, "form_done.html", d)
}

// confirmToProspect emails the prospect a summary of a saved assessment.
// Nothing is sent when no address was given.
func (s *Server) confirmToProspect(ctx context.Context, saved *assessment.Assessment) (bool, error) {
	if saved.ProspectEmail == "" {
		return false, nil
	}
	if _, err := email.SendConfirmation(ctx, s.sender, confirmationFor(saved)); err != nil {
		slog.Warn("sending confirmation", "assessment", saved.ID, "error", err)
		return false, err
	}
	return true, nil
}

// parseSubmission reads the form. An attached voice note is checked and
// returned unstored; a voice_note_url must point at a recording already in
// the blob store. Problems with either come back as field errors.
func (s *Server) parseSubmission(r *http.Request) (assessment.Submission, []byte, assessment.FieldErrors, error) {
	fe := assessment.FieldErrors{}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(maxVoiceNote + 1<<20); err != nil {
			return assessment.Submission{}, nil, nil, err
		}
	} else if err := r.ParseForm(); err != nil {
		return assessment.Submission{}, nil, nil, err
	}

	sub := assessment.Submission{
		ShowingDate:    r.FormValue("date"),
		ShowingTime:    r.FormValue("time"),
		Agent:          r.FormValue("agent"),
		ProspectName:   r.FormValue("prospect_name"),
		ProspectPhone:  r.FormValue("prospect_phone"),
		ProspectEmail:  r.FormValue("prospect_email"),
		Recommendation: assessment.Recommendation(r.FormValue("recommendation")),
		Observations:   map[string][]string{},
		Notes:          map[string]string{},
	}
	sub.PropertyID, _ = strconv.ParseInt(r.FormValue("property_id"), 10, 64)
	sub.UnitID, _ = strconv.ParseInt(r.FormValue("unit_id"), 10, 64)

	for _, sec := range assessment.Sections() {
		if sec.Group != "" {
			if vals := r.Form[sec.Group]; len(vals) > 0 {
				sub.Observations[sec.Group] = vals
			}
		}
		if sec.NotesField != "" {
			if v := strings.TrimSpace(r.FormValue(sec.NotesField)); v != "" {
				sub.Notes[sec.NotesField] = v
			}
		}
	}

	if link := r.FormValue("voice_note_url"); link != "" {
		if s.blobs != nil && s.blobs.Stored(link, blobstore.VoiceNotePrefix) {
			sub.VoiceNoteURL = link
		} else {
			fe["voice_note"] = "is not a stored recording"
		}
	}

	var voice []byte
	if r.MultipartForm != nil && r.FormValue("step") != "confirm" {
		if files := r.MultipartForm.File["voice_note"]; len(files) > 0 && files[0].Size > 0 {
			data, err := s.readVoiceNote(files[0])
			if err != nil {
				fe["voice_note"] = err.Error()
			} else {
				voice = data
			}
		}
	}
	return sub, voice, fe, nil
}

// readVoiceNote reads an upload and checks that it is a recording.
func (s *Server) readVoiceNote(fh *multipart.FileHeader) ([]byte, error) {
	if s.blobs == nil {
		return nil, errors.New("voice notes are not enabled")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, errors.New("could not read upload")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			slog.Warn("closing upload", "error", cerr)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(f, maxVoiceNote+1))
	if err != nil {
		return nil, errors.New("could not read upload")
	}
	if len(data) > maxVoiceNote {
		return nil, fmt.Errorf("must be under %d MB", maxVoiceNote>>20)
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "audio/") && !mt.Is("video/webm") {
		return nil, fmt.Errorf("must be an audio recording, got %s", mt.String())
	}
	return data, nil
}

func (s *Server) uploadVoiceNote(ctx context.Context, data []byte) (string, error) {
	link, err := s.blobs.Upload(ctx, blobstore.VoiceNotePath(time.Now()), data)
	if err != nil {
		slog.Error("uploading voice note", "error", err)
		return "", errors.New("upload failed, please try again")
	}
	return link, nil
}

// handleFormUnits returns the available units of a property for the form.
func (s *Server) handleFormUnits(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id, err := strconv.ParseInt(r.URL.Query().Get("property_id"), 10, 64)
	if err != nil || id <= 0 {
		apiError(w, "invalid property_id", http.StatusBadRequest)
		return
	}
	units, err := s.assessments.AvailableUnits(r.Context(), id)
	if err != nil {
		slog.Error("listing units", "property", id, "error", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if units == nil {
		units = []*assessment.Unit{}
	}
	apiJSON(w, units, http.StatusOK)
}

func confirmationFor(a *assessment.Assessment) email.Confirmation {
	return email.Confirmation{
		To:             a.ProspectEmail,
		ProspectName:   a.ProspectName,
		PropertyName:   a.PropertyName,
		UnitNumber:     a.UnitNumber,
		Date:           a.ShowingDate,
		Time:           a.ShowingTime,
		Agent:          a.Agent,
		Recommendation: a.Recommendation.Label(),
	}
}
