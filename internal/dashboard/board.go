package dashboard

import (
	"github.com/grhey0115/Tenant-Assessment/internal/applicant"
	"github.com/grhey0115/Tenant-Assessment/internal/note"
	"github.com/grhey0115/Tenant-Assessment/internal/notify"
	"github.com/grhey0115/Tenant-Assessment/internal/pipeline"
)

// Board is a render-ready snapshot of the dashboard.
type Board struct {
	Items      []*applicant.Applicant
	Total      int
	Page       int
	TotalPages int
	Filter     Filter
	Counts     []StageCount
	Properties []string
	Agents     []string

	Pending       *pipeline.PendingTransition
	PendingName   string
	Selected      *applicant.Applicant
	Notes         []*note.Note
	Loading       bool
	Err           string
	Notifications []notify.Notification
}

// BuildBoard derives the visible page from s.
func BuildBoard(s State) Board {
	filtered := s.Filtered()
	props, agents := Options(s.Applicants)
	b := Board{
		Items:      Paginate(filtered, s.Page, PerPage),
		Total:      len(filtered),
		Page:       s.Page,
		TotalPages: TotalPages(len(filtered), PerPage),
		Filter:     s.Filter,
		Counts:     CountByStage(s.Applicants),
		Properties: props,
		Agents:     agents,
		Pending:    s.Pending,
		Notes:      s.Notes,
		Loading:    s.Loading,
		Err:        s.Err,
	}
	if s.Pending != nil {
		if a := s.Find(s.Pending.ApplicantID); a != nil {
			b.PendingName = a.Name
		}
	}
	if s.Selected != 0 {
		b.Selected = s.Find(s.Selected)
	}
	return b
}

// Board returns the current board with live notifications.
func (s *Store) Board() Board {
	b := BuildBoard(s.Snapshot())
	b.Notifications = s.notices.Active()
	return b
}
