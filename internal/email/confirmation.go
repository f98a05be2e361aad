package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
)

// DefaultConfirmationSubject is used when a request leaves the subject blank.
const DefaultConfirmationSubject = "Tenant Assessment Submission Confirmation"

// Confirmation is the request body of the send-email endpoint.
type Confirmation struct {
	To             string `json:"to"`
	Subject        string `json:"subject"`
	ProspectName   string `json:"prospectName"`
	PropertyName   string `json:"propertyName"`
	UnitNumber     string `json:"unitNumber"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	Agent          string `json:"agent"`
	Recommendation string `json:"recommendation"`
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<h1>Tenant Assessment Submitted</h1>
<p>Dear {{.ProspectName}},</p>
<p>Your tenant assessment has been successfully submitted. Below are the details:</p>
<ul>
  <li><strong>Property:</strong> {{.PropertyName}}</li>
  <li><strong>Unit:</strong> {{.UnitNumber}}</li>
  <li><strong>Date:</strong> {{.Date}}</li>
  <li><strong>Time:</strong> {{.Time}}</li>
  <li><strong>Agent:</strong> {{.Agent}}</li>
  <li><strong>Recommendation:</strong> {{.Recommendation}}</li>
</ul>
<p>Thank you for your submission!</p>
`))

// Render builds the HTML body. Field values are escaped.
func (c Confirmation) Render() (string, error) {
	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, c); err != nil {
		return "", fmt.Errorf("rendering confirmation: %w", err)
	}
	return buf.String(), nil
}

// Message builds the email for c.
func (c Confirmation) Message() (Message, error) {
	if strings.TrimSpace(c.To) == "" {
		return Message{}, fmt.Errorf("missing recipient")
	}
	body, err := c.Render()
	if err != nil {
		return Message{}, err
	}
	subject := strings.TrimSpace(c.Subject)
	if subject == "" {
		subject = DefaultConfirmationSubject
	}
	return Message{To: []string{strings.TrimSpace(c.To)}, Subject: subject, Body: body, HTML: true}, nil
}

// SendConfirmation renders c and delivers it, returning the Message-ID.
func SendConfirmation(ctx context.Context, s Sender, c Confirmation) (string, error) {
	m, err := c.Message()
	if err != nil {
		return "", err
	}
	id, err := s.Send(ctx, m)
	if err != nil {
		return "", fmt.Errorf("sending confirmation to %s: %w", m.To[0], err)
	}
	return id, nil
}
