package qualitygate

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/caliper/core/measure"
	"github.com/huangsam/caliper/schema"
)

// AlertNotificationType is the notification type raised on gate status changes.
const AlertNotificationType = "alerts"

// Transition is a change of the gate status between two analyses.
type Transition struct {
	Previous   schema.EvaluationStatus // empty on a first alert
	Current    schema.EvaluationStatus
	Gate       string
	Text       string
	IsNewAlert bool
}

// DetectTransition compares the alert_status measure of the previous analysis with the current result.
// Without a previous status only an ERROR counts, as a new alert.
func DetectTransition(previous measure.Measure, hasPrevious bool, current *Result) (Transition, bool) {
	t := Transition{Current: current.Status, Gate: current.Gate, Text: current.Text}
	var prev schema.EvaluationStatus
	if hasPrevious {
		prev, hasPrevious = previous.Level()
	}
	if !hasPrevious {
		if current.Status != schema.ErrorStatus {
			return Transition{}, false
		}
		t.IsNewAlert = true
		return t, true
	}
	if prev == current.Status {
		return Transition{}, false
	}
	t.Previous = prev
	return t, true
}

func label(s schema.EvaluationStatus) string {
	switch s {
	case schema.ErrorStatus:
		return "Red"
	case schema.OKStatus:
		return "Green"
	default:
		return "Unknown"
	}
}

// Name returns the event name, such as "Red (was Green)".
func (t Transition) Name() string {
	if t.Previous == "" {
		return label(t.Current)
	}
	return label(t.Current) + " (was " + label(t.Previous) + ")"
}

// Event returns the ALERT event of the transition.
func (t Transition) Event(analysisUUID, componentUUID string, date int64, now time.Time) schema.Event {
	return schema.Event{
		UUID:          uuid.NewString(),
		AnalysisUUID:  analysisUUID,
		ComponentUUID: componentUUID,
		Name:          t.Name(),
		Category:      schema.AlertEvent,
		Description:   t.Text,
		Date:          date,
		CreatedAt:     now.UnixMilli(),
	}
}

// Notification returns the notification of the transition.
func (t Transition) Notification(projectKey, projectName, branch string, now time.Time) schema.Notification {
	fields := map[string]string{
		"projectName": projectName,
		"alertName":   t.Name(),
		"alertText":   t.Text,
		"alertLevel":  string(t.Current),
		"isNewAlert":  strconv.FormatBool(t.IsNewAlert),
	}
	if t.Gate != "" {
		fields["qualityGate"] = t.Gate
	}
	if branch != "" {
		fields["branch"] = branch
	}
	return schema.Notification{
		Type:       AlertNotificationType,
		ProjectKey: projectKey,
		Fields:     fields,
		CreatedAt:  now,
	}
}
