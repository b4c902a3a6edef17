package notifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/LegalDragon/Pickleball-Community-sub007/events"
)

// FromEvent renders the notification for events that people care about.
func FromEvent(env events.Envelope) (Notification, bool) {
	n := Notification{DivisionID: env.DivisionID}
	switch e := env.Payload.(type) {
	case events.JoinRequestCreated:
		n.Kind = KindJoinRequestCreated
		n.Subject = fmt.Sprintf("%s wants to join %s", e.RequesterName, e.UnitName)
		n.Text = fmt.Sprintf("%s asked to join %s.", e.RequesterName, e.UnitName)
		if e.Message != "" {
			n.Text += " Message: " + e.Message
		}
		n.Recipients = nonEmpty(e.CaptainEmail)
	case events.JoinRequestResolved:
		n.Kind = KindJoinRequestResolved
		if e.Accepted {
			n.Subject = fmt.Sprintf("You joined %s", e.UnitName)
			n.Text = fmt.Sprintf("Your request to join %s was accepted.", e.UnitName)
		} else {
			n.Subject = fmt.Sprintf("Request to join %s declined", e.UnitName)
			n.Text = fmt.Sprintf("Your request to join %s was declined.", e.UnitName)
		}
		n.Recipients = nonEmpty(e.RequesterEmail)
	case events.UnitsMerged:
		n.Kind = KindUnitsMerged
		n.Subject = fmt.Sprintf("Your team is now %s", e.UnitName)
		n.Text = fmt.Sprintf("Two registrations were combined into %s.", e.UnitName)
		n.Recipients = e.MemberEmails
	case events.UnitWaitlisted:
		n.Kind = KindUnitWaitlisted
		n.Subject = fmt.Sprintf("%s is on the waitlist", e.UnitName)
		n.Text = fmt.Sprintf("%s is number %d on the waitlist.", e.UnitName, e.Position)
		if e.Reason != "" {
			n.Text += " " + e.Reason
		}
		n.Recipients = e.MemberEmails
	case events.DrawingCompleted:
		n.Kind = KindDrawingCompleted
		n.Subject = fmt.Sprintf("Drawing complete for %s", e.DivisionName)
		lines := make([]string, 0, len(e.Assignments))
		for _, a := range e.Assignments {
			lines = append(lines, fmt.Sprintf("#%d %s", a.UnitNumber, a.UnitName))
		}
		n.Text = strings.Join(lines, "\n")
	default:
		return Notification{}, false
	}
	return n, true
}

// Subscriber adapts a Notifier to the event dispatcher.
func Subscriber(n Notifier) events.Handler {
	return func(ctx context.Context, env events.Envelope) error {
		msg, ok := FromEvent(env)
		if !ok {
			return nil
		}
		return n.Notify(ctx, msg)
	}
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
