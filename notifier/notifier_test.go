package notifier_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/LegalDragon/Pickleball-Community-sub007/events"
	"github.com/LegalDragon/Pickleball-Community-sub007/metrics"
	"github.com/LegalDragon/Pickleball-Community-sub007/notifier"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFromEventJoinRequestCreated(t *testing.T) {
	n, ok := notifier.FromEvent(events.Envelope{
		DivisionID: "div-1",
		Payload: events.JoinRequestCreated{
			DivisionID:    "div-1",
			UnitName:      "Ann & Bob",
			RequesterName: "Cara Diaz",
			CaptainEmail:  "ann@example.com",
			Message:       "Saw your post",
		},
	})
	require.True(t, ok)
	assert.Equal(t, notifier.KindJoinRequestCreated, n.Kind)
	assert.Equal(t, []string{"ann@example.com"}, n.Recipients)
	assert.Contains(t, n.Text, "Saw your post")
}

func TestFromEventIgnoresInternalEvents(t *testing.T) {
	_, ok := notifier.FromEvent(events.Envelope{Payload: events.UnitDrawn{DivisionID: "d"}})
	assert.False(t, ok)
}

type capturedMail struct {
	to      []string
	subject string
	body    string
}

type fakeMailSender struct {
	sent []capturedMail
}

func (f *fakeMailSender) Send(to []string, subject, body string) error {
	f.sent = append(f.sent, capturedMail{to: to, subject: subject, body: body})
	return nil
}

func TestEmailNotifierRendersPerRecipient(t *testing.T) {
	sender := &fakeMailSender{}
	email := notifier.NewEmailNotifier(sender)

	err := email.Notify(context.Background(), notifier.Notification{
		Kind:       notifier.KindUnitWaitlisted,
		Subject:    "Smash Bros is on the waitlist",
		Text:       "Smash Bros is number 2 on the waitlist.",
		Recipients: []string{"a@example.com", "b@example.com"},
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 2)
	assert.Equal(t, []string{"b@example.com"}, sender.sent[1].to)
	assert.Contains(t, sender.sent[0].body, "number 2 on the waitlist")
	assert.Contains(t, sender.sent[0].body, "place opens up")
}

func TestEmailNotifierSkipsWithoutRecipients(t *testing.T) {
	sender := &fakeMailSender{}
	require.NoError(t, notifier.NewEmailNotifier(sender).Notify(context.Background(), notifier.Notification{Subject: "x"}))
	assert.Empty(t, sender.sent)
}

func TestRenderEmailFallsBackToGenericTemplate(t *testing.T) {
	body, err := notifier.RenderEmail(notifier.Notification{Kind: notifier.KindUnitsMerged, Subject: "Merged", Text: "<b>hi</b>"})
	require.NoError(t, err)
	assert.Contains(t, body, "Merged")
	assert.Contains(t, body, "&lt;b&gt;hi&lt;/b&gt;")
}

func TestMultiJoinsErrorsAndCounts(t *testing.T) {
	m := metrics.NewMock()
	ok := notifier.NewMock()
	failing := notifier.NewMock()
	failing.NotifyFunc = func(context.Context, notifier.Notification) error { return errors.New("down") }

	multi := notifier.NewMulti(m, discardLogger(), ok, failing)
	err := multi.Notify(context.Background(), notifier.Notification{Subject: "s"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "down")
	assert.Len(t, ok.Notifications(), 1)
	assert.Equal(t, 1, m.NotificationsFailed("mock"))
	assert.Equal(t, 1, m.NotificationsSent("mock"))
}

type fakeSlack struct {
	channel string
	calls   int
}

func (f *fakeSlack) PostMessageContext(_ context.Context, channelID string, _ ...slack.MsgOption) (string, string, error) {
	f.channel = channelID
	f.calls++
	return channelID, "123.456", nil
}

func TestSlackNotifierPostsToChannel(t *testing.T) {
	api := &fakeSlack{}
	s := notifier.NewSlackNotifierWithAPI(api, "C123")
	require.NoError(t, s.Notify(context.Background(), notifier.Notification{Subject: "Drawing complete", Text: "#1 Ann"}))
	assert.Equal(t, "C123", api.channel)
	assert.Equal(t, 1, api.calls)
}

func TestSlackNotifierRequiresChannel(t *testing.T) {
	s := notifier.NewSlackNotifierWithAPI(&fakeSlack{}, "")
	assert.Error(t, s.Notify(context.Background(), notifier.Notification{}))
}

func TestWebhookNotifierRetriesServerErrors(t *testing.T) {
	var attempts int32
	var received notifier.Notification
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	hook := notifier.NewWebhookNotifier(srv.URL, discardLogger())
	err := hook.Notify(context.Background(), notifier.Notification{Kind: notifier.KindUnitsMerged, DivisionID: "div-2", Subject: "merged"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&attempts))
	assert.Equal(t, "div-2", received.DivisionID)
}

func TestSubscriberBridgesEvents(t *testing.T) {
	mock := notifier.NewMock()
	handle := notifier.Subscriber(mock)

	require.NoError(t, handle(context.Background(), events.Envelope{Payload: events.UnitBroken{DivisionID: "d"}}))
	assert.Empty(t, mock.Notifications())

	require.NoError(t, handle(context.Background(), events.Envelope{
		DivisionID: "d",
		Payload:    events.JoinRequestResolved{DivisionID: "d", UnitName: "Team", Accepted: true, RequesterEmail: "r@example.com"},
	}))
	require.Len(t, mock.Notifications(), 1)
	assert.Equal(t, notifier.KindJoinRequestResolved, mock.Notifications()[0].Kind)
}
