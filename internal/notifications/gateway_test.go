package notifications

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
)

type fakeLedger struct {
	inserted []Record
	failFor  map[int]error // user id -> insert error
}

func (f *fakeLedger) Insert(_ context.Context, rec Record) error {
	if err := f.failFor[rec.UserID]; err != nil {
		return err
	}
	f.inserted = append(f.inserted, rec)
	return nil
}

type fakeTokens struct {
	tokens      map[int][]string
	lookupErr   error
	deactivated []string
}

func (f *fakeTokens) ActiveTokens(_ context.Context, userID int) ([]string, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.tokens[userID], nil
}

func (f *fakeTokens) DeactivateToken(_ context.Context, token string) error {
	f.deactivated = append(f.deactivated, token)
	return nil
}

type fakePusher struct {
	result MulticastResult
	err    error
	sent   [][]string
	data   []map[string]string
}

func (f *fakePusher) Multicast(_ context.Context, tokens []string, _, _ string, data map[string]string) (MulticastResult, error) {
	f.sent = append(f.sent, tokens)
	f.data = append(f.data, data)
	if f.err != nil {
		return MulticastResult{}, f.err
	}
	return f.result, nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSendOneDualDelivery(t *testing.T) {
	ledger := &fakeLedger{}
	tokens := &fakeTokens{tokens: map[int][]string{1: {"tok-a", "tok-b"}}}
	pusher := &fakePusher{result: MulticastResult{SuccessCount: 2}}
	g := NewGateway(ledger, tokens, pusher, discard())

	out := g.SendOne(context.Background(), Record{
		UserID: 1, Title: "t", Body: "b",
		Kind: KindFeedbackReminder, RelatedID: 42,
		Data: map[string]string{"event_title": "Seminar AI", "action": "add_feedback"},
	})

	if !out.InApp || !out.Push {
		t.Fatalf("outcome = %+v, want both channels delivered", out)
	}
	if len(ledger.inserted) != 1 {
		t.Fatalf("ledger writes = %d, want 1", len(ledger.inserted))
	}
	if got := pusher.data[0]["related_id"]; got != "42" {
		t.Errorf("push data related_id = %q, want \"42\"", got)
	}
	if got := pusher.data[0]["action"]; got != "add_feedback" {
		t.Errorf("push data action = %q", got)
	}
}

func TestSendOneLedgerFailureStillPushes(t *testing.T) {
	ledger := &fakeLedger{failFor: map[int]error{1: errors.New("db down")}}
	tokens := &fakeTokens{tokens: map[int][]string{1: {"tok-a"}}}
	pusher := &fakePusher{result: MulticastResult{SuccessCount: 1}}
	g := NewGateway(ledger, tokens, pusher, discard())

	out := g.SendOne(context.Background(), Record{UserID: 1, Kind: KindGeneral})

	if out.InApp {
		t.Error("InApp = true despite insert failure")
	}
	if !out.Push {
		t.Error("Push = false; push must be attempted regardless of the in-app outcome")
	}
	if len(out.Errors) != 1 {
		t.Errorf("Errors = %v, want one entry", out.Errors)
	}
}

func TestSendOneNoEndpointsIsNotAnError(t *testing.T) {
	ledger := &fakeLedger{}
	tokens := &fakeTokens{}
	pusher := &fakePusher{}
	g := NewGateway(ledger, tokens, pusher, discard())

	out := g.SendOne(context.Background(), Record{UserID: 9, Kind: KindGeneral})

	if !out.InApp || out.Push {
		t.Errorf("outcome = %+v, want in-app only", out)
	}
	if len(out.Errors) != 0 {
		t.Errorf("Errors = %v, want none", out.Errors)
	}
	if len(pusher.sent) != 0 {
		t.Error("push attempted with no endpoints")
	}
}

func TestSendOneDeactivatesInvalidTokens(t *testing.T) {
	ledger := &fakeLedger{}
	tokens := &fakeTokens{tokens: map[int][]string{1: {"good", "stale"}}}
	pusher := &fakePusher{result: MulticastResult{
		SuccessCount:  1,
		FailureCount:  1,
		InvalidTokens: []string{"stale"},
	}}
	g := NewGateway(ledger, tokens, pusher, discard())

	g.SendOne(context.Background(), Record{UserID: 1, Kind: KindGeneral})

	if len(tokens.deactivated) != 1 || tokens.deactivated[0] != "stale" {
		t.Errorf("deactivated = %v, want [stale]", tokens.deactivated)
	}
}

func TestSendManyPartialFailureContainment(t *testing.T) {
	// 5 recipients, the 3rd fails on both channels: 4 success, 1 failed,
	// and every recipient still gets an attempt.
	ledger := &fakeLedger{failFor: map[int]error{3: errors.New("constraint")}}
	tokens := &fakeTokens{}
	g := NewGateway(ledger, tokens, nil, discard())

	batch := g.SendMany(context.Background(), []int{1, 2, 3, 4, 5}, "t", "b", KindFeedbackReminder, 7, nil)

	if batch.Success != 4 || batch.Failed != 1 {
		t.Fatalf("batch = %+v, want success=4 failed=1", batch)
	}
	if len(ledger.inserted) != 4 {
		t.Errorf("ledger writes = %d, want 4", len(ledger.inserted))
	}
	for i, rec := range ledger.inserted {
		if rec.Kind != KindFeedbackReminder || rec.RelatedID != 7 {
			t.Errorf("record %d = %+v", i, rec)
		}
	}
}

func TestSendManyPreservesRecipientOrder(t *testing.T) {
	ledger := &fakeLedger{}
	g := NewGateway(ledger, &fakeTokens{}, nil, discard())

	g.SendMany(context.Background(), []int{5, 1, 9}, "t", "b", KindGeneral, 0, nil)

	var got []int
	for _, rec := range ledger.inserted {
		got = append(got, rec.UserID)
	}
	if fmt.Sprint(got) != "[5 1 9]" {
		t.Errorf("delivery order = %v, want [5 1 9]", got)
	}
}

func TestSendOnePushErrorDegradesToInAppOnly(t *testing.T) {
	ledger := &fakeLedger{}
	tokens := &fakeTokens{tokens: map[int][]string{1: {"tok"}}}
	pusher := &fakePusher{err: errors.New("fcm unreachable")}
	g := NewGateway(ledger, tokens, pusher, discard())

	out := g.SendOne(context.Background(), Record{UserID: 1, Kind: KindGeneral})

	if !out.InApp {
		t.Error("InApp = false; push failure must not affect the in-app write")
	}
	if out.Push {
		t.Error("Push = true despite multicast error")
	}
	if len(out.Errors) != 1 {
		t.Errorf("Errors = %v", out.Errors)
	}
}
