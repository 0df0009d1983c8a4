package selector

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"autopost/internal/llm"
	"autopost/internal/model"
)

type fakeGateway struct {
	reply string
	err   error
	calls int
	last  llm.Request
}

func (f *fakeGateway) Generate(ctx context.Context, req llm.Request) (string, error) {
	f.calls++
	f.last = req
	return f.reply, f.err
}

func topics(n int) []model.Topic {
	out := make([]model.Topic, n)
	for i := range out {
		out[i] = model.Topic{ID: fmt.Sprintf("t%d", i), Title: fmt.Sprintf("Title %d", i), Subject: "tech", OriginIndex: i}
	}
	return out
}

func ids(ts []model.Topic) string {
	var s []string
	for _, t := range ts {
		s = append(s, t.ID)
	}
	return strings.Join(s, ",")
}

var acct = model.Account{Name: "tech", Theme: "technology", Description: "Gadgets and AI"}

func TestSelectEmptyPoolSkipsModel(t *testing.T) {
	gw := &fakeGateway{reply: `{"selected_numbers":[1]}`}
	if got := New(gw).Select(context.Background(), nil, acct, 3); len(got) != 0 {
		t.Fatalf("got %v", got)
	}
	if gw.calls != 0 {
		t.Fatalf("gateway called %d times", gw.calls)
	}
}

func TestSelectFollowsModelOrder(t *testing.T) {
	gw := &fakeGateway{reply: `{"selected_numbers":[3,1,3,9,2]}`}
	got := New(gw).Select(context.Background(), topics(5), acct, 3)
	if ids(got) != "t2,t0,t1" {
		t.Fatalf("got %s", ids(got))
	}
	if gw.last.Schema == nil || gw.last.MaxTokens != 500 {
		t.Fatalf("request not configured: %+v", gw.last)
	}
	if !strings.Contains(gw.last.Messages[0].Content, "1. Title 0 - tech") || !strings.Contains(gw.last.Messages[0].Content, "exactly 3") {
		t.Fatalf("prompt missing enumeration: %s", gw.last.Messages[0].Content)
	}
	if !strings.Contains(gw.last.System, "technology") {
		t.Fatalf("system prompt missing theme: %s", gw.last.System)
	}
}

func TestSelectPromptBoundedToFifty(t *testing.T) {
	gw := &fakeGateway{reply: `{"selected_numbers":[50,51]}`}
	got := New(gw).Select(context.Background(), topics(80), acct, 2)
	if ids(got) != "t49" {
		t.Fatalf("got %s", ids(got))
	}
	if strings.Contains(gw.last.Messages[0].Content, "51. ") {
		t.Fatal("prompt lists more than 50 topics")
	}
}

func TestSelectFallsBackOnGatewayError(t *testing.T) {
	gw := &fakeGateway{err: errors.New("connection refused")}
	pool := topics(80)
	got := New(gw, WithRand(rand.New(rand.NewSource(1)))).Select(context.Background(), pool, acct, 10)
	assertDistinctSubset(t, got, pool, 10)
}

func TestSelectFallsBackOnEmptyInterpretation(t *testing.T) {
	gw := &fakeGateway{reply: `{"selected_numbers":[99]}`}
	pool := topics(5)
	got := New(gw, WithRand(rand.New(rand.NewSource(7)))).Select(context.Background(), pool, acct, 2)
	assertDistinctSubset(t, got, pool, 2)
}

func TestSelectBoundedByAvailability(t *testing.T) {
	gw := &fakeGateway{reply: "1 2 3 4 5 1 2 3 4 5"}
	pool := topics(5)
	got := New(gw).Select(context.Background(), pool, acct, 10)
	assertDistinctSubset(t, got, pool, 5)

	got = New(nil).Select(context.Background(), pool, acct, 10)
	assertDistinctSubset(t, got, pool, 5)
}

func TestSampleIsSeedable(t *testing.T) {
	pool := topics(40)
	a := New(nil, WithRand(rand.New(rand.NewSource(42)))).Sample(pool, 5)
	b := New(nil, WithRand(rand.New(rand.NewSource(42)))).Sample(pool, 5)
	if ids(a) != ids(b) {
		t.Fatalf("same seed gave %s and %s", ids(a), ids(b))
	}
}

func assertDistinctSubset(t *testing.T, got, pool []model.Topic, want int) {
	t.Helper()
	if len(got) != want {
		t.Fatalf("len = %d, want %d", len(got), want)
	}
	in := map[string]bool{}
	for _, p := range pool {
		in[p.ID] = true
	}
	seen := map[string]bool{}
	for _, g := range got {
		if !in[g.ID] {
			t.Fatalf("%s not in pool", g.ID)
		}
		if seen[g.ID] {
			t.Fatalf("duplicate %s", g.ID)
		}
		seen[g.ID] = true
	}
}
