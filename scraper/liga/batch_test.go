package liga

import (
	"context"
	"sync"
	"testing"

	"github.com/oDuPrado/web-busca/browser"
	"github.com/oDuPrado/web-busca/models"
	"github.com/oDuPrado/web-busca/utils"
)

func fixtureFactory(track *[]*fakeSession, mu *sync.Mutex) SessionFactory {
	return func() (browser.Session, error) {
		sess, _, _ := cardFixture()
		mu.Lock()
		*track = append(*track, sess)
		mu.Unlock()
		return sess, nil
	}
}

func TestBatchRunIsolatesItemFailures(t *testing.T) {
	var (
		mu       sync.Mutex
		sessions []*fakeSession
	)
	ex := testExtractor(Policy{})
	batch := NewBatch(ex, fixtureFactory(&sessions, &mu), 1, utils.NewLogger())

	items := []models.Item{
		{Name: "Charizard ex", Collection: "OBF", Number: "125"},
		{Name: "Charizard ex", Collection: "OBF", Number: "999"}, // not in cart
		{Name: "Charizard ex", Collection: "OBF", Number: "125"},
	}

	results, err := batch.Run(context.Background(), items)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	if results[0].Err != nil || results[2].Err != nil {
		t.Errorf("healthy items failed: %v / %v", results[0].Err, results[2].Err)
	}
	if reason, ok := AbortReasonOf(results[1].Err); !ok || reason != ReasonItemNotInCart {
		t.Errorf("results[1].Err = %v, want abort %s", results[1].Err, ReasonItemNotInCart)
	}
	if results[0].Offer == nil || results[0].Offer.UnitPrice != 189.90 {
		t.Errorf("results[0].Offer = %+v, want priced offer", results[0].Offer)
	}
}

func TestBatchRunClosesEverySession(t *testing.T) {
	var (
		mu       sync.Mutex
		sessions []*fakeSession
	)
	ex := testExtractor(Policy{})
	batch := NewBatch(ex, fixtureFactory(&sessions, &mu), 2, utils.NewLogger())

	items := []models.Item{
		{Name: "Charizard ex", Collection: "OBF", Number: "125"},
		{Name: "Charizard ex", Collection: "OBF", Number: "125"},
		{Name: "Charizard ex", Collection: "OBF", Number: "125"},
		{Name: "Charizard ex", Collection: "OBF", Number: "125"},
	}

	if _, err := batch.Run(context.Background(), items); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(sessions) != 2 {
		t.Fatalf("opened %d sessions, want one per worker (2)", len(sessions))
	}
	for i, s := range sessions {
		if s.closed != 1 {
			t.Errorf("session %d closed %d times, want 1", i, s.closed)
		}
	}
}

func TestBatchRunSessionOpenFailure(t *testing.T) {
	ex := testExtractor(Policy{})
	factory := SessionFactory(func() (browser.Session, error) {
		return nil, browser.ErrDriverUnavailable
	})
	batch := NewBatch(ex, factory, 1, utils.NewLogger())

	items := []models.Item{
		{Name: "Charizard ex", Collection: "OBF", Number: "125"},
		{Name: "Charizard ex", Collection: "OBF", Number: "126"},
	}

	results, err := batch.Run(context.Background(), items)
	if err == nil {
		t.Fatal("Run should fail when no browser session can be opened")
	}
	for i, r := range results {
		if r.Err == nil {
			t.Errorf("results[%d].Err = nil, want session open error", i)
		}
	}
}

func TestBatchRunProgressReachesHundred(t *testing.T) {
	var (
		mu       sync.Mutex
		sessions []*fakeSession
		percents []int
	)
	ex := testExtractor(Policy{})
	batch := NewBatch(ex, fixtureFactory(&sessions, &mu), 1, utils.NewLogger())
	batch.SetProgress(func(percent int, status string) {
		percents = append(percents, percent)
	})

	items := []models.Item{
		{Name: "Charizard ex", Collection: "OBF", Number: "125"},
		{Name: "Charizard ex", Collection: "OBF", Number: "125"},
		{Name: "Charizard ex", Collection: "OBF", Number: "125"},
	}

	if _, err := batch.Run(context.Background(), items); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(percents) != 3 {
		t.Fatalf("progress fired %d times, want 3", len(percents))
	}
	for i := 1; i < len(percents); i++ {
		if percents[i] < percents[i-1] {
			t.Errorf("progress went backwards: %v", percents)
		}
	}
	if percents[len(percents)-1] != 100 {
		t.Errorf("final progress = %d, want 100", percents[len(percents)-1])
	}
}

func TestBatchRunEmptyList(t *testing.T) {
	ex := testExtractor(Policy{})
	batch := NewBatch(ex, func() (browser.Session, error) {
		t.Fatal("no session should be opened for an empty list")
		return nil, nil
	}, 1, utils.NewLogger())

	results, err := batch.Run(context.Background(), nil)
	if err != nil || results != nil {
		t.Fatalf("Run(empty) = %v, %v; want nil, nil", results, err)
	}
}
