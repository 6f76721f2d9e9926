package fetcher

import (
	"context"
	"errors"
	"strings"
	"testing"
)

const replayCSV = `tick,symbol,name,open,high,low,last
1,nf_y2605,Y,8000,8010,7990,8005
1,nf_p2605,P,7600,7610,7590,
2,nf_y2605,Y,8000,8020,7990,8015
2,nf_p2605,P,7600,7620,7590,7611
`

func TestReplayServesTicksInOrder(t *testing.T) {
	rp, err := NewReplay(strings.NewReader(replayCSV))
	if err != nil {
		t.Fatalf("parse replay: %v", err)
	}
	if rp.Len() != 2 {
		t.Fatalf("expected 2 ticks, got %d", rp.Len())
	}

	symbols := []string{"nf_y2605", "nf_p2605"}
	first, err := rp.Fetch(context.Background(), symbols)
	if err != nil {
		t.Fatalf("fetch tick 1: %v", err)
	}
	if v, _ := first["nf_y2605"].Last.Get(); v != 8005 {
		t.Fatalf("unexpected last %v", v)
	}
	if first["nf_p2605"].Last.Valid() {
		t.Fatal("empty cell should be missing")
	}

	second, err := rp.Fetch(context.Background(), symbols)
	if err != nil {
		t.Fatalf("fetch tick 2: %v", err)
	}
	if v, _ := second["nf_p2605"].Last.Get(); v != 7611 {
		t.Fatalf("unexpected last %v", v)
	}

	if _, err := rp.Fetch(context.Background(), symbols); !errors.Is(err, ErrReplayExhausted) {
		t.Fatalf("expected ErrReplayExhausted, got %v", err)
	}
}

func TestReplayRejectsBadHeader(t *testing.T) {
	if _, err := NewReplay(strings.NewReader("a,b,c,d,e,f,g\n")); err == nil {
		t.Fatal("header without tick column should be rejected")
	}
}
