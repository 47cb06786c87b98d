package classify

import (
	"reflect"
	"strings"
	"testing"
)

func TestClassifyPriceOnly(t *testing.T) {
	c := Classify("What is the price of Bitcoin?")
	if c.Category != CategoryPriceOnly {
		t.Fatalf("expected price_only, got %s", c.Category)
	}
	if !reflect.DeepEqual(c.DetectedProjects, []string{"bitcoin"}) {
		t.Fatalf("expected [bitcoin], got %v", c.DetectedProjects)
	}
	if !strings.Contains(c.Reasoning, "price-related") {
		t.Fatalf("reasoning should cite price keywords: %q", c.Reasoning)
	}
}

func TestClassifyKBOnly(t *testing.T) {
	c := Classify("Explain Bitcoin's proof of work consensus mechanism")
	if c.Category != CategoryKBOnly {
		t.Fatalf("expected kb_only, got %s", c.Category)
	}
	if !reflect.DeepEqual(c.DetectedProjects, []string{"bitcoin"}) {
		t.Fatalf("expected [bitcoin], got %v", c.DetectedProjects)
	}
	if !strings.Contains(c.Reasoning, "technical keywords") {
		t.Fatalf("reasoning should cite technical keywords: %q", c.Reasoning)
	}
}

func TestClassifyCombined(t *testing.T) {
	c := Classify("Bitcoin price and its consensus algorithm")
	if c.Category != CategoryCombined {
		t.Fatalf("expected combined, got %s", c.Category)
	}
	if !strings.Contains(c.Reasoning, "both price terms") {
		t.Fatalf("reasoning should cite both counts: %q", c.Reasoning)
	}
}

func TestClassifyCombinedWinsOverEither(t *testing.T) {
	// one keyword from each set is enough, regardless of how lopsided the counts are
	c := Classify("usd consensus protocol algorithm mechanism")
	if c.Category != CategoryCombined {
		t.Fatalf("expected combined, got %s", c.Category)
	}
}

func TestClassifyAutoOnProjectMention(t *testing.T) {
	c := Classify("tell me about ethereum")
	if c.Category != CategoryAuto {
		t.Fatalf("expected auto, got %s", c.Category)
	}
	if !reflect.DeepEqual(c.DetectedProjects, []string{"ethereum"}) {
		t.Fatalf("expected [ethereum], got %v", c.DetectedProjects)
	}
	if !strings.Contains(c.Reasoning, "ethereum") {
		t.Fatalf("reasoning should list detections: %q", c.Reasoning)
	}
}

func TestClassifyAutoNoSignal(t *testing.T) {
	for _, q := range []string{"", "hello there", "what should I eat today"} {
		c := Classify(q)
		if c.Category != CategoryAuto {
			t.Fatalf("query %q: expected auto, got %s", q, c.Category)
		}
		if len(c.DetectedProjects) != 0 {
			t.Fatalf("query %q: expected no detections, got %v", q, c.DetectedProjects)
		}
	}
}

func TestDetectProjectsDedupAliasAndTicker(t *testing.T) {
	c := Classify("is bitcoin (btc) still relevant")
	if !reflect.DeepEqual(c.DetectedProjects, []string{"bitcoin"}) {
		t.Fatalf("alias+ticker should collapse to one entry, got %v", c.DetectedProjects)
	}
}

func TestDetectProjectsQueryOrder(t *testing.T) {
	c := Classify("compare sol against eth and btc")
	if !reflect.DeepEqual(c.DetectedProjects, []string{"solana", "ethereum", "bitcoin"}) {
		t.Fatalf("expected first-seen text order, got %v", c.DetectedProjects)
	}
}

func TestSubstringMatchingIsLoose(t *testing.T) {
	// "market" inside "marketing" counts as a price keyword; accepted behavior
	c := Classify("the marketing strategy of some company")
	if c.Category != CategoryPriceOnly {
		t.Fatalf("expected price_only from substring match, got %s", c.Category)
	}
}

func TestClassifyIsCaseInsensitive(t *testing.T) {
	a := Classify("BITCOIN PRICE")
	b := Classify("bitcoin price")
	if a.Category != b.Category || !reflect.DeepEqual(a.DetectedProjects, b.DetectedProjects) {
		t.Fatalf("case should not matter: %+v vs %+v", a, b)
	}
}

func TestValid(t *testing.T) {
	for _, s := range []string{"kb_only", "price_only", "combined", "auto"} {
		if !Valid(s) {
			t.Fatalf("%s should be valid", s)
		}
	}
	if Valid("hybrid") || Valid("") {
		t.Fatalf("unknown modes must be rejected")
	}
}
