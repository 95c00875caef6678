package persona

import "testing"

func TestDefaultRegistryLoadsCatalog(t *testing.T) {
	r := Default()
	for _, key := range []string{"luna", "sophia", "aria", "isabella", "zara", "astro_baba"} {
		if _, ok := r.Get(key); !ok {
			t.Fatalf("expected persona %q in catalog", key)
		}
	}
	if len(r.All()) != len(r.Keys()) {
		t.Fatalf("All and Keys disagree: %d vs %d", len(r.All()), len(r.Keys()))
	}
}

func TestGetIsCaseInsensitive(t *testing.T) {
	p, ok := Default().Get("  LUNA ")
	if !ok {
		t.Fatalf("expected luna to be found")
	}
	if p.Key != "luna" || p.Name != "Luna" {
		t.Fatalf("unexpected persona: %+v", p)
	}
	if p.Traits["flirty"] != 9 {
		t.Fatalf("expected flirty trait 9, got %d", p.Traits["flirty"])
	}
}

func TestGetUnknownReturnsFalse(t *testing.T) {
	if _, ok := Default().Get("nobody"); ok {
		t.Fatalf("expected unknown persona to be absent")
	}
	var nilRegistry *Registry
	if _, ok := nilRegistry.Get("luna"); ok {
		t.Fatalf("expected nil registry lookup to be absent")
	}
}

func TestGetReturnsCopy(t *testing.T) {
	r := Default()
	p, _ := r.Get("luna")
	p.Traits["flirty"] = 0

	again, _ := r.Get("luna")
	if again.Traits["flirty"] != 9 {
		t.Fatalf("registry was mutated through a returned persona")
	}
}

func TestFallbackReply(t *testing.T) {
	r := Default()
	sophia := r.FallbackReply("sophia")
	if sophia == GenericFallbackReply || sophia == "" {
		t.Fatalf("expected sophia-specific fallback, got %q", sophia)
	}
	if got := r.FallbackReply("maya"); got != GenericFallbackReply {
		t.Fatalf("expected generic fallback for maya, got %q", got)
	}
	if got := r.FallbackReply("unknown"); got != GenericFallbackReply {
		t.Fatalf("expected generic fallback for unknown persona, got %q", got)
	}
}

func TestParseClampsTraitsAndRejectsNameless(t *testing.T) {
	r, err := Parse([]byte("Test:\n  name: T\n  traits: {Bold: 14, shy: -2}\n"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	p, ok := r.Get("test")
	if !ok {
		t.Fatalf("expected normalized key lookup")
	}
	if p.Traits["bold"] != 10 || p.Traits["shy"] != 0 {
		t.Fatalf("unexpected clamped traits: %v", p.Traits)
	}

	if _, err := Parse([]byte("x:\n  description: no name\n")); err == nil {
		t.Fatalf("expected error for persona without name")
	}
}

func TestNewCharacter(t *testing.T) {
	p, _ := Default().Get("aria")
	c := p.NewCharacter(3)
	if c.PersonaKey != "aria" || c.CategoryID != 3 || !c.IsActive {
		t.Fatalf("unexpected character: %+v", c)
	}
	if c.ConversationStyle != "energetic" || c.TraitScore("energetic") != 9 {
		t.Fatalf("expected persona traits on character: %+v", c)
	}
}
