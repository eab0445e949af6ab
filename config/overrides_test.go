package config

import "testing"

func TestPropertyStore(t *testing.T) {
	store := &PropertyStore{}

	if _, ok := store.Lookup("k"); ok {
		t.Fatalf("expected empty store")
	}

	store.SetProperty("k", "v")
	if v, ok := store.Property("k"); !ok || v != "v" {
		t.Fatalf("expected v, got %q (found=%v)", v, ok)
	}

	store.ClearProperty("k")
	if _, ok := store.Lookup("k"); ok {
		t.Fatalf("expected key to be cleared")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("org.asynchttpclient.test.env", "from-env")

	if v, ok := (EnvOverrides{}).Lookup("org.asynchttpclient.test.env"); !ok || v != "from-env" {
		t.Fatalf("expected env value, got %q (found=%v)", v, ok)
	}
	if _, ok := (EnvOverrides{}).Lookup("org.asynchttpclient.test.unset"); ok {
		t.Fatalf("expected unset variable to miss")
	}
}

func TestOverrideChainFirstHitWins(t *testing.T) {
	chain := OverrideChain{
		nil,
		MapOverrides{"a": "first"},
		MapOverrides{"a": "second", "b": "second"},
	}

	if v, _ := chain.Lookup("a"); v != "first" {
		t.Fatalf("expected first, got %q", v)
	}
	if v, _ := chain.Lookup("b"); v != "second" {
		t.Fatalf("expected second, got %q", v)
	}
	if _, ok := chain.Lookup("c"); ok {
		t.Fatalf("expected miss")
	}
}

func TestSystemPropertiesFeedDefaultOverrides(t *testing.T) {
	const key = "org.asynchttpclient.test.system"
	SystemProperties().SetProperty(key, "from-system")
	t.Cleanup(func() {
		SystemProperties().ClearProperty(key)
	})

	if v, ok := defaultOverrides().Lookup(key); !ok || v != "from-system" {
		t.Fatalf("expected system property, got %q (found=%v)", v, ok)
	}
}
