package fingerprint

import "testing"

func TestSelect(t *testing.T) {
	t.Run("deterministic for identical targets", func(t *testing.T) {
		targets := []string{
			"https://example.com/",
			"https://httpbin.org/get",
			"https://api.test/v1/resource?page=2",
		}

		for _, target := range targets {
			first := Select(target)
			for i := 0; i < 10; i++ {
				if Select(target) != first {
					t.Errorf("Expected stable profile for %q", target)
				}
			}
		}
	})

	t.Run("always yields a table profile", func(t *testing.T) {
		targets := []string{
			"",
			"https://example.com/",
			"https://a.example.com/" + string(rune(0x4e2d)), // non-ASCII path
		}

		for _, target := range targets {
			p := Select(target)
			if p == nil {
				t.Fatalf("Expected a profile for %q, got nil", target)
			}
			found := false
			for _, known := range profiles {
				if p == known {
					found = true
				}
			}
			if !found {
				t.Errorf("Profile for %q is not from the fixed table", target)
			}
		}
	})

	t.Run("table has exactly four variants", func(t *testing.T) {
		if len(profiles) != 4 {
			t.Fatalf("Expected 4 profiles, got %d", len(profiles))
		}
		seen := map[string]bool{}
		for _, p := range profiles {
			if p.headers["User-Agent"] == "" {
				t.Errorf("Profile %s has no User-Agent", p.Name)
			}
			if seen[p.Name] {
				t.Errorf("Duplicate profile name %s", p.Name)
			}
			seen[p.Name] = true
		}
	})
}

func TestProfileHeaders(t *testing.T) {
	t.Run("with origin", func(t *testing.T) {
		h := Select("https://example.com/").Headers("https://app.test")

		if h["Referer"] != "https://app.test" {
			t.Errorf("Expected Referer https://app.test, got %q", h["Referer"])
		}
		if h["Sec-Fetch-Site"] != "cross-site" {
			t.Errorf("Expected Sec-Fetch-Site cross-site, got %q", h["Sec-Fetch-Site"])
		}
	})

	t.Run("without origin", func(t *testing.T) {
		h := Select("https://example.com/").Headers("")

		if h["Referer"] != "https://www.google.com/" {
			t.Errorf("Expected default Referer, got %q", h["Referer"])
		}
		if h["Sec-Fetch-Site"] != "none" {
			t.Errorf("Expected Sec-Fetch-Site none, got %q", h["Sec-Fetch-Site"])
		}
	})

	t.Run("returns a copy", func(t *testing.T) {
		p := Select("https://example.com/")
		h := p.Headers("")
		h["User-Agent"] = "mutated"

		if p.headers["User-Agent"] == "mutated" {
			t.Error("Expected profile table to stay immutable")
		}
	})
}
