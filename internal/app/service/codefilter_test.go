package service

import (
	"testing"

	"github.com/shrinker-io/shrinker/internal/app/shortcode"
)

func TestCodeFilter_NoFalseNegatives(t *testing.T) {
	filter := NewCodeFilter(4096, 0.01)

	var codes []string
	for _, u := range []string{
		"https://example.com/a",
		"https://example.com/b",
		"https://example.com/c",
	} {
		codes = append(codes, shortcode.Generate(u, ""))
	}
	filter.Seed(codes[:2])
	filter.Add(codes[2])

	for _, code := range codes {
		if !filter.MayContain(code) {
			t.Fatalf("filter lost code %q", code)
		}
	}
}

func TestCodeFilter_DefaultsOnZeroValues(t *testing.T) {
	filter := NewCodeFilter(0, 0)
	filter.Add("Lc4KTFB")
	if !filter.MayContain("Lc4KTFB") {
		t.Fatal("filter with defaulted sizing lost a code")
	}
}
