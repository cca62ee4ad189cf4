package ai

import (
	"strings"
	"testing"

	"kosht/internal/core"
)

func TestBuildPromptListsEveryCategory(t *testing.T) {
	prompt := buildPrompt("silpo groceries")

	for _, c := range core.Categories {
		if c == core.CategoryIncome {
			// Income is not a spending category and must not be offered.
			continue
		}
		if !strings.Contains(prompt, string(c)) {
			t.Fatalf("prompt misses category %s", c)
		}
	}
	if !strings.Contains(prompt, "silpo groceries") {
		t.Fatal("prompt misses the description")
	}
	if !strings.Contains(prompt, "NEEDS (50% of income)") {
		t.Fatal("prompt misses the bucket header")
	}
}

func TestParseModelAnswer(t *testing.T) {
	cases := []struct {
		raw  string
		want core.Category
		ok   bool
	}{
		{"GROCERIES", core.CategoryGroceries, true},
		{"  GROCERIES\n", core.CategoryGroceries, true},
		{"groceries", core.CategoryGroceries, true},
		{"GROCERIES.", core.CategoryGroceries, true},
		{"\"TRANSPORT\"", core.CategoryTransport, true},
		{"```\nRESTAURANTS\n```", core.CategoryRestaurants, true},
		{"SHOPPING because it looks like a store", core.CategoryShopping, true},
		{"OTHER", core.CategoryOther, true},
		{"", "", false},
		{"UNKNOWN_CATEGORY", "", false},
		{"I cannot classify this", "", false},
	}
	for _, tc := range cases {
		got, err := parseModelAnswer(tc.raw)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("parseModelAnswer(%q) = %s, %v; want %s", tc.raw, got, err, tc.want)
			}
		} else if err == nil {
			t.Fatalf("parseModelAnswer(%q) expected error, got %s", tc.raw, got)
		}
	}
}
