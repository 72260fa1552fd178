package site

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestRegistry_Lookup(t *testing.T) {
	reg := DefaultRegistry()

	tests := []struct {
		name     string
		url      string
		expected string
		found    bool
	}{
		{"iisc", "https://iisc.ac.in/admissions/external-registration-programme-ph-d/", "iisc", true},
		{"reva", "https://www.reva.edu.in/phd-admissions/", "reva", true},
		{"christ", "https://christuniversity.in/bangalore-central-campus-phd-programmes", "christ", true},
		{"pes", "https://pes.edu/phd/", "pes", true},
		{"未知のドメイン", "https://www.dsu.edu.in/dsu-research/phd-admission", "", false},
		{"最初にマッチしたものが優先", "https://pes.edu/redirect?to=iisc.ac.in", "iisc", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, ok := reg.Lookup(tt.url)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.expected, rule.Name)
		})
	}
}

func TestRegistry_Extract(t *testing.T) {
	reg := DefaultRegistry()

	tests := []struct {
		name     string
		url      string
		html     string
		expected string
	}{
		{
			name:     "iisc_first_matching_paragraph",
			url:      "https://iisc.ac.in/admissions/",
			html:     `<p>Welcome</p><p>Last Date: 15/08/2025</p><p>Deadline extended</p>`,
			expected: "Last Date: 15/08/2025",
		},
		{
			name:     "iisc_paragraph_with_nested_elements_is_skipped",
			url:      "https://iisc.ac.in/admissions/",
			html:     `<p>The <b>deadline</b> is near</p><p>No match here</p>`,
			expected: "",
		},
		{
			name:     "reva_matches_class_attribute",
			url:      "https://www.reva.edu.in/phd-admissions/",
			html:     `<div class="hero">Apply</div><span class="event-Date">31 July 2025</span>`,
			expected: "31 July 2025",
		},
		{
			name:     "christ_important_dates",
			url:      "https://christuniversity.in/phd",
			html:     `<div>Campus life</div><div>Important Dates</div>`,
			expected: "Important Dates",
		},
		{
			name:     "pes_paragraph_or_div_in_document_order",
			url:      "https://pes.edu/phd/",
			html:     `<div>How to Apply</div><p>Admission open</p>`,
			expected: "How to Apply",
		},
		{
			name:     "text_is_returned_verbatim",
			url:      "https://christuniversity.in/phd",
			html:     "<div>\n  Admission   Schedule\u00a0 </div>",
			expected: "\n  Admission   Schedule\u00a0 ",
		},
		{
			name:     "no_rule_for_domain",
			url:      "https://example.org/",
			html:     `<p>Deadline 01/01/2026</p>`,
			expected: "",
		},
		{
			name:     "rule_without_matching_element",
			url:      "https://pes.edu/phd/",
			html:     `<p>Research areas</p>`,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, reg.Extract(tt.url, mustDoc(t, tt.html)))
		})
	}
}

func TestNewRegistry_CustomRule(t *testing.T) {
	_, ok := NewRegistry().Lookup("https://jainuniversity.ac.in/phd")
	assert.False(t, ok)

	reg := NewRegistry(Rule{Name: "jain", Domain: "jainuniversity.ac.in", Tags: "h2", Pattern: DefaultRegistry().rules[0].Pattern})
	rule, ok := reg.Lookup("https://jainuniversity.ac.in/phd")
	require.True(t, ok)
	assert.Equal(t, "jain", rule.Name)
	assert.Equal(t, "Deadline", reg.Extract("https://jainuniversity.ac.in/phd", mustDoc(t, `<h2>Deadline</h2>`)))
}

func TestRule_ExtractNilDocument(t *testing.T) {
	field, ok := DefaultRegistry().rules[0].Extract(nil)
	assert.False(t, ok)
	assert.Empty(t, field)
}
