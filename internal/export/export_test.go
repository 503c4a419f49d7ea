package export

import (
	"strings"
	"testing"
	"time"
)

func TestBodyToHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "single paragraph",
			input:    "Hello world",
			expected: "<p>Hello world</p>",
		},
		{
			name:     "two paragraphs",
			input:    "First paragraph.\n\nSecond paragraph.",
			expected: "<p>First paragraph.</p>\n<p>Second paragraph.</p>",
		},
		{
			name:     "line break inside paragraph",
			input:    "line one\nline two",
			expected: "<p>line one<br>line two</p>",
		},
		{
			name:     "escapes markup",
			input:    "1 < 2 & <script>alert(1)</script>",
			expected: "<p>1 &lt; 2 &amp; &lt;script&gt;alert(1)&lt;/script&gt;</p>",
		},
		{
			name:     "windows line endings",
			input:    "first\r\n\r\nsecond",
			expected: "<p>first</p>\n<p>second</p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := BodyToHTML(tt.input)
			if result != tt.expected {
				t.Errorf("BodyToHTML() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "Hello-World"},
		{"My Article v1.2", "My-Article-v12"},
		{"Special!@#$%Chars", "SpecialChars"},
		{"", "article"},
		{"Very Long Title That Exceeds Fifty Characters Limit", "Very-Long-Title-That-Exceeds-Fifty-Characters-Limi"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := sanitizeFilename(tt.input)
			if result != tt.expected {
				t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello world", "hello%20world"},
		{"test+sign", "test%2Bsign"},
		{"special<>", "special%3C%3E"},
		{"normal-text.txt", "normal-text.txt"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := percentEncodeForDataURL(tt.input)
			if result != tt.expected {
				t.Errorf("percentEncodeForDataURL(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestRenderArticleHTML(t *testing.T) {
	data := TemplateData{
		Title:       "Test Article",
		BodyHTML:    "<p>This is the content.</p>",
		Author:      "Test Author",
		PublishedAt: time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC),
		Score:       3,
		Comments: []TemplateComment{
			{
				Author:    "Commenter",
				Body:      "This is a comment",
				CreatedAt: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC),
			},
		},
	}

	html, err := RenderArticleHTML(data)
	if err != nil {
		t.Fatalf("RenderArticleHTML() error = %v", err)
	}

	if !strings.Contains(html, "Test Article") {
		t.Error("HTML missing title")
	}
	if !strings.Contains(html, "Test Author") {
		t.Error("HTML missing author")
	}
	if !strings.Contains(html, "score 3") {
		t.Error("HTML missing score")
	}
	if !strings.Contains(html, "This is a comment") {
		t.Error("HTML missing comments section")
	}

	// Body HTML must be rendered raw, not escaped.
	if strings.Contains(html, "&lt;p&gt;") {
		t.Error("HTML content was escaped - should be rendered as raw HTML")
	}
	if !strings.Contains(html, "<p>This is the content.</p>") {
		t.Error("HTML content should contain unescaped <p> tags")
	}
}
