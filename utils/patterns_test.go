package utils

import "testing"

func TestShouldIncludeDefaults(t *testing.T) {
	matcher := NewPatternMatcher(nil, nil)
	if !matcher.ShouldInclude("anything.bin") {
		t.Fatal("expected include by default")
	}
	var nilMatcher *PatternMatcher
	if !nilMatcher.ShouldInclude("anything.bin") {
		t.Fatal("nil matcher should include everything")
	}
}

func TestShouldIncludeGlobs(t *testing.T) {
	matcher := NewPatternMatcher([]string{"*.exe", "*.dll"}, nil)
	if matcher.ShouldInclude("notes.txt") {
		t.Fatal("should not include unmatched file")
	}
	if !matcher.ShouldInclude("dropper.exe") {
		t.Fatal("should include matching include pattern")
	}
}

func TestShouldIncludeExcludes(t *testing.T) {
	matcher := NewPatternMatcher(nil, []string{"*.log"})
	if matcher.ShouldInclude("run.log") {
		t.Fatal("should exclude matching exclude pattern")
	}
	if !matcher.ShouldInclude("run.bin") {
		t.Fatal("should include when exclude does not match")
	}
}

func TestShouldIncludeRegex(t *testing.T) {
	matcher := NewPatternMatcher([]string{`.*/quarantine/.*`}, nil)
	if !matcher.ShouldInclude("/srv/quarantine/sample.bin") {
		t.Fatal("should match regex include pattern against full path")
	}
	if matcher.ShouldInclude("/srv/clean/sample.bin") {
		t.Fatal("should not match path outside regex")
	}
}

func TestExcludeWinsOverInclude(t *testing.T) {
	matcher := NewPatternMatcher([]string{"*.bin"}, []string{"skip.bin"})
	if matcher.ShouldInclude("skip.bin") {
		t.Fatal("exclude should take precedence")
	}
	if !matcher.ShouldInclude("keep.bin") {
		t.Fatal("expected keep.bin included")
	}
}
