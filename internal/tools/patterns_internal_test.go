package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStateForMapsOperationTypes(t *testing.T) {
	cases := map[string]string{"start": "RUNNING", "stop": "STOPPED", "enable": "ENABLED", "disable": "DISABLED"}
	for op, want := range cases {
		got, err := runStateFor(op)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := runStateFor("pause")
	assert.Error(t, err)
}

func TestAnalyzeErrorPatternsDetectsGroovyFlowFileScopeIssue(t *testing.T) {
	patterns := analyzeErrorPatterns(
		"org.codehaus.groovy.runtime.MissingPropertyExceptionNoStack: flowFile is not defined",
		"org.apache.nifi.processors.script.ExecuteScript",
	)
	assert.Contains(t, patterns, "groovy_flowfile_scope_issue")
}

func TestAnalyzeErrorPatternsDetectsHTTPContextMapMissing(t *testing.T) {
	patterns := analyzeErrorPatterns(
		"HTTP Context Map not found for this request",
		"org.apache.nifi.processors.standard.HandleHttpRequest",
	)
	assert.Contains(t, patterns, "http_context_map_missing")
}

func TestAnalyzeErrorPatternsDetectsValidationError(t *testing.T) {
	patterns := analyzeErrorPatterns("Property value is invalid for this validation rule", "org.apache.nifi.processors.standard.LogAttribute")
	assert.Contains(t, patterns, "property_validation_error")
}

func TestAnalyzeErrorPatternsNoMatch(t *testing.T) {
	patterns := analyzeErrorPatterns("everything is fine", "org.apache.nifi.processors.standard.LogAttribute")
	assert.Empty(t, patterns)
}

func TestDebuggingSuggestionsCoversEveryKnownPattern(t *testing.T) {
	suggestions := debuggingSuggestions([]string{
		"groovy_flowfile_scope_issue",
		"groovy_script_syntax_error",
		"http_context_map_missing",
		"property_validation_error",
	})
	require.Len(t, suggestions, 4)
	for _, s := range suggestions {
		assert.NotEmpty(t, s["issue"])
		assert.NotEmpty(t, s["solution"])
	}
}

func TestDebuggingSuggestionsIgnoresUnknownPattern(t *testing.T) {
	assert.Empty(t, debuggingSuggestions([]string{"some_future_pattern_not_yet_handled"}))
}
