package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMsg(t *testing.T) {
	t.Cleanup(func() { setLanguage("en") })

	tests := map[string]struct {
		lang     string
		id       string
		data     map[string]any
		expected string
	}{
		"english": {
			lang: "en", id: "SessionEnded",
			data:     map[string]any{"Name": "ssh:vt@host:22", "Status": 3},
			expected: "ssh:vt@host:22 exited with status 3",
		},
		"german": {
			lang: "de", id: "ScreenHeader",
			expected: "-- Bildschirm --",
		},
		"regional german": {
			lang: "de-AT", id: "ScreenHeader",
			expected: "-- Bildschirm --",
		},
		"untranslated language": {
			lang: "fr", id: "ScreenHeader",
			expected: "-- screen --",
		},
		"malformed language": {
			lang: "not a tag", id: "Title",
			expected: "Terminal",
		},
		"missing message": {
			lang: "en", id: "NoSuchMessage",
			expected: "NoSuchMessage",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			setLanguage(tt.lang)
			assert.Equal(t, tt.expected, msg(tt.id, tt.data))
		})
	}
}

func TestSplitTarget(t *testing.T) {
	tests := map[string]struct {
		target, user       string
		wantUser, wantHost string
	}{
		"host only":  {target: "example.org", user: "me", wantUser: "me", wantHost: "example.org"},
		"user":       {target: "vt@example.org", user: "me", wantUser: "vt", wantHost: "example.org"},
		"at in user": {target: "a@b@example.org", wantUser: "a@b", wantHost: "example.org"},
		"empty user": {target: "@example.org", user: "me", wantUser: "", wantHost: "example.org"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			user, host := splitTarget(tt.target, tt.user)
			assert.Equal(t, tt.wantUser, user)
			assert.Equal(t, tt.wantHost, host)
		})
	}
}
