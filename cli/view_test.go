package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemoveFirstDashDash(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "empty slice", in: []string{}, want: []string{}},
		{name: "starts with --", in: []string{"--", "-top"}, want: []string{"-top"}},
		{name: "no --", in: []string{"-top"}, want: []string{"-top"}},
		{name: "only --", in: []string{"--"}, want: []string{}},
		{name: "-- in middle", in: []string{"-top", "--", "-list"}, want: []string{"-top", "--", "-list"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, removeFirstDashDash(tt.in))
		})
	}
}

func TestParseViewArgs(t *testing.T) {
	tests := []struct {
		name          string
		in            []string
		wantID        string
		wantPprofArgs []string
	}{
		{name: "default to latest", in: []string{}, wantID: "0"},
		{name: "index", in: []string{"-1"}, wantID: "-1", wantPprofArgs: []string{}},
		{name: "hex id", in: []string{"abc123"}, wantID: "abc123", wantPprofArgs: []string{}},
		{name: "pprof flags only", in: []string{"-top", "-nodecount=5"}, wantID: "0", wantPprofArgs: []string{"-top", "-nodecount=5"}},
		{name: "leading --", in: []string{"--", "-top"}, wantID: "0", wantPprofArgs: []string{"-top"}},
		{name: "id then flags", in: []string{"-2", "--", "-http=:8080"}, wantID: "-2", wantPprofArgs: []string{"-http=:8080"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, args := parseViewArgs(tt.in)
			assert.Equal(t, tt.wantID, id)
			assert.Equal(t, tt.wantPprofArgs, args)
		})
	}
}
