package language

import (
	"reflect"
	"testing"
)

func TestLookupAliases(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "en"},
		{"EN", "en"},
		{"eng", "en"},
		{"fre", "fr"},
		{"jpn_vert", "ja"},
		{"chi_sim", "zh"},
		{"chi_tra_vert", "zh"},
		{"Japanese", "ja"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			e := lookup(tt.input)
			if e == nil || e.code2 != tt.expected {
				t.Errorf("lookup(%q) = %+v, want %q", tt.input, e, tt.expected)
			}
		})
	}
	for _, unknown := range []string{"xyz", "", " "} {
		if e := lookup(unknown); e != nil {
			t.Errorf("lookup(%q) = %+v, want nil", unknown, e)
		}
	}
}

func TestSplitAndPrimary(t *testing.T) {
	if got := Split(" jpn + eng ++"); !reflect.DeepEqual(got, []string{"jpn", "eng"}) {
		t.Fatalf("Split = %v", got)
	}
	if got := Primary("jpn_vert+eng"); got != "jpn_vert" {
		t.Fatalf("Primary = %q", got)
	}
	if got := Primary(""); got != "eng" {
		t.Fatalf("Primary(empty) = %q, want eng", got)
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"eng":     "English",
		"chi_sim": "Chinese",
		"":        "Unknown",
		"xyz":     "XYZ",
	}
	for input, want := range tests {
		if got := DisplayName(input); got != want {
			t.Errorf("DisplayName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestEspeakVoice(t *testing.T) {
	if got := EspeakVoice("chi_sim"); got != "cmn" {
		t.Fatalf("EspeakVoice(chi_sim) = %q", got)
	}
	if got := EspeakVoice("klingon"); got != "en" {
		t.Fatalf("EspeakVoice fallback = %q, want en", got)
	}
}

func TestVoiceHints(t *testing.T) {
	got := VoiceHints("jpn")
	want := []string{"ja_", "ja-", "japanese"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("VoiceHints(jpn) = %v, want %v", got, want)
	}
	if VoiceHints("xyz") != nil {
		t.Fatal("expected nil hints for unknown code")
	}
}
