package language

import "strings"

type entry struct {
	code2   string   // ISO 639-1
	code3   string   // tesseract / ISO 639-2 primary
	alt3    []string // alternate tesseract codes and script variants
	display string
	espeak  string // espeak-ng voice name
}

var languages = []entry{
	{"en", "eng", nil, "English", "en"},
	{"es", "spa", nil, "Spanish", "es"},
	{"fr", "fra", []string{"fre"}, "French", "fr"},
	{"de", "deu", []string{"ger"}, "German", "de"},
	{"it", "ita", nil, "Italian", "it"},
	{"pt", "por", nil, "Portuguese", "pt"},
	{"ja", "jpn", []string{"jpn_vert"}, "Japanese", "ja"},
	{"ko", "kor", []string{"kor_vert"}, "Korean", "ko"},
	{"zh", "zho", []string{"chi", "chi_sim", "chi_tra", "chi_sim_vert", "chi_tra_vert"}, "Chinese", "cmn"},
	{"ru", "rus", nil, "Russian", "ru"},
	{"nl", "nld", []string{"dut"}, "Dutch", "nl"},
	{"pl", "pol", nil, "Polish", "pl"},
	{"sv", "swe", nil, "Swedish", "sv"},
	{"id", "ind", nil, "Indonesian", "id"},
	{"th", "tha", nil, "Thai", "th"},
	{"vi", "vie", nil, "Vietnamese", "vi"},
}

var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		for _, alt := range e.alt3 {
			byCode3[alt] = e
		}
		byWord[strings.ToLower(e.display)] = e
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	return nil
}

// Split breaks a tesseract language selection ("jpn+eng") into its codes,
// dropping blanks.
func Split(selection string) []string {
	parts := strings.Split(selection, "+")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Primary returns the first language of a tesseract selection, or "eng".
func Primary(selection string) string {
	if codes := Split(selection); len(codes) > 0 {
		return codes[0]
	}
	return "eng"
}

// DisplayName returns a human-readable language name.
// Returns "Unknown" for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// EspeakVoice returns the espeak-ng voice for code, defaulting to English.
func EspeakVoice(code string) string {
	if e := lookup(code); e != nil {
		return e.espeak
	}
	return "en"
}

// VoiceHints returns lowercase substrings that identify a voice for code in
// an engine's voice listing: locale prefixes such as "ja_" and "ja-", and the
// English language name. Unknown codes yield nil.
func VoiceHints(code string) []string {
	e := lookup(code)
	if e == nil {
		return nil
	}
	return []string{e.code2 + "_", e.code2 + "-", strings.ToLower(e.display)}
}
