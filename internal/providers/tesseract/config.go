// Package tesseract recognizes text lines with Tesseract through gosseract.
// The cgo binding is only compiled with the tesseract build tag.
package tesseract

// Config narrows which installed languages are offered.
type Config struct {
	// Languages, when set, replaces the installed language list.
	Languages []string
}

// usableLanguages drops the script-detection pseudo language, which cannot
// recognize text on its own.
func usableLanguages(installed []string) []string {
	out := make([]string, 0, len(installed))
	for _, lang := range installed {
		if lang == "" || lang == "osd" {
			continue
		}
		out = append(out, lang)
	}
	return out
}
