package transcript

import (
	"sync"

	"github.com/longbridgeapp/opencc"
)

// CanonicalScript converts text to the canonical script for the language.
// For Chinese (or auto-detected input that may be Chinese) this maps
// traditional characters to simplified; other languages pass through.
func CanonicalScript(text, language string) string {
	switch language {
	case "zh", "auto", "":
		return toSimplified(text)
	}
	return text
}

var (
	t2sOnce sync.Once
	t2s     *opencc.OpenCC
)

// toSimplified runs the OpenCC traditional-to-simplified conversion. The
// converter loads its embedded dictionaries on first use. If it cannot be
// built or a conversion fails, the text passes through unchanged rather
// than aborting the transcript.
func toSimplified(text string) string {
	t2sOnce.Do(func() {
		cc, err := opencc.New("t2s")
		if err != nil {
			return
		}
		t2s = cc
	})
	if t2s == nil {
		return text
	}
	out, err := t2s.Convert(text)
	if err != nil {
		return text
	}
	return out
}
