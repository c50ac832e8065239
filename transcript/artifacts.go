package transcript

import (
	"fmt"
	"strings"
)

// ToSRT renders the transcript as SubRip subtitles.
func (t *Transcript) ToSRT() string {
	var b strings.Builder
	for i, seg := range t.Segments {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, srtTime(seg.Start), srtTime(seg.End), seg.Text)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// ToWordDocument renders a plain time-stamped text artifact, one segment
// per line.
func (t *Transcript) ToWordDocument() string {
	lines := []string{
		"# " + t.Title,
		"",
		fmt.Sprintf("视频文稿 | 语言: %s", t.Language),
		"",
	}
	for _, seg := range t.Segments {
		lines = append(lines, fmt.Sprintf("[%02d:%02d] %s", int(seg.Start)/60, int(seg.Start)%60, seg.Text))
	}
	return strings.Join(lines, "\n")
}

// srtTime formats seconds as the SRT timestamp HH:MM:SS,mmm.
func srtTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	millis := int((seconds - float64(total)) * 1000)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", total/3600, (total%3600)/60, total%60, millis)
}
