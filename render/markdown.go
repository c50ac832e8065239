// Package render serializes a structured document into Markdown and writes
// the output tree (main document, word document, subtitles, images) through
// object storage. Rendering itself is pure; only the writer touches I/O.
package render

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/imchangchang/video2markdown/document"
	"github.com/imchangchang/video2markdown/vision"
)

// RenderDocument renders the final Markdown document. Chapter order is
// preserved; frame references are relative paths under images/.
func RenderDocument(doc *document.Document, descs []vision.FrameDescription) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", doc.Title)
	b.WriteString("*AI 整理的视频内容*\n\n")

	b.WriteString("## 目录\n")
	for _, ch := range doc.Chapters {
		fmt.Fprintf(&b, "%d. [%s](#chapter-%d)\n", ch.ID, escapeLinkText(ch.Title), ch.ID)
	}
	b.WriteString("\n---\n\n")

	for _, ch := range doc.Chapters {
		renderChapter(&b, ch, descs)
	}
	return b.String()
}

func renderChapter(b *strings.Builder, ch document.Chapter, descs []vision.FrameDescription) {
	fmt.Fprintf(b, "<a id='chapter-%d'></a>\n", ch.ID)
	fmt.Fprintf(b, "## %d. %s\n\n", ch.ID, ch.Title)
	fmt.Fprintf(b, "**时间:** [%s - %s]\n\n", ch.StartTime, ch.EndTime)

	b.WriteString("### 内容摘要\n")
	b.WriteString(ch.Summary)
	b.WriteString("\n\n")

	if len(ch.KeyPoints) > 0 {
		b.WriteString("### 关键要点\n")
		for _, point := range ch.KeyPoints {
			fmt.Fprintf(b, "- %s\n", point)
		}
		b.WriteString("\n")
	}

	if ch.VisualTimestamp != nil {
		if desc, ok := DescriptionAt(descs, *ch.VisualTimestamp); ok {
			frameFile := filepath.Base(desc.ImagePath)
			b.WriteString("### 相关画面\n")
			fmt.Fprintf(b, "![%ss](images/%s)\n\n", trimFloat(*ch.VisualTimestamp), frameFile)
			b.WriteString("**画面内容:**\n")
			fmt.Fprintf(b, "> %s\n\n", desc.Description)
			if len(desc.KeyElements) > 0 {
				fmt.Fprintf(b, "**关键元素:** %s\n\n", strings.Join(desc.KeyElements, ", "))
			}
		}
	}

	if ch.CleanedTranscript != "" {
		b.WriteString("### 原文记录\n")
		b.WriteString("<details>\n")
		b.WriteString("<summary>📄 查看原始转录</summary>\n\n")
		b.WriteString(ch.CleanedTranscript)
		b.WriteString("\n</details>\n\n")
	}

	b.WriteString("---\n\n")
}

// Sidecar renders the description text file that accompanies each image.
func Sidecar(desc vision.FrameDescription) string {
	var b strings.Builder
	fmt.Fprintf(&b, "时间戳: %ss\n\n", trimFloat(desc.Timestamp))
	fmt.Fprintf(&b, "描述: %s\n\n", desc.Description)
	fmt.Fprintf(&b, "关键元素: %s\n\n", strings.Join(desc.KeyElements, ", "))
	related := desc.RelatedTranscript
	if runes := []rune(related); len(runes) > 500 {
		related = string(runes[:500]) + "..."
	}
	fmt.Fprintf(&b, "相关文字稿:\n%s\n", related)
	return b.String()
}

// DescriptionAt finds the description whose timestamp matches ts within
// half a second.
func DescriptionAt(descs []vision.FrameDescription, ts float64) (vision.FrameDescription, bool) {
	for _, d := range descs {
		diff := d.Timestamp - ts
		if diff < 0 {
			diff = -diff
		}
		if diff <= 0.5 {
			return d, true
		}
	}
	return vision.FrameDescription{}, false
}

// escapeLinkText keeps chapter titles from breaking the TOC link syntax.
func escapeLinkText(s string) string {
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

// trimFloat renders a timestamp without a trailing ".0".
func trimFloat(v float64) string {
	s := fmt.Sprintf("%.1f", v)
	return strings.TrimSuffix(s, ".0")
}
