package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/imchangchang/video2markdown/document"
	"github.com/imchangchang/video2markdown/logger"
	"github.com/imchangchang/video2markdown/storage"
	"github.com/imchangchang/video2markdown/transcript"
	"github.com/imchangchang/video2markdown/vision"
)

// Writer persists the rendered output tree through object storage:
//
//	{title}/{title}.md        main document
//	{title}/{title}_word.md   word document
//	{title}/{title}.srt       subtitles
//	{title}/images/*.jpg      frames with *.txt sidecar descriptions
type Writer struct {
	client storage.ByteClient
	log    *logger.Logger
}

// NewWriter creates a Writer.
func NewWriter(client storage.ByteClient) *Writer {
	return &Writer{client: client, log: logger.Get("renderer")}
}

// Write renders and uploads every artifact, returning the main document key.
// Missing frame images are skipped with a log entry; a failed upload of the
// main document is an error, sidecar upload failures are not.
func (w *Writer) Write(ctx context.Context, doc *document.Document, t *transcript.Transcript, descs []vision.FrameDescription) (string, error) {
	base := SanitizeName(doc.Title)
	if base == "" {
		base = "untitled"
	}

	mainKey := base + "/" + base + ".md"
	if err := w.client.Upload(ctx, mainKey, []byte(RenderDocument(doc, descs))); err != nil {
		return "", fmt.Errorf("render: write main document: %w", err)
	}

	if t != nil {
		if err := w.client.Upload(ctx, base+"/"+base+"_word.md", []byte(t.ToWordDocument())); err != nil {
			return "", fmt.Errorf("render: write word document: %w", err)
		}
		if err := w.client.Upload(ctx, base+"/"+base+".srt", []byte(t.ToSRT())); err != nil {
			return "", fmt.Errorf("render: write subtitles: %w", err)
		}
	}

	copied := 0
	for _, desc := range descs {
		data, err := os.ReadFile(desc.ImagePath)
		if err != nil {
			w.log.Warn("frame image missing, skipped", map[string]interface{}{
				"path":  desc.ImagePath,
				"error": err.Error(),
			})
			continue
		}
		name := filepath.Base(desc.ImagePath)
		if err := w.client.Upload(ctx, base+"/images/"+name, data); err != nil {
			return "", fmt.Errorf("render: write image %s: %w", name, err)
		}
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		if err := w.client.Upload(ctx, base+"/images/"+stem+".txt", []byte(Sidecar(desc))); err != nil {
			w.log.Warn("sidecar write failed", map[string]interface{}{
				"path":  stem + ".txt",
				"error": err.Error(),
			})
		}
		copied++
	}

	w.log.Info("output written", map[string]interface{}{
		"main":   mainKey,
		"images": copied,
	})
	return mainKey, nil
}

// SanitizeName strips characters that are unsafe in object keys and file
// paths, replacing them with underscores.
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)
	var b strings.Builder
	for _, r := range name {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', '\n', '\r', '\t':
			b.WriteRune('_')
		case ' ':
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "._")
}
