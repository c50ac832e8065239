package render

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/imchangchang/video2markdown/document"
	"github.com/imchangchang/video2markdown/storage"
	"github.com/imchangchang/video2markdown/transcript"
	"github.com/imchangchang/video2markdown/vision"
)

type memClient struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemClient() *memClient {
	return &memClient{objects: map[string][]byte{}}
}

func (m *memClient) Upload(ctx context.Context, path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[path] = append([]byte(nil), data...)
	return nil
}

func (m *memClient) Download(ctx context.Context, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.objects[path], nil
}

func (m *memClient) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, path)
	return nil
}

func (m *memClient) Exists(ctx context.Context, path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[path]
	return ok, nil
}

func (m *memClient) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.ObjectInfo
	for k, v := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, storage.ObjectInfo{Key: k, Size: int64(len(v))})
		}
	}
	return out, nil
}

func sampleDocument(visual *float64) *document.Document {
	return &document.Document{
		Title: "测试视频",
		Chapters: []document.Chapter{
			{
				ID: 1, Title: "开篇", StartTime: "00:00:00", EndTime: "00:01:00",
				Summary:   "本章介绍背景",
				KeyPoints: []string{"要点一", "要点二"},
			},
			{
				ID: 2, Title: "架构讲解", StartTime: "00:01:00", EndTime: "00:02:00",
				Summary:           "集群架构",
				CleanedTranscript: "这一段的原始文字",
				VisualTimestamp:   visual,
				VisualReason:      "架构图",
			},
		},
	}
}

func TestRenderDocumentLayout(t *testing.T) {
	ts := 75.0
	descs := []vision.FrameDescription{{
		Timestamp:   75.0,
		ImagePath:   "/tmp/frames/frame_0002_75.0s.jpg",
		Description: "集群架构图",
		KeyElements: []string{"节点", "负载均衡"},
	}}
	out := RenderDocument(sampleDocument(&ts), descs)

	for _, want := range []string{
		"# 测试视频",
		"## 目录",
		"1. [开篇](#chapter-1)",
		"2. [架构讲解](#chapter-2)",
		"<a id='chapter-1'></a>",
		"**时间:** [00:00:00 - 00:01:00]",
		"### 内容摘要",
		"### 关键要点",
		"- 要点一",
		"### 相关画面",
		"![75s](images/frame_0002_75.0s.jpg)",
		"> 集群架构图",
		"**关键元素:** 节点, 负载均衡",
		"### 原文记录",
		"<details>",
		"这一段的原始文字",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered document missing %q", want)
		}
	}

	// Chapter order must match input order.
	if strings.Index(out, "开篇") > strings.Index(out, "架构讲解") {
		t.Error("chapters rendered out of order")
	}
}

func TestRenderDocumentWithoutImage(t *testing.T) {
	out := RenderDocument(sampleDocument(nil), nil)
	if strings.Contains(out, "### 相关画面") {
		t.Error("chapter without visual timestamp should have no image section")
	}
}

func TestRenderDocumentEscapesTOCTitles(t *testing.T) {
	doc := &document.Document{
		Title:    "t",
		Chapters: []document.Chapter{{ID: 1, Title: "数组[0] 的含义", StartTime: "00:00:00", EndTime: "00:01:00"}},
	}
	out := RenderDocument(doc, nil)
	if !strings.Contains(out, `[数组\[0\] 的含义](#chapter-1)`) {
		t.Errorf("TOC title not escaped:\n%s", out)
	}
}

func TestSidecarTruncatesLongTranscript(t *testing.T) {
	desc := vision.FrameDescription{
		Timestamp:         30,
		Description:       "图",
		KeyElements:       []string{"a", "b"},
		RelatedTranscript: strings.Repeat("很长的内容", 200),
	}
	out := Sidecar(desc)
	if !strings.Contains(out, "时间戳: 30s") {
		t.Errorf("sidecar missing timestamp: %s", out)
	}
	if !strings.HasSuffix(strings.TrimSpace(out), "...") {
		t.Error("long transcript should be truncated with ellipsis")
	}
}

func TestDescriptionAtTolerance(t *testing.T) {
	descs := []vision.FrameDescription{{Timestamp: 30.4}}
	if _, ok := DescriptionAt(descs, 30.0); !ok {
		t.Error("timestamps within 0.5s should match")
	}
	if _, ok := DescriptionAt(descs, 32.0); ok {
		t.Error("distant timestamps should not match")
	}
}

func TestWriterUploadsFullTree(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "frame_0001_75.0s.jpg")
	if err := os.WriteFile(imgPath, []byte("jpegdata"), 0o644); err != nil {
		t.Fatal(err)
	}

	ts := 75.0
	doc := sampleDocument(&ts)
	tr := &transcript.Transcript{
		Title:    "测试视频",
		Language: "zh",
		Segments: []transcript.Segment{{Start: 0, End: 5, Text: "你好"}},
	}
	descs := []vision.FrameDescription{{
		Timestamp:   75.0,
		ImagePath:   imgPath,
		Description: "架构图",
		KeyElements: []string{"节点"},
	}}

	client := newMemClient()
	mainKey, err := NewWriter(client).Write(context.Background(), doc, tr, descs)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if mainKey != "测试视频/测试视频.md" {
		t.Errorf("main key = %q", mainKey)
	}

	for _, key := range []string{
		"测试视频/测试视频.md",
		"测试视频/测试视频_word.md",
		"测试视频/测试视频.srt",
		"测试视频/images/frame_0001_75.0s.jpg",
		"测试视频/images/frame_0001_75.0s.txt",
	} {
		if _, ok := client.objects[key]; !ok {
			t.Errorf("missing artifact %q (have %v)", key, keys(client.objects))
		}
	}
}

func TestWriterSkipsMissingImages(t *testing.T) {
	doc := sampleDocument(nil)
	descs := []vision.FrameDescription{{Timestamp: 75, ImagePath: "/nonexistent/frame.jpg"}}

	client := newMemClient()
	if _, err := NewWriter(client).Write(context.Background(), doc, nil, descs); err != nil {
		t.Fatalf("missing image should be skipped, got %v", err)
	}
	for k := range client.objects {
		if strings.Contains(k, "images/") {
			t.Errorf("no image artifacts expected, found %q", k)
		}
	}
}

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"plain":             "plain",
		"has space":         "has_space",
		"a/b\\c:d":          "a_b_c_d",
		"  trimmed  ":       "trimmed",
		"测试: 视频?":           "测试__视频",
		"weird*<>|\"chars":  "weird_____chars",
		"tab\there":         "tab_here",
		"..":                "",
	}
	for in, want := range cases {
		if got := SanitizeName(in); got != want {
			t.Errorf("SanitizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func keys(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
