package keyframe

import (
	"sort"
	"strings"
)

// visualCues are phrases that suggest the speaker is referring to something
// on screen, keyed by language. The "auto" entry unions Chinese and English
// since detection may not have resolved the language.
var visualCues = map[string][]string{
	"zh": {
		"如图", "如图所示", "看这个", "展示", "屏幕", "页面",
		"这边", "这里", "界面", "图表", "数据",
		"PPT", "板书", "代码", "演示",
	},
	"en": {
		"as shown", "as you can see", "look at", "on the screen",
		"this diagram", "this chart", "this slide", "this page",
		"over here", "the code", "the interface", "the demo",
	},
}

// abstractConcepts are topics where a picture usually helps even without an
// explicit on-screen reference.
var abstractConcepts = map[string][]string{
	"zh": {
		"架构", "流程", "结构", "框架", "模型", "系统",
		"原理", "机制", "算法", "设计", "方案",
	},
	"en": {
		"architecture", "workflow", "structure", "framework", "pipeline",
		"algorithm", "design", "mechanism", "topology",
	},
}

// cuesFor returns the lexicon entries for a language, falling back to the
// union of all languages when unresolved.
func cuesFor(table map[string][]string, language string) []string {
	if words, ok := table[language]; ok {
		return words
	}
	langs := make([]string, 0, len(table))
	for lang := range table {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	var all []string
	for _, lang := range langs {
		all = append(all, table[lang]...)
	}
	return all
}

// containsAny reports whether text contains any of the phrases,
// case-insensitively.
func containsAny(text string, phrases []string) (string, bool) {
	lower := strings.ToLower(text)
	for _, p := range phrases {
		if strings.Contains(lower, strings.ToLower(p)) {
			return p, true
		}
	}
	return "", false
}
