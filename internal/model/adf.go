package model

import "strings"

// Document is a minimal Atlassian Document Format (ADF) document, the rich
// text structure Jira requires for descriptions and comments.
type Document struct {
	Version int    `json:"version"`
	Type    string `json:"type"`
	Content []Node `json:"content"`
}

// Node is a paragraph or text node inside an ADF document.
type Node struct {
	Type    string `json:"type"`
	Content []Node `json:"content,omitempty"`
	Text    string `json:"text,omitempty"`
}

// TextToADF converts plain text to an ADF document. Paragraphs are split
// on blank lines (double newline) and trimmed; paragraphs that are empty
// after trimming are dropped. Empty input yields a document with zero
// paragraphs rather than an error.
func TextToADF(text string) Document {
	doc := Document{
		Version: 1,
		Type:    "doc",
		Content: []Node{},
	}
	if text == "" {
		return doc
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		doc.Content = append(doc.Content, Node{
			Type: "paragraph",
			Content: []Node{
				{Type: "text", Text: para},
			},
		})
	}
	return doc
}
