package core

import "sync"

// Editor is the text editor attached to a tab.
type Editor interface {
	Value() string
	SetValue(text string)
}

// TextEditor is an in-memory Editor.
type TextEditor struct {
	mu   sync.Mutex
	text string
}

// NewTextEditor returns an editor holding text.
func NewTextEditor(text string) *TextEditor {
	return &TextEditor{text: text}
}

// Value returns the current text.
func (e *TextEditor) Value() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.text
}

// SetValue replaces the text.
func (e *TextEditor) SetValue(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.text = text
}
