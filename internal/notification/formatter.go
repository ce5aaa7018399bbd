package notification

import (
	"strings"
	"unicode/utf8"
)

// MessageFormatter splits alert text into messages that fit a provider's length limit
type MessageFormatter struct {
	MaxMessageLength int // Maximum characters per message (default: 4096 for Telegram)
}

// NewMessageFormatter creates a new message formatter with default settings
func NewMessageFormatter() *MessageFormatter {
	return &MessageFormatter{
		MaxMessageLength: 4096, // Telegram's sendMessage limit
	}
}

// Split returns text unchanged when it fits, otherwise splits it on line boundaries.
// A single line longer than the limit is cut at the limit. Newlines at a split point
// are dropped and no returned message is blank.
func (f *MessageFormatter) Split(text string) []string {
	if f.MaxMessageLength <= 0 || utf8.RuneCountInString(text) <= f.MaxMessageLength {
		return []string{text}
	}

	var pieces []string
	for _, line := range strings.Split(text, "\n") {
		pieces = append(pieces, f.cutLine(line)...)
	}

	return f.splitMessages(pieces)
}

// cutLine breaks a line that is longer than the limit into limit-sized pieces
func (f *MessageFormatter) cutLine(line string) []string {
	runes := []rune(line)
	if len(runes) <= f.MaxMessageLength {
		return []string{line}
	}

	var pieces []string
	for len(runes) > f.MaxMessageLength {
		pieces = append(pieces, string(runes[:f.MaxMessageLength]))
		runes = runes[f.MaxMessageLength:]
	}
	if len(runes) > 0 {
		pieces = append(pieces, string(runes))
	}
	return pieces
}

// splitMessages joins pieces with newlines into as few messages as fit within the max length
func (f *MessageFormatter) splitMessages(pieces []string) []string {
	var messages []string
	var currentMessage strings.Builder
	currentLength := 0

	for _, piece := range pieces {
		pieceLength := utf8.RuneCountInString(piece)
		// Check if adding this piece and its separator would exceed the limit
		if currentLength > 0 && currentLength+1+pieceLength > f.MaxMessageLength {
			messages = append(messages, strings.TrimRight(currentMessage.String(), "\n"))
			currentMessage.Reset()
			currentLength = 0
		}

		// A message never starts with a blank line
		if currentLength == 0 {
			if strings.TrimSpace(piece) == "" {
				continue
			}
			currentMessage.WriteString(piece)
			currentLength = pieceLength
			continue
		}

		currentMessage.WriteString("\n")
		currentMessage.WriteString(piece)
		currentLength += 1 + pieceLength
	}

	// Add the last message if it has content
	if currentLength > 0 {
		messages = append(messages, strings.TrimRight(currentMessage.String(), "\n"))
	}

	return messages
}
