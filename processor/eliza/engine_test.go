package eliza

import (
	"strings"
	"testing"
)

func TestRespondKeywordRules(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"statement echo", "I would like to have a chat bot.", "You say you would like to have a chat bot ?"},
		{"desire class", "I want a cookie", "What would it mean to you if you got a cookie ?"},
		{"keyword ranking", "You are a computer.", "Do computers worry you ?"},
		{"pronoun reflection", "you hate me", "Why do you think I hate you ?"},
		{"goto rule", "why", "Why do you ask ?"},
		{"pre substitution", "I'm unhappy.", "I am sorry to hear that you are unhappy ."},
		{"synonym with goto", "I am like my father", "In what way ?"},
		{"fallback", "xyzzy", "I'm not sure I understand you fully."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := newEngine().respond(tt.input)
			if !ok {
				t.Fatal("expected a reply, got a quit")
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRespondQuitWords(t *testing.T) {
	e := newEngine()
	for _, input := range []string{"bye", "Bye", "goodbye", "quit"} {
		if _, ok := e.respond(input); ok {
			t.Errorf("expected %q to end the conversation", input)
		}
	}
}

func TestRespondCyclesReplies(t *testing.T) {
	e := newEngine()
	want := []string{
		"You say you would like to have a chat bot ?",
		"Can you elaborate on that ?",
		"Do you say you would like to have a chat bot for some special reason ?",
	}
	for i, w := range want {
		got, ok := e.respond("I would like to have a chat bot.")
		if !ok {
			t.Fatalf("round %d: expected a reply, got a quit", i)
		}
		if got != w {
			t.Errorf("round %d: expected %q, got %q", i, w, got)
		}
	}
}

func TestRespondRecallsSavedReply(t *testing.T) {
	e := newEngine()
	direct, _ := e.respond("my car is old.")
	if direct != "Your car is old ?" {
		t.Fatalf("expected direct reply about the car, got %q", direct)
	}
	recalled, _ := e.respond("xyzzy")
	if recalled != "Lets discuss further why your car is old ." {
		t.Errorf("expected recalled reply, got %q", recalled)
	}
}

// The script is static data, so broken goto targets, unknown synonym
// classes and out-of-range capture references are caught here rather
// than at match time.
func TestScriptIntegrity(t *testing.T) {
	e := newEngine()
	for _, k := range script.keys {
		for _, r := range k.rules {
			captures := 0
			for _, part := range strings.Fields(r.pattern) {
				switch {
				case part == "*":
					captures++
				case strings.HasPrefix(part, "@"):
					if _, ok := script.synons[part[1:]]; !ok {
						t.Errorf("key %q rule %q references unknown class %s", k.word, r.pattern, part)
					}
					captures++
				}
			}
			for _, reply := range r.replies {
				toks := strings.Fields(reply)
				if len(toks) == 2 && toks[0] == "goto" {
					if _, ok := e.keys[toks[1]]; !ok {
						t.Errorf("key %q jumps to unknown key %q", k.word, toks[1])
					}
					continue
				}
				for _, tok := range toks {
					if idx, ok := captureIndex(tok); ok && idx > captures {
						t.Errorf("key %q reply %q references capture %d of %d", k.word, reply, idx, captures)
					}
				}
			}
		}
	}
	if _, ok := e.keys[fallbackKey]; !ok {
		t.Fatalf("script has no %q key", fallbackKey)
	}
}
