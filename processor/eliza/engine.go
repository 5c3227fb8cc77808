package eliza

import (
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// fallbackKey answers when no keyword in the input produced a reply and
// nothing is held in memory.
const fallbackKey = "xnone"

// Punctuation runs become standalone tokens so decomposition captures
// can be clipped at clause boundaries during reassembly.
var (
	periodRun    = regexp.MustCompile(`\s*\.+\s*`)
	commaRun     = regexp.MustCompile(`\s*,+\s*`)
	semicolonRun = regexp.MustCompile(`\s*;+\s*`)
)

type decomp struct {
	parts   []string
	save    bool
	replies []string
	next    int
}

type key struct {
	word    string
	weight  int
	decomps []*decomp
}

// engine is one compiled rule table. Reply cycling and the recall
// memory are mutable, so engines are never shared between responders;
// the mutex makes a single engine safe for concurrent packs.
type engine struct {
	mu     sync.Mutex
	keys   map[string]*key
	synons map[string][]string
	pres   map[string][]string
	posts  map[string][]string
	quits  []string
	memory []string
}

// newEngine compiles the script into an engine with fresh cycling state.
func newEngine() *engine {
	e := &engine{
		keys:   make(map[string]*key, len(script.keys)),
		synons: script.synons,
		pres:   script.pres,
		posts:  script.posts,
		quits:  script.quits,
	}
	for _, k := range script.keys {
		ck := &key{word: k.word, weight: k.weight}
		for _, r := range k.rules {
			ck.decomps = append(ck.decomps, &decomp{
				parts:   strings.Fields(r.pattern),
				save:    r.save,
				replies: r.replies,
			})
		}
		e.keys[k.word] = ck
	}
	return e
}

// respond runs one utterance through the rule table. The boolean is
// false when the input is a quit word and the closing line applies.
func (e *engine) respond(text string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if slices.Contains(e.quits, strings.ToLower(strings.TrimSpace(text))) {
		return "", false
	}

	t := periodRun.ReplaceAllString(text, " . ")
	t = commaRun.ReplaceAllString(t, " , ")
	t = semicolonRun.ReplaceAllString(t, " ; ")
	words := applySub(strings.Fields(t), e.pres)

	var candidates []*key
	for _, w := range words {
		if k, ok := e.keys[strings.ToLower(w)]; ok {
			candidates = append(candidates, k)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].weight > candidates[j].weight
	})

	for _, k := range candidates {
		if out, ok := e.matchKey(words, k); ok {
			return out, true
		}
	}
	if len(e.memory) > 0 {
		out := e.memory[0]
		e.memory = e.memory[1:]
		return out, true
	}
	reply := e.nextReply(e.keys[fallbackKey].decomps[0])
	return strings.Join(assemble(reply, nil), " "), true
}

// matchKey tries a keyword's decomposition rules in order. Captures are
// pronoun-reflected before reassembly. A goto reply hands the words to
// another keyword; a save rule stores its reply in memory and keeps
// trying further rules.
func (e *engine) matchKey(words []string, k *key) (string, bool) {
	for _, d := range k.decomps {
		captures, ok := matchParts(d.parts, words, e.synons)
		if !ok {
			continue
		}
		for i, c := range captures {
			captures[i] = applySub(c, e.posts)
		}
		reply := e.nextReply(d)
		if len(reply) == 2 && reply[0] == "goto" {
			next, ok := e.keys[reply[1]]
			if !ok {
				continue
			}
			return e.matchKey(words, next)
		}
		out := strings.Join(assemble(reply, captures), " ")
		if d.save {
			e.memory = append(e.memory, out)
			continue
		}
		return out, true
	}
	return "", false
}

// nextReply cycles through a rule's reassembly lines so repeated hits
// on the same rule vary the response.
func (e *engine) nextReply(d *decomp) []string {
	reply := d.replies[d.next%len(d.replies)]
	d.next++
	return strings.Fields(reply)
}

// matchParts matches a decomposition pattern against the input words.
// Stars capture greedily with backtracking, @class parts capture one
// word from a synonym class, other parts match a word case-insensitively.
// Captures are recorded for stars and classes in pattern order.
func matchParts(parts, words []string, synons map[string][]string) ([][]string, bool) {
	var captures [][]string
	if !matchRec(parts, words, synons, &captures) {
		return nil, false
	}
	return captures, true
}

func matchRec(parts, words []string, synons map[string][]string, captures *[][]string) bool {
	if len(parts) == 0 {
		return len(words) == 0
	}
	switch {
	case parts[0] == "*":
		for n := len(words); n >= 0; n-- {
			*captures = append(*captures, words[:n])
			if matchRec(parts[1:], words[n:], synons, captures) {
				return true
			}
			*captures = (*captures)[:len(*captures)-1]
		}
		return false
	case strings.HasPrefix(parts[0], "@"):
		if len(words) == 0 || !slices.Contains(synons[parts[0][1:]], strings.ToLower(words[0])) {
			return false
		}
		*captures = append(*captures, words[:1])
		if matchRec(parts[1:], words[1:], synons, captures) {
			return true
		}
		*captures = (*captures)[:len(*captures)-1]
		return false
	default:
		if len(words) == 0 || !strings.EqualFold(parts[0], words[0]) {
			return false
		}
		return matchRec(parts[1:], words[1:], synons, captures)
	}
}

// assemble expands (N) placeholders in a reply with the Nth capture,
// clipped at the first clause boundary.
func assemble(reply []string, captures [][]string) []string {
	var out []string
	for _, tok := range reply {
		idx, ok := captureIndex(tok)
		if !ok || idx < 1 || idx > len(captures) {
			out = append(out, tok)
			continue
		}
		insert := captures[idx-1]
		for i, w := range insert {
			if w == "." || w == "," || w == ";" {
				insert = insert[:i]
				break
			}
		}
		out = append(out, insert...)
	}
	return out
}

func captureIndex(tok string) (int, bool) {
	if len(tok) < 3 || tok[0] != '(' || tok[len(tok)-1] != ')' {
		return 0, false
	}
	n, err := strconv.Atoi(tok[1 : len(tok)-1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// applySub rewrites words through a substitution table, used for input
// normalization and for pronoun reflection on captures.
func applySub(words []string, sub map[string][]string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if repl, ok := sub[strings.ToLower(w)]; ok {
			out = append(out, repl...)
		} else {
			out = append(out, w)
		}
	}
	return out
}
