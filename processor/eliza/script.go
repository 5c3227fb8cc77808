package eliza

// rule is one decomposition pattern with its reassembly lines. Patterns
// are space-separated parts: "*" captures any run of words, "@name"
// captures one word from a synonym class, anything else matches a word
// literally. Reassembly lines reference captures as (N), numbered over
// the stars and classes in pattern order. A save rule stores its reply
// for later recall instead of answering immediately.
type rule struct {
	pattern string
	save    bool
	replies []string
}

// keyword groups the rules triggered by one input word. Higher weights
// are tried first when several keywords appear in an utterance.
type keyword struct {
	word   string
	weight int
	rules  []rule
}

// script is a trimmed form of the classic DOCTOR table: quit words, the
// opening and closing lines, input normalization (pres), pronoun
// reflection on captures (posts), synonym classes and the keyword rules.
var script = struct {
	initial string
	final   string
	quits   []string
	pres    map[string][]string
	posts   map[string][]string
	synons  map[string][]string
	keys    []keyword
}{
	initial: "How do you do.  Please tell me your problem.",
	final:   "Goodbye.  Thank you for talking to me.",

	quits: []string{"bye", "goodbye", "done", "exit", "quit"},

	pres: map[string][]string{
		"dont":       {"don't"},
		"cant":       {"can't"},
		"wont":       {"won't"},
		"recollect":  {"remember"},
		"dreamt":     {"dreamed"},
		"how":        {"what"},
		"when":       {"what"},
		"certainly":  {"yes"},
		"maybe":      {"perhaps"},
		"machine":    {"computer"},
		"machines":   {"computer"},
		"computers":  {"computer"},
		"were":       {"was"},
		"you're":     {"you", "are"},
		"i'm":        {"i", "am"},
		"same":       {"alike"},
		"identical":  {"alike"},
		"equivalent": {"alike"},
	},

	posts: map[string][]string{
		"am":       {"are"},
		"your":     {"my"},
		"me":       {"you"},
		"myself":   {"yourself"},
		"yourself": {"myself"},
		"i":        {"you"},
		"you":      {"I"},
		"my":       {"your"},
		"mine":     {"yours"},
		"i'm":      {"you", "are"},
	},

	synons: map[string][]string{
		"belief":   {"feel", "think", "believe", "wish"},
		"desire":   {"want", "need"},
		"sad":      {"unhappy", "depressed", "sick"},
		"happy":    {"elated", "glad", "better"},
		"family":   {"mother", "mom", "father", "dad", "sister", "brother", "wife", "children", "child"},
		"everyone": {"everyone", "everybody", "nobody", "noone"},
		"be":       {"am", "is", "are", "was"},
	},

	keys: []keyword{
		{word: "xnone", weight: 0, rules: []rule{
			{pattern: "*", replies: []string{
				"I'm not sure I understand you fully.",
				"Please go on.",
				"What does that suggest to you ?",
				"Do you feel strongly about discussing such things ?",
			}},
		}},
		{word: "sorry", weight: 0, rules: []rule{
			{pattern: "*", replies: []string{
				"Please don't apologize.",
				"Apologies are not necessary.",
				"I've told you that apologies are not required.",
			}},
		}},
		{word: "hello", weight: 0, rules: []rule{
			{pattern: "*", replies: []string{
				"How do you do.  Please state your problem.",
			}},
		}},
		{word: "computer", weight: 50, rules: []rule{
			{pattern: "*", replies: []string{
				"Do computers worry you ?",
				"Why do you mention computers ?",
				"What do you think machines have to do with your problem ?",
				"Don't you think computers can help people ?",
			}},
		}},
		{word: "am", weight: 0, rules: []rule{
			{pattern: "* am i *", replies: []string{
				"Do you believe you are (2) ?",
				"Would you want to be (2) ?",
				"Do you wish I would tell you you are (2) ?",
				"What would it mean if you were (2) ?",
			}},
			{pattern: "*", replies: []string{
				"Why do you say 'am' ?",
				"I don't understand that.",
			}},
		}},
		{word: "your", weight: 0, rules: []rule{
			{pattern: "* your *", replies: []string{
				"Why are you concerned over my (2) ?",
				"What about your own (2) ?",
				"Are you worried about someone else's (2) ?",
				"Really, my (2) ?",
			}},
		}},
		{word: "was", weight: 2, rules: []rule{
			{pattern: "* was i *", replies: []string{
				"What if you were (2) ?",
				"Do you think you were (2) ?",
				"Were you (2) ?",
				"What would it mean if you were (2) ?",
			}},
			{pattern: "* i was *", replies: []string{
				"Were you really ?",
				"Why do you tell me you were (2) now ?",
				"Perhaps I already know you were (2) .",
			}},
			{pattern: "* was you *", replies: []string{
				"Would you like to believe I was (2) ?",
				"What suggests that I was (2) ?",
				"What do you think ?",
				"Perhaps I was (2) .",
			}},
		}},
		{word: "i", weight: 0, rules: []rule{
			{pattern: "* i @desire *", replies: []string{
				"What would it mean to you if you got (3) ?",
				"Why do you want (3) ?",
				"Suppose you got (3) soon.",
				"What if you never got (3) ?",
				"What would getting (3) mean to you ?",
			}},
			{pattern: "* i am @sad *", replies: []string{
				"I am sorry to hear that you are (2) .",
				"Do you think coming here will help you not to be (2) ?",
				"I'm sure it's not pleasant to be (2) .",
			}},
			{pattern: "* i am @happy *", replies: []string{
				"How have I helped you to be (2) ?",
				"Has your treatment made you (2) ?",
				"What makes you (2) just now ?",
			}},
			{pattern: "* i was *", replies: []string{
				"goto was",
			}},
			{pattern: "* i @belief * i *", replies: []string{
				"Do you really think so ?",
				"But you are not sure you (4) .",
				"Do you really doubt you (4) ?",
			}},
			{pattern: "* i am *", replies: []string{
				"Is it because you are (2) that you came to me ?",
				"How long have you been (2) ?",
				"Do you believe it is normal to be (2) ?",
				"Do you enjoy being (2) ?",
			}},
			{pattern: "* i can't *", replies: []string{
				"How do you know that you can't (2) ?",
				"Have you tried ?",
				"Perhaps you could (2) now.",
				"Do you really want to be able to (2) ?",
			}},
			{pattern: "* i don't *", replies: []string{
				"Don't you really (2) ?",
				"Why don't you (2) ?",
				"Do you wish to be able to (2) ?",
				"Does that trouble you ?",
			}},
			{pattern: "* i feel *", replies: []string{
				"Tell me more about such feelings.",
				"Do you often feel (2) ?",
				"Do you enjoy feeling (2) ?",
				"Of what does feeling (2) remind you ?",
			}},
			{pattern: "* i * you *", replies: []string{
				"Perhaps in your fantasies we (2) each other.",
				"Do you wish to (2) me ?",
				"You seem to need to (2) me.",
				"Do you (2) anyone else ?",
			}},
			{pattern: "*", replies: []string{
				"You say (1) ?",
				"Can you elaborate on that ?",
				"Do you say (1) for some special reason ?",
				"That's quite interesting.",
			}},
		}},
		{word: "you", weight: 0, rules: []rule{
			{pattern: "* you remind me of *", replies: []string{
				"goto alike",
			}},
			{pattern: "* you are *", replies: []string{
				"What makes you think I am (2) ?",
				"Does it please you to believe I am (2) ?",
				"Do you sometimes wish you were (2) ?",
				"Perhaps you would like to be (2) .",
			}},
			{pattern: "* you * me *", replies: []string{
				"Why do you think I (2) you ?",
				"You like to think I (2) you -- don't you ?",
				"What makes you think I (2) you ?",
				"Really, I (2) you ?",
			}},
			{pattern: "* you *", replies: []string{
				"We were discussing you -- not me.",
				"Oh, I (2) ?",
				"You're not really talking about me -- are you ?",
				"What are your feelings now ?",
			}},
		}},
		{word: "yes", weight: 0, rules: []rule{
			{pattern: "*", replies: []string{
				"You seem to be quite positive.",
				"You are sure.",
				"I see.",
				"I understand.",
			}},
		}},
		{word: "no", weight: 0, rules: []rule{
			{pattern: "*", replies: []string{
				"Are you saying no just to be negative ?",
				"You are being a bit negative.",
				"Why not ?",
				"Why 'no' ?",
			}},
		}},
		{word: "my", weight: 2, rules: []rule{
			{pattern: "* my *", save: true, replies: []string{
				"Lets discuss further why your (2) .",
				"Earlier you said your (2) .",
				"But your (2) .",
				"Does that have anything to do with the fact that your (2) ?",
			}},
			{pattern: "* my * @family *", replies: []string{
				"Tell me more about your family.",
				"Who else in your family (4) ?",
				"Your (3) ?",
				"What else comes to mind when you think of your (3) ?",
			}},
			{pattern: "* my *", replies: []string{
				"Your (2) ?",
				"Why do you say your (2) ?",
				"Does that suggest anything else which belongs to you ?",
				"Is it important to you that your (2) ?",
			}},
		}},
		{word: "can", weight: 0, rules: []rule{
			{pattern: "* can you *", replies: []string{
				"You believe I can (2) don't you ?",
				"You want me to be able to (2) .",
				"Perhaps you would like to be able to (2) yourself.",
			}},
			{pattern: "* can i *", replies: []string{
				"Whether or not you can (2) depends on you more than on me.",
				"Do you want to be able to (2) ?",
				"Perhaps you don't want to (2) .",
			}},
		}},
		{word: "what", weight: 0, rules: []rule{
			{pattern: "*", replies: []string{
				"Why do you ask ?",
				"Does that question interest you ?",
				"What is it you really want to know ?",
				"Are such questions much on your mind ?",
			}},
		}},
		{word: "because", weight: 0, rules: []rule{
			{pattern: "*", replies: []string{
				"Is that the real reason ?",
				"Don't any other reasons come to mind ?",
				"Does that reason seem to explain anything else ?",
				"What other reasons might there be ?",
			}},
		}},
		{word: "why", weight: 0, rules: []rule{
			{pattern: "* why don't you *", replies: []string{
				"Do you believe I don't (2) ?",
				"Perhaps I will (2) in good time.",
				"Should you (2) yourself ?",
				"You want me to (2) ?",
			}},
			{pattern: "* why can't i *", replies: []string{
				"Do you think you should be able to (2) ?",
				"Do you want to be able to (2) ?",
				"Do you believe this will help you to (2) ?",
				"Have you any idea why you can't (2) ?",
			}},
			{pattern: "*", replies: []string{
				"goto what",
			}},
		}},
		{word: "everyone", weight: 2, rules: []rule{
			{pattern: "* @everyone *", replies: []string{
				"Really, (2) ?",
				"Surely not (2) .",
				"Can you think of anyone in particular ?",
				"Who, for example ?",
			}},
		}},
		{word: "always", weight: 1, rules: []rule{
			{pattern: "*", replies: []string{
				"Can you think of a specific example ?",
				"When ?",
				"What incident are you thinking of ?",
				"Really, always ?",
			}},
		}},
		{word: "alike", weight: 10, rules: []rule{
			{pattern: "*", replies: []string{
				"In what way ?",
				"What resemblance do you see ?",
				"What does that similarity suggest to you ?",
				"What other connections do you see ?",
			}},
		}},
		{word: "like", weight: 10, rules: []rule{
			{pattern: "* @be * like *", replies: []string{
				"goto alike",
			}},
		}},
		{word: "remember", weight: 5, rules: []rule{
			{pattern: "* i remember *", replies: []string{
				"Do you often think of (2) ?",
				"Does thinking of (2) bring anything else to mind ?",
				"Why do you remember (2) just now ?",
				"What in the present situation reminds you of (2) ?",
			}},
			{pattern: "* do you remember *", replies: []string{
				"Did you think I would forget (2) ?",
				"Why do you think I should recall (2) now ?",
				"What about (2) ?",
				"You mentioned (2) ?",
			}},
		}},
		{word: "if", weight: 3, rules: []rule{
			{pattern: "* if *", replies: []string{
				"Do you think it's likely that (2) ?",
				"Do you wish that (2) ?",
				"What do you know about (2) ?",
				"Really, if (2) ?",
			}},
		}},
		{word: "dreamed", weight: 4, rules: []rule{
			{pattern: "* i dreamed *", replies: []string{
				"Really, (2) ?",
				"Have you ever fantasized (2) while you were awake ?",
				"Have you ever dreamed (2) before ?",
			}},
		}},
		{word: "perhaps", weight: 0, rules: []rule{
			{pattern: "*", replies: []string{
				"You don't seem quite certain.",
				"Why the uncertain tone ?",
				"Can't you be more positive ?",
				"You aren't sure ?",
				"Don't you know ?",
			}},
		}},
	},
}
