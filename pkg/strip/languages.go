package strip

import "strings"

type blockPair struct {
	open  string
	close string
}

type quote struct {
	delim     string
	escapes   bool
	multiline bool
}

// syntax describes what the scanner needs to know about one language family.
// Quotes are tried in order, so longer delimiters come first.
type syntax struct {
	line         []string
	blocks       []blockPair
	nested       bool
	quotes       []quote
	charLiterals bool // ' opens a char literal only when it closes right away
	shebang      bool
}

var (
	cBlock   = blockPair{open: "/*", close: "*/"}
	dq       = quote{delim: `"`, escapes: true}
	sq       = quote{delim: `'`, escapes: true}
	backtick = quote{delim: "`", escapes: true, multiline: true}
	rawTick  = quote{delim: "`", multiline: true}
)

var (
	cLike = &syntax{
		line:   []string{"//"},
		blocks: []blockPair{cBlock},
		quotes: []quote{dq, sq},
	}
	goLang = &syntax{
		line:   []string{"//"},
		blocks: []blockPair{cBlock},
		quotes: []quote{dq, sq, rawTick},
	}
	jsLike = &syntax{
		line:   []string{"//"},
		blocks: []blockPair{cBlock},
		quotes: []quote{dq, sq, backtick},
	}
	rust = &syntax{
		line:         []string{"//"},
		blocks:       []blockPair{cBlock},
		nested:       true,
		quotes:       []quote{{delim: `"`, escapes: true, multiline: true}},
		charLiterals: true,
	}
	nestedCLike = &syntax{
		line:   []string{"//"},
		blocks: []blockPair{cBlock},
		nested: true,
		quotes: []quote{
			{delim: `"""`, escapes: true, multiline: true},
			dq, sq,
		},
	}
	css = &syntax{
		blocks: []blockPair{cBlock},
		quotes: []quote{dq, sq},
	}
	scss = &syntax{
		line:   []string{"//"},
		blocks: []blockPair{cBlock},
		quotes: []quote{dq, sq},
	}
	python = &syntax{
		line: []string{"#"},
		quotes: []quote{
			{delim: `"""`, escapes: true, multiline: true},
			{delim: `'''`, escapes: true, multiline: true},
			dq, sq,
		},
		shebang: true,
	}
	hash = &syntax{
		line:    []string{"#"},
		quotes:  []quote{dq, sq},
		shebang: true,
	}
	sql = &syntax{
		line:   []string{"--"},
		blocks: []blockPair{cBlock},
		quotes: []quote{sq, dq},
	}
	lua = &syntax{
		line:   []string{"--"},
		blocks: []blockPair{{open: "--[[", close: "]]"}},
		quotes: []quote{dq, sq},
	}
	haskell = &syntax{
		line:   []string{"--"},
		blocks: []blockPair{{open: "{-", close: "-}"}},
		nested: true,
		quotes: []quote{dq},
	}
	markup = &syntax{
		blocks: []blockPair{{open: "<!--", close: "-->"}},
	}
)

var languages = map[string]*syntax{
	"c": cLike, "h": cLike, "cc": cLike, "cpp": cLike, "cxx": cLike,
	"hpp": cLike, "hh": cLike, "cs": cLike, "java": cLike, "dart": cLike,
	"php": cLike, "proto": cLike,

	"go": goLang,

	"js": jsLike, "jsx": jsLike, "mjs": jsLike, "cjs": jsLike,
	"ts": jsLike, "tsx": jsLike,

	"rs": rust,

	"swift": nestedCLike, "kt": nestedCLike, "kts": nestedCLike, "scala": nestedCLike,

	"css": css, "scss": scss, "less": scss,

	"py": python, "pyi": python,

	"rb": hash, "sh": hash, "bash": hash, "zsh": hash, "pl": hash,
	"r": hash, "toml": hash, "yaml": hash, "yml": hash, "conf": hash,
	"mk": hash, "cmake": hash,

	"sql": sql,
	"lua": lua,
	"hs":  haskell,

	"html": markup, "htm": markup, "xml": markup, "svg": markup, "vue": markup,
}

func lookup(ext string) (*syntax, bool) {
	syn, ok := languages[strings.ToLower(strings.TrimPrefix(ext, "."))]
	return syn, ok
}
