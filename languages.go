package mdblocks

import (
	"slices"
	"strings"
)

// codeLanguages are the language names accepted by Notion code blocks.
var codeLanguages = []string{
	"abap", "arduino", "bash", "basic", "c", "clojure", "coffeescript", "c++", "c#",
	"css", "dart", "diff", "docker", "elixir", "elm", "erlang", "flow", "fortran",
	"f#", "gherkin", "glsl", "go", "graphql", "groovy", "haskell", "html", "java",
	"javascript", "json", "julia", "kotlin", "latex", "less", "lisp", "livescript",
	"lua", "makefile", "markdown", "markup", "matlab", "mermaid", "nix", "objective-c",
	"ocaml", "pascal", "perl", "php", "plain text", "powershell", "prolog", "protobuf",
	"python", "r", "reason", "ruby", "rust", "sass", "scala", "scheme", "scss",
	"shell", "sql", "swift", "typescript", "vb.net", "verilog", "vhdl",
	"visual basic", "webassembly", "xml", "yaml", "java/c/c++/c#",
}

var languageSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(codeLanguages))
	for _, lang := range codeLanguages {
		set[lang] = struct{}{}
	}
	return set
}()

var languageAliases = map[string]string{
	"py":         "python",
	"py3":        "python",
	"js":         "javascript",
	"jsx":        "javascript",
	"mjs":        "javascript",
	"node":       "javascript",
	"ts":         "typescript",
	"tsx":        "typescript",
	"sh":         "shell",
	"zsh":        "shell",
	"console":    "shell",
	"yml":        "yaml",
	"golang":     "go",
	"cpp":        "c++",
	"cc":         "c++",
	"cxx":        "c++",
	"h":          "c",
	"cs":         "c#",
	"csharp":     "c#",
	"fs":         "f#",
	"fsharp":     "f#",
	"rb":         "ruby",
	"rs":         "rust",
	"kt":         "kotlin",
	"kts":        "kotlin",
	"dockerfile": "docker",
	"md":         "markdown",
	"txt":        "plain text",
	"text":       "plain text",
	"plaintext":  "plain text",
	"plain":      "plain text",
	"objc":       "objective-c",
	"ps1":        "powershell",
	"pwsh":       "powershell",
	"proto":      "protobuf",
	"tex":        "latex",
	"hs":         "haskell",
	"ex":         "elixir",
	"exs":        "elixir",
	"erl":        "erlang",
	"ml":         "ocaml",
	"pl":         "perl",
	"vb":         "visual basic",
	"wasm":       "webassembly",
	"make":       "makefile",
	"mk":         "makefile",
	"gql":        "graphql",
	"jl":         "julia",
	"clj":        "clojure",
	"coffee":     "coffeescript",
	"htm":        "html",
	"svg":        "xml",
	"patch":      "diff",
	"scm":        "scheme",
	"sv":         "verilog",
}

// Languages returns the supported code block languages in sorted order.
func Languages() []string {
	out := slices.Clone(codeLanguages)
	slices.Sort(out)
	return out
}

// NormalizeLanguage maps a fence language tag to a supported code language.
// It reports false when the tag is unknown.
func NormalizeLanguage(tag string) (string, bool) {
	lang := strings.ToLower(strings.TrimSpace(tag))
	if _, ok := languageSet[lang]; ok {
		return lang, true
	}
	if alias, ok := languageAliases[lang]; ok {
		return alias, true
	}
	return "", false
}
