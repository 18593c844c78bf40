package types

// defaultTypes are the built-in file type definitions.
var defaultTypes = map[string][]string{
	"asm":          {"*.asm", "*.s", "*.S"},
	"awk":          {"*.awk"},
	"c":            {"*.c", "*.h", "*.H"},
	"cbor":         {"*.cbor"},
	"clojure":      {"*.clj", "*.cljs"},
	"cmake":        {"CMakeLists.txt", "*.cmake"},
	"coffeescript": {"*.coffee"},
	"cpp":          {"*.C", "*.cc", "*.cpp", "*.cxx", "*.h", "*.H", "*.hh", "*.hpp"},
	"csharp":       {"*.cs"},
	"css":          {"*.css", "*.scss"},
	"cython":       {"*.pyx"},
	"d":            {"*.d"},
	"dart":         {"*.dart"},
	"docker":       {"Dockerfile", "*.dockerfile"},
	"elisp":        {"*.el"},
	"erlang":       {"*.erl", "*.hrl"},
	"fortran":      {"*.f", "*.F", "*.f77", "*.F77", "*.pfo", "*.f90", "*.F90", "*.f95", "*.F95"},
	"go":           {"*.go"},
	"gomod":        {"go.mod", "go.sum"},
	"groovy":       {"*.groovy"},
	"haskell":      {"*.hs", "*.lhs"},
	"html":         {"*.htm", "*.html"},
	"java":         {"*.java"},
	"js":           {"*.js", "*.mjs", "*.cjs", "*.jsx"},
	"json":         {"*.json"},
	"jsonl":        {"*.jsonl"},
	"kotlin":       {"*.kt", "*.kts"},
	"lisp":         {"*.el", "*.jl", "*.lisp", "*.lsp", "*.sc", "*.scm"},
	"lua":          {"*.lua"},
	"m4":           {"*.ac", "*.m4"},
	"make":         {"gnumakefile", "Gnumakefile", "makefile", "Makefile", "*.mk"},
	"markdown":     {"*.md", "*.markdown"},
	"matlab":       {"*.m"},
	"mk":           {"mkfile"},
	"ml":           {"*.ml"},
	"objc":         {"*.h", "*.m"},
	"objcpp":       {"*.h", "*.mm"},
	"ocaml":        {"*.ml", "*.mli", "*.mll", "*.mly"},
	"perl":         {"*.perl", "*.pl", "*.PL", "*.plh", "*.plx", "*.pm"},
	"php":          {"*.php", "*.php3", "*.php4", "*.php5", "*.phtml"},
	"proto":        {"*.proto"},
	"py":           {"*.py", "*.pyi"},
	"rr":           {"*.R"},
	"rst":          {"*.rst"},
	"ruby":         {"*.rb", "Gemfile", "Rakefile"},
	"rust":         {"*.rs"},
	"scala":        {"*.scala"},
	"sh":           {"*.bash", "*.csh", "*.ksh", "*.sh", "*.tcsh", "*.zsh"},
	"sql":          {"*.sql"},
	"swift":        {"*.swift"},
	"tex":          {"*.tex", "*.cls", "*.sty"},
	"toml":         {"*.toml", "Cargo.lock"},
	"ts":           {"*.ts", "*.tsx", "*.mts", "*.cts"},
	"txt":          {"*.txt"},
	"vala":         {"*.vala"},
	"vimscript":    {"*.vim"},
	"xml":          {"*.xml"},
	"yacc":         {"*.y"},
	"yaml":         {"*.yaml", "*.yml"},
}
