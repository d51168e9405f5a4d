package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

const copyIcon = `<svg class="w-4 h-4" fill="none" stroke="currentColor" viewBox="0 0 24 24">` +
	`<path stroke-linecap="round" stroke-linejoin="round" stroke-width="2" d="M8 16H6a2 2 0 01-2-2V6a2 2 0 012-2h8a2 2 0 012 2v2m-6 12h8a2 2 0 002-2v-8a2 2 0 00-2-2h-8a2 2 0 00-2 2v8a2 2 0 002 2z"></path></svg>`

// copyScript copies only the code of the block the button sits in.
const copyScript = `navigator.clipboard.writeText(this.closest('.code-block-wrapper').querySelector('code').textContent)`

var codeFormatter = chromahtml.New(chromahtml.WithClasses(true), chromahtml.PreventSurroundingPre(true))

// FormatCodeBlock is the default CodeBlockFormatter: a wrapper with an
// optional language label, a copy button and chroma-highlighted code.
// Unrecognized languages are highlighted as plain text.
func FormatCodeBlock(block CodeBlock, theme Theme) string {
	lexer, recognized := lookupLexer(block.Language)
	lang := "plaintext"
	if recognized {
		lang = strings.ToLower(block.Language)
	}

	var b strings.Builder
	b.WriteString(`<div class="code-block-wrapper group relative my-6">`)
	b.WriteString("\n")
	if recognized {
		fmt.Fprintf(&b, "<div class=\"code-language\">%s</div>\n", html.EscapeString(block.Language))
	}
	fmt.Fprintf(&b, "<button class=\"copy-button\" type=\"button\" title=\"Copy code\" onclick=\"%s\">%s</button>\n", copyScript, copyIcon)
	fmt.Fprintf(&b, "<pre><code class=\"hljs chroma language-%s %s\">", html.EscapeString(lang), theme.CodeClass())
	b.WriteString(highlight(lexer, block.Code, theme))
	b.WriteString("</code></pre>\n</div>\n")
	return b.String()
}

// lookupLexer resolves a declared language. The plain-text lexer is used
// when nothing matches.
func lookupLexer(lang string) (chroma.Lexer, bool) {
	lang = strings.TrimSpace(lang)
	if lang == "" || strings.EqualFold(lang, "text") {
		return lexers.Fallback, false
	}
	if l := lexers.Get(lang); l != nil {
		return l, true
	}
	return lexers.Fallback, false
}

func highlight(lexer chroma.Lexer, code string, theme Theme) string {
	it, err := chroma.Coalesce(lexer).Tokenise(nil, code)
	if err != nil {
		return html.EscapeString(code)
	}
	style := styles.Get(chromaStyles[theme.WithDefaults().Highlight])
	var b strings.Builder
	if err := codeFormatter.Format(&b, style, it); err != nil {
		return html.EscapeString(code)
	}
	return b.String()
}
