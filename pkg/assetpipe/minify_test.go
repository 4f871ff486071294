package assetpipe

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdewolff/parse/v2"
	parsecss "github.com/tdewolff/parse/v2/css"
)

func TestMinifyCSS(t *testing.T) {
	out, err := MinifyCSS([]byte(".a { color: red; }\n"))
	require.NoError(t, err)
	require.Equal(t, ".a{color:red}", string(out))

	out, err = MinifyCSS([]byte("/* only a comment */\n"))
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestMinifyCSSRejectsMalformedInput(t *testing.T) {
	cases := map[string]string{
		"unclosed block":      ".a { color: red;",
		"stray brace":         ".a { color: red; } }",
		"unterminated string": ".a { content: \"abc\n\"; }",
		"unbalanced paren":    ".a { width: calc(1px + 2px; }",
	}

	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := MinifyCSS([]byte(src))
			require.Error(t, err)
			require.Contains(t, err.Error(), "line ")
		})
	}
}

// rules returns selectors and declaration names in document order
func rules(t *testing.T, src string) []string {
	t.Helper()

	p := parsecss.NewParser(parse.NewInputString(src), false)
	result := []string{}
	for {
		gt, _, data := p.Next()
		switch gt {
		case parsecss.ErrorGrammar:
			return result
		case parsecss.BeginRulesetGrammar:
			var sel strings.Builder
			for _, val := range p.Values() {
				if val.TokenType != parsecss.WhitespaceToken {
					sel.Write(val.Data)
				}
			}
			result = append(result, sel.String())
		case parsecss.DeclarationGrammar:
			result = append(result, string(bytes.ToLower(data)))
		}
	}
}

func TestMinifyCSSKeepsRules(t *testing.T) {
	src := `
/* header */
.nav > li,
.nav a:hover {
	color: #ff0000;
	margin: 0px 0px 0px 0px;
}

@media (max-width: 600px) {
	.nav { display: none; }
}
`
	out := minified(t, src)
	require.Less(t, len(out), len(src))
	require.Equal(t, rules(t, src), rules(t, out))
}

func TestPlanOutputs(t *testing.T) {
	root := t.TempDir()
	cfg := DefaultConfig(root)

	outputs, err := planOutputs(cfg, []string{
		filepath.Join(cfg.SourceDir, "a.css"),
		filepath.Join(cfg.SourceDir, "b.css"),
	})
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(root, "css", "a.min.css"),
		filepath.Join(root, "css", "b.min.css"),
	}, outputs)

	_, err = planOutputs(cfg, []string{
		filepath.Join(cfg.SourceDir, "A.css"),
		filepath.Join(cfg.SourceDir, "a.css"),
	})
	require.Equal(t, ConfigError, KindOf(err))

	_, err = planOutputs(cfg, []string{filepath.Join(cfg.SourceDir, "site.css")})
	require.Equal(t, ConfigError, KindOf(err))
}
